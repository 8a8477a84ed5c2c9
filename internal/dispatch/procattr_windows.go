//go:build windows

package dispatch

import "os/exec"

func setProcessGroup(cmd *exec.Cmd) {}

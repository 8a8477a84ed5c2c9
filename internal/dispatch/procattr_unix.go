//go:build !windows

package dispatch

import (
	"os/exec"
	"syscall"
)

// setProcessGroup starts the child in its own process group; cancellation
// signals the group.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGTERM)
	}
}

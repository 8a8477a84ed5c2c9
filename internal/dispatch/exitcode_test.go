package dispatch

import (
	"fmt"
	"os/exec"
	"strings"
	"testing"
)

func TestExitCode_Nil(t *testing.T) {
	code, err := exitCode(nil)
	if code != 0 || err != nil {
		t.Fatalf("code=%d, err=%v", code, err)
	}
}

func TestExitCode_OtherError(t *testing.T) {
	code, err := exitCode(fmt.Errorf("some error"))
	if code != 0 || err == nil {
		t.Fatalf("code=%d, err=%v", code, err)
	}
}

func TestExitCode_ExitError(t *testing.T) {
	runErr := exec.Command("sh", "-c", "exit 42").Run()
	code, err := exitCode(runErr)
	if code != 42 || err != nil {
		t.Fatalf("code=%d, err=%v", code, err)
	}
}

func TestExitErrorMessage(t *testing.T) {
	err := &ExitError{Argv: []string{"git", "clone", "x"}, Code: 128, Stderr: "fatal: not found\n"}
	msg := err.Error()
	if !strings.Contains(msg, "exit code 128: git clone x") || !strings.HasSuffix(msg, "fatal: not found") {
		t.Fatalf("got %q", msg)
	}
}

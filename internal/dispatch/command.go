package dispatch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/jorge-barreto/refcollect/internal/logger"
)

// Command is one external process invocation.
type Command struct {
	Argv []string
	Dir  string
	// LogPath receives stdout and stderr when set.
	LogPath string
	// Echo streams stdout to the terminal as well as capturing it.
	Echo bool
}

func (c Command) String() string {
	return strings.Join(c.Argv, " ")
}

// Result holds the outcome of a command.
type Result struct {
	ExitCode int
	Output   string
	Stderr   string
}

// Executor runs external commands. Tests can substitute a fake.
type Executor interface {
	Run(ctx context.Context, c Command, env *Environment) (*Result, error)
}

// RealExecutor runs commands with os/exec.
type RealExecutor struct {
	// Stdout and Stderr default to os.Stdout and os.Stderr.
	Stdout io.Writer
	Stderr io.Writer
}

// NewRealExecutor returns an executor writing echoed output to the terminal.
func NewRealExecutor() *RealExecutor {
	return &RealExecutor{Stdout: os.Stdout, Stderr: os.Stderr}
}

// Run starts the command in its own process group and waits for it. A
// non-zero exit is reported in Result, not as an error.
func (r *RealExecutor) Run(ctx context.Context, c Command, env *Environment) (*Result, error) {
	if len(c.Argv) == 0 {
		return nil, fmt.Errorf("command not specified")
	}
	log := logger.WithComponent("dispatch")
	log.Debug("running command", slog.String("cmd", c.String()), slog.String("dir", c.Dir))

	cmd := exec.CommandContext(ctx, c.Argv[0], c.Argv[1:]...)
	cmd.Dir = c.Dir
	if env != nil {
		cmd.Env = BuildEnv(env)
	}
	setProcessGroup(cmd)
	cmd.WaitDelay = 5 * time.Second

	var stdout, stderr bytes.Buffer
	outs := []io.Writer{&stdout}
	errs := []io.Writer{&stderr}
	if c.LogPath != "" {
		if err := os.MkdirAll(filepath.Dir(c.LogPath), 0755); err != nil {
			return nil, err
		}
		logFile, err := os.Create(c.LogPath)
		if err != nil {
			return nil, err
		}
		defer logFile.Close()
		outs = append(outs, logFile)
		errs = append(errs, logFile)
	}
	if c.Echo && r.Stdout != nil {
		outs = append(outs, r.Stdout)
	}
	cmd.Stdout = io.MultiWriter(outs...)
	cmd.Stderr = io.MultiWriter(errs...)

	start := time.Now()
	runErr := cmd.Run()
	if ctx.Err() != nil {
		return nil, fmt.Errorf("%s: %w", c.Argv[0], ctx.Err())
	}
	code, err := exitCode(runErr)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("command not found: %s", c.String())
		}
		return nil, err
	}
	log.Debug("command finished", slog.String("cmd", c.Argv[0]), slog.Int("exit", code), slog.Duration("elapsed", time.Since(start)))
	if code == 0 && stderr.Len() > 0 && c.Echo && r.Stderr != nil {
		r.Stderr.Write(stderr.Bytes())
	}
	return &Result{ExitCode: code, Output: stdout.String(), Stderr: stderr.String()}, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, exec.ErrNotFound)
}

// Check runs c and turns a non-zero exit into an *ExitError.
func Check(ctx context.Context, ex Executor, c Command, env *Environment) (*Result, error) {
	res, err := ex.Run(ctx, c, env)
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return res, &ExitError{Argv: c.Argv, Code: res.ExitCode, Stderr: res.Stderr}
	}
	return res, nil
}

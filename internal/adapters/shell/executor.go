// Package shell provides the process executor adapter.
package shell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/creack/pty"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// waitDelay bounds how long Run waits for output after the process was killed.
const waitDelay = 2 * time.Second

// Executor implements ports.Exec. Processes run on a pseudo terminal so tools format
// their output as they would interactively; stdout and stderr arrive merged.
type Executor struct {
	logger ports.Logger
}

// NewExecutor creates a new Executor. Every output line is also sent to the logger.
func NewExecutor(logger ports.Logger) *Executor {
	return &Executor{
		logger: logger,
	}
}

// Run starts the command and waits for it to exit.
func (e *Executor) Run(ctx context.Context, c ports.Command) error {
	env := resolveEnvironment(os.Environ(), c.Env)

	executable := c.Name
	if !strings.ContainsRune(c.Name, os.PathSeparator) {
		if lp, err := lookPath(c.Name, env); err == nil {
			executable = lp
		}
	}

	cmd := exec.CommandContext(ctx, executable, c.Args...) //nolint:gosec // tool provided command
	if len(cmd.Args) > 0 {
		cmd.Args[0] = c.Name
	}
	cmd.Dir = c.Dir
	cmd.Env = env
	cmd.Stdin = c.Stdin
	cmd.Cancel = func() error {
		// The process leads its own session, so the whole group goes.
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = waitDelay

	outLog := &logWriter{logger: e.logger}
	defer func() { _ = outLog.Close() }()
	out := io.Writer(outLog)
	if c.Stdout != nil {
		out = io.MultiWriter(outLog, c.Stdout)
	}

	// Without Setctty the pty is only used for output, so stdin may stay a pipe.
	ptmx, err := pty.StartWithAttrs(cmd, nil, &syscall.SysProcAttr{Setsid: true})
	if err != nil {
		return zerr.With(zerr.Wrap(errors.Join(domain.ErrCommandFailed, err), "failed to start process"), "command", c.Name)
	}

	ioDone := make(chan struct{})
	go func() {
		defer close(ioDone)
		defer func() { _ = ptmx.Close() }()
		_, _ = io.Copy(&crlfWriter{w: out}, ptmx)
	}()

	err = cmd.Wait()
	<-ioDone
	if err == nil {
		return nil
	}

	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}
	failed := zerr.With(zerr.Wrap(domain.ErrCommandFailed, err.Error()), "command", c.Name)
	return zerr.With(failed, "exit_code", exitCode)
}

// crlfWriter turns the terminal's "\r\n" line endings back into "\n".
type crlfWriter struct {
	w io.Writer
}

func (c *crlfWriter) Write(p []byte) (int, error) {
	if _, err := c.w.Write(bytes.ReplaceAll(p, []byte("\r\n"), []byte("\n"))); err != nil {
		return 0, err
	}
	return len(p), nil
}

type logWriter struct {
	logger ports.Logger
	buf    []byte
}

func (w *logWriter) Write(p []byte) (n int, err error) {
	w.buf = append(w.buf, p...)

	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.logLine(w.buf[:i])
		w.buf = w.buf[i+1:]
	}

	return len(p), nil
}

func (w *logWriter) Close() error {
	if len(w.buf) > 0 {
		w.logLine(w.buf)
		w.buf = nil
	}
	return nil
}

func (w *logWriter) logLine(line []byte) {
	w.logger.Info(strings.TrimSuffix(string(line), "\r"))
}

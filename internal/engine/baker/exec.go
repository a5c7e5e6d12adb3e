package baker

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"

	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// guardedExec is the ports.Exec handed to tool scripts. Every part of a command that
// reaches the operating system is checked by the guard before the process runner
// sees it: the directory, the name, the arguments, the environment values and the
// input. The input is buffered for the check.
type guardedExec struct {
	guard *Guard
	dir   string
	next  ports.Exec
}

func (e *guardedExec) Run(ctx context.Context, cmd ports.Command) error {
	switch {
	case cmd.Dir == "":
		cmd.Dir = e.dir
	case !filepath.IsAbs(cmd.Dir):
		cmd.Dir = filepath.Join(e.dir, cmd.Dir)
	}
	if err := e.guard.CheckPath(cmd.Dir); err != nil {
		return err
	}
	if err := e.guard.CheckArg(cmd.Name); err != nil {
		return err
	}
	for _, arg := range cmd.Args {
		if err := e.guard.CheckArg(arg); err != nil {
			return err
		}
	}
	for _, entry := range cmd.Env {
		_, value, _ := strings.Cut(entry, "=")
		if err := e.guard.CheckArg(value); err != nil {
			return zerr.With(err, "variable", entry)
		}
	}
	if cmd.Stdin != nil {
		input, err := io.ReadAll(cmd.Stdin)
		if err != nil {
			return zerr.Wrap(err, "failed to read command input")
		}
		if err := e.guard.CheckText(string(input)); err != nil {
			return err
		}
		cmd.Stdin = bytes.NewReader(input)
	}
	return e.next.Run(ctx, cmd)
}

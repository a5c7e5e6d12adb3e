package ports

import (
	"context"
	"io"
)

// Command describes one external process.
type Command struct {
	Name string
	Args []string
	// Env is in "KEY=VALUE" form and replaces the inherited environment.
	Env    []string
	Dir    string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Exec is the capability of starting external processes.
//
//go:generate mockgen -source=exec.go -destination=mocks/mock_exec.go -package=mocks
type Exec interface {
	// Run starts the command and waits for it. A non-zero exit is domain.ErrCommandFailed.
	Run(ctx context.Context, cmd Command) error
}

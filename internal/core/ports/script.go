package ports

import (
	"context"
	"io"

	"go.trai.ch/kiln/internal/core/domain"
)

// Script is a tool script as read from the file store.
type Script struct {
	Tool   string
	Path   string
	Source []byte
	Hash   domain.Hash
}

// Invocation is everything a tool script gets to see when it runs.
type Invocation struct {
	Product *domain.Product
	Action  domain.Action
	// Dir is the working directory of the build.
	Dir string
	// Inputs are the workdir-relative staged files matching the action's inputs.
	Inputs []string
	// Exec is the only way the script reaches the operating system.
	Exec   Exec
	Stdout io.Writer
	Stderr io.Writer
}

// ScriptResult is what a successful script run reports back.
type ScriptResult struct {
	// Loaded are the files the run depended on, for cache fingerprints.
	Loaded []domain.LoadedFile
}

// ScriptEngine runs tool scripts.
//
//go:generate mockgen -source=script.go -destination=mocks/mock_script.go -package=mocks
type ScriptEngine interface {
	// Run executes the script for one action. It fails with domain.ErrToolFailed
	// when the script reports an error.
	Run(ctx context.Context, script Script, inv Invocation) (*ScriptResult, error)
}

// Package script runs tool scripts with sh.
package script

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"unicode"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// Shell is the interpreter tool scripts are fed to.
const Shell = "sh"

// ArgsOption is the action option whose list value becomes the script arguments.
const ArgsOption = "args"

// Engine implements ports.ScriptEngine. The script source is piped into
// "sh -s -- <args>" inside the working directory, through the invocation's Exec.
type Engine struct{}

// NewEngine creates a new Engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Run executes the script for one action.
func (e *Engine) Run(ctx context.Context, s ports.Script, inv ports.Invocation) (*ports.ScriptResult, error) {
	args, err := scriptArgs(inv.Action.Options)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(errors.Join(domain.ErrToolFailed, err), "invalid tool arguments"), "tool", s.Tool)
	}
	env, err := environment(s, inv)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(errors.Join(domain.ErrToolFailed, err), "invalid tool options"), "tool", s.Tool)
	}

	cmd := ports.Command{
		Name:   Shell,
		Args:   append([]string{"-s", "--"}, args...),
		Env:    env,
		Dir:    inv.Dir,
		Stdin:  bytes.NewReader(s.Source),
		Stdout: inv.Stdout,
		Stderr: inv.Stderr,
	}
	if err := inv.Exec.Run(ctx, cmd); err != nil {
		return nil, zerr.With(zerr.Wrap(errors.Join(domain.ErrToolFailed, err), "tool script failed"), "tool", s.Tool)
	}

	return &ports.ScriptResult{
		Loaded: []domain.LoadedFile{{Path: s.Path, Hash: domain.HashBytes(s.Source)}},
	}, nil
}

func scriptArgs(opts domain.Options) ([]string, error) {
	v, ok := opts.Get(ArgsOption)
	if !ok {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return []string{scalarString(v)}, nil
	}
	args := make([]string, 0, len(list))
	for i, item := range list {
		if !isScalar(item) {
			return nil, zerr.With(zerr.New("argument is not a scalar"), "index", i)
		}
		args = append(args, scalarString(item))
	}
	return args, nil
}

func environment(s ports.Script, inv ports.Invocation) ([]string, error) {
	options, err := json.Marshal(inv.Action.Options)
	if err != nil {
		return nil, err
	}

	env := []string{
		"KILN_PRODUCT=" + inv.Product.Name,
		"KILN_TOOL=" + s.Tool,
		"KILN_INPUTS=" + strings.Join(inv.Inputs, "\n"),
		"KILN_OUTPUTS=" + strings.Join(inv.Action.Outputs.Strings(), "\n"),
		"KILN_OPTIONS=" + string(options),
	}
	for name, v := range inv.Action.Options.All() {
		if isScalar(v) {
			env = append(env, "KILN_OPT_"+envName(name)+"="+scalarString(v))
		}
	}
	return env, nil
}

func isScalar(v any) bool {
	switch v.(type) {
	case string, bool, int64, float64, nil:
		return true
	default:
		return false
	}
}

func scalarString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		data, _ := json.Marshal(x)
		return string(data)
	}
}

// envName upper-cases name and replaces everything but letters and digits with '_'.
func envName(name string) string {
	return strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return unicode.ToUpper(r)
		}
		return '_'
	}, name)
}

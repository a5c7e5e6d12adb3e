// Package config provides the configuration loader for kiln.
package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	logger   ports.Logger
	validate *validator.Validate
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{
		logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Load finds kiln.yaml by walking up from cwd and returns the resolved configuration.
// Without a kiln.yaml, cwd becomes the client root and every default applies.
func (l *Loader) Load(cwd string) (*domain.Config, error) {
	cwd, err := filepath.Abs(cwd)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to resolve working directory")
	}

	configPath, err := findConfiguration(cwd)
	if errors.Is(err, domain.ErrConfigNotFound) {
		return l.resolve(cwd, &Kilnfile{})
	}
	if err != nil {
		return nil, err
	}

	var file Kilnfile
	if err := readAndDecodeYAML(configPath, &file); err != nil {
		return nil, err
	}
	if err := l.validateKilnfile(configPath, &file); err != nil {
		return nil, err
	}
	return l.resolve(filepath.Dir(configPath), &file)
}

func findConfiguration(cwd string) (string, error) {
	currentDir := cwd
	for {
		candidate := filepath.Join(currentDir, domain.ConfigFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root
			break
		}
		currentDir = parentDir
	}
	return "", zerr.With(zerr.Wrap(domain.ErrConfigNotFound, "no "+domain.ConfigFileName+" above the working directory"), "cwd", cwd)
}

// readAndDecodeYAML decodes a YAML file, rejecting unknown fields. An empty file
// decodes to the zero value.
func readAndDecodeYAML[T any](configPath string, target *T) error {
	// #nosec G304 -- configPath is found by walking up from cwd
	data, err := os.ReadFile(configPath)
	if err != nil {
		return zerr.With(zerr.Wrap(errors.Join(domain.ErrInvalidConfig, err), "failed to read config file"), "path", configPath)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(target); err != nil && !errors.Is(err, io.EOF) {
		return zerr.With(zerr.Wrap(errors.Join(domain.ErrInvalidConfig, err), "failed to parse config file"), "path", configPath)
	}
	return nil
}

func (l *Loader) validateKilnfile(configPath string, file *Kilnfile) error {
	err := l.validate.Struct(file)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return zerr.With(zerr.Wrap(errors.Join(domain.ErrInvalidConfig, err), "failed to validate config file"), "path", configPath)
	}

	fe := fieldErrs[0]
	invalid := zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "invalid value for "+fe.Namespace()), "path", configPath)
	invalid = zerr.With(invalid, "rule", fe.Tag())
	return zerr.With(invalid, "value", fe.Value())
}

func (l *Loader) resolve(configDir string, file *Kilnfile) (*domain.Config, error) {
	root := resolvePath(configDir, file.Root)

	patterns := file.Plans
	if len(patterns) == 0 {
		patterns = domain.DefaultPlanGlobs
	}
	plans, err := domain.ParseGlobSet(patterns...)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(errors.Join(domain.ErrInvalidConfig, err), "invalid plan pattern"), "plans", patterns)
	}

	tools := file.Tools
	if tools == "" {
		tools = domain.DefaultToolsDir
	}
	tools = filepath.Clean(tools)
	if !filepath.IsLocal(tools) {
		return nil, zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "tool directory must lie inside the client root"), "tools", file.Tools)
	}
	if info, err := os.Stat(filepath.Join(root, tools)); err != nil || !info.IsDir() {
		l.logger.Warn("tool directory " + filepath.ToSlash(tools) + " does not exist")
	}

	workDir := defaultWorkDir(root)
	if file.WorkDir != "" {
		workDir = resolvePath(configDir, file.WorkDir)
	}
	if within(root, workDir) {
		return nil, zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "working directory must lie outside the client root"), "workdir", workDir)
	}

	parallelism := file.Parallelism
	if parallelism == 0 {
		parallelism = runtime.NumCPU()
	}

	ignore := slices.Concat(domain.AlwaysIgnored, file.Ignore)
	slices.Sort(ignore)

	debounce := file.Watch.Debounce
	if debounce == 0 {
		debounce = domain.DefaultDebounce
	}
	rebuildInterval := file.Watch.RebuildInterval
	if rebuildInterval == 0 {
		rebuildInterval = domain.DefaultRebuildInterval
	}

	return &domain.Config{
		Root:            root,
		Plans:           plans,
		ToolsDir:        filepath.ToSlash(tools),
		WorkDir:         workDir,
		Parallelism:     parallelism,
		Ignore:          slices.Compact(ignore),
		Debounce:        debounce,
		RebuildInterval: rebuildInterval,
		StatusAddr:      file.Status.Addr,
	}, nil
}

func resolvePath(base, configured string) string {
	if configured == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(configured) {
		return filepath.Clean(configured)
	}
	return filepath.Clean(filepath.Join(base, configured))
}

// defaultWorkDir keeps working directories of different client roots apart.
func defaultWorkDir(root string) string {
	return filepath.Join(os.TempDir(), "kiln", domain.HashString(root).Short())
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

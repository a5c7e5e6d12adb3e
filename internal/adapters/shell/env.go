package shell

import (
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
)

// allowListedEnvVars are the host variables a tool inherits. Everything else has to
// be passed explicitly.
var allowListedEnvVars = map[string]struct{}{
	"HOME": {},
	"TERM": {},
	"USER": {},
	"PATH": {},
}

// resolveEnvironment keeps the allow-listed host variables and applies the command's
// own variables on top. The result is sorted.
func resolveEnvironment(sysEnv, cmdEnv []string) []string {
	envMap := make(map[string]string)
	for _, entry := range sysEnv {
		k, v, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if _, allowed := allowListedEnvVars[k]; allowed {
			envMap[k] = v
		}
	}
	for _, entry := range cmdEnv {
		if k, v, ok := strings.Cut(entry, "="); ok {
			envMap[k] = v
		}
	}

	result := make([]string, 0, len(envMap))
	for k, v := range envMap {
		result = append(result, k+"="+v)
	}
	slices.Sort(result)
	return result
}

// lookPath searches for an executable in the directories named by the PATH of env.
func lookPath(file string, env []string) (string, error) {
	var path string
	for _, e := range env {
		if v, ok := strings.CutPrefix(e, "PATH="); ok {
			path = v
			break
		}
	}
	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		candidate := filepath.Join(dir, file)
		if err := findExecutable(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", exec.ErrNotFound
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}

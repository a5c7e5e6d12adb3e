package baker

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// pathChar is the class of characters that can continue a path segment.
const pathChar = `A-Za-z0-9._\-~+@%`

// Guard keeps tool actions out of the client directory. Paths are checked by
// resolving them; opaque arguments are scanned for the path fingerprint that leads
// from the working directory back to the client root.
type Guard struct {
	clientRoot  string
	workDir     string
	foldCase    bool
	fingerprint *regexp.Regexp
}

// NewGuard creates a guard for tools running below workDir. workDir must not be
// inside clientRoot.
func NewGuard(clientRoot, workDir string) (*Guard, error) {
	root, err := resolvePath(clientRoot)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to resolve client root"), "path", clientRoot)
	}
	work, err := resolvePath(workDir)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to resolve working directory"), "path", workDir)
	}

	g := &Guard{clientRoot: root, workDir: work, foldCase: caseInsensitive(root)}
	if g.contains(work) {
		return nil, zerr.With(
			zerr.Wrap(domain.ErrInvalidConfig, "working directory is inside the client root"),
			"workdir", workDir,
		)
	}

	rel, err := filepath.Rel(work, root)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to relate working directory to client root"), "workdir", workDir)
	}
	var segments []string
	for _, s := range strings.Split(filepath.ToSlash(rel), "/") {
		if s == "" || s == "." || s == ".." {
			continue
		}
		segments = append(segments, regexp.QuoteMeta(s))
	}
	if len(segments) == 0 {
		return nil, zerr.With(
			zerr.Wrap(domain.ErrInvalidConfig, "client root is an ancestor of the working directory"),
			"workdir", workDir,
		)
	}

	pattern := `(?:^|[^` + pathChar + `])` + strings.Join(segments, `[/\\]+`) + `(?:$|[^` + pathChar + `])`
	if g.foldCase {
		pattern = `(?i)` + pattern
	}
	g.fingerprint = regexp.MustCompile(pattern)
	return g, nil
}

// CheckPath rejects paths that resolve to the client root or below it. Relative paths
// are taken relative to the working directory.
func (g *Guard) CheckPath(path string) error {
	if !filepath.IsAbs(path) {
		path = filepath.Join(g.workDir, path)
	}
	resolved, err := resolvePath(path)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to resolve path"), "path", path)
	}
	if g.contains(resolved) {
		return touched("path", path)
	}
	return nil
}

// CheckArg rejects command line arguments that mention the client directory.
func (g *Guard) CheckArg(arg string) error {
	if g.fingerprint.MatchString(arg) {
		return touched("argument", arg)
	}
	if filepath.IsAbs(arg) {
		return g.CheckPath(arg)
	}
	return nil
}

// CheckText rejects free text, such as a script fed to an interpreter, that mentions
// the client directory.
func (g *Guard) CheckText(text string) error {
	if loc := g.fingerprint.FindStringIndex(text); loc != nil {
		return touched("text", strings.TrimSpace(text[loc[0]:loc[1]]))
	}
	return nil
}

func (g *Guard) contains(path string) bool {
	root := g.clientRoot
	if g.foldCase {
		root, path = strings.ToLower(root), strings.ToLower(path)
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func touched(key, value string) error {
	return zerr.With(zerr.Wrap(domain.ErrClientDirTouched, "possible attempt to touch the client directory"), key, value)
}

// resolvePath makes path absolute and resolves symlinks of its longest existing prefix.
func resolvePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	var rest []string
	for dir := abs; ; dir = filepath.Dir(dir) {
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			return filepath.Join(append([]string{resolved}, rest...)...), nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return abs, nil
		}
		rest = append([]string{filepath.Base(dir)}, rest...)
	}
}

// caseInsensitive probes whether the file system holding dir folds case.
func caseInsensitive(dir string) bool {
	base := filepath.Base(dir)
	flipped := strings.Map(func(r rune) rune {
		if unicode.IsUpper(r) {
			return unicode.ToLower(r)
		}
		return unicode.ToUpper(r)
	}, base)
	if flipped == base {
		return false
	}
	a, err := os.Stat(dir)
	if err != nil {
		return false
	}
	b, err := os.Stat(filepath.Join(filepath.Dir(dir), flipped))
	if err != nil {
		return false
	}
	return os.SameFile(a, b)
}

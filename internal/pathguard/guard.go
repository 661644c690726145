// Package pathguard decides which paths docfinder may read. It rejects
// operating-system directories, hidden entries, well-known tool
// directories (virtualenvs, node_modules, build output) and anything a
// folder excludes through .docfinderignore or configured patterns.
package pathguard

import (
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	ferrors "github.com/Aman-CERP/docfinder/internal/errors"
	"github.com/Aman-CERP/docfinder/internal/ignore"
)

// Denial reasons reported in PathDenied errors.
const (
	ReasonSystem   = "system directory"
	ReasonHidden   = "hidden entry"
	ReasonIgnored  = "ignored directory"
	ReasonExcluded = "excluded by pattern"
)

var defaultIgnoreNames = []string{
	"node_modules", "site-packages", "__pycache__", "venv", "env",
	"libs", "include", "scripts", "bin", "obj",
}

// DefaultRoots returns the system roots denied on the current platform.
func DefaultRoots() []string {
	return rootsFor(runtime.GOOS)
}

func rootsFor(goos string) []string {
	switch goos {
	case "windows":
		return []string{
			`C:\Windows`, `C:\Program Files`, `C:\Program Files (x86)`,
			`C:\System32`, `C:\ProgramData`, `C:\Users\Default`,
			`C:\Boot`, `C:\Recovery`,
		}
	case "darwin":
		return []string{
			"/System", "/Library", "/private/etc", "/private/var/db",
			"/usr", "/bin", "/sbin", "/cores", "/dev",
		}
	default:
		return []string{
			"/proc", "/sys", "/dev", "/boot", "/etc", "/usr", "/bin",
			"/sbin", "/lib", "/lib64", "/run", "/var/lib", "/snap",
		}
	}
}

// Guard holds the denylist. Its rules are fixed after New; exclusion
// files are read once per walked root. Safe for concurrent use.
type Guard struct {
	roots    []string
	ignore   map[string]struct{}
	excludes []string
	fold     bool
	sep      string

	mu       sync.Mutex
	matchers map[string]*ignore.Matcher
}

// Option configures a Guard.
type Option func(*Guard)

// WithRoots adds denied roots on top of the platform defaults.
func WithRoots(roots ...string) Option {
	return func(g *Guard) {
		for _, r := range roots {
			if r = strings.TrimSpace(r); r != "" {
				g.roots = append(g.roots, r)
			}
		}
	}
}

// WithIgnoreNames adds directory names skipped anywhere in a tree.
func WithIgnoreNames(names ...string) Option {
	return func(g *Guard) {
		for _, n := range names {
			if n = strings.TrimSpace(n); n != "" {
				g.ignore[n] = struct{}{}
			}
		}
	}
}

// WithExcludes adds gitignore-style patterns applied below every root,
// on top of each root's .docfinderignore file.
func WithExcludes(patterns ...string) Option {
	return func(g *Guard) {
		g.excludes = append(g.excludes, patterns...)
	}
}

// withPlatform replaces the built-in roots and matching rules. Used by
// tests to exercise other platforms' rules.
func withPlatform(goos string) Option {
	return func(g *Guard) {
		g.roots = append([]string(nil), rootsFor(goos)...)
		g.fold = goos == "windows" || goos == "darwin"
		if goos == "windows" {
			g.sep = `\`
		} else {
			g.sep = "/"
		}
	}
}

// New creates a Guard with the platform defaults plus opts.
func New(opts ...Option) *Guard {
	g := &Guard{ignore: make(map[string]struct{}), matchers: make(map[string]*ignore.Matcher)}
	withPlatform(runtime.GOOS)(g)
	for _, n := range defaultIgnoreNames {
		g.ignore[n] = struct{}{}
	}
	for _, opt := range opts {
		opt(g)
	}

	for i, r := range g.roots {
		g.roots[i] = g.normalize(r)
	}
	if g.fold {
		folded := make(map[string]struct{}, len(g.ignore))
		for n := range g.ignore {
			folded[strings.ToLower(n)] = struct{}{}
		}
		g.ignore = folded
	}
	return g
}

// Check validates a folder chosen for indexing: it must not be a system
// directory or sit under one, and must not itself be hidden.
func (g *Guard) Check(path string) error {
	p := g.normalize(path)
	if root, ok := g.deniedRoot(p); ok {
		return ferrors.PathDenied(path, ReasonSystem).WithDetail("root", root)
	}
	if base := g.base(p); isHidden(base) {
		return ferrors.PathDenied(path, ReasonHidden)
	}
	return nil
}

// CheckEntry validates an entry met while walking root. Every component
// below root is checked for the hidden rule; directory components are
// also checked against the ignore list. Finally the root's exclusion
// patterns apply.
func (g *Guard) CheckEntry(root, path string, isDir bool) error {
	p := g.normalize(path)
	if root, ok := g.deniedRoot(p); ok {
		return ferrors.PathDenied(path, ReasonSystem).WithDetail("root", root)
	}

	nroot := g.normalize(root)
	rel := strings.TrimPrefix(p, nroot)
	parts := strings.Split(strings.Trim(rel, g.sep), g.sep)
	for i, part := range parts {
		if part == "" {
			continue
		}
		if isHidden(part) {
			return ferrors.PathDenied(path, ReasonHidden)
		}
		last := i == len(parts)-1
		if (!last || isDir) && g.ignored(part) {
			return ferrors.PathDenied(path, ReasonIgnored)
		}
	}

	if rel = strings.Trim(rel, g.sep); rel != "" && g.matcherFor(root, nroot).Match(rel, isDir) {
		return ferrors.PathDenied(path, ReasonExcluded)
	}
	return nil
}

// Forget drops the cached exclusion patterns for root so the next check
// rereads its .docfinderignore.
func (g *Guard) Forget(root string) {
	g.mu.Lock()
	delete(g.matchers, g.normalize(root))
	g.mu.Unlock()
}

func (g *Guard) matcherFor(root, key string) *ignore.Matcher {
	g.mu.Lock()
	defer g.mu.Unlock()

	if m, ok := g.matchers[key]; ok {
		return m
	}
	m := ignore.New(g.fold, g.excludes...)
	file := filepath.Join(root, ignore.FileName)
	if err := m.Load(file); err != nil {
		slog.Warn("exclusion file unreadable", slog.String("path", file), slog.String("error", err.Error()))
	}
	g.matchers[key] = m
	return m
}

// IsScannable reports whether a folder may be indexed.
func (g *Guard) IsScannable(path string) bool {
	return g.Check(path) == nil
}

// Roots returns the normalized denied roots.
func (g *Guard) Roots() []string {
	return append([]string(nil), g.roots...)
}

func (g *Guard) deniedRoot(p string) (string, bool) {
	for _, root := range g.roots {
		if p == root || strings.HasPrefix(p, strings.TrimSuffix(root, g.sep)+g.sep) {
			return root, true
		}
	}
	return "", false
}

func (g *Guard) ignored(name string) bool {
	if g.fold {
		name = strings.ToLower(name)
	}
	if _, ok := g.ignore[name]; ok {
		return true
	}
	return strings.HasSuffix(name, ".dist-info")
}

// normalize cleans p with the guard's separator and folds case where the
// platform file system is case-insensitive.
func (g *Guard) normalize(p string) string {
	if g.sep == "/" {
		p = strings.ReplaceAll(p, `\`, "/")
		if abs, err := filepath.Abs(p); err == nil && runtime.GOOS != "windows" {
			p = abs
		}
	} else {
		p = strings.ReplaceAll(p, "/", `\`)
	}

	p = cleanSep(p, g.sep)
	if g.fold {
		p = strings.ToLower(p)
	}
	return p
}

func (g *Guard) base(p string) string {
	if i := strings.LastIndex(p, g.sep); i >= 0 {
		return p[i+1:]
	}
	return p
}

// cleanSep collapses repeated separators and drops a trailing one.
func cleanSep(p, sep string) string {
	for strings.Contains(p, sep+sep) {
		p = strings.ReplaceAll(p, sep+sep, sep)
	}
	if len(p) > 1 && strings.HasSuffix(p, sep) && !strings.HasSuffix(p, ":"+sep) {
		p = strings.TrimSuffix(p, sep)
	}
	return p
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

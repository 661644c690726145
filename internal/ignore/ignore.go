// Package ignore matches folder-relative paths against gitignore-style
// exclusion patterns, as found in a folder's .docfinderignore file and the
// paths.exclude setting.
//
// Supported syntax: blank lines and # comments, * and ? within a path
// segment, ** across segments, [...] classes, a leading / to anchor at the
// folder root, a trailing / for directories only, and ! to re-include.
// The last matching pattern wins.
package ignore

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"regexp"
	"strings"
)

// FileName is the per-folder exclusion file.
const FileName = ".docfinderignore"

type rule struct {
	re       *regexp.Regexp
	negate   bool
	dirOnly  bool
	anchored bool
}

// Matcher holds compiled patterns. It is not safe for concurrent Add, but
// Match may be called concurrently once building is done.
type Matcher struct {
	rules []rule
	fold  bool
}

// New compiles patterns. With fold set, matching ignores case.
func New(fold bool, patterns ...string) *Matcher {
	m := &Matcher{fold: fold}
	for _, p := range patterns {
		m.Add(p)
	}
	return m
}

// Load adds the patterns in path. A missing file adds nothing.
func (m *Matcher) Load(path string) error {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return m.Read(f)
}

// Read adds one pattern per line from r.
func (m *Matcher) Read(r io.Reader) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		m.Add(sc.Text())
	}
	return sc.Err()
}

// Add compiles one pattern. Blank lines and comments are ignored.
func (m *Matcher) Add(pattern string) {
	// A trailing "\ " keeps its space.
	keepSpace := strings.HasSuffix(pattern, `\ `)
	pattern = strings.TrimSpace(pattern)
	if keepSpace {
		pattern = strings.TrimSuffix(pattern, `\`) + " "
	}
	if pattern == "" || strings.HasPrefix(pattern, "#") {
		return
	}

	var r rule
	switch {
	case strings.HasPrefix(pattern, `\#`), strings.HasPrefix(pattern, `\!`):
		pattern = pattern[1:]
	case strings.HasPrefix(pattern, "!"):
		r.negate = true
		pattern = pattern[1:]
	}
	if strings.HasSuffix(pattern, "/") {
		r.dirOnly = true
		pattern = strings.TrimRight(pattern, "/")
	}
	if strings.HasPrefix(pattern, "/") {
		r.anchored = true
		pattern = strings.TrimLeft(pattern, "/")
	} else if strings.Contains(pattern, "/") && !strings.HasPrefix(pattern, "**/") {
		// "a/b" is relative to the root, like "/a/b".
		r.anchored = true
	}
	if pattern == "" {
		return
	}

	expr := "^" + translate(pattern) + "$"
	if m.fold {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return
	}
	r.re = re
	m.rules = append(m.rules, r)
}

// Len returns the number of compiled patterns.
func (m *Matcher) Len() int {
	return len(m.rules)
}

// Match reports whether rel, a slash-separated path relative to the folder
// root, is excluded. Entries inside an excluded directory are excluded.
func (m *Matcher) Match(rel string, isDir bool) bool {
	if len(m.rules) == 0 {
		return false
	}
	rel = strings.Trim(strings.ReplaceAll(rel, `\`, "/"), "/")
	if rel == "" {
		return false
	}
	parts := strings.Split(rel, "/")

	excluded := false
	for _, r := range m.rules {
		if r.matches(parts, isDir) {
			excluded = !r.negate
		}
	}
	return excluded
}

// matches tests each directory on the way down to the entry itself, so a
// rule that excludes a directory excludes everything under it.
func (r rule) matches(parts []string, isDir bool) bool {
	for i := range parts {
		if i == len(parts)-1 && r.dirOnly && !isDir {
			return false
		}
		prefix := strings.Join(parts[:i+1], "/")
		if r.re.MatchString(prefix) {
			return true
		}
		if !r.anchored && r.re.MatchString(parts[i]) {
			return true
		}
	}
	return false
}

// translate turns a glob into a regular expression body.
func translate(glob string) string {
	var b strings.Builder
	for i := 0; i < len(glob); i++ {
		c := glob[i]
		switch c {
		case '*':
			if i+1 < len(glob) && glob[i+1] == '*' {
				switch {
				case i+2 < len(glob) && glob[i+2] == '/':
					b.WriteString("(?:.*/)?")
					i += 2
				default:
					b.WriteString(".*")
					i++
				}
				continue
			}
			b.WriteString("[^/]*")
		case '?':
			b.WriteString("[^/]")
		case '[':
			end := strings.IndexByte(glob[i+1:], ']')
			if end < 0 {
				b.WriteString(`\[`)
				continue
			}
			class := glob[i+1 : i+1+end]
			if strings.HasPrefix(class, "!") {
				class = "^" + class[1:]
			}
			b.WriteString("[" + class + "]")
			i += end + 1
		case '\\':
			if i+1 < len(glob) {
				i++
				b.WriteString(regexp.QuoteMeta(string(glob[i])))
			} else {
				b.WriteString(`\\`)
			}
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	return b.String()
}

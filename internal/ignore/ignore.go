// Package ignore loads gitignore-style rule files and decides whether paths
// are excluded from a backup.
//
// The semantics are a deliberate approximation of real gitignore matching:
// a path is ignored when its root-relative path matches a pattern with
// fnmatch globbing, or when its base name matches a pattern's base name.
// Ordering, negation (!) and precedence rules are not supported.
package ignore

import (
	"log/slog"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

// Rule is a single ignore pattern, immutable once loaded.
type Rule struct {
	pattern string // as written, minus any trailing /
	dirOnly bool   // pattern targets directories only

	re     *regexp.Regexp // matches the root-relative path
	baseRe *regexp.Regexp // matches the base name alone
}

// Pattern returns the rule's pattern text.
func (r *Rule) Pattern() string { return r.pattern }

// DirOnly reports whether the rule applies to directories only.
func (r *Rule) DirOnly() bool { return r.dirOnly }

// newRule compiles a single pattern line. dirOnly is set by the caller based
// on the trailing-slash form of the source line.
func newRule(pattern string, dirOnly bool) (*Rule, error) {
	re, err := compileGlob(pattern)
	if err != nil {
		return nil, err
	}
	baseRe, err := compileGlob(path.Base(pattern))
	if err != nil {
		return nil, err
	}
	return &Rule{pattern: pattern, dirOnly: dirOnly, re: re, baseRe: baseRe}, nil
}

// match tests a root-relative slash path and its base name against the rule.
func (r *Rule) match(relPath, base string, isDir bool) bool {
	if r.dirOnly && !isDir {
		return false
	}
	if relPath != "" && r.re.MatchString(relPath) {
		return true
	}
	return r.baseRe.MatchString(base)
}

// Set is an ordered sequence of rules scoped to one base directory.
// It is built once per run and read-only thereafter.
type Set struct {
	baseDir string
	rules   []*Rule
}

// NewSet creates an empty Set scoped to baseDir.
func NewSet(baseDir string) *Set {
	return &Set{baseDir: baseDir}
}

// Len returns the number of loaded rules.
func (s *Set) Len() int { return len(s.rules) }

// BaseDir returns the directory the set's patterns are anchored at.
func (s *Set) BaseDir() string { return s.baseDir }

// add registers a compiled rule.
func (s *Set) add(r *Rule) {
	s.rules = append(s.rules, r)
}

// Match reports whether the file or directory at path is excluded. path may
// be absolute or relative to the process working directory; it is resolved
// against the set's base directory first.
//
// A path that cannot be made relative to the base directory (outside the
// tree, resolution failure) is only matched by base name; the anomaly is
// logged and matching continues; exclusion decisions are never fatal.
func (s *Set) Match(p string, isDir bool) bool {
	if len(s.rules) == 0 {
		return false
	}

	abs, err := filepath.Abs(p)
	if err != nil {
		slog.Debug("ignore: cannot resolve path", "path", p, "error", err)
		abs = p
	}

	relPath := ""
	rel, err := filepath.Rel(s.baseDir, abs)
	switch {
	case err != nil:
		slog.Debug("ignore: cannot relativize path", "path", abs, "base", s.baseDir, "error", err)
	case rel == ".." || strings.HasPrefix(rel, "../"):
		slog.Debug("ignore: path outside base directory", "path", abs, "base", s.baseDir)
	default:
		relPath = filepath.ToSlash(rel)
	}

	base := filepath.Base(abs)
	for _, r := range s.rules {
		if r.match(relPath, base, isDir) {
			return true
		}
	}
	return false
}

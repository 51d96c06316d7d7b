package ignore

import (
	"regexp"
	"strings"
)

// globToRegex converts an fnmatch-style glob into an anchored regex string.
// Unlike rsync globs, * and ? are not segment-bounded: * matches any run of
// characters including /, mirroring fnmatch(3) semantics.
func globToRegex(pattern string) string {
	var b strings.Builder
	b.WriteString("^")
	i := 0
	for i < len(pattern) {
		c := pattern[i]
		switch c {
		case '*':
			b.WriteString(".*")
			i++
		case '?':
			b.WriteString(".")
			i++
		case '[':
			// Character class, passed through to regex.
			j := i + 1
			if j < len(pattern) && pattern[j] == '!' {
				j++
			}
			if j < len(pattern) && pattern[j] == ']' {
				j++
			}
			for j < len(pattern) && pattern[j] != ']' {
				j++
			}
			if j < len(pattern) {
				cls := pattern[i+1 : j]
				if strings.HasPrefix(cls, "!") {
					cls = "^" + cls[1:]
				}
				b.WriteString("[" + cls + "]")
				i = j + 1
			} else {
				b.WriteString(regexp.QuoteMeta(string(c)))
				i++
			}
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
			i++
		}
	}
	b.WriteString("$")
	return b.String()
}

// compileGlob compiles an fnmatch-style glob pattern.
func compileGlob(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile(globToRegex(pattern))
}

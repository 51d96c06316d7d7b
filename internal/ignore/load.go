package ignore

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path"
	"strings"
)

// wildcardChars are the glob metacharacters recognized by the matcher.
const wildcardChars = "*?["

// Load reads an ignore file and returns a Set scoped to baseDir. A missing
// file yields an empty set: absence means "ignore nothing". Format:
//
//	# comment    → skip
//	blank line   → skip
//	pattern/     → directory-only rule
//	pattern      → rule matching files and directories
//
// A bare name with no wildcard characters and no extension separator in its
// final segment additionally registers a directory-only variant, so a plain
// "build" line prunes a build/ directory the way users expect.
func Load(ignorePath, baseDir string) (*Set, error) {
	set := NewSet(baseDir)

	f, err := os.Open(ignorePath)
	if err != nil {
		if os.IsNotExist(err) {
			return set, nil
		}
		return nil, fmt.Errorf("open ignore file %s: %w", ignorePath, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		dirOnly := strings.HasSuffix(line, "/")
		pattern := strings.TrimSuffix(line, "/")

		rule, err := newRule(pattern, dirOnly)
		if err != nil {
			// Malformed patterns are skipped, not fatal.
			slog.Warn("ignore: skipping malformed pattern",
				"file", ignorePath, "line", lineNum, "pattern", line, "error", err)
			continue
		}
		set.add(rule)

		// Heuristic from the ignore-file format: a bare extension-less name
		// is usually a directory, so register the directory variant too.
		if !dirOnly && !strings.ContainsAny(line, wildcardChars) &&
			!strings.Contains(path.Base(line), ".") {
			dirRule, err := newRule(pattern, true)
			if err == nil {
				set.add(dirRule)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ignore file %s: %w", ignorePath, err)
	}

	return set, nil
}

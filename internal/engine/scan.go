package engine

import (
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/askelund/packup/internal/event"
	"github.com/askelund/packup/internal/ignore"
	"github.com/askelund/packup/internal/stats"
)

// gitDirName is always pruned from traversal, regardless of ignore rules.
const gitDirName = ".git"

// scanTree walks the source tree depth-first and collects every regular file
// not excluded by the ignore set. Ignored directories are pruned whole; the
// .git directory is pruned unconditionally. Ignored regular files are counted
// into the collector. Traversal order is WalkDir's lexical order: stable for
// a given snapshot, but callers must only rely on "each included file appears
// exactly once".
func scanTree(srcRoot string, set *ignore.Set, st *stats.Collector, events chan<- event.Event) ([]FileEntry, int64, error) {
	var entries []FileEntry
	var totalBytes int64

	err := filepath.WalkDir(srcRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walk %s: %w", path, err)
		}

		if d.IsDir() {
			if path == srcRoot {
				return nil
			}
			if d.Name() == gitDirName {
				return filepath.SkipDir
			}
			if set.Match(path, true) {
				return filepath.SkipDir
			}
			return nil
		}

		// Only regular files are backed up; symlinks and special files are
		// skipped and counted neither as copied nor ignored.
		if !d.Type().IsRegular() {
			return nil
		}

		relPath, err := filepath.Rel(srcRoot, path)
		if err != nil {
			return fmt.Errorf("relativize %s: %w", path, err)
		}

		st.AddFilesScanned(1)

		if set.Match(path, false) {
			st.AddFilesIgnored(1)
			emit(events, event.Event{Type: event.FileIgnored, Path: relPath})
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}

		entries = append(entries, FileEntry{
			AbsPath: path,
			RelPath: relPath,
			Size:    info.Size(),
			Mode:    info.Mode(),
			ModTime: info.ModTime(),
		})
		totalBytes += info.Size()
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	return entries, totalBytes, nil
}

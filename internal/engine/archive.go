package engine

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/askelund/packup/internal/event"
	"github.com/askelund/packup/internal/stats"
)

// writeArchive compresses the staged tree into a single zip at zipPath.
// Entry names are staging-relative slash paths, so the archive root maps to
// the source directory root. wantEntries is the staged file count: writing
// any other number of entries is a traversal/staging bug and fails loudly.
func writeArchive(stagingRoot, zipPath string, wantEntries int64, st *stats.Collector, events chan<- event.Event) (ArchiveResult, error) {
	f, err := os.Create(zipPath)
	if err != nil {
		return ArchiveResult{}, fmt.Errorf("create archive %s: %w", zipPath, err)
	}

	zw := zip.NewWriter(f)
	var entryCount int64

	walkErr := filepath.WalkDir(stagingRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walk staging %s: %w", path, err)
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		relPath, err := filepath.Rel(stagingRoot, path)
		if err != nil {
			return fmt.Errorf("relativize staged %s: %w", path, err)
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat staged %s: %w", path, err)
		}

		hdr := &zip.FileHeader{
			Name:     filepath.ToSlash(relPath),
			Method:   zip.Deflate,
			Modified: info.ModTime(),
		}
		hdr.SetMode(info.Mode())

		w, err := zw.CreateHeader(hdr)
		if err != nil {
			return fmt.Errorf("create entry %s: %w", relPath, err)
		}

		src, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open staged %s: %w", path, err)
		}
		_, copyErr := io.Copy(w, src)
		src.Close()
		if copyErr != nil {
			return fmt.Errorf("compress %s: %w", relPath, copyErr)
		}

		entryCount++
		st.AddEntriesArchived(1)
		emit(events, event.Event{Type: event.EntryArchived, Path: relPath, Size: info.Size()})
		return nil
	})
	if walkErr != nil {
		zw.Close()
		f.Close()
		return ArchiveResult{}, walkErr
	}

	if err := zw.Close(); err != nil {
		f.Close()
		return ArchiveResult{}, fmt.Errorf("finalize archive %s: %w", zipPath, err)
	}
	if err := f.Close(); err != nil {
		return ArchiveResult{}, fmt.Errorf("close archive %s: %w", zipPath, err)
	}

	if entryCount != wantEntries {
		return ArchiveResult{}, fmt.Errorf(
			"archive entry count mismatch: wrote %d entries, staged %d files", entryCount, wantEntries)
	}

	fi, err := os.Stat(zipPath)
	if err != nil {
		return ArchiveResult{}, fmt.Errorf("stat archive %s: %w", zipPath, err)
	}

	return ArchiveResult{
		Path:    zipPath,
		Entries: entryCount,
		Size:    fi.Size(),
	}, nil
}

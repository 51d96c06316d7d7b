package engine

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/zeebo/blake3"

	"github.com/askelund/packup/internal/event"
	"github.com/askelund/packup/internal/stats"
)

// StagedMismatch records a single staged-file checksum mismatch.
type StagedMismatch struct {
	Path       string
	SrcHash    string
	StagedHash string
}

// verifyStaged compares BLAKE3 checksums of every staged file against its
// source, fanning out to workers. It reports mismatches rather than failing:
// the caller decides whether a mismatch aborts the run.
func verifyStaged(ctx context.Context, srcRoot, stagingRoot string, entries []FileEntry, workers int, st *stats.Collector, events chan<- event.Event) []StagedMismatch {
	emit(events, event.Event{Type: event.VerifyStarted})

	if workers <= 0 {
		workers = 4
	}

	taskCh := make(chan FileEntry, workers*2)
	var mu sync.Mutex
	var mismatches []StagedMismatch
	var wg sync.WaitGroup

	record := func(m StagedMismatch) {
		mu.Lock()
		mismatches = append(mismatches, m)
		mu.Unlock()
		st.AddFilesVerifyFailed(1)
		emit(events, event.Event{Type: event.VerifyFailed, Path: m.Path})
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for entry := range taskCh {
				select {
				case <-ctx.Done():
					return
				default:
				}

				srcHash, err := hashFileBlake3(entry.AbsPath)
				if err != nil {
					record(StagedMismatch{Path: entry.RelPath, SrcHash: "error", StagedHash: "n/a"})
					continue
				}

				stagedHash, err := hashFileBlake3(filepath.Join(stagingRoot, entry.RelPath))
				if err != nil {
					record(StagedMismatch{Path: entry.RelPath, SrcHash: srcHash, StagedHash: "error"})
					continue
				}

				if srcHash != stagedHash {
					record(StagedMismatch{Path: entry.RelPath, SrcHash: srcHash, StagedHash: stagedHash})
				} else {
					st.AddFilesVerified(1)
					emit(events, event.Event{Type: event.VerifyOK, Path: entry.RelPath})
				}
			}
		}()
	}

	for _, entry := range entries {
		select {
		case <-ctx.Done():
		case taskCh <- entry:
		}
	}
	close(taskCh)
	wg.Wait()

	return mismatches
}

// hashFileBlake3 computes the BLAKE3 hash of the file at path, returning the
// hex-encoded digest.
func hashFileBlake3(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := blake3.New()
	buf := make([]byte, 32*1024)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

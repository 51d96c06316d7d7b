package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"github.com/askelund/packup/internal/event"
	"github.com/askelund/packup/internal/platform"
	"github.com/askelund/packup/internal/stats"
)

// stageConfig controls the staging worker pool.
type stageConfig struct {
	StagingRoot string
	Workers     int
	UseIOURing  bool
	Stats       *stats.Collector
	Events      chan<- event.Event
}

// stagePool copies file entries into the staging area with bounded
// parallelism. Destination paths are disjoint by construction (relative
// paths are unique within a run), so copies need no cross-file locking.
type stagePool struct {
	cfg     stageConfig
	iouring *platform.IOURingCopier
}

func newStagePool(cfg stageConfig) (*stagePool, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = min(runtime.NumCPU()*2, 32)
	}
	sp := &stagePool{cfg: cfg}

	if cfg.UseIOURing {
		copier, err := platform.NewIOURingCopier(64)
		if err != nil {
			return nil, fmt.Errorf("init io_uring: %w", err)
		}
		sp.iouring = copier // nil if the kernel is too old
	}

	return sp, nil
}

// Close releases pool resources.
func (sp *stagePool) Close() {
	if sp.iouring != nil {
		_ = sp.iouring.Close()
	}
}

// Run stages all entries. It blocks until every copy finishes or the first
// copy error cancels the pool; partial staging is not a recoverable state,
// so the first error aborts the run. Returns the number of files copied.
func (sp *stagePool) Run(ctx context.Context, entries []FileEntry) (int64, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tasks := make(chan FileEntry)
	var firstErr error
	var errOnce sync.Once

	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	var wg sync.WaitGroup
	for w := 0; w < sp.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for entry := range tasks {
				select {
				case <-ctx.Done():
					return
				default:
				}
				if err := sp.copyOne(entry); err != nil {
					sp.cfg.Stats.AddFilesFailed(1)
					emit(sp.cfg.Events, event.Event{Type: event.FileFailed, Path: entry.RelPath, Error: err})
					fail(err)
					return
				}
			}
		}()
	}

feed:
	for _, entry := range entries {
		select {
		case tasks <- entry:
		case <-ctx.Done():
			break feed
		}
	}
	close(tasks)
	wg.Wait()

	if firstErr != nil {
		return sp.cfg.Stats.Snapshot().FilesCopied, firstErr
	}
	if err := ctx.Err(); err != nil {
		return sp.cfg.Stats.Snapshot().FilesCopied, fmt.Errorf("staging interrupted: %w", err)
	}
	return sp.cfg.Stats.Snapshot().FilesCopied, nil
}

// copyOne copies a single entry into the staging area, preserving mode and
// modification time, writing to a temp name and renaming into place.
func (sp *stagePool) copyOne(entry FileEntry) error {
	dstPath := filepath.Join(sp.cfg.StagingRoot, entry.RelPath)
	dir := filepath.Dir(dstPath)

	// Parent creation may race between workers staging siblings; MkdirAll
	// tolerates that.
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create staging dir %s: %w", dir, err)
	}

	tmpName := fmt.Sprintf(".%s.%s.packup-tmp", filepath.Base(dstPath), uuid.New().String()[:8])
	tmpPath := filepath.Join(dir, tmpName)
	defer func() {
		_ = os.Remove(tmpPath) // no-op if rename succeeded
	}()

	tmpFd, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, entry.Mode.Perm())
	if err != nil {
		return fmt.Errorf("create staging file %s: %w", tmpPath, err)
	}

	var written int64
	if entry.Size > 0 {
		result, err := sp.doCopy(platform.CopyParams{
			SrcPath: entry.AbsPath,
			DstFd:   tmpFd,
			Size:    entry.Size,
		})
		if err != nil {
			tmpFd.Close()
			return fmt.Errorf("copy %s: %w", entry.AbsPath, err)
		}
		written = result.BytesWritten
	}

	if err := sp.setMetadata(entry, tmpFd); err != nil {
		tmpFd.Close()
		return fmt.Errorf("set metadata %s: %w", dstPath, err)
	}

	if err := tmpFd.Close(); err != nil {
		return fmt.Errorf("close staging file %s: %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, dstPath); err != nil {
		return fmt.Errorf("rename %s -> %s: %w", tmpPath, dstPath, err)
	}

	sp.cfg.Stats.AddFilesCopied(1)
	sp.cfg.Stats.AddBytesCopied(written)
	emit(sp.cfg.Events, event.Event{Type: event.FileCopied, Path: entry.RelPath, Size: entry.Size})
	return nil
}

func (sp *stagePool) doCopy(params platform.CopyParams) (platform.CopyResult, error) {
	if sp.iouring != nil {
		return sp.iouring.CopyFile(params)
	}
	return platform.CopyFile(params)
}

// setMetadata preserves permission bits and modification time on the staged
// copy before it is renamed into place.
func (sp *stagePool) setMetadata(entry FileEntry, fd *os.File) error {
	rawFd := int(fd.Fd())

	if err := unix.Fchmod(rawFd, uint32(entry.Mode.Perm())); err != nil {
		return fmt.Errorf("fchmod: %w", err)
	}

	ts := unix.NsecToTimespec(entry.ModTime.UnixNano())
	times := []unix.Timespec{ts, ts}
	if err := unix.UtimesNanoAt(rawFd, "", times, unix.AT_EMPTY_PATH); err != nil {
		// Fallback: some systems don't support AT_EMPTY_PATH.
		if err2 := unix.UtimesNanoAt(unix.AT_FDCWD, fd.Name(), times, 0); err2 != nil {
			return fmt.Errorf("utimensat: %w", err)
		}
	}

	return nil
}

// Package engine implements the backup pipeline: traversal with ignore
// rules, concurrent staging, zip construction, and integrity digesting.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/askelund/packup/internal/event"
	"github.com/askelund/packup/internal/ignore"
	"github.com/askelund/packup/internal/platform"
	"github.com/askelund/packup/internal/stats"
)

// TimestampLayout is used identically in the backup folder name, the zip
// name, and the manifest.
const TimestampLayout = "2006.01.02-15.04.05"

// DefaultIgnoreName is the ignore file looked up under the source root when
// no override is given.
const DefaultIgnoreName = ".gitignore"

// Config describes a backup run.
type Config struct {
	Src          string
	Dst          string
	Workers      int
	Verify       bool   // re-read the finished archive and check its digest
	VerifyStaged bool   // compare staged files against source (BLAKE3)
	Comment      string // free text persisted to the manifest
	IgnoreFile   string // override for <src>/.gitignore
	UseIOURing   bool
	Stats        *stats.Collector
	Events       chan<- event.Event
}

// Result is the outcome of a backup run.
type Result struct {
	Report Report
	Err    error
}

// Run executes a backup, blocking until complete. A run either completes or
// aborts entirely on the first unrecoverable error; the staging area is
// removed on every exit path.
func Run(ctx context.Context, cfg Config) Result {
	if cfg.Stats == nil {
		cfg.Stats = stats.NewCollector()
	}

	srcRoot, err := filepath.Abs(cfg.Src)
	if err != nil {
		return Result{Err: fmt.Errorf("source: %w", err)}
	}
	srcInfo, err := os.Stat(srcRoot)
	if err != nil {
		return Result{Err: fmt.Errorf("source: %w", err)}
	}
	if !srcInfo.IsDir() {
		return Result{Err: fmt.Errorf("source %s is not a directory", cfg.Src)}
	}

	dstRoot, err := filepath.Abs(cfg.Dst)
	if err != nil {
		return Result{Err: fmt.Errorf("destination: %w", err)}
	}

	stamp := time.Now().Format(TimestampLayout)
	backupName := fmt.Sprintf("%s - %s", stamp, filepath.Base(srcRoot))
	backupDir := filepath.Join(dstRoot, backupName)
	zipName := backupName + ".zip"
	zipPath := filepath.Join(backupDir, zipName)

	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return Result{Err: fmt.Errorf("create backup folder %s: %w", backupDir, err)}
	}

	ignorePath := cfg.IgnoreFile
	if ignorePath == "" {
		ignorePath = filepath.Join(srcRoot, DefaultIgnoreName)
	}
	set, err := ignore.Load(ignorePath, srcRoot)
	if err != nil {
		return Result{Err: err}
	}
	slog.Debug("loaded ignore rules", "file", ignorePath, "rules", set.Len())

	emit(cfg.Events, event.Event{Type: event.ScanStarted})
	entries, totalBytes, err := scanTree(srcRoot, set, cfg.Stats, cfg.Events)
	if err != nil {
		return Result{Err: fmt.Errorf("scan source tree: %w", err)}
	}
	cfg.Stats.SetTotals(int64(len(entries)), totalBytes)
	emit(cfg.Events, event.Event{
		Type:      event.ScanComplete,
		Total:     int64(len(entries)),
		TotalSize: totalBytes,
	})
	slog.Debug("scan complete", "files", len(entries), "bytes", totalBytes)

	// The staging area is exclusively owned by this run and must be released
	// on every exit path, including early failure.
	stagingRoot := filepath.Join(backupDir, fmt.Sprintf(".staging-%s", uuid.New().String()[:8]))
	if err := os.MkdirAll(stagingRoot, 0o755); err != nil {
		return Result{Err: fmt.Errorf("create staging area %s: %w", stagingRoot, err)}
	}
	defer func() {
		if err := platform.RemoveAllForced(stagingRoot); err != nil {
			slog.Warn("failed to remove staging area", "path", stagingRoot, "error", err)
		}
	}()

	report := Report{
		SourceDir: srcRoot,
		DestDir:   dstRoot,
		BackupDir: backupDir,
	}

	pool, err := newStagePool(stageConfig{
		StagingRoot: stagingRoot,
		Workers:     cfg.Workers,
		UseIOURing:  cfg.UseIOURing,
		Stats:       cfg.Stats,
		Events:      cfg.Events,
	})
	if err != nil {
		return Result{Err: err}
	}
	defer pool.Close()

	copied, err := pool.Run(ctx, entries)
	if err != nil {
		return fail(report, cfg.Stats, err)
	}
	if copied != int64(len(entries)) {
		return fail(report, cfg.Stats, fmt.Errorf(
			"staged file count mismatch: copied %d of %d files", copied, len(entries)))
	}
	emit(cfg.Events, event.Event{Type: event.StageComplete, Total: copied})

	if cfg.VerifyStaged {
		report.Mismatches = verifyStaged(ctx, srcRoot, stagingRoot, entries, cfg.Workers, cfg.Stats, cfg.Events)
		if n := len(report.Mismatches); n > 0 {
			return fail(report, cfg.Stats, fmt.Errorf(
				"%d staged files do not match their source (first: %s)", n, report.Mismatches[0].Path))
		}
	}

	emit(cfg.Events, event.Event{Type: event.ArchiveStarted, Path: zipPath})
	archive, err := writeArchive(stagingRoot, zipPath, int64(len(entries)), cfg.Stats, cfg.Events)
	if err != nil {
		// Never leave a half-written archive presented as valid.
		_ = os.Remove(zipPath)
		return fail(report, cfg.Stats, err)
	}

	// Release staged disk space before the digest pass; the deferred removal
	// then no-ops.
	if err := platform.RemoveAllForced(stagingRoot); err != nil {
		slog.Warn("failed to remove staging area", "path", stagingRoot, "error", err)
	}

	// The digest covers the final archive bytes as re-read from disk.
	digest, err := DigestFile(zipPath)
	if err != nil {
		return fail(report, cfg.Stats, fmt.Errorf("digest archive: %w", err))
	}
	archive.Digest = digest
	report.Archive = archive
	emit(cfg.Events, event.Event{
		Type:   event.ArchiveComplete,
		Path:   zipPath,
		Size:   archive.Size,
		Digest: digest,
	})

	manifestPath := filepath.Join(backupDir, ManifestName)
	if err := writeManifest(manifestPath, Manifest{
		CreatedAt: stamp,
		ZipName:   zipName,
		Digest:    digest,
		Comment:   cfg.Comment,
	}); err != nil {
		return fail(report, cfg.Stats, err)
	}
	emit(cfg.Events, event.Event{Type: event.ManifestWritten, Path: manifestPath})

	if cfg.Verify {
		emit(cfg.Events, event.Event{Type: event.VerifyStarted, Path: zipPath})
		ok, verr := VerifyArchive(zipPath, digest)
		if verr != nil {
			slog.Warn("archive verification could not be completed", "error", verr)
			ok = false
		}
		report.Verified = &ok
		if ok {
			emit(cfg.Events, event.Event{Type: event.VerifyOK, Path: zipPath, Digest: digest})
		} else {
			// Prominent, but does not fail the run: the archive exists.
			emit(cfg.Events, event.Event{Type: event.VerifyFailed, Path: zipPath, Digest: digest})
		}
	}

	report.Stats = cfg.Stats.Snapshot()
	return Result{Report: report}
}

func fail(report Report, st *stats.Collector, err error) Result {
	report.Stats = st.Snapshot()
	return Result{Report: report, Err: err}
}

// emit sends an event without blocking; presenters that fall behind drop
// progress updates rather than stalling the pipeline.
func emit(ch chan<- event.Event, e event.Event) {
	if ch == nil {
		return
	}
	e.Timestamp = time.Now()
	select {
	case ch <- e:
	default:
	}
}

package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/askelund/packup/internal/event"
	"github.com/askelund/packup/internal/stats"
)

func newTestPresenter(verbose bool) (*plainPresenter, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	p := newPlainPresenter(Config{
		Writer:    &out,
		ErrWriter: &errOut,
		NoColor:   true,
		Verbose:   verbose,
		Stats:     stats.NewCollector(),
	})
	return p, &out, &errOut
}

func runEvents(t *testing.T, p *plainPresenter, evs ...event.Event) {
	t.Helper()
	events := make(chan event.Event, len(evs))
	for _, ev := range evs {
		events <- ev
	}
	close(events)
	assert.NoError(t, p.Run(events))
}

func TestPlainPresenterFileCopied(t *testing.T) {
	p, out, _ := newTestPresenter(false)

	runEvents(t, p,
		event.Event{Type: event.FileCopied, Path: "dir/file.txt", Size: 1024},
		event.Event{Type: event.FileCopied, Path: "dir/big.bin", Size: 1024 * 1024 * 100},
	)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "copied: dir/file.txt")
	assert.Contains(t, lines[1], "copied: dir/big.bin")
}

func TestPlainPresenterFileIgnored(t *testing.T) {
	p, out, _ := newTestPresenter(false)

	runEvents(t, p, event.Event{Type: event.FileIgnored, Path: "skip.log"})

	assert.Contains(t, out.String(), "ignored: skip.log")
}

func TestPlainPresenterFileFailed(t *testing.T) {
	p, out, _ := newTestPresenter(false)

	runEvents(t, p, event.Event{Type: event.FileFailed, Path: "fail.txt", Error: assert.AnError})

	assert.Contains(t, out.String(), "failed: fail.txt")
	assert.Contains(t, out.String(), assert.AnError.Error())
}

func TestPlainPresenterScanComplete(t *testing.T) {
	p, out, _ := newTestPresenter(false)

	runEvents(t, p, event.Event{Type: event.ScanComplete, Total: 1500, TotalSize: 2048})

	assert.Contains(t, out.String(), "1,500 files to copy")
	assert.Contains(t, out.String(), "2.0 KiB")
}

func TestPlainPresenterArchiveComplete(t *testing.T) {
	p, out, _ := newTestPresenter(false)

	runEvents(t, p,
		event.Event{Type: event.ArchiveStarted},
		event.Event{Type: event.ArchiveComplete, Path: "/dst/backup.zip", Size: 4096, Digest: "abc123"},
	)

	assert.Contains(t, out.String(), "compressing...")
	assert.Contains(t, out.String(), "archive created: /dst/backup.zip")
	assert.Contains(t, out.String(), "SHA-256: abc123")
}

func TestPlainPresenterEntryArchivedVerboseOnly(t *testing.T) {
	p, out, _ := newTestPresenter(false)
	runEvents(t, p, event.Event{Type: event.EntryArchived, Path: "a.txt"})
	assert.Empty(t, out.String())

	pv, outv, _ := newTestPresenter(true)
	runEvents(t, pv, event.Event{Type: event.EntryArchived, Path: "a.txt"})
	assert.Contains(t, outv.String(), "packed: a.txt")
}

func TestPlainPresenterVerify(t *testing.T) {
	p, out, _ := newTestPresenter(false)

	runEvents(t, p,
		event.Event{Type: event.VerifyStarted},
		event.Event{Type: event.VerifyFailed, Path: "bad.zip"},
	)

	assert.Contains(t, out.String(), "verifying...")
	assert.Contains(t, out.String(), "MISMATCH: bad.zip")
}

func TestPlainPresenterSummary(t *testing.T) {
	collector := stats.NewCollector()
	collector.AddFilesCopied(1200)
	collector.AddFilesIgnored(34)

	p := newPlainPresenter(Config{NoColor: true, Stats: collector})
	s := p.Summary()
	assert.Contains(t, s, "1,200 files copied")
	assert.Contains(t, s, "34 ignored")
}

func TestQuietPresenterDrains(t *testing.T) {
	p := NewPresenter(Config{Quiet: true, Stats: stats.NewCollector()})

	events := make(chan event.Event, 2)
	events <- event.Event{Type: event.FileCopied, Path: "a.txt"}
	events <- event.Event{Type: event.ArchiveComplete}
	close(events)

	assert.NoError(t, p.Run(events))
	assert.Empty(t, p.Summary())
}

func TestNewPresenterSelection(t *testing.T) {
	quiet := NewPresenter(Config{Quiet: true, Stats: stats.NewCollector()})
	_, isQuiet := quiet.(*quietPresenter)
	assert.True(t, isQuiet)

	plain := NewPresenter(Config{NoColor: true, Stats: stats.NewCollector()})
	_, isPlain := plain.(*plainPresenter)
	assert.True(t, isPlain)
}

package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/askelund/packup/internal/event"
	"github.com/askelund/packup/internal/stats"
)

const progressEvery = 5 // seconds between progress lines

// plainPresenter writes one line per pipeline event to stdout and periodic
// progress to stderr. Colorization mirrors log severity: copies green,
// ignores yellow, failures and digest mismatches red.
type plainPresenter struct {
	w       io.Writer
	errW    io.Writer
	stats   *stats.Collector
	verbose bool

	green  func(format string, a ...any) string
	yellow func(format string, a ...any) string
	red    func(format string, a ...any) string
}

func newPlainPresenter(cfg Config) *plainPresenter {
	p := &plainPresenter{
		w:       cfg.Writer,
		errW:    cfg.ErrWriter,
		stats:   cfg.Stats,
		verbose: cfg.Verbose,
	}
	if cfg.NoColor || !cfg.IsTTY {
		p.green, p.yellow, p.red = fmt.Sprintf, fmt.Sprintf, fmt.Sprintf
	} else {
		p.green = color.New(color.FgGreen).Sprintf
		p.yellow = color.New(color.FgYellow).Sprintf
		p.red = color.New(color.FgRed).Sprintf
	}
	return p
}

func (p *plainPresenter) Run(events <-chan event.Event) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	tick := 0
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			p.handleEvent(ev)
		case <-ticker.C:
			p.stats.Tick()
			tick++
			if tick%progressEvery == 0 {
				p.printProgress()
			}
		}
	}
}

func (p *plainPresenter) handleEvent(ev event.Event) {
	switch ev.Type {
	case event.ScanComplete:
		fmt.Fprintf(p.w, "%s files to copy (%s)\n",
			FormatCount(ev.Total), FormatBytes(ev.TotalSize))
	case event.FileCopied:
		fmt.Fprintln(p.w, p.green("copied: %s  %s", ev.Path, FormatBytes(ev.Size)))
	case event.FileIgnored:
		fmt.Fprintln(p.w, p.yellow("ignored: %s", ev.Path))
	case event.FileFailed:
		errMsg := "error"
		if ev.Error != nil {
			errMsg = ev.Error.Error()
		}
		fmt.Fprintln(p.w, p.red("failed: %s  %s", ev.Path, errMsg))
	case event.ArchiveStarted:
		fmt.Fprintln(p.w, "compressing...")
	case event.EntryArchived:
		if p.verbose {
			fmt.Fprintf(p.w, "packed: %s\n", ev.Path)
		}
	case event.ArchiveComplete:
		fmt.Fprintf(p.w, "archive created: %s (%s)\n", ev.Path, FormatBytes(ev.Size))
		fmt.Fprintf(p.w, "SHA-256: %s\n", ev.Digest)
	case event.ManifestWritten:
		fmt.Fprintf(p.w, "manifest written: %s\n", ev.Path)
	case event.VerifyStarted:
		fmt.Fprintln(p.w, "verifying...")
	case event.VerifyFailed:
		fmt.Fprintln(p.w, p.red("MISMATCH: %s", ev.Path))
	case event.VerifyOK:
		// per-file OKs are noise; the archive-level OK is in the summary
	}
}

func (p *plainPresenter) printProgress() {
	snap := p.stats.Snapshot()
	if snap.FilesTotal == 0 || snap.FilesCopied >= snap.FilesTotal {
		return
	}
	speed := p.stats.RollingSpeed(10)
	fmt.Fprintf(p.errW, "progress: %s/%s files %s %s\n",
		FormatCount(snap.FilesCopied), FormatCount(snap.FilesTotal),
		FormatBytes(snap.BytesCopied),
		FormatRate(speed),
	)
}

func (p *plainPresenter) Summary() string {
	snap := p.stats.Snapshot()
	return fmt.Sprintf("done: %s files copied, %s ignored in %s",
		FormatCount(snap.FilesCopied),
		FormatCount(snap.FilesIgnored),
		FormatDuration(snap.Elapsed),
	)
}

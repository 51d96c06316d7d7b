package ui

import (
	"io"

	"github.com/askelund/packup/internal/event"
	"github.com/askelund/packup/internal/stats"
)

// Presenter consumes events and displays progress.
type Presenter interface {
	// Run consumes events until the channel closes. Blocks until done.
	Run(events <-chan event.Event) error
	// Summary returns the final completion line.
	Summary() string
}

// Config configures a Presenter.
type Config struct {
	Writer    io.Writer
	ErrWriter io.Writer
	IsTTY     bool
	Quiet     bool
	Verbose   bool
	NoColor   bool
	Stats     *stats.Collector
}

// NewPresenter selects a presenter for the given config.
//
//nolint:ireturn // presenter selection is runtime-dependent
func NewPresenter(cfg Config) Presenter {
	if cfg.Quiet {
		return &quietPresenter{stats: cfg.Stats}
	}
	return newPlainPresenter(cfg)
}

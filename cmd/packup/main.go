package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/askelund/packup/internal/config"
	"github.com/askelund/packup/internal/engine"
	"github.com/askelund/packup/internal/event"
	"github.com/askelund/packup/internal/stats"
	"github.com/askelund/packup/internal/ui"
)

var version = "dev"

func main() {
	os.Exit(run())
}

//nolint:gocyclo // main CLI entry point orchestrates flag parsing and wiring
func run() int {
	var (
		verifyFlag   bool
		verifyStaged bool
		comment      string
		workers      int
		ignoreFile   string
		useIOURing   bool
		verbose      bool
		quiet        bool
		noColor      bool
		logFile      string
		showVersion  bool
	)

	rootCmd := &cobra.Command{
		Use:   "packup [flags] <source> <destination>",
		Short: "Snapshot a directory into a timestamped, verified zip archive",
		Long: `packup copies a source directory into a timestamped zip archive under the
destination, honoring the source's .gitignore, and records a SHA-256 digest
in a sidecar manifest for later integrity verification.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				return nil
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Fprintf(os.Stdout, "packup %s\n", version)
				return nil
			}

			src, dst := args[0], args[1]

			// Load optional config file.
			cfg, err := config.Load()
			if err != nil {
				slog.Warn("failed to load config", "error", err)
			}
			applyConfigDefaults(cmd, cfg.Defaults, &verifyFlag, &verifyStaged, &workers, &noColor, &useIOURing)

			// Configure logging.
			logLevel := slog.LevelWarn
			if verbose {
				logLevel = slog.LevelDebug
			} else if !quiet {
				logLevel = slog.LevelInfo
			}
			textHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: logLevel,
			})
			var logHandler slog.Handler = textHandler
			if logFile != "" {
				lf, lfErr := os.Create(logFile)
				if lfErr != nil {
					return fmt.Errorf("open log file: %w", lfErr)
				}
				defer lf.Close()
				jsonHandler := slog.NewJSONHandler(lf, &slog.HandlerOptions{
					Level: slog.LevelDebug,
				})
				logHandler = ui.NewMultiHandler(textHandler, jsonHandler)
			}
			slog.SetDefault(slog.New(logHandler))

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			collector := stats.NewCollector()
			events := make(chan event.Event, 256)

			// When --log is set, tee events through a logging goroutine that
			// writes structured records before forwarding to the presenter.
			presenterEvents := (<-chan event.Event)(events)
			if logFile != "" {
				teed := make(chan event.Event, 256)
				go func() {
					for ev := range events {
						attrs := []slog.Attr{
							slog.String("type", ev.Type.String()),
							slog.String("path", ev.Path),
							slog.Int64("size", ev.Size),
						}
						if ev.Error != nil {
							attrs = append(attrs, slog.String("error", ev.Error.Error()))
						}
						slog.LogAttrs(context.Background(), slog.LevelInfo, "packup.event", attrs...)
						teed <- ev
					}
					close(teed)
				}()
				presenterEvents = teed
			}

			presenter := ui.NewPresenter(ui.Config{
				Writer:    os.Stdout,
				ErrWriter: os.Stderr,
				IsTTY:     ui.IsTTY(os.Stdout.Fd()),
				Quiet:     quiet,
				Verbose:   verbose,
				NoColor:   noColor,
				Stats:     collector,
			})

			var presenterErr error
			var presenterWg sync.WaitGroup
			presenterWg.Add(1)
			go func() {
				defer presenterWg.Done()
				presenterErr = presenter.Run(presenterEvents)
			}()

			slog.Debug("starting backup",
				"src", src,
				"dst", dst,
				"workers", workers,
				"verify", verifyFlag,
				"iouring", useIOURing,
			)

			result := engine.Run(ctx, engine.Config{
				Src:          src,
				Dst:          dst,
				Workers:      workers,
				Verify:       verifyFlag,
				VerifyStaged: verifyStaged,
				Comment:      comment,
				IgnoreFile:   ignoreFile,
				UseIOURing:   useIOURing,
				Stats:        collector,
				Events:       events,
			})
			stop()
			close(events)
			presenterWg.Wait()
			if presenterErr != nil {
				fmt.Fprintf(os.Stderr, "presenter: %v\n", presenterErr)
			}

			if result.Err != nil {
				slog.Error("backup failed", "error", result.Err)
				return &exitError{code: 2}
			}

			if !quiet {
				if summary := presenter.Summary(); summary != "" {
					fmt.Fprintln(os.Stderr, summary)
				}
				fmt.Fprint(os.Stdout, result.Report.Render())
			}

			// Verification mismatch: the archive exists, but surface the
			// integrity warning through the exit code.
			if result.Report.Verified != nil && !*result.Report.Verified {
				slog.Error("archive digest mismatch: the ZIP file has been altered or is corrupted",
					"archive", result.Report.Archive.Path)
				return &exitError{code: 1}
			}

			return nil
		},
	}

	rootCmd.Flags().BoolVar(&showVersion, "version", false, "print version and exit")
	rootCmd.Flags().BoolVar(&verifyFlag, "verify", false, "re-read the archive and verify its SHA-256 digest")
	rootCmd.Flags().
		BoolVar(&verifyStaged, "verify-staged", false, "verify staged copies against the source (BLAKE3) before archiving")
	rootCmd.Flags().StringVar(&comment, "comment", "", "free-text comment recorded in the manifest")
	rootCmd.Flags().
		IntVarP(&workers, "workers", "n", 0, "number of staging workers (default: min(NumCPU*2, 32))")
	rootCmd.Flags().StringVar(&ignoreFile, "ignore-file", "", "ignore file to use (default: <source>/.gitignore)")
	rootCmd.Flags().BoolVar(&useIOURing, "iouring", false, "use io_uring for staging copies (Linux only)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.Flags().StringVar(&logFile, "log", "", "write structured JSON log to FILE")

	if err := rootCmd.Execute(); err != nil {
		if exitErr, ok := err.(*exitError); ok {
			return exitErr.code
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	return 0
}

// applyConfigDefaults applies config file defaults for flags not explicitly
// set on the CLI.
func applyConfigDefaults(
	cmd *cobra.Command,
	defaults config.DefaultsConfig,
	verify *bool,
	verifyStaged *bool,
	workers *int,
	noColor *bool,
	useIOURing *bool,
) {
	if !cmd.Flags().Changed("verify") && defaults.Verify != nil {
		*verify = *defaults.Verify
	}
	if !cmd.Flags().Changed("verify-staged") && defaults.VerifyStaged != nil {
		*verifyStaged = *defaults.VerifyStaged
	}
	if !cmd.Flags().Changed("workers") && defaults.Workers != nil {
		*workers = *defaults.Workers
	}
	if !cmd.Flags().Changed("no-color") && defaults.Color != nil {
		*noColor = !*defaults.Color
	}
	if !cmd.Flags().Changed("iouring") && defaults.IOURing != nil {
		*useIOURing = *defaults.IOURing
	}
}

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}

package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/use-agent/sheetshot/config"
	"github.com/use-agent/sheetshot/credentials"
	"github.com/use-agent/sheetshot/ledger"
	"github.com/use-agent/sheetshot/models"
	"github.com/use-agent/sheetshot/pipeline"
	"github.com/use-agent/sheetshot/sheet"
	"google.golang.org/api/option"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "sheetshot",
		Short:         "sheetshot screenshots the URLs listed in a spreadsheet and links the images back into it.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newListCmd(), newReconcileCmd())
	return root
}

// app holds what every subcommand needs: configuration, Google client
// options, the sheet and the optional ledger.
type app struct {
	cfg        *config.Config
	googleOpts []option.ClientOption
	tracker    *sheet.Tracker
	ledger     *ledger.Store

	closers []func()
}

// setup performs every init step. Any error is an INIT_FAILURE and maps to
// exit code 1.
func setup(ctx context.Context, withLedger bool) (*app, error) {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	logFile, err := initLogger(cfg.Log)
	if err != nil {
		return nil, initExit(models.NewInitError("cannot set up logging", err))
	}
	a := &app{cfg: cfg, closers: []func(){func() { _ = logFile.Close() }}}

	if err := cfg.Validate(); err != nil {
		a.close()
		return nil, initExit(models.NewInitError("configuration", err))
	}

	// ── 3. Credentials and sheet ────────────────────────────────────
	a.googleOpts, err = credentials.NewProvider(cfg.Credentials.Path).ClientOptions(ctx)
	if err != nil {
		a.close()
		return nil, initExit(err)
	}

	a.tracker, err = sheet.NewTracker(ctx, cfg.Sheet, a.googleOpts...)
	if err != nil {
		a.close()
		return nil, initExit(err)
	}

	// ── 4. Ledger ───────────────────────────────────────────────────
	if withLedger && cfg.Ledger.Path != "" {
		a.ledger, err = ledger.Open(cfg.Ledger.Path, ledger.Scope(cfg.Sheet.SpreadsheetID, cfg.Sheet.Range))
		if err != nil {
			a.close()
			return nil, initExit(err)
		}
		a.closers = append(a.closers, func() { _ = a.ledger.Close() })
		slog.Info("upload ledger opened", "path", cfg.Ledger.Path)
	}

	return a, nil
}

// listItems reads the sheet; an unreachable sheet is fatal.
func (a *app) listItems(ctx context.Context) ([]models.WorkItem, error) {
	items, err := a.tracker.List(ctx)
	if err != nil {
		return nil, initExit(models.NewInitError("cannot read sheet", err))
	}
	return items, nil
}

// pipelineLedger avoids handing a typed nil to the pipeline.
func (a *app) pipelineLedger() pipeline.Ledger {
	if a.ledger == nil {
		return nil
	}
	return a.ledger
}

// close runs the registered closers in reverse order.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func initExit(err error) error {
	slog.Error("initialisation failed", "code", models.CodeOf(err), "error", err)
	return &exitError{code: exitInitFailure, err: err}
}

package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/use-agent/sheetshot/browser"
	"github.com/use-agent/sheetshot/capture"
	"github.com/use-agent/sheetshot/config"
	"github.com/use-agent/sheetshot/models"
	"github.com/use-agent/sheetshot/pipeline"
	"github.com/use-agent/sheetshot/report"
	"github.com/use-agent/sheetshot/storage"
	"github.com/use-agent/sheetshot/webhook"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Screenshot every pending URL, upload it and write the link back.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPipeline(cmd.Context())
		},
	}
}

func runPipeline(ctx context.Context) error {
	start := time.Now()

	a, err := setup(ctx, true)
	if err != nil {
		return err
	}
	defer a.close()
	cfg := a.cfg

	slog.Info("==================== sheetshot run starting ====================",
		"spreadsheet", cfg.Sheet.SpreadsheetID,
		"range", cfg.Sheet.Range,
		"backend", cfg.Storage.Backend,
		"headless", cfg.Browser.Headless,
	)

	// ── 1. Read the sheet ───────────────────────────────────────────
	items, err := a.listItems(ctx)
	if err != nil {
		return err
	}

	// ── 2. Storage ──────────────────────────────────────────────────
	uploader, err := storage.New(ctx, cfg.Storage, a.googleOpts...)
	if err != nil {
		return initExit(err)
	}

	// ── 3. Scratch directory ────────────────────────────────────────
	if err := os.MkdirAll(cfg.Capture.ScratchDir, 0o755); err != nil {
		return initExit(models.NewInitError("cannot create screenshots directory", err))
	}

	// ── 4. Browser (launches Chrome) ────────────────────────────────
	var summary *models.RunSummary
	if len(items) == 0 {
		summary = &models.RunSummary{}
		slog.Warn("no URLs found in the sheet range, nothing to do", "range", cfg.Sheet.Range)
	} else {
		session, err := browser.Launch(ctx, cfg.Browser)
		if err != nil {
			return initExit(err)
		}
		defer session.Close()

		// ── 5. Run ──────────────────────────────────────────────────
		p := pipeline.New(
			pipeline.Options{FolderID: cfg.Storage.FolderID, Delay: cfg.Pipeline.Delay},
			session,
			capture.New(captureOptions(cfg.Capture)),
			uploader,
			a.tracker,
			a.pipelineLedger(),
		)
		summary = p.Run(ctx, items)
	}

	report.PrintSummary(os.Stdout, summary)
	notify(ctx, cfg.Webhook, summary)

	slog.Info("==================== sheetshot run finished ====================",
		"elapsed", time.Since(start).Round(time.Millisecond))

	if summary.Interrupted {
		return &exitError{code: exitInterrupted}
	}
	return nil
}

func captureOptions(cfg config.CaptureConfig) capture.Options {
	return capture.Options{
		ScratchDir:        cfg.ScratchDir,
		ErrorDir:          cfg.ErrorDir,
		NavigationTimeout: cfg.NavigationTimeout,
		ConsentTimeout:    cfg.ConsentTimeout,
		ScreenshotTimeout: cfg.ScreenshotTimeout,
	}
}

// notify posts the summary to the configured webhook. Failures are logged
// by the webhook package and never change the exit code.
func notify(ctx context.Context, cfg config.WebhookConfig, summary *models.RunSummary) {
	if cfg.URL == "" {
		return
	}
	event := &webhook.Event{
		Type:      webhook.EventRunCompleted,
		RunID:     uuid.NewString(),
		Timestamp: time.Now().Unix(),
		Data:      summary,
	}
	// Still notify after Ctrl-C; the summary is partial but real.
	_ = webhook.DeliverWithRetry(context.WithoutCancel(ctx), cfg.URL, cfg.Secret, event)
}

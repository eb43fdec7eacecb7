// Package pipeline drives one run: for every sheet row it decides whether
// work is needed, captures, uploads and writes the link back, keeping each
// row's failure from affecting the others.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/use-agent/sheetshot/capture"
	"github.com/use-agent/sheetshot/ledger"
	"github.com/use-agent/sheetshot/models"
)

// PageSource hands out a fresh page in the shared browser context.
type PageSource interface {
	NewPage(ctx context.Context) (capture.Page, error)
}

// Capturer writes a screenshot of item.URL to local disk.
type Capturer interface {
	Capture(ctx context.Context, page capture.Page, item models.WorkItem) (*models.CaptureResult, error)
}

// Uploader stores a local file under folder.
type Uploader interface {
	Upload(ctx context.Context, localPath, folder string) (*models.UploadResult, error)
}

// Sink records a link against a sheet row.
type Sink interface {
	WriteBack(ctx context.Context, row int, link string) error
}

// Ledger remembers uploads until their link is in the sheet.
type Ledger interface {
	RecordUpload(ctx context.Context, u ledger.Upload) error
	MarkLinked(ctx context.Context, row int, url string) error
	PendingFor(ctx context.Context, row int, url string) (*ledger.Upload, error)
	Pending(ctx context.Context) ([]ledger.Upload, error)
}

// Options is the part of the configuration the orchestrator reads.
type Options struct {
	// FolderID is the storage folder (or key prefix) for uploads.
	FolderID string

	// Delay is the pause between two rows that use the browser.
	Delay time.Duration
}

// Pipeline processes work items one at a time, in order.
type Pipeline struct {
	opts     Options
	pages    PageSource
	capturer Capturer
	uploader Uploader
	sink     Sink
	ledger   Ledger // nil when disabled

	sleep func(ctx context.Context, d time.Duration) error
}

// New wires a Pipeline. led may be nil.
func New(opts Options, pages PageSource, capturer Capturer, uploader Uploader, sink Sink, led Ledger) *Pipeline {
	return &Pipeline{
		opts:     opts,
		pages:    pages,
		capturer: capturer,
		uploader: uploader,
		sink:     sink,
		ledger:   led,
		sleep:    sleepCtx,
	}
}

// Run processes items in sheet order and returns the summary. Per-row
// failures are recorded in the summary, never returned. Cancelling ctx
// stops the run between rows and marks the summary as interrupted.
func (p *Pipeline) Run(ctx context.Context, items []models.WorkItem) *models.RunSummary {
	start := time.Now()
	summary := &models.RunSummary{Total: len(items)}
	slog.Info("run started", "items", len(items), "folder", p.opts.FolderID, "delay", p.opts.Delay)

	if len(items) == 0 {
		slog.Warn("no URLs found in the sheet range")
	}

	usedBrowser := false
	for i, item := range items {
		if ctx.Err() != nil {
			summary.Interrupted = true
			break
		}
		log := slog.With("row", item.Row, "url", item.URL, "item", fmt.Sprintf("%d/%d", i+1, len(items)))

		// ── 1. Idempotent skip ───────────────────────────────────────
		if item.Done() {
			summary.Skipped++
			log.Info("already processed, skipping", "link", item.ExistingLink)
			continue
		}

		// ── 2. Earlier upload whose link never reached the sheet ─────
		if handled, err := p.reconcileItem(ctx, item); handled {
			if err != nil {
				summary.RecordFailure(item, err)
				log.Error("reconciliation write-back failed", "code", models.CodeOf(err), "error", err)
				continue
			}
			summary.Processed++
			summary.Reconciled++
			continue
		}

		// ── 3. URL validation ────────────────────────────────────────
		if err := ValidateURL(item.URL); err != nil {
			summary.RecordFailure(item, err)
			log.Error("invalid URL, skipping", "error", err)
			continue
		}

		// ── 4. Courtesy delay between browser rows ───────────────────
		if usedBrowser && p.opts.Delay > 0 {
			log.Debug("waiting before next URL", "delay", p.opts.Delay)
			if err := p.sleep(ctx, p.opts.Delay); err != nil {
				summary.Interrupted = true
				break
			}
		}
		usedBrowser = true

		// ── 5. Capture, upload, write back ───────────────────────────
		if err := p.processItem(ctx, item); err != nil {
			summary.RecordFailure(item, err)
			log.Error("row failed", "code", models.CodeOf(err), "error", err)
			if ctx.Err() != nil {
				summary.Interrupted = true
				break
			}
			continue
		}
		summary.Processed++
	}

	summary.Duration = time.Since(start)
	slog.Info("run finished",
		"total", summary.Total,
		"processed", summary.Processed,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"reconciled", summary.Reconciled,
		"interrupted", summary.Interrupted,
		"duration", summary.Duration.Round(time.Millisecond),
	)
	return summary
}

// processItem runs one row through the browser, storage and the sheet.
// The page and the local file never outlive this call.
func (p *Pipeline) processItem(ctx context.Context, item models.WorkItem) error {
	log := slog.With("row", item.Row, "url", item.URL)

	page, err := p.pages.NewPage(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := page.Close(); cerr != nil {
			log.Warn("failed to close page", "error", cerr)
		}
	}()

	shot, err := p.capturer.Capture(ctx, page, item)
	if err != nil {
		return err
	}
	defer removeLocal(shot.LocalPath)

	up, err := p.uploader.Upload(ctx, shot.LocalPath, p.opts.FolderID)
	if err != nil {
		return err
	}
	log.Info("screenshot uploaded", "name", up.Name, "link", up.ShareLink)

	recorded := p.recordUpload(ctx, item, up)

	if err := p.sink.WriteBack(ctx, item.Row, up.ShareLink); err != nil {
		if recorded {
			log.Warn("link not written; kept in ledger for reconciliation", "link", up.ShareLink)
		} else {
			log.Warn("link not written; upload is orphaned", "link", up.ShareLink, "fileID", up.FileID)
		}
		return err
	}

	p.markLinked(ctx, item)
	return nil
}

// recordUpload reports whether the upload reached the ledger. Ledger writes
// ignore cancellation: an interrupt after upload is what the ledger is for.
func (p *Pipeline) recordUpload(ctx context.Context, item models.WorkItem, up *models.UploadResult) bool {
	if p.ledger == nil {
		return false
	}
	err := p.ledger.RecordUpload(context.WithoutCancel(ctx), ledger.Upload{
		Row:      item.Row,
		URL:      item.URL,
		FileName: up.Name,
		FileID:   up.FileID,
		Link:     up.ShareLink,
	})
	if err != nil {
		slog.Warn("failed to record upload in ledger", "row", item.Row, "error", err)
		return false
	}
	return true
}

func (p *Pipeline) markLinked(ctx context.Context, item models.WorkItem) {
	if p.ledger == nil {
		return
	}
	if err := p.ledger.MarkLinked(context.WithoutCancel(ctx), item.Row, item.URL); err != nil {
		slog.Warn("failed to mark upload linked in ledger", "row", item.Row, "error", err)
	}
}

// removeLocal deletes the scratch file once the upload was attempted.
func removeLocal(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to remove local screenshot", "path", path, "error", err)
		return
	}
	slog.Debug("removed local screenshot", "path", path)
}

// ValidateURL accepts absolute http and https URLs only.
func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return models.NewPipelineError(models.ErrCodeInvalidURL, "unparseable URL", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return models.NewPipelineError(models.ErrCodeInvalidURL,
			fmt.Sprintf("not an http(s) URL: %q", raw), nil)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

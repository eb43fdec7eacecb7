// Package capture turns a URL into a full-page PNG on local disk.
package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/use-agent/sheetshot/models"
)

// Options configures a Capturer. Zero values take the defaults below.
type Options struct {
	ScratchDir string
	ErrorDir   string

	NavigationTimeout time.Duration // default: 60s
	ConsentTimeout    time.Duration // default: 5s
	ConsentSettle     time.Duration // default: 1.5s
	ScreenshotTimeout time.Duration // default: 120s

	ConsentTargets []ConsentTarget
}

// Capturer navigates a page, clears the consent banner and writes the
// screenshot to the scratch directory.
type Capturer struct {
	opts Options
}

// New returns a Capturer with defaults applied to opts.
func New(opts Options) *Capturer {
	if opts.ScratchDir == "" {
		opts.ScratchDir = "screenshots"
	}
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = 60 * time.Second
	}
	if opts.ConsentTimeout <= 0 {
		opts.ConsentTimeout = 5 * time.Second
	}
	if opts.ConsentSettle == 0 {
		opts.ConsentSettle = 1500 * time.Millisecond
	}
	if opts.ScreenshotTimeout <= 0 {
		opts.ScreenshotTimeout = 120 * time.Second
	}
	if opts.ConsentTargets == nil {
		opts.ConsentTargets = DefaultConsentTargets
	}
	return &Capturer{opts: opts}
}

// Capture screenshots item.URL using page. On success the returned file
// exists in the scratch directory; on failure nothing is left there.
//
// Lifecycle:
//
//  1. Navigate  – bounded by the navigation timeout
//  2. Consent   – best effort, outcome only logged
//  3. Measure   – document dimensions, best effort
//  4. Render    – full-page PNG, bounded by the screenshot timeout
//  5. Persist   – write under the deterministic file name
func (c *Capturer) Capture(ctx context.Context, page Page, item models.WorkItem) (*models.CaptureResult, error) {
	name := FileName(item)
	log := slog.With("row", item.Row, "url", item.URL)

	// ── 1. Navigate ───────────────────────────────────────────────────
	navCtx, cancelNav := context.WithTimeout(ctx, c.opts.NavigationTimeout)
	err := page.Navigate(navCtx, item.URL)
	cancelNav()
	if err != nil {
		err = categorizeError(err, models.ErrCodeNavigation, "navigation failed")
		c.saveErrorShot(ctx, page, name)
		return nil, err
	}
	log.Info("navigated")

	// ── 2. Consent banner ─────────────────────────────────────────────
	c.dismissConsent(ctx, page).log(item.URL)

	// ── 3. Dimensions ─────────────────────────────────────────────────
	result := &models.CaptureResult{}
	if w, h, dimErr := page.Dimensions(ctx); dimErr != nil {
		log.Warn("could not read page dimensions", "error", dimErr)
	} else {
		result.Width, result.Height = w, h
		log.Info("page dimensions", "width", w, "height", h)
	}

	// ── 4. Render ─────────────────────────────────────────────────────
	shotCtx, cancelShot := context.WithTimeout(ctx, c.opts.ScreenshotTimeout)
	img, err := page.Screenshot(shotCtx, true)
	cancelShot()
	if err != nil {
		err = categorizeError(err, models.ErrCodeRender, "full-page screenshot failed")
		c.saveErrorShot(ctx, page, name)
		return nil, err
	}

	// ── 5. Persist ────────────────────────────────────────────────────
	path := filepath.Join(c.opts.ScratchDir, name)
	if err := writeFile(path, img); err != nil {
		return nil, models.NewPipelineError(models.ErrCodeRender,
			"failed to write screenshot", err)
	}

	result.LocalPath = path
	log.Info("screenshot saved", "path", path, "bytes", len(img))
	return result, nil
}

// writeFile writes data to path, removing any partial file on failure.
func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		_ = os.Remove(path)
		return err
	}
	return nil
}

// saveErrorShot stores the current viewport under the error directory.
// It runs on a fresh deadline because ctx may already be spent.
func (c *Capturer) saveErrorShot(ctx context.Context, page Page, name string) {
	if c.opts.ErrorDir == "" {
		return
	}
	ectx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	img, err := page.Screenshot(ectx, false)
	if err != nil {
		slog.Warn("could not take error screenshot", "error", err)
		return
	}
	path := filepath.Join(c.opts.ErrorDir, "error_"+name)
	if err := writeFile(path, img); err != nil {
		slog.Warn("could not save error screenshot", "path", path, "error", err)
		return
	}
	slog.Info("saved error page screenshot", "path", path)
}

// categorizeError maps deadline errors to CAPTURE_TIMEOUT and everything
// else to code.
func categorizeError(err error, code, msg string) *models.PipelineError {
	var pe *models.PipelineError
	if errors.As(err, &pe) {
		return pe
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewPipelineError(models.ErrCodeTimeout, fmt.Sprintf("%s: deadline exceeded", msg), err)
	case errors.Is(err, context.Canceled):
		return models.NewPipelineError(models.ErrCodeTimeout, "capture canceled", err)
	default:
		return models.NewPipelineError(code, msg, err)
	}
}

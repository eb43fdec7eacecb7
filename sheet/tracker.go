// Package sheet reads the URL list from a spreadsheet range and writes the
// screenshot links back next to each URL.
package sheet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/use-agent/sheetshot/config"
	"github.com/use-agent/sheetshot/models"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Tracker is the sheet side of the pipeline: the source of work items and
// the sink for links.
type Tracker struct {
	svc           *sheets.Service
	spreadsheetID string
	rng           Range
	limiter       *rate.Limiter
}

// NewTracker builds a Sheets client for cfg. A malformed range is an init
// failure.
func NewTracker(ctx context.Context, cfg config.SheetConfig, opts ...option.ClientOption) (*Tracker, error) {
	rng, err := ParseRange(cfg.Range)
	if err != nil {
		return nil, models.NewInitError("invalid URL_RANGE", err)
	}

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, models.NewInitError("failed to create Sheets client", err)
	}

	limit := rate.Inf
	if cfg.WritesPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.WritesPerMinute))
	}

	return &Tracker{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		rng:           rng,
		limiter:       rate.NewLimiter(limit, 1),
	}, nil
}

// Range returns the parsed range the tracker works on.
func (t *Tracker) Range() Range {
	return t.rng
}

// List reads the range and returns one WorkItem per row with a URL, in
// sheet order. Blank rows produce no item but keep their row numbers.
func (t *Tracker) List(ctx context.Context) ([]models.WorkItem, error) {
	readRange := t.rng.ReadRange()
	resp, err := t.svc.Spreadsheets.Values.Get(t.spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, models.NewPipelineError(models.ErrCodeSourceUnavailable,
			fmt.Sprintf("failed to read range %s", readRange), err)
	}

	items := make([]models.WorkItem, 0, len(resp.Values))
	for i, row := range resp.Values {
		url := cellString(row, 0)
		if url == "" {
			continue
		}
		items = append(items, models.WorkItem{
			Row:          t.rng.StartRow + i,
			URL:          url,
			ExistingLink: cellString(row, 1),
		})
	}

	slog.Info("read urls from sheet", "range", readRange, "rows", len(resp.Values), "items", len(items))
	return items, nil
}

// WriteBack stores link in the link cell of row. It waits for the write
// quota but never retries.
func (t *Tracker) WriteBack(ctx context.Context, row int, link string) error {
	if row < t.rng.StartRow || row < 1 {
		return models.NewPipelineError(models.ErrCodeInvalidRow,
			fmt.Sprintf("row %d is outside the range starting at row %d", row, t.rng.StartRow), nil)
	}

	if err := t.limiter.Wait(ctx); err != nil {
		return models.NewPipelineError(models.ErrCodeWriteBack, "write quota wait aborted", err)
	}

	cell := t.rng.LinkCell(row)
	_, err := t.svc.Spreadsheets.Values.Update(t.spreadsheetID, cell, &sheets.ValueRange{
		Values: [][]interface{}{{link}},
	}).ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusBadRequest {
			return models.NewPipelineError(models.ErrCodeInvalidRow,
				fmt.Sprintf("sheet rejected cell %s", cell), err)
		}
		return models.NewPipelineError(models.ErrCodeWriteBack,
			fmt.Sprintf("failed to write cell %s", cell), err)
	}

	slog.Info("link written to sheet", "row", row, "cell", cell)
	return nil
}

func cellString(row []interface{}, i int) string {
	if i >= len(row) || row[i] == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(row[i]))
}

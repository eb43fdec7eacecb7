package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/use-agent/sheetshot/models"
)

// reconcileItem writes back a link recorded by an earlier run for the same
// row and URL. handled is false when there is nothing to reconcile.
func (p *Pipeline) reconcileItem(ctx context.Context, item models.WorkItem) (handled bool, err error) {
	if p.ledger == nil {
		return false, nil
	}
	pending, err := p.ledger.PendingFor(ctx, item.Row, item.URL)
	if err != nil {
		slog.Warn("ledger lookup failed, capturing again", "row", item.Row, "error", err)
		return false, nil
	}
	if pending == nil {
		return false, nil
	}

	if err := p.sink.WriteBack(ctx, item.Row, pending.Link); err != nil {
		return true, err
	}
	p.markLinked(ctx, item)
	slog.Info("reconciled earlier upload", "row", item.Row, "url", item.URL, "link", pending.Link)
	return true, nil
}

// Reconcile writes back every pending ledger entry whose row still holds
// the same URL with an empty link cell. items is the current sheet
// content. Entries whose row already carries a link are marked linked.
func (p *Pipeline) Reconcile(ctx context.Context, items []models.WorkItem) (*models.RunSummary, error) {
	start := time.Now()
	summary := &models.RunSummary{}
	if p.ledger == nil {
		return summary, models.NewInitError("ledger is disabled", nil)
	}

	pending, err := p.ledger.Pending(ctx)
	if err != nil {
		return summary, models.NewInitError("cannot read ledger", err)
	}
	summary.Total = len(pending)

	byRow := make(map[int]models.WorkItem, len(items))
	for _, it := range items {
		byRow[it.Row] = it
	}

	for _, up := range pending {
		if ctx.Err() != nil {
			summary.Interrupted = true
			break
		}
		log := slog.With("row", up.Row, "url", up.URL)
		item, ok := byRow[up.Row]

		switch {
		case !ok || item.URL != up.URL:
			summary.Skipped++
			log.Warn("row no longer holds this URL, leaving ledger entry", "current", item.URL)
		case item.Done():
			summary.Skipped++
			p.markLinked(ctx, item)
			log.Info("row already linked")
		default:
			if err := p.sink.WriteBack(ctx, up.Row, up.Link); err != nil {
				summary.RecordFailure(item, err)
				log.Error("reconciliation write-back failed", "code", models.CodeOf(err), "error", err)
				continue
			}
			p.markLinked(ctx, item)
			summary.Processed++
			summary.Reconciled++
			log.Info("reconciled earlier upload", "link", up.Link)
		}
	}

	summary.Duration = time.Since(start)
	return summary, nil
}

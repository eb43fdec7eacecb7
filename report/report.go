// Package report renders run summaries and sheet listings as tables.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/use-agent/sheetshot/models"
	"github.com/use-agent/sheetshot/pipeline"
)

// Item statuses shown by PrintItems.
const (
	StatusDone    = "done"
	StatusPending = "pending"
	StatusInvalid = "invalid"
)

func NewTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

// PrintSummary writes the counters, then one row per failed URL.
func PrintSummary(w io.Writer, s *models.RunSummary) {
	t := NewTable(w)
	t.SetTitle("Run summary")
	t.AppendHeader(table.Row{"Processed", "Skipped", "Failed", "Reconciled", "Total", "Duration"})
	t.AppendRow(table.Row{s.Processed, s.Skipped, s.Failed, s.Reconciled, s.Total, s.Duration.Round(time.Millisecond)})
	t.Render()

	if s.Interrupted {
		fmt.Fprintln(w, "Run interrupted before all rows were visited.")
	}

	if len(s.Failures) == 0 {
		return
	}
	f := NewTable(w)
	f.SetTitle("Failures")
	f.AppendHeader(table.Row{"Row", "URL", "Code", "Error"})
	for _, fail := range s.Failures {
		f.AppendRow(table.Row{fail.Row, fail.URL, fail.Code, fail.Message})
	}
	f.Render()
}

// Status classifies a work item for listings.
func Status(item models.WorkItem) string {
	switch {
	case item.Done():
		return StatusDone
	case pipeline.ValidateURL(item.URL) != nil:
		return StatusInvalid
	default:
		return StatusPending
	}
}

// PrintItems lists the sheet rows with their status and a footer of
// counts per status.
func PrintItems(w io.Writer, items []models.WorkItem) {
	t := NewTable(w)
	t.AppendHeader(table.Row{"Row", "URL", "Status", "Link"})

	counts := map[string]int{}
	for _, item := range items {
		status := Status(item)
		counts[status]++
		t.AppendRow(table.Row{item.Row, item.URL, status, item.ExistingLink})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d rows", len(items)),
		fmt.Sprintf("%d pending", counts[StatusPending]),
		fmt.Sprintf("%d done, %d invalid", counts[StatusDone], counts[StatusInvalid])})
	t.Render()
}

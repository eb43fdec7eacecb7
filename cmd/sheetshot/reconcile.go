package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/use-agent/sheetshot/models"
	"github.com/use-agent/sheetshot/pipeline"
	"github.com/use-agent/sheetshot/report"
)

func newReconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Write back links of earlier uploads that never reached the sheet.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := setup(ctx, true)
			if err != nil {
				return err
			}
			defer a.close()

			if a.ledger == nil {
				return initExit(models.NewInitError("reconcile needs the upload ledger; set LEDGER_PATH", nil))
			}

			items, err := a.listItems(ctx)
			if err != nil {
				return err
			}

			// Only the sheet and the ledger are touched.
			p := pipeline.New(pipeline.Options{}, nil, nil, nil, a.tracker, a.ledger)
			summary, err := p.Reconcile(ctx, items)
			if err != nil {
				return initExit(err)
			}

			report.PrintSummary(os.Stdout, summary)
			if summary.Interrupted {
				return &exitError{code: exitInterrupted}
			}
			return nil
		},
	}
}

package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/use-agent/sheetshot/report"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show every URL in the sheet range with its status, without launching a browser.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := setup(ctx, false)
			if err != nil {
				return err
			}
			defer a.close()

			items, err := a.listItems(ctx)
			if err != nil {
				return err
			}

			report.PrintItems(os.Stdout, items)
			return nil
		},
	}
}

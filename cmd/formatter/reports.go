package main

import (
	"errors"

	"github.com/spf13/cobra"
)

func newReportsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reports <run-id>",
		Short: "Print the stored status reports of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(cmd.Context(), root, false)
			if err != nil {
				return err
			}
			defer app.Close()
			if app.DB == nil {
				return errors.New("DATABASE_URL is not configured")
			}
			records, err := app.Reports.ListByRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), records)
		},
	}
}

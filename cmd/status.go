package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/familiar-bridge/internal/application"
	"github.com/bnema/familiar-bridge/internal/domain"
)

func newStatusCmd(apps *appLoader) *cobra.Command {
	var familiar string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show familiars, the focus cycle and watcher liveness",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := apps.get()
			if err != nil {
				return err
			}

			overview, err := app.overview.Overview(cmd.Context(), domain.FamiliarID(familiar))
			if err != nil {
				return err
			}

			return writeOverviewOutput(cmd, app, overview, asJSON)
		},
	}

	cmd.Flags().StringVar(&familiar, "familiar", "", "only show this familiar")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of the rendered view")
	return cmd
}

func writeOverviewOutput(cmd *cobra.Command, app *app, overview application.Overview, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(overview)
	}

	rendered, err := app.statusRenderer(overview)
	if err != nil {
		return fmt.Errorf("render status: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}

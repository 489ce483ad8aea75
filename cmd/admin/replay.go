package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"bridgesync/internal/domain/webhook"
	"bridgesync/internal/infrastructure/database"
)

func replayWebhookCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "replay-webhook",
		Short: "Apply a stored webhook event to the item store",
		Long: `Feed a webhook event saved as JSON through the reconciler, skipping the
source address check. Useful after an outage dropped deliveries.

Example:
  admin replay-webhook --file event.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read event: %w", err)
			}
			var ev webhook.Event
			if err := json.Unmarshal(data, &ev); err != nil {
				return fmt.Errorf("failed to parse event: %w", err)
			}
			if ev.Type == "" {
				return fmt.Errorf("event must carry a type")
			}

			_, db, ctx, cancel, err := setup(cmd)
			if err != nil {
				return err
			}
			defer db.Close()
			defer cancel()

			reconciler, err := webhook.NewReconciler(nil, database.NewItemRepository(db))
			if err != nil {
				return err
			}

			outcome, err := reconciler.Handle(ctx, ev)
			if err != nil {
				return err
			}
			if ev.ItemID == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", ev.Type, outcome)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "item %d: %s\n", *ev.ItemID, outcome)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "path to the event JSON")
	cmd.MarkFlagRequired("file")

	return cmd
}

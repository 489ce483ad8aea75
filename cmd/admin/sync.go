package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"bridgesync/internal/domain/bridge"
	"bridgesync/internal/domain/user"
	bridgeclient "bridgesync/internal/infrastructure/bridge"
	"bridgesync/internal/infrastructure/database"
	"bridgesync/internal/shared/config"
)

func syncCmd() *cobra.Command {
	var (
		userUUIDs []string
		all       bool
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Issue a token and pull items, accounts and transactions for users",
		Long: `Run the composite sync for one or more users.

Examples:
  admin sync --user-uuid 3e1f0c2a-...
  admin sync --user-uuid a,b,c
  admin sync --all`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(userUUIDs) == 0 && !all {
				return fmt.Errorf("must specify --user-uuid or --all")
			}

			cfg, db, ctx, cancel, err := setup(cmd)
			if err != nil {
				return err
			}
			defer db.Close()
			defer cancel()

			users, syncer := newSyncServices(cfg, db)

			if all {
				list, err := users.List(ctx)
				if err != nil {
					return err
				}
				userUUIDs = userUUIDs[:0]
				for _, u := range list {
					userUUIDs = append(userUUIDs, u.BridgeUUID)
				}
			}

			out := cmd.OutOrStdout()
			failed := 0
			for _, uuid := range userUUIDs {
				uuid = strings.TrimSpace(uuid)
				if uuid == "" {
					continue
				}
				token, err := users.IssueToken(ctx, uuid)
				if err != nil {
					fmt.Fprintf(out, "\n=== User %s ===\n  token error: %v\n", uuid, err)
					failed++
					continue
				}
				result, err := syncer.SyncUserData(ctx, uuid, token.AccessToken)
				printSyncResult(out, result)
				if err != nil {
					failed++
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d user syncs failed", failed, len(userUUIDs))
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&userUUIDs, "user-uuid", nil, "provider user UUID(s), comma-separated")
	cmd.Flags().BoolVar(&all, "all", false, "sync every provisioned user")

	return cmd
}

func newSyncServices(cfg *config.Config, db *database.DB) (*user.Service, *bridge.SyncService) {
	client := bridgeclient.NewClient(bridgeclient.Config{
		BaseURL:      cfg.Bridge.BaseURL,
		Version:      cfg.Bridge.Version,
		ClientID:     cfg.Bridge.ClientID,
		ClientSecret: cfg.Bridge.ClientSecret,
		Timeout:      cfg.Bridge.Timeout,
	})

	items := database.NewItemRepository(db)
	accounts := database.NewAccountRepository(db)
	transactions := database.NewTransactionRepository(db)

	return user.NewService(database.NewUserRepository(db), client),
		bridge.NewSyncService(client, items, accounts, transactions)
}

func printSyncResult(w io.Writer, result *bridge.UserSyncResult) {
	fmt.Fprintf(w, "\n=== User %s ===\n", result.UserUUID)
	for _, part := range []*bridge.SyncResult{result.Items, result.Accounts, result.Transactions} {
		if part == nil {
			continue
		}
		fmt.Fprintf(w, "  %-13s found=%d created=%d updated=%d\n", part.Entity+":", part.Found, part.Created, part.Updated)
	}
	for _, e := range result.Errors {
		fmt.Fprintf(w, "  error: %s\n", e)
	}
}

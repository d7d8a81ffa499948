package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yourname/snusquit/internal"
	"github.com/yourname/snusquit/internal/api"
	"github.com/yourname/snusquit/internal/service"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create tables and indexes in the configured store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()
			if e.store == nil {
				return errNoStore
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Migrated %s store at %s\n", e.store.Name(), e.store.Database())
			return nil
		},
	}
}

func newSeedTipsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-tips",
		Short: "Insert the default tips when none are stored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()
			if e.store == nil {
				return errNoStore
			}

			ctx, cancel := e.storeContext(cmd.Context())
			defer cancel()
			seeded, err := service.EnsureTips(ctx, e.store)
			if err != nil {
				return err
			}
			if seeded {
				fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d default tips\n", len(service.DefaultTips))
				return nil
			}
			n, err := e.store.CountTips(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Tips already present (%d)\n", n)
			return nil
		},
	}
}

func newSummaryCmd() *cobra.Command {
	var today string
	cmd := &cobra.Command{
		Use:   "summary <user_id>",
		Short: "Print a user's summary statistics as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()
			if e.store == nil {
				return errNoStore
			}

			now := api.NewDeps(e.cfg, e.logger, e.store).Now()
			if today != "" {
				if now, err = time.ParseInLocation(internal.DateLayout, today, e.cfg.Location); err != nil {
					return fmt.Errorf("--today must be YYYY-MM-DD: %w", err)
				}
			}

			ctx, cancel := e.storeContext(cmd.Context())
			defer cancel()
			summary, err := service.GetSummary(ctx, e.store, args[0], now)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(summary)
		},
	}
	cmd.Flags().StringVar(&today, "today", "", "Reference day (YYYY-MM-DD), defaults to today in TIMEZONE")
	return cmd
}

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/contentops/content-core/internal/health"
	"github.com/contentops/content-core/internal/invariants"
)

// statusCmd pings the configured store backend. With --watch it keeps
// polling and logs every health transition until interrupted.
func statusCmd() *cobra.Command {
	var (
		watch    bool
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check store connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, log, closeStore, err := openStore()
			if err != nil {
				return err
			}
			defer closeStore()

			pinger, ok := st.(health.HealthPinger)
			if !ok {
				return fmt.Errorf("store driver does not support health checks")
			}

			if !watch {
				if err := health.Check(cmd.Context(), pinger); err != nil {
					return fmt.Errorf("store unreachable: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "store: ok")
				return nil
			}

			ctx := cmd.Context()
			storeCheck := health.NewPingChecker("store", pinger, log)
			svc := health.NewServiceHealthChecker(log, storeCheck)
			go storeCheck.Start(ctx, interval)
			svc.Start(ctx, interval)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Keep polling and log health transitions")
	cmd.Flags().DurationVar(&interval, "interval", 10*time.Second, "Polling interval for --watch")
	return cmd
}

// verifyCmd audits a record's snapshot history against the versioning
// contract.
func verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <record-id>",
		Short: "Audit a record's snapshot history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, _, closeStore, err := openStore()
			if err != nil {
				return err
			}
			defer closeStore()

			violations, err := invariants.New(st).CheckRecord(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(violations) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "history: ok")
				return nil
			}
			for _, v := range violations {
				fmt.Fprintln(cmd.OutOrStdout(), v)
			}
			return fmt.Errorf("%d violation(s) found", len(violations))
		},
	}
}

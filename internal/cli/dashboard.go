package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewDashboardCommand creates the dashboard command.
func NewDashboardCommand(rootOpts *RootOptions) *cobra.Command {
	var withHealth bool

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show platform counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()
			ctx := cmd.Context()

			stats, err := s.client.Dashboard().Stats(ctx)
			if err != nil {
				return WrapExitError(ExitCommandError, "dashboard stats", err)
			}

			f := formatterFor(cmd, rootOpts)
			data := map[string]any{"stats": stats}

			if withHealth {
				health, err := s.client.Dashboard().Health(ctx)
				if err != nil {
					return WrapExitError(ExitCommandError, "dashboard health", err)
				}
				data["health"] = health
				if !f.JSON() {
					fmt.Fprintf(f.Writer, "health: %s (db ok: %v, sessions: %d)\n",
						health.Status, health.DatabaseOK, health.ActiveSessions)
				}
			}

			if f.JSON() {
				return f.Success(data)
			}
			fmt.Fprintf(f.Writer, "users: %d total, %d active, %d pending approval\n",
				stats.TotalUsers, stats.ActiveUsers, stats.PendingApprovals)
			fmt.Fprintf(f.Writer, "orders: %d total, %d today\n", stats.TotalOrders, stats.OrdersToday)
			fmt.Fprintf(f.Writer, "chefs: %d active\n", stats.ActiveChefs)
			fmt.Fprintf(f.Writer, "revenue: %s total, %s today\n", stats.TotalRevenue, stats.RevenueToday)
			return nil
		},
	}

	cmd.Flags().BoolVar(&withHealth, "health", false, "include backend health")
	return cmd
}

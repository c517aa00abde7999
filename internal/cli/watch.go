package cli

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/chefsync/backline/internal/api"
	"github.com/chefsync/backline/internal/entity"
	"github.com/chefsync/backline/internal/metrics"
	"github.com/chefsync/backline/internal/optimistic"
	"github.com/chefsync/backline/internal/poller"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	Resource    string
	MetricsAddr string
}

// NewWatchCommand creates the watch command: a long-running poll loop
// that keeps a coordinator's base fresh and prints the derived view
// whenever it changes.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Continuously poll a resource list",
		Long: "watch polls the backend on the configured interval and renders the\n" +
			"list each time it changes. Runs until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Resource, "resource", "users", "resource to watch (users|orders)")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
	return cmd
}

func runWatch(cmd *cobra.Command, opts *WatchOptions) error {
	if opts.Resource != "users" && opts.Resource != "orders" {
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown resource %q", opts.Resource))
	}

	s, err := newSession(opts.RootOptions)
	if err != nil {
		return err
	}
	defer s.Close()

	if opts.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		s.metrics = metrics.New(reg)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: opts.MetricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				s.log.Error("metrics server", "error", err)
			}
		}()
		defer srv.Close()
	}

	f := formatterFor(cmd, opts.RootOptions)
	switch opts.Resource {
	case "orders":
		return watchList(cmd.Context(), s, f, opts.Resource,
			func(ctx context.Context) ([]entity.Order, error) {
				page, err := s.client.Orders().List(ctx, api.OrderListOptions{})
				return page.Items, err
			},
			entity.Order.Key,
			func(o entity.Order) string {
				return fmt.Sprintf("%d\t%s\t%s\t%s", o.ID, o.OrderNumber, o.Status, o.TotalAmount)
			})
	default:
		return watchList(cmd.Context(), s, f, opts.Resource,
			func(ctx context.Context) ([]entity.User, error) {
				page, err := s.client.Users().List(ctx, api.UserListOptions{})
				return page.Items, err
			},
			entity.User.Key,
			func(u entity.User) string {
				return fmt.Sprintf("%d\t%s\t%s\t%v", u.ID, u.Name, u.Role, u.Active)
			})
	}
}

// watchList drives one coordinator + poller pair until ctx is canceled.
func watchList[E any](
	ctx context.Context,
	s *session,
	f *OutputFormatter,
	resource string,
	fetch func(ctx context.Context) ([]E, error),
	keyOf func(E) int64,
	render func(E) string,
) error {
	coord := optimistic.New(keyOf, nil, optimistic.WithPolicy[int64, E](s.policy()))
	defer coord.Close()

	refresh := func(ctx context.Context) error {
		items, err := fetch(ctx)
		if err != nil {
			s.metrics.PollRefreshes.WithLabelValues("error").Inc()
			return err
		}
		s.metrics.PollRefreshes.WithLabelValues("ok").Inc()
		coord.SetBase(items)
		printView(f, resource, coord.View(), render)
		return nil
	}

	p := poller.New(s.cfg.Poll.Interval(), refresh, s.log)
	p.Start(ctx)
	defer p.Stop()

	<-ctx.Done()
	return nil
}

func printView[E any](f *OutputFormatter, resource string, view []E, render func(E) string) {
	fmt.Fprintf(f.Writer, "-- %s @ %s (%d)\n", resource, time.Now().Format(time.TimeOnly), len(view))
	for _, e := range view {
		fmt.Fprintln(f.Writer, render(e))
	}
}

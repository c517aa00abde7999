package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/chefsync/backline/internal/config"
	"github.com/chefsync/backline/internal/journal"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database  string
	Resource  string
	Token     string
	Unsettled bool
	Limit     int
}

// NewTraceCommand creates the trace command, which reads the edit
// journal without touching the backend.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect the optimistic edit journal",
		Long: "trace lists journaled edits and their settlements: what was changed,\n" +
			"with which token, and whether the backend accepted it.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "journal path (default: journal.path from config)")
	cmd.Flags().StringVar(&opts.Resource, "resource", "", "only edits against this resource")
	cmd.Flags().StringVar(&opts.Token, "token", "", "look up one edit by its action token")
	cmd.Flags().BoolVar(&opts.Unsettled, "unsettled", false, "only edits that never settled")
	cmd.Flags().IntVar(&opts.Limit, "limit", 50, "maximum rows")
	return cmd
}

func runTrace(cmd *cobra.Command, opts *TraceOptions) error {
	path := opts.Database
	if path == "" {
		cfg, err := config.Load(opts.Config)
		if err != nil {
			return WrapExitError(ExitCommandError, "load config", err)
		}
		path = cfg.Journal.Path
	}

	jnl, err := journal.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "open journal", err)
	}
	defer jnl.Close()
	ctx := cmd.Context()

	var rows []journal.TraceRow
	switch {
	case opts.Token != "":
		row, err := jnl.ByToken(ctx, opts.Token)
		if errors.Is(err, sql.ErrNoRows) {
			return NewExitError(ExitFailure, fmt.Sprintf("no edit with token %s", opts.Token))
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "read journal", err)
		}
		rows = []journal.TraceRow{row}
	case opts.Unsettled:
		rows, err = jnl.Unsettled(ctx)
	case opts.Resource != "":
		rows, err = jnl.ByResource(ctx, opts.Resource)
	default:
		rows, err = jnl.Recent(ctx, opts.Limit)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "read journal", err)
	}

	f := formatterFor(cmd, opts.RootOptions)
	if f.JSON() {
		return f.Success(map[string]any{"edits": rows, "count": len(rows)})
	}

	w := tabwriter.NewWriter(f.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SEQ\tRESOURCE\tKEY\tKIND\tTOKEN\tOUTCOME\tERROR")
	for _, r := range rows {
		outcome := "pending"
		errText := ""
		if r.Settled {
			outcome = r.Outcome
			errText = r.Error
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Action.Seq, r.Action.Resource, r.Action.Key, r.Action.Kind,
			r.Action.Token, outcome, errText)
	}
	w.Flush()
	return nil
}

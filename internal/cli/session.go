package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/chefsync/backline/internal/api"
	"github.com/chefsync/backline/internal/config"
	"github.com/chefsync/backline/internal/journal"
	"github.com/chefsync/backline/internal/metrics"
	"github.com/chefsync/backline/internal/optimistic"
)

// session bundles everything a command needs: validated config, the API
// client, the edit journal, and instrumentation.
type session struct {
	cfg     config.Config
	client  *api.Client
	journal *journal.Journal
	log     *slog.Logger
	metrics *metrics.Metrics
}

// newSession loads config and wires the shared services. Callers must
// Close it.
func newSession(opts *RootOptions) (*session, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load config", err)
	}

	log := newLogger(cfg.Log, opts.Verbose)

	var creds api.CredentialProvider
	switch {
	case cfg.API.Token != "":
		creds = api.StaticToken(cfg.API.Token)
	case cfg.API.TokenFile != "":
		creds = api.FileToken{Path: cfg.API.TokenFile}
	}

	clientOpts := []api.ClientOption{
		api.WithLogger(log),
		api.WithHTTPClient(&http.Client{Timeout: cfg.API.Timeout()}),
	}
	if creds != nil {
		clientOpts = append(clientOpts, api.WithCredentials(creds))
	}
	client, err := api.NewClient(cfg.API.BaseURL, clientOpts...)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "api client", err)
	}

	jnl, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open journal", err)
	}

	return &session{
		cfg:     cfg,
		client:  client,
		journal: jnl,
		log:     log,
		metrics: metrics.New(prometheus.NewRegistry()),
	}, nil
}

func (s *session) Close() {
	if s.journal != nil {
		s.journal.Close()
	}
}

// policy maps the configured concurrent-edit policy.
func (s *session) policy() optimistic.Policy {
	if s.cfg.Policy == "supersede" {
		return optimistic.PolicySupersede
	}
	return optimistic.PolicyReject
}

func newLogger(cfg config.LogConfig, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	hopts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, hopts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, hopts)
	}
	return slog.New(handler)
}

// editOutcome is what a one-shot edit command reports.
type editOutcome struct {
	Resource string `json:"resource"`
	Key      string `json:"key"`
	Kind     string `json:"kind"`
	Token    string `json:"token"`
	Outcome  string `json:"outcome"`
	Error    string `json:"error,omitempty"`
	ActionID string `json:"action_id"`
	Elapsed  string `json:"elapsed"`
}

// executeEdit runs one optimistic edit end to end: apply (or delete),
// journal the action, await the settlement, journal it, and report the
// outcome. One-shot commands settle exactly one action, so the clock is
// resumed from the journal to keep sequences monotonic across runs.
func executeEdit[K comparable, E any](
	ctx context.Context,
	s *session,
	resource string,
	base []E,
	keyOf func(E) K,
	current E,
	apply func(c *optimistic.Coordinator[K, E]) error,
) (*editOutcome, error) {
	lastSeq, err := s.journal.LastSeq()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "journal", err)
	}

	settled := make(chan optimistic.Settlement[K, E], 1)
	coord := optimistic.New(keyOf, base,
		optimistic.WithClock[K, E](optimistic.NewClockAt(lastSeq)),
		optimistic.WithPolicy[K, E](s.policy()),
		optimistic.OnSettle[K, E](func(st optimistic.Settlement[K, E]) {
			settled <- st
		}),
	)
	defer coord.Close()

	start := time.Now()
	if err := apply(coord); err != nil {
		return nil, WrapExitError(ExitFailure, "apply edit", err)
	}

	key := keyOf(current)

	// The confirm goroutine may settle before control returns here, in
	// which case the pending record is already gone and the settlement
	// carries the action instead.
	var (
		act          optimistic.Action[K, E]
		st           optimistic.Settlement[K, E]
		settledEarly bool
	)
	if pending, ok := coord.Pending(key); ok {
		act = pending
	} else {
		select {
		case st = <-settled:
			act = st.Action
			settledEarly = true
		case <-ctx.Done():
			return nil, WrapExitError(ExitCommandError, "await settlement", ctx.Err())
		}
	}
	s.metrics.ActionsApplied.WithLabelValues(resource, string(act.Kind)).Inc()

	actRec, err := journal.NewActionRecord(
		act.Token, string(act.Kind), resource, fmt.Sprint(key),
		act.Previous, act.Optimistic, act.Seq, act.StartedAt,
	)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "journal action", err)
	}
	if err := s.journal.RecordAction(ctx, actRec); err != nil {
		return nil, WrapExitError(ExitCommandError, "journal action", err)
	}

	if !settledEarly {
		select {
		case st = <-settled:
		case <-ctx.Done():
			return nil, WrapExitError(ExitCommandError, "await settlement", ctx.Err())
		}
	}

	errText := ""
	if st.Err != nil {
		errText = st.Err.Error()
	}
	stRec, err := journal.NewSettlementRecord(actRec.ID, string(st.Outcome), errText, st.Seq, time.Now())
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "journal settlement", err)
	}
	if err := s.journal.RecordSettlement(ctx, stRec); err != nil {
		return nil, WrapExitError(ExitCommandError, "journal settlement", err)
	}
	s.metrics.ObserveSettlement(resource, string(st.Outcome), act.StartedAt)

	return &editOutcome{
		Resource: resource,
		Key:      fmt.Sprint(key),
		Kind:     string(act.Kind),
		Token:    act.Token,
		Outcome:  string(st.Outcome),
		Error:    errText,
		ActionID: actRec.ID,
		Elapsed:  time.Since(start).Round(time.Millisecond).String(),
	}, nil
}

// reportEdit prints an edit outcome and maps reverts to ExitFailure so
// scripts can branch on the exit code.
func reportEdit(f *OutputFormatter, out *editOutcome) error {
	if f.JSON() {
		if err := f.Success(out); err != nil {
			return err
		}
	} else if out.Outcome == string(optimistic.OutcomeCommitted) {
		fmt.Fprintf(f.Writer, "%s %s %s: committed (%s)\n", out.Resource, out.Key, out.Kind, out.Elapsed)
	} else {
		fmt.Fprintf(f.Writer, "%s %s %s: reverted: %s\n", out.Resource, out.Key, out.Kind, out.Error)
	}

	if out.Outcome != string(optimistic.OutcomeCommitted) {
		return NewExitError(ExitFailure, "edit reverted")
	}
	return nil
}

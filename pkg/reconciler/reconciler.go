// Package reconciler applies a disposition ruleset to a study table set.
// It runs Delete, then Move or Exchange, then Merge, each over every
// disposition row in sheet order, logging every mutation it makes.
package reconciler

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/agentstation/idmend/pkg/auditlog"
	"github.com/agentstation/idmend/pkg/disposition"
	"github.com/agentstation/idmend/pkg/errors"
	"github.com/agentstation/idmend/pkg/logging"
	"github.com/agentstation/idmend/pkg/tables"
)

// Reconciler is the main interface for reconciling participant identities.
type Reconciler interface {
	// Run mutates set in place according to rs. A returned error is
	// fatal: the caller must not persist the set.
	Run(ctx context.Context, rs *disposition.Ruleset, set *tables.Set) (*Result, error)
}

type reconciler struct {
	opts *options
}

// New creates a new Reconciler with options.
func New(opts ...Option) (Reconciler, error) {
	options, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	return &reconciler{opts: options}, nil
}

// run holds the state of one Run call.
type run struct {
	*options
	strategy RelocationStrategy
	result   *Result
	logger   *zerolog.Logger
	targets  []*tables.Table
}

// Run performs reconciliation with the fixed stage order.
func (r *reconciler) Run(ctx context.Context, rs *disposition.Ruleset, set *tables.Set) (*Result, error) {
	if rs == nil || set == nil {
		return nil, &errors.ValidationError{Field: "input", Message: "ruleset and table set are required"}
	}

	st := &run{
		options:  r.opts,
		strategy: r.opts.strategy.Resolve(rs.Variant),
		result:   NewResult(set),
		logger:   logging.FromContext(ctx),
	}
	for _, t := range set.Tables() {
		if t.HasIdentity() {
			st.targets = append(st.targets, t)
		} else {
			st.result.Metadata.Stats.PassedThrough++
		}
	}
	st.result.Metadata.Strategy = st.strategy
	st.result.Metadata.Policy = r.opts.policy
	st.result.Metadata.Workers = r.opts.workers
	st.result.Metadata.Stats.Rules = len(rs.Rows)
	st.result.Metadata.Stats.Tables = set.Len()

	if rs.Variant != disposition.VariantUnknown && string(rs.Variant) != string(st.strategy) {
		st.warn(fmt.Sprintf("sheet was authored for %s but running %s", rs.Variant, st.strategy))
	}

	st.logger.Info().
		Str("strategy", st.strategy.String()).
		Int("rules", len(rs.Rows)).
		Int("tables", set.Len()).
		Msg("Starting reconciliation")

	stages := []struct {
		name string
		fn   func(context.Context, disposition.Row) error
	}{
		{"delete", st.deleteRow},
		{string(st.strategy), st.relocateRow},
		{"merge", st.mergeRow},
	}
	for _, stage := range stages {
		stageCtx := logging.WithOperation(ctx, stage.name)
		before := st.result.Log.Len()
		for _, row := range rs.Rows {
			if err := ctx.Err(); err != nil {
				return nil, errors.WrapCanceled("reconcile", err)
			}
			if err := stage.fn(stageCtx, row); err != nil {
				return nil, err
			}
		}
		logging.FromContext(stageCtx).Info().
			Int("entries", st.result.Log.Len()-before).
			Msg("Stage complete")
	}

	st.result.Finalize()
	for _, c := range st.result.Log.Conflicts() {
		st.logger.Warn().
			Str("table", c.Table).
			Str("current_id", c.ParticipantID).
			Str("merge_id", c.TargetID).
			Str("visit", c.Visit).
			Msg("Merge conflict needs manual check")
	}
	st.logger.Info().
		Int("conflicts", st.result.Metadata.Stats.Conflicts).
		Dur("duration", st.result.Metadata.Duration).
		Msg("Reconciliation complete")
	return st.result, nil
}

func (st *run) warn(msg string) {
	st.result.Warnings = append(st.result.Warnings, msg)
	st.logger.Warn().Msg(msg)
}

// eachTable runs fn for every identity table, in parallel when workers
// allow, and returns per-table entries in table order.
func (st *run) eachTable(ctx context.Context, fn func(i int, t *tables.Table) ([]auditlog.Entry, error)) ([][]auditlog.Entry, error) {
	apply := func(i int, t *tables.Table) ([]auditlog.Entry, error) {
		entries, err := fn(i, t)
		if err != nil {
			logging.FromContext(logging.WithTable(ctx, t.Name)).Warn().Err(err).Msg("Rule failed on table")
		}
		return entries, err
	}

	out := make([][]auditlog.Entry, len(st.targets))
	if st.workers <= 1 {
		for i, t := range st.targets {
			entries, err := apply(i, t)
			if err != nil {
				return nil, err
			}
			out[i] = entries
		}
		return out, nil
	}

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(st.workers)
	for i, t := range st.targets {
		i, t := i, t
		g.Go(func() error {
			entries, err := apply(i, t)
			out[i] = entries
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// record appends per-table entries to the log in table order.
func (st *run) record(ctx context.Context, perTable [][]auditlog.Entry) {
	for i, entries := range perTable {
		if len(entries) == 0 {
			continue
		}
		log := logging.FromContext(logging.WithTable(ctx, st.targets[i].Name))
		for _, e := range entries {
			log.Debug().
				Str("visit", e.Visit).
				Int("rows", e.Rows).
				Str("action", string(e.Action)).
				Msg("Applied")
		}
		st.result.Log.Append(entries...)
	}
}

func (st *run) deleteRow(ctx context.Context, row disposition.Row) error {
	if !row.Delete {
		return nil
	}
	ctx = logging.WithParticipant(ctx, row.CurrentID)
	perTable, err := st.eachTable(ctx, func(_ int, t *tables.Table) ([]auditlog.Entry, error) {
		return Delete(t, row), nil
	})
	if err != nil {
		return err
	}
	st.record(ctx, perTable)
	return nil
}

func (st *run) relocateRow(ctx context.Context, row disposition.Row) error {
	if !row.Relocate {
		return nil
	}
	if row.CurrentID == row.RelocateTargetID {
		st.warn(fmt.Sprintf("row %d relocates %s onto itself, skipped", row.Line, row.CurrentID))
		return nil
	}
	ctx = logging.WithParticipant(ctx, row.CurrentID)

	if st.strategy == StrategyExchange {
		return st.exchangeRow(ctx, row)
	}

	snaps := make([][]Snapshot, len(st.targets))
	perTable, err := st.eachTable(ctx, func(i int, t *tables.Table) ([]auditlog.Entry, error) {
		entries, s := Move(t, row)
		snaps[i] = s
		return entries, nil
	})
	if err != nil {
		return err
	}
	st.record(ctx, perTable)
	for _, list := range snaps {
		for _, s := range list {
			st.result.Remembered.Add(s)
		}
	}
	return nil
}

func (st *run) exchangeRow(ctx context.Context, row disposition.Row) error {
	// Validate every table before touching any so a mismatch never leaves
	// a half-exchanged participant behind.
	for _, t := range st.targets {
		if err := CheckExchange(t, row); err != nil {
			if st.policy == PolicySkip {
				st.result.Errors = append(st.result.Errors, err)
				st.result.Metadata.Stats.SkippedRules++
				logging.FromContext(ctx).Warn().Err(err).Int("line", row.Line).Msg("Exchange skipped")
				return nil
			}
			return err
		}
	}
	perTable, err := st.eachTable(ctx, func(_ int, t *tables.Table) ([]auditlog.Entry, error) {
		return Exchange(t, row, st.timestampColumn)
	})
	if err != nil {
		return err
	}
	st.record(ctx, perTable)
	return nil
}

func (st *run) mergeRow(ctx context.Context, row disposition.Row) error {
	if !row.Merging() {
		return nil
	}
	if row.CurrentID == row.MergeTargetID {
		st.warn(fmt.Sprintf("row %d merges %s with itself, skipped", row.Line, row.CurrentID))
		return nil
	}
	ctx = logging.WithParticipant(ctx, row.CurrentID)
	cmp := Comparison{
		Anchor:         st.anchor,
		DerivedColumns: st.derivedColumns,
		Skip:           []string{st.timestampColumn},
	}
	perTable, err := st.eachTable(ctx, func(_ int, t *tables.Table) ([]auditlog.Entry, error) {
		return Merge(t, row, cmp), nil
	})
	if err != nil {
		return err
	}
	st.record(ctx, perTable)
	return nil
}

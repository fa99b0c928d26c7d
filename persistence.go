package idmend

import (
	"context"
	"path/filepath"

	"github.com/agentstation/idmend/internal/store/sqlite"
	"github.com/agentstation/idmend/pkg/auditlog"
	"github.com/agentstation/idmend/pkg/constants"
	"github.com/agentstation/idmend/pkg/coverage"
	"github.com/agentstation/idmend/pkg/logging"
	"github.com/agentstation/idmend/pkg/reconciler"
	"github.com/agentstation/idmend/pkg/tableio"
	"github.com/agentstation/idmend/pkg/tables"
)

// persist writes the reconciled tables, the logs, the coverage report,
// remembered snapshots and the run summary. Per-file failures are
// recorded in the summary; only an unusable output directory is returned,
// and only before anything was written. Callers pass a context that is
// not canceled.
func (e *engine) persist(ctx context.Context, result *reconciler.Result, report *coverage.Report, summary *RunSummary) error {
	out := e.config.outputDir
	logger := logging.FromContext(ctx)

	if err := e.writeTables(ctx, result.Tables, summary); err != nil {
		return err
	}

	logs := e.logTables(result)
	if report != nil {
		t := report.Table()
		t.Name = constants.CoverageReportFile
		logs = append(logs, t)
	}
	for _, t := range logs {
		if err := tableio.WriteFile(filepath.Join(out, t.Name), t, e.tableOptions()...); err != nil {
			summary.addError(err)
			continue
		}
		summary.Written = append(summary.Written, t.Name)
	}

	if result.Remembered.Len() > 0 {
		snaps := tables.NewSet()
		for _, s := range result.Remembered.Snapshots() {
			snaps.Put(s.AsTable())
		}
		wr, err := tableio.WriteDir(ctx, filepath.Join(out, constants.RememberedDir), snaps, e.tableOptions()...)
		switch {
		case err != nil:
			summary.addError(err)
		default:
			for _, werr := range wr.Errors {
				summary.addError(werr)
			}
			for _, name := range wr.Written {
				summary.Written = append(summary.Written, filepath.Join(constants.RememberedDir, name))
			}
		}
	}

	if e.config.sqlitePath != "" {
		if err := e.export(ctx, result, logs, summary); err != nil {
			summary.addError(err)
			logger.Warn().Err(err).Str("path", e.config.sqlitePath).Msg("SQLite export failed")
		}
	}

	summary.finish()
	if err := tableio.WriteYAML(filepath.Join(out, constants.RunSummaryFile), summary); err != nil {
		summary.addError(err)
	}
	logger.Info().Str("dir", out).Int("files", len(summary.Written)).Msg("Results written")
	return nil
}

func (e *engine) writeTables(ctx context.Context, set *tables.Set, summary *RunSummary) error {
	wr, err := tableio.WriteDir(ctx, e.config.outputDir, set, e.tableOptions()...)
	if err != nil {
		return err
	}
	summary.Written = append(summary.Written, wr.Written...)
	for _, werr := range wr.Errors {
		summary.addError(werr)
		e.triggerTableSkipped(failedTable(werr), werr)
	}
	return nil
}

// logTables returns the delete, relocation and merge logs named after
// their output files. The relocation log follows the strategy that ran.
func (e *engine) logTables(result *reconciler.Result) []*tables.Table {
	relocation, file := auditlog.OpMove, constants.MoveLogFile
	if result.Metadata.Strategy == reconciler.StrategyExchange {
		relocation, file = auditlog.OpExchange, constants.ExchangeLogFile
	}
	named := []struct {
		op   auditlog.Op
		file string
	}{
		{auditlog.OpDelete, constants.DeleteLogFile},
		{relocation, file},
		{auditlog.OpMerge, constants.MergeLogFile},
	}
	out := make([]*tables.Table, 0, len(named))
	for _, n := range named {
		t := result.Log.Table(n.op)
		t.Name = n.file
		out = append(out, t)
	}
	return out
}

func (e *engine) export(ctx context.Context, result *reconciler.Result, logs []*tables.Table, summary *RunSummary) error {
	store, err := sqlite.Open(ctx, e.config.sqlitePath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	all := result.Tables.Clone()
	for _, t := range logs {
		all.Put(t)
	}
	if err := store.Export(ctx, all); err != nil {
		return err
	}
	return store.RecordRun(ctx, sqlite.Run{
		ID:        summary.RunID,
		StartedAt: summary.StartedAt,
		Strategy:  summary.Strategy,
		Tables:    summary.TablesLoaded,
		Conflicts: summary.Conflicts,
		Errors:    len(summary.Errors),
	})
}

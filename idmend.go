package idmend

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/agentstation/idmend/pkg/annotate"
	"github.com/agentstation/idmend/pkg/constants"
	"github.com/agentstation/idmend/pkg/coverage"
	"github.com/agentstation/idmend/pkg/disposition"
	"github.com/agentstation/idmend/pkg/errors"
	"github.com/agentstation/idmend/pkg/logging"
	"github.com/agentstation/idmend/pkg/reconciler"
	"github.com/agentstation/idmend/pkg/tableio"
	"github.com/agentstation/idmend/pkg/tables"
)

// Engine reconciles participant identities across a directory of study
// tables.
type Engine interface {
	// Run loads the ruleset and tables, reconciles them and, unless the
	// run is a dry run, writes the results. A returned error means
	// nothing was written.
	Run(ctx context.Context) (*RunSummary, error)

	// Validate loads and checks the ruleset without touching tables.
	Validate(ctx context.Context) (*disposition.Ruleset, error)

	// Audit checks merge rules against the required visits.
	Audit(ctx context.Context) (*coverage.Report, error)

	// Annotate adds SiteCode and VisitCode to the input tables and writes
	// them to the output directory.
	Annotate(ctx context.Context) (*RunSummary, error)

	// OnConflict registers a callback for merge conflicts
	OnConflict(ConflictHook)

	// OnTableSkipped registers a callback for tables lost to I/O errors
	OnTableSkipped(TableSkippedHook)
}

type engine struct {
	*hooks
	config *config
}

// New creates an Engine with the given options.
func New(opts ...Option) (Engine, error) {
	e := &engine{
		hooks:  newHooks(),
		config: defaultConfig(),
	}
	for _, opt := range opts {
		if err := opt(e.config); err != nil {
			return nil, fmt.Errorf("applying options: %w", err)
		}
	}
	return e, nil
}

func (e *engine) Validate(ctx context.Context) (*disposition.Ruleset, error) {
	if e.config.dispositionFile == "" {
		return nil, &errors.ConfigError{Component: "engine", Field: "disposition_file", Message: "no disposition file configured"}
	}
	rs, err := disposition.LoadFile(e.config.dispositionFile)
	if err != nil {
		return nil, err
	}
	deletes, relocates, merges := rs.Counts()
	logging.FromContext(ctx).Info().
		Str("file", e.config.dispositionFile).
		Int("rules", len(rs.Rows)).
		Int("deletes", deletes).
		Int("relocates", relocates).
		Int("merges", merges).
		Str("variant", string(rs.Variant)).
		Msg("Loaded disposition ruleset")
	return rs, nil
}

func (e *engine) Audit(ctx context.Context) (*coverage.Report, error) {
	rs, err := e.Validate(ctx)
	if err != nil {
		return nil, err
	}
	return coverage.Audit(rs, e.config.requiredVisits)
}

func (e *engine) Run(ctx context.Context) (*RunSummary, error) {
	ctx, summary := e.start(ctx)
	logger := logging.FromContext(ctx)

	rs, err := e.Validate(ctx)
	if err != nil {
		return nil, err
	}

	set, err := e.load(ctx, summary)
	if err != nil {
		return nil, err
	}

	if e.config.annotate {
		if err := e.annotate(ctx, set, summary); err != nil {
			return nil, err
		}
	}

	rec, err := reconciler.New(e.config.reconcilerOptions()...)
	if err != nil {
		return nil, err
	}
	result, err := rec.Run(ctx, rs, set)
	if err != nil {
		logger.Error().Err(err).Msg("Reconciliation aborted, nothing written")
		return nil, err
	}
	summary.addResult(result)
	e.triggerConflicts(result.Log.Conflicts())

	var report *coverage.Report
	if len(e.config.requiredVisits) > 0 {
		report, err = coverage.Audit(rs, e.config.requiredVisits)
		if err != nil {
			return nil, err
		}
		summary.addCoverage(report)
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.WrapCanceled("run", err)
	}

	if !e.config.dryRun {
		// Once writing starts it runs to the end so the output is never partial.
		if err := e.persist(context.WithoutCancel(ctx), result, report, summary); err != nil {
			return nil, err
		}
	}
	summary.finish()

	logger.Info().
		Int("conflicts", summary.Conflicts).
		Int("errors", len(summary.Errors)).
		Str("duration", summary.Duration).
		Msg(summary.String())
	return summary, nil
}

func (e *engine) Annotate(ctx context.Context) (*RunSummary, error) {
	ctx, summary := e.start(ctx)
	summary.Strategy = "annotate"

	set, err := e.load(ctx, summary)
	if err != nil {
		return nil, err
	}
	if err := e.annotate(ctx, set, summary); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.WrapCanceled("annotate", err)
	}
	if !e.config.dryRun {
		if err := e.writeTables(context.WithoutCancel(ctx), set, summary); err != nil {
			return nil, err
		}
		if err := tableio.WriteYAML(filepath.Join(e.config.outputDir, constants.RunSummaryFile), summary); err != nil {
			summary.addError(err)
		}
	}
	summary.finish()
	return summary, nil
}

func (e *engine) start(ctx context.Context) (context.Context, *RunSummary) {
	runID := uuid.NewString()
	summary := newSummary(runID, time.Now())
	summary.DryRun = e.config.dryRun
	summary.OutputDir = e.config.outputDir
	return logging.WithRun(ctx, runID), summary
}

func (e *engine) tableOptions() []tableio.Option {
	return []tableio.Option{
		tableio.WithDelimiter(e.config.delimiter),
		tableio.WithExcluded(e.config.excludedFiles...),
	}
}

// load reads the input tables. Unreadable tables are reported and left
// out; only an unreadable directory is fatal.
func (e *engine) load(ctx context.Context, summary *RunSummary) (*tables.Set, error) {
	if e.config.inputDir == "" {
		return nil, &errors.ConfigError{Component: "engine", Field: "input_dir", Message: "no input directory configured"}
	}
	if !e.config.dryRun && e.config.outputDir == "" {
		return nil, &errors.ConfigError{Component: "engine", Field: "output_dir", Message: "no output directory configured"}
	}

	set, report, err := tableio.ReadDir(ctx, e.config.inputDir, e.tableOptions()...)
	if err != nil {
		return nil, err
	}
	summary.TablesLoaded = set.Len()
	summary.TablesSkipped = len(report.Errors)
	for name, n := range report.BadLines {
		summary.BadLines[name] = n
	}
	for _, err := range report.Errors {
		summary.addError(err)
		e.triggerTableSkipped(failedTable(err), err)
	}
	return set, nil
}

// failedTable returns the file name an I/O error refers to.
func failedTable(err error) string {
	var ioErr *errors.IOError
	if errors.As(err, &ioErr) {
		return filepath.Base(ioErr.Path)
	}
	return ""
}

func (e *engine) annotate(ctx context.Context, set *tables.Set, summary *RunSummary) error {
	codes := annotate.DefaultVisitCodes()
	if e.config.visitCodesFile != "" {
		loaded, err := annotate.LoadVisitCodes(e.config.visitCodesFile)
		if err != nil {
			return err
		}
		codes = loaded
	}

	refPath := e.config.siteReference
	if refPath == "" {
		refPath = filepath.Join(e.config.inputDir, constants.SiteReferenceFile)
	}
	refTable, _, err := tableio.ReadFile(refPath, e.tableOptions()...)
	switch {
	case err == nil:
		ref, err := annotate.NewSiteReference(refTable)
		if err != nil {
			return err
		}
		summary.Annotations = append(summary.Annotations, annotate.AddSiteCode(ctx, set, ref))
	case errors.Is(err, os.ErrNotExist):
		msg := fmt.Sprintf("site reference %s not found, SiteCode not added", refPath)
		summary.Warnings = append(summary.Warnings, msg)
		logging.FromContext(ctx).Warn().Str("path", refPath).Msg("Site reference not found")
	default:
		return err
	}

	summary.Annotations = append(summary.Annotations, annotate.AddVisitCode(ctx, set, codes))
	return nil
}

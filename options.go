package idmend

import (
	"github.com/agentstation/idmend/internal/matcher"
	"github.com/agentstation/idmend/pkg/constants"
	"github.com/agentstation/idmend/pkg/errors"
	"github.com/agentstation/idmend/pkg/reconciler"
)

// config holds the settings of one Engine.
type config struct {
	inputDir        string
	dispositionFile string
	outputDir       string

	strategy        reconciler.RelocationStrategy
	policy          reconciler.InconsistencyPolicy
	workers         int
	compareAnchor   string
	derivedColumns  int
	timestampColumn string

	delimiter     rune
	excludedFiles []string

	requiredVisits []string

	annotate       bool
	siteReference  string
	visitCodesFile string

	sqlitePath string
	dryRun     bool
}

func defaultConfig() *config {
	return &config{
		strategy:        reconciler.StrategyAuto,
		policy:          reconciler.PolicyAbort,
		workers:         constants.DefaultWorkers,
		compareAnchor:   constants.ColumnDiaryDate,
		derivedColumns:  constants.DefaultDerivedColumns,
		timestampColumn: constants.ColumnCreatedAt,
		delimiter:       constants.DefaultDelimiter,
		excludedFiles:   append([]string{}, constants.ExcludedTables...),
	}
}

// Option is a function that configures an Engine.
type Option func(*config) error

// WithInputDir sets the directory of study tables to reconcile.
func WithInputDir(dir string) Option {
	return func(c *config) error {
		c.inputDir = dir
		return nil
	}
}

// WithDispositionFile sets the ruleset sheet (.xlsx, .csv or .yaml).
func WithDispositionFile(path string) Option {
	return func(c *config) error {
		c.dispositionFile = path
		return nil
	}
}

// WithOutputDir sets where reconciled tables and logs are written.
func WithOutputDir(dir string) Option {
	return func(c *config) error {
		c.outputDir = dir
		return nil
	}
}

// WithStrategy selects move or exchange relocation. Auto follows the
// ruleset's headers.
func WithStrategy(s reconciler.RelocationStrategy) Option {
	return func(c *config) error {
		parsed, err := reconciler.ParseStrategy(string(s))
		if err != nil {
			return err
		}
		c.strategy = parsed
		return nil
	}
}

// WithInconsistencyPolicy sets what an exchange row-count mismatch does.
func WithInconsistencyPolicy(p reconciler.InconsistencyPolicy) Option {
	return func(c *config) error {
		parsed, err := reconciler.ParsePolicy(string(p))
		if err != nil {
			return err
		}
		c.policy = parsed
		return nil
	}
}

// WithWorkers sets how many tables are processed in parallel.
func WithWorkers(n int) Option {
	return func(c *config) error {
		if n < 1 || n > constants.MaxWorkers {
			return &errors.ValidationError{Field: "workers", Value: n, Message: "must be between 1 and 64"}
		}
		c.workers = n
		return nil
	}
}

// WithCompareAnchor sets the column after which merge comparison starts.
func WithCompareAnchor(column string) Option {
	return func(c *config) error {
		c.compareAnchor = column
		return nil
	}
}

// WithDerivedColumns sets how many trailing columns merges ignore.
func WithDerivedColumns(n int) Option {
	return func(c *config) error {
		if n < 0 {
			return &errors.ValidationError{Field: "derived_columns", Value: n, Message: "cannot be negative"}
		}
		c.derivedColumns = n
		return nil
	}
}

// WithTimestampColumn sets the creation timestamp column.
func WithTimestampColumn(column string) Option {
	return func(c *config) error {
		c.timestampColumn = column
		return nil
	}
}

// WithDelimiter sets the study table field delimiter.
func WithDelimiter(d rune) Option {
	return func(c *config) error {
		if d == 0 || d == '"' || d == '\n' || d == '\r' {
			return &errors.ValidationError{Field: "delimiter", Value: string(d), Message: "invalid delimiter"}
		}
		c.delimiter = d
		return nil
	}
}

// WithExcludedFiles replaces the table files skipped on load. Entries
// may be file names, globs ("study-*.csv") or regular expressions.
func WithExcludedFiles(patterns ...string) Option {
	return func(c *config) error {
		if _, err := matcher.NewSet(patterns...); err != nil {
			return errors.NewValidationError("excluded_files", patterns, err.Error())
		}
		c.excludedFiles = patterns
		return nil
	}
}

// WithRequiredVisits enables the coverage audit against these visits.
func WithRequiredVisits(visits ...string) Option {
	return func(c *config) error {
		c.requiredVisits = visits
		return nil
	}
}

// WithAnnotate adds SiteCode and VisitCode columns before reconciling.
func WithAnnotate(enabled bool) Option {
	return func(c *config) error {
		c.annotate = enabled
		return nil
	}
}

// WithSiteReference sets the participant-to-site reference table. It
// defaults to Kind-of-participant.csv in the input directory.
func WithSiteReference(path string) Option {
	return func(c *config) error {
		c.siteReference = path
		return nil
	}
}

// WithVisitCodesFile loads visit codes from YAML instead of the defaults.
func WithVisitCodesFile(path string) Option {
	return func(c *config) error {
		c.visitCodesFile = path
		return nil
	}
}

// WithSQLite also exports the results to a SQLite database.
func WithSQLite(path string) Option {
	return func(c *config) error {
		c.sqlitePath = path
		return nil
	}
}

// WithDryRun reconciles without writing anything.
func WithDryRun(enabled bool) Option {
	return func(c *config) error {
		c.dryRun = enabled
		return nil
	}
}

func (c *config) reconcilerOptions() []reconciler.Option {
	return []reconciler.Option{
		reconciler.WithStrategy(c.strategy),
		reconciler.WithInconsistencyPolicy(c.policy),
		reconciler.WithWorkers(c.workers),
		reconciler.WithCompareAnchor(c.compareAnchor),
		reconciler.WithDerivedColumns(c.derivedColumns),
		reconciler.WithTimestampColumn(c.timestampColumn),
	}
}

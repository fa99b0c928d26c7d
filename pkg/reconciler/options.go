package reconciler

import (
	"github.com/agentstation/idmend/pkg/constants"
	"github.com/agentstation/idmend/pkg/errors"
)

type options struct {
	strategy        RelocationStrategy
	policy          InconsistencyPolicy
	workers         int
	anchor          string
	derivedColumns  int
	timestampColumn string
}

func defaultOptions() *options {
	return &options{
		strategy:        StrategyAuto,
		policy:          PolicyAbort,
		workers:         constants.DefaultWorkers,
		anchor:          constants.ColumnDiaryDate,
		derivedColumns:  constants.DefaultDerivedColumns,
		timestampColumn: constants.ColumnCreatedAt,
	}
}

// Option is a function that configures a Reconciler.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func newOptions(opts ...Option) (*options, error) {
	return defaultOptions().apply(opts...)
}

// WithStrategy sets the relocation strategy.
func WithStrategy(strategy RelocationStrategy) Option {
	return func(o *options) error {
		s, err := ParseStrategy(string(strategy))
		if err != nil {
			return err
		}
		o.strategy = s
		return nil
	}
}

// WithInconsistencyPolicy sets how exchange count mismatches are handled.
func WithInconsistencyPolicy(policy InconsistencyPolicy) Option {
	return func(o *options) error {
		p, err := ParsePolicy(string(policy))
		if err != nil {
			return err
		}
		o.policy = p
		return nil
	}
}

// WithWorkers processes up to n tables of one disposition row in parallel.
func WithWorkers(n int) Option {
	return func(o *options) error {
		if n < 1 || n > constants.MaxWorkers {
			return &errors.ValidationError{Field: "workers", Value: n, Message: "must be between 1 and 64"}
		}
		o.workers = n
		return nil
	}
}

// WithCompareAnchor sets the column after which merge comparison starts.
func WithCompareAnchor(column string) Option {
	return func(o *options) error {
		o.anchor = column
		return nil
	}
}

// WithDerivedColumns sets how many trailing columns merge comparison ignores.
func WithDerivedColumns(n int) Option {
	return func(o *options) error {
		if n < 0 {
			return &errors.ValidationError{Field: "derived_columns", Value: n, Message: "cannot be negative"}
		}
		o.derivedColumns = n
		return nil
	}
}

// WithTimestampColumn sets the creation timestamp column that exchange
// leaves in place.
func WithTimestampColumn(column string) Option {
	return func(o *options) error {
		o.timestampColumn = column
		return nil
	}
}

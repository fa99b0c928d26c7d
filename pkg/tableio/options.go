package tableio

import (
	"github.com/agentstation/idmend/internal/matcher"
	"github.com/agentstation/idmend/pkg/constants"
	"github.com/agentstation/idmend/pkg/errors"
)

// Options configures table reading and writing.
type Options struct {
	delimiter rune
	excluded  *matcher.Set
	extension string
	err       error
}

// Delimiter returns the field delimiter.
func (o *Options) Delimiter() rune {
	return o.delimiter
}

// Excluded reports whether a file name is skipped by ReadDir.
func (o *Options) Excluded(name string) bool {
	return o.excluded.Match(name)
}

// Err returns the first error met while applying options.
func (o *Options) Err() error {
	return o.err
}

// Defaults returns the default options: semicolon-delimited .csv files
// with the study export bookkeeping files excluded.
func Defaults() *Options {
	excluded, _ := matcher.NewSet(constants.ExcludedTables...)
	return &Options{
		delimiter: constants.DefaultDelimiter,
		excluded:  excluded,
		extension: constants.TableExtension,
	}
}

// Apply applies the given options.
func (o *Options) Apply(opts ...Option) *Options {
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Option is a function that configures table I/O.
type Option func(*Options)

// WithDelimiter sets the field delimiter.
func WithDelimiter(d rune) Option {
	return func(o *Options) {
		if d != 0 {
			o.delimiter = d
		}
	}
}

// WithExcluded replaces the file names ReadDir skips. Names may be glob
// or regex patterns.
func WithExcluded(patterns ...string) Option {
	return func(o *Options) {
		set, err := matcher.NewSet(patterns...)
		if err != nil {
			o.err = errors.NewValidationError("excluded_files", patterns, err.Error())
			return
		}
		o.excluded = set
	}
}

// WithExtension sets the table file extension.
func WithExtension(ext string) Option {
	return func(o *Options) {
		if ext != "" {
			o.extension = ext
		}
	}
}

package tableio

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/idmend/pkg/constants"
	"github.com/agentstation/idmend/pkg/errors"
	"github.com/agentstation/idmend/pkg/logging"
	"github.com/agentstation/idmend/pkg/tables"
)

// Write writes t as delimited text with a header line. Missing cells are
// written empty.
func Write(w io.Writer, t *tables.Table, opts ...Option) error {
	o := Defaults().Apply(opts...)
	cw := csv.NewWriter(w)
	cw.Comma = o.delimiter
	if err := cw.WriteAll(t.Records()); err != nil {
		return errors.WrapIO("write", t.Name, err)
	}
	return nil
}

// WriteFile writes t to path, creating parent directories.
func WriteFile(path string, t *tables.Table, opts ...Option) error {
	if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
		return errors.WrapIO("create", filepath.Dir(path), err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, constants.FilePermissions)
	if err != nil {
		return errors.WrapIO("create", path, err)
	}
	if err := Write(f, t, opts...); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.WrapIO("close", path, err)
	}
	return nil
}

// WriteReport describes a directory write.
type WriteReport struct {
	Written []string `json:"written" yaml:"written"`
	Errors  []error  `json:"-" yaml:"-"`
}

// WriteDir writes every table of set into dir as <name><ext>. A table
// that fails to write is reported and the rest are still written.
func WriteDir(ctx context.Context, dir string, set *tables.Set, opts ...Option) (*WriteReport, error) {
	o := Defaults().Apply(opts...)
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return nil, errors.WrapIO("create", dir, err)
	}

	logger := logging.FromContext(ctx)
	report := &WriteReport{Written: []string{}}
	for _, t := range set.Tables() {
		if err := ctx.Err(); err != nil {
			return report, errors.WrapCanceled("write tables", err)
		}
		name := FileName(t.Name, o.extension)
		if err := WriteFile(filepath.Join(dir, name), t, opts...); err != nil {
			report.Errors = append(report.Errors, err)
			logger.Warn().Err(err).Str("table", t.Name).Msg("Failed to write table")
			continue
		}
		report.Written = append(report.Written, name)
	}
	return report, nil
}

// FileName turns a table name into a file name with ext, replacing path
// separators.
func FileName(name, ext string) string {
	name = strings.NewReplacer("/", "_", "\\", "_").Replace(name)
	if !strings.HasSuffix(strings.ToLower(name), strings.ToLower(ext)) {
		name += ext
	}
	return name
}

// WriteYAML marshals v to path.
func WriteYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return errors.WrapParse("yaml", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
		return errors.WrapIO("create", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, constants.FilePermissions); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}

// Package tableio reads and writes study tables as delimited text.
package tableio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/agentstation/idmend/pkg/errors"
	"github.com/agentstation/idmend/pkg/logging"
	"github.com/agentstation/idmend/pkg/tables"
)

var bom = []byte("\ufeff")

// ReadReport describes a directory load.
type ReadReport struct {
	Loaded   []string       `json:"loaded" yaml:"loaded"`
	BadLines map[string]int `json:"bad_lines,omitempty" yaml:"bad_lines,omitempty"`
	Errors   []error        `json:"-" yaml:"-"`
}

// ReadDir loads every table file of dir in name order. A file that
// cannot be read is left out of the set and its IOError is collected in
// the report; only an unreadable directory or cancellation is fatal.
func ReadDir(ctx context.Context, dir string, opts ...Option) (*tables.Set, *ReadReport, error) {
	o := Defaults().Apply(opts...)
	if err := o.Err(); err != nil {
		return nil, nil, err
	}
	logger := logging.FromContext(ctx)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, errors.WrapIO("read", dir, err)
	}

	set := tables.NewSet()
	report := &ReadReport{Loaded: []string{}, BadLines: map[string]int{}}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.EqualFold(filepath.Ext(name), o.extension) || o.Excluded(name) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, nil, errors.WrapCanceled("read tables", err)
		}

		t, bad, err := ReadFile(filepath.Join(dir, name), opts...)
		if err != nil {
			report.Errors = append(report.Errors, err)
			logger.Warn().Err(err).Str("table", name).Msg("Skipping unreadable table")
			continue
		}
		if bad > 0 {
			report.BadLines[name] = bad
			logger.Warn().Str("table", name).Int("bad_lines", bad).Msg("Skipped malformed lines")
		}
		set.Put(t)
		report.Loaded = append(report.Loaded, name)
	}

	logger.Info().
		Str("dir", dir).
		Int("tables", set.Len()).
		Int("errors", len(report.Errors)).
		Msg("Loaded tables")
	return set, report, nil
}

// ReadFile loads one table named after the file's base name. It returns
// the number of malformed lines skipped.
func ReadFile(path string, opts ...Option) (*tables.Table, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, errors.WrapIO("open", path, err)
	}
	defer func() { _ = f.Close() }()

	t, bad, err := Read(f, filepath.Base(path), opts...)
	if err != nil {
		return nil, 0, errors.WrapIO("read", path, err)
	}
	return t, bad, nil
}

// Read parses delimited text with a header line. Lines with more fields
// than the header are skipped and counted; shorter lines are padded with
// missing cells.
func Read(r io.Reader, name string, opts ...Option) (*tables.Table, int, error) {
	o := Defaults().Apply(opts...)

	br := bufio.NewReader(r)
	if head, err := br.Peek(len(bom)); err == nil && bytes.Equal(head, bom) {
		_, _ = br.Discard(len(bom))
	}

	cr := csv.NewReader(br)
	cr.Comma = o.delimiter
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = false

	header, err := cr.Read()
	if err == io.EOF {
		return nil, 0, errors.NewParseError("csv", name, "empty file", nil)
	}
	if err != nil {
		return nil, 0, errors.WrapParse("csv", name, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var records [][]string
	bad := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				bad++
				continue
			}
			return nil, 0, errors.WrapParse("csv", name, err)
		}
		if len(rec) > len(header) {
			bad++
			continue
		}
		records = append(records, rec)
	}

	t, err := tables.FromRecords(name, header, records)
	if err != nil {
		return nil, 0, err
	}
	return t, bad, nil
}

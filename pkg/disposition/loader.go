package disposition

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/tealeg/xlsx"

	"github.com/agentstation/idmend/pkg/errors"
)

const component = "disposition"

// LoadFile reads a disposition sheet. The format follows the file
// extension: .xlsx (first worksheet), .csv or .txt (semicolon or comma
// delimited) and .yaml or .yml (a list of mappings keyed by header).
func LoadFile(path string) (*Ruleset, error) {
	var (
		header  []string
		records [][]string
		err     error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx":
		header, records, err = readXLSX(path)
	case ".csv", ".txt":
		header, records, err = readDelimited(path)
	case ".yaml", ".yml":
		header, records, err = readYAML(path)
	default:
		return nil, errors.NewConfigError(component, fmt.Sprintf("unsupported sheet format %q", ext), nil)
	}
	if err != nil {
		return nil, err
	}
	return Parse(filepath.Base(path), header, records)
}

func readXLSX(path string) ([]string, [][]string, error) {
	sheets, err := xlsx.FileToSlice(path)
	if err != nil {
		return nil, nil, errors.NewParseError("xlsx", path, "cannot open workbook", err)
	}
	if len(sheets) == 0 || len(sheets[0]) == 0 {
		return nil, nil, errors.NewConfigError(component, path+" has no rows", nil)
	}
	rows := sheets[0]
	return rows[0], rows[1:], nil
}

func readDelimited(path string) ([]string, [][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, errors.WrapIO("read", path, err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = sniffDelimiter(data)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	all, err := r.ReadAll()
	if err != nil {
		return nil, nil, errors.WrapParse("csv", path, err)
	}
	if len(all) == 0 {
		return nil, nil, errors.NewConfigError(component, path+" has no rows", nil)
	}
	return all[0], all[1:], nil
}

// sniffDelimiter picks ';' when the first line has more semicolons than commas.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if bytes.Count(line, []byte(";")) > bytes.Count(line, []byte(",")) {
		return ';'
	}
	return ','
}

func readYAML(path string) ([]string, [][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, errors.WrapIO("read", path, err)
	}
	var docs []yaml.MapSlice
	if err := yaml.Unmarshal(data, &docs); err != nil {
		return nil, nil, errors.WrapParse("yaml", path, err)
	}

	var header []string
	pos := make(map[string]int)
	for _, doc := range docs {
		for _, item := range doc {
			key := fmt.Sprint(item.Key)
			if _, ok := pos[key]; !ok {
				pos[key] = len(header)
				header = append(header, key)
			}
		}
	}
	records := make([][]string, 0, len(docs))
	for _, doc := range docs {
		rec := make([]string, len(header))
		for _, item := range doc {
			rec[pos[fmt.Sprint(item.Key)]] = yamlCell(item.Value)
		}
		records = append(records, rec)
	}
	return header, records, nil
}

func yamlCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case bool:
		if t {
			return "1"
		}
		return "0"
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = fmt.Sprint(e)
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(t)
	}
}

// Parse builds a ruleset from a header row and data records. Columns the
// loader does not know are ignored. source names the sheet in errors.
func Parse(source string, header []string, records [][]string) (*Ruleset, error) {
	cols, variant, err := mapHeader(header)
	if err != nil {
		return nil, err
	}

	rs := &Ruleset{Source: source, Variant: variant}
	seen := make(map[string]int)
	for i, rec := range records {
		line := i + 2
		cell := func(field string) string {
			j, ok := cols[field]
			if !ok || j >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[j])
		}
		if blank(rec) {
			continue
		}

		row, err := parseRow(line, cell)
		if err != nil {
			return nil, err
		}
		if first, dup := seen[row.CurrentID]; dup {
			return nil, errors.NewRowError(component, line, FieldCurrentID,
				fmt.Sprintf("identifier %s already listed at row %d", row.CurrentID, first))
		}
		seen[row.CurrentID] = line
		rs.Rows = append(rs.Rows, row)
	}
	return rs, nil
}

func mapHeader(header []string) (map[string]int, Variant, error) {
	cols := make(map[string]int)
	variant := VariantUnknown
	for i, h := range header {
		field, v, ok := FieldFor(h)
		if !ok {
			continue
		}
		if prev, dup := cols[field]; dup {
			return nil, variant, errors.NewConfigError(component,
				fmt.Sprintf("columns %q and %q both map to %s", header[prev], h, field), nil)
		}
		if v != VariantUnknown {
			if variant != VariantUnknown && variant != v {
				return nil, variant, errors.NewConfigError(component,
					fmt.Sprintf("sheet mixes %s and %s columns", variant, v), nil)
			}
			variant = v
		}
		cols[field] = i
	}

	if _, ok := cols[FieldCurrentID]; !ok {
		return nil, variant, missingColumn(FieldCurrentID)
	}
	_, hasDelete := cols[FieldDelete]
	_, hasRelocate := cols[FieldRelocate]
	_, hasMerge := cols[FieldMerge]
	if !hasDelete && !hasRelocate && !hasMerge {
		return nil, variant, errors.NewConfigError(component, "sheet has no action columns", nil)
	}
	if hasRelocate {
		for _, f := range []string{FieldRelocateTargetID, FieldRelocateVisits} {
			if _, ok := cols[f]; !ok {
				return nil, variant, missingColumn(f)
			}
		}
	}
	if hasMerge {
		if _, ok := cols[FieldMergeTargetID]; !ok {
			return nil, variant, missingColumn(FieldMergeTargetID)
		}
		_, mv := cols[FieldMergeVisits]
		_, cv := cols[FieldCutoverVisits]
		if !mv && !cv {
			return nil, variant, missingColumn(FieldMergeVisits)
		}
	}
	return cols, variant, nil
}

func missingColumn(field string) error {
	return &errors.ConfigError{Component: component, Field: field, Message: "required column is missing"}
}

func parseRow(line int, cell func(string) string) (Row, error) {
	row := Row{
		Line:             line,
		CurrentID:        cell(FieldCurrentID),
		Delete:           ParseFlag(cell(FieldDelete)),
		Keep:             ParseFlag(cell(FieldKeep)),
		Relocate:         ParseFlag(cell(FieldRelocate)),
		RelocateTargetID: cell(FieldRelocateTargetID),
		RelocateVisits:   SplitVisits(cell(FieldRelocateVisits)),
		MergeTargetID:    cell(FieldMergeTargetID),
		MergeVisits:      SplitVisits(cell(FieldMergeVisits)),
		CutoverVisits:    SplitVisits(cell(FieldCutoverVisits)),
		AlsoVisits:       SplitVisits(cell(FieldAlsoVisits)),
		FinalID:          cell(FieldFinalID),
		Check:            cell(FieldCheck),
	}
	if row.CurrentID == "" {
		return row, errors.NewRowError(component, line, FieldCurrentID, "identifier is required")
	}

	mode, ok := ParseMergeMode(cell(FieldMerge))
	if !ok {
		return row, errors.NewRowError(component, line, FieldMerge,
			fmt.Sprintf("unrecognized merge marker %q", cell(FieldMerge)))
	}
	row.Merge = mode

	if row.Relocate && row.RelocateTargetID == "" {
		return row, errors.NewRowError(component, line, FieldRelocateTargetID, "relocation requested without a target identifier")
	}
	if row.Merging() && row.MergeTargetID == "" {
		return row, errors.NewRowError(component, line, FieldMergeTargetID, "merge requested without a target identifier")
	}
	if row.FinalID == "" {
		row.FinalID = row.CurrentID
	}
	return row, nil
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Package disposition loads the externally authored rule sheet that says,
// per participant identifier, which corrective actions reconciliation applies.
package disposition

import (
	"strconv"
	"strings"
)

// MergeMode is the tri-state merge marker of a disposition row.
//
// The sheet distinguishes "1: merge v" and "2: merge c" but both values
// run the same merge path; the distinction is kept for reporting only.
type MergeMode int

// Merge modes.
const (
	MergeNone MergeMode = iota
	MergeByVisit
	MergeByCutover
)

// String returns the sheet marker for the mode.
func (m MergeMode) String() string {
	switch m {
	case MergeByVisit:
		return "1"
	case MergeByCutover:
		return "2"
	default:
		return ""
	}
}

// Variant is the relocation semantics a sheet was authored for.
type Variant string

// Variants detected from sheet headers.
const (
	VariantUnknown  Variant = ""
	VariantMove     Variant = "move"
	VariantExchange Variant = "exchange"
)

// Row is one normalized disposition row.
type Row struct {
	// Line is the sheet line the row came from, the header being line 1.
	Line int `json:"line" yaml:"line"`

	CurrentID string `json:"current_id" yaml:"current_id"`
	Delete    bool   `json:"delete" yaml:"delete"`
	Keep      bool   `json:"keep" yaml:"keep"`

	Relocate         bool     `json:"relocate" yaml:"relocate"`
	RelocateTargetID string   `json:"relocate_target_id,omitempty" yaml:"relocate_target_id,omitempty"`
	RelocateVisits   []string `json:"relocate_visits,omitempty" yaml:"relocate_visits,omitempty"`

	Merge         MergeMode `json:"merge" yaml:"merge"`
	MergeTargetID string    `json:"merge_target_id,omitempty" yaml:"merge_target_id,omitempty"`
	MergeVisits   []string  `json:"merge_visits,omitempty" yaml:"merge_visits,omitempty"`
	CutoverVisits []string  `json:"cutover_visits,omitempty" yaml:"cutover_visits,omitempty"`
	AlsoVisits    []string  `json:"also_visits,omitempty" yaml:"also_visits,omitempty"`

	FinalID string `json:"final_id" yaml:"final_id"`
	Check   string `json:"check,omitempty" yaml:"check,omitempty"`
}

// Merging reports whether a merge was requested.
func (r Row) Merging() bool { return r.Merge != MergeNone }

// FallbackVisits returns cutover and also visits, trimmed and
// deduplicated in order, with empty names dropped.
func (r Row) FallbackVisits() []string {
	var all []string
	for _, v := range append(append([]string{}, r.CutoverVisits...), r.AlsoVisits...) {
		if v = strings.TrimSpace(v); v != "" {
			all = append(all, v)
		}
	}
	return unique(all)
}

// Ruleset is the ordered list of disposition rows of one sheet.
type Ruleset struct {
	Source  string  `json:"source" yaml:"source"`
	Variant Variant `json:"variant" yaml:"variant"`
	Rows    []Row   `json:"rows" yaml:"rows"`
}

// Counts returns how many rows request each action.
func (rs *Ruleset) Counts() (deletes, relocates, merges int) {
	for _, r := range rs.Rows {
		if r.Delete {
			deletes++
		}
		if r.Relocate {
			relocates++
		}
		if r.Merging() {
			merges++
		}
	}
	return
}

// Lookup returns the row for a current identifier.
func (rs *Ruleset) Lookup(id string) (Row, bool) {
	for _, r := range rs.Rows {
		if r.CurrentID == id {
			return r, true
		}
	}
	return Row{}, false
}

// SplitVisits splits a comma-separated visit cell, trimming whitespace
// and dropping empty tokens.
func SplitVisits(cell string) []string {
	var out []string
	for _, tok := range strings.Split(cell, ",") {
		if tok = strings.TrimSpace(tok); tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

// ParseFlag reads a boolean-like marker. Besides the usual truthy words,
// any cell containing the digit 1 counts as set, which is how the sheets
// have always been read.
func ParseFlag(cell string) bool {
	s := strings.ToLower(strings.TrimSpace(cell))
	switch s {
	case "", "0", "0.0", "nan", "false", "no", "n":
		return false
	case "true", "yes", "y", "x":
		return true
	}
	return strings.Contains(s, "1")
}

// ParseMergeMode reads the merge marker. ok is false for values that are
// neither blank nor one of the two merge markers.
func ParseMergeMode(cell string) (mode MergeMode, ok bool) {
	s := strings.ToLower(strings.TrimSpace(cell))
	switch s {
	case "", "0", "nan", "false", "no":
		return MergeNone, true
	case "true", "yes", "x":
		return MergeByVisit, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return MergeNone, false
	}
	switch f {
	case 0:
		return MergeNone, true
	case 1:
		return MergeByVisit, true
	case 2:
		return MergeByCutover, true
	}
	return MergeNone, false
}

func unique(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

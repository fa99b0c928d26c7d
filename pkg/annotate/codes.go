package annotate

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/idmend/pkg/constants"
	"github.com/agentstation/idmend/pkg/errors"
	"github.com/agentstation/idmend/pkg/tables"
)

// VisitCodes maps a visit name to its numeric study timepoint.
type VisitCodes map[string]int

var defaultVisits = map[int][]string{
	0: {
		"Screening", "Enrolment (patient)", "Enrolment (patient) CSRI", "Enrolment (Clinician)",
		"Baseline", "Baseline (patient)", "ESM Baseline",
		"Baseline (team lead)", "Baseline (finance staff)", "Baseline (clinician)",
	},
	1: {
		"T1 (2 months)", "T1 (patient) CSRI", "T1 (2 months) (patient)",
		"ESM T1", "T1 (2 months) (clinician)", "T1 (2month) (2nd clinician)",
	},
	2: {
		"T2 (6 months)", "T2 (patient) CSRI", "T2 (6 months) (patient)",
		"ESM T2", "T2 (6 months) (clinician)", "T2 (6month) (2nd clinician)",
	},
	3: {
		"T3 (12 months)", "T3 (patient) CSRI", "T3 (12 months) (patient)",
		"ESM T3", "T3 (12 months) (clinician)", "T3 (12month) (2nd clinician)",
	},
}

// DefaultVisitCodes returns the built-in visit code map.
func DefaultVisitCodes() VisitCodes {
	codes, _ := newVisitCodes(defaultVisits)
	return codes
}

// LoadVisitCodes reads a YAML file mapping each code to its visit names:
//
//	0: [Screening, Baseline]
//	1: [T1 (2 months)]
func LoadVisitCodes(path string) (VisitCodes, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	var raw map[int][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}
	return newVisitCodes(raw)
}

func newVisitCodes(raw map[int][]string) (VisitCodes, error) {
	codes := make(VisitCodes)
	for code, names := range raw {
		for _, name := range names {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if prev, dup := codes[name]; dup && prev != code {
				return nil, errors.NewConfigError("visit codes",
					fmt.Sprintf("visit %q maps to both %d and %d", name, prev, code), nil)
			}
			codes[name] = code
		}
	}
	if len(codes) == 0 {
		return nil, errors.NewConfigError("visit codes", "no visit names defined", nil)
	}
	return codes, nil
}

// Names returns the visit names of one code, sorted.
func (c VisitCodes) Names(code int) []string {
	var out []string
	for name, v := range c {
		if v == code {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// SiteReference maps a participant identifier to its site.
type SiteReference map[string]tables.Value

// NewSiteReference builds a reference from a table carrying
// participant_identifier and Site columns.
func NewSiteReference(t *tables.Table) (SiteReference, error) {
	site, ok := t.ColumnIndex(constants.ColumnSite)
	if !t.HasIdentity() || !ok {
		return nil, errors.NewConfigError("site reference",
			fmt.Sprintf("%s needs %s and %s columns, has %v",
				t.Name, constants.ColumnParticipantID, constants.ColumnSite, t.Columns()), nil)
	}
	ref := make(SiteReference, t.Len())
	for i := 0; i < t.Len(); i++ {
		id := t.ID(i)
		if id == "" {
			continue
		}
		if _, seen := ref[id]; !seen {
			ref[id] = t.Row(i)[site]
		}
	}
	return ref, nil
}

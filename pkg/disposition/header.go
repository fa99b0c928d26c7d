package disposition

import "strings"

// Normalized field names.
const (
	FieldCurrentID        = "current_id"
	FieldDelete           = "delete_flag"
	FieldKeep             = "keep_flag"
	FieldRelocate         = "relocate_flag"
	FieldRelocateTargetID = "relocate_target_id"
	FieldRelocateVisits   = "relocate_visits"
	FieldMerge            = "merge_flag"
	FieldMergeTargetID    = "merge_target_id"
	FieldMergeVisits      = "merge_visits"
	FieldCutoverVisits    = "cutover_visits"
	FieldAlsoVisits       = "also_visits"
	FieldFinalID          = "final_id"
	FieldCheck            = "check"
)

type alias struct {
	field   string
	variant Variant
}

// aliases maps normalized sheet headers to fields. Keys are compared
// after NormalizeHeader.
var aliases = map[string]alias{
	"current id": {FieldCurrentID, VariantUnknown},

	"act1: delete complete data?": {FieldDelete, VariantUnknown},
	"act1_delete":                 {FieldDelete, VariantUnknown},
	"act2: keep complete data?":   {FieldKeep, VariantUnknown},
	"act2_keep":                   {FieldKeep, VariantUnknown},

	"act3: move data?":              {FieldRelocate, VariantMove},
	"act3_move":                     {FieldRelocate, VariantMove},
	"act3: move into which id":      {FieldRelocateTargetID, VariantMove},
	"act3_move_id":                  {FieldRelocateTargetID, VariantMove},
	"act3: move into which visit":   {FieldRelocateVisits, VariantMove},
	"act3_move_visit":               {FieldRelocateVisits, VariantMove},
	"act3: exchange data?":          {FieldRelocate, VariantExchange},
	"act3_exchange":                 {FieldRelocate, VariantExchange},
	"act3: exchange with which id":  {FieldRelocateTargetID, VariantExchange},
	"act3_exchange_id":              {FieldRelocateTargetID, VariantExchange},
	"act3: exchange at which visit": {FieldRelocateVisits, VariantExchange},
	"act3_exchange_visit":           {FieldRelocateVisits, VariantExchange},

	"act4: merge data? (1: merge v, 2: merge c)": {FieldMerge, VariantUnknown},
	"act4: merge data?":                          {FieldMerge, VariantUnknown},
	"act4_merge":                                 {FieldMerge, VariantUnknown},
	"act4: merge 0 keep data of this id until..": {FieldCutoverVisits, VariantUnknown},
	"act4_until":                                 {FieldCutoverVisits, VariantUnknown},
	"act4: merge 0 also keep data at..":          {FieldAlsoVisits, VariantUnknown},
	"act4_also":                                  {FieldAlsoVisits, VariantUnknown},
	"act4: merge 1 with which id":                {FieldMergeTargetID, VariantUnknown},
	"act4_merge_id":                              {FieldMergeTargetID, VariantUnknown},
	"act4: merge 1 data of other id from..":      {FieldMergeVisits, VariantUnknown},
	"act4_merge_visit":                           {FieldMergeVisits, VariantUnknown},

	"ultimate id": {FieldFinalID, VariantUnknown},
}

func init() {
	for _, f := range []string{
		FieldCurrentID, FieldDelete, FieldKeep, FieldRelocate, FieldRelocateTargetID,
		FieldRelocateVisits, FieldMerge, FieldMergeTargetID, FieldMergeVisits,
		FieldCutoverVisits, FieldAlsoVisits, FieldFinalID, FieldCheck,
	} {
		aliases[f] = alias{f, VariantUnknown}
	}
}

// NormalizeHeader collapses whitespace (including the line breaks that
// spreadsheet headers carry) and lower-cases the header.
func NormalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.ToLower(strings.Join(strings.Fields(h), " "))
}

// FieldFor maps a sheet header to a field name and the variant the
// header implies. ok is false for headers the loader ignores.
func FieldFor(header string) (field string, variant Variant, ok bool) {
	a, ok := aliases[NormalizeHeader(header)]
	return a.field, a.variant, ok
}

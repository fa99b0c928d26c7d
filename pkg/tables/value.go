package tables

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Kind is the type of a cell value.
type Kind int

// Cell kinds.
const (
	Missing Kind = iota
	Text
	Integer
	Real
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Integer:
		return "integer"
	case Real:
		return "real"
	default:
		return "missing"
	}
}

// Value is a single table cell. The raw text read from input is kept so
// that tables round-trip without reformatting numbers.
type Value struct {
	kind Kind
	raw  string
	i    int64
	d    decimal.Decimal
}

// Parse types a raw cell. Blank cells are Missing, whole numbers are
// Integer, other decimal numbers are Real and everything else is Text.
func Parse(raw string) Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Value{}
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Value{kind: Integer, raw: raw, i: i}
	}
	if looksNumeric(s) {
		if d, err := decimal.NewFromString(s); err == nil {
			return Value{kind: Real, raw: raw, d: d}
		}
	}
	return Value{kind: Text, raw: raw}
}

// looksNumeric rejects strings decimal would accept but that are
// identifiers or codes in study exports.
func looksNumeric(s string) bool {
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.':
		case (r == '-' || r == '+') && i == 0:
		case r == 'e' || r == 'E':
		default:
			return false
		}
	}
	return true
}

// TextValue returns a Text value, or Missing for a blank string.
func TextValue(s string) Value {
	if strings.TrimSpace(s) == "" {
		return Value{}
	}
	return Value{kind: Text, raw: s}
}

// IntValue returns an Integer value.
func IntValue(i int64) Value {
	return Value{kind: Integer, raw: strconv.FormatInt(i, 10), i: i}
}

// RealValue returns a Real value.
func RealValue(d decimal.Decimal) Value {
	return Value{kind: Real, raw: d.String(), d: d}
}

// Kind returns the value kind.
func (v Value) Kind() Kind { return v.kind }

// IsMissing reports whether the cell is blank.
func (v Value) IsMissing() bool { return v.kind == Missing }

// String returns the cell text. Missing cells are the empty string.
func (v Value) String() string {
	if v.kind == Missing {
		return ""
	}
	return v.raw
}

// Int returns the integer value of an Integer cell.
func (v Value) Int() (int64, bool) {
	return v.i, v.kind == Integer
}

// Decimal returns the numeric value of an Integer or Real cell.
func (v Value) Decimal() (decimal.Decimal, bool) {
	switch v.kind {
	case Integer:
		return decimal.NewFromInt(v.i), true
	case Real:
		return v.d, true
	default:
		return decimal.Zero, false
	}
}

// Equal compares two cells by their text after trimming, with missing
// cells equal to the empty string.
func (v Value) Equal(o Value) bool {
	return strings.TrimSpace(v.String()) == strings.TrimSpace(o.String())
}

/*
Package generic provides the core calculation engine.

PURPOSE:
  This package contains the domain-agnostic types and algorithms behind
  every back-office calculator. Whether computing a contractor bill, an
  EMD refund or a delay penalty, the same engine applies rate schedules,
  analyzes delays, turns amounts into legal words and records an audit
  row for the result.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: decimal.Decimal values, never float64
  - Value: A typed input field (text, money, date, percent, integer)
  - Line: One labelled amount in a computed breakdown
  - CalculationRecord: The immutable, audit-worthy output of a calculation

DESIGN PRINCIPLES:
  1. Immutability: Records are built once and never modified
  2. Precision: Uses decimal.Decimal to avoid floating-point drift
  3. Determinism: Same inputs, same breakdown, same totals
  4. Late rounding: Round half away from zero to 2 places only when presenting

USAGE:
  base := generic.MustParseDecimal("100000")
  result, err := generic.ComputeDeductions(base, []generic.RateSpec{
      generic.PercentAddition("gst", "GST", generic.MustParseDecimal("18"), generic.BaseOriginal),
      generic.PercentDeduction("tds", "TDS", generic.MustParseDecimal("2"), generic.BaseRunningGross),
  })

SEE ALSO:
  - deduction.go: Rate schedule engine
  - delay.go: Delay analyzer
  - words.go: Indian legal-words formatter
  - ledger.go: Audit persistence through a RecordStore
*/
package generic

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - decimal helpers
// =============================================================================

// Hundred is the percentage divisor.
var Hundred = decimal.NewFromInt(100)

// MustParseDecimal parses s and panics if it is not a decimal. Intended for literals.
func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(fmt.Sprintf("generic: invalid decimal literal %q: %v", s, err))
	}
	return d
}

// ParseAmount parses a user-supplied monetary amount. It tolerates the
// rupee sign, "Rs." prefixes, Indian or international digit grouping and
// surrounding spaces. Empty input is a ValidationError, anything else that
// does not parse is a ParseError carrying the raw value.
func ParseAmount(field, raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, &ValidationError{Field: field, Message: "is required"}
	}
	s = strings.TrimPrefix(s, "₹")
	for _, prefix := range []string{"Rs.", "Rs", "INR", "rs.", "rs"} {
		if strings.HasPrefix(s, prefix) {
			s = strings.TrimPrefix(s, prefix)
			break
		}
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &ParseError{Field: field, Raw: raw, Err: err}
	}
	return d, nil
}

// Round2 applies the presentation rounding rule: half away from zero, 2 places.
func Round2(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

// AmountText is the storage form of a money amount: rounded, 2 places.
func AmountText(d decimal.Decimal) string { return Round2(d).StringFixed(2) }

// PercentOf returns base * rate / 100 at full precision.
func PercentOf(base, rate decimal.Decimal) decimal.Decimal {
	return base.Mul(rate).Div(Hundred)
}

// =============================================================================
// VALUE - typed input field
// =============================================================================

type FieldType string

const (
	FieldText    FieldType = "text"
	FieldMoney   FieldType = "money"
	FieldDate    FieldType = "date"
	FieldPercent FieldType = "percent"
	FieldInteger FieldType = "integer"
)

// Value is one typed input field of a calculation. The zero Value is
// "absent" and renders as an empty string.
type Value struct {
	Type FieldType
	text string
	num  decimal.Decimal
	date Date
	set  bool
}

func Text(s string) Value              { return Value{Type: FieldText, text: s, set: s != ""} }
func Money(d decimal.Decimal) Value    { return Value{Type: FieldMoney, num: d, set: true} }
func Percent(d decimal.Decimal) Value  { return Value{Type: FieldPercent, num: d, set: true} }
func Integer(n int64) Value            { return Value{Type: FieldInteger, num: decimal.NewFromInt(n), set: true} }
func DateValue(d Date) Value           { return Value{Type: FieldDate, date: d, set: !d.IsZero()} }

func (v Value) IsSet() bool               { return v.set }
func (v Value) Text() string              { return v.text }
func (v Value) Decimal() decimal.Decimal  { return v.num }
func (v Value) Date() Date                { return v.date }

// String renders the value for documents.
func (v Value) String() string {
	if !v.set {
		return ""
	}
	switch v.Type {
	case FieldMoney:
		return FormatINR(v.num)
	case FieldPercent:
		return v.num.String() + "%"
	case FieldInteger:
		return v.num.String()
	case FieldDate:
		return v.date.String()
	default:
		return v.text
	}
}

// Raw renders the value for storage: decimals unrounded, dates ISO.
func (v Value) Raw() any {
	if !v.set {
		return nil
	}
	switch v.Type {
	case FieldMoney, FieldPercent:
		return v.num.String()
	case FieldInteger:
		return v.num.IntPart()
	case FieldDate:
		return v.date.String()
	default:
		return v.text
	}
}

// Fields maps a schema key to its value.
type Fields map[string]Value

// =============================================================================
// BREAKDOWN LINE
// =============================================================================

// Effect says whether a line adds to the gross or is deducted from it.
type Effect string

const (
	EffectAddition  Effect = "addition"
	EffectDeduction Effect = "deduction"
	EffectInfo      Effect = "info" // shown in the breakdown, excluded from totals
)

// Line is one labelled amount in a computed breakdown.
type Line struct {
	Name   string
	Label  string
	Amount decimal.Decimal
	Effect Effect
}

// =============================================================================
// CALCULATION RECORD - immutable audit output
// =============================================================================

// CalculationRecord is the audit-worthy output of any engine run.
// Build it once (see document.NewRecord, which validates Inputs against
// the template schema) and never mutate it afterwards.
type CalculationRecord struct {
	Reference string
	Kind      string
	Inputs    Fields
	Breakdown []Line
	Net       decimal.Decimal

	// NetInWords is the legal-words form of Net. WordsFallback is true when
	// NetInWords is the numeric fallback rendering rather than words.
	NetInWords    string
	WordsFallback bool

	CreatedAt time.Time
}

// Input returns the named input, or the zero Value.
func (r CalculationRecord) Input(key string) Value { return r.Inputs[key] }

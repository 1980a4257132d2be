package document

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pwdtools/calc-engine/generic"
	"github.com/shopspring/decimal"
)

// Calculation is what a calculator hands to the builder.
type Calculation interface {
	Kind() Kind
	Inputs() generic.Fields
	Breakdown() []generic.Line
	Net() decimal.Decimal
}

// Builder turns calculations into immutable CalculationRecords.
type Builder struct {
	Words        generic.WordsPolicy
	Now          func() time.Time
	NewReference func() string
}

func NewBuilder(policy generic.WordsPolicy) *Builder {
	return &Builder{Words: policy, Now: time.Now, NewReference: uuid.NewString}
}

var defaultBuilder = NewBuilder(generic.WordsNumericFallback)

// NewRecord builds a record with the default builder (numeric words fallback).
func NewRecord(kind Kind, inputs generic.Fields, breakdown []generic.Line, net decimal.Decimal) (generic.CalculationRecord, error) {
	return defaultBuilder.NewRecord(kind, inputs, breakdown, net)
}

// Build builds the record for c.
func (b *Builder) Build(c Calculation) (generic.CalculationRecord, error) {
	return b.NewRecord(c.Kind(), c.Inputs(), c.Breakdown(), c.Net())
}

// NewRecord validates inputs against the template of kind and returns the
// record. Inputs and breakdown are copied so later caller edits do not
// reach the record.
func (b *Builder) NewRecord(kind Kind, inputs generic.Fields, breakdown []generic.Line, net decimal.Decimal) (generic.CalculationRecord, error) {
	tmpl, err := Lookup(kind)
	if err != nil {
		return generic.CalculationRecord{}, err
	}
	if err := CheckFields(tmpl, inputs); err != nil {
		return generic.CalculationRecord{}, err
	}

	words := generic.LegalWords(net, b.Words)
	if words.Err != nil && !words.Fallback {
		return generic.CalculationRecord{}, words.Err
	}

	fields := make(generic.Fields, len(inputs))
	for k, v := range inputs {
		fields[k] = v
	}
	lines := append([]generic.Line(nil), breakdown...)

	now := time.Now
	if b.Now != nil {
		now = b.Now
	}
	ref := uuid.NewString
	if b.NewReference != nil {
		ref = b.NewReference
	}

	return generic.CalculationRecord{
		Reference:     ref(),
		Kind:          string(kind),
		Inputs:        fields,
		Breakdown:     lines,
		Net:           net,
		NetInWords:    words.Text,
		WordsFallback: words.Fallback,
		CreatedAt:     now().UTC(),
	}, nil
}

// CheckFields rejects undeclared keys, mistyped values and missing
// required fields. Undeclared keys are reported in sorted order.
func CheckFields(t Template, fields generic.Fields) error {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		spec, ok := t.Field(k)
		if !ok {
			return &generic.ValidationError{Field: k, Message: fmt.Sprintf("is not a field of %s", t.Kind)}
		}
		if v := fields[k]; v.IsSet() && v.Type != spec.Type {
			return &generic.ValidationError{Field: k, Message: fmt.Sprintf("must be %s, got %s", spec.Type, v.Type)}
		}
	}
	for _, spec := range t.Fields {
		if spec.Required && !fields[spec.Key].IsSet() {
			return &generic.ValidationError{Field: spec.Key, Message: "is required"}
		}
	}
	return nil
}

/*
render.go - Deterministic document layout

PURPOSE:
  Turns a CalculationRecord into a Document: a plain-text layout for
  printing and a flat list of {Field, Value} rows for tabular export.
  Both list, in order:

    1. every declared input field of the kind (unset fields render empty)
    2. every breakdown line, signed by its effect
    3. Net Amount, Amount in Words, Generated At

DETERMINISM:
  Rendering reads only the record. The timestamp printed is the record's
  CreatedAt, never the wall clock, so rendering the same record twice
  yields byte-identical output.

PURITY:
  The record is never modified.

SEE ALSO:
  - html.go: HTML layout of the same rows
  - export.go: CSV, XLSX and ZIP writers over Rows
*/
package document

import (
	"fmt"
	"strings"
	"time"

	"github.com/pwdtools/calc-engine/generic"
)

const labelWidth = 28

type Section string

const (
	SectionInput     Section = "input"
	SectionBreakdown Section = "breakdown"
	SectionSummary   Section = "summary"
)

// Row is one {Field, Value} pair of the tabular projection.
type Row struct {
	Field   string
	Value   string
	Section Section
}

type Document struct {
	Kind        Kind
	Title       string
	Reference   string
	Text        string
	Rows        []Row
	Negative    bool
	Fallback    bool
	GeneratedAt time.Time
}

// Renderer lays out records. The zero value is ready to use.
type Renderer struct{}

func NewRenderer() *Renderer { return &Renderer{} }

// Render lays out rec as a document of kind.
func (r *Renderer) Render(rec generic.CalculationRecord, kind Kind) (Document, error) {
	if Kind(rec.Kind) != kind {
		return Document{}, &generic.ValidationError{
			Field:   "kind",
			Message: fmt.Sprintf("record is %q, cannot render as %q", rec.Kind, kind),
		}
	}
	tmpl, err := Lookup(kind)
	if err != nil {
		return Document{}, err
	}
	if err := CheckFields(tmpl, rec.Inputs); err != nil {
		return Document{}, err
	}

	rows := make([]Row, 0, len(tmpl.Fields)+len(rec.Breakdown)+3)
	for _, f := range tmpl.Fields {
		rows = append(rows, Row{Field: f.Label, Value: rec.Input(f.Key).String(), Section: SectionInput})
	}
	for _, l := range rec.Breakdown {
		rows = append(rows, Row{Field: l.Label, Value: signed(l), Section: SectionBreakdown})
	}

	wordsLabel := "Amount in Words"
	if rec.WordsFallback {
		wordsLabel = "Amount in Words (numeric)"
	}
	generated := rec.CreatedAt.UTC().Format(time.RFC3339)
	rows = append(rows,
		Row{Field: "Net Amount", Value: generic.FormatINR(rec.Net), Section: SectionSummary},
		Row{Field: wordsLabel, Value: rec.NetInWords, Section: SectionSummary},
		Row{Field: "Generated At", Value: generated, Section: SectionSummary},
	)

	doc := Document{
		Kind:        kind,
		Title:       tmpl.Title,
		Reference:   rec.Reference,
		Rows:        rows,
		Negative:    rec.Net.IsNegative(),
		Fallback:    rec.WordsFallback,
		GeneratedAt: rec.CreatedAt,
	}
	doc.Text = layoutText(doc)
	return doc, nil
}

func signed(l generic.Line) string {
	amount := generic.FormatINR(l.Amount)
	switch l.Effect {
	case generic.EffectAddition:
		return "+ " + amount
	case generic.EffectDeduction:
		return "- " + amount
	default:
		return amount
	}
}

func layoutText(doc Document) string {
	var b strings.Builder
	rule := strings.Repeat("=", 64)
	thin := strings.Repeat("-", 64)

	b.WriteString(strings.ToUpper(doc.Title))
	b.WriteString("\n")
	if doc.Reference != "" {
		fmt.Fprintf(&b, "Reference: %s\n", doc.Reference)
	}
	b.WriteString(rule + "\n")

	section := SectionInput
	for _, row := range doc.Rows {
		if row.Section != section {
			b.WriteString(thin + "\n")
			section = row.Section
		}
		value := row.Value
		if row.Field == "Net Amount" && doc.Negative {
			value += " (NEGATIVE)"
		}
		fmt.Fprintf(&b, "%-*s: %s\n", labelWidth, row.Field, value)
	}
	b.WriteString(rule + "\n")
	return b.String()
}

/*
columns.go - Fuzzy column detection for bulk receipt input

PURPOSE:
  Spreadsheets arrive with whatever headers the office typed. Detection
  maps them to the three logical columns a hand receipt needs (payee,
  amount, work) by case-insensitive substring match against a keyword
  priority list. The caller reviews the result and may override any
  column before generating.

RESOLUTION ORDER:
  work, then amount, then payee. Each role takes the first unused header
  that matches its highest-priority keyword, so "Name of Work" is claimed
  by work before the bare "name" keyword of payee can reach it.

SEE ALSO:
  - reader.go: CSV and XLSX tables
  - generator.go: Consumes the Mapping
*/
package batch

import (
	"strings"

	"github.com/pwdtools/calc-engine/generic"
)

// Mapping names the input header for each logical column.
type Mapping struct {
	Payee  string `json:"payee"`
	Amount string `json:"amount"`
	Work   string `json:"work"`
}

var (
	PayeeKeywords  = []string{"payee", "contractor", "name", "party"}
	AmountKeywords = []string{"amount", "emd", "sum", "value", "rs"}
	WorkKeywords   = []string{"name of work", "work", "description", "project"}
)

// DetectColumns guesses a Mapping from headers. Roles with no match
// are left empty; Validate reports them.
func DetectColumns(headers []string) Mapping {
	used := make(map[int]bool, len(headers))
	pick := func(keywords []string) string {
		for _, kw := range keywords {
			for i, h := range headers {
				if used[i] {
					continue
				}
				if strings.Contains(strings.ToLower(strings.TrimSpace(h)), kw) {
					used[i] = true
					return h
				}
			}
		}
		return ""
	}

	var m Mapping
	m.Work = pick(WorkKeywords)
	m.Amount = pick(AmountKeywords)
	m.Payee = pick(PayeeKeywords)
	return m
}

// Override returns m with every non-empty column of o applied.
func (m Mapping) Override(o Mapping) Mapping {
	if o.Payee != "" {
		m.Payee = o.Payee
	}
	if o.Amount != "" {
		m.Amount = o.Amount
	}
	if o.Work != "" {
		m.Work = o.Work
	}
	return m
}

// Validate checks every role is mapped, to a distinct header present in
// headers. A nil headers slice skips the presence check.
func (m Mapping) Validate(headers []string) error {
	roles := []struct{ field, header string }{
		{"payee", m.Payee}, {"amount", m.Amount}, {"work", m.Work},
	}
	seen := make(map[string]string, len(roles))
	for _, r := range roles {
		if r.header == "" {
			return &generic.ValidationError{Field: r.field, Message: "column is not mapped"}
		}
		if other, dup := seen[r.header]; dup {
			return &generic.ValidationError{Field: r.field, Message: "column " + r.header + " is already mapped to " + other}
		}
		seen[r.header] = r.field
		if headers != nil && !contains(headers, r.header) {
			return &generic.ValidationError{Field: r.field, Message: "column " + r.header + " is not in the input"}
		}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

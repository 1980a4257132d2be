// Package refunds implements the deposit refund orders: the EMD refund
// (RPWA 28) and the security deposit refund with interest.
package refunds

import (
	"strings"

	"github.com/pwdtools/calc-engine/document"
	"github.com/pwdtools/calc-engine/generic"
)

var (
	_ document.Calculation = (*EMDRefund)(nil)
	_ document.Calculation = (*SecurityRefund)(nil)

	_ generic.Auditable = (*EMDRefund)(nil)
	_ generic.Auditable = (*SecurityRefund)(nil)
)

func requireTexts(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			return &generic.ValidationError{Field: pairs[i], Message: "is required"}
		}
	}
	return nil
}

func optionalText(fields generic.Fields, key, value string) {
	if v := strings.TrimSpace(value); v != "" {
		fields[key] = generic.Text(v)
	}
}

func optionalDate(fields generic.Fields, key string, d generic.Date) {
	if !d.IsZero() {
		fields[key] = generic.DateValue(d)
	}
}

// dateText is the stored form of an optional date; empty when unset.
func dateText(d generic.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

package generic

import (
	"strings"
	"time"
)

// =============================================================================
// DATE - calendar day at UTC midnight
// =============================================================================

type Date struct {
	Time time.Time
}

// Accepted input layouts, tried in order.
var dateLayouts = []string{"2006-01-02", "02/01/2006", "02-01-2006", "2006/01/02"}

// Constructors
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func DateOf(t time.Time) Date { return NewDate(t.Year(), t.Month(), t.Day()) }

func Today() Date { return DateOf(time.Now()) }

// ParseDate accepts ISO (2006-01-02) and Indian day-first (02/01/2006) forms.
func ParseDate(field, raw string) (Date, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Date{}, &ValidationError{Field: field, Message: "is required"}
	}
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return DateOf(t), nil
		}
		lastErr = err
	}
	return Date{}, &ParseError{Field: field, Raw: raw, Err: lastErr}
}

// Comparison
func (d Date) Before(other Date) bool { return d.Time.Before(other.Time) }
func (d Date) After(other Date) bool  { return d.Time.After(other.Time) }
func (d Date) Equal(other Date) bool  { return d.Time.Equal(other.Time) }
func (d Date) IsZero() bool           { return d.Time.IsZero() }

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{Time: d.Time.AddDate(0, 0, n)} }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Time.Format("2006-01-02")
}

// DaysBetween returns to - from in whole calendar days; negative when to is earlier.
// Day numbers are taken from Unix seconds, which do not saturate like Duration.
func DaysBetween(from, to Date) int {
	return int(dayNumber(to) - dayNumber(from))
}

func dayNumber(d Date) int64 {
	return DateOf(d.Time).Time.Unix() / secondsPerDay
}

const secondsPerDay = 24 * 60 * 60

/*
words.go - Indian-English legal words for rupee amounts

PURPOSE:
  Converts a decimal amount into the words form printed on receipts,
  refund orders and bill note sheets:

    1234.56 -> "One Thousand Two Hundred and Thirty Four Rupees and Fifty Six Paise Only"

SCALE:
  Indian grouping, not the international one:
    Hundred (10^2), Thousand (10^3), Lakh (10^5), Crore (10^7)
  Crore multiples above 99 are themselves worded on the same scale,
  without an "and" of their own, so 10^10 is "One Thousand Crore" and
  1,05,00,00,000 is "One Hundred Five Crore".

"AND" PLACEMENT:
  "and" appears only before the final sub-hundred group, and only when a
  higher group precedes it: 105 -> "One Hundred and Five",
  1000001 -> "Ten Lakh and One", 45 -> "Forty Five".

ROUNDING:
  The amount is rounded half away from zero to 2 places first, and the
  sign is judged on the rounded value (-0.001 is zero). Rupees are
  the integer part, paise the remaining hundredths, so 9.999 becomes
  "Ten Rupees Only" rather than "Nine Rupees and One Hundred Paise".

FALLBACK:
  ToLegalWords never guesses. Callers who prefer a numeric rendering
  over an error ask for it explicitly through LegalWords(amount,
  WordsNumericFallback) and can see that the fallback was taken.
*/
package generic

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ones = [...]string{
		"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
		"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen",
		"Seventeen", "Eighteen", "Nineteen",
	}
	tens = [...]string{
		"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety",
	}

	maxRupees = decimal.NewFromInt(math.MaxInt64)
)

// ToLegalWords converts a non-negative amount to legal words.
func ToLegalWords(amount decimal.Decimal) (string, error) {
	rounded := Round2(amount)
	if rounded.IsNegative() {
		return "", &FormattingError{Input: amount.String(), Reason: "amount is negative"}
	}
	if rounded.GreaterThan(maxRupees) {
		return "", &FormattingError{Input: amount.String(), Reason: "amount exceeds supported range"}
	}

	rupees := rounded.IntPart()
	paise := rounded.Sub(decimal.NewFromInt(rupees)).Mul(Hundred).IntPart()

	rupeeWords := "Zero"
	if rupees > 0 {
		rupeeWords = indianWords(rupees)
	}
	if paise > 0 {
		return rupeeWords + " Rupees and " + indianWords(paise) + " Paise Only", nil
	}
	return rupeeWords + " Rupees Only", nil
}

// ParseLegalWords parses raw text as an amount and converts it.
// Unparseable input is a FormattingError, like any other conversion failure.
func ParseLegalWords(raw string) (string, error) {
	amount, err := ParseAmount("amount", raw)
	if err != nil {
		return "", &FormattingError{Input: raw, Reason: "not a number"}
	}
	return ToLegalWords(amount)
}

// =============================================================================
// FALLBACK POLICY
// =============================================================================

type WordsPolicy string

const (
	WordsStrict          WordsPolicy = "strict"           // surface FormattingError
	WordsNumericFallback WordsPolicy = "numeric_fallback" // "<amount 2dp> Rupees Only"
)

// Words is the outcome of a policy-driven conversion.
// Err is set whenever conversion failed, even if a fallback Text was produced.
type Words struct {
	Text     string
	Fallback bool
	Err      error
}

// LegalWords converts amount under policy, making the fallback branch visible.
func LegalWords(amount decimal.Decimal, policy WordsPolicy) Words {
	text, err := ToLegalWords(amount)
	if err == nil {
		return Words{Text: text}
	}
	if policy == WordsNumericFallback {
		return Words{Text: NumericWords(amount), Fallback: true, Err: err}
	}
	return Words{Err: err}
}

// NumericWords is the plain numeric rendering used as a fallback.
func NumericWords(amount decimal.Decimal) string {
	return Round2(amount).StringFixed(2) + " Rupees Only"
}

// =============================================================================
// INDIAN SCALE
// =============================================================================

func indianWords(n int64) string { return scaleWords(n, true) }

// scaleWords words n on the Indian scale. The crore count is worded
// without "and" so only the final sub-hundred group of the whole
// amount is joined by it.
func scaleWords(n int64, and bool) string {
	var parts []string

	if crore := n / 10_000_000; crore > 0 {
		parts = append(parts, scaleWords(crore, false)+" Crore")
		n %= 10_000_000
	}
	if lakh := n / 100_000; lakh > 0 {
		parts = append(parts, belowHundred(lakh)+" Lakh")
		n %= 100_000
	}
	if thousand := n / 1000; thousand > 0 {
		parts = append(parts, belowHundred(thousand)+" Thousand")
		n %= 1000
	}
	if hundred := n / 100; hundred > 0 {
		parts = append(parts, ones[hundred]+" Hundred")
		n %= 100
	}
	if n > 0 {
		if and && len(parts) > 0 {
			parts = append(parts, "and")
		}
		parts = append(parts, belowHundred(n))
	}
	return strings.Join(parts, " ")
}

func belowHundred(n int64) string {
	if n < 20 {
		return ones[n]
	}
	if n%10 == 0 {
		return tens[n/10]
	}
	return tens[n/10] + " " + ones[n%10]
}

// =============================================================================
// DIGIT GROUPING
// =============================================================================

// FormatINR renders an amount as ₹1,18,000.00: last three digits, then pairs.
// Negative amounts keep their sign ahead of the rupee symbol.
func FormatINR(amount decimal.Decimal) string {
	s := Round2(amount).StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}
	return sign + "₹" + groupIndian(intPart) + frac
}

func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	if head != "" {
		groups = append([]string{head}, groups...)
	}
	return strings.Join(groups, ",") + "," + tail
}

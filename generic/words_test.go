package generic_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/pwdtools/calc-engine/generic"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return generic.MustParseDecimal(s) }

// =============================================================================
// LEGAL WORDS
// =============================================================================

func TestToLegalWords_Scale(t *testing.T) {
	cases := []struct {
		amount string
		want   string
	}{
		{"1234.56", "One Thousand Two Hundred and Thirty Four Rupees and Fifty Six Paise Only"},
		{"0", "Zero Rupees Only"},
		{"0.50", "Zero Rupees and Fifty Paise Only"},
		{"45", "Forty Five Rupees Only"},
		{"105", "One Hundred and Five Rupees Only"},
		{"1000", "One Thousand Rupees Only"},
		{"100000", "One Lakh Rupees Only"},
		{"118000", "One Lakh Eighteen Thousand Rupees Only"},
		{"109640", "One Lakh Nine Thousand Six Hundred and Forty Rupees Only"},
		{"1000001", "Ten Lakh and One Rupees Only"},
		{"10000000", "One Crore Rupees Only"},
		{"10000000000", "One Thousand Crore Rupees Only"},
		{"1050000000", "One Hundred Five Crore Rupees Only"},
		{"9999999999", "Nine Hundred Ninety Nine Crore Ninety Nine Lakh Ninety Nine Thousand Nine Hundred and Ninety Nine Rupees Only"},
		{"99999999999.99", "Nine Thousand Nine Hundred Ninety Nine Crore Ninety Nine Lakh Ninety Nine Thousand Nine Hundred and Ninety Nine Rupees and Ninety Nine Paise Only"},
		{"25.05", "Twenty Five Rupees and Five Paise Only"},
	}
	for _, tc := range cases {
		t.Run(tc.amount, func(t *testing.T) {
			got, err := generic.ToLegalWords(d(tc.amount))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestToLegalWords_RoundsBeforeSplitting(t *testing.T) {
	// GIVEN: Fractions that round half away from zero
	// WHEN: Converting
	// THEN: Paise that reach 100 carry into rupees

	got, err := generic.ToLegalWords(d("9.999"))
	require.NoError(t, err)
	assert.Equal(t, "Ten Rupees Only", got)

	got, err = generic.ToLegalWords(d("0.005"))
	require.NoError(t, err)
	assert.Equal(t, "Zero Rupees and One Paise Only", got)
}

func TestToLegalWords_RupeesAndPaiseRoundTrip(t *testing.T) {
	// GIVEN: Amounts across every scale, with and without paise
	// WHEN: Converting to words and reading the words back
	// THEN: The rupees are floor(A) and the paise round(frac x 100)
	wholes := []int64{0, 1, 19, 99, 100, 101, 999, 1000, 12345, 99999, 100000, 1000001,
		9999999, 10000000, 123456789, 9999999999, 123456789012, 922337203685}
	for _, rupees := range wholes {
		for _, paise := range []int64{0, 1, 5, 10, 25, 50, 99} {
			amount := decimal.NewFromInt(rupees).Add(decimal.New(paise, -2))

			words, err := generic.ToLegalWords(amount)
			require.NoError(t, err, amount.String())

			gotRupees, gotPaise := readLegalWords(t, words)
			assert.Equal(t, rupees, gotRupees, words)
			assert.Equal(t, paise, gotPaise, words)
			assert.Equal(t, paise > 0, strings.Contains(words, "Paise"), words)
			assert.LessOrEqual(t, strings.Count(strings.SplitN(words, " Rupees", 2)[0], " and "), 1, words)
		}
	}
}

var wordValues = map[string]int64{
	"One": 1, "Two": 2, "Three": 3, "Four": 4, "Five": 5, "Six": 6, "Seven": 7, "Eight": 8,
	"Nine": 9, "Ten": 10, "Eleven": 11, "Twelve": 12, "Thirteen": 13, "Fourteen": 14,
	"Fifteen": 15, "Sixteen": 16, "Seventeen": 17, "Eighteen": 18, "Nineteen": 19,
	"Twenty": 20, "Thirty": 30, "Forty": 40, "Fifty": 50, "Sixty": 60, "Seventy": 70,
	"Eighty": 80, "Ninety": 90,
}

// readLegalWords parses "<x> Rupees [and <y> Paise] Only" back into numbers.
func readLegalWords(t *testing.T, words string) (rupees, paise int64) {
	t.Helper()
	body, ok := strings.CutSuffix(words, " Only")
	require.True(t, ok, words)
	rupeePart, paisePart, hasPaise := strings.Cut(body, " Rupees and ")
	if hasPaise {
		p, ok := strings.CutSuffix(paisePart, " Paise")
		require.True(t, ok, words)
		paise = wordsToNumber(t, strings.Fields(p))
	} else {
		rupeePart, ok = strings.CutSuffix(body, " Rupees")
		require.True(t, ok, words)
	}
	return wordsToNumber(t, strings.Fields(rupeePart)), paise
}

func wordsToNumber(t *testing.T, tokens []string) int64 {
	t.Helper()
	for i := len(tokens) - 1; i >= 0; i-- {
		if tokens[i] == "Crore" {
			return wordsToNumber(t, tokens[:i])*10_000_000 + wordsToNumber(t, tokens[i+1:])
		}
	}
	var total, current int64
	for _, tok := range tokens {
		switch tok {
		case "and", "Zero":
		case "Hundred":
			current *= 100
		case "Thousand":
			total += current * 1000
			current = 0
		case "Lakh":
			total += current * 100_000
			current = 0
		default:
			v, ok := wordValues[tok]
			require.True(t, ok, "unexpected word %q", tok)
			current += v
		}
	}
	return total + current
}

func TestToLegalWords_Negative_FormattingError(t *testing.T) {
	_, err := generic.ToLegalWords(d("-5"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, generic.ErrFormatting))

	var ferr *generic.FormattingError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, "-5", ferr.Input)
}

func TestToLegalWords_NegativeZeroAfterRounding(t *testing.T) {
	got, err := generic.ToLegalWords(d("-0.001"))
	require.NoError(t, err)
	assert.Equal(t, "Zero Rupees Only", got)

	_, err = generic.ToLegalWords(d("-0.005"))
	assert.ErrorIs(t, err, generic.ErrFormatting)
}

func TestParseLegalWords_Unparseable(t *testing.T) {
	_, err := generic.ParseLegalWords("twelve")
	assert.ErrorIs(t, err, generic.ErrFormatting)

	got, err := generic.ParseLegalWords("₹1,234.56")
	require.NoError(t, err)
	assert.Equal(t, "One Thousand Two Hundred and Thirty Four Rupees and Fifty Six Paise Only", got)
}

func TestLegalWords_Policy(t *testing.T) {
	// GIVEN: An amount that cannot be worded
	// WHEN: Converting under each policy
	// THEN: Strict surfaces the error, fallback marks the numeric text

	strict := generic.LegalWords(d("-12.5"), generic.WordsStrict)
	assert.Empty(t, strict.Text)
	assert.False(t, strict.Fallback)
	assert.ErrorIs(t, strict.Err, generic.ErrFormatting)

	fb := generic.LegalWords(d("-12.5"), generic.WordsNumericFallback)
	assert.Equal(t, "-12.50 Rupees Only", fb.Text)
	assert.True(t, fb.Fallback)
	assert.Error(t, fb.Err)

	ok := generic.LegalWords(d("12.5"), generic.WordsNumericFallback)
	assert.Equal(t, "Twelve Rupees and Fifty Paise Only", ok.Text)
	assert.False(t, ok.Fallback)
	assert.NoError(t, ok.Err)
}

// =============================================================================
// DIGIT GROUPING
// =============================================================================

func TestFormatINR(t *testing.T) {
	cases := map[string]string{
		"0":           "₹0.00",
		"999":         "₹999.00",
		"1500":        "₹1,500.00",
		"118000":      "₹1,18,000.00",
		"1234567.891": "₹12,34,567.89",
		"10000000":    "₹1,00,00,000.00",
		"-1500":       "-₹1,500.00",
	}
	for in, want := range cases {
		assert.Equal(t, want, generic.FormatINR(d(in)), in)
	}
}

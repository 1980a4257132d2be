package document_test

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pwdtools/calc-engine/document"
	"github.com/pwdtools/calc-engine/generic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var fixedTime = time.Date(2025, time.March, 10, 9, 30, 0, 0, time.UTC)

func testBuilder() *document.Builder {
	b := document.NewBuilder(generic.WordsNumericFallback)
	b.Now = func() time.Time { return fixedTime }
	b.NewReference = func() string { return "ref-0001" }
	return b
}

func receiptInputs() generic.Fields {
	return generic.Fields{
		"payee":  generic.Text("Ramesh Traders"),
		"work":   generic.Text("Culvert repair, NH-48"),
		"amount": generic.Money(generic.MustParseDecimal("1234.56")),
	}
}

func receiptRecord(t *testing.T) generic.CalculationRecord {
	amount := generic.MustParseDecimal("1234.56")
	rec, err := testBuilder().NewRecord(document.KindHandReceipt, receiptInputs(), []generic.Line{
		{Name: "amount", Label: "Amount Received", Amount: amount, Effect: generic.EffectInfo},
	}, amount)
	require.NoError(t, err)
	return rec
}

// =============================================================================
// RECORD CONSTRUCTION
// =============================================================================

func TestNewRecord_FillsWordsAndMetadata(t *testing.T) {
	rec := receiptRecord(t)

	assert.Equal(t, "ref-0001", rec.Reference)
	assert.Equal(t, string(document.KindHandReceipt), rec.Kind)
	assert.Equal(t, fixedTime, rec.CreatedAt)
	assert.Equal(t, "One Thousand Two Hundred and Thirty Four Rupees and Fifty Six Paise Only", rec.NetInWords)
	assert.False(t, rec.WordsFallback)
}

func TestNewRecord_SchemaViolations(t *testing.T) {
	cases := map[string]struct {
		mutate func(generic.Fields)
		field  string
	}{
		"unknown field":  {func(f generic.Fields) { f["gst_number"] = generic.Text("X") }, "gst_number"},
		"missing payee":  {func(f generic.Fields) { delete(f, "payee") }, "payee"},
		"empty work":     {func(f generic.Fields) { f["work"] = generic.Text("") }, "work"},
		"mistyped money": {func(f generic.Fields) { f["amount"] = generic.Text("1234") }, "amount"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			inputs := receiptInputs()
			tc.mutate(inputs)

			_, err := document.NewRecord(document.KindHandReceipt, inputs, nil, generic.MustParseDecimal("1"))
			var verr *generic.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestNewRecord_UnknownKind(t *testing.T) {
	_, err := document.NewRecord(document.Kind("lottery_ticket"), nil, nil, generic.MustParseDecimal("1"))
	assert.ErrorIs(t, err, generic.ErrValidation)
}

func TestNewRecord_CopiesInputs(t *testing.T) {
	// GIVEN: A built record
	// WHEN: The caller edits the map it passed in
	// THEN: The record is unchanged

	inputs := receiptInputs()
	rec, err := testBuilder().NewRecord(document.KindHandReceipt, inputs, nil, generic.MustParseDecimal("10"))
	require.NoError(t, err)

	inputs["payee"] = generic.Text("Someone Else")
	assert.Equal(t, "Ramesh Traders", rec.Input("payee").Text())
}

func TestNewRecord_WordsPolicy(t *testing.T) {
	inputs := receiptInputs()
	negative := generic.MustParseDecimal("-50")

	rec, err := testBuilder().NewRecord(document.KindHandReceipt, inputs, nil, negative)
	require.NoError(t, err)
	assert.True(t, rec.WordsFallback)
	assert.Equal(t, "-50.00 Rupees Only", rec.NetInWords)

	strict := testBuilder()
	strict.Words = generic.WordsStrict
	_, err = strict.NewRecord(document.KindHandReceipt, inputs, nil, negative)
	assert.ErrorIs(t, err, generic.ErrFormatting)
}

// =============================================================================
// RENDERING
// =============================================================================

func TestRender_RowsInDeclaredOrder(t *testing.T) {
	doc, err := document.NewRenderer().Render(receiptRecord(t), document.KindHandReceipt)
	require.NoError(t, err)

	fields := make([]string, len(doc.Rows))
	for i, r := range doc.Rows {
		fields[i] = r.Field
	}
	assert.Equal(t, []string{
		"Payee Name", "Name of Work", "Amount", "Receipt Date", "Source Row",
		"Amount Received",
		"Net Amount", "Amount in Words", "Generated At",
	}, fields)
	assert.Equal(t, "₹1,234.56", doc.Rows[2].Value)
	assert.Equal(t, "", doc.Rows[3].Value)
	assert.Equal(t, "2025-03-10T09:30:00Z", doc.Rows[8].Value)
}

func TestRender_Deterministic(t *testing.T) {
	rec := receiptRecord(t)
	r := document.NewRenderer()

	a, err := r.Render(rec, document.KindHandReceipt)
	require.NoError(t, err)
	b, err := r.Render(rec, document.KindHandReceipt)
	require.NoError(t, err)

	assert.Equal(t, a.Text, b.Text)
	assert.Contains(t, a.Text, "HAND RECEIPT")
	assert.Contains(t, a.Text, "Reference: ref-0001")
	assert.Contains(t, a.Text, "Ramesh Traders")
	assert.Contains(t, a.Text, "Fifty Six Paise Only")
}

func TestRender_KindMismatch(t *testing.T) {
	_, err := document.NewRenderer().Render(receiptRecord(t), document.KindBillNote)
	assert.ErrorIs(t, err, generic.ErrValidation)
}

func TestRender_RejectsTamperedRecord(t *testing.T) {
	rec := receiptRecord(t)
	rec.Inputs = generic.Fields{"payee": generic.Text("x")}

	_, err := document.NewRenderer().Render(rec, document.KindHandReceipt)
	assert.ErrorIs(t, err, generic.ErrValidation)
}

func TestRender_FlagsNegativeAndFallback(t *testing.T) {
	rec, err := testBuilder().NewRecord(document.KindHandReceipt, receiptInputs(), nil, generic.MustParseDecimal("-5"))
	require.NoError(t, err)

	doc, err := document.NewRenderer().Render(rec, document.KindHandReceipt)
	require.NoError(t, err)
	assert.True(t, doc.Negative)
	assert.True(t, doc.Fallback)
	assert.Contains(t, doc.Text, "(NEGATIVE)")
	assert.Contains(t, doc.Text, "Amount in Words (numeric)")
}

func TestHTML_EscapesValues(t *testing.T) {
	inputs := receiptInputs()
	inputs["payee"] = generic.Text("<script>alert(1)</script>")
	rec, err := testBuilder().NewRecord(document.KindHandReceipt, inputs, nil, generic.MustParseDecimal("1"))
	require.NoError(t, err)
	doc, err := document.NewRenderer().Render(rec, document.KindHandReceipt)
	require.NoError(t, err)

	page, err := document.HTML(doc)
	require.NoError(t, err)
	assert.NotContains(t, string(page), "<script>")
	assert.Contains(t, string(page), "Hand Receipt")
}

// =============================================================================
// EXPORT
// =============================================================================

func TestWriteCSV(t *testing.T) {
	doc, err := document.NewRenderer().Render(receiptRecord(t), document.KindHandReceipt)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, document.WriteCSV(&buf, doc))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, len(doc.Rows)+1)
	assert.Equal(t, []string{"Field", "Value"}, records[0])
	assert.Equal(t, []string{"Payee Name", "Ramesh Traders"}, records[1])
}

func TestWriteXLSX(t *testing.T) {
	doc, err := document.NewRenderer().Render(receiptRecord(t), document.KindHandReceipt)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, document.WriteXLSX(&buf, doc))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"hand_receipt"}, f.GetSheetList())
	rows, err := f.GetRows("hand_receipt")
	require.NoError(t, err)
	assert.Equal(t, []string{"Field", "Value"}, rows[0])
	assert.Equal(t, "Ramesh Traders", rows[1][1])
}

func TestWriteArchive(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, document.WriteArchive(&buf, []document.ArchiveEntry{
		{Name: "a.txt", Body: []byte("A")},
		{Name: "b.txt", Body: []byte("B")},
	}))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	assert.Equal(t, "a.txt", zr.File[0].Name)

	err = document.WriteArchive(io.Discard, []document.ArchiveEntry{{Name: "a"}, {Name: "a"}})
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	f, err := document.ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, document.FormatJSON, f)

	f, err = document.ParseFormat("TXT")
	require.NoError(t, err)
	assert.Equal(t, document.FormatText, f)

	_, err = document.ParseFormat("docx")
	assert.Error(t, err)
}

// =============================================================================
// PDF
// =============================================================================

func TestGotenbergClient_ConvertHTML(t *testing.T) {
	var gotPath, gotFile string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		file, header, err := r.FormFile("files")
		if err == nil {
			gotFile = header.Filename
			_ = file.Close()
		}
		_, _ = w.Write([]byte("%PDF-1.7"))
	}))
	defer srv.Close()

	doc, err := document.NewRenderer().Render(receiptRecord(t), document.KindHandReceipt)
	require.NoError(t, err)

	pdf, err := document.PDF(context.Background(), document.NewGotenbergClient(srv.URL, time.Second), doc)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(pdf), "%PDF"))
	assert.Equal(t, "/forms/chromium/convert/html", gotPath)
	assert.Equal(t, "index.html", gotFile)
}

func TestGotenbergClient_Unconfigured(t *testing.T) {
	client := document.NewGotenbergClient("", 0)
	_, err := client.ConvertHTML(context.Background(), []byte("<html></html>"))
	assert.ErrorIs(t, err, document.ErrPDFUnavailable)
	assert.ErrorIs(t, client.Ping(context.Background()), document.ErrPDFUnavailable)
}

func TestGotenbergClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := document.NewGotenbergClient(srv.URL, time.Second).ConvertHTML(context.Background(), []byte("x"))
	assert.Error(t, err)
}

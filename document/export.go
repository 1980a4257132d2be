package document

import (
	"archive/zip"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// =============================================================================
// FORMATS
// =============================================================================

type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatHTML Format = "html"
	FormatPDF  Format = "pdf"
	FormatZIP  Format = "zip"
)

// ParseFormat accepts a format name; empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatText, FormatCSV, FormatXLSX, FormatHTML, FormatPDF, FormatZIP:
		return f, nil
	case "txt":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unsupported format %q", s)
	}
}

func (f Format) ContentType() string {
	switch f {
	case FormatText:
		return "text/plain; charset=utf-8"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatPDF:
		return "application/pdf"
	case FormatZIP:
		return "application/zip"
	default:
		return "application/json"
	}
}

func (f Format) Extension() string {
	if f == FormatText {
		return ".txt"
	}
	return "." + string(f)
}

// Filename is the download name for doc in format f.
func (f Format) Filename(doc Document) string {
	name := string(doc.Kind)
	if doc.Reference != "" {
		ref := doc.Reference
		if len(ref) > 8 {
			ref = ref[:8]
		}
		name += "_" + ref
	}
	return name + f.Extension()
}

// Write encodes doc in format f. JSON is left to the caller, which knows
// the calculation result that belongs next to the rows.
func Write(ctx context.Context, w io.Writer, doc Document, f Format, conv PDFConverter) error {
	switch f {
	case FormatText:
		_, err := io.WriteString(w, doc.Text)
		return err
	case FormatCSV:
		return WriteCSV(w, doc)
	case FormatXLSX:
		return WriteXLSX(w, doc)
	case FormatHTML:
		page, err := HTML(doc)
		if err != nil {
			return err
		}
		_, err = w.Write(page)
		return err
	case FormatPDF:
		pdf, err := PDF(ctx, conv, doc)
		if err != nil {
			return err
		}
		_, err = w.Write(pdf)
		return err
	default:
		return fmt.Errorf("format %q is not a document encoding", f)
	}
}

// =============================================================================
// TABULAR EXPORT
// =============================================================================

// WriteCSV writes doc.Rows under a Field,Value header.
func WriteCSV(w io.Writer, doc Document) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"Field", "Value"}); err != nil {
		return err
	}
	for _, row := range doc.Rows {
		if err := writer.Write([]string{row.Field, row.Value}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteXLSX writes doc.Rows to a single sheet named after the kind.
func WriteXLSX(w io.Writer, doc Document) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	sheet := sheetName(string(doc.Kind))
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}
	if err := f.SetSheetRow(sheet, "A1", &[]any{"Field", "Value"}); err != nil {
		return fmt.Errorf("xlsx header: %w", err)
	}
	for i, row := range doc.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &[]any{row.Field, row.Value}); err != nil {
			return fmt.Errorf("xlsx row %d: %w", i+1, err)
		}
	}
	if err := f.SetColWidth(sheet, "A", "A", 32); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "B", "B", 64); err != nil {
		return err
	}
	return f.Write(w)
}

// sheetName trims s to the 31 characters a sheet name allows.
func sheetName(s string) string {
	if s == "" {
		return "Sheet1"
	}
	if len(s) > 31 {
		return s[:31]
	}
	return s
}

// =============================================================================
// ARCHIVE
// =============================================================================

// ArchiveEntry is one file of a zip archive.
type ArchiveEntry struct {
	Name string
	Body []byte
}

// WriteArchive zips entries in order. Names must be unique.
func WriteArchive(w io.Writer, entries []ArchiveEntry) error {
	zw := zip.NewWriter(w)
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if seen[e.Name] {
			return fmt.Errorf("duplicate archive entry %q", e.Name)
		}
		seen[e.Name] = true
		part, err := zw.Create(e.Name)
		if err != nil {
			return err
		}
		if _, err := part.Write(e.Body); err != nil {
			return err
		}
	}
	return zw.Close()
}

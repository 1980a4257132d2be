package document

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

const documentHTMLTemplate = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>{{.Title}}{{if .Reference}} {{.Reference}}{{end}}</title>
  <style>
    * { box-sizing: border-box; }
    body {
      margin: 0;
      padding: 32px;
      font-family: "Helvetica Neue", Arial, sans-serif;
      color: #111827;
      background: #ffffff;
    }
    .sheet { max-width: 820px; margin: 0 auto; }
    .header {
      border-bottom: 2px solid #1f2937;
      padding-bottom: 12px;
      margin-bottom: 20px;
    }
    .header h1 { margin: 0; font-size: 20px; text-transform: uppercase; }
    .header .ref { color: #6b7280; font-size: 12px; }
    table { width: 100%; border-collapse: collapse; font-size: 14px; }
    td { padding: 8px 10px; border-bottom: 1px solid #e5e7eb; }
    td.label { width: 40%; color: #374151; }
    tr.breakdown td { background: #f9fafb; }
    tr.summary td { font-weight: 600; }
    .negative { color: #b91c1c; }
    .footer { margin-top: 32px; font-size: 12px; color: #6b7280; }
  </style>
</head>
<body>
  <div class="sheet">
    <div class="header">
      <h1>{{.Title}}</h1>
      {{if .Reference}}<div class="ref">Reference: {{.Reference}}</div>{{end}}
    </div>
    <table>
      {{range .Rows}}
      <tr class="{{.Section}}">
        <td class="label">{{.Field}}</td>
        <td{{if and $.Negative (eq .Field "Net Amount")}} class="negative"{{end}}>{{.Value}}</td>
      </tr>
      {{end}}
    </table>
    <div class="footer">Generated {{formatTime .GeneratedAt}}</div>
  </div>
</body>
</html>
`

var documentHTML = template.Must(template.New("document").Funcs(template.FuncMap{
	"formatTime": formatTime,
}).Parse(documentHTMLTemplate))

// HTML renders doc as a standalone HTML page.
func HTML(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := documentHTML.Execute(&buf, doc); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return buf.Bytes(), nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("02 Jan 2006 15:04 MST")
}

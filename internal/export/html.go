package export

import (
	"bytes"
	"html/template"

	"invoicedesk/backend/internal/domain"
)

// summaryHTMLTmpl renders a printable summary. Labels come from invoice data
// and are escaped by html/template.
var summaryHTMLTmpl = template.Must(template.New("summary").Parse(`<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <title>{{.Title}}</title>
  <style>
    body { font-family: sans-serif; margin: 24px; }
    table { width: 100%; border-collapse: collapse; margin-top: 8px; }
    th, td { border: 1px solid #ddd; padding: 6px; font-size: 13px; }
    td.num { text-align: right; }
    tfoot td { font-weight: bold; }
  </style>
</head>
<body>
  <h2>{{.Title}}</h2>
  <table>
    <thead><tr><th>{{.Dimension.Column}}</th><th>Amount</th><th>Share %</th></tr></thead>
    <tbody>{{range .Rows}}<tr><td>{{.Label}}</td><td class="num">{{.Amount}}</td><td class="num">{{.Percentage}}</td></tr>{{end}}</tbody>
    <tfoot><tr><td>{{.Total.Label}}</td><td class="num">{{.Total.Amount}}</td><td class="num">{{.Total.Percentage}}</td></tr></tfoot>
  </table>
</body>
</html>
`))

func SummaryHTML(summary domain.Summary) ([]byte, error) {
	var buf bytes.Buffer
	if err := summaryHTMLTmpl.Execute(&buf, summary); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

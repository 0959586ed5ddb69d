package report

import (
	"bytes"
	"html/template"
	"time"

	"solar-scm-api-server/internal/models"
)

var quotationTmpl = template.Must(template.New("quotation").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
body { font-family: Helvetica, Arial, sans-serif; margin: 40px; color: #222; }
h1 { font-size: 22px; }
table { width: 100%; border-collapse: collapse; margin-top: 24px; }
th, td { border: 1px solid #ccc; padding: 8px; text-align: left; }
th { background: #f5f5f5; }
td.num, th.num { text-align: right; }
.meta { margin-top: 8px; color: #555; }
.total { margin-top: 16px; font-size: 16px; font-weight: bold; text-align: right; }
.notes { margin-top: 24px; font-size: 13px; color: #555; }
</style>
</head>
<body>
<h1>Quotation {{.QuotationID}}</h1>
<div class="meta">Prepared by {{.CreatedByName}} on {{.CreatedAt.Format "02 Jan 2006"}}</div>
<div class="meta">Customer: {{.CustomerName}}{{if .CustomerPhone}} &middot; {{.CustomerPhone}}{{end}}</div>
{{if .CustomerAddress}}<div class="meta">Address: {{.CustomerAddress}}</div>{{end}}
<div class="meta">Valid until {{.ValidUntil.Format "02 Jan 2006"}}</div>
<table>
<thead>
<tr><th>Product</th><th class="num">Quantity</th><th class="num">Unit Price</th><th class="num">Amount</th></tr>
</thead>
<tbody>
{{range .Items}}
<tr>
<td>{{.ProductName}}</td>
<td class="num">{{.Quantity}}</td>
<td class="num">{{printf "%.2f" .UnitPrice}}</td>
<td class="num">{{printf "%.2f" .Amount}}</td>
</tr>
{{end}}
</tbody>
</table>
<div class="total">Total: {{printf "%.2f" .Total}}</div>
{{if .Notes}}<div class="notes">{{.Notes}}</div>{{end}}
</body>
</html>`))

type quotationLine struct {
	ProductName string
	Quantity    int
	UnitPrice   float64
	Amount      float64
}

type quotationView struct {
	QuotationID     string
	CreatedByName   string
	CustomerName    string
	CustomerPhone   string
	CustomerAddress string
	Notes           string
	CreatedAt       time.Time
	ValidUntil      time.Time
	Items           []quotationLine
	Total           float64
}

// QuotationHTML renders the quotation document as HTML, ready for Gotenberg.
func QuotationHTML(q models.Quotation) (string, error) {
	view := quotationView{
		QuotationID:     q.QuotationID,
		CreatedByName:   q.CreatedByName,
		CustomerName:    q.CustomerName,
		CustomerPhone:   q.CustomerPhone,
		CustomerAddress: q.CustomerAddress,
		Notes:           q.Notes,
		CreatedAt:       q.CreatedAt,
		ValidUntil:      q.ValidUntil,
		Total:           q.Total,
	}
	for _, item := range q.Items {
		view.Items = append(view.Items, quotationLine{
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Amount:      float64(item.Quantity) * item.UnitPrice,
		})
	}

	var buf bytes.Buffer
	if err := quotationTmpl.Execute(&buf, view); err != nil {
		return "", err
	}
	return buf.String(), nil
}

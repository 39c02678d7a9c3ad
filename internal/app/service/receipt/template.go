package receipt

import (
	"bytes"
	"html/template"
	"time"

	"github.com/fatflowers/giveledger/internal/models"
)

var receiptTemplate = template.Must(template.New("receipt").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Donation receipt {{.Number}}</title></head>
<body>
<h1>Thank you, {{.DonorName}}</h1>
<p>This is the receipt for your donation to <strong>{{.TargetName}}</strong>.</p>
<table>
<tr><td>Receipt number</td><td>{{.Number}}</td></tr>
<tr><td>Date</td><td>{{.Date}}</td></tr>
<tr><td>Donation</td><td>{{.Kind}}</td></tr>
{{- if .Monetary}}
<tr><td>Amount</td><td>{{.Amount}} {{.Currency}}</td></tr>
{{- end}}
{{- if .TaxID}}
<tr><td>Donor tax id</td><td>{{.TaxID}}</td></tr>
{{- end}}
</table>
</body>
</html>
`))

type view struct {
	Number     string
	DonorName  string
	TargetName string
	Date       string
	Kind       string
	Monetary   bool
	Amount     string
	Currency   string
	TaxID      string
}

func render(r *models.Receipt, d *models.Donation, donor *models.Donor, user *models.User) ([]byte, error) {
	name := donor.FullName
	if name == "" {
		name = user.Name
	}
	issued := r.CreatedAt
	if d.DonatedAt != nil {
		issued = *d.DonatedAt
	}
	v := view{
		Number:     r.ReceiptNumber,
		DonorName:  name,
		TargetName: r.TargetName,
		Date:       issued.UTC().Format(time.DateOnly),
		Kind:       string(d.Kind),
		Monetary:   d.Kind.IsMonetary(),
		Amount:     r.Amount.StringFixed(2),
		Currency:   r.Currency,
	}
	if donor.TaxID != nil {
		v.TaxID = *donor.TaxID
	}
	var buf bytes.Buffer
	if err := receiptTemplate.Execute(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

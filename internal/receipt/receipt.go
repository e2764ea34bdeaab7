package receipt

import (
	"bytes"
	"fmt"
	"html/template"
	"math"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"

	"nittosodai/internal/domain"
)

// Service renders 80mm thermal-printer receipts.
type Service struct {
	storeName string
}

// NewService creates a receipt renderer. An empty binPath lets wkhtmltopdf
// be found on PATH or via WKHTMLTOPDF_PATH. The binary path is process-wide
// in wkhtmltopdf and is set here, once.
func NewService(storeName, binPath string) *Service {
	if binPath != "" {
		wkhtmltopdf.SetPath(binPath)
	}
	return &Service{storeName: storeName}
}

type receiptData struct {
	StoreName string
	Order     domain.Order
}

var tmpl = template.Must(template.New("receipt").Funcs(template.FuncMap{
	"taka": taka,
	"orNA": func(s string) string {
		if s == "" {
			return "N/A"
		}
		return s
	},
}).Parse(receiptTemplate))

// taka formats a price the way the counter printer does, e.g. ৳150.
func taka(v float64) string {
	return fmt.Sprintf("৳%d", int64(math.Round(v)))
}

// HTML renders the receipt page for o.
func (s *Service) HTML(o domain.Order) ([]byte, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, receiptData{StoreName: s.storeName, Order: o}); err != nil {
		return nil, fmt.Errorf("failed to execute receipt template: %w", err)
	}
	return buf.Bytes(), nil
}

// PDF converts the receipt HTML with wkhtmltopdf.
func (s *Service) PDF(o domain.Order) ([]byte, error) {
	html, err := s.HTML(o)
	if err != nil {
		return nil, err
	}

	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF generator: %w", err)
	}

	pdfg.Dpi.Set(203)
	pdfg.PageWidth.Set(80)
	pdfg.PageHeight.Set(200)
	pdfg.MarginTop.Set(0)
	pdfg.MarginBottom.Set(0)
	pdfg.MarginLeft.Set(0)
	pdfg.MarginRight.Set(0)

	page := wkhtmltopdf.NewPageReader(bytes.NewReader(html))
	page.Encoding.Set("UTF-8")
	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return nil, fmt.Errorf("failed to create PDF: %w", err)
	}
	return pdfg.Bytes(), nil
}

const receiptTemplate = `<!DOCTYPE html>
<html lang="bn">
<head>
<meta charset="UTF-8">
<title>Order Receipt</title>
<style>
@page { margin: 0; size: 80mm auto; }
body { width: 80mm; margin: 0; padding: 0 0 20px 0; font-family: monospace, sans-serif; font-size: 10pt; line-height: 1.3; color: black; }
.center { text-align: center; }
.separator { border-top: 1px solid black; height: 1px; margin: 6px 0; }
.customer-info { padding: 2px 4px; }
.customer-info div { margin-bottom: 2px; }
.label { background-color: black; color: white; padding: 1px 4px; margin-right: 6px; }
.items { width: 100%; border-collapse: collapse; padding: 0 4px; }
.items th { border-bottom: 1px solid black; font-size: 9pt; text-align: left; }
.items td { padding: 2px 0; vertical-align: top; }
.qty { text-align: center; width: 20%; }
.amount { text-align: right; width: 30%; padding-right: 2px; }
.total td { border-top: 2px double black; border-bottom: 2px double black; padding: 4px 0; font-weight: bold; font-size: 12pt; }
</style>
</head>
<body>
<div class="center" style="font-size: 14pt; font-weight: bold;">{{.StoreName}}</div>
<div class="center" style="font-weight: bold;">ORDER RECEIPT</div>
<div class="separator"></div>
<div class="customer-info">
  <div class="center"><strong>Customer Information</strong></div>
  <div><span class="label">Name:</span>{{.Order.Customer.Name}}</div>
  <div><span class="label">Phone:</span>{{.Order.Customer.Phone}}</div>
  <div><span class="label">Address:</span>{{orNA .Order.Customer.Address}}</div>
</div>
<div class="separator"></div>
<table class="items">
  <thead><tr><th>Item Name</th><th class="qty">Qty</th><th class="amount">Total</th></tr></thead>
  <tbody>
  {{range .Order.Items}}<tr><td>{{.Name}}</td><td class="qty">x{{.Quantity}}</td><td class="amount">{{taka .Subtotal}}</td></tr>
  {{end}}</tbody>
</table>
<table class="items">
  <tr class="total"><td style="text-align: right; width: 65%;">TOTAL</td><td class="amount">{{taka .Order.TotalPrice}}</td></tr>
</table>
<div class="separator"></div>
<div class="center" style="font-size: 9pt;">আপনার অর্ডার করার জন্য ধন্যবাদ</div>
</body>
</html>
`

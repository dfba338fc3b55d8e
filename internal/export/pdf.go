package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf/v2"

	"invoicedesk/backend/internal/domain"
	"invoicedesk/backend/internal/money"
)

// InvoicePDF renders a single A4 receipt. Core PDF fonts have no rupee glyph,
// so amounts are printed with an "Rs." prefix.
func InvoicePDF(inv domain.Invoice) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(10, 10, 10)
	pdf.SetTitle(fmt.Sprintf("Invoice %s", inv.InvoiceNumber), true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(190, 10, tr(fmt.Sprintf("Invoice %s", inv.InvoiceNumber)), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	when := orNA(inv.Date)
	if inv.Time != "" {
		when += " at " + inv.Time
	}
	pdf.CellFormat(190, 6, tr(when), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Customer", "1", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(95, 7, tr("Name: "+orNA(inv.Customer.Name)), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, tr("Phone: "+orNA(inv.Customer.Phone)), "RB", 1, "L", false, 0, "")
	pdf.CellFormat(95, 7, tr("Email: "+orNA(inv.Customer.Email)), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, tr("Address: "+orNA(inv.Customer.Address)), "RB", 1, "L", false, 0, "")
	pdf.Ln(5)

	widths := []float64{70, 20, 25, 25, 20, 30}
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(200, 200, 200)
	for i, title := range []string{"Product", "Qty", "Price", "Discount", "GST", "Total"} {
		pdf.CellFormat(widths[i], 7, title, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	for _, item := range inv.Items {
		pdf.CellFormat(widths[0], 6, tr(orNA(item.ProductName)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, fmt.Sprintf("%d", item.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 6, money.Format(item.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 6, money.Format(item.Discount), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 6, money.Format(item.GST), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[5], 6, money.Format(item.LineTotal()), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(5)

	totals := []struct {
		label string
		value string
	}{
		{"Subtotal", money.Format(inv.Totals.Subtotal)},
		{"Discount", money.Format(inv.Totals.TotalDiscount)},
		{"GST", money.Format(inv.Totals.TotalGST)},
		{"Special Discount", money.Format(inv.Totals.SpecialDiscount)},
		{"Final Amount", money.Format(inv.Totals.FinalAmount)},
		{"Cash Received", money.Format(inv.Totals.CashReceived)},
		{"Change Returned", money.Format(inv.Totals.ChangeReturned)},
	}
	for _, row := range totals {
		pdf.CellFormat(140, 6, row.label, "", 0, "R", false, 0, "")
		pdf.CellFormat(50, 6, "Rs. "+row.value, "", 1, "R", false, 0, "")
	}
	pdf.Ln(3)
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(190, 7, tr(fmt.Sprintf("Payment: %s | Status: %s", orNA(inv.Totals.PaymentMode), inv.Status())), "", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render invoice pdf: %w", err)
	}
	return buf.Bytes(), nil
}

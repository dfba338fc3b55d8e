// Package export renders invoices and summaries as files: xlsx workbooks,
// printable html pages and pdf receipts.
package export

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"invoicedesk/backend/internal/domain"
)

const (
	InvoicesSheet = "Invoices"
	SummarySheet  = "Summary"

	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	HTMLContentType = "text/html; charset=utf-8"
	PDFContentType  = "application/pdf"
)

var invoiceColumns = []any{
	"Invoice Number", "Date", "Customer Name", "Customer Phone",
	"Total Items", "Total Amount", "Payment Mode", "Due Status",
}

// InvoicesWorkbook writes one row per invoice into the Invoices sheet.
func InvoicesWorkbook(invoices []domain.Invoice) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", InvoicesSheet); err != nil {
		return nil, err
	}
	if err := writeHeader(f, InvoicesSheet, invoiceColumns); err != nil {
		return nil, err
	}

	for i, inv := range invoices {
		row := []any{
			orNA(inv.InvoiceNumber),
			orNA(inv.Date),
			orNA(inv.Customer.Name),
			orNA(inv.Customer.Phone),
			len(inv.Items),
			inv.Totals.FinalAmount.InexactFloat64(),
			orNA(inv.Totals.PaymentMode),
			inv.Status(),
		}
		if err := setRow(f, InvoicesSheet, i+2, row); err != nil {
			return nil, err
		}
	}
	_ = f.SetColWidth(InvoicesSheet, "A", "H", 18)

	return writeWorkbook(f)
}

// SummaryWorkbook writes the projected rows followed by the total row.
func SummaryWorkbook(summary domain.Summary) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return nil, err
	}
	if err := writeHeader(f, SummarySheet, []any{summary.Dimension.Column(), "Amount", "Share %"}); err != nil {
		return nil, err
	}

	for i, row := range summary.Rows {
		if err := setRow(f, SummarySheet, i+2, []any{row.Label, row.Amount, row.Percentage}); err != nil {
			return nil, err
		}
	}
	totalRow := len(summary.Rows) + 2
	if err := setRow(f, SummarySheet, totalRow, []any{summary.Total.Label, summary.Total.Amount, summary.Total.Percentage}); err != nil {
		return nil, err
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetCellStyle(SummarySheet, fmt.Sprintf("A%d", totalRow), fmt.Sprintf("C%d", totalRow), style)
	}
	_ = f.SetColWidth(SummarySheet, "A", "C", 20)

	return writeWorkbook(f)
}

func writeHeader(f *excelize.File, sheet string, columns []any) error {
	if err := setRow(f, sheet, 1, columns); err != nil {
		return err
	}
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(columns), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, style)
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func writeWorkbook(f *excelize.File) ([]byte, error) {
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func orNA(value string) string {
	if strings.TrimSpace(value) == "" {
		return "N/A"
	}
	return value
}

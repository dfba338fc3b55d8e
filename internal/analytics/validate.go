package analytics

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"invoicedesk/backend/internal/domain"
	"invoicedesk/backend/internal/money"
)

// Validate keeps the records that carry a customer and an invoice number and
// normalizes every amount on them. Input order is preserved; dropped records
// are not reported.
func Validate(records []*domain.RawInvoice) []domain.Invoice {
	invoices := make([]domain.Invoice, 0, len(records))
	for _, raw := range records {
		if raw == nil || raw.Customer == nil {
			continue
		}
		number := strings.TrimSpace(raw.InvoiceNumber.String())
		if number == "" {
			continue
		}
		invoices = append(invoices, normalizeInvoice(raw, number))
	}
	return invoices
}

func normalizeInvoice(raw *domain.RawInvoice, number string) domain.Invoice {
	items := make([]domain.LineItem, 0, len(raw.Items))
	for _, item := range raw.Items {
		if item == nil {
			continue
		}
		items = append(items, domain.LineItem{
			ProductName: item.ProductName,
			Quantity:    quantityOf(item.Quantity),
			UnitPrice:   item.UnitPrice.Decimal(),
			Discount:    item.Discount.Decimal(),
			GST:         item.GST.Decimal(),
		})
	}

	return domain.Invoice{
		ID:            raw.ID.String(),
		InvoiceNumber: number,
		Date:          strings.TrimSpace(raw.Date),
		Time:          strings.TrimSpace(raw.Time),
		Customer: domain.Customer{
			Name:    raw.Customer.Name,
			Phone:   raw.Customer.Phone.String(),
			Email:   raw.Customer.Email,
			Address: raw.Customer.Address,
		},
		Items:  items,
		Totals: normalizeTotals(raw.Totals),
	}
}

func normalizeTotals(raw *domain.RawTotals) domain.InvoiceTotals {
	if raw == nil {
		return domain.InvoiceTotals{DueStatus: 1}
	}

	return domain.InvoiceTotals{
		Subtotal:        money.Normalize(raw.TotalPrice),
		TotalDiscount:   money.Normalize(raw.TotalDiscount),
		TotalGST:        money.Normalize(raw.TotalGST),
		SpecialDiscount: money.Normalize(raw.SpecialDiscount),
		FinalAmount:     money.Normalize(raw.FinalAmount),
		CashReceived:    money.Normalize(raw.CashReceived),
		ChangeReturned:  money.Normalize(raw.ChangeReturned),
		PaymentMode:     strings.TrimSpace(raw.PaymentMode),
		DueStatus:       dueStatusOf(raw.DueStatus),
	}
}

var (
	minCount = decimal.NewFromInt(math.MinInt32)
	maxCount = decimal.NewFromInt(math.MaxInt32)
)

// quantityOf truncates to a whole count in [0, MaxInt32].
func quantityOf(a money.Amount) int {
	d := a.Decimal().Truncate(0)
	switch {
	case d.IsNegative():
		return 0
	case d.GreaterThan(maxCount):
		return math.MaxInt32
	}
	return int(d.IntPart())
}

// dueStatusOf reads only an explicit zero as paid. Values outside the int32
// range stay pending.
func dueStatusOf(a money.Amount) int {
	if a.IsMissing() {
		return 1
	}
	d := a.Decimal().Truncate(0)
	if d.LessThan(minCount) || d.GreaterThan(maxCount) {
		return 1
	}
	return int(d.IntPart())
}

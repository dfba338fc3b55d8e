package analytics

import (
	"github.com/shopspring/decimal"

	"invoicedesk/backend/internal/domain"
)

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func decPtr(value string) *decimal.Decimal {
	d := dec(value)
	return &d
}

type invoiceOpt func(*domain.Invoice)

func withCustomer(name, phone, email string) invoiceOpt {
	return func(inv *domain.Invoice) {
		inv.Customer = domain.Customer{Name: name, Phone: phone, Email: email}
	}
}

func withItem(name string, qty int, price string) invoiceOpt {
	return func(inv *domain.Invoice) {
		inv.Items = append(inv.Items, domain.LineItem{
			ProductName: name,
			Quantity:    qty,
			UnitPrice:   dec(price),
			Discount:    decimal.Zero,
			GST:         decimal.Zero,
		})
	}
}

func withPayment(mode string) invoiceOpt {
	return func(inv *domain.Invoice) {
		inv.Totals.PaymentMode = mode
	}
}

func withTime(clock string) invoiceOpt {
	return func(inv *domain.Invoice) {
		inv.Time = clock
	}
}

func withDue(status int) invoiceOpt {
	return func(inv *domain.Invoice) {
		inv.Totals.DueStatus = status
	}
}

func newInvoice(number string, date string, final string, opts ...invoiceOpt) domain.Invoice {
	inv := domain.Invoice{
		ID:            "id-" + number,
		InvoiceNumber: number,
		Date:          date,
		Customer:      domain.Customer{Name: "Walk-in", Phone: "9000000000"},
		Items:         []domain.LineItem{},
		Totals: domain.InvoiceTotals{
			FinalAmount: dec(final),
			PaymentMode: "cash",
		},
	}
	for _, opt := range opts {
		opt(&inv)
	}
	return inv
}

func invoiceNumbers(invoices []domain.Invoice) []string {
	numbers := make([]string, 0, len(invoices))
	for _, inv := range invoices {
		numbers = append(numbers, inv.InvoiceNumber)
	}
	return numbers
}

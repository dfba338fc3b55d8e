package analytics

import (
	"strings"

	"github.com/shopspring/decimal"

	"invoicedesk/backend/internal/domain"
)

type predicate func(inv domain.Invoice) bool

// Filter returns the invoices matching every set criterion, in input order.
// The input slice is not modified.
func Filter(invoices []domain.Invoice, criteria domain.FilterCriteria) []domain.Invoice {
	if criteria.IsEmpty() {
		return append(make([]domain.Invoice, 0, len(invoices)), invoices...)
	}
	predicates := buildPredicates(criteria)
	result := make([]domain.Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if matchesAll(inv, predicates) {
			result = append(result, inv)
		}
	}
	return result
}

func matchesAll(inv domain.Invoice, predicates []predicate) bool {
	for _, p := range predicates {
		if !p(inv) {
			return false
		}
	}
	return true
}

func buildPredicates(c domain.FilterCriteria) []predicate {
	predicates := make([]predicate, 0, 5)
	if c.DateRange.Start != nil && c.DateRange.End != nil {
		predicates = append(predicates, dateRangePredicate(c.DateRange))
	}
	if c.Customer != "" {
		predicates = append(predicates, customerPredicate(c.Customer))
	}
	if c.Product != "" {
		predicates = append(predicates, productPredicate(c.Product))
	}
	if c.Amount.Min != nil || c.Amount.Max != nil {
		predicates = append(predicates, amountPredicate(c.Amount))
	}
	if c.PaymentMode != "" {
		predicates = append(predicates, paymentModePredicate(c.PaymentMode))
	}
	return predicates
}

func dateRangePredicate(r domain.DateRange) predicate {
	start, end := *r.Start, *r.End
	return func(inv domain.Invoice) bool {
		at, ok := InvoiceInstant(inv.Date, inv.Time, start.Location())
		if !ok {
			return false
		}
		return !at.Before(start) && !at.After(end)
	}
}

func customerPredicate(query string) predicate {
	lowered := strings.ToLower(query)
	return func(inv domain.Invoice) bool {
		cust := inv.Customer
		return containsFold(cust.Name, lowered) ||
			(cust.Phone != "" && strings.Contains(cust.Phone, query)) ||
			containsFold(cust.Email, lowered)
	}
}

func productPredicate(query string) predicate {
	lowered := strings.ToLower(query)
	return func(inv domain.Invoice) bool {
		for _, item := range inv.Items {
			if containsFold(item.ProductName, lowered) {
				return true
			}
		}
		return false
	}
}

func amountPredicate(r domain.AmountRange) predicate {
	lower := decimal.Zero
	if r.Min != nil {
		lower = *r.Min
	}
	return func(inv domain.Invoice) bool {
		amount := inv.Totals.FinalAmount
		if amount.LessThan(lower) {
			return false
		}
		return r.Max == nil || !amount.GreaterThan(*r.Max)
	}
}

func paymentModePredicate(query string) predicate {
	lowered := strings.ToLower(query)
	return func(inv domain.Invoice) bool {
		return containsFold(inv.Totals.PaymentMode, lowered)
	}
}

// containsFold expects needle already lower-cased. An empty field never
// matches.
func containsFold(field string, needle string) bool {
	if field == "" {
		return false
	}
	return strings.Contains(strings.ToLower(field), needle)
}

// Search matches the invoice number or customer name case-insensitively, or
// the phone number as typed.
func Search(invoices []domain.Invoice, term string) []domain.Invoice {
	trimmed := strings.TrimSpace(term)
	if trimmed == "" {
		return append([]domain.Invoice(nil), invoices...)
	}

	lowered := strings.ToLower(trimmed)
	result := make([]domain.Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if containsFold(inv.InvoiceNumber, lowered) ||
			containsFold(inv.Customer.Name, lowered) ||
			(inv.Customer.Phone != "" && strings.Contains(inv.Customer.Phone, trimmed)) {
			result = append(result, inv)
		}
	}
	return result
}

// Due returns the invoices that are not fully paid.
func Due(invoices []domain.Invoice) []domain.Invoice {
	result := make([]domain.Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if !inv.Totals.Paid() {
			result = append(result, inv)
		}
	}
	return result
}

package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicedesk/backend/internal/domain"
)

func sampleInvoices() []domain.Invoice {
	return []domain.Invoice{
		newInvoice("INV-1", "10/01/2024", "100",
			withCustomer("Asha Rao", "9876500001", "asha@shop.in"),
			withItem("Basmati Rice", 2, "40"),
			withPayment("Cash"),
			withTime("09:30")),
		newInvoice("INV-2", "20/01/2024", "250",
			withCustomer("Vikram", "9123400002", ""),
			withItem("Sunflower Oil", 1, "250"),
			withPayment("UPI"),
			withDue(1)),
		newInvoice("INV-3", "5/2/2024", "300",
			withCustomer("", "", "store@corp.com"),
			withItem("Rice Flour", 3, "100"),
			withPayment("Card"),
			withTime("6:45 PM")),
		newInvoice("INV-4", "bad-date", "75",
			withCustomer("Meena", "9000011111", "meena@mail.com"),
			withPayment("")),
	}
}

func TestFilterEmptyCriteriaReturnsInputInOrder(t *testing.T) {
	invoices := sampleInvoices()

	got := Filter(invoices, domain.FilterCriteria{})

	assert.Equal(t, invoices, got)
}

func TestFilterDateRangeIsInclusiveAndNeedsBothBounds(t *testing.T) {
	invoices := sampleInvoices()
	start := time.Date(2024, 1, 10, 9, 30, 0, 0, time.UTC)
	end := time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC)

	got := Filter(invoices, domain.FilterCriteria{DateRange: domain.DateRange{Start: &start, End: &end}})
	// INV-3 happens at 18:45 on the end day, after the end instant.
	assert.Equal(t, []string{"INV-1", "INV-2"}, invoiceNumbers(got))

	onlyStart := Filter(invoices, domain.FilterCriteria{DateRange: domain.DateRange{Start: &start}})
	assert.Len(t, onlyStart, len(invoices))
}

func TestFilterDateRangeUsesBoundLocation(t *testing.T) {
	kolkata := time.FixedZone("IST", 5*3600+1800)
	start := time.Date(2024, 2, 5, 0, 0, 0, 0, kolkata)
	end := time.Date(2024, 2, 5, 23, 59, 59, 0, kolkata)

	got := Filter(sampleInvoices(), domain.FilterCriteria{DateRange: domain.DateRange{Start: &start, End: &end}})

	assert.Equal(t, []string{"INV-3"}, invoiceNumbers(got))
}

func TestFilterCustomerMatchesNamePhoneOrEmail(t *testing.T) {
	invoices := sampleInvoices()

	assert.Equal(t, []string{"INV-1"}, invoiceNumbers(Filter(invoices, domain.FilterCriteria{Customer: "ASHA"})))
	assert.Equal(t, []string{"INV-2"}, invoiceNumbers(Filter(invoices, domain.FilterCriteria{Customer: "91234"})))
	assert.Equal(t, []string{"INV-3"}, invoiceNumbers(Filter(invoices, domain.FilterCriteria{Customer: "CORP.com"})))
	assert.Empty(t, Filter(invoices, domain.FilterCriteria{Customer: "nobody"}))
}

func TestFilterProductMatchesAnyLine(t *testing.T) {
	got := Filter(sampleInvoices(), domain.FilterCriteria{Product: "rice"})

	assert.Equal(t, []string{"INV-1", "INV-3"}, invoiceNumbers(got))
}

func TestFilterAmountRangeDefaults(t *testing.T) {
	invoices := sampleInvoices()

	onlyMax := Filter(invoices, domain.FilterCriteria{Amount: domain.AmountRange{Max: decPtr("100")}})
	assert.Equal(t, []string{"INV-1", "INV-4"}, invoiceNumbers(onlyMax))

	onlyMin := Filter(invoices, domain.FilterCriteria{Amount: domain.AmountRange{Min: decPtr("250")}})
	assert.Equal(t, []string{"INV-2", "INV-3"}, invoiceNumbers(onlyMin))

	both := Filter(invoices, domain.FilterCriteria{Amount: domain.AmountRange{Min: decPtr("100"), Max: decPtr("250")}})
	assert.Equal(t, []string{"INV-1", "INV-2"}, invoiceNumbers(both))
}

func TestFilterPaymentModeSubstring(t *testing.T) {
	got := Filter(sampleInvoices(), domain.FilterCriteria{PaymentMode: "ca"})

	assert.Equal(t, []string{"INV-1", "INV-3"}, invoiceNumbers(got))
}

func TestFilterCriterionOrderDoesNotMatter(t *testing.T) {
	invoices := sampleInvoices()
	a := domain.FilterCriteria{Product: "rice"}
	b := domain.FilterCriteria{PaymentMode: "card"}
	combined := domain.FilterCriteria{Product: "rice", PaymentMode: "card"}

	ab := Filter(Filter(invoices, a), b)
	ba := Filter(Filter(invoices, b), a)

	assert.Equal(t, ab, ba)
	assert.Equal(t, ab, Filter(invoices, combined))
	assert.Equal(t, []string{"INV-3"}, invoiceNumbers(ab))
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	invoices := sampleInvoices()
	snapshot := sampleInvoices()

	_ = Filter(invoices, domain.FilterCriteria{Customer: "asha", Product: "rice"})

	assert.Equal(t, snapshot, invoices)
}

func TestFilterHalfOpenDateRangeIsIgnored(t *testing.T) {
	invoices := sampleInvoices()
	start := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	criteria := domain.FilterCriteria{DateRange: domain.DateRange{Start: &start}}
	require.True(t, criteria.IsEmpty())

	got := Filter(invoices, criteria)
	assert.Equal(t, invoiceNumbers(invoices), invoiceNumbers(got))

	got[0].InvoiceNumber = "changed"
	assert.NotEqual(t, "changed", invoices[0].InvoiceNumber, "the result must not alias the input")
}

func TestSearch(t *testing.T) {
	invoices := sampleInvoices()

	assert.Equal(t, []string{"INV-2"}, invoiceNumbers(Search(invoices, "inv-2")))
	assert.Equal(t, []string{"INV-4"}, invoiceNumbers(Search(invoices, "meena")))
	assert.Equal(t, []string{"INV-1"}, invoiceNumbers(Search(invoices, "98765")))
	assert.Len(t, Search(invoices, "   "), len(invoices))
}

func TestDue(t *testing.T) {
	due := Due(sampleInvoices())

	require.Len(t, due, 1)
	assert.Equal(t, "INV-2", due[0].InvoiceNumber)
}

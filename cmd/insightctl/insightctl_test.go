package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicedesk/backend/internal/domain"
)

const exportFixture = `[
  {"_id": "a1", "invoiceNumber": "INV-1", "date": "05/01/2024", "customer": {"cname": "Asha", "cphone": "9876500001"},
   "items": [{"pname": "Rice", "qty": 2, "saleprice": 100}],
   "totals": {"finalAmount": 200, "paymentMode": "Cash", "dueStatus": 0}},
  {"_id": "a2", "invoiceNumber": "INV-2", "date": "20/01/2024", "customer": {"cname": "Ravi", "mailId": "ravi@example.in"},
   "items": [{"pname": "Oil", "qty": "1", "saleprice": "₹300.00"}],
   "totals": {"finalAmount": "₹300.00", "paymentMode": "Card", "dueStatus": 1}},
  {"_id": "a3", "invoiceNumber": "INV-3", "date": "03/02/2024", "customer": {"cname": "Asha"},
   "items": [{"pname": "Rice", "qty": 5, "saleprice": 100}],
   "totals": {"finalAmount": 500, "paymentMode": "cash", "dueStatus": 0}},
  {"_id": "a4", "date": "04/02/2024", "customer": {"cname": "Nobody"}, "totals": {"finalAmount": 999}}
]`

func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "invoices.json")
	require.NoError(t, os.WriteFile(path, []byte(exportFixture), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func invoiceNumbers(t *testing.T, out string) []string {
	t.Helper()
	var invoices []domain.Invoice
	require.NoError(t, json.Unmarshal([]byte(out), &invoices))
	numbers := make([]string, 0, len(invoices))
	for _, inv := range invoices {
		numbers = append(numbers, inv.InvoiceNumber)
	}
	return numbers
}

func TestAggregateTable(t *testing.T) {
	file := writeFixture(t)

	out, err := run(t, "aggregate", "--file", file, "--dimension", "year")
	require.NoError(t, err)
	assert.Contains(t, out, "Yearly Sales")
	assert.Contains(t, out, "YEAR")
	assert.Regexp(t, `2024\s+1000\.00\s+100\.0`, out)
	assert.Regexp(t, `Total\s+1000\.00\s+100\.0`, out)
}

func TestAggregateJSONWithFilters(t *testing.T) {
	file := writeFixture(t)

	out, err := run(t, "aggregate", "-f", file, "-d", "month", "--payment-mode", "CASH", "--json")
	require.NoError(t, err)

	var summary domain.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	require.Len(t, summary.Rows, 12)
	assert.Equal(t, "200.00", summary.Rows[0].Amount)
	assert.Equal(t, "500.00", summary.Rows[1].Amount)
	assert.Equal(t, "700.00", summary.Total.Amount)
}

func TestFilterCommand(t *testing.T) {
	file := writeFixture(t)

	out, err := run(t, "filter", "--file", file, "--start", "2024-01-01", "--end", "2024-01-31", "--json")
	require.NoError(t, err)
	assert.Equal(t, []string{"INV-1", "INV-2"}, invoiceNumbers(t, out))

	out, err = run(t, "filter", "--file", file, "--min", "250", "--json")
	require.NoError(t, err)
	assert.Equal(t, []string{"INV-2", "INV-3"}, invoiceNumbers(t, out))

	out, err = run(t, "filter", "--file", file)
	require.NoError(t, err)
	assert.Contains(t, out, "NUMBER")
	assert.Contains(t, out, "3 invoice(s)")
}

func TestDueCommand(t *testing.T) {
	file := writeFixture(t)

	out, err := run(t, "due", "--file", file, "--json")
	require.NoError(t, err)
	assert.Equal(t, []string{"INV-2"}, invoiceNumbers(t, out))

	out, err = run(t, "due", "--file", file)
	require.NoError(t, err)
	assert.Regexp(t, `INV-2\s+20/01/2024\s+Ravi\s+Card\s+300\.00\s+Pending`, out)
}

func TestSourceFlagsAreRequiredAndExclusive(t *testing.T) {
	_, err := run(t, "due")
	assert.Error(t, err)

	file := writeFixture(t)
	_, err = run(t, "due", "--file", file, "--remote", "http://127.0.0.1:1")
	assert.Error(t, err)
}

func TestBadInputsAreErrors(t *testing.T) {
	file := writeFixture(t)

	_, err := run(t, "aggregate", "--file", file, "--dimension", "weekly")
	assert.Error(t, err)

	_, err = run(t, "filter", "--file", file, "--min", "lots")
	assert.Error(t, err)

	_, err = run(t, "due", "--file", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = run(t, "due", "--remote", "http://127.0.0.1:1", "--timeout", "200ms")
	assert.Error(t, err)
}

func TestCustomerFilterMatchesEmail(t *testing.T) {
	file := writeFixture(t)

	out, err := run(t, "filter", "--file", file, "--customer", "@example.in", "--json")
	require.NoError(t, err)
	assert.Equal(t, []string{"INV-2"}, invoiceNumbers(t, out))

	filter, _, err := newRootCmd().Find([]string{"filter"})
	require.NoError(t, err)
	usage := filter.Flags().Lookup("customer").Usage
	assert.Contains(t, usage, "email")
	assert.Contains(t, usage, "phone")
}

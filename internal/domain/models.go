package domain

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"invoicedesk/backend/internal/money"
)

// Text accepts a JSON string or number; anything else decodes as empty.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	*t = ""
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			*t = Text(s)
		}
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		*t = Text(trimmed)
	}
	return nil
}

func (t Text) String() string {
	return string(t)
}

type RawCustomer struct {
	Name    string `json:"cname,omitempty"`
	Phone   Text   `json:"cphone,omitempty"`
	Email   string `json:"mailId,omitempty"`
	Address string `json:"address,omitempty"`
}

type RawLineItem struct {
	ProductName string       `json:"pname"`
	Quantity    money.Amount `json:"qty"`
	UnitPrice   money.Amount `json:"saleprice"`
	Discount    money.Amount `json:"discount"`
	GST         money.Amount `json:"gst"`
}

type RawTotals struct {
	TotalPrice      money.Amount `json:"totalPrice"`
	TotalDiscount   money.Amount `json:"totalDiscount"`
	TotalGST        money.Amount `json:"totalGST"`
	SpecialDiscount money.Amount `json:"specialDiscount"`
	FinalAmount     money.Amount `json:"finalAmount"`
	CashReceived    money.Amount `json:"cashReceived"`
	ChangeReturned  money.Amount `json:"changeToBeReturned"`
	PaymentMode     string       `json:"paymentMode,omitempty"`
	DueStatus       money.Amount `json:"dueStatus"`
}

// RawInvoice is an invoice exactly as the upstream service sends it.
type RawInvoice struct {
	ID            Text           `json:"_id,omitempty"`
	InvoiceNumber Text           `json:"invoiceNumber,omitempty"`
	Date          string         `json:"date,omitempty"`
	Time          string         `json:"time,omitempty"`
	Customer      *RawCustomer   `json:"customer,omitempty"`
	Items         []*RawLineItem `json:"items,omitempty"`
	Totals        *RawTotals     `json:"totals,omitempty"`
}

type Customer struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
}

type LineItem struct {
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Discount    decimal.Decimal `json:"discount"`
	GST         decimal.Decimal `json:"gst"`
}

// LineTotal is unit price times quantity, less discount, plus GST.
func (l LineItem) LineTotal() decimal.Decimal {
	return l.GrossSales().Sub(l.Discount).Add(l.GST)
}

func (l LineItem) GrossSales() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type InvoiceTotals struct {
	Subtotal        decimal.Decimal `json:"subtotal"`
	TotalDiscount   decimal.Decimal `json:"total_discount"`
	TotalGST        decimal.Decimal `json:"total_gst"`
	SpecialDiscount decimal.Decimal `json:"special_discount"`
	FinalAmount     decimal.Decimal `json:"final_amount"`
	CashReceived    decimal.Decimal `json:"cash_received"`
	ChangeReturned  decimal.Decimal `json:"change_returned"`
	PaymentMode     string          `json:"payment_mode"`
	DueStatus       int             `json:"due_status"`
}

func (t InvoiceTotals) Paid() bool {
	return t.DueStatus == 0
}

// Invoice is the canonical, normalized form produced by analytics.Validate.
type Invoice struct {
	ID            string        `json:"id"`
	InvoiceNumber string        `json:"invoice_number"`
	Date          string        `json:"date"`
	Time          string        `json:"time,omitempty"`
	Customer      Customer      `json:"customer"`
	Items         []LineItem    `json:"items"`
	Totals        InvoiceTotals `json:"totals"`
}

func (inv Invoice) Status() string {
	if inv.Totals.Paid() {
		return DueStatusPaid
	}
	return DueStatusPending
}

// Raw converts the invoice back to the upstream wire shape with every
// amount as a number.
func (inv Invoice) Raw() *RawInvoice {
	items := make([]*RawLineItem, 0, len(inv.Items))
	for _, item := range inv.Items {
		items = append(items, &RawLineItem{
			ProductName: item.ProductName,
			Quantity:    money.DecimalOf(decimal.NewFromInt(int64(item.Quantity))),
			UnitPrice:   money.DecimalOf(item.UnitPrice),
			Discount:    money.DecimalOf(item.Discount),
			GST:         money.DecimalOf(item.GST),
		})
	}

	return &RawInvoice{
		ID:            Text(inv.ID),
		InvoiceNumber: Text(inv.InvoiceNumber),
		Date:          inv.Date,
		Time:          inv.Time,
		Customer: &RawCustomer{
			Name:    inv.Customer.Name,
			Phone:   Text(inv.Customer.Phone),
			Email:   inv.Customer.Email,
			Address: inv.Customer.Address,
		},
		Items: items,
		Totals: &RawTotals{
			TotalPrice:      money.DecimalOf(inv.Totals.Subtotal),
			TotalDiscount:   money.DecimalOf(inv.Totals.TotalDiscount),
			TotalGST:        money.DecimalOf(inv.Totals.TotalGST),
			SpecialDiscount: money.DecimalOf(inv.Totals.SpecialDiscount),
			FinalAmount:     money.DecimalOf(inv.Totals.FinalAmount),
			CashReceived:    money.DecimalOf(inv.Totals.CashReceived),
			ChangeReturned:  money.DecimalOf(inv.Totals.ChangeReturned),
			PaymentMode:     inv.Totals.PaymentMode,
			DueStatus:       money.DecimalOf(decimal.NewFromInt(int64(inv.Totals.DueStatus))),
		},
	}
}

type DateRange struct {
	Start *time.Time
	End   *time.Time
}

type AmountRange struct {
	Min *decimal.Decimal
	Max *decimal.Decimal
}

// FilterCriteria narrows an invoice collection. Zero values impose no
// constraint.
type FilterCriteria struct {
	DateRange   DateRange
	Customer    string
	Product     string
	Amount      AmountRange
	PaymentMode string
}

func (c FilterCriteria) IsEmpty() bool {
	return (c.DateRange.Start == nil || c.DateRange.End == nil) &&
		c.Customer == "" &&
		c.Product == "" &&
		c.Amount.Min == nil && c.Amount.Max == nil &&
		c.PaymentMode == ""
}

type Dimension string

const (
	DimensionMonth       Dimension = "month"
	DimensionYear        Dimension = "year"
	DimensionPaymentMode Dimension = "payment"
	DimensionProduct     Dimension = "product"
	DimensionDay         Dimension = "day"
)

func (d Dimension) Title() string {
	switch d {
	case DimensionMonth:
		return "Monthly Sales"
	case DimensionYear:
		return "Yearly Sales"
	case DimensionPaymentMode:
		return "Payment Methods"
	case DimensionProduct:
		return "Product Sales"
	case DimensionDay:
		return "Daily Sales"
	default:
		return strings.TrimSpace(string(d))
	}
}

// Column is the heading for the label column of a summary table.
func (d Dimension) Column() string {
	switch d {
	case DimensionMonth:
		return "Month"
	case DimensionYear:
		return "Year"
	case DimensionPaymentMode:
		return "Payment Mode"
	case DimensionProduct:
		return "Product"
	case DimensionDay:
		return "Date"
	default:
		return "Label"
	}
}

type Bucket struct {
	Label      string          `json:"label"`
	Amount     decimal.Decimal `json:"amount"`
	Percentage decimal.Decimal `json:"percentage"`
}

type Series struct {
	Dimension Dimension       `json:"dimension"`
	Buckets   []Bucket        `json:"buckets"`
	Total     decimal.Decimal `json:"total"`
}

func (s Series) Labels() []string {
	labels := make([]string, 0, len(s.Buckets))
	for _, b := range s.Buckets {
		labels = append(labels, b.Label)
	}
	return labels
}

type SummaryRow struct {
	Label      string `json:"label"`
	Amount     string `json:"amount"`
	Percentage string `json:"percentage"`
}

type Summary struct {
	Dimension Dimension    `json:"dimension"`
	Title     string       `json:"title"`
	Rows      []SummaryRow `json:"rows"`
	Total     SummaryRow   `json:"total"`
}

type Product struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	Price money.Amount `json:"price"`
	Stock int          `json:"stock"`
}

type CustomerRecord struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
}

type DashboardMetrics struct {
	Date           string `json:"date"`
	TodaySales     string `json:"today_sales"`
	TodayInvoices  int    `json:"today_invoices"`
	TotalInvoices  int    `json:"total_invoices"`
	DueBills       int    `json:"due_bills"`
	DueAmount      string `json:"due_amount"`
	TotalProducts  int    `json:"total_products"`
	TotalCustomers int    `json:"total_customers"`
	GeneratedAt    string `json:"generated_at"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

type StaffCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type StaffUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

const (
	RoleManager = "manager"
	RoleVendor  = "vendor"
)

const (
	DueStatusPaid    = "Paid"
	DueStatusPending = "Pending"
)

const UnknownLabel = "Unknown"

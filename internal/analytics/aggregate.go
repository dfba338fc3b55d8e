package analytics

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"invoicedesk/backend/internal/domain"
)

var monthLabels = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

var hundred = decimal.NewFromInt(100)

// ParseDimension accepts the canonical dimension names and the dashboard's
// older aliases.
func ParseDimension(value string) (domain.Dimension, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "month", "monthly":
		return domain.DimensionMonth, nil
	case "year", "yearly":
		return domain.DimensionYear, nil
	case "payment", "payment_mode", "payment-mode":
		return domain.DimensionPaymentMode, nil
	case "product", "products":
		return domain.DimensionProduct, nil
	case "day", "daywise", "daily":
		return domain.DimensionDay, nil
	default:
		return "", fmt.Errorf("unknown aggregation dimension %q", value)
	}
}

// Aggregate buckets invoice amounts along dim. It recomputes from scratch on
// every call and never mutates its input.
func Aggregate(invoices []domain.Invoice, dim domain.Dimension) domain.Series {
	var buckets []domain.Bucket
	switch dim {
	case domain.DimensionMonth:
		buckets = byMonth(invoices)
	case domain.DimensionYear:
		buckets = byYear(invoices)
	case domain.DimensionPaymentMode:
		buckets = byPaymentMode(invoices)
	case domain.DimensionProduct:
		buckets = byProduct(invoices)
	case domain.DimensionDay:
		buckets = byDay(invoices)
	default:
		buckets = []domain.Bucket{}
	}

	total := decimal.Zero
	for _, b := range buckets {
		total = total.Add(b.Amount)
	}
	for i := range buckets {
		buckets[i].Percentage = share(buckets[i].Amount, total)
	}

	return domain.Series{Dimension: dim, Buckets: buckets, Total: total}
}

// share is amount/total*100, or zero when total is zero.
func share(amount decimal.Decimal, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return amount.Mul(hundred).Div(total)
}

func byMonth(invoices []domain.Invoice) []domain.Bucket {
	buckets := make([]domain.Bucket, len(monthLabels))
	for i, label := range monthLabels {
		buckets[i] = domain.Bucket{Label: label, Amount: decimal.Zero}
	}
	for _, inv := range invoices {
		_, monthText, _ := splitDate(inv.Date)
		month, err := strconv.Atoi(monthText)
		if err != nil || month < 1 || month > 12 {
			continue
		}
		buckets[month-1].Amount = buckets[month-1].Amount.Add(inv.Totals.FinalAmount)
	}
	return buckets
}

func byYear(invoices []domain.Invoice) []domain.Bucket {
	acc := newAccumulator()
	for _, inv := range invoices {
		_, _, year := splitDate(inv.Date)
		if year == "" {
			continue
		}
		acc.add(year, inv.Totals.FinalAmount)
	}

	buckets := acc.buckets()
	sort.SliceStable(buckets, func(i, j int) bool {
		return yearLess(buckets[i].Label, buckets[j].Label)
	})
	return buckets
}

func yearLess(a string, b string) bool {
	ai, errA := strconv.Atoi(a)
	bi, errB := strconv.Atoi(b)
	if errA == nil && errB == nil && ai != bi {
		return ai < bi
	}
	return a < b
}

func byPaymentMode(invoices []domain.Invoice) []domain.Bucket {
	acc := newAccumulator()
	for _, inv := range invoices {
		mode := inv.Totals.PaymentMode
		if mode == "" {
			mode = domain.UnknownLabel
		}
		acc.add(mode, inv.Totals.FinalAmount)
	}
	return acc.buckets()
}

func byProduct(invoices []domain.Invoice) []domain.Bucket {
	acc := newAccumulator()
	for _, inv := range invoices {
		for _, item := range inv.Items {
			name := item.ProductName
			if strings.TrimSpace(name) == "" {
				name = domain.UnknownLabel
			}
			acc.add(name, item.GrossSales())
		}
	}

	buckets := acc.buckets()
	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].Amount.GreaterThan(buckets[j].Amount)
	})
	return buckets
}

func byDay(invoices []domain.Invoice) []domain.Bucket {
	acc := newAccumulator()
	dates := make(map[string]civilDate)
	for _, inv := range invoices {
		d, ok := parseCivilDate(inv.Date)
		if !ok {
			continue
		}
		label := d.label()
		dates[label] = d
		acc.add(label, inv.Totals.FinalAmount)
	}

	buckets := acc.buckets()
	sort.SliceStable(buckets, func(i, j int) bool {
		return dates[buckets[i].Label].before(dates[buckets[j].Label])
	})
	return buckets
}

// accumulator sums amounts per label and remembers first-observed order.
type accumulator struct {
	index  map[string]int
	labels []string
	sums   []decimal.Decimal
}

func newAccumulator() *accumulator {
	return &accumulator{index: make(map[string]int)}
}

func (a *accumulator) add(label string, amount decimal.Decimal) {
	i, ok := a.index[label]
	if !ok {
		i = len(a.labels)
		a.index[label] = i
		a.labels = append(a.labels, label)
		a.sums = append(a.sums, decimal.Zero)
	}
	a.sums[i] = a.sums[i].Add(amount)
}

func (a *accumulator) buckets() []domain.Bucket {
	buckets := make([]domain.Bucket, 0, len(a.labels))
	for i, label := range a.labels {
		buckets = append(buckets, domain.Bucket{Label: label, Amount: a.sums[i]})
	}
	return buckets
}

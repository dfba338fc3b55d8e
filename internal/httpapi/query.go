package httpapi

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"invoicedesk/backend/internal/domain"
)

var validate = validator.New()

type invoiceQuery struct {
	Start       string `validate:"max=40"`
	End         string `validate:"max=40"`
	Customer    string `validate:"max=100"`
	Product     string `validate:"max=100"`
	Min         string `validate:"omitempty,numeric"`
	Max         string `validate:"omitempty,numeric"`
	PaymentMode string `validate:"max=50"`
}

type insightsQuery struct {
	invoiceQuery
	Dimension string `validate:"required,oneof=month monthly year yearly payment payment_mode payment-mode product products day daywise daily"`
	Format    string `validate:"omitempty,oneof=json xlsx html"`
}

type searchQuery struct {
	Term string `validate:"max=100"`
}

func readInvoiceQuery(values url.Values) invoiceQuery {
	return invoiceQuery{
		Start:       strings.TrimSpace(values.Get("start")),
		End:         strings.TrimSpace(values.Get("end")),
		Customer:    strings.TrimSpace(values.Get("customer")),
		Product:     strings.TrimSpace(values.Get("product")),
		Min:         strings.TrimSpace(values.Get("min")),
		Max:         strings.TrimSpace(values.Get("max")),
		PaymentMode: strings.TrimSpace(values.Get("payment_mode")),
	}
}

// ParseCriteria validates the filter query parameters and converts them into
// FilterCriteria. Date-only bounds are read in loc; the end bound covers the
// whole day.
func ParseCriteria(values url.Values, loc *time.Location) (domain.FilterCriteria, error) {
	q := readInvoiceQuery(values)
	if err := validateQuery(q); err != nil {
		return domain.FilterCriteria{}, err
	}
	return q.criteria(loc)
}

func parseInsightsQuery(values url.Values, loc *time.Location) (insightsQuery, domain.FilterCriteria, error) {
	q := insightsQuery{
		invoiceQuery: readInvoiceQuery(values),
		Dimension:    strings.ToLower(strings.TrimSpace(values.Get("dimension"))),
		Format:       strings.ToLower(strings.TrimSpace(values.Get("format"))),
	}
	if err := validateQuery(q); err != nil {
		return insightsQuery{}, domain.FilterCriteria{}, err
	}
	if q.Format == "" {
		q.Format = "json"
	}
	criteria, err := q.criteria(loc)
	return q, criteria, err
}

func (q invoiceQuery) criteria(loc *time.Location) (domain.FilterCriteria, error) {
	criteria := domain.FilterCriteria{
		Customer:    q.Customer,
		Product:     q.Product,
		PaymentMode: q.PaymentMode,
	}

	if q.Start != "" {
		start, err := parseBound(q.Start, loc, false)
		if err != nil {
			return domain.FilterCriteria{}, fmt.Errorf("start: %w", err)
		}
		criteria.DateRange.Start = &start
	}
	if q.End != "" {
		end, err := parseBound(q.End, loc, true)
		if err != nil {
			return domain.FilterCriteria{}, fmt.Errorf("end: %w", err)
		}
		criteria.DateRange.End = &end
	}
	if criteria.DateRange.Start != nil && criteria.DateRange.End != nil && criteria.DateRange.End.Before(*criteria.DateRange.Start) {
		return domain.FilterCriteria{}, errors.New("end must not be before start")
	}

	if q.Min != "" {
		lower, err := decimal.NewFromString(q.Min)
		if err != nil {
			return domain.FilterCriteria{}, fmt.Errorf("min: %w", err)
		}
		criteria.Amount.Min = &lower
	}
	if q.Max != "" {
		upper, err := decimal.NewFromString(q.Max)
		if err != nil {
			return domain.FilterCriteria{}, fmt.Errorf("max: %w", err)
		}
		criteria.Amount.Max = &upper
	}

	return criteria, nil
}

// parseBound accepts YYYY-MM-DD or RFC3339. A date-only end bound is moved to
// the last instant of that day.
func parseBound(value string, loc *time.Location, endOfDay bool) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	if day, err := time.ParseInLocation("2006-01-02", value, loc); err == nil {
		if endOfDay {
			return day.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
		}
		return day, nil
	}
	instant, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected YYYY-MM-DD or RFC3339, got %q", value)
	}
	return instant.In(loc), nil
}

func validateQuery(q any) error {
	err := validate.Struct(q)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return fmt.Errorf("invalid query parameter %s (%s)", queryName(fe.Field()), fe.Tag())
	}
	return err
}

func queryName(field string) string {
	switch field {
	case "PaymentMode":
		return "payment_mode"
	case "Term":
		return "q"
	default:
		return strings.ToLower(field)
	}
}

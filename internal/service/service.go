package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"invoicedesk/backend/internal/analytics"
	"invoicedesk/backend/internal/cache"
	"invoicedesk/backend/internal/domain"
	"invoicedesk/backend/internal/export"
	"invoicedesk/backend/internal/money"
	"invoicedesk/backend/internal/store"
)

const snapshotKey = "invoicedesk:snapshot:invoices"

const (
	FormatJSON = "json"
	FormatXLSX = "xlsx"
	FormatHTML = "html"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

// Observer receives snapshot and aggregation events. *metrics.Metrics
// satisfies it.
type Observer interface {
	ObserveSnapshot(origin string, validInvoices int)
	ObserveAggregation(dimension string)
}

type noopObserver struct{}

func (noopObserver) ObserveSnapshot(string, int) {}
func (noopObserver) ObserveAggregation(string)   {}

type Options struct {
	// CacheTTL of zero disables the snapshot cache.
	CacheTTL time.Duration
	// Location decides what "today" is on the dashboard. Defaults to UTC.
	Location *time.Location
	Logger   *zap.Logger
	Now      func() time.Time
	Observer Observer
}

type Service struct {
	source    store.InvoiceSource
	snapshots cache.SnapshotCache
	cacheTTL  time.Duration
	location  *time.Location
	logger    *zap.Logger
	now       func() time.Time
	observer  Observer
}

func New(source store.InvoiceSource, snapshots cache.SnapshotCache, opts Options) *Service {
	if snapshots == nil {
		snapshots = cache.NoopSnapshotCache{}
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Observer == nil {
		opts.Observer = noopObserver{}
	}

	return &Service{
		source:    source,
		snapshots: snapshots,
		cacheTTL:  opts.CacheTTL,
		location:  opts.Location,
		logger:    opts.Logger,
		now:       opts.Now,
		observer:  opts.Observer,
	}
}

func (s *Service) Location() *time.Location {
	return s.location
}

// snapshot fetches the raw collection (cache first) and validates it. The
// analytics core never runs on a failed fetch.
func (s *Service) snapshot(ctx context.Context) ([]domain.Invoice, error) {
	var (
		raw    []*domain.RawInvoice
		cached bool
		err    error
	)
	if s.cacheTTL > 0 {
		raw, cached, err = s.snapshots.Get(ctx, snapshotKey)
		if err != nil {
			s.logger.Warn("snapshot cache read failed", zap.Error(err))
			cached = false
		}
	}

	origin := "cache"
	if !cached {
		origin = "source"
		raw, err = s.source.ListInvoices(ctx)
		if err != nil {
			s.observer.ObserveSnapshot("error", 0)
			return nil, fmt.Errorf("load invoices: %w", err)
		}
		if s.cacheTTL > 0 {
			if err := s.snapshots.Set(ctx, snapshotKey, raw, s.cacheTTL); err != nil {
				s.logger.Warn("snapshot cache write failed", zap.Error(err))
			}
		}
	}

	invoices := analytics.Validate(raw)
	s.observer.ObserveSnapshot(origin, len(invoices))
	s.logger.Debug("invoice snapshot loaded",
		zap.String("origin", origin),
		zap.Int("records", len(raw)),
		zap.Int("valid", len(invoices)),
	)
	return invoices, nil
}

func (s *Service) Invoices(ctx context.Context, criteria domain.FilterCriteria) ([]domain.Invoice, error) {
	invoices, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.Filter(invoices, criteria), nil
}

func (s *Service) Search(ctx context.Context, term string) ([]domain.Invoice, error) {
	invoices, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.Search(invoices, term), nil
}

func (s *Service) Invoice(ctx context.Context, number string) (domain.Invoice, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return domain.Invoice{}, store.ErrInvalidInput
	}

	invoices, err := s.snapshot(ctx)
	if err != nil {
		return domain.Invoice{}, err
	}
	for _, inv := range invoices {
		if inv.InvoiceNumber == number {
			return inv, nil
		}
	}
	return domain.Invoice{}, fmt.Errorf("invoice %s: %w", number, store.ErrNotFound)
}

func (s *Service) DueInvoices(ctx context.Context) ([]domain.Invoice, error) {
	invoices, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.Due(invoices), nil
}

// Insights filters the snapshot, aggregates it along dimension and projects
// the result for display.
func (s *Service) Insights(ctx context.Context, dimension string, criteria domain.FilterCriteria) (domain.Summary, error) {
	dim, err := analytics.ParseDimension(dimension)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("%w: %v", store.ErrInvalidInput, err)
	}

	invoices, err := s.snapshot(ctx)
	if err != nil {
		return domain.Summary{}, err
	}

	s.observer.ObserveAggregation(string(dim))
	series := analytics.Aggregate(analytics.Filter(invoices, criteria), dim)
	return analytics.Project(series), nil
}

func (s *Service) Dashboard(ctx context.Context) (domain.DashboardMetrics, error) {
	invoices, err := s.snapshot(ctx)
	if err != nil {
		return domain.DashboardMetrics{}, err
	}
	products, err := s.source.ListProducts(ctx)
	if err != nil {
		return domain.DashboardMetrics{}, fmt.Errorf("load products: %w", err)
	}
	customers, err := s.source.ListCustomers(ctx)
	if err != nil {
		return domain.DashboardMetrics{}, fmt.Errorf("load customers: %w", err)
	}

	now := s.now().In(s.location)
	todaySales := decimal.Zero
	todayInvoices := 0
	for _, inv := range invoices {
		day, ok := analytics.ParseDate(inv.Date, s.location)
		if !ok || !sameDay(day, now) {
			continue
		}
		todayInvoices++
		todaySales = todaySales.Add(inv.Totals.FinalAmount)
	}

	due := analytics.Due(invoices)
	dueAmount := decimal.Zero
	for _, inv := range due {
		dueAmount = dueAmount.Add(inv.Totals.FinalAmount)
	}

	return domain.DashboardMetrics{
		Date:           now.Format("02/01/2006"),
		TodaySales:     money.Format(todaySales),
		TodayInvoices:  todayInvoices,
		TotalInvoices:  len(invoices),
		DueBills:       len(due),
		DueAmount:      money.Format(dueAmount),
		TotalProducts:  len(products),
		TotalCustomers: len(customers),
		GeneratedAt:    now.Format(time.RFC3339),
	}, nil
}

func (s *Service) ExportInvoices(ctx context.Context, criteria domain.FilterCriteria) ([]byte, error) {
	invoices, err := s.Invoices(ctx, criteria)
	if err != nil {
		return nil, err
	}
	return export.InvoicesWorkbook(invoices)
}

// ExportInsights renders the summary as an xlsx workbook or a printable html
// page and returns the payload with its content type.
func (s *Service) ExportInsights(ctx context.Context, dimension string, criteria domain.FilterCriteria, format string) ([]byte, string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != FormatXLSX && format != FormatHTML {
		return nil, "", fmt.Errorf("%w: unsupported export format %q", store.ErrInvalidInput, format)
	}

	summary, err := s.Insights(ctx, dimension, criteria)
	if err != nil {
		return nil, "", err
	}

	if format == FormatHTML {
		data, err := export.SummaryHTML(summary)
		return data, export.HTMLContentType, err
	}
	data, err := export.SummaryWorkbook(summary)
	return data, export.XLSXContentType, err
}

func (s *Service) PrintInvoice(ctx context.Context, number string) ([]byte, error) {
	inv, err := s.Invoice(ctx, number)
	if err != nil {
		return nil, err
	}
	return export.InvoicePDF(inv)
}

func sameDay(a time.Time, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

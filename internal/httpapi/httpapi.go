package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"invoicedesk/backend/internal/domain"
	"invoicedesk/backend/internal/export"
	"invoicedesk/backend/internal/metrics"
	"invoicedesk/backend/internal/service"
	"invoicedesk/backend/internal/store"
	"invoicedesk/backend/internal/xid"
)

type Config struct {
	AllowedOrigin string
	Logger        *zap.Logger
	Metrics       *metrics.Metrics
}

type API struct {
	service      *service.Service
	auth         *AuthManager
	cors         *cors.Cors
	logger       *zap.Logger
	metrics      *metrics.Metrics
	loginLimiter *attemptLimiter
}

func New(svc *service.Service, auth *AuthManager, cfg Config) *API {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.New()
	}
	origins := []string{}
	if origin := strings.TrimSpace(cfg.AllowedOrigin); origin != "" {
		origins = append(origins, origin)
	}

	return &API{
		service: svc,
		auth:    auth,
		cors: cors.New(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
			ExposedHeaders: []string{"Content-Disposition", "X-Request-ID"},
			MaxAge:         300,
		}),
		logger:       cfg.Logger,
		metrics:      cfg.Metrics,
		loginLimiter: newAttemptLimiter(5, time.Minute),
	}
}

type attemptLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	entries map[string][]time.Time
}

func newAttemptLimiter(max int, window time.Duration) *attemptLimiter {
	if max < 1 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &attemptLimiter{max: max, window: window, entries: make(map[string][]time.Time)}
}

func (l *attemptLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	now := time.Now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	history := l.entries[key]
	kept := make([]time.Time, 0, len(history)+1)
	for _, ts := range history {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.max {
		l.entries[key] = kept
		return false
	}
	kept = append(kept, now)
	l.entries[key] = kept
	return true
}

func clientKey(r *http.Request) string {
	host := strings.TrimSpace(r.RemoteAddr)
	if host == "" {
		return "unknown"
	}
	if addr, err := netip.ParseAddrPort(host); err == nil {
		return addr.Addr().String()
	}
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		return host[:idx]
	}
	return host
}

func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", a.handleHealth)
	mux.Handle("/metrics", a.metrics.Handler())
	mux.HandleFunc("/api/v1/auth/login", a.handleLogin)

	mux.HandleFunc("/api/v1/invoices", a.requireAuth(a.handleInvoices, domain.RoleManager, domain.RoleVendor))
	mux.HandleFunc("/api/v1/invoices/search", a.requireAuth(a.handleInvoiceSearch, domain.RoleManager, domain.RoleVendor))
	mux.HandleFunc("/api/v1/invoices/due", a.requireAuth(a.handleDueInvoices, domain.RoleManager, domain.RoleVendor))
	mux.HandleFunc("/api/v1/invoices/export", a.requireAuth(a.handleInvoiceExport, domain.RoleManager))
	mux.HandleFunc("/api/v1/invoices/{number}", a.requireAuth(a.handleInvoice, domain.RoleManager, domain.RoleVendor))
	mux.HandleFunc("/api/v1/invoices/{number}/print", a.requireAuth(a.handleInvoicePrint, domain.RoleManager, domain.RoleVendor))

	mux.HandleFunc("/api/v1/insights", a.requireAuth(a.handleInsights, domain.RoleManager))
	mux.HandleFunc("/api/v1/dashboard", a.requireAuth(a.handleDashboard, domain.RoleManager, domain.RoleVendor))
	mux.HandleFunc("/api/v1/users/staff", a.requireAuth(a.handleStaff, domain.RoleManager))

	return a.withMiddleware(a.cors.Handler(mux))
}

func (a *API) requireAuth(next http.HandlerFunc, roles ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authorization := strings.TrimSpace(r.Header.Get("Authorization"))
		if !strings.HasPrefix(strings.ToLower(authorization), "bearer ") {
			writeError(w, http.StatusUnauthorized, errors.New("missing bearer token"))
			return
		}

		token := strings.TrimSpace(authorization[len("Bearer "):])
		actor, err := a.auth.ParseToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err)
			return
		}

		if len(roles) > 0 && !isRoleAllowed(actor.Role, roles) {
			writeError(w, http.StatusForbidden, errors.New("forbidden role"))
			return
		}

		next(w, r.WithContext(service.WithActor(r.Context(), actor)))
	}
}

func isRoleAllowed(role string, allowed []string) bool {
	for _, allow := range allowed {
		if role == allow {
			return true
		}
	}
	return false
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	if !a.loginLimiter.Allow(clientKey(r)) {
		writeError(w, http.StatusTooManyRequests, errors.New("too many login attempts"))
		return
	}

	var req domain.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	resp, err := a.auth.Login(r.Context(), req)
	if err != nil {
		a.logger.Info("login rejected", zap.String("username", req.Username), zap.String("client", clientKey(r)))
		writeError(w, http.StatusUnauthorized, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleInvoices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	criteria, err := ParseCriteria(r.URL.Query(), a.service.Location())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	invoices, err := a.service.Invoices(r.Context(), criteria)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"invoices": invoices, "count": len(invoices)})
}

func (a *API) handleInvoiceSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	q := searchQuery{Term: strings.TrimSpace(r.URL.Query().Get("q"))}
	if err := validateQuery(q); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	invoices, err := a.service.Search(r.Context(), q.Term)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"invoices": invoices, "count": len(invoices)})
}

func (a *API) handleDueInvoices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	invoices, err := a.service.DueInvoices(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"invoices": invoices, "count": len(invoices)})
}

func (a *API) handleInvoiceExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	criteria, err := ParseCriteria(r.URL.Query(), a.service.Location())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	data, err := a.service.ExportInvoices(r.Context(), criteria)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeFile(w, export.XLSXContentType, "invoices_report.xlsx", data)
}

func (a *API) handleInvoice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	inv, err := a.service.Invoice(r.Context(), r.PathValue("number"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"invoice": inv, "status": inv.Status()})
}

func (a *API) handleInvoicePrint(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	number := r.PathValue("number")
	data, err := a.service.PrintInvoice(r.Context(), number)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeFile(w, export.PDFContentType, fmt.Sprintf("invoice-%s.pdf", safeFilename(number)), data)
}

func (a *API) handleInsights(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	q, criteria, err := parseInsightsQuery(r.URL.Query(), a.service.Location())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if q.Format == service.FormatJSON {
		summary, err := a.service.Insights(r.Context(), q.Dimension, criteria)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, summary)
		return
	}

	data, contentType, err := a.service.ExportInsights(r.Context(), q.Dimension, criteria, q.Format)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if q.Format == service.FormatHTML {
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}
	writeFile(w, contentType, fmt.Sprintf("insights-%s.xlsx", safeFilename(q.Dimension)), data)
}

func (a *API) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	dashboard, err := a.service.Dashboard(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}

func (a *API) handleStaff(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		staff := a.auth.ListStaff(r.Context())
		writeJSON(w, http.StatusOK, map[string]any{"staff": staff})
	case http.MethodPost:
		var req domain.StaffCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		user, err := a.auth.CreateStaff(r.Context(), req)
		if err != nil {
			a.fail(w, r, err)
			return
		}

		actor, _ := service.ActorFromContext(r.Context())
		a.logger.Info("staff account created", zap.String("username", user.Username), zap.String("by", actor.Username))
		writeJSON(w, http.StatusCreated, map[string]any{"staff": user})
	default:
		writeMethodNotAllowed(w)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}

func (a *API) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if !xid.Accept(requestID) {
			requestID = xid.New("req")
		}

		w.Header().Set("X-Request-ID", requestID)
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")

		if r.Method == http.MethodPost && strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
			r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		}

		rec := &statusRecorder{ResponseWriter: w}
		startedAt := time.Now()
		next.ServeHTTP(rec, r)
		elapsed := time.Since(startedAt)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}

		// The mux fills in r.Pattern while routing.
		a.metrics.ObserveRequest(r.Pattern, rec.status, elapsed)
		a.logger.Info("request",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("route", r.Pattern),
			zap.Int("status", rec.status),
			zap.Duration("duration", elapsed),
		)
	})
}

// fail maps service errors onto HTTP statuses.
func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrUnavailable):
		status = http.StatusBadGateway
	}
	if status >= 500 {
		a.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	writeError(w, status, err)
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return err
	}
	return nil
}

func safeFilename(value string) string {
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "file"
	}
	return b.String()
}

func writeFile(w http.ResponseWriter, contentType string, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

// writeError keeps 5xx messages generic; 4xx messages are user-facing.
func writeError(w http.ResponseWriter, status int, err error) {
	msg := err.Error()
	if status >= 500 {
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

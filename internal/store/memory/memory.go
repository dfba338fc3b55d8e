package memory

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"invoicedesk/backend/internal/domain"
	"invoicedesk/backend/internal/store"
)

//go:embed seed.json
var seedDocument []byte

type Store struct {
	mu              sync.RWMutex
	invoices        []*domain.RawInvoice
	products        []domain.Product
	customers       []domain.CustomerRecord
	usersByUsername map[string]domain.UserAccount
}

type dataset struct {
	Invoices  []*domain.RawInvoice    `json:"invoices"`
	Products  []domain.Product        `json:"products"`
	Customers []domain.CustomerRecord `json:"customers"`
}

// Load builds a store from a JSON document. The document is either an object
// with invoices, products and customers, or a bare array of invoices as the
// upstream /api/invoices/all endpoint returns it.
func Load(data []byte) (*Store, error) {
	var ds dataset
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(data, &ds.Invoices); err != nil {
			return nil, fmt.Errorf("decode invoices: %w", err)
		}
	} else if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}

	return &Store{
		invoices:        ds.Invoices,
		products:        ds.Products,
		customers:       ds.Customers,
		usersByUsername: map[string]domain.UserAccount{},
	}, nil
}

// NewSeeded returns the demo dataset. Amounts are deliberately stored in mixed
// shapes (numbers, currency strings, missing) and some records are malformed.
func NewSeeded(logger *zap.Logger) *Store {
	s, err := Load(seedDocument)
	if err != nil {
		panic(fmt.Sprintf("memory: embedded seed is invalid: %v", err))
	}
	s.usersByUsername = seedUsers(logger)
	return s
}

// seedUsers builds the demo accounts. Passwords come from
// SEED_MANAGER_PASSWORD and SEED_VENDOR_PASSWORD; dev defaults are used with a
// warning when they are unset.
func seedUsers(logger *zap.Logger) map[string]domain.UserAccount {
	if logger == nil {
		logger = zap.NewNop()
	}
	managerPwd := envOr("SEED_MANAGER_PASSWORD", "manager123")
	vendorPwd := envOr("SEED_VENDOR_PASSWORD", "vendor123")
	if os.Getenv("SEED_MANAGER_PASSWORD") == "" || os.Getenv("SEED_VENDOR_PASSWORD") == "" {
		logger.Warn("memory store is using default dev credentials; set SEED_MANAGER_PASSWORD and SEED_VENDOR_PASSWORD to override")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"manager", managerPwd, domain.RoleManager},
		{"vendor", vendorPwd, domain.RoleVendor},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			logger.Fatal("failed to hash seed password", zap.String("username", u.username), zap.Error(err))
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// ListInvoices returns deep copies so callers can never alter the snapshot.
func (s *Store) ListInvoices(_ context.Context) ([]*domain.RawInvoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	invoices := make([]*domain.RawInvoice, 0, len(s.invoices))
	for _, inv := range s.invoices {
		invoices = append(invoices, cloneInvoice(inv))
	}
	return invoices, nil
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.products), nil
}

func (s *Store) ListCustomers(_ context.Context) ([]domain.CustomerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.customers), nil
}

// AddInvoice appends a raw invoice to the snapshot.
func (s *Store) AddInvoice(inv *domain.RawInvoice) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.invoices = append(s.invoices, cloneInvoice(inv))
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username := strings.ToLower(strings.TrimSpace(user.Username))
	if username == "" || strings.TrimSpace(user.Password) == "" {
		return store.ErrInvalidInput
	}
	if _, exists := s.usersByUsername[username]; exists {
		return store.ErrInvalidInput
	}
	user.Username = username
	if user.Role == "" {
		user.Role = domain.RoleVendor
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.Active = true
	s.usersByUsername[user.Username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, user := range s.usersByUsername {
		users = append(users, user)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return strings.Compare(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return store.ErrInvalidInput
	}
	user, exists := s.usersByUsername[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}

func cloneInvoice(src *domain.RawInvoice) *domain.RawInvoice {
	if src == nil {
		return nil
	}
	dst := *src
	if src.Customer != nil {
		customer := *src.Customer
		dst.Customer = &customer
	}
	if src.Totals != nil {
		totals := *src.Totals
		dst.Totals = &totals
	}
	if src.Items != nil {
		dst.Items = make([]*domain.RawLineItem, len(src.Items))
		for i, item := range src.Items {
			if item == nil {
				continue
			}
			copyItem := *item
			dst.Items[i] = &copyItem
		}
	}
	return &dst
}

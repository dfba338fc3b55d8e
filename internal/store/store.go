package store

import (
	"context"
	"errors"

	"invoicedesk/backend/internal/domain"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnavailable  = errors.New("invoice source unavailable")
	ErrInvalidInput = errors.New("invalid input")
)

// InvoiceSource is where raw invoice snapshots come from.
type InvoiceSource interface {
	ListInvoices(ctx context.Context) ([]*domain.RawInvoice, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	ListCustomers(ctx context.Context) ([]domain.CustomerRecord, error)
}

type UserStore interface {
	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}

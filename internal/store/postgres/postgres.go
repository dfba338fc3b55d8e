package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"invoicedesk/backend/internal/domain"
	"invoicedesk/backend/internal/money"
	"invoicedesk/backend/internal/store"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// ListInvoices decodes every stored document. A document that is not valid
// JSON is skipped so one bad row never hides the rest of the snapshot.
func (s *Store) ListInvoices(ctx context.Context) ([]*domain.RawInvoice, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT document
		FROM invoices
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: query invoices: %v", store.ErrUnavailable, err)
	}
	defer rows.Close()

	invoices := make([]*domain.RawInvoice, 0, 256)
	for rows.Next() {
		var document []byte
		if err := rows.Scan(&document); err != nil {
			return nil, err
		}
		var raw domain.RawInvoice
		if err := json.Unmarshal(document, &raw); err != nil {
			continue
		}
		invoices = append(invoices, &raw)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return invoices, nil
}

// InsertInvoice stores a raw invoice document as-is.
func (s *Store) InsertInvoice(ctx context.Context, raw *domain.RawInvoice) error {
	if raw == nil {
		return store.ErrInvalidInput
	}
	document, err := json.Marshal(raw)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO invoices (invoice_number, document, created_at)
		VALUES ($1, $2::jsonb, now())
	`, strings.TrimSpace(raw.InvoiceNumber.String()), string(document))
	return err
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, price, stock
		FROM products
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: query products: %v", store.ErrUnavailable, err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 128)
	for rows.Next() {
		var p domain.Product
		var price sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &price, &p.Stock); err != nil {
			return nil, err
		}
		if price.Valid {
			p.Price = money.DecimalOf(money.Normalize(price.String))
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

func (s *Store) ListCustomers(ctx context.Context) ([]domain.CustomerRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, phone, COALESCE(email, ''), COALESCE(address, '')
		FROM customers
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: query customers: %v", store.ErrUnavailable, err)
	}
	defer rows.Close()

	customers := make([]domain.CustomerRecord, 0, 128)
	for rows.Next() {
		var c domain.CustomerRecord
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.Address); err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return customers, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	user.Username = strings.ToLower(strings.TrimSpace(user.Username))
	if user.Username == "" || strings.TrimSpace(user.Password) == "" {
		return store.ErrInvalidInput
	}
	if user.Role == "" {
		user.Role = domain.RoleVendor
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_users (username, password, role, active, created_at, updated_at)
		VALUES ($1,$2,$3,true,$4,now())
	`, user.Username, user.Password, user.Role, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrInvalidInput
		}
		return err
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM app_users
		ORDER BY username ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 16)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.Username, &user.Password, &user.Role, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		user.CreatedAt = user.CreatedAt.UTC()
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return store.ErrInvalidInput
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE app_users
		SET password = $2, updated_at = now()
		WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

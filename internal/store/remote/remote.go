// Package remote reads snapshots from the upstream invoice service over HTTP.
package remote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"invoicedesk/backend/internal/domain"
	"invoicedesk/backend/internal/money"
	"invoicedesk/backend/internal/store"
)

const maxResponseBytes = 32 << 20

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) ListInvoices(ctx context.Context) ([]*domain.RawInvoice, error) {
	var invoices []*domain.RawInvoice
	if err := c.getJSON(ctx, "/api/invoices/all", &invoices); err != nil {
		return nil, err
	}
	return invoices, nil
}

type upstreamProduct struct {
	ID        domain.Text  `json:"_id"`
	Name      string       `json:"name"`
	PName     string       `json:"pname"`
	Price     money.Amount `json:"price"`
	SalePrice money.Amount `json:"saleprice"`
	Stock     money.Amount `json:"stock"`
}

func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var upstream []upstreamProduct
	if err := c.getJSON(ctx, "/api/products", &upstream); err != nil {
		return nil, err
	}

	products := make([]domain.Product, 0, len(upstream))
	for _, p := range upstream {
		product := domain.Product{
			ID:    p.ID.String(),
			Name:  p.Name,
			Price: p.Price,
			Stock: int(p.Stock.Decimal().IntPart()),
		}
		if product.Name == "" {
			product.Name = p.PName
		}
		if product.Price.IsMissing() {
			product.Price = p.SalePrice
		}
		products = append(products, product)
	}
	return products, nil
}

type upstreamCustomer struct {
	ID      domain.Text `json:"_id"`
	Name    string      `json:"cname"`
	Phone   domain.Text `json:"cphone"`
	Email   string      `json:"mailId"`
	Address string      `json:"address"`
}

func (c *Client) ListCustomers(ctx context.Context) ([]domain.CustomerRecord, error) {
	var upstream []upstreamCustomer
	if err := c.getJSON(ctx, "/api/customers", &upstream); err != nil {
		return nil, err
	}

	customers := make([]domain.CustomerRecord, 0, len(upstream))
	for _, cu := range upstream {
		customers = append(customers, domain.CustomerRecord{
			ID:      cu.ID.String(),
			Name:    cu.Name,
			Phone:   cu.Phone.String(),
			Email:   cu.Email,
			Address: cu.Address,
		})
	}
	return customers, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: build request %s: %v", store.ErrUnavailable, path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: GET %s: %v", store.ErrUnavailable, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: GET %s: status %d", store.ErrUnavailable, path, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", store.ErrUnavailable, path, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", store.ErrUnavailable, path, err)
	}
	return nil
}

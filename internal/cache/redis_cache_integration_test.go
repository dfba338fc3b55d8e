package cache

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicedesk/backend/internal/domain"
	"invoicedesk/backend/internal/money"
)

func TestRedisSnapshotCachePreservesAmountShapes(t *testing.T) {
	addr := os.Getenv("INVOICEDESK_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set INVOICEDESK_TEST_REDIS_ADDR to run redis integration test")
	}

	ctx := context.Background()
	c := NewRedisSnapshotCache(addr, "", 0)
	t.Cleanup(func() { _ = c.Close() })
	require.NoError(t, c.Ping(ctx))

	key := fmt.Sprintf("invoicedesk:test:%d", time.Now().UnixNano())
	snapshot := []*domain.RawInvoice{{
		InvoiceNumber: "INV-1",
		Customer:      &domain.RawCustomer{Name: "Asha"},
		Totals: &domain.RawTotals{
			FinalAmount:  money.TextOf("₹1,250.00"),
			CashReceived: money.NumberOf(1300),
		},
	}}
	require.NoError(t, c.Set(ctx, key, snapshot, 5*time.Second))

	got, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, money.AmountText, got[0].Totals.FinalAmount.Kind)
	assert.Equal(t, "1300", got[0].Totals.CashReceived.Decimal().String())
	assert.True(t, got[0].Totals.DueStatus.IsMissing())

	_, ok, err = c.Get(ctx, key+":missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

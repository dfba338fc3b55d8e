package cache

import (
	"context"
	"slices"
	"sync"
	"time"

	"invoicedesk/backend/internal/domain"
)

// SnapshotCache holds fetched raw invoice collections between requests.
type SnapshotCache interface {
	Get(ctx context.Context, key string) ([]*domain.RawInvoice, bool, error)
	Set(ctx context.Context, key string, value []*domain.RawInvoice, ttl time.Duration) error
}

type NoopSnapshotCache struct{}

func (NoopSnapshotCache) Get(_ context.Context, _ string) ([]*domain.RawInvoice, bool, error) {
	return nil, false, nil
}

func (NoopSnapshotCache) Set(_ context.Context, _ string, _ []*domain.RawInvoice, _ time.Duration) error {
	return nil
}

type memoryEntry struct {
	value     []*domain.RawInvoice
	expiresAt time.Time
}

// MemorySnapshotCache is the server's process-local cache when redis is not
// configured or not reachable.
type MemorySnapshotCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemorySnapshotCache() *MemorySnapshotCache {
	return &MemorySnapshotCache{entries: map[string]memoryEntry{}, now: time.Now}
}

func (c *MemorySnapshotCache) Get(_ context.Context, key string) ([]*domain.RawInvoice, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !entry.expiresAt.IsZero() && !c.now().Before(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false, nil
	}
	return slices.Clone(entry.value), true, nil
}

func (c *MemorySnapshotCache) Set(_ context.Context, key string, value []*domain.RawInvoice, ttl time.Duration) error {
	if value == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := memoryEntry{value: slices.Clone(value)}
	if ttl > 0 {
		entry.expiresAt = c.now().Add(ttl)
	}
	c.entries[key] = entry
	return nil
}

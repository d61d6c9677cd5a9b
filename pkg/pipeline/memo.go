package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/younsl/costboard/internal/models"
)

// MaxMemoEntries bounds the number of dashboards a Memo holds at once
const MaxMemoEntries = 64

// RequestResolver is implemented by sources that fill request defaults.
// Memo keys on resolved requests so that equivalent requests share an entry.
type RequestResolver interface {
	Resolve(req Request) (Request, error)
}

// Memo caches dashboards per request for a fixed TTL. A TTL of zero or less
// disables caching and every call goes to the underlying source. Failed
// aggregations are never cached. Expired entries are swept on insert and
// at most MaxMemoEntries are kept.
type Memo struct {
	src DashboardSource
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[Request]memoEntry
}

type memoEntry struct {
	dashboard *models.Dashboard
	expires   time.Time
}

// NewMemo wraps src with a TTL cache
func NewMemo(src DashboardSource, ttl time.Duration) *Memo {
	return &Memo{
		src:     src,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[Request]memoEntry),
	}
}

// Aggregate returns the cached dashboard for req if it has not expired,
// otherwise aggregates and caches the result. The returned dashboard is
// shared between callers and must not be modified.
func (m *Memo) Aggregate(ctx context.Context, req Request) (*models.Dashboard, error) {
	if m.ttl <= 0 {
		return m.src.Aggregate(ctx, req)
	}

	if r, ok := m.src.(RequestResolver); ok {
		resolved, err := r.Resolve(req)
		if err != nil {
			return nil, err
		}
		req = resolved
	}

	m.mu.Lock()
	entry, ok := m.entries[req]
	m.mu.Unlock()
	if ok && m.now().Before(entry.expires) {
		return entry.dashboard, nil
	}

	dashboard, err := m.src.Aggregate(ctx, req)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.store(req, dashboard)
	m.mu.Unlock()

	return dashboard, nil
}

// Len returns the number of entries held, expired or not
func (m *Memo) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// store must be called with mu held
func (m *Memo) store(req Request, dashboard *models.Dashboard) {
	now := m.now()
	for key, entry := range m.entries {
		if !now.Before(entry.expires) {
			delete(m.entries, key)
		}
	}

	if _, exists := m.entries[req]; !exists && len(m.entries) >= MaxMemoEntries {
		var oldest Request
		var oldestExpiry time.Time
		first := true
		for key, entry := range m.entries {
			if first || entry.expires.Before(oldestExpiry) {
				oldest, oldestExpiry, first = key, entry.expires, false
			}
		}
		delete(m.entries, oldest)
	}

	m.entries[req] = memoEntry{dashboard: dashboard, expires: now.Add(m.ttl)}
}

// Invalidate drops every cached dashboard
func (m *Memo) Invalidate() {
	m.mu.Lock()
	m.entries = make(map[Request]memoEntry)
	m.mu.Unlock()
}

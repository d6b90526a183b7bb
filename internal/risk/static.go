package risk

import (
	"context"
	"strings"
	"sync"
)

// StaticStore is an in-memory Store backed by a seeded map. Used for demo
// wiring and tests; production deployments use the Postgres or remote
// backend.
type StaticStore struct {
	mu       sync.RWMutex
	profiles map[string]Profile
}

// NewStaticStore creates an empty static store.
func NewStaticStore() *StaticStore {
	return &StaticStore{profiles: make(map[string]Profile)}
}

// Put registers or replaces a profile. Vendor ids match case-insensitively.
func (s *StaticStore) Put(p Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[normalizeVendorID(p.VendorID)] = p
}

// Lookup implements Store.
func (s *StaticStore) Lookup(ctx context.Context, vendorID string) (*Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[normalizeVendorID(vendorID)]
	if !ok {
		return nil, nil
	}
	copied := p
	return &copied, nil
}

func normalizeVendorID(vendorID string) string {
	return strings.ToLower(strings.TrimSpace(vendorID))
}

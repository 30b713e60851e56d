package urllist

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu    sync.RWMutex
	lists [2][]string
}

// NewMemoryStore returns a store seeded with the given lists.
func NewMemoryStore(allow, deny []string) *MemoryStore {
	return &MemoryStore{lists: [2][]string{slices.Clone(allow), slices.Clone(deny)}}
}

// List implements Store.
func (m *MemoryStore) List(_ context.Context, kind Kind) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.lists[kind]), nil
}

// Lists implements Store.
func (m *MemoryStore) Lists(_ context.Context) (allow, deny []string, err error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.lists[Allow]), slices.Clone(m.lists[Deny]), nil
}

// Add implements Store.
func (m *MemoryStore) Add(_ context.Context, kind Kind, rawURL string) error {
	u, err := Validate(rawURL)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if slices.Contains(m.lists[kind], u) {
		return fmt.Errorf("%w: %s", ErrExists, u)
	}
	if !computeUsage(m.lists[:]...).fits(len(u), 1) {
		return ErrQuotaExceeded
	}
	m.lists[kind] = append(m.lists[kind], u)
	return nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, kind Kind, rawURL string) error {
	u, err := Validate(rawURL)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	i := slices.Index(m.lists[kind], u)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, u)
	}
	m.lists[kind] = slices.Delete(m.lists[kind], i, i+1)
	return nil
}

// Update implements Store.
func (m *MemoryStore) Update(_ context.Context, kind Kind, oldURL, newURL string) error {
	u, err := Validate(newURL)
	if err != nil {
		return err
	}
	if oldURL, err = Validate(oldURL); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	i := slices.Index(m.lists[kind], oldURL)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, oldURL)
	}
	if u != oldURL && slices.Contains(m.lists[kind], u) {
		return fmt.Errorf("%w: %s", ErrExists, u)
	}
	if !computeUsage(m.lists[:]...).fits(len(u)-len(oldURL), 0) {
		return ErrQuotaExceeded
	}
	m.lists[kind][i] = u
	return nil
}

// Clear implements Store.
func (m *MemoryStore) Clear(_ context.Context, kind Kind) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists[kind] = nil
	return nil
}

// Replace implements Store.
func (m *MemoryStore) Replace(_ context.Context, kind Kind, urls []string) error {
	list, err := normalise(urls)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	other := m.lists[1-kind]
	if !computeUsage(other).fits(computeUsage(list).Bytes, len(list)) {
		return ErrQuotaExceeded
	}
	m.lists[kind] = list
	return nil
}

// Usage implements Store.
func (m *MemoryStore) Usage(_ context.Context) (Usage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return computeUsage(m.lists[:]...), nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	return nil
}

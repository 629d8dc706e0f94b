package store

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"listing-browser/internal/models"
)

// MemoryRepository keeps listings in process memory. It backs the "memory"
// database type and tests.
type MemoryRepository struct {
	mu       sync.RWMutex
	listings map[string]models.Listing
	fail     error

	// insertion order, breaks createdAt ties
	seq  map[string]int
	next int
}

func NewMemoryRepository(seed ...models.Listing) *MemoryRepository {
	r := &MemoryRepository{
		listings: make(map[string]models.Listing),
		seq:      make(map[string]int),
	}
	for _, l := range seed {
		r.put(l)
	}
	return r
}

func (r *MemoryRepository) put(l models.Listing) {
	if _, ok := r.seq[l.ID]; !ok {
		r.seq[l.ID] = r.next
		r.next++
	}
	r.listings[l.ID] = l
}

// FailWith makes every following call return err. A nil err clears it.
func (r *MemoryRepository) FailWith(err error) {
	r.mu.Lock()
	r.fail = err
	r.mu.Unlock()
}

func (r *MemoryRepository) List(_ context.Context) ([]models.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.fail != nil {
		return nil, r.fail
	}
	out := make([]models.Listing, 0, len(r.listings))
	for _, l := range r.listings {
		out = append(out, l)
	}
	slices.SortFunc(out, func(a, b models.Listing) int {
		if c := cmp.Compare(b.CreatedAt, a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(r.seq[a.ID], r.seq[b.ID])
	})
	return out, nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (models.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.fail != nil {
		return models.Listing{}, r.fail
	}
	l, ok := r.listings[id]
	if !ok {
		return models.Listing{}, ErrNotFound
	}
	return l, nil
}

func (r *MemoryRepository) Insert(_ context.Context, l models.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	r.put(l)
	return nil
}

func (r *MemoryRepository) Update(_ context.Context, id string, patch models.ListingPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	l, ok := r.listings[id]
	if !ok {
		return ErrNotFound
	}
	r.listings[id] = patch.Apply(l)
	return nil
}

func (r *MemoryRepository) Close() error { return nil }

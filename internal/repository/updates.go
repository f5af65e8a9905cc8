package repository

import (
	"context"
	"sync"

	"example.com/keepfit/internal/domain"
	"example.com/keepfit/internal/observability"
)

// Updates caches check-ins in front of an UpdateStore. The cache is a
// date-keyed multimap since many updates share a date; (date, time) is a
// natural but unenforced key.
type Updates struct {
	store UpdateStore

	mu    sync.Mutex
	cache map[int64][]domain.Update
	dates []int64
	dirty bool
}

// NewUpdates constructs the updates repository bound to its store.
func NewUpdates(store UpdateStore) *Updates {
	return &Updates{store: store}
}

// GetAll returns every recorded update, grouped by date in store order.
func (r *Updates) GetAll(ctx context.Context) ([]domain.Update, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cache != nil && !r.dirty {
		observability.RecordCacheHit("updates")
		return r.snapshot(), nil
	}

	observability.RecordCacheMiss("updates")
	updates, err := r.store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	r.cache = make(map[int64][]domain.Update)
	r.dates = nil
	for _, update := range updates {
		r.append(update)
	}
	r.dirty = false
	return r.snapshot(), nil
}

// GetByDate returns the day's check-ins in recording order. A cache miss
// fetches only that day.
func (r *Updates) GetByDate(ctx context.Context, date int64) ([]domain.Update, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if day, ok := r.cache[date]; ok {
		observability.RecordCacheHit("updates")
		out := make([]domain.Update, len(day))
		copy(out, day)
		return out, nil
	}

	observability.RecordCacheMiss("updates")
	updates, err := r.store.LoadByDate(ctx, date)
	if err != nil {
		return nil, err
	}

	if r.cache == nil {
		r.cache = make(map[int64][]domain.Update)
	}
	for _, update := range updates {
		r.append(update)
	}
	out := make([]domain.Update, len(updates))
	copy(out, updates)
	return out, nil
}

// Insert writes through to the store, then appends to the day's cache
// entry. Updates are append-only; there is no per-row update path.
func (r *Updates) Insert(ctx context.Context, update domain.Update) error {
	if err := r.store.Insert(ctx, update); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cache == nil {
		r.cache = make(map[int64][]domain.Update)
	}
	r.append(update)
	return nil
}

// DeleteAll bulk-clears the store and the cache.
func (r *Updates) DeleteAll(ctx context.Context) error {
	if err := r.store.DeleteAll(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = map[int64][]domain.Update{}
	r.dates = nil
	return nil
}

// Invalidate marks the cache dirty so the next GetAll reloads from the
// store.
func (r *Updates) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dirty = true
}

func (r *Updates) snapshot() []domain.Update {
	var out []domain.Update
	for _, date := range r.dates {
		out = append(out, r.cache[date]...)
	}
	return out
}

func (r *Updates) append(update domain.Update) {
	if _, exists := r.cache[update.Date]; !exists {
		r.dates = append(r.dates, update.Date)
	}
	r.cache[update.Date] = append(r.cache[update.Date], update)
}

package repository

import (
	"context"
	"sync"

	"example.com/keepfit/internal/domain"
	"example.com/keepfit/internal/observability"
)

// History caches history records in front of a HistoryStore, keyed by day of
// epoch. Cached records are cloned on the way out so callers can mutate
// results (display conversion does) without touching the cache.
type History struct {
	store HistoryStore

	mu    sync.Mutex
	cache map[int64]domain.History
	order []int64
	dirty bool
}

// NewHistory constructs the history repository bound to its store.
func NewHistory(store HistoryStore) *History {
	return &History{store: store}
}

// GetAll returns every history record, serving from cache when populated and
// clean, otherwise replacing the cache from the store.
func (r *History) GetAll(ctx context.Context) ([]domain.History, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cache != nil && !r.dirty {
		observability.RecordCacheHit("history")
		return r.snapshot(), nil
	}

	observability.RecordCacheMiss("history")
	histories, err := r.store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	r.cache = make(map[int64]domain.History, len(histories))
	r.order = make([]int64, 0, len(histories))
	for _, history := range histories {
		r.cache[history.Date] = history
		r.order = append(r.order, history.Date)
	}
	r.dirty = false
	return r.snapshot(), nil
}

// GetByDate returns the record for one day, consulting the cache first. A
// miss fetches only that record; it never triggers a full reload.
func (r *History) GetByDate(ctx context.Context, date int64) (domain.History, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if history, ok := r.cache[date]; ok {
		observability.RecordCacheHit("history")
		return history.Clone(), nil
	}

	observability.RecordCacheMiss("history")
	history, err := r.store.LoadByDate(ctx, date)
	if err != nil {
		return domain.History{}, err
	}
	r.put(history)
	return history.Clone(), nil
}

// Insert writes through to the store, then inserts or overwrites the cache
// entry for the record's date.
func (r *History) Insert(ctx context.Context, history domain.History) error {
	if err := r.store.Insert(ctx, history); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.put(history)
	return nil
}

// Delete writes through, then evicts the day's entry.
func (r *History) Delete(ctx context.Context, date int64) error {
	if err := r.store.DeleteByDate(ctx, date); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.remove(date)
	return nil
}

// DeleteAll clears the store and the cache.
func (r *History) DeleteAll(ctx context.Context) error {
	if err := r.store.DeleteAll(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = map[int64]domain.History{}
	r.order = nil
	return nil
}

// Invalidate marks the cache dirty so the next GetAll reloads from the
// store.
func (r *History) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dirty = true
}

func (r *History) snapshot() []domain.History {
	out := make([]domain.History, 0, len(r.order))
	for _, date := range r.order {
		out = append(out, r.cache[date].Clone())
	}
	return out
}

func (r *History) put(history domain.History) {
	if r.cache == nil {
		r.cache = make(map[int64]domain.History)
	}
	if _, exists := r.cache[history.Date]; !exists {
		r.order = append(r.order, history.Date)
	}
	r.cache[history.Date] = history.Clone()
}

func (r *History) remove(date int64) {
	if _, exists := r.cache[date]; !exists {
		return
	}
	delete(r.cache, date)
	for i, key := range r.order {
		if key == date {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

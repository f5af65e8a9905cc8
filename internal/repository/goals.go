package repository

import (
	"context"
	"sync"

	"example.com/keepfit/internal/domain"
	"example.com/keepfit/internal/observability"
)

// Goals caches goal records in front of a GoalStore. A nil cache map means
// the cache has never been populated; the dirty flag forces the next full
// read to reload from the store.
type Goals struct {
	store GoalStore

	mu    sync.Mutex
	cache map[string]domain.Goal
	order []string
	dirty bool
}

// NewGoals constructs the goals repository bound to its store.
func NewGoals(store GoalStore) *Goals {
	return &Goals{store: store}
}

// GetAll returns every goal, serving from cache when it is populated and
// clean. On a miss the full set is fetched, the cache replaced atomically
// and the dirty flag cleared. The returned slice is a defensive copy in the
// store's original order.
func (r *Goals) GetAll(ctx context.Context) ([]domain.Goal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cache != nil && !r.dirty {
		observability.RecordCacheHit("goals")
		return r.snapshot(), nil
	}

	observability.RecordCacheMiss("goals")
	goals, err := r.store.LoadAll(ctx)
	if err != nil {
		// The cache is left unchanged; not-available is not an empty list.
		return nil, err
	}

	r.cache = make(map[string]domain.Goal, len(goals))
	r.order = make([]string, 0, len(goals))
	for _, goal := range goals {
		r.cache[goal.ID] = goal
		r.order = append(r.order, goal.ID)
	}
	r.dirty = false
	return r.snapshot(), nil
}

// GetByID returns a single goal, consulting the cache first. A miss fetches
// only that record and inserts it; it never triggers a full reload.
func (r *Goals) GetByID(ctx context.Context, id string) (domain.Goal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if goal, ok := r.cache[id]; ok {
		observability.RecordCacheHit("goals")
		return goal, nil
	}

	observability.RecordCacheMiss("goals")
	goal, err := r.store.LoadByID(ctx, id)
	if err != nil {
		return domain.Goal{}, err
	}
	r.put(goal)
	return goal, nil
}

// Insert writes through to the store, then unconditionally caches the goal.
// Name uniqueness is the caller's responsibility before this call.
func (r *Goals) Insert(ctx context.Context, goal domain.Goal) error {
	if err := r.store.Insert(ctx, goal); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.put(goal)
	return nil
}

// Update writes through keyed by previousID, then rekeys the cache entry.
// The previous key may differ from the goal's current ID.
func (r *Goals) Update(ctx context.Context, goal domain.Goal, previousID string) error {
	if err := r.store.Update(ctx, goal, previousID); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.remove(previousID)
	r.put(goal)
	return nil
}

// Delete writes through, then evicts the cache entry. Evicting an absent key
// is a silent no-op.
func (r *Goals) Delete(ctx context.Context, id string) error {
	if err := r.store.DeleteByID(ctx, id); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.remove(id)
	return nil
}

// DeleteAll clears the store and the cache.
func (r *Goals) DeleteAll(ctx context.Context) error {
	if err := r.store.DeleteAll(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = map[string]domain.Goal{}
	r.order = nil
	return nil
}

// Invalidate marks the cache dirty so the next GetAll reloads from the
// store. Used when writes have bypassed the repository.
func (r *Goals) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dirty = true
}

func (r *Goals) snapshot() []domain.Goal {
	out := make([]domain.Goal, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.cache[id])
	}
	return out
}

func (r *Goals) put(goal domain.Goal) {
	if r.cache == nil {
		r.cache = make(map[string]domain.Goal)
	}
	if _, exists := r.cache[goal.ID]; !exists {
		r.order = append(r.order, goal.ID)
	}
	r.cache[goal.ID] = goal
}

func (r *Goals) remove(id string) {
	if _, exists := r.cache[id]; !exists {
		return
	}
	delete(r.cache, id)
	for i, key := range r.order {
		if key == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

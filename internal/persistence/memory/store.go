// Package memory provides in-memory Local Store Adapters for local
// development and tests.
package memory

import (
	"context"
	"sync"

	"example.com/keepfit/internal/domain"
	"example.com/keepfit/internal/prefs"
)

// GoalStore keeps goal rows in memory.
type GoalStore struct {
	mu    sync.RWMutex
	goals []domain.Goal
}

// NewGoalStore constructs an empty GoalStore.
func NewGoalStore() *GoalStore {
	return &GoalStore{}
}

// LoadAll returns every goal in insertion order, or not-available when the
// store holds none.
func (s *GoalStore) LoadAll(context.Context) ([]domain.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.goals) == 0 {
		return nil, domain.ErrNotAvailable
	}
	out := make([]domain.Goal, len(s.goals))
	copy(out, s.goals)
	return out, nil
}

// LoadByID returns the goal with the given id.
func (s *GoalStore) LoadByID(_ context.Context, id string) (domain.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, goal := range s.goals {
		if goal.ID == id {
			return goal, nil
		}
	}
	return domain.Goal{}, domain.ErrNotAvailable
}

// Insert appends the goal row.
func (s *GoalStore) Insert(_ context.Context, goal domain.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goals = append(s.goals, goal)
	return nil
}

// Update replaces the row identified by previousID.
func (s *GoalStore) Update(_ context.Context, goal domain.Goal, previousID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.goals {
		if existing.ID == previousID {
			s.goals[i] = goal
			return nil
		}
	}
	return domain.ErrNotAvailable
}

// DeleteByID removes the row if present.
func (s *GoalStore) DeleteByID(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.goals {
		if existing.ID == id {
			s.goals = append(s.goals[:i], s.goals[i+1:]...)
			break
		}
	}
	return nil
}

// DeleteAll clears the store.
func (s *GoalStore) DeleteAll(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goals = nil
	return nil
}

// HistoryStore keeps history rows in memory.
type HistoryStore struct {
	mu        sync.RWMutex
	histories map[int64]domain.History
	order     []int64
}

// NewHistoryStore constructs an empty HistoryStore.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{histories: make(map[int64]domain.History)}
}

// LoadAll returns every history record, or not-available when none exist.
func (s *HistoryStore) LoadAll(context.Context) ([]domain.History, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.order) == 0 {
		return nil, domain.ErrNotAvailable
	}
	out := make([]domain.History, 0, len(s.order))
	for _, date := range s.order {
		out = append(out, s.histories[date].Clone())
	}
	return out, nil
}

// LoadByDate returns the record for the given day.
func (s *HistoryStore) LoadByDate(_ context.Context, date int64) (domain.History, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.histories[date]
	if !ok {
		return domain.History{}, domain.ErrNotAvailable
	}
	return history.Clone(), nil
}

// Insert stores the record, overwriting any previous row for the date.
func (s *HistoryStore) Insert(_ context.Context, history domain.History) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.histories[history.Date]; !exists {
		s.order = append(s.order, history.Date)
	}
	s.histories[history.Date] = history.Clone()
	return nil
}

// DeleteByDate removes the day's row if present.
func (s *HistoryStore) DeleteByDate(_ context.Context, date int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.histories[date]; !exists {
		return nil
	}
	delete(s.histories, date)
	for i, key := range s.order {
		if key == date {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// DeleteAll clears the store.
func (s *HistoryStore) DeleteAll(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.histories = make(map[int64]domain.History)
	s.order = nil
	return nil
}

// UpdateStore keeps check-in rows in memory, append-only.
type UpdateStore struct {
	mu      sync.RWMutex
	updates []domain.Update
}

// NewUpdateStore constructs an empty UpdateStore.
func NewUpdateStore() *UpdateStore {
	return &UpdateStore{}
}

// LoadAll returns every check-in in recording order, or not-available when
// none exist.
func (s *UpdateStore) LoadAll(context.Context) ([]domain.Update, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.updates) == 0 {
		return nil, domain.ErrNotAvailable
	}
	out := make([]domain.Update, len(s.updates))
	copy(out, s.updates)
	return out, nil
}

// LoadByDate returns the day's check-ins, or not-available when the day has
// none.
func (s *UpdateStore) LoadByDate(_ context.Context, date int64) ([]domain.Update, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Update
	for _, update := range s.updates {
		if update.Date == date {
			out = append(out, update)
		}
	}
	if out == nil {
		return nil, domain.ErrNotAvailable
	}
	return out, nil
}

// Insert appends the check-in row.
func (s *UpdateStore) Insert(_ context.Context, update domain.Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, update)
	return nil
}

// DeleteAll clears the store.
func (s *UpdateStore) DeleteAll(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = nil
	return nil
}

// SettingsBackend keeps settings in memory.
type SettingsBackend struct {
	mu       sync.RWMutex
	settings *prefs.Settings
}

// NewSettingsBackend constructs an empty SettingsBackend.
func NewSettingsBackend() *SettingsBackend {
	return &SettingsBackend{}
}

// Load returns the stored settings, or not-available before the first save.
func (s *SettingsBackend) Load(context.Context) (prefs.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.settings == nil {
		return prefs.Settings{}, domain.ErrNotAvailable
	}
	return *s.settings, nil
}

// Save stores the settings.
func (s *SettingsBackend) Save(_ context.Context, settings prefs.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = &settings
	return nil
}

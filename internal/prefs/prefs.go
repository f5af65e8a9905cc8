// Package prefs holds the user-configurable settings of the tracker:
// the steps-per-metre ratio, the history filters, the display unit and the
// active goal. Settings live in process behind a mutex; durability is
// delegated to an optional Backend.
package prefs

import (
	"context"
	"errors"
	"sync"

	"example.com/keepfit/internal/domain"
	"example.com/keepfit/internal/units"
)

// DefaultStepsPerMetre is the ratio applied until the user configures one.
const DefaultStepsPerMetre = 1.5

// Settings is the full preference state. The zero value is not meaningful;
// use DefaultSettings.
type Settings struct {
	StepsPerMetre float64

	DateFilter        domain.DateFilter
	CustomStartFilter int64
	CustomEndFilter   int64
	GoalFilter        domain.GoalFilter
	GoalProgress      float64

	// DisplayUnit converts history output when non-nil.
	DisplayUnit *units.Unit

	// ActiveGoalID identifies the goal new history records bind to. Empty
	// means no goal is selected.
	ActiveGoalID string
}

// DefaultSettings returns the state of a fresh installation.
func DefaultSettings() Settings {
	return Settings{
		StepsPerMetre: DefaultStepsPerMetre,
		DateFilter:    domain.DateFilterNone,
		GoalFilter:    domain.GoalFilterNone,
	}
}

// HistoryFilter derives the filter configuration the history engine
// consumes.
func (s Settings) HistoryFilter() domain.HistoryFilter {
	return domain.HistoryFilter{
		Date:         s.DateFilter,
		CustomStart:  s.CustomStartFilter,
		CustomEnd:    s.CustomEndFilter,
		Goal:         s.GoalFilter,
		GoalProgress: s.GoalProgress,
		DisplayUnit:  s.DisplayUnit,
	}
}

// Backend persists settings between runs.
type Backend interface {
	Load(ctx context.Context) (Settings, error)
	Save(ctx context.Context, settings Settings) error
}

// NoopBackend keeps settings in memory only.
type NoopBackend struct{}

// Load returns the defaults.
func (NoopBackend) Load(context.Context) (Settings, error) { return DefaultSettings(), nil }

// Save performs no action.
func (NoopBackend) Save(context.Context, Settings) error { return nil }

// Listener observes every committed settings change.
type Listener func(Settings)

// Store is the process-wide settings owner. Change listeners fire after a
// change is committed; the steps-per-metre listener keeps the unit converter
// current.
type Store struct {
	backend Backend

	mu        sync.Mutex
	settings  Settings
	listeners []Listener
}

// NewStore loads settings from the backend, falling back to defaults when
// the backend holds nothing yet.
func NewStore(ctx context.Context, backend Backend) (*Store, error) {
	if backend == nil {
		backend = NoopBackend{}
	}
	settings, err := backend.Load(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNotAvailable) {
			return nil, err
		}
		settings = DefaultSettings()
	}
	if settings.StepsPerMetre == 0 {
		settings.StepsPerMetre = DefaultStepsPerMetre
	}
	return &Store{backend: backend, settings: settings}, nil
}

// Subscribe registers a change listener and immediately replays the current
// settings to it, so late subscribers start from a consistent view.
func (s *Store) Subscribe(listener Listener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, listener)
	current := s.settings
	s.mu.Unlock()
	listener(current)
}

// Get returns a snapshot of the current settings.
func (s *Store) Get() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// Put replaces the settings, persists them, and notifies listeners. The
// in-process state is only committed when the backend write succeeds.
func (s *Store) Put(ctx context.Context, settings Settings) error {
	if settings.StepsPerMetre == 0 {
		settings.StepsPerMetre = DefaultStepsPerMetre
	}
	if err := s.backend.Save(ctx, settings); err != nil {
		return err
	}

	s.mu.Lock()
	s.settings = settings
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, listener := range listeners {
		listener(settings)
	}
	return nil
}

// SetActiveGoal updates only the active goal id.
func (s *Store) SetActiveGoal(ctx context.Context, goalID string) error {
	settings := s.Get()
	settings.ActiveGoalID = goalID
	return s.Put(ctx, settings)
}

// BindConverter subscribes the unit converter to steps-per-metre changes.
func (s *Store) BindConverter(conv *units.Converter) {
	s.Subscribe(func(settings Settings) {
		conv.SetStepsPerMetre(settings.StepsPerMetre)
	})
}

// Package tracker orchestrates goal, check-in and history workflows over
// the repositories.
package tracker

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"example.com/keepfit/internal/domain"
	"example.com/keepfit/internal/events"
	"example.com/keepfit/internal/observability"
	"example.com/keepfit/internal/prefs"
	"example.com/keepfit/internal/repository"
	"example.com/keepfit/internal/units"
)

// Publisher emits tracker events. Implementations must tolerate being
// called from the check-in path; failures are logged, never surfaced to the
// user recording progress.
type Publisher interface {
	PublishGoalAchieved(ctx context.Context, event events.GoalAchieved) error
}

// Service coordinates the repositories, settings and conversion engine.
type Service struct {
	goals    *repository.Goals
	history  *repository.History
	updates  *repository.Updates
	settings *prefs.Store
	conv     *units.Converter

	publisher Publisher
	logger    *log.Logger
	nowFn     func() time.Time
}

// Option configures optional behaviour for the Service.
type Option func(*Service)

// WithPublisher wires an event publisher.
func WithPublisher(publisher Publisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

// WithClock overrides the time source; tests and the original app's "test
// mode" control the current day through this.
func WithClock(nowFn func() time.Time) Option {
	return func(s *Service) {
		s.nowFn = nowFn
	}
}

// WithLogger overrides the logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// New constructs a Service.
func New(goals *repository.Goals, history *repository.History, updates *repository.Updates,
	settings *prefs.Store, conv *units.Converter, opts ...Option) *Service {
	s := &Service{
		goals:    goals,
		history:  history,
		updates:  updates,
		settings: settings,
		conv:     conv,
		logger:   log.New(log.Writer(), "[tracker] ", log.LstdFlags),
		nowFn:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today returns the current day of epoch.
func (s *Service) Today() int64 {
	return s.nowFn().UTC().Unix() / (24 * 60 * 60)
}

func (s *Service) secondOfDay() int64 {
	now := s.nowFn().UTC()
	return int64(now.Hour()*3600 + now.Minute()*60 + now.Second())
}

// Goals lists all goals in store order.
func (s *Service) Goals(ctx context.Context) ([]domain.Goal, error) {
	return s.goals.GetAll(ctx)
}

// Goal fetches a single goal.
func (s *Service) Goal(ctx context.Context, id string) (domain.Goal, error) {
	goal, err := s.goals.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotAvailable) {
			return domain.Goal{}, domain.ErrGoalNotFound
		}
		return domain.Goal{}, err
	}
	return goal, nil
}

// GoalInput carries the user-editable goal fields.
type GoalInput struct {
	Name     string
	Distance float64
	Unit     units.Unit
}

// Validate ensures the input describes a storable goal.
func (in GoalInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return errors.New("name is required")
	}
	if in.Distance < 1 {
		return errors.New("distance must be at least 1")
	}
	if !in.Unit.Valid() {
		return errors.New("unknown unit")
	}
	return nil
}

// CreateGoal validates the input, enforces name uniqueness and inserts the
// goal. Uniqueness lives here, above the repository, which performs no
// validation of its own.
func (s *Service) CreateGoal(ctx context.Context, input GoalInput) (domain.Goal, error) {
	if err := input.Validate(); err != nil {
		return domain.Goal{}, err
	}
	if err := s.checkNameFree(ctx, input.Name, ""); err != nil {
		return domain.Goal{}, err
	}

	goal := domain.NewGoal(input.Name, input.Distance, input.Unit)
	if err := s.goals.Insert(ctx, goal); err != nil {
		return domain.Goal{}, err
	}
	return goal, nil
}

// UpdateGoal rewrites an existing goal. The stored key is regenerated, so
// the repository rekeys its cache entry; the last-achieved day survives the
// rewrite. Calling this without an identified goal is a programmer error.
func (s *Service) UpdateGoal(ctx context.Context, id string, input GoalInput) (domain.Goal, error) {
	if id == "" {
		panic("tracker: UpdateGoal called without an identified goal")
	}
	if err := input.Validate(); err != nil {
		return domain.Goal{}, err
	}

	existing, err := s.Goal(ctx, id)
	if err != nil {
		return domain.Goal{}, err
	}
	if err := s.checkNameFree(ctx, input.Name, id); err != nil {
		return domain.Goal{}, err
	}

	goal := domain.NewGoal(input.Name, input.Distance, input.Unit)
	goal.LastAchieved = existing.LastAchieved
	if err := s.goals.Update(ctx, goal, id); err != nil {
		return domain.Goal{}, err
	}
	// History rows embed their goal; the rewrite is only visible in the store.
	s.history.Invalidate()

	if s.settings.Get().ActiveGoalID == id {
		if err := s.settings.SetActiveGoal(ctx, goal.ID); err != nil {
			return domain.Goal{}, err
		}
	}
	return goal, nil
}

// DeleteGoal removes a goal and deselects it if it was active. Calling this
// without an identified goal is a programmer error.
func (s *Service) DeleteGoal(ctx context.Context, id string) error {
	if id == "" {
		panic("tracker: DeleteGoal called without an identified goal")
	}
	if err := s.goals.Delete(ctx, id); err != nil {
		return err
	}
	// The store detaches the goal from its history rows on delete.
	s.history.Invalidate()
	if s.settings.Get().ActiveGoalID == id {
		return s.settings.SetActiveGoal(ctx, "")
	}
	return nil
}

// DeleteAllGoals bulk-clears goals and the active selection.
func (s *Service) DeleteAllGoals(ctx context.Context) error {
	if err := s.goals.DeleteAll(ctx); err != nil {
		return err
	}
	s.history.Invalidate()
	return s.settings.SetActiveGoal(ctx, "")
}

func (s *Service) checkNameFree(ctx context.Context, name, selfID string) error {
	goals, err := s.goals.GetAll(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotAvailable) {
			return nil
		}
		return err
	}
	for _, goal := range goals {
		if goal.Name == name && goal.ID != selfID {
			return domain.ErrGoalNameExists
		}
	}
	return nil
}

// SetActiveGoal selects the goal new check-ins count towards and rebinds
// today's history record to it, recomputing its distance from the recorded
// updates. An empty id clears the selection.
func (s *Service) SetActiveGoal(ctx context.Context, goalID string) error {
	if goalID == "" {
		return s.settings.SetActiveGoal(ctx, "")
	}

	goal, err := s.Goal(ctx, goalID)
	if err != nil {
		return err
	}
	if err := s.settings.SetActiveGoal(ctx, goal.ID); err != nil {
		return err
	}

	today := s.Today()
	record, err := s.history.GetByDate(ctx, today)
	if err != nil {
		if !errors.Is(err, domain.ErrNotAvailable) {
			return err
		}
		record = domain.NewHistory(today, nil)
	}
	if err := record.SetGoal(s.conv, &goal); err != nil {
		return err
	}
	return s.history.Insert(ctx, record)
}

// CheckinInput carries one recorded check-in. A non-positive date means
// today; a negative time means the current second of day.
type CheckinInput struct {
	Date     int64
	Time     int64
	Distance float64
	Unit     units.Unit
}

// RecordCheckin appends an update to its day's history, creating the record
// lazily on the first check-in of the day. It reports whether this check-in
// completed the day's goal.
func (s *Service) RecordCheckin(ctx context.Context, input CheckinInput) (domain.History, bool, error) {
	if input.Distance < 0 {
		return domain.History{}, false, errors.New("distance must not be negative")
	}
	if !input.Unit.Valid() {
		return domain.History{}, false, errors.New("unknown unit")
	}

	date := input.Date
	if date <= 0 {
		date = s.Today()
	}
	second := input.Time
	if second < 0 {
		second = s.secondOfDay()
	}

	record, err := s.history.GetByDate(ctx, date)
	if err != nil {
		if !errors.Is(err, domain.ErrNotAvailable) {
			return domain.History{}, false, err
		}
		record = domain.NewHistory(date, s.activeGoal(ctx))
	}

	wasComplete := record.Percentage() >= 100
	update := domain.Update{Date: date, Time: second, Distance: input.Distance, Unit: input.Unit}
	if err := record.AddUpdate(s.conv, update); err != nil {
		return domain.History{}, false, err
	}

	if err := s.updates.Insert(ctx, update); err != nil {
		return domain.History{}, false, err
	}
	if err := s.history.Insert(ctx, record); err != nil {
		return domain.History{}, false, err
	}
	observability.RecordCheckinPersisted(s.nowFn())

	achieved := !wasComplete && record.Percentage() >= 100
	if achieved {
		s.markAchieved(ctx, record)
	}
	return record, achieved, nil
}

// markAchieved advances the goal's last-achieved day and emits the
// achievement event. Neither failure interrupts the recorded check-in.
func (s *Service) markAchieved(ctx context.Context, record domain.History) {
	goal := *record.Goal
	if goal.LastAchieved < record.Date {
		goal.LastAchieved = record.Date
		if err := s.goals.Update(ctx, goal, goal.ID); err != nil {
			s.logger.Printf("failed to advance last-achieved for goal %s: %v", goal.ID, err)
		}
	}

	if s.publisher == nil {
		return
	}
	event := events.GoalAchieved{
		GoalID:     goal.ID,
		GoalName:   goal.Name,
		Date:       record.Date,
		Percentage: record.Percentage(),
		OccurredAt: s.nowFn().UTC(),
	}
	if err := s.publisher.PublishGoalAchieved(ctx, event); err != nil {
		s.logger.Printf("failed to publish achievement for goal %s: %v", goal.ID, err)
	}
}

func (s *Service) activeGoal(ctx context.Context) *domain.Goal {
	id := s.settings.Get().ActiveGoalID
	if id == "" {
		return nil
	}
	goal, err := s.Goal(ctx, id)
	if err != nil {
		s.logger.Printf("active goal %s could not be resolved: %v", id, err)
		return nil
	}
	return &goal
}

// History returns the filtered, unit-converted history view using the
// currently stored filter settings.
func (s *Service) History(ctx context.Context) ([]domain.History, error) {
	histories, err := s.history.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	filter := s.settings.Get().HistoryFilter()
	return domain.FilterHistory(histories, filter, s.Today(), s.conv)
}

// HistoryForDate returns one day's record.
func (s *Service) HistoryForDate(ctx context.Context, date int64) (domain.History, error) {
	return s.history.GetByDate(ctx, date)
}

// UpdatesForDate returns one day's check-ins.
func (s *Service) UpdatesForDate(ctx context.Context, date int64) ([]domain.Update, error) {
	return s.updates.GetByDate(ctx, date)
}

// ClearHistory bulk-clears history records and their updates.
func (s *Service) ClearHistory(ctx context.Context) error {
	if err := s.history.DeleteAll(ctx); err != nil {
		return err
	}
	return s.updates.DeleteAll(ctx)
}

// RefreshGoals marks the goal cache stale, forcing the next read to reload.
func (s *Service) RefreshGoals() {
	s.goals.Invalidate()
}

// RefreshHistory marks the history and update caches stale.
func (s *Service) RefreshHistory() {
	s.history.Invalidate()
	s.updates.Invalidate()
}

// Settings exposes the preference store to transport layers.
func (s *Service) Settings() *prefs.Store {
	return s.settings
}

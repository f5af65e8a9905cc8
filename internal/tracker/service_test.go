package tracker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/keepfit/internal/domain"
	"example.com/keepfit/internal/events"
	"example.com/keepfit/internal/persistence/memory"
	"example.com/keepfit/internal/prefs"
	"example.com/keepfit/internal/repository"
	"example.com/keepfit/internal/units"
)

var fixedNow = time.Date(2017, time.May, 16, 10, 30, 0, 0, time.UTC)

type capturingPublisher struct {
	achieved []events.GoalAchieved
	err      error
}

func (p *capturingPublisher) PublishGoalAchieved(_ context.Context, event events.GoalAchieved) error {
	p.achieved = append(p.achieved, event)
	return p.err
}

type fixture struct {
	service   *Service
	settings  *prefs.Store
	conv      *units.Converter
	publisher *capturingPublisher
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	conv := units.NewConverter(prefs.DefaultStepsPerMetre)
	settings, err := prefs.NewStore(context.Background(), memory.NewSettingsBackend())
	require.NoError(t, err)
	settings.BindConverter(conv)

	publisher := &capturingPublisher{}
	service := New(
		repository.NewGoals(memory.NewGoalStore()),
		repository.NewHistory(memory.NewHistoryStore()),
		repository.NewUpdates(memory.NewUpdateStore()),
		settings, conv,
		WithPublisher(publisher),
		WithClock(func() time.Time { return fixedNow }),
	)
	return fixture{service: service, settings: settings, conv: conv, publisher: publisher}
}

func TestCreateGoalRejectsDuplicateNames(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.service.CreateGoal(ctx, GoalInput{Name: "5k", Distance: 5000, Unit: units.Metres})
	require.NoError(t, err)

	_, err = f.service.CreateGoal(ctx, GoalInput{Name: "5k", Distance: 6000, Unit: units.Metres})
	require.ErrorIs(t, err, domain.ErrGoalNameExists)
}

func TestCreateGoalValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.service.CreateGoal(ctx, GoalInput{Name: "  ", Distance: 5000, Unit: units.Metres})
	require.Error(t, err)

	_, err = f.service.CreateGoal(ctx, GoalInput{Name: "5k", Distance: 0, Unit: units.Metres})
	require.Error(t, err)

	_, err = f.service.CreateGoal(ctx, GoalInput{Name: "5k", Distance: 5000, Unit: units.Unit(42)})
	require.Error(t, err)
}

func TestUpdateGoalRegeneratesKeyAndKeepsLastAchieved(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	goal, err := f.service.CreateGoal(ctx, GoalInput{Name: "5k", Distance: 5000, Unit: units.Metres})
	require.NoError(t, err)
	require.NoError(t, f.service.SetActiveGoal(ctx, goal.ID))

	// Complete the goal so last-achieved advances before the rewrite.
	_, achieved, err := f.service.RecordCheckin(ctx, CheckinInput{Date: 100, Time: 60, Distance: 5, Unit: units.Kilometres})
	require.NoError(t, err)
	require.True(t, achieved)

	updated, err := f.service.UpdateGoal(ctx, goal.ID, GoalInput{Name: "five-k", Distance: 6, Unit: units.Kilometres})
	require.NoError(t, err)
	require.NotEqual(t, goal.ID, updated.ID)
	require.Equal(t, int64(100), updated.LastAchieved)

	// The old key is gone; the active selection follows the new one.
	_, err = f.service.Goal(ctx, goal.ID)
	require.ErrorIs(t, err, domain.ErrGoalNotFound)
	require.Equal(t, updated.ID, f.settings.Get().ActiveGoalID)
}

func TestUpdateGoalWithoutIDPanics(t *testing.T) {
	f := newFixture(t)
	require.Panics(t, func() {
		_, _ = f.service.UpdateGoal(context.Background(), "", GoalInput{Name: "x", Distance: 1, Unit: units.Steps})
	})
	require.Panics(t, func() {
		_ = f.service.DeleteGoal(context.Background(), "")
	})
}

func TestDeleteGoalClearsActiveSelection(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	goal, err := f.service.CreateGoal(ctx, GoalInput{Name: "5k", Distance: 5000, Unit: units.Metres})
	require.NoError(t, err)
	require.NoError(t, f.service.SetActiveGoal(ctx, goal.ID))

	require.NoError(t, f.service.DeleteGoal(ctx, goal.ID))
	require.Empty(t, f.settings.Get().ActiveGoalID)
}

func TestRecordCheckinCreatesHistoryLazily(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	goal, err := f.service.CreateGoal(ctx, GoalInput{Name: "5k", Distance: 5000, Unit: units.Metres})
	require.NoError(t, err)
	require.NoError(t, f.service.SetActiveGoal(ctx, goal.ID))

	record, achieved, err := f.service.RecordCheckin(ctx, CheckinInput{Date: 0, Time: 60, Distance: 2, Unit: units.Kilometres})
	require.NoError(t, err)
	require.False(t, achieved)
	require.Equal(t, f.service.Today(), record.Date)
	require.NotNil(t, record.Goal)
	require.Equal(t, goal.ID, record.Goal.ID)
	require.Equal(t, 2000.0, record.Distance)

	// A second check-in accumulates on the same record.
	record, achieved, err = f.service.RecordCheckin(ctx, CheckinInput{Date: 0, Time: 120, Distance: 3, Unit: units.Kilometres})
	require.NoError(t, err)
	require.True(t, achieved)
	require.Equal(t, 5000.0, record.Distance)
	require.Len(t, record.Updates, 2)

	updates, err := f.service.UpdatesForDate(ctx, record.Date)
	require.NoError(t, err)
	require.Len(t, updates, 2)
}

func TestRecordCheckinPublishesAchievementOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	goal, err := f.service.CreateGoal(ctx, GoalInput{Name: "5k", Distance: 5000, Unit: units.Metres})
	require.NoError(t, err)
	require.NoError(t, f.service.SetActiveGoal(ctx, goal.ID))

	_, achieved, err := f.service.RecordCheckin(ctx, CheckinInput{Date: 100, Time: 60, Distance: 5000, Unit: units.Metres})
	require.NoError(t, err)
	require.True(t, achieved)
	require.Len(t, f.publisher.achieved, 1)
	require.Equal(t, goal.ID, f.publisher.achieved[0].GoalID)
	require.Equal(t, int64(100), f.publisher.achieved[0].Date)

	// Progress past 100% does not re-announce the day.
	_, achieved, err = f.service.RecordCheckin(ctx, CheckinInput{Date: 100, Time: 120, Distance: 500, Unit: units.Metres})
	require.NoError(t, err)
	require.False(t, achieved)
	require.Len(t, f.publisher.achieved, 1)

	stored, err := f.service.Goal(ctx, goal.ID)
	require.NoError(t, err)
	require.Equal(t, int64(100), stored.LastAchieved)
}

func TestRecordCheckinWithoutGoalAccumulatesRaw(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	record, achieved, err := f.service.RecordCheckin(ctx, CheckinInput{Date: 50, Time: 60, Distance: 750, Unit: units.Steps})
	require.NoError(t, err)
	require.False(t, achieved)
	require.Nil(t, record.Goal)
	require.Equal(t, 750.0, record.Distance)
	require.Equal(t, -1.0, record.Percentage())
	require.Empty(t, f.publisher.achieved)
}

func TestSetActiveGoalRebindsTodaysRecord(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	// 3000 steps at the default ratio are 2000 metres.
	_, _, err := f.service.RecordCheckin(ctx, CheckinInput{Date: 0, Time: 60, Distance: 3000, Unit: units.Steps})
	require.NoError(t, err)

	goal, err := f.service.CreateGoal(ctx, GoalInput{Name: "4k", Distance: 4000, Unit: units.Metres})
	require.NoError(t, err)
	require.NoError(t, f.service.SetActiveGoal(ctx, goal.ID))

	record, err := f.service.HistoryForDate(ctx, f.service.Today())
	require.NoError(t, err)
	require.NotNil(t, record.Goal)
	require.Equal(t, 2000.0, record.Distance)
	require.Equal(t, 50.0, record.Percentage())
}

func TestSetActiveGoalUnknownGoal(t *testing.T) {
	f := newFixture(t)
	err := f.service.SetActiveGoal(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrGoalNotFound)
}

func TestHistoryAppliesStoredFilters(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	goal, err := f.service.CreateGoal(ctx, GoalInput{Name: "5k", Distance: 5000, Unit: units.Metres})
	require.NoError(t, err)
	require.NoError(t, f.service.SetActiveGoal(ctx, goal.ID))

	_, achieved, err := f.service.RecordCheckin(ctx, CheckinInput{Date: 100, Time: 60, Distance: 5000, Unit: units.Metres})
	require.NoError(t, err)
	require.True(t, achieved)

	settings := f.settings.Get()
	settings.GoalFilter = domain.GoalFilterCompleted
	require.NoError(t, f.settings.Put(ctx, settings))

	histories, err := f.service.History(ctx)
	require.NoError(t, err)
	require.Len(t, histories, 1)
	require.Equal(t, 100.0, histories[0].Percentage())

	settings.GoalFilter = domain.GoalFilterBelow
	settings.GoalProgress = 50
	require.NoError(t, f.settings.Put(ctx, settings))

	histories, err = f.service.History(ctx)
	require.NoError(t, err)
	require.Empty(t, histories)
}

func TestHistoryEmptyStoreSignalsNotAvailable(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.History(context.Background())
	require.ErrorIs(t, err, domain.ErrNotAvailable)
}

func TestClearHistoryRemovesUpdatesToo(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, _, err := f.service.RecordCheckin(ctx, CheckinInput{Date: 10, Time: 60, Distance: 100, Unit: units.Metres})
	require.NoError(t, err)

	require.NoError(t, f.service.ClearHistory(ctx))

	_, err = f.service.HistoryForDate(ctx, 10)
	require.ErrorIs(t, err, domain.ErrNotAvailable)
	_, err = f.service.UpdatesForDate(ctx, 10)
	require.ErrorIs(t, err, domain.ErrNotAvailable)
}

func TestDeleteAllGoalsClearsSelection(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	goal, err := f.service.CreateGoal(ctx, GoalInput{Name: "5k", Distance: 5000, Unit: units.Metres})
	require.NoError(t, err)
	require.NoError(t, f.service.SetActiveGoal(ctx, goal.ID))

	require.NoError(t, f.service.DeleteAllGoals(ctx))
	require.Empty(t, f.settings.Get().ActiveGoalID)
	_, err = f.service.Goals(ctx)
	require.ErrorIs(t, err, domain.ErrNotAvailable)
}

func TestDeleteGoalInvalidatesHistoryCache(t *testing.T) {
	ctx := context.Background()

	conv := units.NewConverter(prefs.DefaultStepsPerMetre)
	settings, err := prefs.NewStore(ctx, memory.NewSettingsBackend())
	require.NoError(t, err)
	settings.BindConverter(conv)

	historyStore := memory.NewHistoryStore()
	service := New(
		repository.NewGoals(memory.NewGoalStore()),
		repository.NewHistory(historyStore),
		repository.NewUpdates(memory.NewUpdateStore()),
		settings, conv,
		WithClock(func() time.Time { return fixedNow }),
	)

	goal, err := service.CreateGoal(ctx, GoalInput{Name: "5k", Distance: 5000, Unit: units.Metres})
	require.NoError(t, err)
	require.NoError(t, service.SetActiveGoal(ctx, goal.ID))
	_, _, err = service.RecordCheckin(ctx, CheckinInput{Date: 0, Time: 60, Distance: 1000, Unit: units.Metres})
	require.NoError(t, err)

	// Warm the cache with the embedded goal.
	histories, err := service.History(ctx)
	require.NoError(t, err)
	require.Len(t, histories, 1)
	require.NotNil(t, histories[0].Goal)

	// The durable store detaches the goal from its rows on delete; the
	// repository cache only learns about it through invalidation.
	require.NoError(t, historyStore.Insert(ctx, domain.History{Date: service.Today(), Distance: 1000}))
	require.NoError(t, service.DeleteGoal(ctx, goal.ID))

	histories, err = service.History(ctx)
	require.NoError(t, err)
	require.Len(t, histories, 1)
	require.Nil(t, histories[0].Goal)
}

func TestUpdateGoalInvalidatesHistoryCache(t *testing.T) {
	ctx := context.Background()

	conv := units.NewConverter(prefs.DefaultStepsPerMetre)
	settings, err := prefs.NewStore(ctx, memory.NewSettingsBackend())
	require.NoError(t, err)
	settings.BindConverter(conv)

	historyStore := memory.NewHistoryStore()
	service := New(
		repository.NewGoals(memory.NewGoalStore()),
		repository.NewHistory(historyStore),
		repository.NewUpdates(memory.NewUpdateStore()),
		settings, conv,
		WithClock(func() time.Time { return fixedNow }),
	)

	goal, err := service.CreateGoal(ctx, GoalInput{Name: "5k", Distance: 5000, Unit: units.Metres})
	require.NoError(t, err)
	require.NoError(t, service.SetActiveGoal(ctx, goal.ID))
	_, _, err = service.RecordCheckin(ctx, CheckinInput{Date: 0, Time: 60, Distance: 1000, Unit: units.Metres})
	require.NoError(t, err)

	histories, err := service.History(ctx)
	require.NoError(t, err)
	require.Equal(t, "5k", histories[0].Goal.Name)

	updated, err := service.UpdateGoal(ctx, goal.ID, GoalInput{Name: "five-k", Distance: 6000, Unit: units.Metres})
	require.NoError(t, err)

	// The durable store's rows follow the rewritten goal row.
	require.NoError(t, historyStore.Insert(ctx, domain.History{Date: service.Today(), Goal: &updated, Distance: 1000}))

	histories, err = service.History(ctx)
	require.NoError(t, err)
	require.Len(t, histories, 1)
	require.NotNil(t, histories[0].Goal)
	require.Equal(t, updated.ID, histories[0].Goal.ID)
	require.Equal(t, "five-k", histories[0].Goal.Name)
}

func TestStepsRatioChangeAffectsNewCheckins(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	goal, err := f.service.CreateGoal(ctx, GoalInput{Name: "1k", Distance: 1000, Unit: units.Metres})
	require.NoError(t, err)
	require.NoError(t, f.service.SetActiveGoal(ctx, goal.ID))

	settings := f.settings.Get()
	settings.StepsPerMetre = 2
	require.NoError(t, f.settings.Put(ctx, settings))

	record, _, err := f.service.RecordCheckin(ctx, CheckinInput{Date: 20, Time: 60, Distance: 1000, Unit: units.Steps})
	require.NoError(t, err)
	require.Equal(t, 500.0, record.Distance)
}

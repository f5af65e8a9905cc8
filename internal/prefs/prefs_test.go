package prefs

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"example.com/keepfit/internal/domain"
	"example.com/keepfit/internal/units"
)

type recordingBackend struct {
	loaded  Settings
	loadErr error
	saved   []Settings
	saveErr error
}

func (b *recordingBackend) Load(context.Context) (Settings, error) {
	return b.loaded, b.loadErr
}

func (b *recordingBackend) Save(_ context.Context, settings Settings) error {
	if b.saveErr != nil {
		return b.saveErr
	}
	b.saved = append(b.saved, settings)
	return nil
}

func TestNewStoreFallsBackToDefaults(t *testing.T) {
	store, err := NewStore(context.Background(), &recordingBackend{loadErr: domain.ErrNotAvailable})
	require.NoError(t, err)
	require.Equal(t, DefaultSettings(), store.Get())
	require.Equal(t, 1.5, store.Get().StepsPerMetre)
}

func TestNewStoreFallsBackOnWrappedNotAvailable(t *testing.T) {
	wrapped := fmt.Errorf("settings row: %w", domain.ErrNotAvailable)
	store, err := NewStore(context.Background(), &recordingBackend{loadErr: wrapped})
	require.NoError(t, err)
	require.Equal(t, DefaultSettings(), store.Get())
}

func TestNewStorePropagatesBackendFailure(t *testing.T) {
	boom := errors.New("backend down")
	_, err := NewStore(context.Background(), &recordingBackend{loadErr: boom})
	require.ErrorIs(t, err, boom)
}

func TestPutPersistsBeforeCommit(t *testing.T) {
	backend := &recordingBackend{loaded: DefaultSettings()}
	store, err := NewStore(context.Background(), backend)
	require.NoError(t, err)

	next := store.Get()
	next.GoalFilter = domain.GoalFilterCompleted
	require.NoError(t, store.Put(context.Background(), next))
	require.Len(t, backend.saved, 1)
	require.Equal(t, domain.GoalFilterCompleted, store.Get().GoalFilter)

	backend.saveErr = errors.New("disk full")
	failing := store.Get()
	failing.GoalProgress = 75
	require.Error(t, store.Put(context.Background(), failing))
	require.Equal(t, 0.0, store.Get().GoalProgress, "failed save must not commit")
}

func TestStepsPerMetreChangePropagatesToConverter(t *testing.T) {
	store, err := NewStore(context.Background(), nil)
	require.NoError(t, err)

	conv := units.NewConverter(0)
	store.BindConverter(conv)

	// Subscribe replays the current ratio (the 1.5 default).
	got, convErr := conv.Convert(units.Metres, units.Steps, 3)
	require.NoError(t, convErr)
	require.InDelta(t, 2, got, 1e-9)

	next := store.Get()
	next.StepsPerMetre = 3
	require.NoError(t, store.Put(context.Background(), next))

	got, convErr = conv.Convert(units.Metres, units.Steps, 3)
	require.NoError(t, convErr)
	require.InDelta(t, 1, got, 1e-9)
}

func TestSetActiveGoal(t *testing.T) {
	store, err := NewStore(context.Background(), nil)
	require.NoError(t, err)

	require.NoError(t, store.SetActiveGoal(context.Background(), "goal-1"))
	require.Equal(t, "goal-1", store.Get().ActiveGoalID)

	require.NoError(t, store.SetActiveGoal(context.Background(), ""))
	require.Empty(t, store.Get().ActiveGoalID)
}

func TestHistoryFilterDerivation(t *testing.T) {
	display := units.Miles
	settings := Settings{
		DateFilter:        domain.DateFilterCustom,
		CustomStartFilter: 5,
		CustomEndFilter:   9,
		GoalFilter:        domain.GoalFilterBelow,
		GoalProgress:      40,
		DisplayUnit:       &display,
	}

	filter := settings.HistoryFilter()
	require.Equal(t, domain.DateFilterCustom, filter.Date)
	require.Equal(t, int64(5), filter.CustomStart)
	require.Equal(t, int64(9), filter.CustomEnd)
	require.Equal(t, domain.GoalFilterBelow, filter.Goal)
	require.Equal(t, 40.0, filter.GoalProgress)
	require.Equal(t, &display, filter.DisplayUnit)
}

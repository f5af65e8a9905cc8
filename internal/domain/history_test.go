package domain

import (
	"testing"

	"github.com/stretchr/testify/require"

	"example.com/keepfit/internal/units"
)

func TestPercentage(t *testing.T) {
	goal := NewGoal("5k", 5000, units.Metres)

	history := NewHistory(100, &goal)
	require.Equal(t, float64(UndefinedPercentage), NewHistory(100, nil).Percentage())
	require.Equal(t, 0.0, history.Percentage())

	history.Distance = 2500
	require.Equal(t, 50.0, history.Percentage())

	history.Distance = 5000
	require.Equal(t, 100.0, history.Percentage())
}

func TestPercentageZeroTargetUndefined(t *testing.T) {
	goal := Goal{ID: "g", Name: "empty", Distance: 0, Unit: units.Metres}
	history := History{Date: 1, Goal: &goal, Distance: 10}
	require.Equal(t, float64(UndefinedPercentage), history.Percentage())
}

func TestAddUpdateConvertsIntoGoalUnit(t *testing.T) {
	conv := units.NewConverter(1.5)
	goal := NewGoal("daily", 5, units.Kilometres)
	history := NewHistory(10, &goal)

	err := history.AddUpdate(conv, Update{Date: 10, Time: 60, Distance: 2500, Unit: units.Metres})
	require.NoError(t, err)
	err = history.AddUpdate(conv, Update{Date: 10, Time: 120, Distance: 1.5, Unit: units.Kilometres})
	require.NoError(t, err)

	require.Len(t, history.Updates, 2)
	require.InDelta(t, 4.0, history.Distance, 1e-9)
	require.InDelta(t, 80.0, history.Percentage(), 1e-9)
}

func TestAddUpdateWithoutGoalAccumulatesRaw(t *testing.T) {
	conv := units.NewConverter(1.5)
	history := NewHistory(10, nil)

	require.NoError(t, history.AddUpdate(conv, Update{Date: 10, Time: 1, Distance: 500, Unit: units.Steps}))
	require.NoError(t, history.AddUpdate(conv, Update{Date: 10, Time: 2, Distance: 250, Unit: units.Steps}))
	require.Equal(t, 750.0, history.Distance)
}

func TestSetGoalRecomputesDistance(t *testing.T) {
	conv := units.NewConverter(1.5)
	history := NewHistory(10, nil)
	require.NoError(t, history.AddUpdate(conv, Update{Date: 10, Time: 1, Distance: 1000, Unit: units.Metres}))
	require.NoError(t, history.AddUpdate(conv, Update{Date: 10, Time: 2, Distance: 500, Unit: units.Metres}))

	goal := NewGoal("walk", 2, units.Kilometres)
	require.NoError(t, history.SetGoal(conv, &goal))

	require.InDelta(t, 1.5, history.Distance, 1e-9)
	require.InDelta(t, 75.0, history.Percentage(), 1e-9)

	// Reassigning back to a metre goal recomputes from updates again.
	metreGoal := NewGoal("walk-m", 2000, units.Metres)
	require.NoError(t, history.SetGoal(conv, &metreGoal))
	require.InDelta(t, 1500.0, history.Distance, 1e-9)
}

func TestCloneIsIndependent(t *testing.T) {
	goal := NewGoal("5k", 5000, units.Metres)
	history := History{
		Date:     7,
		Goal:     &goal,
		Distance: 100,
		Updates:  []Update{{Date: 7, Time: 1, Distance: 100, Unit: units.Metres}},
	}

	clone := history.Clone()
	clone.Distance = 999
	clone.Goal.Name = "changed"
	clone.Updates[0].Distance = 1

	require.Equal(t, 100.0, history.Distance)
	require.Equal(t, "5k", history.Goal.Name)
	require.Equal(t, 100.0, history.Updates[0].Distance)
}

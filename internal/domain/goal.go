// Package domain defines the entities of the step-goal tracker.
package domain

import (
	"errors"

	"github.com/google/uuid"

	"example.com/keepfit/internal/units"
)

var (
	// ErrNotAvailable indicates the requested entity or collection is absent
	// from the store. It is distinct from an empty result.
	ErrNotAvailable = errors.New("data not available")
	// ErrGoalNotFound is returned when a goal cannot be located.
	ErrGoalNotFound = errors.New("goal not found")
	// ErrGoalNameExists is returned when a goal name collides with another
	// non-deleted goal.
	ErrGoalNameExists = errors.New("goal name already exists")
)

// LastAchievedNever is the sentinel for a goal that has never been achieved.
const LastAchievedNever = -1

// Goal is a named distance the user aims to cover in a single day. Names are
// unique among goals; uniqueness is enforced by the caller at write time,
// not by the store.
type Goal struct {
	ID       string
	Name     string
	Distance float64
	Unit     units.Unit

	// LastAchieved is the day of epoch the goal was last reached, or
	// LastAchievedNever.
	LastAchieved int64
}

// NewGoal constructs a brand new goal with a fresh identity. The ID is never
// reused, even if the goal is later renamed.
func NewGoal(name string, distance float64, unit units.Unit) Goal {
	return Goal{
		ID:           uuid.NewString(),
		Name:         name,
		Distance:     distance,
		Unit:         unit,
		LastAchieved: LastAchievedNever,
	}
}

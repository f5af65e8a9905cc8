package domain

import "example.com/keepfit/internal/units"

// UndefinedPercentage is reported when a history has no goal to measure
// progress against.
const UndefinedPercentage = -1

// History is the aggregated record of progress for one calendar date. The
// date acts as the primary key: at most one History exists per day. Distance
// is the running total of the day's updates, expressed in the unit of the
// assigned goal.
type History struct {
	// Date is the day of epoch this record represents.
	Date int64
	// Goal is the goal attempted on this day, nil if none was assigned.
	Goal *Goal
	// Distance is the cumulative distance for the date in the goal's unit.
	Distance float64
	// Updates are the day's check-ins in recording order.
	Updates []Update
}

// NewHistory creates an empty record for a day, optionally bound to a goal.
func NewHistory(date int64, goal *Goal) History {
	return History{Date: date, Goal: goal}
}

// Percentage derives the progress towards the assigned goal. It is
// UndefinedPercentage when no goal is assigned or the goal has no target.
func (h History) Percentage() float64 {
	if h.Goal == nil || h.Goal.Distance <= 0 {
		return UndefinedPercentage
	}
	return h.Distance * 100 / h.Goal.Distance
}

// AddUpdate appends a check-in and grows the cumulative distance. When a
// goal is assigned the update's amount is converted into the goal's unit;
// without a goal amounts are accumulated as recorded.
func (h *History) AddUpdate(conv *units.Converter, update Update) error {
	amount := update.Distance
	if h.Goal != nil {
		converted, err := conv.Convert(h.Goal.Unit, update.Unit, update.Distance)
		if err != nil {
			return err
		}
		amount = converted
	}
	h.Updates = append(h.Updates, update)
	h.Distance += amount
	return nil
}

// SetGoal reassigns the day's goal and recomputes the cumulative distance
// from the recorded updates. The distance is never mutated independently of
// this recomputation when a goal is present.
func (h *History) SetGoal(conv *units.Converter, goal *Goal) error {
	h.Goal = goal
	if goal == nil {
		return nil
	}

	var total float64
	for _, update := range h.Updates {
		amount, err := conv.Convert(goal.Unit, update.Unit, update.Distance)
		if err != nil {
			return err
		}
		total += amount
	}
	h.Distance = total
	return nil
}

// Clone returns a deep copy. Callers that hand histories out of a cache use
// this so consumers can mutate results freely.
func (h History) Clone() History {
	out := h
	if h.Goal != nil {
		goal := *h.Goal
		out.Goal = &goal
	}
	if h.Updates != nil {
		out.Updates = make([]Update, len(h.Updates))
		copy(out.Updates, h.Updates)
	}
	return out
}

package domain

import (
	"fmt"
	"time"

	"example.com/keepfit/internal/units"
)

// DateFilter selects which span of history dates to keep.
type DateFilter int

const (
	DateFilterNone DateFilter = iota
	DateFilterWeek
	DateFilterMonth
	DateFilterCustom
)

var dateFilterNames = map[DateFilter]string{
	DateFilterNone:   "none",
	DateFilterWeek:   "week",
	DateFilterMonth:  "month",
	DateFilterCustom: "custom",
}

func (f DateFilter) String() string {
	if name, ok := dateFilterNames[f]; ok {
		return name
	}
	return fmt.Sprintf("date_filter(%d)", int(f))
}

// ParseDateFilter maps a stored filter name back to its DateFilter.
func ParseDateFilter(name string) (DateFilter, error) {
	for filter, n := range dateFilterNames {
		if n == name {
			return filter, nil
		}
	}
	return 0, fmt.Errorf("unknown date filter %q", name)
}

// GoalFilter selects which histories to keep based on goal progress.
type GoalFilter int

const (
	GoalFilterNone GoalFilter = iota
	GoalFilterBelow
	GoalFilterAbove
	GoalFilterCompleted
)

var goalFilterNames = map[GoalFilter]string{
	GoalFilterNone:      "none",
	GoalFilterBelow:     "below",
	GoalFilterAbove:     "above",
	GoalFilterCompleted: "completed",
}

func (f GoalFilter) String() string {
	if name, ok := goalFilterNames[f]; ok {
		return name
	}
	return fmt.Sprintf("goal_filter(%d)", int(f))
}

// ParseGoalFilter maps a stored filter name back to its GoalFilter.
func ParseGoalFilter(name string) (GoalFilter, error) {
	for filter, n := range goalFilterNames {
		if n == name {
			return filter, nil
		}
	}
	return 0, fmt.Errorf("unknown goal filter %q", name)
}

// HistoryFilter is the externally stored filter configuration applied to
// history reads.
type HistoryFilter struct {
	Date DateFilter
	// CustomStart and CustomEnd bound DateFilterCustom, both inclusive,
	// in days of epoch.
	CustomStart int64
	CustomEnd   int64

	Goal GoalFilter
	// GoalProgress is the percentage threshold for GoalFilterBelow and
	// GoalFilterAbove.
	GoalProgress float64

	// DisplayUnit, when non-nil, converts surviving distances and goal
	// targets for display.
	DisplayUnit *units.Unit
}

// FilterHistory produces the filtered, unit-converted view of the given
// history records. It is pure: the input records are never mutated, the
// display-unit conversion applies to returned copies only. The goal filter
// is applied before the date filter. today is the current day of epoch.
func FilterHistory(histories []History, filter HistoryFilter, today int64, conv *units.Converter) ([]History, error) {
	filtered := filterGoal(histories, filter)
	filtered = filterDate(filtered, filter, today)

	if filter.DisplayUnit == nil {
		return filtered, nil
	}

	out := make([]History, 0, len(filtered))
	for _, history := range filtered {
		converted, err := convertHistory(history, *filter.DisplayUnit, conv)
		if err != nil {
			return nil, err
		}
		out = append(out, converted)
	}
	return out, nil
}

func filterGoal(histories []History, filter HistoryFilter) []History {
	if filter.Goal == GoalFilterNone {
		return histories
	}

	kept := make([]History, 0, len(histories))
	for _, history := range histories {
		percentage := history.Percentage()
		// An undefined percentage can never satisfy a goal predicate.
		if percentage == UndefinedPercentage {
			continue
		}
		switch filter.Goal {
		case GoalFilterCompleted:
			if percentage >= 100 {
				kept = append(kept, history)
			}
		case GoalFilterBelow:
			if percentage <= filter.GoalProgress {
				kept = append(kept, history)
			}
		case GoalFilterAbove:
			if percentage >= filter.GoalProgress {
				kept = append(kept, history)
			}
		}
	}
	return kept
}

func filterDate(histories []History, filter HistoryFilter, today int64) []History {
	if filter.Date == DateFilterNone {
		return histories
	}

	kept := make([]History, 0, len(histories))
	for _, history := range histories {
		switch filter.Date {
		case DateFilterWeek:
			// A record exactly seven days old falls outside the week.
			if today-history.Date < 7 {
				kept = append(kept, history)
			}
		case DateFilterMonth:
			if history.Date > lastDayOfPreviousMonth(today) {
				kept = append(kept, history)
			}
		case DateFilterCustom:
			if history.Date >= filter.CustomStart && history.Date <= filter.CustomEnd {
				kept = append(kept, history)
			}
		}
	}
	return kept
}

// lastDayOfPreviousMonth subtracts the day-of-month from today, yielding the
// exclusive lower bound for the month filter.
func lastDayOfPreviousMonth(today int64) int64 {
	date := time.Unix(today*24*60*60, 0).UTC()
	return today - int64(date.Day())
}

// convertHistory returns a copy of the history with its distance and goal
// target expressed in the display unit. Histories without a goal carry no
// defined source unit and pass through unchanged.
func convertHistory(history History, display units.Unit, conv *units.Converter) (History, error) {
	if history.Goal == nil {
		return history, nil
	}

	out := history.Clone()

	distance, err := conv.Convert(display, history.Goal.Unit, history.Distance)
	if err != nil {
		return History{}, err
	}
	target, err := conv.Convert(display, history.Goal.Unit, history.Goal.Distance)
	if err != nil {
		return History{}, err
	}

	out.Distance = distance
	out.Goal.Distance = target
	out.Goal.Unit = display
	return out, nil
}

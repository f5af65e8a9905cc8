// Package events defines the tracker's event payloads and the Kafka
// publisher that emits them.
package events

import "time"

// Topic and event type constants shared by the publisher and the consumer.
const (
	TopicCheckins     = "keepfit_checkins"
	TopicAchievements = "keepfit_achievements"

	TypeCheckinRecorded = "checkin.recorded"
	TypeGoalAchieved    = "goal.achieved"
)

// CheckinRecorded represents one manual check-in, as produced by external
// clients and consumed by the ingestion binary.
type CheckinRecorded struct {
	// Date is the day of epoch the check-in belongs to; zero or negative
	// means "today" at ingestion time.
	Date int64 `json:"date"`
	// Time is the second of day of the check-in.
	Time     int64   `json:"time"`
	Distance float64 `json:"distance"`
	// Unit is the abbreviated unit name ("steps", "m", "km", "yd", "mi").
	Unit string `json:"unit"`
}

// GoalAchieved is emitted when a day's progress first reaches a goal.
type GoalAchieved struct {
	GoalID     string    `json:"goal_id"`
	GoalName   string    `json:"goal_name"`
	Date       int64     `json:"date"`
	Percentage float64   `json:"percentage"`
	OccurredAt time.Time `json:"occurred_at"`
}

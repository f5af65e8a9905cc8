package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"example.com/keepfit/internal/events"
	"example.com/keepfit/internal/tracker"
	"example.com/keepfit/internal/units"
)

// CheckinHandler records consumed check-in events through the tracker
// service, so ingested messages follow the same accumulation and achievement
// rules as check-ins arriving over HTTP.
type CheckinHandler struct {
	service *tracker.Service
}

// NewCheckinHandler constructs a handler backed by the tracker service.
func NewCheckinHandler(service *tracker.Service) *CheckinHandler {
	return &CheckinHandler{service: service}
}

// Handle decodes and records one check-in event. Unknown event types are an
// error; the processor leaves them uncommitted for inspection.
func (h *CheckinHandler) Handle(ctx context.Context, msg Message) error {
	if msg.EventType != events.TypeCheckinRecorded {
		return fmt.Errorf("unexpected event type %q", msg.EventType)
	}

	var event events.CheckinRecorded
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return fmt.Errorf("decode check-in payload: %w", err)
	}

	unit, err := units.Parse(event.Unit)
	if err != nil {
		return fmt.Errorf("check-in unit: %w", err)
	}

	_, _, err = h.service.RecordCheckin(ctx, tracker.CheckinInput{
		Date:     event.Date,
		Time:     event.Time,
		Distance: event.Distance,
		Unit:     unit,
	})
	return err
}

package domain

import "example.com/keepfit/internal/units"

// Update is a single manual check-in: a distance recorded at a moment of a
// day. Updates are append-only; they are never edited or deleted
// individually, only bulk-cleared. Date and time are kept separate so all
// updates of a day are cheap to retrieve, and many updates may share a date.
type Update struct {
	// Date is the day of epoch the update belongs to.
	Date int64
	// Time is the second of day the update was recorded at.
	Time int64
	// Distance is the recorded amount, expressed in Unit.
	Distance float64
	Unit     units.Unit
}

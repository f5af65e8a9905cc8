// Package repository caches entities in memory in front of the durable row
// store. Each entity kind gets its own repository instance, constructed once
// at application start and passed to consumers by reference.
package repository

import (
	"context"

	"example.com/keepfit/internal/domain"
)

// GoalStore is the durable row store for goals. Implementations signal an
// absent record or collection with domain.ErrNotAvailable.
type GoalStore interface {
	LoadAll(ctx context.Context) ([]domain.Goal, error)
	LoadByID(ctx context.Context, id string) (domain.Goal, error)
	Insert(ctx context.Context, goal domain.Goal) error
	// Update writes the goal over the row identified by previousID; the
	// goal's current ID may differ when identity was regenerated.
	Update(ctx context.Context, goal domain.Goal, previousID string) error
	DeleteByID(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
}

// HistoryStore is the durable row store for history records, keyed by day of
// epoch. Loaded records are hydrated with their goal and updates.
type HistoryStore interface {
	LoadAll(ctx context.Context) ([]domain.History, error)
	LoadByDate(ctx context.Context, date int64) (domain.History, error)
	Insert(ctx context.Context, history domain.History) error
	DeleteByDate(ctx context.Context, date int64) error
	DeleteAll(ctx context.Context) error
}

// UpdateStore is the durable row store for check-ins. Updates are
// append-only: there is no per-row update or delete.
type UpdateStore interface {
	LoadAll(ctx context.Context) ([]domain.Update, error)
	LoadByDate(ctx context.Context, date int64) ([]domain.Update, error)
	Insert(ctx context.Context, update domain.Update) error
	DeleteAll(ctx context.Context) error
}

// Package postgres implements the Local Store Adapters over a pgx pool.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/keepfit/internal/domain"
	"example.com/keepfit/internal/units"
)

// GoalStore persists goal rows.
type GoalStore struct {
	pool *pgxpool.Pool
}

// NewGoalStore constructs a GoalStore.
func NewGoalStore(pool *pgxpool.Pool) *GoalStore {
	return &GoalStore{pool: pool}
}

// LoadAll returns every goal row. An empty table signals not-available, the
// same way the data sources of the original tracker treated empty cursors.
func (s *GoalStore) LoadAll(ctx context.Context) ([]domain.Goal, error) {
	const query = `SELECT goal_id, name, distance, unit, last_achieved FROM goals ORDER BY name`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var goals []domain.Goal
	for rows.Next() {
		goal, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, goal)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(goals) == 0 {
		return nil, domain.ErrNotAvailable
	}
	return goals, nil
}

// LoadByID returns a single goal row.
func (s *GoalStore) LoadByID(ctx context.Context, id string) (domain.Goal, error) {
	const query = `SELECT goal_id, name, distance, unit, last_achieved FROM goals WHERE goal_id=$1`

	goal, err := scanGoal(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Goal{}, domain.ErrNotAvailable
		}
		return domain.Goal{}, err
	}
	return goal, nil
}

// Insert writes a new goal row.
func (s *GoalStore) Insert(ctx context.Context, goal domain.Goal) error {
	const stmt = `INSERT INTO goals (goal_id, name, distance, unit, last_achieved)
        VALUES ($1,$2,$3,$4,$5)`

	_, err := s.pool.Exec(ctx, stmt, goal.ID, goal.Name, goal.Distance, int16(goal.Unit), goal.LastAchieved)
	return err
}

// Update rewrites the row identified by previousID; the goal may carry a new
// identity.
func (s *GoalStore) Update(ctx context.Context, goal domain.Goal, previousID string) error {
	const stmt = `UPDATE goals SET goal_id=$1, name=$2, distance=$3, unit=$4, last_achieved=$5
        WHERE goal_id=$6`

	tag, err := s.pool.Exec(ctx, stmt, goal.ID, goal.Name, goal.Distance, int16(goal.Unit), goal.LastAchieved, previousID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotAvailable
	}
	return nil
}

// DeleteByID removes the goal row.
func (s *GoalStore) DeleteByID(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM goals WHERE goal_id=$1`, id)
	return err
}

// DeleteAll clears the goals table.
func (s *GoalStore) DeleteAll(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM goals`)
	return err
}

func scanGoal(row pgx.Row) (domain.Goal, error) {
	var goal domain.Goal
	var unit int16
	if err := row.Scan(&goal.ID, &goal.Name, &goal.Distance, &unit, &goal.LastAchieved); err != nil {
		return domain.Goal{}, err
	}
	goal.Unit = units.Unit(unit)
	return goal, nil
}

// HistoryStore persists history rows, hydrating each record with its goal
// and updates on the way out.
type HistoryStore struct {
	pool *pgxpool.Pool
}

// NewHistoryStore constructs a HistoryStore.
func NewHistoryStore(pool *pgxpool.Pool) *HistoryStore {
	return &HistoryStore{pool: pool}
}

// LoadAll returns every history record with goal and updates attached.
func (s *HistoryStore) LoadAll(ctx context.Context) ([]domain.History, error) {
	const query = `SELECT h.date, h.distance, g.goal_id, g.name, g.distance, g.unit, g.last_achieved
        FROM history h LEFT JOIN goals g ON g.goal_id = h.goal_id
        ORDER BY h.date`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var histories []domain.History
	for rows.Next() {
		history, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		histories = append(histories, history)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(histories) == 0 {
		return nil, domain.ErrNotAvailable
	}

	for i := range histories {
		updates, err := s.loadUpdates(ctx, histories[i].Date)
		if err != nil {
			return nil, err
		}
		histories[i].Updates = updates
	}
	return histories, nil
}

// LoadByDate returns one day's record with goal and updates attached.
func (s *HistoryStore) LoadByDate(ctx context.Context, date int64) (domain.History, error) {
	const query = `SELECT h.date, h.distance, g.goal_id, g.name, g.distance, g.unit, g.last_achieved
        FROM history h LEFT JOIN goals g ON g.goal_id = h.goal_id
        WHERE h.date=$1`

	history, err := scanHistory(s.pool.QueryRow(ctx, query, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.History{}, domain.ErrNotAvailable
		}
		return domain.History{}, err
	}

	updates, err := s.loadUpdates(ctx, date)
	if err != nil {
		return domain.History{}, err
	}
	history.Updates = updates
	return history, nil
}

// Insert upserts the day's row. Updates travel through the UpdateStore, not
// here; only the aggregate row is written.
func (s *HistoryStore) Insert(ctx context.Context, history domain.History) error {
	const stmt = `INSERT INTO history (date, goal_id, distance) VALUES ($1,$2,$3)
        ON CONFLICT (date) DO UPDATE SET goal_id=EXCLUDED.goal_id, distance=EXCLUDED.distance`

	var goalID interface{}
	if history.Goal != nil {
		goalID = history.Goal.ID
	}
	_, err := s.pool.Exec(ctx, stmt, history.Date, goalID, history.Distance)
	return err
}

// DeleteByDate removes the day's row.
func (s *HistoryStore) DeleteByDate(ctx context.Context, date int64) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM history WHERE date=$1`, date)
	return err
}

// DeleteAll clears the history table.
func (s *HistoryStore) DeleteAll(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM history`)
	return err
}

func (s *HistoryStore) loadUpdates(ctx context.Context, date int64) ([]domain.Update, error) {
	const query = `SELECT date, time, distance, unit FROM updates WHERE date=$1 ORDER BY time`

	rows, err := s.pool.Query(ctx, query, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUpdates(rows)
}

func scanHistory(row pgx.Row) (domain.History, error) {
	var history domain.History
	var goalID, goalName *string
	var goalDistance *float64
	var goalUnit *int16
	var lastAchieved *int64

	if err := row.Scan(&history.Date, &history.Distance, &goalID, &goalName, &goalDistance, &goalUnit, &lastAchieved); err != nil {
		return domain.History{}, err
	}
	if goalID != nil {
		history.Goal = &domain.Goal{
			ID:           *goalID,
			Name:         *goalName,
			Distance:     *goalDistance,
			Unit:         units.Unit(*goalUnit),
			LastAchieved: *lastAchieved,
		}
	}
	return history, nil
}

// UpdateStore persists check-in rows. Rows are append-only: no per-row
// update or delete statements exist.
type UpdateStore struct {
	pool *pgxpool.Pool
}

// NewUpdateStore constructs an UpdateStore.
func NewUpdateStore(pool *pgxpool.Pool) *UpdateStore {
	return &UpdateStore{pool: pool}
}

// LoadAll returns every check-in ordered by date then time.
func (s *UpdateStore) LoadAll(ctx context.Context) ([]domain.Update, error) {
	rows, err := s.pool.Query(ctx, `SELECT date, time, distance, unit FROM updates ORDER BY date, time`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	updates, err := collectUpdates(rows)
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return nil, domain.ErrNotAvailable
	}
	return updates, nil
}

// LoadByDate returns the day's check-ins ordered by time.
func (s *UpdateStore) LoadByDate(ctx context.Context, date int64) ([]domain.Update, error) {
	rows, err := s.pool.Query(ctx, `SELECT date, time, distance, unit FROM updates WHERE date=$1 ORDER BY time`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	updates, err := collectUpdates(rows)
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return nil, domain.ErrNotAvailable
	}
	return updates, nil
}

// Insert appends a check-in row.
func (s *UpdateStore) Insert(ctx context.Context, update domain.Update) error {
	const stmt = `INSERT INTO updates (date, time, distance, unit) VALUES ($1,$2,$3,$4)`

	_, err := s.pool.Exec(ctx, stmt, update.Date, update.Time, update.Distance, int16(update.Unit))
	return err
}

// DeleteAll clears the updates table.
func (s *UpdateStore) DeleteAll(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM updates`)
	return err
}

func collectUpdates(rows pgx.Rows) ([]domain.Update, error) {
	var updates []domain.Update
	for rows.Next() {
		var update domain.Update
		var unit int16
		if err := rows.Scan(&update.Date, &update.Time, &update.Distance, &unit); err != nil {
			return nil, err
		}
		update.Unit = units.Unit(unit)
		updates = append(updates, update)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return updates, nil
}

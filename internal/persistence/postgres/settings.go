package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/keepfit/internal/domain"
	"example.com/keepfit/internal/prefs"
	"example.com/keepfit/internal/units"
)

// SettingsBackend persists the single settings row.
type SettingsBackend struct {
	pool *pgxpool.Pool
}

// NewSettingsBackend constructs a SettingsBackend.
func NewSettingsBackend(pool *pgxpool.Pool) *SettingsBackend {
	return &SettingsBackend{pool: pool}
}

// Load reads the settings row, or not-available before the first save.
func (s *SettingsBackend) Load(ctx context.Context) (prefs.Settings, error) {
	const query = `SELECT steps_per_metre, date_filter, custom_start, custom_end,
        goal_filter, goal_progress, display_unit, active_goal_id
        FROM settings WHERE id=1`

	var settings prefs.Settings
	var dateFilter, goalFilter string
	var displayUnit *int16

	row := s.pool.QueryRow(ctx, query)
	err := row.Scan(&settings.StepsPerMetre, &dateFilter, &settings.CustomStartFilter,
		&settings.CustomEndFilter, &goalFilter, &settings.GoalProgress,
		&displayUnit, &settings.ActiveGoalID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return prefs.Settings{}, domain.ErrNotAvailable
		}
		return prefs.Settings{}, err
	}

	if settings.DateFilter, err = domain.ParseDateFilter(dateFilter); err != nil {
		return prefs.Settings{}, err
	}
	if settings.GoalFilter, err = domain.ParseGoalFilter(goalFilter); err != nil {
		return prefs.Settings{}, err
	}
	if displayUnit != nil {
		unit := units.Unit(*displayUnit)
		settings.DisplayUnit = &unit
	}
	return settings, nil
}

// Save upserts the settings row.
func (s *SettingsBackend) Save(ctx context.Context, settings prefs.Settings) error {
	const stmt = `INSERT INTO settings (id, steps_per_metre, date_filter, custom_start, custom_end,
        goal_filter, goal_progress, display_unit, active_goal_id)
        VALUES (1,$1,$2,$3,$4,$5,$6,$7,$8)
        ON CONFLICT (id) DO UPDATE SET
            steps_per_metre=EXCLUDED.steps_per_metre,
            date_filter=EXCLUDED.date_filter,
            custom_start=EXCLUDED.custom_start,
            custom_end=EXCLUDED.custom_end,
            goal_filter=EXCLUDED.goal_filter,
            goal_progress=EXCLUDED.goal_progress,
            display_unit=EXCLUDED.display_unit,
            active_goal_id=EXCLUDED.active_goal_id`

	var displayUnit interface{}
	if settings.DisplayUnit != nil {
		displayUnit = int16(*settings.DisplayUnit)
	}

	_, err := s.pool.Exec(ctx, stmt, settings.StepsPerMetre, settings.DateFilter.String(),
		settings.CustomStartFilter, settings.CustomEndFilter, settings.GoalFilter.String(),
		settings.GoalProgress, displayUnit, settings.ActiveGoalID)
	return err
}

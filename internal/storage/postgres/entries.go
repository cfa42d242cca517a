package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/julianstephens/hardlog/internal/logger"
	"github.com/julianstephens/hardlog/internal/models"
)

const entryColumns = "id, daily_log_id, habit_id, value, is_completed, created_at, updated_at"

func scanEntry(row scanner) (models.HabitEntry, error) {
	var e models.HabitEntry
	if err := row.Scan(&e.ID, &e.DailyLogID, &e.HabitID, &e.Value, &e.Completed, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return models.HabitEntry{}, err
	}
	return e, nil
}

func (s *Store) GetHabitEntries(ctx context.Context, dailyLogID string) ([]models.HabitEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.id, e.daily_log_id, e.habit_id, e.value, e.is_completed, e.created_at, e.updated_at
		FROM habit_entries e JOIN habits h ON h.id = e.habit_id
		WHERE e.daily_log_id = $1
		ORDER BY h.sort_order, h.created_at`, dailyLogID)
	if err != nil {
		return nil, wrap("get habit entries", err)
	}
	defer rows.Close()

	entries := []models.HabitEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, wrap("get habit entries", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("get habit entries", err)
	}
	return entries, nil
}

func (s *Store) CreateHabitEntries(ctx context.Context, dailyLogID string, habitIDs []string) ([]models.HabitEntry, error) {
	if len(habitIDs) == 0 {
		return []models.HabitEntry{}, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, wrap("create habit entries", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO habit_entries (id, daily_log_id, habit_id, value, is_completed)
		VALUES ($1, $2, $3, 0, FALSE)
		RETURNING `+entryColumns)
	if err != nil {
		return nil, wrap("create habit entries", err)
	}
	defer stmt.Close()

	created := make([]models.HabitEntry, 0, len(habitIDs))
	for _, habitID := range habitIDs {
		e, err := scanEntry(stmt.QueryRowContext(ctx, uuid.New().String(), dailyLogID, habitID))
		if err != nil {
			return nil, wrap("create habit entries", err)
		}
		created = append(created, e)
	}

	if err := tx.Commit(); err != nil {
		return nil, wrap("create habit entries", err)
	}
	return created, nil
}

func (s *Store) BatchUpdateHabitEntries(ctx context.Context, updates []models.EntryUpdate) ([]models.HabitEntry, error) {
	updated := make([]models.HabitEntry, 0, len(updates))
	for _, u := range updates {
		e, err := scanEntry(s.db.QueryRowContext(ctx, `
			UPDATE habit_entries SET value = $1, is_completed = $2, updated_at = NOW()
			WHERE id = $3
			RETURNING `+entryColumns,
			u.Changes.Value, u.Changes.Completed, u.ID))
		if err != nil {
			if ctx.Err() != nil {
				return nil, wrap("batch update habit entries", ctx.Err())
			}
			logger.Warn("Dropped habit entry update", "id", u.ID, "error", wrap("update habit entry", err))
			continue
		}
		updated = append(updated, e)
	}
	return updated, nil
}

func (s *Store) DeleteHabitEntry(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM habit_entries WHERE id = $1", id)
	if err != nil {
		return wrap("delete habit entry", err)
	}
	return wrap("delete habit entry", requireRow(res))
}

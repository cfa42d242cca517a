package sqlite

import (
	"context"

	"github.com/google/uuid"

	"github.com/julianstephens/hardlog/internal/logger"
	"github.com/julianstephens/hardlog/internal/models"
)

const entryColumns = "e.id, e.daily_log_id, e.habit_id, e.value, e.is_completed, e.created_at, e.updated_at"

func scanEntry(row scanner) (models.HabitEntry, error) {
	var e models.HabitEntry
	var completed int
	var createdAt, updatedAt string
	if err := row.Scan(&e.ID, &e.DailyLogID, &e.HabitID, &e.Value, &completed, &createdAt, &updatedAt); err != nil {
		return models.HabitEntry{}, err
	}
	e.Completed = completed == 1
	var err error
	if e.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return models.HabitEntry{}, err
	}
	if e.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return models.HabitEntry{}, err
	}
	return e, nil
}

func (s *Store) GetHabitEntries(ctx context.Context, dailyLogID string) ([]models.HabitEntry, error) {
	// Entries follow the habit order so every view lists them the same way
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+entryColumns+`
		FROM habit_entries e JOIN habits h ON h.id = e.habit_id
		WHERE e.daily_log_id = ?
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
		INSERT INTO habit_entries (id, daily_log_id, habit_id, value, is_completed, created_at, updated_at)
		VALUES (?, ?, ?, 0, 0, ?, ?)`)
	if err != nil {
		return nil, wrap("create habit entries", err)
	}
	defer stmt.Close()

	ts := now()
	created := make([]models.HabitEntry, 0, len(habitIDs))
	for _, habitID := range habitIDs {
		e := models.HabitEntry{
			ID:         uuid.New().String(),
			DailyLogID: dailyLogID,
			HabitID:    habitID,
			CreatedAt:  ts,
			UpdatedAt:  ts,
		}
		if _, err := stmt.ExecContext(ctx, e.ID, e.DailyLogID, e.HabitID, formatTime(ts), formatTime(ts)); err != nil {
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
		e, err := s.updateEntry(ctx, u)
		if err != nil {
			if ctx.Err() != nil {
				return nil, wrap("batch update habit entries", ctx.Err())
			}
			logger.Warn("Dropped habit entry update", "id", u.ID, "error", err)
			continue
		}
		updated = append(updated, e)
	}
	return updated, nil
}

func (s *Store) updateEntry(ctx context.Context, u models.EntryUpdate) (models.HabitEntry, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE habit_entries SET value = ?, is_completed = ?, updated_at = ? WHERE id = ?",
		u.Changes.Value, boolToInt(u.Changes.Completed), formatTime(now()), u.ID)
	if err != nil {
		return models.HabitEntry{}, wrap("update habit entry", err)
	}
	if err := requireRow(res); err != nil {
		return models.HabitEntry{}, wrap("update habit entry", err)
	}
	row := s.db.QueryRowContext(ctx, "SELECT "+entryColumns+" FROM habit_entries e WHERE e.id = ?", u.ID)
	e, err := scanEntry(row)
	if err != nil {
		return models.HabitEntry{}, wrap("update habit entry", err)
	}
	return e, nil
}

func (s *Store) DeleteHabitEntry(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM habit_entries WHERE id = ?", id)
	if err != nil {
		return wrap("delete habit entry", err)
	}
	return wrap("delete habit entry", requireRow(res))
}

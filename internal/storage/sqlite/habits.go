package sqlite

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/julianstephens/hardlog/internal/models"
)

const habitColumns = "id, user_id, name, unit, habit_type, is_active, created_at, updated_at"

func scanHabit(row scanner) (models.Habit, error) {
	var h models.Habit
	var kind, createdAt, updatedAt string
	var active int
	if err := row.Scan(&h.ID, &h.UserID, &h.Name, &h.Unit, &kind, &active, &createdAt, &updatedAt); err != nil {
		return models.Habit{}, err
	}
	h.Kind = models.HabitKind(kind)
	h.Active = active == 1

	var err error
	if h.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return models.Habit{}, err
	}
	if h.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return models.Habit{}, err
	}
	return h, nil
}

func (s *Store) getHabit(ctx context.Context, id string) (models.Habit, error) {
	return scanHabit(s.db.QueryRowContext(ctx, "SELECT "+habitColumns+" FROM habits WHERE id = ?", id))
}

func (s *Store) GetHabits(ctx context.Context, userID string) ([]models.Habit, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+habitColumns+" FROM habits WHERE user_id = ? ORDER BY sort_order, created_at", userID)
	if err != nil {
		return nil, wrap("get habits", err)
	}
	defer rows.Close()

	habits := []models.Habit{}
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, wrap("get habits", err)
		}
		habits = append(habits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("get habits", err)
	}
	return habits, nil
}

func (s *Store) CreateHabits(ctx context.Context, userID string, defs []models.HabitDefinition) ([]models.Habit, error) {
	if len(defs) == 0 {
		return []models.Habit{}, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, wrap("create habits", err)
	}
	defer tx.Rollback()

	var next int
	if err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(sort_order) + 1, 0) FROM habits WHERE user_id = ?", userID).Scan(&next); err != nil {
		return nil, wrap("create habits", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO habits (id, user_id, name, unit, habit_type, is_active, sort_order, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 1, ?, ?, ?)`)
	if err != nil {
		return nil, wrap("create habits", err)
	}
	defer stmt.Close()

	ts := now()
	created := make([]models.Habit, 0, len(defs))
	for i, def := range defs {
		h := models.Habit{
			ID:        uuid.New().String(),
			UserID:    userID,
			Name:      strings.TrimSpace(def.Name),
			Unit:      def.Unit,
			Kind:      def.Kind,
			Active:    true,
			CreatedAt: ts,
			UpdatedAt: ts,
		}
		if _, err := stmt.ExecContext(ctx, h.ID, h.UserID, h.Name, h.Unit, string(h.Kind), next+i, formatTime(ts), formatTime(ts)); err != nil {
			return nil, wrap("create habits", err)
		}
		created = append(created, h)
	}

	if err := tx.Commit(); err != nil {
		return nil, wrap("create habits", err)
	}
	return created, nil
}

func (s *Store) UpdateHabit(ctx context.Context, id string, changes models.HabitChanges) (models.Habit, error) {
	if changes.Empty() {
		h, err := s.getHabit(ctx, id)
		if err != nil {
			return models.Habit{}, wrap("update habit", err)
		}
		return h, nil
	}

	sets := []string{"updated_at = ?"}
	args := []any{formatTime(now())}
	if changes.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, strings.TrimSpace(*changes.Name))
	}
	if changes.Unit != nil {
		sets = append(sets, "unit = ?")
		args = append(args, *changes.Unit)
	}
	if changes.Active != nil {
		sets = append(sets, "is_active = ?")
		args = append(args, boolToInt(*changes.Active))
	}
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, "UPDATE habits SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return models.Habit{}, wrap("update habit", err)
	}
	if err := requireRow(res); err != nil {
		return models.Habit{}, wrap("update habit", err)
	}

	h, err := s.getHabit(ctx, id)
	if err != nil {
		return models.Habit{}, wrap("update habit", err)
	}
	return h, nil
}

func (s *Store) DeleteHabit(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM habits WHERE id = ?", id)
	if err != nil {
		return wrap("delete habit", err)
	}
	return wrap("delete habit", requireRow(res))
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

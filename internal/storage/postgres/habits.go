package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/julianstephens/hardlog/internal/models"
)

const habitColumns = "id, user_id, name, unit, habit_type, is_active, created_at, updated_at"

func scanHabit(row scanner) (models.Habit, error) {
	var h models.Habit
	var kind string
	if err := row.Scan(&h.ID, &h.UserID, &h.Name, &h.Unit, &kind, &h.Active, &h.CreatedAt, &h.UpdatedAt); err != nil {
		return models.Habit{}, err
	}
	h.Kind = models.HabitKind(kind)
	return h, nil
}

func (s *Store) GetHabits(ctx context.Context, userID string) ([]models.Habit, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+habitColumns+" FROM habits WHERE user_id = $1 ORDER BY sort_order, created_at", userID)
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
		"SELECT COALESCE(MAX(sort_order) + 1, 0) FROM habits WHERE user_id = $1", userID).Scan(&next); err != nil {
		return nil, wrap("create habits", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO habits (id, user_id, name, unit, habit_type, is_active, sort_order)
		VALUES ($1, $2, $3, $4, $5, TRUE, $6)
		RETURNING `+habitColumns)
	if err != nil {
		return nil, wrap("create habits", err)
	}
	defer stmt.Close()

	created := make([]models.Habit, 0, len(defs))
	for i, def := range defs {
		h, err := scanHabit(stmt.QueryRowContext(ctx,
			uuid.New().String(), userID, strings.TrimSpace(def.Name), def.Unit, string(def.Kind), next+i))
		if err != nil {
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
		h, err := scanHabit(s.db.QueryRowContext(ctx, "SELECT "+habitColumns+" FROM habits WHERE id = $1", id))
		if err != nil {
			return models.Habit{}, wrap("update habit", err)
		}
		return h, nil
	}

	sets := []string{"updated_at = NOW()"}
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if changes.Name != nil {
		add("name", strings.TrimSpace(*changes.Name))
	}
	if changes.Unit != nil {
		add("unit", *changes.Unit)
	}
	if changes.Active != nil {
		add("is_active", *changes.Active)
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE habits SET %s WHERE id = $%d RETURNING %s", strings.Join(sets, ", "), len(args), habitColumns)
	h, err := scanHabit(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return models.Habit{}, wrap("update habit", err)
	}
	return h, nil
}

func (s *Store) DeleteHabit(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM habits WHERE id = $1", id)
	if err != nil {
		return wrap("delete habit", err)
	}
	return wrap("delete habit", requireRow(res))
}

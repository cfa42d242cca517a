package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/julianstephens/hardlog/internal/models"
)

// date is a DATE column; reading it as text keeps the YYYY-MM-DD form
const logColumns = "id, user_id, date::text, created_at, updated_at"

func scanDailyLog(row scanner) (models.DailyLog, error) {
	var l models.DailyLog
	if err := row.Scan(&l.ID, &l.UserID, &l.Date, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return models.DailyLog{}, err
	}
	return l, nil
}

func (s *Store) GetDailyLog(ctx context.Context, userID, date string) (models.DailyLog, error) {
	l, err := scanDailyLog(s.db.QueryRowContext(ctx,
		"SELECT "+logColumns+" FROM daily_logs WHERE user_id = $1 AND date = $2", userID, date))
	if err != nil {
		return models.DailyLog{}, wrap("get daily log", err)
	}
	return l, nil
}

func (s *Store) CreateDailyLog(ctx context.Context, userID, date string) (models.DailyLog, error) {
	l, err := scanDailyLog(s.db.QueryRowContext(ctx, `
		INSERT INTO daily_logs (id, user_id, date) VALUES ($1, $2, $3)
		RETURNING `+logColumns,
		uuid.New().String(), userID, date))
	if err != nil {
		return models.DailyLog{}, wrap("create daily log", err)
	}
	return l, nil
}

func (s *Store) ListDailyLogs(ctx context.Context, userID string) ([]models.DailyLog, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+logColumns+" FROM daily_logs WHERE user_id = $1 ORDER BY date DESC", userID)
	if err != nil {
		return nil, wrap("list daily logs", err)
	}
	defer rows.Close()

	logs := []models.DailyLog{}
	for rows.Next() {
		l, err := scanDailyLog(rows)
		if err != nil {
			return nil, wrap("list daily logs", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list daily logs", err)
	}
	return logs, nil
}

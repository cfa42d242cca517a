package sqlite

import (
	"context"

	"github.com/google/uuid"

	"github.com/julianstephens/hardlog/internal/models"
)

const logColumns = "id, user_id, date, created_at, updated_at"

func scanDailyLog(row scanner) (models.DailyLog, error) {
	var l models.DailyLog
	var createdAt, updatedAt string
	if err := row.Scan(&l.ID, &l.UserID, &l.Date, &createdAt, &updatedAt); err != nil {
		return models.DailyLog{}, err
	}
	var err error
	if l.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return models.DailyLog{}, err
	}
	if l.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return models.DailyLog{}, err
	}
	return l, nil
}

func (s *Store) GetDailyLog(ctx context.Context, userID, date string) (models.DailyLog, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+logColumns+" FROM daily_logs WHERE user_id = ? AND date = ?", userID, date)
	l, err := scanDailyLog(row)
	if err != nil {
		return models.DailyLog{}, wrap("get daily log", err)
	}
	return l, nil
}

func (s *Store) CreateDailyLog(ctx context.Context, userID, date string) (models.DailyLog, error) {
	ts := now()
	l := models.DailyLog{
		ID:        uuid.New().String(),
		UserID:    userID,
		Date:      date,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO daily_logs (id, user_id, date, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		l.ID, l.UserID, l.Date, formatTime(ts), formatTime(ts))
	if err != nil {
		return models.DailyLog{}, wrap("create daily log", err)
	}
	return l, nil
}

func (s *Store) ListDailyLogs(ctx context.Context, userID string) ([]models.DailyLog, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+logColumns+" FROM daily_logs WHERE user_id = ? ORDER BY date DESC", userID)
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

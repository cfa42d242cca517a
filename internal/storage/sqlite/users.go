package sqlite

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/julianstephens/hardlog/internal/models"
)

const userColumns = "id, email, name, created_at"

func scanUser(row scanner) (models.User, error) {
	var u models.User
	var createdAt string
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &createdAt); err != nil {
		return models.User{}, err
	}
	var err error
	if u.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return models.User{}, err
	}
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (models.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	u, err := scanUser(row)
	if err != nil {
		return models.User{}, wrap("get user", err)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", strings.ToLower(strings.TrimSpace(email)))
	u, err := scanUser(row)
	if err != nil {
		return models.User{}, wrap("get user by email", err)
	}
	return u, nil
}

func (s *Store) CreateUser(ctx context.Context, email, name string) (models.User, error) {
	u := models.User{
		ID:        uuid.New().String(),
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Name:      strings.TrimSpace(name),
		CreatedAt: now(),
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users (id, email, name, created_at) VALUES (?, ?, ?, ?)",
		u.ID, u.Email, u.Name, formatTime(u.CreatedAt))
	if err != nil {
		return models.User{}, wrap("create user", err)
	}
	return u, nil
}

func (s *Store) UpdateUserName(ctx context.Context, id, name string) (models.User, error) {
	res, err := s.db.ExecContext(ctx, "UPDATE users SET name = ? WHERE id = ?", strings.TrimSpace(name), id)
	if err != nil {
		return models.User{}, wrap("update user", err)
	}
	if err := requireRow(res); err != nil {
		return models.User{}, wrap("update user", err)
	}
	return s.GetUser(ctx, id)
}

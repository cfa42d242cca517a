package postgres

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/julianstephens/hardlog/internal/models"
)

const userColumns = "id, email, name, created_at"

func scanUser(row scanner) (models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt); err != nil {
		return models.User{}, err
	}
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id))
	if err != nil {
		return models.User{}, wrap("get user", err)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = $1", strings.ToLower(strings.TrimSpace(email))))
	if err != nil {
		return models.User{}, wrap("get user by email", err)
	}
	return u, nil
}

func (s *Store) CreateUser(ctx context.Context, email, name string) (models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `
		INSERT INTO users (id, email, name) VALUES ($1, $2, $3)
		RETURNING `+userColumns,
		uuid.New().String(), strings.ToLower(strings.TrimSpace(email)), strings.TrimSpace(name)))
	if err != nil {
		return models.User{}, wrap("create user", err)
	}
	return u, nil
}

func (s *Store) UpdateUserName(ctx context.Context, id, name string) (models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		"UPDATE users SET name = $1 WHERE id = $2 RETURNING "+userColumns, strings.TrimSpace(name), id))
	if err != nil {
		return models.User{}, wrap("update user", err)
	}
	return u, nil
}

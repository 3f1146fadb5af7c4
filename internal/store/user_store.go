package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/grvbrk/vidcatalog/internal/models"
)

type SQLUserStore struct {
	db *sqlx.DB
}

func NewSQLUserStore(db *sqlx.DB) *SQLUserStore {
	return &SQLUserStore{db: db}
}

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

func (s *SQLUserStore) CreateUser(ctx context.Context, user *models.User) error {
	query := s.db.Rebind(`
	INSERT INTO users (username, password_hash, created_at)
	VALUES (?, ?, ?)
	RETURNING id`)

	user.CreatedAt = user.CreatedAt.UTC()
	err := s.db.QueryRowxContext(ctx, query, user.Username, user.PasswordHash, user.CreatedAt).Scan(&user.ID)
	if err != nil {
		return fmt.Errorf("error running create user query: %w", err)
	}
	return nil
}

func (s *SQLUserStore) getUser(ctx context.Context, where string, arg any) (*models.User, error) {
	user := &models.User{}
	query := s.db.Rebind(`SELECT id, username, password_hash, created_at FROM users WHERE ` + where + ` = ?`)

	if err := s.db.GetContext(ctx, user, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %v: %w", arg, models.ErrNotFound)
		}
		return nil, fmt.Errorf("error running get user by %s query: %w", where, err)
	}
	return user, nil
}

func (s *SQLUserStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getUser(ctx, "username", username)
}

func (s *SQLUserStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.getUser(ctx, "id", id)
}

func (s *SQLUserStore) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`UPDATE users SET password_hash = ? WHERE id = ?`), passwordHash, id)
	if err != nil {
		return fmt.Errorf("error updating password: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("user %d: %w", id, models.ErrNotFound)
	}
	return nil
}

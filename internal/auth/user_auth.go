package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/grvbrk/vidcatalog/internal/models"
	"github.com/grvbrk/vidcatalog/internal/store"
)

// EnsureAdmin creates the bootstrap admin when no user with that name exists.
// An existing account is left untouched.
func EnsureAdmin(ctx context.Context, users store.UserStore, username, password string, logger zerolog.Logger) error {
	_, err := users.GetUserByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("ensure admin: %w", err)
	}

	if _, err := SetAdminPassword(ctx, users, username, password); err != nil {
		return err
	}
	logger.Info().Str("username", username).Msg("created admin user")
	return nil
}

// SetAdminPassword creates the user or resets its password. It reports
// whether a new user was created.
func SetAdminPassword(ctx context.Context, users store.UserStore, username, password string) (bool, error) {
	if username == "" || password == "" {
		return false, fmt.Errorf("username and password are required: %w", models.ErrInvalidArgument)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}

	existing, err := users.GetUserByUsername(ctx, username)
	switch {
	case err == nil:
		if err := users.UpdatePassword(ctx, existing.ID, hash); err != nil {
			return false, err
		}
		return false, nil
	case errors.Is(err, models.ErrNotFound):
		user := &models.User{Username: username, PasswordHash: hash, CreatedAt: time.Now()}
		if err := users.CreateUser(ctx, user); err != nil {
			return false, err
		}
		return true, nil
	default:
		return false, fmt.Errorf("look up user: %w", err)
	}
}

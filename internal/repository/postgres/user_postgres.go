package postgres

import (
	"context"
	"database/sql"

	"docintake/internal/model"
	"docintake/internal/repository"
)

// UserPostgres is a PostgreSQL implementation of repository.UserRepository.
type UserPostgres struct {
	db *sql.DB
}

// NewUserPostgres creates a new UserPostgres repository.
func NewUserPostgres(db *sql.DB) *UserPostgres {
	return &UserPostgres{db: db}
}

var _ repository.UserRepository = (*UserPostgres)(nil)

// Ensure inserts the profile row unless it already exists.
func (r *UserPostgres) Ensure(ctx context.Context, id string) error {
	const q = `INSERT INTO users (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

// FindByID fetches a user profile.
func (r *UserPostgres) FindByID(ctx context.Context, id string) (*model.User, error) {
	const q = `SELECT id, name, preferences, created_at, updated_at FROM users WHERE id = $1`
	var (
		u     model.User
		name  sql.NullString
		prefs []byte
	)
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&u.ID, &name, &prefs, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	if name.Valid {
		u.Name = &name.String
	}
	if len(prefs) > 0 {
		u.Preferences = prefs
	}
	return &u, nil
}

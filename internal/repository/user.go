package repository

import (
	"context"

	"docintake/internal/model"
)

// UserRepository stores local profiles for externally issued identities.
type UserRepository interface {
	// Ensure creates the profile row for id if it does not exist yet.
	Ensure(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*model.User, error)
}

package service

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"docintake/internal/repository"
)

// UserService provisions local profiles for authenticated identities.
type UserService interface {
	// Ensure makes sure a profile row exists for userID.
	Ensure(ctx context.Context, userID string) error
}

type userService struct {
	repo  repository.UserRepository
	known *cache.Cache
}

// NewUserService memoises provisioned ids for ttl so repeated requests skip the insert.
func NewUserService(repo repository.UserRepository, ttl time.Duration) UserService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &userService{repo: repo, known: cache.New(ttl, 2*ttl)}
}

func (s *userService) Ensure(ctx context.Context, userID string) error {
	if userID == "" {
		return invalid("missing user identity")
	}
	if _, ok := s.known.Get(userID); ok {
		return nil
	}
	if err := s.repo.Ensure(ctx, userID); err != nil {
		return err
	}
	s.known.SetDefault(userID, struct{}{})
	return nil
}

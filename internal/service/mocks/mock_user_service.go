package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Ensure(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

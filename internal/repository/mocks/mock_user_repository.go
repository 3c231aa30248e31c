package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docintake/internal/model"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Ensure(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docintake/internal/model"
)

type MockReminderRepository struct {
	mock.Mock
}

func (m *MockReminderRepository) Create(ctx context.Context, r *model.Reminder) (*model.Reminder, error) {
	args := m.Called(ctx, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Reminder), args.Error(1)
}

func (m *MockReminderRepository) FindByID(ctx context.Context, id int64) (*model.Reminder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Reminder), args.Error(1)
}

func (m *MockReminderRepository) ListByUser(ctx context.Context, userID string) ([]model.Reminder, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Reminder), args.Error(1)
}

func (m *MockReminderRepository) Update(ctx context.Context, id int64, u model.ReminderUpdate) (*model.Reminder, error) {
	args := m.Called(ctx, id, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Reminder), args.Error(1)
}

func (m *MockReminderRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

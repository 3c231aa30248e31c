package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docintake/internal/model"
	"docintake/internal/service"
)

type MockReminderService struct {
	mock.Mock
}

func (m *MockReminderService) Create(ctx context.Context, userID string, in service.CreateReminderInput) (*model.Reminder, error) {
	args := m.Called(ctx, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Reminder), args.Error(1)
}

func (m *MockReminderService) CreateFromActionItem(ctx context.Context, userID string, documentID int64, item model.ActionItem) (*model.Reminder, error) {
	args := m.Called(ctx, userID, documentID, item)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Reminder), args.Error(1)
}

func (m *MockReminderService) List(ctx context.Context, userID string) ([]model.Reminder, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Reminder), args.Error(1)
}

func (m *MockReminderService) Update(ctx context.Context, userID string, id int64, u model.ReminderUpdate) (*model.Reminder, error) {
	args := m.Called(ctx, userID, id, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Reminder), args.Error(1)
}

func (m *MockReminderService) Delete(ctx context.Context, userID string, id int64) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

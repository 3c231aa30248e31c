package repository

import (
	"context"

	"docintake/internal/model"
)

// ReminderRepository defines data access for reminders.
type ReminderRepository interface {
	Create(ctx context.Context, r *model.Reminder) (*model.Reminder, error)
	FindByID(ctx context.Context, id int64) (*model.Reminder, error)
	// ListByUser returns the user's reminders ordered by due date.
	ListByUser(ctx context.Context, userID string) ([]model.Reminder, error)
	// Update changes only the non-nil fields of u.
	Update(ctx context.Context, id int64, u model.ReminderUpdate) (*model.Reminder, error)
	Delete(ctx context.Context, id int64) error
}

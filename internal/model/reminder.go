package model

import "time"

// Reminder is a dated task, optionally linked to the document it came from.
type Reminder struct {
	ID          int64     `json:"id"`
	OwnerID     string    `json:"userId"`
	DocumentID  *int64    `json:"documentId"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	DueDate     time.Time `json:"dueDate"`
	Priority    Priority  `json:"priority"`
	Completed   bool      `json:"completed"`
}

// ReminderUpdate carries the mutable reminder fields. Nil fields are left unchanged.
type ReminderUpdate struct {
	Completed *bool
	Priority  *Priority
	DueDate   *time.Time
}

// Empty reports whether the update changes nothing.
func (u ReminderUpdate) Empty() bool {
	return u.Completed == nil && u.Priority == nil && u.DueDate == nil
}

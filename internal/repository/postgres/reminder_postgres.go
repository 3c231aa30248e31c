package postgres

import (
	"context"
	"database/sql"

	"docintake/internal/model"
	"docintake/internal/repository"
)

// ReminderPostgres is a PostgreSQL implementation of repository.ReminderRepository.
type ReminderPostgres struct {
	db *sql.DB
}

// NewReminderPostgres creates a new ReminderPostgres repository.
func NewReminderPostgres(db *sql.DB) *ReminderPostgres {
	return &ReminderPostgres{db: db}
}

var _ repository.ReminderRepository = (*ReminderPostgres)(nil)

const reminderColumns = `id, user_id, document_id, title, description, due_date, completed, priority`

func scanReminder(row rowScanner) (*model.Reminder, error) {
	var (
		rem         model.Reminder
		documentID  sql.NullInt64
		description sql.NullString
		priority    string
	)
	if err := row.Scan(
		&rem.ID,
		&rem.OwnerID,
		&documentID,
		&rem.Title,
		&description,
		&rem.DueDate,
		&rem.Completed,
		&priority,
	); err != nil {
		return nil, err
	}
	if documentID.Valid {
		rem.DocumentID = &documentID.Int64
	}
	if description.Valid {
		rem.Description = &description.String
	}
	rem.Priority = model.Priority(priority)
	return &rem, nil
}

// Create inserts a reminder. An empty priority falls back to the column default.
func (r *ReminderPostgres) Create(ctx context.Context, rem *model.Reminder) (*model.Reminder, error) {
	q := `
		INSERT INTO reminders (user_id, document_id, title, description, due_date, completed, priority)
		VALUES ($1, $2, $3, $4, $5, $6, COALESCE(NULLIF($7, ''), 'medium'))
		RETURNING ` + reminderColumns
	var documentID, description any
	if rem.DocumentID != nil {
		documentID = *rem.DocumentID
	}
	if rem.Description != nil {
		description = *rem.Description
	}
	row := r.db.QueryRowContext(ctx, q,
		rem.OwnerID,
		documentID,
		rem.Title,
		description,
		rem.DueDate,
		rem.Completed,
		string(rem.Priority),
	)
	return scanReminder(row)
}

// FindByID fetches a reminder by id regardless of owner.
func (r *ReminderPostgres) FindByID(ctx context.Context, id int64) (*model.Reminder, error) {
	q := `SELECT ` + reminderColumns + ` FROM reminders WHERE id = $1`
	return scanReminder(r.db.QueryRowContext(ctx, q, id))
}

// ListByUser returns the owner's reminders, soonest first.
func (r *ReminderPostgres) ListByUser(ctx context.Context, userID string) ([]model.Reminder, error) {
	q := `SELECT ` + reminderColumns + `
		FROM reminders
		WHERE user_id = $1
		ORDER BY due_date ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Reminder, 0)
	for rows.Next() {
		rem, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *rem)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Update applies the non-nil fields of u.
func (r *ReminderPostgres) Update(ctx context.Context, id int64, u model.ReminderUpdate) (*model.Reminder, error) {
	var completed, priority, dueDate any
	if u.Completed != nil {
		completed = *u.Completed
	}
	if u.Priority != nil {
		priority = string(*u.Priority)
	}
	if u.DueDate != nil {
		dueDate = *u.DueDate
	}
	q := `
		UPDATE reminders SET
			completed = COALESCE($2::boolean, completed),
			priority  = COALESCE($3, priority),
			due_date  = COALESCE($4::timestamptz, due_date)
		WHERE id = $1
		RETURNING ` + reminderColumns
	return scanReminder(r.db.QueryRowContext(ctx, q, id, completed, priority, dueDate))
}

// Delete removes a reminder by id. It does not return an error if the row does not exist.
func (r *ReminderPostgres) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM reminders WHERE id = $1`, id)
	return err
}

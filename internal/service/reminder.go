package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"docintake/internal/model"
	"docintake/internal/repository"
)

// CreateReminderInput is a reminder as submitted by its owner.
type CreateReminderInput struct {
	DocumentID  *int64
	Title       string
	Description *string
	DueDate     time.Time
	Priority    model.Priority
}

// ReminderService manages a user's reminders.
type ReminderService interface {
	Create(ctx context.Context, userID string, in CreateReminderInput) (*model.Reminder, error)

	// CreateFromActionItem turns an action item of an owned document into a reminder.
	// An absent or unparsable due date falls back to today.
	CreateFromActionItem(ctx context.Context, userID string, documentID int64, item model.ActionItem) (*model.Reminder, error)

	List(ctx context.Context, userID string) ([]model.Reminder, error)
	Update(ctx context.Context, userID string, id int64, u model.ReminderUpdate) (*model.Reminder, error)
	Delete(ctx context.Context, userID string, id int64) error
}

type reminderService struct {
	repo repository.ReminderRepository
	docs repository.DocumentRepository
	now  func() time.Time
}

// NewReminderService constructs a new ReminderService.
func NewReminderService(repo repository.ReminderRepository, docs repository.DocumentRepository) ReminderService {
	return &reminderService{repo: repo, docs: docs, now: time.Now}
}

func (s *reminderService) Create(ctx context.Context, userID string, in CreateReminderInput) (*model.Reminder, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, invalid("title is required")
	}
	if in.DueDate.IsZero() {
		return nil, invalid("dueDate is required")
	}
	priority, err := reminderPriority(in.Priority)
	if err != nil {
		return nil, err
	}

	if in.DocumentID != nil {
		doc, err := s.docs.FindByID(ctx, *in.DocumentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, invalid("document %d does not exist", *in.DocumentID)
			}
			return nil, err
		}
		if !doc.OwnedBy(userID) {
			return nil, ErrForbidden
		}
	}

	return s.repo.Create(ctx, &model.Reminder{
		OwnerID:     userID,
		DocumentID:  in.DocumentID,
		Title:       title,
		Description: in.Description,
		DueDate:     in.DueDate.UTC(),
		Priority:    priority,
	})
}

func (s *reminderService) CreateFromActionItem(ctx context.Context, userID string, documentID int64, item model.ActionItem) (*model.Reminder, error) {
	task := strings.TrimSpace(item.Task)
	if task == "" {
		return nil, invalid("task is required")
	}
	doc, err := ownedDocument(ctx, s.docs, userID, documentID)
	if err != nil {
		return nil, err
	}

	priority := model.Priority(strings.ToLower(string(item.Priority)))
	if !priority.Valid() {
		priority = model.PriorityMedium
	}
	description := fmt.Sprintf("From document: %s", doc.Title)

	return s.repo.Create(ctx, &model.Reminder{
		OwnerID:     userID,
		DocumentID:  &doc.ID,
		Title:       task,
		Description: &description,
		DueDate:     parseDueDate(item.DueDate, s.now()),
		Priority:    priority,
	})
}

func (s *reminderService) List(ctx context.Context, userID string) ([]model.Reminder, error) {
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.Reminder{}
	}
	return items, nil
}

func (s *reminderService) Update(ctx context.Context, userID string, id int64, u model.ReminderUpdate) (*model.Reminder, error) {
	if u.Empty() {
		return nil, invalid("nothing to update")
	}
	if u.Priority != nil {
		p, err := reminderPriority(*u.Priority)
		if err != nil {
			return nil, err
		}
		u.Priority = &p
	}
	if _, err := s.owned(ctx, userID, id); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, u)
}

func (s *reminderService) Delete(ctx context.Context, userID string, id int64) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *reminderService) owned(ctx context.Context, userID string, id int64) (*model.Reminder, error) {
	r, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: reminder %d", ErrNotFound, id)
		}
		return nil, err
	}
	if r.OwnerID != userID {
		return nil, ErrForbidden
	}
	return r, nil
}

func reminderPriority(p model.Priority) (model.Priority, error) {
	if p == "" {
		return model.PriorityMedium, nil
	}
	p = model.Priority(strings.ToLower(string(p)))
	if !p.Valid() {
		return "", invalid("priority must be one of high, medium, low")
	}
	return p, nil
}

// parseDueDate accepts YYYY-MM-DD or RFC 3339 and falls back to the start of today (UTC).
func parseDueDate(raw string, now time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t.UTC()
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC()
	}
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docintake/internal/model"
	repoMocks "docintake/internal/repository/mocks"
)

func newReminderTestService() (*reminderService, *repoMocks.MockReminderRepository, *repoMocks.MockDocumentRepository) {
	mRepo := new(repoMocks.MockReminderRepository)
	mDocs := new(repoMocks.MockDocumentRepository)
	svc := NewReminderService(mRepo, mDocs).(*reminderService)
	svc.now = func() time.Time { return time.Date(2025, 6, 15, 18, 30, 0, 0, time.UTC) }
	return svc, mRepo, mDocs
}

func TestReminderService_Create(t *testing.T) {
	ctx := context.Background()
	due := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	docID := int64(12)

	tests := []struct {
		name       string
		input      CreateReminderInput
		setupMocks func(mRepo *repoMocks.MockReminderRepository, mDocs *repoMocks.MockDocumentRepository)
		wantErr    error
	}{
		{
			name:  "standalone reminder defaults priority",
			input: CreateReminderInput{Title: " Renew passport ", DueDate: due},
			setupMocks: func(mRepo *repoMocks.MockReminderRepository, mDocs *repoMocks.MockDocumentRepository) {
				mRepo.On("Create", ctx, mock.MatchedBy(func(r *model.Reminder) bool {
					return r.OwnerID == "user-a" && r.Title == "Renew passport" &&
						r.Priority == model.PriorityMedium && r.DocumentID == nil && r.DueDate.Equal(due)
				})).Return(&model.Reminder{ID: 1, OwnerID: "user-a"}, nil)
			},
		},
		{
			name:  "linked to an owned document",
			input: CreateReminderInput{DocumentID: &docID, Title: "Pay invoice", DueDate: due, Priority: "HIGH"},
			setupMocks: func(mRepo *repoMocks.MockReminderRepository, mDocs *repoMocks.MockDocumentRepository) {
				mDocs.On("FindByID", ctx, docID).Return(&model.Document{ID: docID, OwnerID: "user-a"}, nil)
				mRepo.On("Create", ctx, mock.MatchedBy(func(r *model.Reminder) bool {
					return r.Priority == model.PriorityHigh && *r.DocumentID == docID
				})).Return(&model.Reminder{ID: 2}, nil)
			},
		},
		{
			name:  "document of another user",
			input: CreateReminderInput{DocumentID: &docID, Title: "Pay invoice", DueDate: due},
			setupMocks: func(mRepo *repoMocks.MockReminderRepository, mDocs *repoMocks.MockDocumentRepository) {
				mDocs.On("FindByID", ctx, docID).Return(&model.Document{ID: docID, OwnerID: "user-b"}, nil)
			},
			wantErr: ErrForbidden,
		},
		{
			name:  "missing document",
			input: CreateReminderInput{DocumentID: &docID, Title: "Pay invoice", DueDate: due},
			setupMocks: func(mRepo *repoMocks.MockReminderRepository, mDocs *repoMocks.MockDocumentRepository) {
				mDocs.On("FindByID", ctx, docID).Return(nil, sql.ErrNoRows)
			},
			wantErr: ErrValidation,
		},
		{
			name:       "missing title",
			input:      CreateReminderInput{Title: "  ", DueDate: due},
			setupMocks: func(*repoMocks.MockReminderRepository, *repoMocks.MockDocumentRepository) {},
			wantErr:    ErrValidation,
		},
		{
			name:       "missing due date",
			input:      CreateReminderInput{Title: "x"},
			setupMocks: func(*repoMocks.MockReminderRepository, *repoMocks.MockDocumentRepository) {},
			wantErr:    ErrValidation,
		},
		{
			name:       "unknown priority",
			input:      CreateReminderInput{Title: "x", DueDate: due, Priority: "urgent"},
			setupMocks: func(*repoMocks.MockReminderRepository, *repoMocks.MockDocumentRepository) {},
			wantErr:    ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mRepo, mDocs := newReminderTestService()
			tt.setupMocks(mRepo, mDocs)

			r, err := svc.Create(ctx, "user-a", tt.input)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, r)
				mRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, r)
			}
			mRepo.AssertExpectations(t)
			mDocs.AssertExpectations(t)
		})
	}
}

func TestReminderService_CreateFromActionItem(t *testing.T) {
	ctx := context.Background()
	doc := &model.Document{ID: 4, OwnerID: "user-a", Title: "Water bill"}

	tests := []struct {
		name         string
		item         model.ActionItem
		wantDue      time.Time
		wantPriority model.Priority
	}{
		{
			name:         "explicit date and priority",
			item:         model.ActionItem{Task: "Pay bill", DueDate: "2025-07-10", Priority: model.PriorityHigh},
			wantDue:      time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC),
			wantPriority: model.PriorityHigh,
		},
		{
			name:         "missing date falls back to today",
			item:         model.ActionItem{Task: "Pay bill"},
			wantDue:      time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
			wantPriority: model.PriorityMedium,
		},
		{
			name:         "unparsable date falls back to today",
			item:         model.ActionItem{Task: "Pay bill", DueDate: "next Friday", Priority: "whenever"},
			wantDue:      time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
			wantPriority: model.PriorityMedium,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mRepo, mDocs := newReminderTestService()
			mDocs.On("FindByID", ctx, int64(4)).Return(doc, nil)
			mRepo.On("Create", ctx, mock.MatchedBy(func(r *model.Reminder) bool {
				return r.OwnerID == "user-a" &&
					r.Title == "Pay bill" &&
					*r.DocumentID == 4 &&
					*r.Description == "From document: Water bill" &&
					r.DueDate.Equal(tt.wantDue) &&
					r.Priority == tt.wantPriority
			})).Return(&model.Reminder{ID: 1}, nil)

			_, err := svc.CreateFromActionItem(ctx, "user-a", 4, tt.item)
			require.NoError(t, err)
			mRepo.AssertExpectations(t)
		})
	}

	t.Run("document of another user", func(t *testing.T) {
		svc, mRepo, mDocs := newReminderTestService()
		mDocs.On("FindByID", ctx, int64(4)).Return(doc, nil)

		_, err := svc.CreateFromActionItem(ctx, "user-b", 4, model.ActionItem{Task: "Pay bill"})
		assert.ErrorIs(t, err, ErrForbidden)
		mRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("missing document", func(t *testing.T) {
		svc, _, mDocs := newReminderTestService()
		mDocs.On("FindByID", ctx, int64(4)).Return(nil, sql.ErrNoRows)

		_, err := svc.CreateFromActionItem(ctx, "user-a", 4, model.ActionItem{Task: "Pay bill"})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestReminderService_List(t *testing.T) {
	ctx := context.Background()
	svc, mRepo, _ := newReminderTestService()
	mRepo.On("ListByUser", ctx, "user-a").Return(nil, nil)

	items, err := svc.List(ctx, "user-a")
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestReminderService_Update(t *testing.T) {
	ctx := context.Background()
	done := true
	low := model.Priority("LOW")
	bogus := model.Priority("someday")
	existing := &model.Reminder{ID: 9, OwnerID: "user-a"}

	tests := []struct {
		name       string
		userID     string
		update     model.ReminderUpdate
		setupMocks func(mRepo *repoMocks.MockReminderRepository)
		wantErr    error
	}{
		{
			name:   "complete",
			userID: "user-a",
			update: model.ReminderUpdate{Completed: &done},
			setupMocks: func(mRepo *repoMocks.MockReminderRepository) {
				mRepo.On("FindByID", ctx, int64(9)).Return(existing, nil)
				mRepo.On("Update", ctx, int64(9), model.ReminderUpdate{Completed: &done}).
					Return(&model.Reminder{ID: 9, Completed: true}, nil)
			},
		},
		{
			name:   "priority is normalised",
			userID: "user-a",
			update: model.ReminderUpdate{Priority: &low},
			setupMocks: func(mRepo *repoMocks.MockReminderRepository) {
				mRepo.On("FindByID", ctx, int64(9)).Return(existing, nil)
				mRepo.On("Update", ctx, int64(9), mock.MatchedBy(func(u model.ReminderUpdate) bool {
					return u.Priority != nil && *u.Priority == model.PriorityLow
				})).Return(&model.Reminder{ID: 9}, nil)
			},
		},
		{
			name:   "other owner",
			userID: "user-b",
			update: model.ReminderUpdate{Completed: &done},
			setupMocks: func(mRepo *repoMocks.MockReminderRepository) {
				mRepo.On("FindByID", ctx, int64(9)).Return(existing, nil)
			},
			wantErr: ErrForbidden,
		},
		{
			name:   "not found",
			userID: "user-a",
			update: model.ReminderUpdate{Completed: &done},
			setupMocks: func(mRepo *repoMocks.MockReminderRepository) {
				mRepo.On("FindByID", ctx, int64(9)).Return(nil, sql.ErrNoRows)
			},
			wantErr: ErrNotFound,
		},
		{
			name:       "empty update",
			userID:     "user-a",
			setupMocks: func(*repoMocks.MockReminderRepository) {},
			wantErr:    ErrValidation,
		},
		{
			name:       "invalid priority",
			userID:     "user-a",
			update:     model.ReminderUpdate{Priority: &bogus},
			setupMocks: func(*repoMocks.MockReminderRepository) {},
			wantErr:    ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mRepo, _ := newReminderTestService()
			tt.setupMocks(mRepo)

			r, err := svc.Update(ctx, tt.userID, 9, tt.update)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				mRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, r)
			}
			mRepo.AssertExpectations(t)
		})
	}
}

func TestReminderService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("owner", func(t *testing.T) {
		svc, mRepo, _ := newReminderTestService()
		mRepo.On("FindByID", ctx, int64(3)).Return(&model.Reminder{ID: 3, OwnerID: "user-a"}, nil)
		mRepo.On("Delete", ctx, int64(3)).Return(nil)
		assert.NoError(t, svc.Delete(ctx, "user-a", 3))
		mRepo.AssertExpectations(t)
	})

	t.Run("repository error", func(t *testing.T) {
		svc, mRepo, _ := newReminderTestService()
		mRepo.On("FindByID", ctx, int64(3)).Return(nil, errors.New("db error"))
		assert.EqualError(t, svc.Delete(ctx, "user-a", 3), "db error")
	})
}

func TestParseDueDate(t *testing.T) {
	now := time.Date(2025, 1, 2, 23, 59, 0, 0, time.FixedZone("X", 3600))
	assert.Equal(t, time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC), parseDueDate("2025-02-03", now))
	assert.Equal(t, time.Date(2025, 2, 3, 9, 0, 0, 0, time.UTC), parseDueDate("2025-02-03T10:00:00+01:00", now))
	assert.Equal(t, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), parseDueDate("", now))
}

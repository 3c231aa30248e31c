package repository

import (
	"context"
	"errors"

	"docintake/internal/model"
)

// ErrInvalidTransition is returned when an update would move a document out
// of a terminal status.
var ErrInvalidTransition = errors.New("invalid document status transition")

// DocumentRepository defines data access for documents using SQL queries only.
// Missing rows are reported as sql.ErrNoRows. Authorization is not checked here.
type DocumentRepository interface {
	// Create inserts a new document record and returns it with its generated id.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by id regardless of owner.
	FindByID(ctx context.Context, id int64) (*model.Document, error)

	// ListByUser returns one page of the user's documents, newest first, and the user's total.
	ListByUser(ctx context.Context, userID string, pq PageQuery) (*PageResult[model.Document], error)

	// UpdateAnalysis applies a partial update in one transaction and returns the new row.
	UpdateAnalysis(ctx context.Context, id int64, u model.AnalysisUpdate) (*model.Document, error)

	// Delete removes a document by id. Dependent reminders cascade.
	Delete(ctx context.Context, id int64) error
}

// PageQuery holds limit/offset pagination parameters. A zero Limit means no limit.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
type PageResult[T any] struct {
	Items []T
	Total int
}

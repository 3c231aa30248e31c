package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"docintake/internal/database"
	"docintake/internal/model"
	"docintake/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

const documentColumns = `id, user_id, title, original_filename, mime_type, storage_key, uploaded_at, summary, action_items, tags, status`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*model.Document, error) {
	var (
		d           model.Document
		summary     sql.NullString
		actionItems []byte
		tags        []byte
		status      string
	)
	if err := row.Scan(
		&d.ID,
		&d.OwnerID,
		&d.Title,
		&d.OriginalFilename,
		&d.MimeType,
		&d.StorageKey,
		&d.UploadedAt,
		&summary,
		&actionItems,
		&tags,
		&status,
	); err != nil {
		return nil, err
	}
	if summary.Valid {
		d.Summary = &summary.String
	}
	d.ActionItems = []model.ActionItem{}
	if len(actionItems) > 0 {
		if err := json.Unmarshal(actionItems, &d.ActionItems); err != nil {
			return nil, fmt.Errorf("decode action_items: %w", err)
		}
	}
	d.Tags = []string{}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &d.Tags); err != nil {
			return nil, fmt.Errorf("decode tags: %w", err)
		}
	}
	d.Status = model.Status(status)
	return &d, nil
}

// jsonParam encodes v for a JSONB parameter. A nil slice becomes SQL NULL so
// COALESCE keeps the stored value.
func jsonParam[T any](v []T) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	q := `
		INSERT INTO documents (user_id, title, original_filename, mime_type, storage_key, uploaded_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + documentColumns
	status := doc.Status
	if status == "" {
		status = model.StatusPending
	}
	row := r.db.QueryRowContext(ctx, q,
		doc.OwnerID,
		doc.Title,
		doc.OriginalFilename,
		doc.MimeType,
		doc.StorageKey,
		doc.UploadedAt,
		string(status),
	)
	return scanDocument(row)
}

// FindByID fetches a single document by its id.
func (r *DocumentPostgres) FindByID(ctx context.Context, id int64) (*model.Document, error) {
	q := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	return scanDocument(r.db.QueryRowContext(ctx, q, id))
}

// ListByUser returns the owner's documents and a total count. LIMIT is only
// applied when pq.Limit is positive.
func (r *DocumentPostgres) ListByUser(ctx context.Context, userID string, pq repository.PageQuery) (*repository.PageResult[model.Document], error) {
	const qCount = `SELECT COUNT(*) FROM documents WHERE user_id = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount, userID).Scan(&total); err != nil {
		return nil, err
	}

	qList := `SELECT ` + documentColumns + `
		FROM documents
		WHERE user_id = $1
		ORDER BY uploaded_at DESC, id DESC`
	args := []any{userID}
	if pq.Limit > 0 {
		qList += ` LIMIT $2 OFFSET $3`
		args = append(args, pq.Limit, pq.Offset)
	} else {
		qList += ` OFFSET $2`
		args = append(args, pq.Offset)
	}
	rows, err := r.db.QueryContext(ctx, qList, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Document]{Items: items, Total: total}, nil
}

// UpdateAnalysis locks the row, refuses to leave a terminal status, then
// applies every non-nil field in a single UPDATE. Readers see either the old
// row or the new one.
func (r *DocumentPostgres) UpdateAnalysis(ctx context.Context, id int64, u model.AnalysisUpdate) (*model.Document, error) {
	actionItems, err := jsonParam(u.ActionItems)
	if err != nil {
		return nil, fmt.Errorf("encode action_items: %w", err)
	}
	tags, err := jsonParam(u.Tags)
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}
	var summary, status any
	if u.Summary != nil {
		summary = *u.Summary
	}
	if u.Status != nil {
		status = string(*u.Status)
	}

	var out *model.Document
	err = database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var current string
		if err := tx.QueryRowContext(ctx, `SELECT status FROM documents WHERE id = $1 FOR UPDATE`, id).Scan(&current); err != nil {
			return err
		}
		if u.Status != nil && model.Status(current).Terminal() && model.Status(current) != *u.Status {
			return fmt.Errorf("%w: %s -> %s", repository.ErrInvalidTransition, current, *u.Status)
		}

		q := `
			UPDATE documents SET
				summary      = COALESCE($2, summary),
				action_items = COALESCE($3::jsonb, action_items),
				tags         = COALESCE($4::jsonb, tags),
				status       = COALESCE($5, status)
			WHERE id = $1
			RETURNING ` + documentColumns
		d, err := scanDocument(tx.QueryRowContext(ctx, q, id, summary, actionItems, tags, status))
		if err != nil {
			return err
		}
		out = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a document by id. It does not return an error if the row does not exist.
func (r *DocumentPostgres) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM documents WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

// IsNoRowsError reports whether err means the requested row does not exist.
func IsNoRowsError(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

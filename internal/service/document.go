package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"docintake/internal/analyzer"
	"docintake/internal/extract"
	"docintake/internal/model"
	"docintake/internal/repository"
	"docintake/internal/storage"
)

var tracer = otel.Tracer("docintake/internal/service")

// DefaultMaxUploadBytes is used when DocumentOptions.MaxUploadBytes is zero.
const DefaultMaxUploadBytes int64 = 10 << 20

// MaxPageSize caps an explicit page size passed to List.
const MaxPageSize = 100

// allowedMimeTypes are the upload types accepted by Submit.
var allowedMimeTypes = map[string]bool{
	"application/pdf":    true,
	"image/jpeg":         true,
	"image/png":          true,
	"image/tiff":         true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
}

// ObjectStore is the subset of storage.Gateway the document service needs.
type ObjectStore interface {
	Put(ctx context.Context, userID string, data []byte, contentType, filename string) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Stat(ctx context.Context, key string) (storage.ObjectInfo, error)
	Delete(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}

var _ ObjectStore = (*storage.Gateway)(nil)

// SubmitInput is one upload as received from the caller.
type SubmitInput struct {
	UserID   string
	Data     []byte
	MimeType string
	Filename string
	Title    string
}

// DocumentListResult is the service-level DTO for paginated documents.
type DocumentListResult struct {
	Items []model.Document `json:"data"`
	Total int              `json:"total"`
}

// Answer is the reply to a follow-up question.
type Answer struct {
	Answer string `json:"answer"`
}

// DownloadLink is a time-limited URL for the stored original file.
type DownloadLink struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// DocumentService defines the use cases for handling documents.
type DocumentService interface {
	// Submit stores the file, records it as pending, then extracts, analyses
	// and persists the result. The returned document is always processed; any
	// extraction or analysis failure leaves the row failed and returns a *ProcessingError.
	Submit(ctx context.Context, in SubmitInput) (*model.Document, error)

	// List returns the caller's documents, newest first. A limit of zero
	// returns all of them; a positive limit selects one page.
	List(ctx context.Context, userID string, limit, offset int) (*DocumentListResult, error)

	// Get returns a document owned by userID.
	Get(ctx context.Context, userID string, id int64) (*model.Document, error)

	// Ask answers a question about the document's extracted text. Nothing is persisted.
	Ask(ctx context.Context, userID string, id int64, question string) (*Answer, error)

	// Delete removes the stored object, then the record.
	Delete(ctx context.Context, userID string, id int64) error

	// DownloadURL presigns a GET for the stored object.
	DownloadURL(ctx context.Context, userID string, id int64) (*DownloadLink, error)
}

// DocumentOptions tunes limits and caching. Zero values select defaults.
type DocumentOptions struct {
	MaxUploadBytes int64
	TextCacheTTL   time.Duration
	PresignExpiry  time.Duration
}

type documentService struct {
	store     ObjectStore
	repo      repository.DocumentRepository
	extractor extract.Extractor
	analyzer  analyzer.DocumentAnalyzer
	metrics   *PipelineMetrics
	log       *zap.Logger
	texts     *cache.Cache
	maxBytes  int64
	expiry    time.Duration
	now       func() time.Time
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(
	store ObjectStore,
	repo repository.DocumentRepository,
	extractor extract.Extractor,
	an analyzer.DocumentAnalyzer,
	metrics *PipelineMetrics,
	log *zap.Logger,
	opts DocumentOptions,
) DocumentService {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if opts.TextCacheTTL <= 0 {
		opts.TextCacheTTL = 30 * time.Minute
	}
	if opts.PresignExpiry <= 0 {
		opts.PresignExpiry = 5 * time.Minute
	}
	return &documentService{
		store:     store,
		repo:      repo,
		extractor: extractor,
		analyzer:  an,
		metrics:   metrics,
		log:       log.With(zap.String("component", "document_service")),
		texts:     cache.New(opts.TextCacheTTL, 2*opts.TextCacheTTL),
		maxBytes:  opts.MaxUploadBytes,
		expiry:    opts.PresignExpiry,
		now:       time.Now,
	}
}

func (s *documentService) Submit(ctx context.Context, in SubmitInput) (*model.Document, error) {
	ctx, span := tracer.Start(ctx, "document.submit", trace.WithAttributes(
		attribute.String("user.id", in.UserID),
		attribute.Int("document.size", len(in.Data)),
	))
	defer span.End()

	mime := extract.NormalizeMime(in.MimeType)
	if err := s.validateUpload(in, mime); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var key string
	err := s.stage(ctx, "store", func(ctx context.Context) error {
		var err error
		key, err = s.store.Put(ctx, in.UserID, in.Data, mime, in.Filename)
		return err
	})
	if err != nil {
		span.SetStatus(codes.Error, "store")
		return nil, fmt.Errorf("%w: upload: %w", ErrStorage, err)
	}

	doc, err := s.repo.Create(ctx, &model.Document{
		OwnerID:          in.UserID,
		Title:            documentTitle(in.Title, in.Filename),
		OriginalFilename: originalName(in.Filename),
		MimeType:         mime,
		StorageKey:       key,
		UploadedAt:       s.now().UTC(),
		Status:           model.StatusPending,
	})
	if err != nil {
		span.SetStatus(codes.Error, "create")
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.log.Error("upload_rollback_failed", zap.String("storage_key", key), zap.Error(delErr))
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	span.SetAttributes(attribute.Int64("document.id", doc.ID))

	var text string
	if err := s.stage(ctx, "extract", func(ctx context.Context) error {
		var err error
		text, err = s.extractor.Extract(ctx, in.Data, mime)
		return err
	}); err != nil {
		return nil, s.fail(ctx, span, doc, "extract", err)
	}
	s.texts.SetDefault(textKey(doc.ID), text)

	var analysis *analyzer.Analysis
	if err := s.stage(ctx, "analyze", func(ctx context.Context) error {
		var err error
		analysis, err = s.analyzer.Analyze(ctx, text)
		return err
	}); err != nil {
		return nil, s.fail(ctx, span, doc, "analyze", err)
	}

	processed := model.StatusProcessed
	var updated *model.Document
	if err := s.stage(ctx, "persist", func(ctx context.Context) error {
		var err error
		updated, err = s.repo.UpdateAnalysis(ctx, doc.ID, model.AnalysisUpdate{
			Summary:     &analysis.Summary,
			ActionItems: analysis.ActionItems,
			Tags:        analysis.Tags,
			Status:      &processed,
		})
		return err
	}); err != nil {
		return nil, s.fail(ctx, span, doc, "persist", err)
	}

	s.metrics.documentIngested(string(model.StatusProcessed))
	s.log.Info("document_processed",
		zap.Int64("document_id", updated.ID),
		zap.String("user_id", updated.OwnerID),
		zap.String("mime_type", mime),
		zap.Int("action_items", len(updated.ActionItems)),
	)
	return updated, nil
}

func (s *documentService) validateUpload(in SubmitInput, mime string) error {
	switch {
	case in.UserID == "":
		return invalid("missing user identity")
	case len(in.Data) == 0:
		return invalid("file is empty")
	case int64(len(in.Data)) > s.maxBytes:
		return invalid("file exceeds the maximum size of %d bytes", s.maxBytes)
	case !allowedMimeTypes[mime]:
		return invalid("unsupported file type %q", in.MimeType)
	}
	return nil
}

// stage runs fn inside a child span and records its latency.
func (s *documentService) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := tracer.Start(ctx, "document."+name)
	defer span.End()
	start := time.Now()
	err := fn(ctx)
	s.metrics.observeStage(name, err, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// fail marks doc failed and returns the consolidated error. The status write
// runs detached from ctx so a cancelled request still records the outcome.
func (s *documentService) fail(ctx context.Context, span trace.Span, doc *model.Document, stage string, cause error) error {
	span.SetStatus(codes.Error, stage)
	s.log.Error("document_processing_failed",
		zap.Int64("document_id", doc.ID),
		zap.String("stage", stage),
		zap.Error(cause),
	)

	failed := model.StatusFailed
	if _, err := s.repo.UpdateAnalysis(context.WithoutCancel(ctx), doc.ID, model.AnalysisUpdate{Status: &failed}); err != nil {
		s.log.Error("document_mark_failed_error",
			zap.Int64("document_id", doc.ID),
			zap.Error(err),
		)
	}
	s.texts.Delete(textKey(doc.ID))
	s.metrics.documentIngested(string(model.StatusFailed))
	return &ProcessingError{DocumentID: doc.ID, Stage: stage, Cause: cause}
}

// List returns owner-filtered documents without exposing repository types.
func (s *documentService) List(ctx context.Context, userID string, limit, offset int) (*DocumentListResult, error) {
	if limit < 0 {
		limit = 0
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.ListByUser(ctx, userID, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &DocumentListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *documentService) Get(ctx context.Context, userID string, id int64) (*model.Document, error) {
	return ownedDocument(ctx, s.repo, userID, id)
}

func (s *documentService) Ask(ctx context.Context, userID string, id int64, question string) (*Answer, error) {
	ctx, span := tracer.Start(ctx, "document.ask", trace.WithAttributes(
		attribute.String("user.id", userID),
		attribute.Int64("document.id", id),
	))
	defer span.End()

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, invalid("question is required")
	}
	doc, err := ownedDocument(ctx, s.repo, userID, id)
	if err != nil {
		return nil, err
	}

	text, err := s.documentText(ctx, doc)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var reply string
	if err := s.stage(ctx, "ask", func(ctx context.Context) error {
		var err error
		reply, err = s.analyzer.Ask(ctx, text, question)
		return err
	}); err != nil {
		span.SetStatus(codes.Error, "ask")
		s.log.Error("document_ask_failed", zap.Int64("document_id", id), zap.Error(err))
		return nil, &ProcessingError{DocumentID: id, Stage: "ask", Cause: err}
	}
	return &Answer{Answer: reply}, nil
}

// documentText returns the cached extraction if the stored object still
// exists, otherwise fetches and re-extracts it.
func (s *documentService) documentText(ctx context.Context, doc *model.Document) (string, error) {
	if cached, ok := s.texts.Get(textKey(doc.ID)); ok {
		if _, err := s.store.Stat(ctx, doc.StorageKey); err != nil {
			s.texts.Delete(textKey(doc.ID))
			return "", fmt.Errorf("%w: stat %s: %w", ErrStorage, doc.StorageKey, err)
		}
		return cached.(string), nil
	}

	data, err := s.store.Get(ctx, doc.StorageKey)
	if err != nil {
		return "", fmt.Errorf("%w: fetch %s: %w", ErrStorage, doc.StorageKey, err)
	}

	var text string
	if err := s.stage(ctx, "extract", func(ctx context.Context) error {
		var err error
		text, err = s.extractor.Extract(ctx, data, doc.MimeType)
		return err
	}); err != nil {
		return "", &ProcessingError{DocumentID: doc.ID, Stage: "extract", Cause: err}
	}
	s.texts.SetDefault(textKey(doc.ID), text)
	return text, nil
}

// Delete removes a document from storage, then deletes its record.
func (s *documentService) Delete(ctx context.Context, userID string, id int64) error {
	doc, err := ownedDocument(ctx, s.repo, userID, id)
	if err != nil {
		return err
	}
	// Storage first; a failure keeps the row so the object is not orphaned.
	if err := s.store.Delete(ctx, doc.StorageKey); err != nil {
		return fmt.Errorf("%w: delete %s: %w", ErrStorage, doc.StorageKey, err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.texts.Delete(textKey(id))
	return nil
}

func (s *documentService) DownloadURL(ctx context.Context, userID string, id int64) (*DownloadLink, error) {
	doc, err := ownedDocument(ctx, s.repo, userID, id)
	if err != nil {
		return nil, err
	}
	expiresAt := s.now().UTC().Add(s.expiry)
	url, err := s.store.PresignGet(ctx, doc.StorageKey, s.expiry)
	if err != nil {
		return nil, fmt.Errorf("%w: presign %s: %w", ErrStorage, doc.StorageKey, err)
	}
	return &DownloadLink{URL: url, ExpiresAt: expiresAt}, nil
}

// ownedDocument checks existence before ownership.
func ownedDocument(ctx context.Context, repo repository.DocumentRepository, userID string, id int64) (*model.Document, error) {
	doc, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: document %d", ErrNotFound, id)
		}
		return nil, err
	}
	if !doc.OwnedBy(userID) {
		return nil, ErrForbidden
	}
	return doc, nil
}

func documentTitle(title, filename string) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	base := filepath.Base(filename)
	if stem := strings.TrimSuffix(base, filepath.Ext(base)); stem != "" && stem != "." {
		return stem
	}
	return "Untitled document"
}

func originalName(filename string) string {
	if base := filepath.Base(filename); base != "." && base != "/" {
		return base
	}
	return "upload"
}

func textKey(id int64) string { return strconv.FormatInt(id, 10) }

package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"docintake/internal/analyzer"
	analyzerMocks "docintake/internal/analyzer/mocks"
	"docintake/internal/extract"
	extractMocks "docintake/internal/extract/mocks"
	"docintake/internal/model"
	"docintake/internal/repository"
	repoMocks "docintake/internal/repository/mocks"
	"docintake/internal/storage"
	storeMocks "docintake/internal/storage/mocks"
)

type testDeps struct {
	backend  *storage.MemoryStorage
	repo     *repoMocks.MockDocumentRepository
	ext      *extractMocks.MockExtractor
	analyzer *analyzerMocks.MockAnalyzer
	reg      *prometheus.Registry
	logs     *observer.ObservedLogs
}

func newTestService(t *testing.T, store ObjectStore, opts DocumentOptions) (*documentService, *testDeps) {
	t.Helper()
	d := &testDeps{
		backend:  storage.NewMemory(),
		repo:     new(repoMocks.MockDocumentRepository),
		ext:      new(extractMocks.MockExtractor),
		analyzer: new(analyzerMocks.MockAnalyzer),
		reg:      prometheus.NewRegistry(),
	}
	if store == nil {
		store = storage.NewGateway(d.backend)
	}
	metrics, err := NewPipelineMetrics(d.reg)
	require.NoError(t, err)
	core, logs := observer.New(zapcore.InfoLevel)
	d.logs = logs

	svc := NewDocumentService(store, d.repo, d.ext, d.analyzer, metrics, zap.New(core), opts).(*documentService)
	return svc, d
}

func statusUpdate(want model.Status) interface{} {
	return mock.MatchedBy(func(u model.AnalysisUpdate) bool {
		return u.Status != nil && *u.Status == want
	})
}

func strPtr(s string) *string { return &s }

func TestDocumentService_Submit(t *testing.T) {
	ctx := context.Background()
	pdf := bytes.Repeat([]byte("%PDF"), 512)
	valid := SubmitInput{UserID: "user-a", Data: pdf, MimeType: "application/pdf", Filename: "invoice.pdf"}

	pendingDoc := func() *model.Document {
		return &model.Document{ID: 1, OwnerID: "user-a", Title: "invoice", MimeType: "application/pdf", Status: model.StatusPending}
	}

	tests := []struct {
		name       string
		input      SubmitInput
		setupMocks func(d *testDeps)
		wantStatus model.Status
		wantErr    error
		wantStage  string
		wantCause  error
	}{
		{
			name:  "processed without action items",
			input: valid,
			setupMocks: func(d *testDeps) {
				d.repo.On("Create", mock.Anything, mock.MatchedBy(func(doc *model.Document) bool {
					return doc.OwnerID == "user-a" &&
						doc.Status == model.StatusPending &&
						doc.Title == "invoice" &&
						doc.OriginalFilename == "invoice.pdf" &&
						strings.HasPrefix(doc.StorageKey, "user-a/") &&
						strings.HasSuffix(doc.StorageKey, ".pdf")
				})).Return(pendingDoc(), nil)
				d.ext.On("Extract", mock.Anything, pdf, "application/pdf").Return("Quarterly figures, no deadlines.", nil)
				d.analyzer.On("Analyze", mock.Anything, "Quarterly figures, no deadlines.").Return(&analyzer.Analysis{
					Summary:     "Quarterly figures",
					ActionItems: []model.ActionItem{},
					Tags:        []string{"finance"},
				}, nil)
				d.repo.On("UpdateAnalysis", mock.Anything, int64(1), mock.MatchedBy(func(u model.AnalysisUpdate) bool {
					return u.Status != nil && *u.Status == model.StatusProcessed &&
						u.Summary != nil && *u.Summary == "Quarterly figures" &&
						u.ActionItems != nil && len(u.ActionItems) == 0
				})).Return(&model.Document{
					ID: 1, OwnerID: "user-a", Status: model.StatusProcessed,
					Summary: strPtr("Quarterly figures"), ActionItems: []model.ActionItem{}, Tags: []string{"finance"},
				}, nil)
			},
			wantStatus: model.StatusProcessed,
		},
		{
			name:  "corrupt pdf marks document failed",
			input: valid,
			setupMocks: func(d *testDeps) {
				d.repo.On("Create", mock.Anything, mock.Anything).Return(pendingDoc(), nil)
				d.ext.On("Extract", mock.Anything, pdf, "application/pdf").
					Return("", fmt.Errorf("%w: pdf: malformed xref", extract.ErrExtraction))
				d.repo.On("UpdateAnalysis", mock.Anything, int64(1), statusUpdate(model.StatusFailed)).
					Return(&model.Document{ID: 1, Status: model.StatusFailed}, nil)
			},
			wantStatus: model.StatusFailed,
			wantErr:    ErrProcessing,
			wantStage:  "extract",
			wantCause:  extract.ErrExtraction,
		},
		{
			name:  "analysis failure marks document failed",
			input: valid,
			setupMocks: func(d *testDeps) {
				d.repo.On("Create", mock.Anything, mock.Anything).Return(pendingDoc(), nil)
				d.ext.On("Extract", mock.Anything, pdf, "application/pdf").Return("text", nil)
				d.analyzer.On("Analyze", mock.Anything, "text").
					Return(nil, fmt.Errorf("%w: llm call: deadline exceeded", analyzer.ErrAnalysis))
				d.repo.On("UpdateAnalysis", mock.Anything, int64(1), statusUpdate(model.StatusFailed)).
					Return(&model.Document{ID: 1, Status: model.StatusFailed}, nil)
			},
			wantStatus: model.StatusFailed,
			wantErr:    ErrProcessing,
			wantStage:  "analyze",
			wantCause:  analyzer.ErrAnalysis,
		},
		{
			name:  "persist failure marks document failed",
			input: valid,
			setupMocks: func(d *testDeps) {
				d.repo.On("Create", mock.Anything, mock.Anything).Return(pendingDoc(), nil)
				d.ext.On("Extract", mock.Anything, pdf, "application/pdf").Return("text", nil)
				d.analyzer.On("Analyze", mock.Anything, "text").Return(&analyzer.Analysis{Summary: "s"}, nil)
				d.repo.On("UpdateAnalysis", mock.Anything, int64(1), statusUpdate(model.StatusProcessed)).
					Return(nil, errors.New("conn reset"))
				d.repo.On("UpdateAnalysis", mock.Anything, int64(1), statusUpdate(model.StatusFailed)).
					Return(&model.Document{ID: 1, Status: model.StatusFailed}, nil)
			},
			wantStatus: model.StatusFailed,
			wantErr:    ErrProcessing,
			wantStage:  "persist",
		},
		{
			name:  "mark failed error keeps original cause",
			input: valid,
			setupMocks: func(d *testDeps) {
				d.repo.On("Create", mock.Anything, mock.Anything).Return(pendingDoc(), nil)
				d.ext.On("Extract", mock.Anything, pdf, "application/pdf").Return("", extract.ErrExtraction)
				d.repo.On("UpdateAnalysis", mock.Anything, int64(1), statusUpdate(model.StatusFailed)).
					Return(nil, errors.New("db down"))
			},
			wantStatus: model.StatusFailed,
			wantErr:    ErrProcessing,
			wantStage:  "extract",
			wantCause:  extract.ErrExtraction,
		},
		{
			name:       "validation error - empty file",
			input:      SubmitInput{UserID: "user-a", MimeType: "application/pdf", Filename: "a.pdf"},
			setupMocks: func(d *testDeps) {},
			wantErr:    ErrValidation,
		},
		{
			name:       "validation error - unsupported type",
			input:      SubmitInput{UserID: "user-a", Data: []byte("hello"), MimeType: "text/plain", Filename: "a.txt"},
			setupMocks: func(d *testDeps) {},
			wantErr:    ErrValidation,
		},
		{
			name:       "validation error - missing user",
			input:      SubmitInput{Data: pdf, MimeType: "application/pdf"},
			setupMocks: func(d *testDeps) {},
			wantErr:    ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, d := newTestService(t, nil, DocumentOptions{})
			tt.setupMocks(d)

			doc, err := svc.Submit(ctx, tt.input)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, doc)
			} else {
				require.NoError(t, err)
				require.NotNil(t, doc)
				assert.Equal(t, tt.wantStatus, doc.Status)
				assert.NotNil(t, doc.Summary)
				assert.NotNil(t, doc.ActionItems)
				assert.NotNil(t, doc.Tags)
			}

			if tt.wantStage != "" {
				var perr *ProcessingError
				require.True(t, errors.As(err, &perr))
				assert.Equal(t, int64(1), perr.DocumentID)
				assert.Equal(t, tt.wantStage, perr.Stage)
				assert.Equal(t, 1, d.logs.FilterMessage("document_processing_failed").Len())
			}
			if tt.wantCause != nil {
				assert.ErrorIs(t, err, tt.wantCause)
			}

			if errors.Is(tt.wantErr, ErrValidation) {
				d.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
				d.ext.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything, mock.Anything)
			} else {
				// The last status written is always terminal.
				last := lastStatusWrite(t, d.repo)
				assert.True(t, last.Terminal(), "document left in %q", last)
				assert.Equal(t, tt.wantStatus, last)
				assert.Equal(t, 1.0, testutil.ToFloat64(svc.metrics.ingested.WithLabelValues(string(tt.wantStatus))))
			}

			d.repo.AssertExpectations(t)
			d.ext.AssertExpectations(t)
			d.analyzer.AssertExpectations(t)
		})
	}
}

func lastStatusWrite(t *testing.T, repo *repoMocks.MockDocumentRepository) model.Status {
	t.Helper()
	var last model.Status
	for _, c := range repo.Calls {
		if c.Method != "UpdateAnalysis" {
			continue
		}
		if u := c.Arguments.Get(2).(model.AnalysisUpdate); u.Status != nil {
			last = *u.Status
		}
	}
	require.NotEmpty(t, last, "no status was written")
	return last
}

func TestDocumentService_Submit_MarkFailedErrorIsLogged(t *testing.T) {
	svc, d := newTestService(t, nil, DocumentOptions{})
	d.repo.On("Create", mock.Anything, mock.Anything).Return(&model.Document{ID: 9, OwnerID: "u"}, nil)
	d.ext.On("Extract", mock.Anything, mock.Anything, mock.Anything).Return("", extract.ErrExtraction)
	d.repo.On("UpdateAnalysis", mock.Anything, int64(9), statusUpdate(model.StatusFailed)).Return(nil, errors.New("db down"))

	_, err := svc.Submit(context.Background(), SubmitInput{UserID: "u", Data: []byte("x"), MimeType: "image/png"})
	require.ErrorIs(t, err, ErrProcessing)

	entries := d.logs.FilterMessage("document_mark_failed_error").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(9), entries[0].ContextMap()["document_id"])
}

func TestDocumentService_Submit_SizeBoundary(t *testing.T) {
	const limit = 1024
	ctx := context.Background()

	t.Run("exactly the limit succeeds", func(t *testing.T) {
		svc, d := newTestService(t, nil, DocumentOptions{MaxUploadBytes: limit})
		d.repo.On("Create", mock.Anything, mock.Anything).Return(&model.Document{ID: 2, OwnerID: "u"}, nil)
		d.ext.On("Extract", mock.Anything, mock.Anything, "image/png").Return("ocr text", nil)
		d.analyzer.On("Analyze", mock.Anything, "ocr text").Return(&analyzer.Analysis{Summary: "s", ActionItems: []model.ActionItem{}, Tags: []string{}}, nil)
		d.repo.On("UpdateAnalysis", mock.Anything, int64(2), statusUpdate(model.StatusProcessed)).
			Return(&model.Document{ID: 2, Status: model.StatusProcessed}, nil)

		doc, err := svc.Submit(ctx, SubmitInput{UserID: "u", Data: make([]byte, limit), MimeType: "image/png", Filename: "scan.png"})
		require.NoError(t, err)
		assert.Equal(t, model.StatusProcessed, doc.Status)
	})

	t.Run("one byte over fails without a storage write", func(t *testing.T) {
		backend := new(storeMocks.MockStorage)
		svc, d := newTestService(t, storage.NewGateway(backend), DocumentOptions{MaxUploadBytes: limit})

		_, err := svc.Submit(ctx, SubmitInput{UserID: "u", Data: make([]byte, limit+1), MimeType: "image/png"})

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Reason, "1024")
		backend.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		d.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestDocumentService_Submit_StorageFailureCreatesNoRow(t *testing.T) {
	backend := new(storeMocks.MockStorage)
	backend.On("Stat", mock.Anything, mock.Anything).Return(storage.ObjectInfo{}, storage.ErrNotFound)
	backend.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(storage.ObjectInfo{}, errors.New("bucket unavailable"))
	svc, d := newTestService(t, storage.NewGateway(backend), DocumentOptions{})

	_, err := svc.Submit(context.Background(), SubmitInput{UserID: "u", Data: []byte("x"), MimeType: "application/pdf"})

	assert.ErrorIs(t, err, ErrStorage)
	d.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestDocumentService_Submit_RollsBackObjectWhenCreateFails(t *testing.T) {
	svc, d := newTestService(t, nil, DocumentOptions{})
	var key string
	d.repo.On("Create", mock.Anything, mock.MatchedBy(func(doc *model.Document) bool {
		key = doc.StorageKey
		return true
	})).Return(nil, errors.New("db fail"))

	_, err := svc.Submit(context.Background(), SubmitInput{UserID: "u", Data: []byte("x"), MimeType: "application/pdf"})

	assert.ErrorContains(t, err, "db save failed: db fail")
	require.NotEmpty(t, key)
	_, statErr := d.backend.Stat(context.Background(), key)
	assert.ErrorIs(t, statErr, storage.ErrNotFound)
	d.ext.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything, mock.Anything)
}

func TestDocumentService_Get(t *testing.T) {
	ctx := context.Background()
	owned := &model.Document{ID: 5, OwnerID: "user-a", Title: "lease"}

	tests := []struct {
		name       string
		userID     string
		setupMocks func(mRepo *repoMocks.MockDocumentRepository)
		wantErr    error
		wantErrMsg string
	}{
		{
			name:   "owner",
			userID: "user-a",
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", ctx, int64(5)).Return(owned, nil)
			},
		},
		{
			name:   "other user is forbidden",
			userID: "user-b",
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", ctx, int64(5)).Return(owned, nil)
			},
			wantErr: ErrForbidden,
		},
		{
			name:   "not found",
			userID: "user-a",
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", ctx, int64(5)).Return(nil, sql.ErrNoRows)
			},
			wantErr: ErrNotFound,
		},
		{
			name:   "repository error",
			userID: "user-a",
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", ctx, int64(5)).Return(nil, errors.New("db error"))
			},
			wantErrMsg: "db error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, d := newTestService(t, nil, DocumentOptions{})
			tt.setupMocks(d.repo)

			doc, err := svc.Get(ctx, tt.userID, 5)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, doc)
			case tt.wantErrMsg != "":
				assert.EqualError(t, err, tt.wantErrMsg)
			default:
				assert.NoError(t, err)
				assert.Equal(t, owned, doc)
			}
			d.repo.AssertExpectations(t)
		})
	}
}

func TestDocumentService_List(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name          string
		limit, offset int
		wantQuery     repository.PageQuery
	}{
		{name: "unbounded by default", limit: 0, offset: -3, wantQuery: repository.PageQuery{Limit: 0, Offset: 0}},
		{name: "negative limit is unbounded", limit: -1, offset: 0, wantQuery: repository.PageQuery{Limit: 0, Offset: 0}},
		{name: "clamped", limit: 500, offset: 10, wantQuery: repository.PageQuery{Limit: MaxPageSize, Offset: 10}},
		{name: "as given", limit: 20, offset: 40, wantQuery: repository.PageQuery{Limit: 20, Offset: 40}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, d := newTestService(t, nil, DocumentOptions{})
			d.repo.On("ListByUser", ctx, "user-a", tt.wantQuery).
				Return(&repository.PageResult[model.Document]{Items: []model.Document{{ID: 1, OwnerID: "user-a"}}, Total: 1}, nil)

			res, err := svc.List(ctx, "user-a", tt.limit, tt.offset)

			require.NoError(t, err)
			assert.Equal(t, 1, res.Total)
			assert.Len(t, res.Items, 1)
			d.repo.AssertExpectations(t)
		})
	}

	t.Run("returns every document without a limit", func(t *testing.T) {
		svc, d := newTestService(t, nil, DocumentOptions{})
		docs := make([]model.Document, 120)
		for i := range docs {
			docs[i] = model.Document{ID: int64(i + 1), OwnerID: "user-a"}
		}
		d.repo.On("ListByUser", ctx, "user-a", repository.PageQuery{}).
			Return(&repository.PageResult[model.Document]{Items: docs, Total: 120}, nil)

		res, err := svc.List(ctx, "user-a", 0, 0)

		require.NoError(t, err)
		assert.Equal(t, 120, res.Total)
		assert.Len(t, res.Items, 120)
	})

	t.Run("repository error", func(t *testing.T) {
		svc, d := newTestService(t, nil, DocumentOptions{})
		d.repo.On("ListByUser", ctx, "user-a", mock.Anything).Return(nil, errors.New("db error"))

		_, err := svc.List(ctx, "user-a", 10, 0)
		assert.EqualError(t, err, "db error")
	})
}

func TestDocumentService_Ask(t *testing.T) {
	ctx := context.Background()

	type fixture struct {
		svc *documentService
		d   *testDeps
		doc *model.Document
	}
	setup := func(t *testing.T) fixture {
		svc, d := newTestService(t, nil, DocumentOptions{})
		key, err := storage.NewGateway(d.backend).Put(ctx, "user-a", []byte("%PDF-lease"), "application/pdf", "lease.pdf")
		require.NoError(t, err)
		doc := &model.Document{ID: 7, OwnerID: "user-a", MimeType: "application/pdf", StorageKey: key, Status: model.StatusProcessed}
		return fixture{svc: svc, d: d, doc: doc}
	}

	t.Run("extracts on cache miss and returns the answer verbatim", func(t *testing.T) {
		f := setup(t)
		f.d.repo.On("FindByID", mock.Anything, int64(7)).Return(f.doc, nil)
		f.d.ext.On("Extract", mock.Anything, []byte("%PDF-lease"), "application/pdf").Return("rent is due monthly", nil).Once()
		f.d.analyzer.On("Ask", mock.Anything, "rent is due monthly", "When is rent due?").Return("Monthly.", nil)

		ans, err := f.svc.Ask(ctx, "user-a", 7, "  When is rent due?  ")
		require.NoError(t, err)
		assert.Equal(t, &Answer{Answer: "Monthly."}, ans)

		// Second call is served from the text cache.
		_, err = f.svc.Ask(ctx, "user-a", 7, "When is rent due?")
		require.NoError(t, err)
		f.d.ext.AssertNumberOfCalls(t, "Extract", 1)
		f.d.repo.AssertNotCalled(t, "UpdateAnalysis", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("stored file deleted out of band", func(t *testing.T) {
		f := setup(t)
		require.NoError(t, f.d.backend.Delete(ctx, f.doc.StorageKey))
		f.d.repo.On("FindByID", mock.Anything, int64(7)).Return(f.doc, nil)

		_, err := f.svc.Ask(ctx, "user-a", 7, "anything?")
		assert.ErrorIs(t, err, ErrStorage)
		assert.ErrorIs(t, err, storage.ErrNotFound)
		f.d.analyzer.AssertNotCalled(t, "Ask", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("stored file deleted after text was cached", func(t *testing.T) {
		f := setup(t)
		f.svc.texts.SetDefault(textKey(7), "cached text")
		require.NoError(t, f.d.backend.Delete(ctx, f.doc.StorageKey))
		f.d.repo.On("FindByID", mock.Anything, int64(7)).Return(f.doc, nil)

		_, err := f.svc.Ask(ctx, "user-a", 7, "anything?")
		assert.ErrorIs(t, err, storage.ErrNotFound)
		_, cached := f.svc.texts.Get(textKey(7))
		assert.False(t, cached)
	})

	t.Run("missing question", func(t *testing.T) {
		f := setup(t)
		_, err := f.svc.Ask(ctx, "user-a", 7, "   ")
		assert.ErrorIs(t, err, ErrValidation)
		f.d.repo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("not owner", func(t *testing.T) {
		f := setup(t)
		f.d.repo.On("FindByID", mock.Anything, int64(7)).Return(f.doc, nil)
		_, err := f.svc.Ask(ctx, "user-b", 7, "q?")
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("not found", func(t *testing.T) {
		f := setup(t)
		f.d.repo.On("FindByID", mock.Anything, int64(8)).Return(nil, sql.ErrNoRows)
		_, err := f.svc.Ask(ctx, "user-a", 8, "q?")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("model failure does not touch the document", func(t *testing.T) {
		f := setup(t)
		f.d.repo.On("FindByID", mock.Anything, int64(7)).Return(f.doc, nil)
		f.d.ext.On("Extract", mock.Anything, mock.Anything, "application/pdf").Return("text", nil)
		f.d.analyzer.On("Ask", mock.Anything, "text", "q?").Return("", analyzer.ErrAnalysis)

		_, err := f.svc.Ask(ctx, "user-a", 7, "q?")
		var perr *ProcessingError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "ask", perr.Stage)
		assert.ErrorIs(t, err, analyzer.ErrAnalysis)
		f.d.repo.AssertNotCalled(t, "UpdateAnalysis", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestDocumentService_Delete(t *testing.T) {
	ctx := context.Background()
	doc := &model.Document{ID: 3, OwnerID: "user-a", StorageKey: "user-a/abc.pdf"}

	tests := []struct {
		name       string
		userID     string
		setupMocks func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository)
		wantErr    error
	}{
		{
			name:   "success",
			userID: "user-a",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", ctx, int64(3)).Return(doc, nil)
				mStore.On("Delete", ctx, "user-a/abc.pdf").Return(nil)
				mRepo.On("Delete", ctx, int64(3)).Return(nil)
			},
		},
		{
			name:   "object already gone",
			userID: "user-a",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", ctx, int64(3)).Return(doc, nil)
				mStore.On("Delete", ctx, "user-a/abc.pdf").Return(storage.ErrNotFound)
				mRepo.On("Delete", ctx, int64(3)).Return(nil)
			},
		},
		{
			name:   "storage failure keeps the row",
			userID: "user-a",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", ctx, int64(3)).Return(doc, nil)
				mStore.On("Delete", ctx, "user-a/abc.pdf").Return(errors.New("timeout"))
			},
			wantErr: ErrStorage,
		},
		{
			name:   "not owner",
			userID: "user-b",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", ctx, int64(3)).Return(doc, nil)
			},
			wantErr: ErrForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockStorage)
			svc, d := newTestService(t, storage.NewGateway(mStore), DocumentOptions{})
			tt.setupMocks(mStore, d.repo)

			err := svc.Delete(ctx, tt.userID, 3)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				d.repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
			} else {
				assert.NoError(t, err)
			}
			mStore.AssertExpectations(t)
			d.repo.AssertExpectations(t)
		})
	}
}

func TestDocumentService_DownloadURL(t *testing.T) {
	ctx := context.Background()
	mStore := new(storeMocks.MockStorage)
	svc, d := newTestService(t, storage.NewGateway(mStore), DocumentOptions{PresignExpiry: 10 * time.Minute})
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	d.repo.On("FindByID", ctx, int64(4)).Return(&model.Document{ID: 4, OwnerID: "user-a", StorageKey: "user-a/k.png"}, nil)
	mStore.On("PresignGet", ctx, "user-a/k.png", 10*time.Minute).Return("https://bucket/user-a/k.png?sig", nil)

	link, err := svc.DownloadURL(ctx, "user-a", 4)
	require.NoError(t, err)
	assert.Equal(t, "https://bucket/user-a/k.png?sig", link.URL)
	assert.Equal(t, now.Add(10*time.Minute), link.ExpiresAt)

	_, err = svc.DownloadURL(ctx, "user-b", 4)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestDocumentTitle(t *testing.T) {
	assert.Equal(t, "Lease", documentTitle("  Lease ", "x.pdf"))
	assert.Equal(t, "scan-01", documentTitle("", "/tmp/scan-01.png"))
	assert.Equal(t, "Untitled document", documentTitle("", ""))
	assert.Equal(t, "upload", originalName(""))
}

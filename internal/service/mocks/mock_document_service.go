package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docintake/internal/model"
	"docintake/internal/service"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Submit(ctx context.Context, in service.SubmitInput) (*model.Document, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) List(ctx context.Context, userID string, limit, offset int) (*service.DocumentListResult, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DocumentListResult), args.Error(1)
}

func (m *MockDocumentService) Get(ctx context.Context, userID string, id int64) (*model.Document, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) Ask(ctx context.Context, userID string, id int64, question string) (*service.Answer, error) {
	args := m.Called(ctx, userID, id, question)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Answer), args.Error(1)
}

func (m *MockDocumentService) Delete(ctx context.Context, userID string, id int64) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *MockDocumentService) DownloadURL(ctx context.Context, userID string, id int64) (*service.DownloadLink, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DownloadLink), args.Error(1)
}

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docintake/internal/analyzer"
)

type MockAnalyzer struct {
	mock.Mock
}

func (m *MockAnalyzer) Analyze(ctx context.Context, text string) (*analyzer.Analysis, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*analyzer.Analysis), args.Error(1)
}

func (m *MockAnalyzer) Ask(ctx context.Context, text, question string) (string, error) {
	args := m.Called(ctx, text, question)
	return args.String(0), args.Error(1)
}

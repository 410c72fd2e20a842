package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"billclarity/internal/domain"
	"billclarity/internal/service"
)

// MockAnalysisService is a mock implementation of service.AnalysisService.
type MockAnalysisService struct {
	mock.Mock
}

func (m *MockAnalysisService) AnalyzeBill(ctx context.Context, input service.AnalyzeBillInput) (*domain.BillAnalysisResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BillAnalysisResult), args.Error(1)
}

func (m *MockAnalysisService) GenerateInquiryLetter(ctx context.Context, input service.GenerateLetterInput) (string, error) {
	args := m.Called(ctx, input)
	return args.String(0), args.Error(1)
}

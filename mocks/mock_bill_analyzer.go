package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"billclarity/internal/port"
)

// MockBillAnalyzer is a mock implementation of port.BillAnalyzer.
type MockBillAnalyzer struct {
	mock.Mock
}

func (m *MockBillAnalyzer) Analyze(ctx context.Context, input port.AnalyzeInput) (*port.AnalyzeOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.AnalyzeOutput), args.Error(1)
}

func (m *MockBillAnalyzer) GenerateText(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

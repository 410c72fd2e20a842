package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockEmailSender is a mock implementation of port.EmailSender.
type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) SendInquiryLetter(ctx context.Context, toEmail, hospitalName, letterBody string) error {
	args := m.Called(ctx, toEmail, hospitalName, letterBody)
	return args.Error(0)
}

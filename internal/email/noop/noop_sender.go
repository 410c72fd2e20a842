package noop

import (
	"context"

	"billclarity/internal/logger"
	"billclarity/internal/port"
)

type noopSender struct{}

// NewNoopSender creates a no-op EmailSender that logs instead of sending.
// Used in development so letter delivery does not require AWS credentials.
func NewNoopSender() port.EmailSender {
	return &noopSender{}
}

func (s *noopSender) SendInquiryLetter(_ context.Context, toEmail, hospitalName, letterBody string) error {
	logger.GetLogger().Infow("noop email sender: dropping inquiry letter",
		"to", toEmail, "hospital", hospitalName, "letter_bytes", len(letterBody))
	return nil
}

package port

import "context"

// EmailSender defines the contract for delivering a generated inquiry letter.
type EmailSender interface {
	SendInquiryLetter(ctx context.Context, toEmail, hospitalName, letterBody string) error
}

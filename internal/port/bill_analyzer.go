package port

import (
	"context"
	"encoding/json"
)

// AnalyzeInput carries the data needed for a bill analysis call.
type AnalyzeInput struct {
	ImageBytes  []byte
	ContentType string
	// FinancialSummary is a short plain-language description of the caller's
	// declared finances, embedded in the user instruction. Empty when no
	// financial context was supplied.
	FinancialSummary string
}

// AnalyzeOutput contains the structured result from a model provider. The
// payload is raw JSON; shape validation happens in the analyzer package before
// a domain result is constructed.
type AnalyzeOutput struct {
	StructuredData json.RawMessage
	ModelUsed      string
	PromptUsed     string
}

// BillAnalyzer abstracts a generative-model provider that can read a bill
// image into structured data and produce free text for correspondence.
type BillAnalyzer interface {
	Analyze(ctx context.Context, input AnalyzeInput) (*AnalyzeOutput, error)
	GenerateText(ctx context.Context, prompt string) (string, error)
}

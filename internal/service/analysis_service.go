package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"billclarity/internal/analyzer"
	"billclarity/internal/config"
	"billclarity/internal/domain"
	"billclarity/internal/eligibility"
	"billclarity/internal/logger"
	"billclarity/internal/port"
)

// AnalyzeBillInput is the DTO for bill analysis requests. The image's MIME
// type is sniffed from the bytes, never taken from the caller.
type AnalyzeBillInput struct {
	ImageBytes       []byte
	FinancialContext *domain.FinancialContext
}

// GenerateLetterInput is the DTO for inquiry letter requests.
type GenerateLetterInput struct {
	Result           *domain.BillAnalysisResult
	FinancialContext *domain.FinancialContext
	// SendTo, when set, also delivers the letter by email.
	SendTo string
}

// AnalysisService is the bill analysis gateway: it validates the upload,
// delegates interpretation to the configured model providers, and bounds the
// response against the expected schema.
type AnalysisService interface {
	AnalyzeBill(ctx context.Context, input AnalyzeBillInput) (*domain.BillAnalysisResult, error)
	GenerateInquiryLetter(ctx context.Context, input GenerateLetterInput) (string, error)
}

type analysisService struct {
	billAnalyzer port.BillAnalyzer
	emailSender  port.EmailSender
	cfg          *config.UploadConfig
}

// NewAnalysisService creates a new AnalysisService implementation.
func NewAnalysisService(
	billAnalyzer port.BillAnalyzer,
	emailSender port.EmailSender,
	cfg *config.UploadConfig,
) AnalysisService {
	return &analysisService{
		billAnalyzer: billAnalyzer,
		emailSender:  emailSender,
		cfg:          cfg,
	}
}

func (s *analysisService) AnalyzeBill(ctx context.Context, input AnalyzeBillInput) (*domain.BillAnalysisResult, error) {
	// All validation happens before any outbound call is attempted.
	if len(input.ImageBytes) == 0 {
		return nil, domain.ErrEmptyImage
	}
	if int64(len(input.ImageBytes)) > s.cfg.MaxImageBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds the %d byte limit",
			domain.ErrPayloadTooLarge, len(input.ImageBytes), s.cfg.MaxImageBytes)
	}

	// Sniff the actual bytes rather than trusting the declared type.
	detected := mimetype.Detect(input.ImageBytes).String()
	if _, ok := domain.AllowedContentTypes[detected]; !ok {
		return nil, fmt.Errorf("%w: detected %s; allowed: jpeg, png, webp, pdf",
			domain.ErrUnsupportedImageType, detected)
	}

	if input.FinancialContext != nil {
		if err := validateFinancialContext(input.FinancialContext); err != nil {
			return nil, err
		}
	}

	out, err := s.billAnalyzer.Analyze(ctx, port.AnalyzeInput{
		ImageBytes:       input.ImageBytes,
		ContentType:      detected,
		FinancialSummary: financialSummary(input.FinancialContext),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAnalysisUnavailable, err)
	}

	result, err := analyzer.DecodeAnalysis(out.StructuredData)
	if err != nil {
		return nil, err
	}

	result.ID = uuid.New()
	result.AnalysisDate = time.Now().UTC().Format("2006-01-02")
	result.ModelUsed = out.ModelUsed

	if input.FinancialContext != nil {
		// Echo the caller's context unchanged and attach the offline
		// eligibility decision. The model is never asked to compute it.
		fc := *input.FinancialContext
		result.UserFinancials = &fc

		charity, err := eligibility.Evaluate(fc.AnnualIncome, fc.HouseholdSize)
		if err != nil {
			return nil, err
		}
		result.CharityAnalysis = charity
	}

	logger.GetLogger().Infow("bill analysis completed",
		"analysis_id", result.ID,
		"model", result.ModelUsed,
		"items", len(result.Items),
		"confidence", result.ConfidenceScore)

	return result, nil
}

func (s *analysisService) GenerateInquiryLetter(ctx context.Context, input GenerateLetterInput) (string, error) {
	if input.Result == nil {
		return "", fmt.Errorf("%w: analysis result is required", domain.ErrLetterGenerationFailed)
	}
	if input.FinancialContext != nil {
		if err := validateFinancialContext(input.FinancialContext); err != nil {
			return "", err
		}
	}

	prompt := analyzer.BuildInquiryLetterPrompt(input.Result, input.FinancialContext)

	letter, err := s.billAnalyzer.GenerateText(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrLetterGenerationFailed, err)
	}

	if input.SendTo != "" {
		if err := s.emailSender.SendInquiryLetter(ctx, input.SendTo, input.Result.HospitalName, letter); err != nil {
			// The letter itself was generated; delivery failure is its own condition.
			return "", fmt.Errorf("%w: %v", domain.ErrEmailDeliveryFailed, err)
		}
	}

	return letter, nil
}

func validateFinancialContext(fc *domain.FinancialContext) error {
	if fc.AnnualIncome < 0 {
		return fmt.Errorf("%w: annual income must be non-negative", domain.ErrInvalidFinancialInput)
	}
	if fc.HouseholdSize < 1 {
		return fmt.Errorf("%w: household size must be at least 1", domain.ErrInvalidFinancialInput)
	}
	return nil
}

// financialSummary renders the declared finances as a short sentence for the
// user instruction. PII never enters here; the values are self-declared
// aggregates.
func financialSummary(fc *domain.FinancialContext) string {
	if fc == nil {
		return ""
	}
	return fmt.Sprintf("annual household income $%.0f, household size %d", fc.AnnualIncome, fc.HouseholdSize)
}

package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"billclarity/internal/domain"
	"billclarity/internal/service"
)

// AnalysisHandler handles bill analysis and inquiry letter endpoints.
type AnalysisHandler struct {
	analysisService service.AnalysisService
}

// NewAnalysisHandler creates a new AnalysisHandler.
func NewAnalysisHandler(analysisService service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{analysisService: analysisService}
}

// Analyze handles POST /api/v1/analyses
// @Summary Analyze a bill image
// @Description Upload a hospital bill image and receive a structured analysis
// @Tags analyses
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "Bill image (jpeg, png, webp, or pdf)"
// @Param annual_income formData number false "Annual household income"
// @Param household_size formData int false "Household size"
// @Success 200 {object} APIResponse{data=domain.BillAnalysisResult} "Analysis result"
// @Failure 400 {object} APIResponse "Invalid image or financial input"
// @Failure 413 {object} APIResponse "Image too large"
// @Failure 502 {object} APIResponse "Model returned malformed output"
// @Failure 503 {object} APIResponse "All model providers failed"
// @Router /analyses [post]
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	file, _, err := c.Request.FormFile("image")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_IMAGE", "image field is required")
		return
	}
	defer func() { _ = file.Close() }()

	imageBytes, err := io.ReadAll(file)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "UNREADABLE_IMAGE", "could not read uploaded image")
		return
	}

	fc, err := parseFinancialForm(c)
	if err != nil {
		HandleError(c, err)
		return
	}

	result, err := h.analysisService.AnalyzeBill(c.Request.Context(), service.AnalyzeBillInput{
		ImageBytes:       imageBytes,
		FinancialContext: fc,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, result)
}

// GenerateLetter handles POST /api/v1/letters
// @Summary Generate a billing inquiry letter
// @Description Generate professional correspondence covering every flagged line item of a prior analysis
// @Tags letters
// @Accept json
// @Produce json
// @Param request body LetterRequest true "Analysis result and optional financial context"
// @Success 200 {object} APIResponse{data=LetterResponse} "Letter body"
// @Failure 400 {object} APIResponse "Invalid request"
// @Failure 502 {object} APIResponse "Email delivery failed"
// @Failure 503 {object} APIResponse "Letter generation failed (retryable)"
// @Router /letters [post]
func (h *AnalysisHandler) GenerateLetter(c *gin.Context) {
	var req LetterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "analysis_result is required")
		return
	}

	letter, err := h.analysisService.GenerateInquiryLetter(c.Request.Context(), service.GenerateLetterInput{
		Result:           req.AnalysisResult,
		FinancialContext: req.FinancialContext,
		SendTo:           req.SendTo,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, LetterResponse{Letter: letter, EmailedTo: req.SendTo})
}

// LetterRequest is the request body for letter generation.
type LetterRequest struct {
	AnalysisResult   *domain.BillAnalysisResult `json:"analysis_result" binding:"required"`
	FinancialContext *domain.FinancialContext   `json:"financial_context"`
	SendTo           string                     `json:"send_to"`
}

// LetterResponse is the response body for letter generation.
type LetterResponse struct {
	Letter    string `json:"letter"`
	EmailedTo string `json:"emailed_to,omitempty"`
}

// parseFinancialForm reads the optional financial context form fields. Both
// fields must be present together or absent together.
func parseFinancialForm(c *gin.Context) (*domain.FinancialContext, error) {
	incomeStr := c.PostForm("annual_income")
	sizeStr := c.PostForm("household_size")
	if incomeStr == "" && sizeStr == "" {
		return nil, nil
	}

	income, err := strconv.ParseFloat(incomeStr, 64)
	if err != nil {
		return nil, domain.ErrInvalidFinancialInput
	}
	size, err := strconv.Atoi(sizeStr)
	if err != nil {
		return nil, domain.ErrInvalidFinancialInput
	}

	return &domain.FinancialContext{AnnualIncome: income, HouseholdSize: size}, nil
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"billclarity/internal/eligibility"
)

// EligibilityHandler handles the charity-eligibility endpoint.
type EligibilityHandler struct{}

// NewEligibilityHandler creates a new EligibilityHandler.
func NewEligibilityHandler() *EligibilityHandler {
	return &EligibilityHandler{}
}

// Evaluate handles POST /api/v1/eligibility
// @Summary Evaluate charity-care eligibility
// @Description Deterministic poverty-threshold classification from declared income and household size
// @Tags eligibility
// @Accept json
// @Produce json
// @Param request body EligibilityRequest true "Declared household finances"
// @Success 200 {object} APIResponse{data=domain.CharityEligibility} "Eligibility decision"
// @Failure 400 {object} APIResponse "Invalid financial input"
// @Router /eligibility [post]
func (h *EligibilityHandler) Evaluate(c *gin.Context) {
	var req EligibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "annual_income and household_size are required")
		return
	}

	decision, err := eligibility.Evaluate(req.AnnualIncome, req.HouseholdSize)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, decision)
}

// EligibilityRequest is the request body for eligibility evaluation.
type EligibilityRequest struct {
	AnnualIncome  float64 `json:"annual_income"`
	HouseholdSize int     `json:"household_size"`
}

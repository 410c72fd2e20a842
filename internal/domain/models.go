package domain

import (
	"github.com/google/uuid"
)

// FinancialContext carries the household finances a caller may attach to an
// analysis request. Both fields are declared by the user, never inferred.
type FinancialContext struct {
	AnnualIncome  float64 `json:"annual_income"`
	HouseholdSize int     `json:"household_size"`
}

// BillLineItem is a single charge extracted from the bill image.
type BillLineItem struct {
	// Code is the CPT/HCPCS code as printed on the bill, or the "unknown"
	// sentinel when illegible. The model is instructed never to invent codes.
	Code              string        `json:"code"`
	Description       string        `json:"description"`
	ChargedAmount     float64       `json:"charged_amount"`
	ExpectedAmount    *float64      `json:"expected_amount,omitempty"`
	VarianceLevel     VarianceLevel `json:"variance_level"`
	FlagReason        string        `json:"flag_reason,omitempty"`
	SuggestedQuestion string        `json:"suggested_question,omitempty"`
}

// CharityEligibility is the outcome of the poverty-threshold evaluation.
// Immutable once computed; it has no lifecycle beyond the request producing it.
type CharityEligibility struct {
	IsEligible                  bool    `json:"is_eligible"`
	EstimatedDiscountPercentage int     `json:"estimated_discount_percentage"`
	ProgramName                 string  `json:"program_name"`
	Reasoning                   string  `json:"reasoning"`
	PercentOfThreshold          float64 `json:"percent_of_threshold"`
}

// BillAnalysisResult is the structured analysis handed back to the caller.
// Created fresh per request and never persisted.
type BillAnalysisResult struct {
	ID                 uuid.UUID           `json:"id"`
	HospitalName       string              `json:"hospital_name,omitempty"`
	TotalCharged       float64             `json:"total_charged"`
	PotentialSavings   *float64            `json:"potential_savings,omitempty"`
	ConfidenceScore    float64             `json:"confidence_score"`
	Summary            string              `json:"summary"`
	Items              []BillLineItem      `json:"items"`
	CharityAnalysis    *CharityEligibility `json:"charity_analysis,omitempty"`
	DataSourceCitation string              `json:"data_source_citation,omitempty"`
	AnalysisDate       string              `json:"analysis_date"`
	UserFinancials     *FinancialContext   `json:"user_financials,omitempty"`
	ModelUsed          string              `json:"model_used,omitempty"`
}

// FlaggedItems returns the line items whose variance level is not Normal,
// preserving document order.
func (r *BillAnalysisResult) FlaggedItems() []BillLineItem {
	var flagged []BillLineItem
	for _, item := range r.Items {
		if item.VarianceLevel != VarianceNormal {
			flagged = append(flagged, item)
		}
	}
	return flagged
}

// Hospital is a static directory entry loaded once at startup. Read-only.
type Hospital struct {
	ID           string  `json:"id"`
	Slug         string  `json:"slug"`
	Name         string  `json:"name"`
	City         string  `json:"city"`
	State        string  `json:"state"`
	FPLLimit     float64 `json:"fpl_limit"`
	DeadlineDays int     `json:"deadline_days"`
}

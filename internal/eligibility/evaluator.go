// Package eligibility classifies a household's charity-care tier from
// declared income and household size. Pure arithmetic: no I/O, no state.
package eligibility

import (
	"fmt"

	"billclarity/internal/domain"
)

// Federal Poverty Level approximation: base threshold for a household of one
// plus a fixed increment per additional member (2024 HHS guidelines, 48
// contiguous states).
const (
	FPLBase      = 15060.0
	FPLPerPerson = 5380.0
)

// Tier boundaries as a percentage of the poverty threshold. Both are
// inclusive on the lower tier.
const (
	fullCarePercentMax = 200.0
	partialPercentMax  = 400.0
)

// Tier labels.
const (
	ProgramFullCharityCare = "Full Charity Care"
	ProgramPartialAssist   = "Partial Financial Assistance"
	ProgramStandard        = "Standard"
)

// Threshold returns the poverty-line reference value for a household.
func Threshold(householdSize int) float64 {
	return FPLBase + FPLPerPerson*float64(householdSize-1)
}

// Evaluate maps (income, household size) to a tiered eligibility decision.
// Deterministic: identical inputs always produce identical output.
func Evaluate(annualIncome float64, householdSize int) (*domain.CharityEligibility, error) {
	if annualIncome < 0 {
		return nil, fmt.Errorf("%w: annual income must be non-negative, got %v", domain.ErrInvalidFinancialInput, annualIncome)
	}
	if householdSize < 1 {
		return nil, fmt.Errorf("%w: household size must be at least 1, got %d", domain.ErrInvalidFinancialInput, householdSize)
	}

	threshold := Threshold(householdSize)
	percent := annualIncome / threshold * 100

	switch {
	case percent <= fullCarePercentMax:
		return &domain.CharityEligibility{
			IsEligible:                  true,
			EstimatedDiscountPercentage: 100,
			ProgramName:                 ProgramFullCharityCare,
			PercentOfThreshold:          percent,
			Reasoning: fmt.Sprintf(
				"Household income is %.0f%% of the federal poverty level for a household of %d. Incomes at or below 200%% of the poverty level typically qualify for full charity care at nonprofit hospitals.",
				percent, householdSize),
		}, nil
	case percent <= partialPercentMax:
		return &domain.CharityEligibility{
			IsEligible:                  true,
			EstimatedDiscountPercentage: 50,
			ProgramName:                 ProgramPartialAssist,
			PercentOfThreshold:          percent,
			Reasoning: fmt.Sprintf(
				"Household income is %.0f%% of the federal poverty level for a household of %d. Incomes between 200%% and 400%% of the poverty level typically qualify for partial financial assistance.",
				percent, householdSize),
		}, nil
	default:
		return &domain.CharityEligibility{
			IsEligible:                  false,
			EstimatedDiscountPercentage: 0,
			ProgramName:                 ProgramStandard,
			PercentOfThreshold:          percent,
			Reasoning: fmt.Sprintf(
				"Household income is %.0f%% of the federal poverty level for a household of %d, above the 400%% ceiling most hospital financial-assistance policies use. Standard billing applies, though itemized review may still reduce the total.",
				percent, householdSize),
		}, nil
	}
}

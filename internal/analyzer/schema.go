package analyzer

import (
	"encoding/json"
	"fmt"
	"strings"

	"billclarity/internal/domain"
)

// rawAnalysis mirrors the response schema requested from the model. Required
// fields are pointers so absence can be told apart from a zero value.
type rawAnalysis struct {
	HospitalName       string     `json:"hospital_name"`
	TotalCharged       *float64   `json:"total_charged"`
	PotentialSavings   *float64   `json:"potential_savings"`
	ConfidenceScore    *float64   `json:"confidence_score"`
	Summary            *string    `json:"summary"`
	DataSourceCitation string     `json:"data_source_citation"`
	Items              *[]rawItem `json:"items"`
}

type rawItem struct {
	Code              string   `json:"code"`
	Description       *string  `json:"description"`
	ChargedAmount     *float64 `json:"charged_amount"`
	ExpectedAmount    *float64 `json:"expected_amount"`
	VarianceLevel     string   `json:"variance_level"`
	FlagReason        string   `json:"flag_reason"`
	SuggestedQuestion string   `json:"suggested_question"`
}

// DecodeAnalysis validates the model's structured output and converts it into
// a domain result. Any shape mismatch is a contract violation: the whole
// response is rejected with domain.ErrMalformedModelOutput, never coerced into
// a partial result.
func DecodeAnalysis(data json.RawMessage) (*domain.BillAnalysisResult, error) {
	var raw rawAnalysis
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedModelOutput, err)
	}

	switch {
	case raw.TotalCharged == nil:
		return nil, fmt.Errorf("%w: total_charged is missing", domain.ErrMalformedModelOutput)
	case *raw.TotalCharged < 0:
		return nil, fmt.Errorf("%w: total_charged is negative", domain.ErrMalformedModelOutput)
	case raw.ConfidenceScore == nil:
		return nil, fmt.Errorf("%w: confidence_score is missing", domain.ErrMalformedModelOutput)
	case *raw.ConfidenceScore < 0 || *raw.ConfidenceScore > 100:
		return nil, fmt.Errorf("%w: confidence_score %v is outside 0-100", domain.ErrMalformedModelOutput, *raw.ConfidenceScore)
	case raw.Summary == nil || *raw.Summary == "":
		return nil, fmt.Errorf("%w: summary is missing", domain.ErrMalformedModelOutput)
	case raw.Items == nil:
		return nil, fmt.Errorf("%w: items is missing", domain.ErrMalformedModelOutput)
	}

	if raw.PotentialSavings != nil && *raw.PotentialSavings < 0 {
		return nil, fmt.Errorf("%w: potential_savings is negative", domain.ErrMalformedModelOutput)
	}

	items := make([]domain.BillLineItem, 0, len(*raw.Items))
	for i, ri := range *raw.Items {
		item, err := decodeItem(i, ri)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return &domain.BillAnalysisResult{
		HospitalName:       raw.HospitalName,
		TotalCharged:       *raw.TotalCharged,
		PotentialSavings:   raw.PotentialSavings,
		ConfidenceScore:    *raw.ConfidenceScore,
		Summary:            *raw.Summary,
		DataSourceCitation: raw.DataSourceCitation,
		Items:              items,
	}, nil
}

func decodeItem(i int, ri rawItem) (domain.BillLineItem, error) {
	var zero domain.BillLineItem

	if ri.Description == nil || *ri.Description == "" {
		return zero, fmt.Errorf("%w: items[%d].description is missing", domain.ErrMalformedModelOutput, i)
	}
	if ri.ChargedAmount == nil {
		return zero, fmt.Errorf("%w: items[%d].charged_amount is missing", domain.ErrMalformedModelOutput, i)
	}
	if *ri.ChargedAmount < 0 {
		return zero, fmt.Errorf("%w: items[%d].charged_amount is negative", domain.ErrMalformedModelOutput, i)
	}
	if ri.ExpectedAmount != nil && *ri.ExpectedAmount < 0 {
		return zero, fmt.Errorf("%w: items[%d].expected_amount is negative", domain.ErrMalformedModelOutput, i)
	}

	level := domain.VarianceLevel(strings.ToLower(strings.TrimSpace(ri.VarianceLevel)))
	if !domain.ValidVarianceLevels[level] {
		return zero, fmt.Errorf("%w: items[%d].variance_level %q is not a recognized level", domain.ErrMalformedModelOutput, i, ri.VarianceLevel)
	}

	// An absent or blank code means the model could not read it; normalize to
	// the sentinel rather than dropping the item.
	code := strings.TrimSpace(ri.Code)
	if code == "" {
		code = domain.UnknownCodeSentinel
	}

	return domain.BillLineItem{
		Code:              code,
		Description:       *ri.Description,
		ChargedAmount:     *ri.ChargedAmount,
		ExpectedAmount:    ri.ExpectedAmount,
		VarianceLevel:     level,
		FlagReason:        ri.FlagReason,
		SuggestedQuestion: ri.SuggestedQuestion,
	}, nil
}

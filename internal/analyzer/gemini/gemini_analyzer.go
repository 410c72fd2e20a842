package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"billclarity/internal/analyzer"
	"billclarity/internal/config"
	"billclarity/internal/port"
)

const (
	apiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"
)

// Analyzer implements port.BillAnalyzer using Google's Gemini API.
type Analyzer struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewAnalyzer creates a Gemini-based bill analyzer.
func NewAnalyzer(cfg *config.AnalyzerProviderConfig) *Analyzer {
	return newAnalyzer(cfg, "")
}

// NewAnalyzerWithEndpoint creates an analyzer pointing at a custom API endpoint (for testing).
func NewAnalyzerWithEndpoint(cfg *config.AnalyzerProviderConfig, endpoint string) *Analyzer {
	return newAnalyzer(cfg, endpoint)
}

func newAnalyzer(cfg *config.AnalyzerProviderConfig, endpoint string) *Analyzer {
	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	if endpoint == "" {
		endpoint = fmt.Sprintf("%s/%s:generateContent", apiBaseURL, model)
	}
	return &Analyzer{
		apiKey:   cfg.APIKey,
		model:    model,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (a *Analyzer) Analyze(ctx context.Context, input port.AnalyzeInput) (*port.AnalyzeOutput, error) {
	prompt := analyzer.BuildBillAnalysisPrompt(time.Now().Year(), input.FinancialSummary)

	encoded := base64.StdEncoding.EncodeToString(input.ImageBytes)

	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"role": "user",
				"parts": []map[string]interface{}{
					{
						"inline_data": map[string]interface{}{
							"mime_type": input.ContentType,
							"data":      encoded,
						},
					},
					{
						"text": prompt,
					},
				},
			},
		},
		"generationConfig": map[string]interface{}{
			"responseMimeType": "application/json",
			"maxOutputTokens":  16384,
		},
	}

	text, err := a.call(ctx, reqBody)
	if err != nil {
		return nil, err
	}

	if !json.Valid([]byte(text)) {
		return nil, fmt.Errorf("model output is not valid JSON (raw: %s)", truncate(text, 500))
	}

	return &port.AnalyzeOutput{
		StructuredData: json.RawMessage(text),
		ModelUsed:      a.model,
		PromptUsed:     prompt,
	}, nil
}

func (a *Analyzer) GenerateText(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"role": "user",
				"parts": []map[string]interface{}{
					{"text": prompt},
				},
			},
		},
		"generationConfig": map[string]interface{}{
			"maxOutputTokens": 8192,
		},
	}

	return a.call(ctx, reqBody)
}

// call posts a generateContent request and returns the first candidate's text.
func (a *Analyzer) call(ctx context.Context, reqBody map[string]interface{}) (string, error) {
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", a.apiKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling gemini API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		baseErr := fmt.Errorf("gemini API error (status %d): %s", resp.StatusCode, string(respBody))
		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := analyzer.ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
			return "", analyzer.NewRateLimitError("gemini", baseErr, retryAfter)
		}
		return "", baseErr
	}

	return extractText(respBody)
}

// geminiResponse models the Gemini API response.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

func extractText(body []byte) (string, error) {
	var resp geminiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("unmarshaling response: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("empty response from API: no candidates")
	}
	if resp.Candidates[0].FinishReason == "MAX_TOKENS" {
		return "", fmt.Errorf("output truncated: response exceeded output token limit")
	}
	if len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from API: no parts")
	}

	return resp.Candidates[0].Content.Parts[0].Text, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

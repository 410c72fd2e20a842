package claude

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
	apiURL     = "https://api.anthropic.com/v1/messages"
	apiVersion = "2023-06-01"
)

// Analyzer implements port.BillAnalyzer using the Anthropic Messages API.
type Analyzer struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewAnalyzer creates a Claude-based bill analyzer.
func NewAnalyzer(cfg *config.AnalyzerProviderConfig) *Analyzer {
	return newAnalyzer(cfg, apiURL)
}

// NewAnalyzerWithEndpoint creates an analyzer pointing at a custom API endpoint (for testing).
func NewAnalyzerWithEndpoint(cfg *config.AnalyzerProviderConfig, endpoint string) *Analyzer {
	return newAnalyzer(cfg, endpoint)
}

func newAnalyzer(cfg *config.AnalyzerProviderConfig, endpoint string) *Analyzer {
	model := cfg.Model
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
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

	contentBlocks, err := buildContentBlocks(input, prompt)
	if err != nil {
		return nil, fmt.Errorf("building content blocks: %w", err)
	}

	text, err := a.call(ctx, contentBlocks, 16384)
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
	blocks := []map[string]interface{}{
		{"type": "text", "text": prompt},
	}
	return a.call(ctx, blocks, 8192)
}

func (a *Analyzer) call(ctx context.Context, contentBlocks []map[string]interface{}, maxTokens int) (string, error) {
	reqBody := map[string]interface{}{
		"model":      a.model,
		"max_tokens": maxTokens,
		"messages": []map[string]interface{}{
			{
				"role":    "user",
				"content": contentBlocks,
			},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling anthropic API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		baseErr := fmt.Errorf("anthropic API error (status %d): %s", resp.StatusCode, string(respBody))
		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := analyzer.ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
			return "", analyzer.NewRateLimitError("claude", baseErr, retryAfter)
		}
		return "", baseErr
	}

	return extractText(respBody)
}

func buildContentBlocks(input port.AnalyzeInput, prompt string) ([]map[string]interface{}, error) {
	encoded := base64.StdEncoding.EncodeToString(input.ImageBytes)
	var blocks []map[string]interface{}

	switch input.ContentType {
	case "application/pdf":
		blocks = append(blocks, map[string]interface{}{
			"type": "document",
			"source": map[string]interface{}{
				"type":       "base64",
				"media_type": "application/pdf",
				"data":       encoded,
			},
		})
	case "image/jpeg", "image/png", "image/webp":
		blocks = append(blocks, map[string]interface{}{
			"type": "image",
			"source": map[string]interface{}{
				"type":       "base64",
				"media_type": input.ContentType,
				"data":       encoded,
			},
		})
	default:
		return nil, fmt.Errorf("unsupported content type for analysis: %s", input.ContentType)
	}

	blocks = append(blocks, map[string]interface{}{
		"type": "text",
		"text": prompt,
	})

	return blocks, nil
}

// apiResponse models the Anthropic Messages API response.
type apiResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

func extractText(body []byte) (string, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("unmarshaling response: %w", err)
	}

	if len(resp.Content) == 0 {
		return "", fmt.Errorf("empty response from API")
	}
	if resp.StopReason == "max_tokens" {
		return "", fmt.Errorf("output truncated (stop_reason: max_tokens): response exceeded output token limit")
	}

	return resp.Content[0].Text, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"billclarity/internal/config"
	"billclarity/internal/directory"
	"billclarity/internal/domain"
	"billclarity/internal/handler"
	"billclarity/internal/router"
	"billclarity/internal/service"
	"billclarity/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T, svc service.AnalysisService) *gin.Engine {
	t.Helper()

	store, err := directory.NewStore()
	require.NoError(t, err)

	cfg := &config.Config{
		Analyzer: config.AnalyzerConfig{
			Primary: config.AnalyzerProviderConfig{Provider: "gemini", APIKey: "test-key"},
		},
		Upload: config.UploadConfig{MaxImageBytes: 6 * 1024 * 1024},
	}

	return router.Setup(
		nil,
		handler.NewAnalysisHandler(svc),
		handler.NewEligibilityHandler(),
		handler.NewHospitalHandler(store),
		handler.NewHealthHandler(cfg),
	)
}

func decodeEnvelope(t *testing.T, body *bytes.Buffer) handler.APIResponse {
	t.Helper()
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(body.Bytes(), &resp))
	return resp
}

func multipartImage(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fw, err := w.CreateFormFile("image", "bill.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0})
	require.NoError(t, err)

	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestAnalyze_Success(t *testing.T) {
	svc := new(mocks.MockAnalysisService)
	svc.On("AnalyzeBill", mock.Anything, mock.Anything).Return(&domain.BillAnalysisResult{
		ID:              uuid.New(),
		HospitalName:    "General Hospital",
		TotalCharged:    3200,
		ConfidenceScore: 90,
		Summary:         "summary",
	}, nil)

	body, contentType := multipartImage(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	newTestRouter(t, svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeEnvelope(t, rec.Body)
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Error)
}

func TestAnalyze_MissingImage(t *testing.T) {
	svc := new(mocks.MockAnalysisService)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("annual_income", "45000"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	newTestRouter(t, svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeEnvelope(t, rec.Body)
	assert.Equal(t, "MISSING_IMAGE", resp.Error.Code)
	svc.AssertNotCalled(t, "AnalyzeBill", mock.Anything, mock.Anything)
}

func TestAnalyze_FinancialFormFields(t *testing.T) {
	svc := new(mocks.MockAnalysisService)
	svc.On("AnalyzeBill", mock.Anything, mock.MatchedBy(func(in service.AnalyzeBillInput) bool {
		return in.FinancialContext != nil &&
			in.FinancialContext.AnnualIncome == 45000 &&
			in.FinancialContext.HouseholdSize == 4
	})).Return(&domain.BillAnalysisResult{TotalCharged: 100, Summary: "s"}, nil)

	body, contentType := multipartImage(t, map[string]string{
		"annual_income":  "45000",
		"household_size": "4",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	newTestRouter(t, svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestAnalyze_MalformedFinancialForm(t *testing.T) {
	svc := new(mocks.MockAnalysisService)

	body, contentType := multipartImage(t, map[string]string{
		"annual_income":  "not-a-number",
		"household_size": "4",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	newTestRouter(t, svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeEnvelope(t, rec.Body)
	assert.Equal(t, "INVALID_FINANCIAL_INPUT", resp.Error.Code)
	svc.AssertNotCalled(t, "AnalyzeBill", mock.Anything, mock.Anything)
}

func TestAnalyze_DomainErrorMapping(t *testing.T) {
	cases := map[string]struct {
		err        error
		wantStatus int
		wantCode   string
		retryable  bool
	}{
		"payload too large": {
			err:        fmt.Errorf("%w: too big", domain.ErrPayloadTooLarge),
			wantStatus: http.StatusRequestEntityTooLarge,
			wantCode:   "PAYLOAD_TOO_LARGE",
		},
		"unsupported type": {
			err:        fmt.Errorf("%w: text/plain", domain.ErrUnsupportedImageType),
			wantStatus: http.StatusBadRequest,
			wantCode:   "UNSUPPORTED_IMAGE_TYPE",
		},
		"malformed model output": {
			err:        fmt.Errorf("%w: missing total_charged", domain.ErrMalformedModelOutput),
			wantStatus: http.StatusBadGateway,
			wantCode:   "MALFORMED_MODEL_OUTPUT",
			retryable:  true,
		},
		"analysis unavailable": {
			err:        fmt.Errorf("%w: all providers failed", domain.ErrAnalysisUnavailable),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "ANALYSIS_UNAVAILABLE",
			retryable:  true,
		},
		"unexpected error": {
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			svc := new(mocks.MockAnalysisService)
			svc.On("AnalyzeBill", mock.Anything, mock.Anything).Return(nil, tc.err)

			body, contentType := multipartImage(t, nil)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			newTestRouter(t, svc).ServeHTTP(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
			resp := decodeEnvelope(t, rec.Body)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tc.wantCode, resp.Error.Code)
			assert.Equal(t, tc.retryable, resp.Error.Retryable)
		})
	}
}

func TestAnalyze_InternalErrorMessageNotLeaked(t *testing.T) {
	svc := new(mocks.MockAnalysisService)
	svc.On("AnalyzeBill", mock.Anything, mock.Anything).Return(nil, errors.New("pq: connection refused at 10.0.0.5"))

	body, contentType := multipartImage(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	newTestRouter(t, svc).ServeHTTP(rec, req)

	resp := decodeEnvelope(t, rec.Body)
	assert.NotContains(t, resp.Error.Message, "10.0.0.5")
}

func TestGenerateLetter_Success(t *testing.T) {
	svc := new(mocks.MockAnalysisService)
	svc.On("GenerateInquiryLetter", mock.Anything, mock.MatchedBy(func(in service.GenerateLetterInput) bool {
		return in.Result != nil && in.SendTo == "patient@example.com"
	})).Return("Dear Billing Department,", nil)

	payload := `{
		"analysis_result": {"total_charged": 3200, "summary": "s", "confidence_score": 90, "items": []},
		"send_to": "patient@example.com"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/letters", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	newTestRouter(t, svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool                   `json:"success"`
		Data    handler.LetterResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Dear Billing Department,", resp.Data.Letter)
	assert.Equal(t, "patient@example.com", resp.Data.EmailedTo)
}

func TestGenerateLetter_MissingResult(t *testing.T) {
	svc := new(mocks.MockAnalysisService)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/letters", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	newTestRouter(t, svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeEnvelope(t, rec.Body)
	assert.Equal(t, "INVALID_REQUEST", resp.Error.Code)
	svc.AssertNotCalled(t, "GenerateInquiryLetter", mock.Anything, mock.Anything)
}

func TestGenerateLetter_GenerationFailed(t *testing.T) {
	svc := new(mocks.MockAnalysisService)
	svc.On("GenerateInquiryLetter", mock.Anything, mock.Anything).
		Return("", fmt.Errorf("%w: provider down", domain.ErrLetterGenerationFailed))

	payload := `{"analysis_result": {"total_charged": 100, "summary": "s", "confidence_score": 90, "items": []}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/letters", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	newTestRouter(t, svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	resp := decodeEnvelope(t, rec.Body)
	assert.Equal(t, "LETTER_GENERATION_FAILED", resp.Error.Code)
	assert.True(t, resp.Error.Retryable)
}

func TestEligibility_Evaluate(t *testing.T) {
	svc := new(mocks.MockAnalysisService)
	r := newTestRouter(t, svc)

	t.Run("eligible household", func(t *testing.T) {
		payload := `{"annual_income": 45000, "household_size": 4}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/eligibility", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Success bool                      `json:"success"`
			Data    domain.CharityEligibility `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Data.IsEligible)
		assert.Equal(t, 100, resp.Data.EstimatedDiscountPercentage)
		assert.Equal(t, "Full Charity Care", resp.Data.ProgramName)
	})

	t.Run("zero household size", func(t *testing.T) {
		payload := `{"annual_income": 45000, "household_size": 0}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/eligibility", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decodeEnvelope(t, rec.Body)
		assert.Equal(t, "INVALID_FINANCIAL_INPUT", resp.Error.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/eligibility", strings.NewReader(`{`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHospitals(t *testing.T) {
	r := newTestRouter(t, new(mocks.MockAnalysisService))

	t.Run("list all", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/hospitals", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Data []domain.Hospital `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Data)
	})

	t.Run("search", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/hospitals?q=cleveland", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		var resp struct {
			Data []domain.Hospital `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 1)
		assert.Equal(t, "cleveland-clinic", resp.Data[0].Slug)
	})

	t.Run("get by slug", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/hospitals/cleveland-clinic", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("not found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/hospitals/no-such", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		resp := decodeEnvelope(t, rec.Body)
		assert.Equal(t, "HOSPITAL_NOT_FOUND", resp.Error.Code)
	})
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t, new(mocks.MockAnalysisService))

	t.Run("liveness", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("readiness with valid config", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestReadiness_MissingAPIKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	cfg := &config.Config{
		Upload: config.UploadConfig{MaxImageBytes: 1024},
	}
	h := handler.NewHealthHandler(cfg)
	r.GET("/readyz", h.Readiness)

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "analyzer credential is not configured")
}

func TestRequestIDHeader(t *testing.T) {
	r := newTestRouter(t, new(mocks.MockAnalysisService))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	_, err := uuid.Parse(rec.Header().Get("X-Request-ID"))
	assert.NoError(t, err)
}

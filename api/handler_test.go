package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/receipt-ocr-service/internal/models"
	"github.com/fleetops/receipt-ocr-service/internal/ocr"
)

func testHandler(t *testing.T, ocrBaseURL string) *Handler {
	t.Helper()
	config := &models.Config{
		Port: 8080,
		OCR:  models.OCRConfig{BaseURL: ocrBaseURL, TimeoutSeconds: 5},
	}
	return NewHandler(config, ocr.NewClient(ocrBaseURL, 5*time.Second), nil)
}

func TestHealthReportsHealthy(t *testing.T) {
	engine := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer engine.Close()

	handler := testHandler(t, engine.URL)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.SetupRoutes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.True(t, resp.OCREngine.Available)
	assert.Equal(t, "EasyOCR", resp.OCREngine.Version)
	// No database or storage configured in tests.
	assert.False(t, resp.Database.Available)
	assert.False(t, resp.Storage.Available)
}

func TestHealthDegradedWhenEngineDown(t *testing.T) {
	handler := testHandler(t, "http://127.0.0.1:1")
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.SetupRoutes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.False(t, resp.OCREngine.Available)
}

func TestProcessReceiptRequiresAuth(t *testing.T) {
	handler := testHandler(t, "http://127.0.0.1:1")
	req := httptest.NewRequest(http.MethodPost, "/api/process-receipt", nil)
	rec := httptest.NewRecorder()
	handler.SetupRoutes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetReceiptsRequiresAuth(t *testing.T) {
	handler := testHandler(t, "http://127.0.0.1:1")
	req := httptest.NewRequest(http.MethodGet, "/api/receipts", nil)
	rec := httptest.NewRecorder()
	handler.SetupRoutes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

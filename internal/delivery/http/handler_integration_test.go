package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/organicai/scanner/config"
	"github.com/organicai/scanner/internal/domain"
	"github.com/organicai/scanner/internal/infrastructure/cache"
	"github.com/organicai/scanner/internal/usecase"
)

// TestMain sets up test environment before running tests
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// mockMediaStore is a mock implementation of domain.MediaStore
type mockMediaStore struct {
	url   string
	err   error
	calls int
}

func (m *mockMediaStore) Upload(ctx context.Context, image string) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.url, nil
}

// mockVisionModel is a mock implementation of domain.VisionModel
type mockVisionModel struct {
	reply   string
	err     error
	calls   int
	lastURL string
}

func (m *mockVisionModel) Complete(ctx context.Context, prompt, imageURL string) (string, error) {
	m.calls++
	m.lastURL = imageURL
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:           "8080",
			Environment:    "test",
			AllowedOrigins: []string{"http://localhost:*"},
			MaxBodyBytes:   1 << 20,
		},
		RateLimit: config.RateLimitConfig{PerIP: 0},
	}
}

// setupTestRouter wires the real services over the given mocks
func setupTestRouter(store domain.MediaStore, model domain.VisionModel, strict bool) *gin.Engine {
	var media *usecase.MediaService
	if store != nil {
		media = usecase.NewMediaService(store)
	}
	var analysis *usecase.AnalysisService
	if model != nil {
		analysis = usecase.NewAnalysisService(model, usecase.AnalysisServiceConfig{StrictParse: strict})
	}
	return SetupRouter(testConfig(), NewHandler(media, analysis), nil)
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp domain.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

func TestHealthCheckEndpoint(t *testing.T) {
	router := setupTestRouter(nil, nil, false)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "healthy", response["status"])
	assert.Equal(t, serviceName, response["service"])
	assert.Equal(t, serviceVersion, response["version"])
}

func TestUploadEndpoint(t *testing.T) {
	const dataURL = "data:image/jpeg;base64,/9j/4AAQSkZJRg=="

	tests := []struct {
		name       string
		body       string
		store      *mockMediaStore
		wantStatus int
		wantURL    string
		wantError  string
		wantCalls  int
	}{
		{
			name:       "uploads image and returns url",
			body:       `{"image":"` + dataURL + `"}`,
			store:      &mockMediaStore{url: "https://res.cloudinary.com/demo/image/upload/organic-ai/a.jpg"},
			wantStatus: http.StatusOK,
			wantURL:    "https://res.cloudinary.com/demo/image/upload/organic-ai/a.jpg",
			wantCalls:  1,
		},
		{
			name:       "missing image field",
			body:       `{}`,
			store:      &mockMediaStore{},
			wantStatus: http.StatusBadRequest,
			wantError:  msgNoImage,
		},
		{
			name:       "empty image",
			body:       `{"image":"  "}`,
			store:      &mockMediaStore{},
			wantStatus: http.StatusBadRequest,
			wantError:  msgNoImage,
		},
		{
			name:       "malformed body",
			body:       `{"image":`,
			store:      &mockMediaStore{},
			wantStatus: http.StatusBadRequest,
			wantError:  msgNoImage,
		},
		{
			name:       "media store failure",
			body:       `{"image":"` + dataURL + `"}`,
			store:      &mockMediaStore{err: errors.New("connection refused")},
			wantStatus: http.StatusInternalServerError,
			wantError:  msgUploadFailed,
			wantCalls:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter(tt.store, &mockVisionModel{}, false)

			w := postJSON(router, "/api/upload", tt.body)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCalls, tt.store.calls)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, decodeError(t, w))
				return
			}
			var resp domain.UploadResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantURL, resp.URL)
		})
	}
}

func TestAnalyzeEndpoint(t *testing.T) {
	const imageURL = "https://res.cloudinary.com/demo/image/upload/organic-ai/a.jpg"
	const cereal = `{"name":"Cereal X","ingredients":["sugar","wheat"],"healthScore":3,` +
		`"alternatives":[{"name":"Cereal Y","ingredients":["oats"],"healthScore":8,"reasons":["no added sugar"]}]}`

	t.Run("returns the analysed product", func(t *testing.T) {
		model := &mockVisionModel{reply: cereal}
		router := setupTestRouter(&mockMediaStore{}, model, false)

		w := postJSON(router, "/api/analyze", `{"imageUrl":"`+imageURL+`"}`)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1, model.calls)
		assert.Equal(t, imageURL, model.lastURL)

		var product domain.Product
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &product))
		assert.Equal(t, "Cereal X", product.Name)
		assert.Equal(t, []string{"sugar", "wheat"}, product.Ingredients)
		assert.Equal(t, 3.0, product.HealthScore)
		require.Len(t, product.Alternatives, 1)
		assert.Equal(t, []string{"no added sugar"}, product.Alternatives[0].Reasons)
	})

	t.Run("accepts a fenced reply", func(t *testing.T) {
		model := &mockVisionModel{reply: "```json\n" + cereal + "\n```"}
		router := setupTestRouter(&mockMediaStore{}, model, false)

		w := postJSON(router, "/api/analyze", `{"imageUrl":"`+imageURL+`"}`)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"name":"Cereal X"`)
	})

	t.Run("missing image url", func(t *testing.T) {
		model := &mockVisionModel{reply: cereal}
		router := setupTestRouter(&mockMediaStore{}, model, false)

		w := postJSON(router, "/api/analyze", `{}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, msgNoImageURL, decodeError(t, w))
		assert.Zero(t, model.calls)
	})

	t.Run("model failure", func(t *testing.T) {
		model := &mockVisionModel{err: errors.New("quota exceeded")}
		router := setupTestRouter(&mockMediaStore{}, model, false)

		w := postJSON(router, "/api/analyze", `{"imageUrl":"`+imageURL+`"}`)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, msgAnalyzeFailed, decodeError(t, w))
		assert.Equal(t, 1, model.calls)
	})

	t.Run("unparseable reply yields an empty product", func(t *testing.T) {
		model := &mockVisionModel{reply: "I cannot read this label."}
		router := setupTestRouter(&mockMediaStore{}, model, false)

		w := postJSON(router, "/api/analyze", `{"imageUrl":"`+imageURL+`"}`)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"name":"","ingredients":[],"healthScore":0,"alternatives":[]}`, w.Body.String())
	})

	t.Run("unparseable reply in strict mode", func(t *testing.T) {
		model := &mockVisionModel{reply: "I cannot read this label."}
		router := setupTestRouter(&mockMediaStore{}, model, true)

		w := postJSON(router, "/api/analyze", `{"imageUrl":"`+imageURL+`"}`)

		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Equal(t, msgParseFailed, decodeError(t, w))
	})
}

func TestUnconfiguredServices(t *testing.T) {
	router := setupTestRouter(nil, nil, false)

	w := postJSON(router, "/api/upload", `{"image":"x"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = postJSON(router, "/api/analyze", `{"imageUrl":"x"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestBodyLimitIntegration(t *testing.T) {
	model := &mockVisionModel{}
	router := setupTestRouter(&mockMediaStore{url: "https://x"}, model, false)

	t.Run("upload", func(t *testing.T) {
		big := `{"image":"` + strings.Repeat("A", 2<<20) + `"}`
		w := postJSON(router, "/api/upload", big)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Equal(t, msgBodyTooLarge, decodeError(t, w))
	})

	t.Run("analyze", func(t *testing.T) {
		big := `{"imageUrl":"data:image/jpeg;base64,` + strings.Repeat("A", 2<<20) + `"}`
		w := postJSON(router, "/api/analyze", big)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Equal(t, msgBodyTooLarge, decodeError(t, w))
		assert.Empty(t, model.lastURL)
	})
}

func TestRateLimitIntegration(t *testing.T) {
	visitors := cache.NewMemoryCacheWithInterval(time.Hour)
	defer visitors.Close()

	cfg := testConfig()
	cfg.RateLimit.PerIP = 1
	media := usecase.NewMediaService(&mockMediaStore{url: "https://x"})
	router := SetupRouter(cfg, NewHandler(media, nil), visitors)

	assert.Equal(t, http.StatusOK, postJSON(router, "/api/upload", `{"image":"x"}`).Code)

	w := postJSON(router, "/api/upload", `{"image":"x"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, msgRateLimited, decodeError(t, w))

	// Health is outside the limited group
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	hw := httptest.NewRecorder()
	router.ServeHTTP(hw, req)
	assert.Equal(t, http.StatusOK, hw.Code)
}

func TestCORSIntegration(t *testing.T) {
	router := setupTestRouter(&mockMediaStore{url: "https://x"}, &mockVisionModel{}, false)

	t.Run("preflight from allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/upload", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", "POST")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
	})

	t.Run("request from disallowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "http://evil.com")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestJSONResponses(t *testing.T) {
	router := setupTestRouter(&mockMediaStore{url: "https://x"}, &mockVisionModel{reply: "{}"}, false)

	for _, path := range []string{"/api/upload", "/api/analyze"} {
		w := postJSON(router, path, `{}`)
		assert.Contains(t, w.Header().Get("Content-Type"), "application/json", path)
	}
}

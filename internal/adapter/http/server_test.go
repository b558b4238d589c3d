package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/couchcryptid/water-leak-service/internal/adapter/http"
	"github.com/couchcryptid/water-leak-service/internal/domain"
	"github.com/couchcryptid/water-leak-service/internal/observability"
	"github.com/couchcryptid/water-leak-service/internal/predict"
)

type fixedClassifier struct{ p float64 }

func (c fixedClassifier) PredictProba(X [][]float64) ([]float64, error) {
	out := make([]float64, len(X))
	for i := range out {
		out[i] = c.p
	}
	return out, nil
}

type fixedRegressor struct{ v float64 }

func (r fixedRegressor) Predict(X [][]float64) ([]float64, error) {
	out := make([]float64, len(X))
	for i := range out {
		out[i] = r.v
	}
	return out, nil
}

type countingPredictor struct {
	*predict.Service
	calls int
}

func (c *countingPredictor) Handle(body []byte) predict.Result {
	c.calls++
	return c.Service.Handle(body)
}

type mockHistory struct {
	mu        sync.Mutex
	records   []domain.PredictionRecord
	recordErr error
	recentErr error
	lastN     int
}

func (m *mockHistory) Record(_ context.Context, rec domain.PredictionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recordErr != nil {
		return m.recordErr
	}
	m.records = append([]domain.PredictionRecord{rec}, m.records...)
	return nil
}

func (m *mockHistory) Recent(_ context.Context, n int) ([]domain.PredictionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastN = n
	if m.recentErr != nil {
		return nil, m.recentErr
	}
	if n > len(m.records) {
		n = len(m.records)
	}
	return m.records[:n], nil
}

func newTestServer(t *testing.T, svc httpadapter.Predictor, history httpadapter.History) (*httpadapter.Server, *observability.Metrics) {
	t.Helper()
	metrics := observability.NewMetricsForTesting()
	return httpadapter.NewServer(":0", svc, history, slog.Default(), metrics), metrics
}

func readyService() *predict.Service {
	return predict.NewService(fixedClassifier{p: 0.25}, fixedRegressor{v: 42.5}, slog.Default())
}

func post(srv http.Handler, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	srv.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestPredict_Success(t *testing.T) {
	history := &mockHistory{}
	srv, metrics := newTestServer(t, readyService(), history)

	rec := post(srv, `{"flow_rate_norm": 0.5, "pressure_norm": -0.3, "hour": 14}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get(httpadapter.RequestIDHeader))

	body := decode(t, rec)
	assert.Equal(t, map[string]any{"leak_probability": 0.25, "forecast_demand": 42.5}, body)

	require.Len(t, history.records, 1)
	got := history.records[0]
	assert.Equal(t, rec.Header().Get(httpadapter.RequestIDHeader), got.RequestID)
	assert.Equal(t, domain.FeatureVector{FlowRateNorm: 0.5, PressureNorm: -0.3, Hour: 14}, got.Features)
	assert.InDelta(t, 0.25, got.LeakProbability, 1e-12)

	assert.InDelta(t, 1, testutil.ToFloat64(metrics.PredictionRequests.WithLabelValues("success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.HistoryWrites.WithLabelValues("success")), 0)
}

func TestPredict_EchoesRequestID(t *testing.T) {
	srv, _ := newTestServer(t, readyService(), nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(`{"flow_rate_norm":0,"pressure_norm":0,"hour":0}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set(httpadapter.RequestIDHeader, "abc-123")
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc-123", rec.Header().Get(httpadapter.RequestIDHeader))
}

func TestPredict_MissingKeys(t *testing.T) {
	history := &mockHistory{}
	srv, metrics := newTestServer(t, readyService(), history)

	rec := post(srv, `{"flow_rate_norm": 0.5}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, map[string]any{
		"error": "Missing keys in input, required keys: ['flow_rate_norm', 'pressure_norm', 'hour']",
	}, decode(t, rec))
	assert.Empty(t, history.records)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.PredictionRequests.WithLabelValues("validation_failure")), 0)
}

func TestPredict_InternalFailures(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"non-numeric hour", `{"flow_rate_norm": 0.5, "pressure_norm": -0.3, "hour": "not-a-number"}`},
		{"invalid json", `{"flow_rate_norm": 0.5,`},
		{"null value", `{"flow_rate_norm": null, "pressure_norm": -0.3, "hour": 14}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, metrics := newTestServer(t, readyService(), nil)

			rec := post(srv, tt.body)

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			body := decode(t, rec)
			assert.NotEmpty(t, body["error"])
			assert.Equal(t, domain.UnexpectedErrorMessage, body["message"])
			assert.InDelta(t, 1, testutil.ToFloat64(metrics.PredictionRequests.WithLabelValues("internal_failure")), 0)
		})
	}
}

func TestPredict_ContentType(t *testing.T) {
	tests := []struct {
		contentType string
		wantCode    int
	}{
		{"application/json", http.StatusOK},
		{"application/merge-patch+json", http.StatusOK},
		{"", http.StatusInternalServerError},
		{"text/plain", http.StatusInternalServerError},
		{"application/x-www-form-urlencoded", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			svc := &countingPredictor{Service: readyService()}
			srv, metrics := newTestServer(t, svc, nil)

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(`{"flow_rate_norm": 0.5, "pressure_norm": -0.3, "hour": 14}`))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			srv.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusInternalServerError {
				body := decode(t, rec)
				assert.Contains(t, body["error"], "application/json")
				assert.Equal(t, domain.UnexpectedErrorMessage, body["message"])
				assert.Zero(t, svc.calls, "body is not handed to the predictor")
				assert.InDelta(t, 1, testutil.ToFloat64(metrics.PredictionRequests.WithLabelValues("internal_failure")), 0)
			}
		})
	}
}

func TestPredict_HistoryFailureDoesNotFailRequest(t *testing.T) {
	history := &mockHistory{recordErr: errors.New("connection refused")}
	srv, metrics := newTestServer(t, readyService(), history)

	rec := post(srv, `{"flow_rate_norm": 0.5, "pressure_norm": -0.3, "hour": 14}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.HistoryWrites.WithLabelValues("error")), 0)
}

func TestPredict_MethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, readyService(), nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/predict", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRecent(t *testing.T) {
	history := &mockHistory{}
	srv, _ := newTestServer(t, readyService(), history)
	for range 3 {
		require.Equal(t, http.StatusOK, post(srv, `{"flow_rate_norm": 1, "pressure_norm": 2, "hour": 3}`).Code)
	}

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/predictions/recent?limit=2", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var records []domain.PredictionRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	assert.Len(t, records, 2)
	assert.Equal(t, 2, history.lastN)
}

func TestRecent_Limits(t *testing.T) {
	tests := []struct {
		query    string
		wantCode int
		wantN    int
	}{
		{"", http.StatusOK, 20},
		{"?limit=500", http.StatusOK, 100},
		{"?limit=0", http.StatusBadRequest, 0},
		{"?limit=abc", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			history := &mockHistory{}
			srv, _ := newTestServer(t, readyService(), history)

			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/predictions/recent"+tt.query, nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantN, history.lastN)
			if tt.wantCode == http.StatusOK {
				assert.Equal(t, "[]\n", rec.Body.String())
			}
		})
	}
}

func TestRecent_HistoryError(t *testing.T) {
	srv, _ := newTestServer(t, readyService(), &mockHistory{recentErr: errors.New("down")})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/predictions/recent", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRecent_NotRoutedWithoutHistory(t *testing.T) {
	srv, _ := newTestServer(t, readyService(), nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/predictions/recent", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthzReturns200(t *testing.T) {
	srv, _ := newTestServer(t, readyService(), nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyz(t *testing.T) {
	srv, _ := newTestServer(t, readyService(), nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	notReady := predict.NewService(nil, nil, slog.Default())
	srv, _ = newTestServer(t, notReady, nil)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

type mockReadiness struct{ err error }

func (m mockReadiness) CheckReadiness(context.Context) error { return m.err }

func TestReadyz_ExtraCheckers(t *testing.T) {
	metrics := observability.NewMetricsForTesting()

	srv := httpadapter.NewServer(":0", readyService(), nil, slog.Default(), metrics, mockReadiness{})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	srv = httpadapter.NewServer(":0", readyService(), nil, slog.Default(), metrics,
		mockReadiness{}, mockReadiness{err: errors.New("streaming scorer is not running")})
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, readyService(), nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

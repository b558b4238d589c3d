package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/water-leak-service/internal/domain"
	"github.com/couchcryptid/water-leak-service/internal/observability"
	"github.com/couchcryptid/water-leak-service/internal/predict"
)

// RequestIDHeader carries the per-request ID, echoed if the client sent one.
const RequestIDHeader = "X-Request-ID"

const (
	maxBodyBytes       = 1 << 20
	defaultRecentLimit = 20
	maxRecentLimit     = 100
)

// Predictor handles raw prediction request bodies.
type Predictor interface {
	sharedobs.ReadinessChecker
	Handle(body []byte) predict.Result
}

// History stores recent successful predictions.
type History interface {
	Record(ctx context.Context, rec domain.PredictionRecord) error
	Recent(ctx context.Context, n int) ([]domain.PredictionRecord, error)
}

// Server exposes the prediction endpoint alongside health, readiness, and
// metrics routes.
type Server struct {
	httpServer *http.Server
	predictor  Predictor
	history    History
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewServer creates the HTTP server. history may be nil, in which case
// predictions are not recorded and /predictions/recent is not routed.
// /readyz requires the predictor and every extra checker to be ready.
func NewServer(addr string, predictor Predictor, history History, logger *slog.Logger, metrics *observability.Metrics, extraReady ...sharedobs.ReadinessChecker) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		predictor: predictor,
		history:   history,
		logger:    logger,
		metrics:   metrics,
	}

	mux.HandleFunc("POST /predict", s.handlePredict)
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(readiness(append([]sharedobs.ReadinessChecker{predictor}, extraReady...))))
	mux.Handle("GET /metrics", promhttp.Handler())
	if history != nil {
		mux.HandleFunc("GET /predictions/recent", s.handleRecent)
	}

	return s
}

// readiness is ready when every checker is.
type readiness []sharedobs.ReadinessChecker

func (r readiness) CheckReadiness(ctx context.Context) error {
	for _, c := range r {
		if err := c.CheckReadiness(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := r.Header.Get(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set(RequestIDHeader, requestID)
	logger := s.logger.With("request_id", requestID)

	if ct := r.Header.Get("Content-Type"); !isJSON(ct) {
		s.rejectBody(w, logger, fmt.Errorf("request Content-Type %q is not 'application/json'", ct))
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.rejectBody(w, logger, fmt.Errorf("read request body: %w", err))
		return
	}

	res := s.predictor.Handle(body)
	s.metrics.PredictionDuration.Observe(time.Since(start).Seconds())
	s.metrics.PredictionRequests.WithLabelValues(res.Outcome.String()).Inc()

	switch res.Outcome {
	case predict.OutcomeSuccess:
		s.metrics.LeakProbability.Observe(res.Prediction.LeakProbability)
		logger.Debug("prediction served",
			"leak_probability", res.Prediction.LeakProbability,
			"forecast_demand", res.Prediction.ForecastDemand,
		)
		s.record(r.Context(), logger, requestID, res)
	case predict.OutcomeValidationFailure:
		logger.Info("prediction rejected", "error", res.Err)
	default:
		logger.Error("prediction failed", "error", res.Err)
	}

	writeJSON(w, res.StatusCode(), res.Payload())
}

// rejectBody answers a request whose body was never handed to the predictor
// with an internal failure payload.
func (s *Server) rejectBody(w http.ResponseWriter, logger *slog.Logger, err error) {
	logger.Warn("prediction request rejected", "error", err)
	s.metrics.PredictionRequests.WithLabelValues(predict.OutcomeInternalFailure.String()).Inc()
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error":   err.Error(),
		"message": domain.UnexpectedErrorMessage,
	})
}

// isJSON accepts application/json and application/*+json media types.
func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/json" || (strings.HasPrefix(mt, "application/") && strings.HasSuffix(mt, "+json"))
}

// record stores a successful prediction. Failures are logged and counted but
// never change the response.
func (s *Server) record(ctx context.Context, logger *slog.Logger, requestID string, res predict.Result) {
	if s.history == nil {
		return
	}
	err := s.history.Record(ctx, domain.PredictionRecord{
		RequestID:       requestID,
		Features:        res.Features,
		LeakProbability: res.Prediction.LeakProbability,
		ForecastDemand:  res.Prediction.ForecastDemand,
		CreatedAt:       domain.Clock().Now().UTC(),
	})
	if err != nil {
		logger.Warn("record prediction", "error", err)
		s.metrics.HistoryWrites.WithLabelValues("error").Inc()
		return
	}
	s.metrics.HistoryWrites.WithLabelValues("success").Inc()
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxRecentLimit)
	}

	records, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("read prediction history", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "prediction history unavailable"})
		return
	}
	if records == nil {
		records = []domain.PredictionRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}

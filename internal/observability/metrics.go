package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "water_leak"

// Metrics holds the Prometheus collectors for serving, model resolution and
// the streaming scorer.
type Metrics struct {
	// Prediction serving.
	PredictionRequests *prometheus.CounterVec // labels: outcome={success,validation_failure,internal_failure}
	PredictionDuration prometheus.Histogram
	LeakProbability    prometheus.Histogram

	// Model store.
	ModelResolutions *prometheus.CounterVec // labels: model, action={loaded,created}
	ModelsReady      prometheus.Gauge

	// Streaming scorer.
	MessagesConsumed        prometheus.Counter
	MessagesProduced        prometheus.Counter
	ScoringErrors           prometheus.Counter
	PipelineRunning         prometheus.Gauge
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Prediction history.
	HistoryWrites *prometheus.CounterVec // labels: outcome={success,error}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		PredictionRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prediction_requests_total",
			Help:      "Prediction requests by outcome.",
		}, []string{"outcome"}),
		PredictionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "prediction_duration_seconds",
			Help:      "Time spent validating a request and invoking both models.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		LeakProbability: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "leak_probability",
			Help:      "Distribution of served leak probabilities.",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 9),
		}),
		ModelResolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_resolutions_total",
			Help:      "Model artifact resolutions by model and action.",
		}, []string{"model", "action"}),
		ModelsReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "models_ready",
			Help:      "1 once both model artifacts are resolved.",
		}),
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_consumed_total",
			Help:      "Total feature messages read from the source topic.",
		}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_produced_total",
			Help:      "Total scored events written to the sink topic.",
		}),
		ScoringErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scoring_errors_total",
			Help:      "Total source messages that could not be scored.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the streaming scorer is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of messages per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete extract-score-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		HistoryWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_writes_total",
			Help:      "Prediction history writes by outcome.",
		}, []string{"outcome"}),
	}

	prometheus.MustRegister(
		m.PredictionRequests,
		m.PredictionDuration,
		m.LeakProbability,
		m.ModelResolutions,
		m.ModelsReady,
		m.MessagesConsumed,
		m.MessagesProduced,
		m.ScoringErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.HistoryWrites,
	)

	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		PredictionRequests:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "prediction_requests_total"}, []string{"outcome"}),
		PredictionDuration:      prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "prediction_duration_seconds"}),
		LeakProbability:         prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "leak_probability"}),
		ModelResolutions:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "model_resolutions_total"}, []string{"model", "action"}),
		ModelsReady:             prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "models_ready"}),
		MessagesConsumed:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "messages_consumed_total"}),
		MessagesProduced:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "messages_produced_total"}),
		ScoringErrors:           prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "scoring_errors_total"}),
		PipelineRunning:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "pipeline_running"}),
		BatchSize:               prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "batch_size"}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "batch_processing_duration_seconds"}),
		HistoryWrites:           prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "history_writes_total"}, []string{"outcome"}),
	}
}

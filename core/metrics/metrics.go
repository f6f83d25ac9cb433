// Package metrics exposes the bot's Prometheus collectors and the /metrics server.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/m3rciful/finbot/core/logger"
)

var (
	// Updates counts inbound updates by kind; dropped updates are counted as rate_limited.
	Updates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finbot_updates_total",
			Help: "Total number of inbound updates",
		},
		[]string{"kind"},
	)

	// HandlerDuration observes handler latency by handler name.
	HandlerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "finbot_handler_duration_seconds",
			Help:    "Handler execution duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"handler", "status"},
	)

	// Transitions counts dialogue mode transitions.
	Transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finbot_dialogue_transitions_total",
			Help: "Total number of dialogue mode transitions",
		},
		[]string{"from", "to"},
	)

	// QuizCompleted observes final quiz scores.
	QuizCompleted = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "finbot_quiz_score",
			Help:    "Final score of completed quizzes",
			Buckets: prometheus.LinearBuckets(0, 1, 11),
		},
	)

	// CollaboratorCalls counts quote and news lookups by outcome.
	CollaboratorCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finbot_collaborator_calls_total",
			Help: "Total number of quote/news collaborator calls",
		},
		[]string{"collaborator", "status"}, // status: success|error
	)

	// SendFailures counts outbound Telegram calls that failed after retries.
	SendFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finbot_send_failures_total",
			Help: "Total number of outbound sends that failed",
		},
		[]string{"action", "kind"},
	)

	// Panics counts handler panics turned into errors by the recover middleware.
	Panics = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finbot_handler_panics_total",
			Help: "Total number of recovered handler panics",
		},
		[]string{"kind"},
	)

	// Conversations reports the number of conversation states held in memory.
	Conversations = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "finbot_conversations",
			Help: "Conversation states currently held by the store",
		},
	)
)

func init() {
	prometheus.MustRegister(
		Updates,
		HandlerDuration,
		Transitions,
		QuizCompleted,
		CollaboratorCalls,
		SendFailures,
		Panics,
		Conversations,
	)
}

// Server serves the default Prometheus registry over HTTP.
type Server struct {
	srv *http.Server
}

// NewServer builds a metrics server bound to listen; path defaults to /metrics.
func NewServer(listen, path string) *Server {
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())
	return &Server{
		srv: &http.Server{
			Addr:              listen,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start begins serving in the background.
func (s *Server) Start(ctx context.Context) {
	go func() {
		logger.Info(ctx, "metrics", "metrics.listen", slog.String("listen", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "metrics", "metrics.serve", slog.String("err", err.Error()))
		}
	}()
}

// Shutdown stops the server, waiting up to five seconds for in-flight scrapes.
func (s *Server) Shutdown(ctx context.Context) error {
	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(stopCtx)
}

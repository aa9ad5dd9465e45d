package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/clinic"
	"github.com/hackgods/clinic-scheduling/internal/metrics"
)

type RouterConfig struct {
	Clinic   *clinic.Clinic
	Redis    *redis.Client // optional
	Logger   zerolog.Logger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer // serves /metrics when set
	Env      string
	Version  string
	PageSize int
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(MetricsMiddleware(cfg.Metrics))

	// Health endpoints
	var redisPinger Pinger
	if cfg.Redis != nil {
		redisPinger = PingFunc(func(ctx context.Context) error { return cfg.Redis.Ping(ctx).Err() })
	}
	health := NewHealthHandler(cfg.Clinic.Backend, redisPinger, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	h := NewHandlers(cfg.Clinic, cfg.PageSize)
	r.Group(func(r chi.Router) {
		r.Use(PractitionerAuth(cfg.Clinic.Directory))

		r.Get("/patients", h.listPatients)
		r.Post("/patients", h.createPatient)
		r.Get("/patients/{code}", h.getPatient)

		r.Post("/appointments", h.createAppointment)
		r.Get("/appointments/future", h.futureAppointments)
		r.Get("/appointments/history", h.historyAppointments)
		r.Get("/appointments/upcoming", h.upcomingAppointments)
		r.Post("/appointments/reschedule", h.rescheduleAppointment)
		r.Post("/appointments/cancel", h.cancelAppointment)
	})

	return r
}

package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/angeloszaimis/uptime-monitor/internal/handler"
	"github.com/angeloszaimis/uptime-monitor/internal/metrics"
	"github.com/angeloszaimis/uptime-monitor/pkg/logger"
)

func setupRouter(status *handler.StatusHandler, collector *metrics.Collector, log *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(handler.RequestLogger(logger.Component(log, "http")))

	r.Get("/healthz", status.Health)
	r.Method(http.MethodGet, "/metrics", collector.PrometheusHandler())
	r.Get("/stats", collector.Handler())
	r.Get("/checks/{id}", status.GetCheck)

	r.Route("/logs", func(r chi.Router) {
		r.Get("/", status.ListLogs)
		r.Get("/{id}/archive", status.GetArchive)
	})

	return r
}

package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/user/auction-watch/internal/delivery/http/handler"
	"github.com/user/auction-watch/internal/delivery/http/middleware"
	"github.com/user/auction-watch/pkg/metrics"
)

// New builds the API router. Passes may run for minutes, so only the read
// routes get a request timeout.
func New(h *handler.Handler, m *metrics.Metrics, gatherer prometheus.Gatherer, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Metrics(m))
	r.Use(chimw.Recoverer)

	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(30 * time.Second))
			r.Get("/health", h.HandleHealthCheck)
			r.Get("/records", h.HandleListRecords)
			r.Get("/records/{identity}", h.HandleGetRecord)
			r.Get("/failures", h.HandleListFailures)
		})
		r.Post("/passes", h.HandleRunPass)
	})

	return r
}

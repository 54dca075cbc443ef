package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Handlers groups everything the router serves.
type Handlers struct {
	Prices    *PriceHandler
	Registry  *RegistryHandler
	Snapshots *SnapshotHandler
	Admin     *AdminHandler
	Health    *HealthHandler
	Metrics   http.Handler
}

func NewRouter(h Handlers, log *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))
	r.Use(cors)

	r.Get("/prices/status.json", h.Prices.GetStatus)
	r.Get("/prices/top{limit:[0-9]+}.json", h.Prices.GetTop)
	r.Get("/registry/latest.json", h.Registry.GetLatest)
	r.Get("/registry/resolve/{symbol}.json", h.Registry.Resolve)
	r.Get("/snapshots/prices/top{limit:[0-9]+}/{date}.json", h.Snapshots.Get)

	r.Route("/admin", func(r chi.Router) {
		r.Post("/refresh-prices", h.Admin.RefreshPrices)
		r.Post("/refresh-registry", h.Admin.RefreshRegistry)
		r.Post("/write-snapshot", h.Admin.WriteSnapshot)
	})

	r.Get("/health", h.Health.Check)
	if h.Metrics != nil {
		r.Handle("/metrics", h.Metrics)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found", "")
	})
	return r
}

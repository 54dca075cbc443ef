package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"pricesync/internal/application/usecase"
)

type PriceHandler struct {
	reads  *usecase.ReadUseCase
	limit  int
	logger *slog.Logger
}

// NewPriceHandler serves the price set of size limit; other sizes are 404.
func NewPriceHandler(reads *usecase.ReadUseCase, limit int, logger *slog.Logger) *PriceHandler {
	return &PriceHandler{
		reads:  reads,
		limit:  limit,
		logger: logger,
	}
}

func (h *PriceHandler) GetTop(w http.ResponseWriter, r *http.Request) {
	if !h.knownLimit(chi.URLParam(r, "limit")) {
		writeError(w, http.StatusNotFound, "unknown price set", "")
		return
	}

	blob, err := h.reads.LatestPrices(r.Context())
	if errors.Is(err, usecase.ErrNotYetFetched) {
		writeError(w, http.StatusServiceUnavailable, "price data has not been fetched yet", "not_yet_fetched")
		return
	}
	if err != nil {
		h.logger.Error("failed to read prices", "error", err)
		writeError(w, http.StatusServiceUnavailable, "price data is temporarily unavailable", "cache_unavailable")
		return
	}

	writeJSON(w, http.StatusOK, blob)
}

func (h *PriceHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.reads.Status(r.Context()))
}

func (h *PriceHandler) knownLimit(s string) bool {
	n, err := strconv.Atoi(s)
	return err == nil && n == h.limit
}

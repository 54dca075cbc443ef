package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"pricesync/internal/application/usecase"
)

type RegistryHandler struct {
	reads  *usecase.ReadUseCase
	logger *slog.Logger
}

func NewRegistryHandler(reads *usecase.ReadUseCase, logger *slog.Logger) *RegistryHandler {
	return &RegistryHandler{reads: reads, logger: logger}
}

func (h *RegistryHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	reg, err := h.reads.Registry(r.Context())
	if err != nil {
		h.registryUnavailable(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reg)
}

// Resolve answers which registry entry a symbol most likely refers to.
func (h *RegistryHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is required", "")
		return
	}

	res, err := h.reads.Resolve(r.Context(), symbol)
	if err != nil {
		h.registryUnavailable(w, err)
		return
	}
	if res == nil {
		writeError(w, http.StatusNotFound, "unknown symbol", "")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *RegistryHandler) registryUnavailable(w http.ResponseWriter, err error) {
	if !errors.Is(err, usecase.ErrRegistryUnavailable) {
		h.logger.Error("failed to read registry", "error", err)
	}
	writeError(w, http.StatusServiceUnavailable, "registry is not available yet", "registry_unavailable")
}

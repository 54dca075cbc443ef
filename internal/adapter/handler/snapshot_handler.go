package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"pricesync/internal/application/usecase"
	"pricesync/internal/domain/model"
)

type SnapshotHandler struct {
	reads  *usecase.ReadUseCase
	limit  int
	logger *slog.Logger
}

func NewSnapshotHandler(reads *usecase.ReadUseCase, limit int, logger *slog.Logger) *SnapshotHandler {
	return &SnapshotHandler{reads: reads, limit: limit, logger: logger}
}

func (h *SnapshotHandler) Get(w http.ResponseWriter, r *http.Request) {
	if n, err := strconv.Atoi(chi.URLParam(r, "limit")); err != nil || n != h.limit {
		writeError(w, http.StatusNotFound, "unknown price set", "")
		return
	}

	date := chi.URLParam(r, "date")
	snap, err := h.reads.Snapshot(r.Context(), date)
	switch {
	case errors.Is(err, usecase.ErrInvalidDate):
		writeError(w, http.StatusBadRequest, err.Error(), "invalid_date")
		return
	case errors.Is(err, model.ErrStorageUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error(), "cold_store_unavailable")
		return
	case err != nil:
		h.logger.Error("failed to read snapshot", "date", date, "error", err)
		writeError(w, http.StatusServiceUnavailable, "snapshot is temporarily unavailable", "cold_store_error")
		return
	}

	if snap == nil {
		writeError(w, http.StatusNotFound, "no snapshot for "+date, "")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

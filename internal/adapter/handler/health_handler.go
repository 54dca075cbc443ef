package handler

import (
	"net/http"

	"pricesync/internal/application/usecase"
)

type HealthHandler struct {
	reads *usecase.ReadUseCase
}

func NewHealthHandler(reads *usecase.ReadUseCase) *HealthHandler {
	return &HealthHandler{reads: reads}
}

// Check always answers 200 while the process is up; tier problems are
// reported in the body.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.reads.Health(r.Context()))
}

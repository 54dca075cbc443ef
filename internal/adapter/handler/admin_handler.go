package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"pricesync/internal/concurrency/worker"
	"pricesync/internal/domain/model"
)

// JobSubmitter queues a job without waiting for it.
type JobSubmitter interface {
	Submit(req model.JobRequest) error
}

type AdminHandler struct {
	jobs JobSubmitter
	log  *slog.Logger
}

func NewAdminHandler(jobs JobSubmitter, log *slog.Logger) *AdminHandler {
	return &AdminHandler{jobs: jobs, log: log}
}

type startedBody struct {
	Status string        `json:"status"`
	Job    model.JobName `json:"job"`
	RunID  string        `json:"runId"`
}

func (h *AdminHandler) RefreshPrices(w http.ResponseWriter, r *http.Request) {
	h.start(w, model.JobPriceRefresh)
}

func (h *AdminHandler) RefreshRegistry(w http.ResponseWriter, r *http.Request) {
	h.start(w, model.JobRegistryRefresh)
}

func (h *AdminHandler) WriteSnapshot(w http.ResponseWriter, r *http.Request) {
	h.start(w, model.JobDailySnapshot)
}

func (h *AdminHandler) start(w http.ResponseWriter, job model.JobName) {
	req := model.NewJobRequest(job, model.TriggerManual)

	if err := h.jobs.Submit(req); err != nil {
		h.log.Warn("manual job rejected", "job", job, "error", err)
		reason := "queue_full"
		if errors.Is(err, worker.ErrPoolClosed) {
			reason = "shutting_down"
		}
		writeError(w, http.StatusServiceUnavailable, err.Error(), reason)
		return
	}

	h.log.Info("manual job started", "job", job, "run_id", req.RunID)
	writeJSON(w, http.StatusAccepted, startedBody{Status: "started", Job: job, RunID: req.RunID})
}

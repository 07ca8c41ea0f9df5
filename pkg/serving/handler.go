package serving

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/synaptica-ai/noshow/pkg/common/logger"
)

// Handler exposes the prediction audit log.
type Handler struct {
	repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/predictions/recent", h.handleRecent).Methods(http.MethodGet)
	r.HandleFunc("/appointments/{id}/predictions", h.handleAppointment).Methods(http.MethodGet)
}

func (h *Handler) handleRecent(w http.ResponseWriter, r *http.Request) {
	logs, err := h.repo.Recent(r.Context(), limitParam(r))
	if err != nil {
		logger.Log.WithError(err).Error("failed to load prediction logs")
		http.Error(w, "failed to fetch prediction logs", http.StatusInternalServerError)
		return
	}
	writeJSON(w, logs)
}

func (h *Handler) handleAppointment(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	logs, err := h.repo.ForAppointment(r.Context(), id, limitParam(r))
	if err != nil {
		logger.Log.WithError(err).WithField("appointment_id", id).Error("failed to load prediction logs")
		http.Error(w, "failed to fetch prediction logs", http.StatusInternalServerError)
		return
	}
	writeJSON(w, logs)
}

func limitParam(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 || limit > 500 {
		return 50
	}
	return limit
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.WithError(err).Error("failed to encode response")
	}
}

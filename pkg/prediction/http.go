package prediction

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/synaptica-ai/noshow/pkg/common/logger"
	"github.com/synaptica-ai/noshow/pkg/features"
)

// Runner executes one prediction invocation.
type Runner interface {
	Run(ctx context.Context) Outcome
}

type HTTPHandler struct {
	runner Runner
}

type SchemaResponse struct {
	Version  string   `json:"version"`
	Width    int      `json:"width"`
	Features []string `json:"features"`
}

func NewHTTPHandler(runner Runner) *HTTPHandler {
	return &HTTPHandler{runner: runner}
}

func (h *HTTPHandler) Register(r *mux.Router) {
	r.HandleFunc("/predictions", h.handleRun).Methods(http.MethodPost)
	r.HandleFunc("/schema", h.handleSchema).Methods(http.MethodGet)
}

// handleRun answers 200 for DONE and EMPTY and 500 for ERROR. The body is the
// outcome in every case.
func (h *HTTPHandler) handleRun(w http.ResponseWriter, r *http.Request) {
	out := h.runner.Run(r.Context())

	status := http.StatusOK
	if out.State == StateError {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, out)
}

func (h *HTTPHandler) handleSchema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, SchemaResponse{
		Version:  features.SchemaVersion,
		Width:    features.Width(),
		Features: features.FeatureNames(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.WithError(err).Error("Failed to encode response")
	}
}

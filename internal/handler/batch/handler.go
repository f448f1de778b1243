package batch

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	batchService "github.com/modelmatrix/ava-console/internal/service/batch"
	"github.com/modelmatrix/ava-console/pkg/utils"
)

// Handler serves the batch harness endpoints.
type Handler struct {
	batch *batchService.Service
}

// New creates the batch handler.
func New(batch *batchService.Service) *Handler {
	return &Handler{batch: batch}
}

// RegisterRoutes mounts the batch routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/test-cases", h.handleListTestCases)
	r.Post("/batch-executor", h.handleRunBatch)
	r.Post("/evaluator", h.handleEvaluate)
}

func (h *Handler) handleListTestCases(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.batch.ListCases(r.Context())
	if err != nil {
		utils.RespondError(w, http.StatusBadGateway, err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusOK, catalog)
}

func (h *Handler) handleRunBatch(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Limit       int      `json:"limit"`
		SpecificIDs []string `json:"specific_ids"`
		Model       string   `json:"model"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	run, err := h.batch.Run(r.Context(), batchService.RunOptions{
		IDs:   payload.SpecificIDs,
		Limit: payload.Limit,
		Model: payload.Model,
	})
	if err != nil {
		utils.RespondError(w, http.StatusBadGateway, err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusOK, run)
}

func (h *Handler) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		RunID string `json:"run_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	report, err := h.batch.Evaluate(r.Context(), payload.RunID)
	if err != nil {
		if errors.Is(err, batchService.ErrNoRunID) {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		utils.RespondError(w, http.StatusBadGateway, err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusOK, report)
}

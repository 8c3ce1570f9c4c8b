// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	service "github.com/okian/salto/internal/app"

	"github.com/okian/salto/internal/adapters/repository"
	"github.com/okian/salto/internal/domain/model"
)

// ScoreDependencies defines the interface for score ingestion and lookup.
type ScoreDependencies interface {
	SubmitScore(ctx context.Context, sc model.Score) (model.Score, bool, error)
	CalculateFinalScore(ctx context.Context, performanceID int64, force bool) (model.FinalScore, error)
	ScoresForPerformance(ctx context.Context, performanceID int64) ([]model.Score, *model.FinalScore, error)
}

// ScoresHandler handles judge score submissions and lookups.
type ScoresHandler struct {
	deps ScoreDependencies
}

// NewScoresHandler creates a new scores handler.
func NewScoresHandler(deps ScoreDependencies) *ScoresHandler {
	return &ScoresHandler{deps: deps}
}

// HandlePostScore handles POST /scores requests.
func (h *ScoresHandler) HandlePostScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_score"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	stored, overwrote, err := h.deps.SubmitScore(r.Context(), req.toModel())
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrMissingReference), errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "not_found", err)
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		}
		return
	}
	writeJSON(w, http.StatusAccepted, scoreAckResponse{Status: "accepted", Overwrote: overwrote, Score: stored})
}

// recalculateRequest mirrors the wire schema for POST /scores/recalculate.
type recalculateRequest struct {
	PerformanceID int64 `json:"performance_id"`
	Force         bool  `json:"force"`
}

// HandleRecalculate handles POST /scores/recalculate requests. The
// calculation runs synchronously and returns the stored final score.
func (h *ScoresHandler) HandleRecalculate(w http.ResponseWriter, r *http.Request) {
	const op = "api.recalculate"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req recalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.PerformanceID <= 0 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	fs, err := h.deps.CalculateFinalScore(r.Context(), req.PerformanceID, req.Force)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "not_found", err)
		case errors.Is(err, service.ErrNoScores):
			writeError(w, http.StatusUnprocessableEntity, "no_scores", err)
		case errors.Is(err, repository.ErrAlreadyPublished):
			writeError(w, http.StatusConflict, "already_published", err)
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		}
		return
	}
	writeJSON(w, http.StatusOK, fs)
}

// performanceScoresResponse is the read shape for one performance's scores.
type performanceScoresResponse struct {
	PerformanceID int64             `json:"performance_id"`
	Scores        []model.Score     `json:"scores"`
	FinalScore    *model.FinalScore `json:"final_score,omitempty"`
}

// HandleGetPerformanceScores handles GET /performances/{id}/scores requests.
func (h *ScoresHandler) HandleGetPerformanceScores(w http.ResponseWriter, r *http.Request) {
	const op = "api.performance_scores"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	// Extract path parameters after /performances/
	path := strings.TrimPrefix(r.URL.Path, "/performances/")
	idStr, ok := strings.CutSuffix(path, "/scores")
	if !ok || idStr == "" || strings.Contains(idStr, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	scores, final, err := h.deps.ScoresForPerformance(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, performanceScoresResponse{
		PerformanceID: id,
		Scores:        scores,
		FinalScore:    final,
	})
}

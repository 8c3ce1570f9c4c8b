// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
)

// PublishDependencies defines the interface for publication operations.
type PublishDependencies interface {
	Publish(ctx context.Context, performanceIDs []int64) (int64, error)
	Unpublish(ctx context.Context, performanceIDs []int64) (int64, error)
}

// PublishHandler handles publication state transitions.
type PublishHandler struct {
	deps PublishDependencies
}

// NewPublishHandler creates a new publish handler.
func NewPublishHandler(deps PublishDependencies) *PublishHandler {
	return &PublishHandler{deps: deps}
}

// HandlePublish handles POST /scores/publish requests. Ids without a
// calculated final score are skipped; Updated reports how many rows changed.
func (h *PublishHandler) HandlePublish(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, "api.publish", h.deps.Publish)
}

// HandleUnpublish handles POST /scores/unpublish requests.
func (h *PublishHandler) HandleUnpublish(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, "api.unpublish", h.deps.Unpublish)
}

func (h *PublishHandler) handleTransition(
	w http.ResponseWriter,
	r *http.Request,
	op string,
	apply func(ctx context.Context, ids []int64) (int64, error),
) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req publishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	n, err := apply(r.Context(), req.PerformanceIDs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, publishResponse{Updated: n})
}

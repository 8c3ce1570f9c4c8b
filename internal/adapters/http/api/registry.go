// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/okian/salto/internal/adapters/repository"
	"github.com/okian/salto/internal/domain/model"
)

// RegistryDependencies defines the interface for registration writes.
type RegistryDependencies interface {
	RegisterEvent(ctx context.Context, e model.Event) (model.Event, error)
	RegisterApparatus(ctx context.Context, a model.Apparatus) (model.Apparatus, error)
	RegisterAthlete(ctx context.Context, a model.Athlete) (model.Athlete, error)
	RegisterPerformance(ctx context.Context, p model.Performance) (model.Performance, error)
}

// RegistryHandler handles registration of events, apparatus, athletes, and
// performances. These are boundary concerns feeding the scoring engine.
type RegistryHandler struct {
	deps RegistryDependencies
}

// NewRegistryHandler creates a new registry handler.
func NewRegistryHandler(deps RegistryDependencies) *RegistryHandler {
	return &RegistryHandler{deps: deps}
}

// eventRequest mirrors the wire schema for POST /events.
type eventRequest struct {
	Name      string `json:"name"`
	EventDate string `json:"event_date"`
	Location  string `json:"location"`
	Status    string `json:"status"`
}

func (e eventRequest) validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return errors.New("missing name")
	}
	if e.EventDate != "" {
		if _, err := time.Parse(time.RFC3339, e.EventDate); err != nil {
			return errors.New("invalid event_date; must be RFC3339")
		}
	}
	return nil
}

// HandlePostEvent handles POST /events requests.
func (h *RegistryHandler) HandlePostEvent(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_event"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	ev := model.Event{Name: req.Name, Location: req.Location, Status: model.EventScheduled}
	if req.EventDate != "" {
		ev.EventDate, _ = time.Parse(time.RFC3339, req.EventDate)
	}
	if req.Status != "" {
		ev.Status = model.EventStatus(req.Status)
	}

	stored, err := h.deps.RegisterEvent(r.Context(), ev)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

// apparatusRequest mirrors the wire schema for POST /apparatus.
type apparatusRequest struct {
	Name       string `json:"name"`
	Code       string `json:"code"`
	Discipline string `json:"discipline"`
}

func (a apparatusRequest) validate() error {
	switch {
	case strings.TrimSpace(a.Name) == "":
		return errors.New("missing name")
	case strings.TrimSpace(a.Code) == "":
		return errors.New("missing code")
	}
	return nil
}

// HandlePostApparatus handles POST /apparatus requests.
func (h *RegistryHandler) HandlePostApparatus(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_apparatus"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req apparatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	stored, err := h.deps.RegisterApparatus(r.Context(), model.Apparatus{
		Name:       req.Name,
		Code:       req.Code,
		Discipline: req.Discipline,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

// athleteRequest mirrors the wire schema for POST /athletes.
type athleteRequest struct {
	FirstName          string `json:"first_name"`
	LastName           string `json:"last_name"`
	Country            string `json:"country"`
	Club               string `json:"club"`
	RegistrationNumber string `json:"registration_number"`
}

func (a athleteRequest) validate() error {
	switch {
	case strings.TrimSpace(a.FirstName) == "":
		return errors.New("missing first_name")
	case strings.TrimSpace(a.LastName) == "":
		return errors.New("missing last_name")
	}
	return nil
}

// HandlePostAthlete handles POST /athletes requests.
func (h *RegistryHandler) HandlePostAthlete(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_athlete"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req athleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	stored, err := h.deps.RegisterAthlete(r.Context(), model.Athlete{
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		Country:            req.Country,
		Club:               req.Club,
		RegistrationNumber: req.RegistrationNumber,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

// performanceRequest mirrors the wire schema for POST /performances.
type performanceRequest struct {
	EventID     int64 `json:"event_id"`
	AthleteID   int64 `json:"athlete_id"`
	ApparatusID int64 `json:"apparatus_id"`
	OrderNumber int   `json:"order_number"`
}

func (p performanceRequest) validate() error {
	switch {
	case p.EventID <= 0:
		return errors.New("missing event_id")
	case p.AthleteID <= 0:
		return errors.New("missing athlete_id")
	case p.ApparatusID <= 0:
		return errors.New("missing apparatus_id")
	}
	return nil
}

// HandlePostPerformance handles POST /performances requests. Reposting the
// same (event, athlete, apparatus) triple returns the existing performance.
func (h *RegistryHandler) HandlePostPerformance(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_performance"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req performanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	stored, err := h.deps.RegisterPerformance(r.Context(), model.Performance{
		EventID:     req.EventID,
		AthleteID:   req.AthleteID,
		ApparatusID: req.ApparatusID,
		OrderNumber: req.OrderNumber,
	})
	if err != nil {
		if errors.Is(err, repository.ErrMissingReference) || errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

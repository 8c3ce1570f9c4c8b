// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/salto/internal/domain/model"
	"github.com/okian/salto/internal/domain/points"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Ingestion and calculation.
	SubmitScore(ctx context.Context, sc model.Score) (model.Score, bool, error)
	CalculateFinalScore(ctx context.Context, performanceID int64, force bool) (model.FinalScore, error)
	ScoresForPerformance(ctx context.Context, performanceID int64) ([]model.Score, *model.FinalScore, error)

	// Publication.
	Publish(ctx context.Context, performanceIDs []int64) (int64, error)
	Unpublish(ctx context.Context, performanceIDs []int64) (int64, error)

	// Read side.
	Leaderboard(ctx context.Context, eventID int64, apparatusID *int64, limit int) ([]model.LeaderboardEntry, error)

	// Registration.
	RegisterEvent(ctx context.Context, e model.Event) (model.Event, error)
	RegisterApparatus(ctx context.Context, a model.Apparatus) (model.Apparatus, error)
	RegisterAthlete(ctx context.Context, a model.Athlete) (model.Athlete, error)
	RegisterPerformance(ctx context.Context, p model.Performance) (model.Performance, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	scoresHandler      *ScoresHandler
	publishHandler     *PublishHandler
	leaderboardHandler *LeaderboardHandler
	registryHandler    *RegistryHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxLeaderboardLimit int) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		scoresHandler:      NewScoresHandler(deps),
		publishHandler:     NewPublishHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLeaderboardLimit),
		registryHandler:    NewRegistryHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/scores/recalculate", MetricsMiddleware(s.scoresHandler.HandleRecalculate, "recalculate"))
	mux.HandleFunc("/scores/publish", MetricsMiddleware(s.publishHandler.HandlePublish, "publish"))
	mux.HandleFunc("/scores/unpublish", MetricsMiddleware(s.publishHandler.HandleUnpublish, "unpublish"))
	mux.HandleFunc("/scores", MetricsMiddleware(s.scoresHandler.HandlePostScore, "scores"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/performances/", MetricsMiddleware(s.scoresHandler.HandleGetPerformanceScores, "performance_scores"))
	mux.HandleFunc("/performances", MetricsMiddleware(s.registryHandler.HandlePostPerformance, "performances"))
	mux.HandleFunc("/events", MetricsMiddleware(s.registryHandler.HandlePostEvent, "events"))
	mux.HandleFunc("/apparatus", MetricsMiddleware(s.registryHandler.HandlePostApparatus, "apparatus"))
	mux.HandleFunc("/athletes", MetricsMiddleware(s.registryHandler.HandlePostAthlete, "athletes"))
}

// scoreRequest mirrors the wire schema for POST /scores.
type scoreRequest struct {
	PerformanceID int64            `json:"performance_id"`
	JudgeID       int64            `json:"judge_id"`
	ScoreType     string           `json:"score_type"`
	Value         points.P         `json:"score_value"`
	Penalties     []penaltyRequest `json:"penalties"`
	Comments      string           `json:"comments"`
}

type penaltyRequest struct {
	Name  string   `json:"name"`
	Value points.P `json:"value"`
}

func (s scoreRequest) validate() error {
	switch {
	case s.PerformanceID <= 0:
		return errors.New("missing performance_id")
	case s.JudgeID <= 0:
		return errors.New("missing judge_id")
	case !model.ScoreType(s.ScoreType).Valid():
		return errors.New("score_type must be d_score or e_score")
	case s.Value.Neg():
		return errors.New("score_value must not be negative")
	}
	for _, p := range s.Penalties {
		if strings.TrimSpace(p.Name) == "" {
			return errors.New("penalty name must not be empty")
		}
		if p.Value.Neg() {
			return errors.New("penalty value must not be negative")
		}
	}
	return nil
}

func (s scoreRequest) toModel() model.Score {
	sc := model.Score{
		PerformanceID: s.PerformanceID,
		JudgeID:       s.JudgeID,
		ScoreType:     model.ScoreType(s.ScoreType),
		Value:         s.Value,
		Comments:      s.Comments,
	}
	for _, p := range s.Penalties {
		sc.Penalties = append(sc.Penalties, model.Penalty{Name: p.Name, Value: p.Value})
	}
	return sc
}

type scoreAckResponse struct {
	Status    string      `json:"status"`
	Overwrote bool        `json:"overwrote"`
	Score     model.Score `json:"score"`
}

type publishRequest struct {
	PerformanceIDs []int64 `json:"performance_ids"`
}

func (p publishRequest) validate() error {
	if len(p.PerformanceIDs) == 0 {
		return errors.New("missing performance_ids")
	}
	for _, id := range p.PerformanceIDs {
		if id <= 0 {
			return errors.New("performance_ids must be positive")
		}
	}
	return nil
}

type publishResponse struct {
	Updated int64 `json:"updated"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// Package repository defines the storage port consumed by the scoring engine,
// together with its in-memory and SQLite implementations.
package repository

import (
	"context"
	"time"

	"github.com/okian/salto/internal/domain/model"
)

// Row is one unranked leaderboard join row: a performance with its athlete and
// apparatus identity and, when calculated, its final score. Ordering and rank
// assignment happen in the projector, not the store.
type Row struct {
	Performance model.Performance
	Athlete     model.Athlete
	Apparatus   model.Apparatus
	Final       *model.FinalScore
}

// Store provides durable access to competition state.
//
// Write-path invariants every implementation must hold:
//   - UpsertScore is idempotent on (performance, judge, score_type); the last
//     write wins.
//   - ScoresForPerformance returns one internally consistent snapshot, ordered
//     by score_type, then submission time, then judge id.
//   - UpsertFinalScore is a single atomic insert-or-replace per performance.
//     When the stored row is official and force is false it fails with
//     ErrAlreadyPublished and leaves the row untouched. A forced replace
//     updates the calculated fields only; is_official and published_at are
//     owned by Publish/Unpublish.
type Store interface {
	// Registration writes, consumed by the boundary layer.
	PutEvent(ctx context.Context, e model.Event) (model.Event, error)
	PutApparatus(ctx context.Context, a model.Apparatus) (model.Apparatus, error)
	PutAthlete(ctx context.Context, a model.Athlete) (model.Athlete, error)
	// PutPerformance upserts by the (event, athlete, apparatus) natural key.
	PutPerformance(ctx context.Context, p model.Performance) (model.Performance, error)

	PerformanceFor(ctx context.Context, id int64) (model.Performance, error)
	ApparatusFor(ctx context.Context, id int64) (model.Apparatus, error)

	// UpsertScore writes a judge submission. The returned bool reports whether
	// an existing submission was overwritten.
	UpsertScore(ctx context.Context, s model.Score) (model.Score, bool, error)
	ScoresForPerformance(ctx context.Context, performanceID int64) ([]model.Score, error)

	UpsertFinalScore(ctx context.Context, fs model.FinalScore, force bool) (model.FinalScore, error)
	FinalScoreFor(ctx context.Context, performanceID int64) (model.FinalScore, error)

	// Publish marks existing final scores official; ids without a final score
	// are silently skipped. Returns the number of rows affected.
	Publish(ctx context.Context, performanceIDs []int64, at time.Time) (int64, error)
	// Unpublish reopens published final scores for recalculation.
	Unpublish(ctx context.Context, performanceIDs []int64) (int64, error)

	// LeaderboardRows returns every performance of the event, optionally
	// filtered to one apparatus, joined with its final score if any.
	LeaderboardRows(ctx context.Context, eventID int64, apparatusID *int64) ([]Row, error)

	// CountPerformances returns the number of tracked performances.
	CountPerformances(ctx context.Context) int

	Close() error
}

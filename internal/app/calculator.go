package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/salto/internal/adapters/notify"
	"github.com/okian/salto/internal/adapters/repository"
	"github.com/okian/salto/internal/domain/aggregate"
	"github.com/okian/salto/internal/domain/model"
	"github.com/okian/salto/internal/domain/points"
	"github.com/okian/salto/pkg/logger"
	"github.com/okian/salto/pkg/metrics"
)

// CalculateFinalScore turns a performance's current judge submissions into
// its stored final score and returns the persisted row.
//
// D-panel values are raw difficulty scores and average directly. E-panel
// values are deduction amounts: the aggregated average deduction is taken off
// a 10.000 execution base, floored at zero. A panel with no submissions of a
// type contributes zero for that component. Neutral deductions sum every
// penalty attached to any submission, across both panels.
//
// When the stored final score is already official and force is false, nothing
// is written and ErrAlreadyPublished is returned. The previous row is never
// partially updated.
func (s *Service) CalculateFinalScore(ctx context.Context, performanceID int64, force bool) (model.FinalScore, error) {
	start := time.Now()
	defer func() {
		metrics.RecordCalculationLatency(float64(time.Since(start).Milliseconds()))
	}()

	perf, err := s.store.PerformanceFor(ctx, performanceID)
	if err != nil {
		metrics.RecordCalculationError()
		return model.FinalScore{}, fmt.Errorf("load performance %d: %w", performanceID, err)
	}

	scores, err := s.store.ScoresForPerformance(ctx, performanceID)
	if err != nil {
		metrics.RecordCalculationError()
		return model.FinalScore{}, fmt.Errorf("load scores for performance %d: %w", performanceID, err)
	}
	if len(scores) == 0 {
		return model.FinalScore{}, fmt.Errorf("performance %d: %w", performanceID, ErrNoScores)
	}

	var dValues, eValues []points.P
	var neutral points.P
	for _, sc := range scores {
		switch sc.ScoreType {
		case model.DScore:
			dValues = append(dValues, sc.Value)
		case model.EScore:
			eValues = append(eValues, sc.Value)
		}
		for _, p := range sc.Penalties {
			neutral = neutral.Add(p.Value)
		}
	}

	policy := s.policyFor(ctx, perf.ApparatusID)
	if policy.PanelSize > 0 && len(eValues) > 0 && len(eValues) != policy.PanelSize {
		s.logger.Debug(ctx, "execution panel differs from declared size",
			logger.Int64("performance_id", performanceID),
			logger.Int("declared", policy.PanelSize),
			logger.Int("observed", len(eValues)),
		)
	}

	// The drop rule applies to execution deductions only. Difficulty values
	// average directly regardless of panel size.
	dScore := points.Mean(dValues)
	eResult := aggregate.AggregateWithPolicy(eValues, policy)
	var eScore points.P
	if len(eValues) > 0 {
		eScore = points.PerfectExecution.Sub(eResult.Average)
		if eScore.Neg() {
			eScore = points.Zero
		}
	}

	fs := model.FinalScore{
		PerformanceID:     performanceID,
		DScore:            dScore,
		EScore:            eScore,
		NeutralDeductions: neutral,
		FinalValue:        dScore.Add(eScore).Sub(neutral),
		EScoresDetail: model.EScoreDetail{
			Scores:         eResult.Scores,
			DroppedHigh:    eResult.DroppedHigh,
			DroppedLow:     eResult.DroppedLow,
			AveragedScores: eResult.AveragedScores,
			Average:        eResult.Average,
		},
		CalculationMethod: model.CalculationMethodDropHighLow,
		CalculatedAt:      time.Now().UTC(),
	}

	stored, err := s.store.UpsertFinalScore(ctx, fs, force)
	if err != nil {
		if !errors.Is(err, repository.ErrAlreadyPublished) {
			metrics.RecordCalculationError()
		}
		return model.FinalScore{}, fmt.Errorf("store final score for performance %d: %w", performanceID, err)
	}

	metrics.RecordCalculation()

	v := stored.FinalValue
	s.notifier.Notify(ctx, notify.NewChange(notify.KindScoreChanged, performanceID, perf.ApparatusID, perf.EventID, &v))

	return stored, nil
}

// policyFor resolves the aggregation policy from the apparatus rules,
// falling back to the default when the apparatus or its rule is unknown.
func (s *Service) policyFor(ctx context.Context, apparatusID int64) aggregate.Policy {
	app, err := s.store.ApparatusFor(ctx, apparatusID)
	if err != nil {
		s.logger.Debug(ctx, "apparatus lookup failed, using default policy",
			logger.Int64("apparatus_id", apparatusID),
		)
		return aggregate.DefaultPolicy()
	}
	policy, _ := s.rules.PolicyFor(app.Code)
	return policy
}

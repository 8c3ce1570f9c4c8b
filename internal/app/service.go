// Package service provides the core scoring service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	jobqueue "github.com/okian/salto/internal/adapters/mq/queue"
	workerpool "github.com/okian/salto/internal/adapters/mq/worker"
	"github.com/okian/salto/internal/adapters/notify"
	"github.com/okian/salto/internal/adapters/repository"
	"github.com/okian/salto/internal/domain/coalesce"
	"github.com/okian/salto/internal/domain/model"
	"github.com/okian/salto/internal/domain/rules"
	"github.com/okian/salto/pkg/logger"
	"github.com/okian/salto/pkg/metrics"
)

// Service implements the scoring engine behind the HTTP API: score ingestion,
// asynchronous recalculation, publication, and the leaderboard projection.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     repository.Store
	coalescer coalesce.Coalescer
	jobQueue  *jobqueue.InMemoryQueue
	pool      *workerpool.Pool
	notifier  notify.Notifier
	rules     rules.Provider

	// Configuration
	workerCount  int
	queueSize    int
	coalesceSize int

	// State
	started bool

	// Logging
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:  runtime.NumCPU() * 2,
		queueSize:    100000,
		coalesceSize: 50000,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting scoring service...")

	if s.store == nil {
		s.store = repository.NewMemStore()
		s.logger.Info(ctx, "using in-memory store")
	}
	if s.notifier == nil {
		s.notifier = notify.NewLogNotifier(s.logger)
	}
	if s.rules == nil {
		s.rules = rules.NewStaticProvider(nil)
	}

	s.coalescer = coalesce.NewInMemoryCoalescer(
		coalesce.WithMaxSize(s.coalesceSize),
	)
	s.jobQueue = jobqueue.NewInMemoryQueue(
		jobqueue.WithCapacity(s.queueSize),
	)

	s.pool = workerpool.NewPool(s.workerCount, s.jobQueue, s, s.coalescer)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "scoring service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("coalesceSize", s.coalesceSize),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping scoring service...")

	if s.jobQueue != nil {
		_ = s.jobQueue.Close()
	}
	if s.pool != nil {
		s.pool.Stop()
	}
	if s.store != nil {
		_ = s.store.Close()
	}

	s.started = false
	s.logger.Info(ctx, "scoring service stopped")
}

// SubmitScore upserts one judge submission and schedules a recalculation of
// the performance's final score. The returned bool reports whether the judge
// overwrote an earlier submission of the same type.
func (s *Service) SubmitScore(ctx context.Context, sc model.Score) (model.Score, bool, error) {
	sc.SubmittedAt = time.Now().UTC()

	stored, overwrote, err := s.store.UpsertScore(ctx, sc)
	if err != nil {
		return model.Score{}, false, fmt.Errorf("upsert score: %w", err)
	}

	metrics.RecordScoreSubmitted()
	if overwrote {
		metrics.RecordScoreResubmission()
	}

	s.scheduleRecalculation(ctx, stored.PerformanceID)

	return stored, overwrote, nil
}

// scheduleRecalculation enqueues one recalculation job for the performance
// unless a job is already pending.
func (s *Service) scheduleRecalculation(ctx context.Context, performanceID int64) {
	if s.coalescer.MarkPending(ctx, performanceID) {
		// A queued job will pick up this submission's score too.
		return
	}

	if !s.jobQueue.Enqueue(ctx, jobqueue.Job{PerformanceID: performanceID}) {
		s.coalescer.Clear(ctx, performanceID)
		s.logger.Warn(ctx, "recalculation queue full, dropping job",
			logger.Int64("performance_id", performanceID),
		)
	}
}

// ScoresForPerformance returns the live judge submissions for a performance
// together with its final score, when one has been calculated.
func (s *Service) ScoresForPerformance(ctx context.Context, performanceID int64) ([]model.Score, *model.FinalScore, error) {
	if _, err := s.store.PerformanceFor(ctx, performanceID); err != nil {
		return nil, nil, err
	}

	scores, err := s.store.ScoresForPerformance(ctx, performanceID)
	if err != nil {
		return nil, nil, err
	}

	final, err := s.store.FinalScoreFor(ctx, performanceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return scores, nil, nil
		}
		return nil, nil, err
	}
	return scores, &final, nil
}

// Publish marks the final scores of the given performances official. Ids
// without a calculated final score are silently skipped.
func (s *Service) Publish(ctx context.Context, performanceIDs []int64) (int64, error) {
	now := time.Now().UTC()
	n, err := s.store.Publish(ctx, performanceIDs, now)
	if err != nil {
		return 0, fmt.Errorf("publish: %w", err)
	}
	metrics.RecordPublished(int(n))

	s.notifyTransition(ctx, notify.KindPublished, performanceIDs)
	return n, nil
}

// Unpublish reopens published final scores for recalculation.
func (s *Service) Unpublish(ctx context.Context, performanceIDs []int64) (int64, error) {
	n, err := s.store.Unpublish(ctx, performanceIDs)
	if err != nil {
		return 0, fmt.Errorf("unpublish: %w", err)
	}
	metrics.RecordUnpublished(int(n))

	s.notifyTransition(ctx, notify.KindUnpublished, performanceIDs)
	return n, nil
}

// notifyTransition emits one change per performance that actually has a final
// score. Skipped ids in a bulk publish produce no signal.
func (s *Service) notifyTransition(ctx context.Context, kind notify.Kind, performanceIDs []int64) {
	for _, id := range performanceIDs {
		final, err := s.store.FinalScoreFor(ctx, id)
		if err != nil {
			continue
		}
		perf, err := s.store.PerformanceFor(ctx, id)
		if err != nil {
			continue
		}
		v := final.FinalValue
		s.notifier.Notify(ctx, notify.NewChange(kind, id, perf.ApparatusID, perf.EventID, &v))
	}
}

// RegisterEvent stores a competition event.
func (s *Service) RegisterEvent(ctx context.Context, e model.Event) (model.Event, error) {
	return s.store.PutEvent(ctx, e)
}

// RegisterApparatus stores an apparatus.
func (s *Service) RegisterApparatus(ctx context.Context, a model.Apparatus) (model.Apparatus, error) {
	return s.store.PutApparatus(ctx, a)
}

// RegisterAthlete stores an athlete.
func (s *Service) RegisterAthlete(ctx context.Context, a model.Athlete) (model.Athlete, error) {
	return s.store.PutAthlete(ctx, a)
}

// RegisterPerformance stores a performance, upserting by its natural key.
func (s *Service) RegisterPerformance(ctx context.Context, p model.Performance) (model.Performance, error) {
	return s.store.PutPerformance(ctx, p)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":      s.started,
		"workerCount":  s.workerCount,
		"queueSize":    s.queueSize,
		"coalesceSize": s.coalesceSize,
	}

	if s.started {
		queueLen := s.jobQueue.Len(ctx)
		totalPerformances := s.store.CountPerformances(ctx)

		stats["queueLength"] = queueLen
		stats["pendingRecalculations"] = s.coalescer.Size()
		stats["totalPerformances"] = totalPerformances

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateTotalPerformances(totalPerformances)
		metrics.UpdateWorkerCount(s.workerCount)
	}

	return stats
}

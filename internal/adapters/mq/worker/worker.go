// Package worker defines the worker pool that recalculates final scores
// asynchronously as judge scores arrive.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/salto/internal/adapters/mq/queue"
	"github.com/okian/salto/internal/adapters/repository"
	"github.com/okian/salto/internal/domain/model"
	"github.com/okian/salto/pkg/logger"
	"github.com/okian/salto/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 4 // multiplier for runtime.NumCPU()
	workerShutdownTimeout   = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// Calculator computes and stores a performance's final score.
type Calculator interface {
	CalculateFinalScore(ctx context.Context, performanceID int64, force bool) (model.FinalScore, error)
}

// Coalescer tracks pending recalculations so repeated submissions for the
// same performance collapse into one queued job.
type Coalescer interface {
	Clear(ctx context.Context, performanceID int64)
}

// Queue defines how workers receive recalculation jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes recalculation jobs until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing recalculation jobs.
type InMemoryWorker struct {
	queue      Queue
	calculator Calculator
	coalescer  Coalescer
	name       string

	// Shutdown control
	shutdown chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, calc Calculator, co Coalescer, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:      q,
		calculator: calc,
		coalescer:  co,
		name:       "worker",
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer func() {
		close(w.done)
	}()

	jobChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobChan:
			if !ok {
				// Channel closed, worker should stop
				return
			}

			if err := w.processJob(ctx, job); err != nil {
				w.logger.Error(ctx, "error processing recalculation job", logger.Error(err))
			}
		}
	}
}

// stop signals the worker loop to exit. Safe to call more than once.
func (w *InMemoryWorker) stop() {
	w.stopOnce.Do(func() {
		close(w.shutdown)
	})
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.stop()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processJob recalculates one performance's final score.
func (w *InMemoryWorker) processJob(ctx context.Context, job queue.Job) error {
	// Clear the pending mark up front so submissions arriving during the
	// calculation trigger a fresh job rather than being swallowed.
	if w.coalescer != nil {
		w.coalescer.Clear(ctx, job.PerformanceID)
	}

	start := time.Now()
	defer func() {
		latency := time.Since(start).Milliseconds()
		metrics.RecordWorkerProcessingLatency(float64(latency))
	}()

	_, err := w.calculator.CalculateFinalScore(ctx, job.PerformanceID, false)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyPublished) {
			// The score went official between submission and pickup. The
			// stored result stands until an explicit override.
			w.logger.Warn(ctx, "skipping recalculation of official score",
				logger.Int64("performance_id", job.PerformanceID),
			)
			return nil
		}
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "calculation_error")
		metrics.RecordErrorByType("calculation_error", "high")
		w.logger.Error(ctx, "recalculation failed",
			logger.Int64("performance_id", job.PerformanceID),
			logger.Error(err),
		)
		return fmt.Errorf("recalculate performance %d: %w", job.PerformanceID, err)
	}

	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	// Shutdown control
	shutdown chan struct{}

	// Logging
	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, q Queue, calc Calculator, co Coalescer) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    q,
		shutdown: make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(
			q,
			calc,
			co,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(workerCount)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Stop gracefully stops all workers.
func (p *Pool) Stop() {
	close(p.shutdown)

	for _, w := range p.workers {
		w.stop()
		select {
		case <-w.done:
		case <-time.After(workerShutdownTimeout):
		}
	}
}

// Shutdown gracefully shuts down the entire worker pool.
func (p *Pool) Shutdown(ctx context.Context) error {
	// First close the queue to stop new jobs
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		w.stop()
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	metrics.UpdateWorkerActiveCount(0)

	return nil
}

package service

import (
	"github.com/okian/salto/internal/adapters/notify"
	"github.com/okian/salto/internal/adapters/repository"
	"github.com/okian/salto/internal/domain/rules"
	"github.com/okian/salto/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the backing store. Defaults to the in-memory store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithNotifier sets the change notifier. Defaults to log output.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithRulesProvider sets the apparatus scoring rules source.
func WithRulesProvider(p rules.Provider) Option {
	return func(s *Service) {
		if p != nil {
			s.rules = p
		}
	}
}

// WithWorkerCount sets the number of recalculation workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the recalculation queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithCoalesceSize bounds the pending-recalculation set.
func WithCoalesceSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.coalesceSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

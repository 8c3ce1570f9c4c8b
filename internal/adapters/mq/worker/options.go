package worker

// Option configures a worker.
type Option func(*InMemoryWorker)

// WithName sets the worker's name used in log output.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

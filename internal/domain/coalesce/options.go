package coalesce

// Option applies a configuration option to the in-memory coalescer.
type Option func(*inMemoryCoalescer)

// WithMaxSize bounds the pending set. Zero or negative means unbounded.
func WithMaxSize(size int) Option {
	return func(c *inMemoryCoalescer) {
		c.maxSize = size
	}
}

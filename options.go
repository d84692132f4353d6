package periq

import (
	"runtime"

	"github.com/periq/periq/aabb"
)

type options struct {
	logger         *Logger
	leafBucketSize int
	parallel       bool
	maxProcs       int
}

// Option configures query construction and driver behavior.
type Option func(*options)

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLeafBucketSize configures the maximum number of points per AABB tree
// leaf. Values < 1 fall back to the default.
func WithLeafBucketSize(n int) Option {
	return func(o *options) {
		o.leafBucketSize = n
	}
}

// WithParallel enables or disables parallel fan-out over query points in
// the driver functions and in materialization. Enabled by default.
func WithParallel(parallel bool) Option {
	return func(o *options) {
		o.parallel = parallel
	}
}

// WithMaxProcs bounds the number of worker goroutines used by parallel
// iteration. Defaults to GOMAXPROCS.
func WithMaxProcs(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxProcs = n
		}
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger:         NoopLogger(),
		leafBucketSize: aabb.DefaultLeafSize,
		parallel:       true,
		maxProcs:       runtime.GOMAXPROCS(0),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

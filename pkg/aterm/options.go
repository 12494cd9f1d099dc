package aterm

// options.go defines the functional options accepted by NewPool.  All fields
// are immutable once the pool is constructed; live reconfiguration would
// complicate the collector's correctness argument for no practical gain.

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures a Pool.
type Option func(*config)

type config struct {
	logger   *zap.Logger
	registry *prometheus.Registry

	// growthFactor scales the collection threshold: a collection is requested
	// once the node count exceeds last-live x growthFactor.
	growthFactor float64

	// collectThreshold is the floor below which no collection is requested.
	collectThreshold int

	segmentSize int
}

func defaultConfig() config {
	return config{
		logger:           zap.NewNop(),
		growthFactor:     2.0,
		collectThreshold: 1 << 14,
	}
}

// WithLogger plugs an external zap.Logger.  The pool never logs on the hot
// path; only collection runs and pool lifecycle events are emitted.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics enables Prometheus metrics for the pool.  Passing nil disables
// metrics (default).
func WithMetrics(reg *prometheus.Registry) Option {
	return func(c *config) {
		c.registry = reg
	}
}

// WithGrowthFactor overrides the collection trigger factor.  Must be > 1.
func WithGrowthFactor(f float64) Option {
	return func(c *config) {
		c.growthFactor = f
	}
}

// WithCollectThreshold overrides the minimum node count before the first
// collection is considered.
func WithCollectThreshold(n int) Option {
	return func(c *config) {
		c.collectThreshold = n
	}
}

// WithSegmentSize overrides the arena segment size.  Intended for tests that
// exercise segment growth; must be > 0.
func WithSegmentSize(n int) Option {
	return func(c *config) {
		c.segmentSize = n
	}
}

var (
	errInvalidGrowth    = errors.New("aterm: growth factor must be > 1")
	errInvalidThreshold = errors.New("aterm: collect threshold must be > 0")
)

func (c *config) validate() error {
	if c.growthFactor <= 1 {
		return errInvalidGrowth
	}
	if c.collectThreshold <= 0 {
		return errInvalidThreshold
	}
	return nil
}

package dictionary

import (
	"github.com/aleksaelezovic/hexagraph/pkg/store"
	"github.com/sirupsen/logrus"
)

type options struct {
	cacheSize int64
	logger    logrus.FieldLogger
	metrics   *store.Metrics
}

// Option configures a Dictionary.
type Option func(*options)

// WithCacheSize bounds the in-memory entry cache in bytes. Zero disables it.
func WithCacheSize(bytes int64) Option {
	return func(o *options) {
		o.cacheSize = bytes
	}
}

// WithLogger sets the logger. Nil keeps the default, which discards output.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics reports identifier assignments to m.
func WithMetrics(m *store.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

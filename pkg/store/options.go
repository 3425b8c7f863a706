package store

import (
	"io"

	"github.com/sirupsen/logrus"
)

type options struct {
	logger  logrus.FieldLogger
	metrics *Metrics
}

// Option configures a QuadStore
type Option func(*options)

// WithLogger sets the logger. Nil keeps the default, which discards output.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics reports mutations and operation durations to m
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

func discardLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

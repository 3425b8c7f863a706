package hexagraph

import (
	"github.com/aleksaelezovic/hexagraph/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

type options struct {
	create     bool
	maxSize    int64
	cacheSize  int64
	syncWrites bool
	inMemory   bool
	logger     logrus.FieldLogger
	registerer prometheus.Registerer
}

func defaultOptions() options {
	return options{
		create:    true,
		maxSize:   config.DefaultMaxSize,
		cacheSize: config.DefaultCacheSize,
	}
}

// Option configures Open
type Option func(*options)

// WithCreate controls whether Open creates a missing store. Defaults to true.
func WithCreate(create bool) Option {
	return func(o *options) {
		o.create = create
	}
}

// WithMaxSize sets the storage capacity ceiling in bytes. Writes that would
// grow the store past it fail with store.ErrCapacityExceeded. Zero disables
// the ceiling.
func WithMaxSize(bytes int64) Option {
	return func(o *options) {
		o.maxSize = bytes
	}
}

// WithCacheSize bounds the dictionary cache in bytes. Zero disables it.
func WithCacheSize(bytes int64) Option {
	return func(o *options) {
		o.cacheSize = bytes
	}
}

// WithSyncWrites fsyncs every commit
func WithSyncWrites(sync bool) Option {
	return func(o *options) {
		o.syncWrites = sync
	}
}

// WithInMemory keeps the store in memory; the path is ignored
func WithInMemory() Option {
	return func(o *options) {
		o.inMemory = true
	}
}

// WithLogger sets the logger used by every layer
func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRegisterer registers the store metrics with reg
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

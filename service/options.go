package service

import (
	"time"

	"github.com/kochabx/eplq/log"
	"github.com/kochabx/eplq/metrics"
	"github.com/kochabx/eplq/store"
)

const (
	// DefaultMaxResults applies when a query passes maxResults <= 0
	DefaultMaxResults = 50
	// logCellPrecision is the index length of the query center kept in the query log
	logCellPrecision = 3
	// predicateHashLabel derives the key of keyed predicate hashes
	predicateHashLabel = "eplq/predicate-hash/v1"
)

// Option configures a Service
type Option func(*Service)

// WithQueryLog sends an entry to sink after every query
func WithQueryLog(sink store.QueryLogSink) Option {
	return func(s *Service) {
		s.queryLog = sink
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithMaxCandidates caps every candidate fetch, store.DefaultLimit by default
func WithMaxCandidates(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxCandidates = n
		}
	}
}

// WithMaxResults sets the cap used when a query passes no maxResults
func WithMaxResults(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxResults = n
		}
	}
}

// WithCategoryPrefilter publishes categories next to sealed points and
// lets the store filter on them by exact match. Substring matches that
// differ from the stored category are then missed.
func WithCategoryPrefilter(enabled bool) Option {
	return func(s *Service) {
		s.categoryPrefilter = enabled
	}
}

// WithPublishCategory stores categories in clear without filtering on them
func WithPublishCategory(enabled bool) Option {
	return func(s *Service) {
		s.publishCategory = enabled
	}
}

// WithSpatialPrefilter restricts fetches to the cells around the query center
func WithSpatialPrefilter(enabled bool) Option {
	return func(s *Service) {
		s.spatialPrefilter = enabled
	}
}

// WithParallelism decrypts candidates on a pool of n workers
func WithParallelism(n int) Option {
	return func(s *Service) {
		s.parallelism = n
	}
}

// WithPrecision sets the spatial index length of inserted points
func WithPrecision(chars int) Option {
	return func(s *Service) {
		if chars > 0 {
			s.precision = chars
		}
	}
}

// WithKeyedPredicateHash fingerprints points with an HMAC keyed from the
// key manager instead of plain SHA-256.
func WithKeyedPredicateHash(enabled bool) Option {
	return func(s *Service) {
		s.keyedHash = enabled
	}
}

// WithImportConcurrency bounds the encryption fan-out of ImportPoints
func WithImportConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.importConcurrency = n
		}
	}
}

// WithQueryLogTimeout bounds each asynchronous query log write
func WithQueryLogTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.logTimeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Package service runs range queries end to end: it seals the predicate,
// fetches candidates from a PointStore, evaluates them and records the
// query in an optional log.
package service

import (
	"context"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kochabx/eplq/core/crypto/digest"
	"github.com/kochabx/eplq/core/crypto/geocrypt"
	"github.com/kochabx/eplq/core/evaluator"
	"github.com/kochabx/eplq/core/geo"
	"github.com/kochabx/eplq/core/poi"
	"github.com/kochabx/eplq/errors"
	"github.com/kochabx/eplq/log"
	"github.com/kochabx/eplq/metrics"
	"github.com/kochabx/eplq/store"
)

// Service owns the ciphers and evaluator built over one KeyManager.
// Initialize must complete before any other call.
type Service struct {
	keys      *geocrypt.KeyManager
	points    *geocrypt.PointCipher
	queries   *geocrypt.QueryCipher
	evaluator *evaluator.Evaluator
	store     store.PointStore
	queryLog  store.QueryLogSink
	metrics   *metrics.Metrics
	logger    *log.Logger

	maxCandidates     int
	maxResults        int
	categoryPrefilter bool
	publishCategory   bool
	spatialPrefilter  bool
	parallelism       int
	precision         int
	keyedHash         bool
	importConcurrency int
	logTimeout        time.Duration
	now               func() time.Time

	pending sync.WaitGroup
}

// New builds a Service over keys and points. keys may still be uninitialized.
func New(keys *geocrypt.KeyManager, points store.PointStore, opts ...Option) (*Service, error) {
	const op = "service.New"

	if keys == nil || points == nil {
		return nil, errors.InvalidArgument(op, "key manager and point store are required")
	}

	s := &Service{
		keys:              keys,
		store:             points,
		maxCandidates:     store.DefaultLimit,
		maxResults:        DefaultMaxResults,
		precision:         geo.DefaultPrecision,
		importConcurrency: runtime.GOMAXPROCS(0),
		logTimeout:        5 * time.Second,
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.G.Component("service")
	}

	s.points = s.pointCipher(digest.SHA256)
	s.queries = geocrypt.NewQueryCipher(keys, s.now)

	ev, err := evaluator.New(s.points, s.queries,
		evaluator.WithParallelism(s.parallelism),
		evaluator.WithLogger(s.logger.Component("evaluator")),
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.KindInitialization, op, "failed to create evaluator")
	}
	s.evaluator = ev
	return s, nil
}

func (s *Service) pointCipher(h digest.Hasher) *geocrypt.PointCipher {
	return geocrypt.NewPointCipher(s.keys,
		geocrypt.WithHasher(h),
		geocrypt.WithPrecision(s.precision),
		geocrypt.WithPointClock(s.now),
	)
}

// Initialize prepares the key material. It is idempotent.
func (s *Service) Initialize() error {
	if err := s.keys.Initialize(); err != nil {
		return err
	}

	s.logger.Info().Bool("keyed_hash", s.keyedHash).Int("parallelism", s.parallelism).Msg("service initialized")
	return nil
}

// PublicKey returns the base64 encoded public key for distribution
func (s *Service) PublicKey() (string, error) {
	return s.keys.ExportPublicKey()
}

// Count returns the number of stored points
func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.store.Count(ctx)
}

func (s *Service) stored(r poi.Record, p *geocrypt.EncryptedPoint) store.StoredPoint {
	sp := store.StoredPoint{Point: p}
	if s.categoryPrefilter || s.publishCategory {
		sp.Category = r.Category
	}
	return sp
}

// sealer returns the cipher that fingerprints new points. The keyed hash
// is derived from the current key material on every call, so it follows
// Rotate and works when keys were initialized outside the Service.
func (s *Service) sealer() (*geocrypt.PointCipher, error) {
	if !s.keyedHash {
		return s.points, nil
	}
	key, err := s.keys.DeriveKey(predicateHashLabel)
	if err != nil {
		return nil, err
	}
	return s.pointCipher(digest.NewKeyed(key)), nil
}

// seal cleans and validates r, returning the cleaned record with its sealed point
func (s *Service) seal(r poi.Record) (poi.Record, *geocrypt.EncryptedPoint, error) {
	r = r.Clean()
	if err := r.Validate(); err != nil {
		return r, nil, err
	}
	c, err := s.sealer()
	if err != nil {
		return r, nil, err
	}
	p, err := c.Encrypt(r)
	return r, p, err
}

// InsertPoint validates, seals and stores r, returning its id
func (s *Service) InsertPoint(ctx context.Context, r poi.Record) (string, error) {
	r, p, err := s.seal(r)
	if err != nil {
		s.metrics.RecordInsert(false)
		return "", err
	}

	id, err := s.store.Insert(ctx, s.stored(r, p))
	s.metrics.RecordInsert(err == nil)
	if err != nil {
		return "", err
	}
	return id, nil
}

// ImportPoints seals records concurrently and stores them in input order.
// Nothing is stored when any record fails to seal. On a store failure the
// records before it remain stored and their count is returned with the error.
func (s *Service) ImportPoints(ctx context.Context, records []poi.Record) (int, error) {
	const op = "service.ImportPoints"

	sealed := make([]store.StoredPoint, len(records))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.importConcurrency)
	for i, r := range records {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			cleaned, p, err := s.seal(r)
			if err != nil {
				return errors.Wrap(err, errors.KindOf(err), op, "record %d (%s)", i, r.Name)
			}
			sealed[i] = s.stored(cleaned, p)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.metrics.RecordInsert(false)
		return 0, err
	}

	for i, sp := range sealed {
		if _, err := s.store.Insert(ctx, sp); err != nil {
			s.metrics.RecordInsert(false)
			return i, err
		}
		s.metrics.RecordInsert(true)
	}

	s.logger.Info().Int("points", len(sealed)).Msg("points imported")
	return len(sealed), nil
}

// Close waits for pending query log writes and releases the worker pool.
// The store and sink stay open; their owner closes them.
func (s *Service) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()

	defer s.evaluator.Close()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Package evaluator answers a sealed range predicate over sealed points.
//
// Every candidate is decrypted to test its distance, so the cost is linear
// in the number of candidates. The spatial index only helps a store narrow
// the candidates before they reach the evaluator.
package evaluator

import (
	"context"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/kochabx/eplq/core/crypto/geocrypt"
	"github.com/kochabx/eplq/core/geo"
	"github.com/kochabx/eplq/core/poi"
	"github.com/kochabx/eplq/errors"
	"github.com/kochabx/eplq/log"
)

// Stats counts what an evaluation did with its candidates
type Stats struct {
	Scanned   int `json:"scanned"`
	Decrypted int `json:"decrypted"`
	Failed    int `json:"failed"`
	Matched   int `json:"matched"`
}

// Result holds the matches in candidate order
type Result struct {
	Records []poi.Record
	Stats   Stats
}

// Evaluator filters candidates against a predicate
type Evaluator struct {
	points      *geocrypt.PointCipher
	queries     *geocrypt.QueryCipher
	parallelism int
	pool        *ants.Pool
	logger      *log.Logger
}

// Option configures an Evaluator
type Option func(*Evaluator)

// WithParallelism decrypts up to n candidates at once; n <= 1 is sequential
func WithParallelism(n int) Option {
	return func(e *Evaluator) {
		e.parallelism = n
	}
}

// WithLogger sets the logger for skipped candidates
func WithLogger(logger *log.Logger) Option {
	return func(e *Evaluator) {
		e.logger = logger
	}
}

// New creates an Evaluator. Close must be called when parallelism > 1.
func New(points *geocrypt.PointCipher, queries *geocrypt.QueryCipher, opts ...Option) (*Evaluator, error) {
	e := &Evaluator{
		points:  points,
		queries: queries,
		logger:  log.G,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.parallelism > 1 {
		pool, err := ants.NewPool(e.parallelism, ants.WithPreAlloc(true))
		if err != nil {
			return nil, errors.Internal("evaluator.New", err)
		}
		e.pool = pool
	}
	return e, nil
}

// Close releases the worker pool
func (e *Evaluator) Close() {
	if e.pool != nil {
		e.pool.Release()
	}
}

// Matches reports whether r lies within the predicate radius and carries
// its category. Distance is compared inclusively.
func Matches(p geocrypt.Predicate, r poi.Record) bool {
	return geo.Distance(p.CenterLat, p.CenterLng, r.Latitude, r.Longitude) <= p.Radius &&
		r.MatchesCategory(p.Category)
}

type outcome struct {
	record  poi.Record
	failed  bool
	matched bool
}

// Evaluate opens q and returns the candidates it selects, in input order.
// A candidate that fails to decrypt is logged and skipped. Failing to open
// q aborts the evaluation. On cancellation no partial result is returned.
func (e *Evaluator) Evaluate(ctx context.Context, q *geocrypt.EncryptedQuery, candidates []*geocrypt.EncryptedPoint) (*Result, error) {
	const op = "evaluator.Evaluate"

	query, err := e.queries.Decrypt(q)
	if err != nil {
		return nil, errors.QueryDecryption(op, err)
	}

	outcomes := make([]outcome, len(candidates))
	if e.pool != nil && len(candidates) > 1 {
		err = e.parallel(ctx, query.Predicate, candidates, outcomes)
	} else {
		err = e.sequential(ctx, query.Predicate, candidates, outcomes)
	}
	if err != nil {
		return nil, err
	}

	res := &Result{Records: []poi.Record{}}
	res.Stats.Scanned = len(candidates)
	for _, o := range outcomes {
		if o.failed {
			res.Stats.Failed++
			continue
		}
		res.Stats.Decrypted++
		if o.matched {
			res.Stats.Matched++
			res.Records = append(res.Records, o.record)
		}
	}
	return res, nil
}

func (e *Evaluator) check(p geocrypt.Predicate, i int, c *geocrypt.EncryptedPoint) outcome {
	rec, err := e.points.Decrypt(c)
	if err != nil {
		e.logger.Warn().Err(err).Int("candidate", i).Msg("skipping candidate that failed to decrypt")
		return outcome{failed: true}
	}
	return outcome{record: rec, matched: Matches(p, rec)}
}

func (e *Evaluator) sequential(ctx context.Context, p geocrypt.Predicate, candidates []*geocrypt.EncryptedPoint, out []outcome) error {
	for i, c := range candidates {
		if err := ctx.Err(); err != nil {
			return err
		}
		out[i] = e.check(p, i, c)
	}
	return nil
}

// parallel writes each outcome to the slot of its candidate, so the merge
// in Evaluate sees input order regardless of completion order.
func (e *Evaluator) parallel(ctx context.Context, p geocrypt.Predicate, candidates []*geocrypt.EncryptedPoint, out []outcome) error {
	var wg sync.WaitGroup
	for i, c := range candidates {
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		task := func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			out[i] = e.check(p, i, c)
		}
		if err := e.pool.Submit(task); err != nil {
			task()
		}
	}
	wg.Wait()
	return ctx.Err()
}

package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kochabx/eplq/core/crypto/geocrypt"
	"github.com/kochabx/eplq/core/evaluator"
	"github.com/kochabx/eplq/core/geo"
	"github.com/kochabx/eplq/core/poi"
	"github.com/kochabx/eplq/errors"
	"github.com/kochabx/eplq/metrics"
	"github.com/kochabx/eplq/store"
)

// QueryResult is the answer to one range query
type QueryResult struct {
	Records           []poi.Record    `json:"records"`
	QueryID           string          `json:"queryId"`
	ExecutionTimeMs   int64           `json:"executionTimeMs"`
	CandidatesScanned int             `json:"candidatesScanned"`
	Stats             evaluator.Stats `json:"stats"`
	// Retrieval is the candidate path taken, see metrics.Retrieval*
	Retrieval string `json:"retrieval"`
}

// NewQueryID returns q_<unix ms>_<8 hex chars>
func NewQueryID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("q_%d_%s", now.UnixMilli(), suffix)
}

// ExecuteRangeQuery returns up to maxResults points within p.Radius meters
// of the center, in candidate order. maxResults <= 0 uses the configured
// default. Candidate retrieval failures degrade to fewer candidates and
// never fail the query.
func (s *Service) ExecuteRangeQuery(ctx context.Context, p geocrypt.Predicate, requester string, maxResults int) (*QueryResult, error) {
	start := s.now()

	res, err := s.execute(ctx, p, requester, maxResults, start)
	elapsed := s.now().Sub(start)
	if err != nil {
		s.metrics.RecordQuery(outcomeOf(ctx, err), elapsed, 0, 0)
		return nil, err
	}

	s.metrics.RecordQuery(metrics.OutcomeSuccess, elapsed, res.CandidatesScanned, res.Stats.Matched)
	s.metrics.RecordDecryptFailures(res.Stats.Failed)
	return res, nil
}

func outcomeOf(ctx context.Context, err error) string {
	switch {
	case ctx.Err() != nil:
		return metrics.OutcomeCanceled
	case errors.Is(err, errors.ErrInvalidArgument):
		return metrics.OutcomeInvalid
	default:
		return metrics.OutcomeFailed
	}
}

func (s *Service) execute(ctx context.Context, p geocrypt.Predicate, requester string, maxResults int, start time.Time) (*QueryResult, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	q, err := s.queries.Encrypt(p)
	if err != nil {
		return nil, err
	}

	candidates, path := s.retrieve(ctx, s.filter(p))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ev, err := s.evaluator.Evaluate(ctx, q, candidates)
	if err != nil {
		return nil, err
	}

	records := ev.Records
	if len(records) > maxResults {
		records = records[:maxResults]
	}

	res := &QueryResult{
		Records:           records,
		QueryID:           NewQueryID(start),
		ExecutionTimeMs:   s.now().Sub(start).Milliseconds(),
		CandidatesScanned: ev.Stats.Scanned,
		Stats:             ev.Stats,
		Retrieval:         path,
	}

	s.logger.Info().
		Str("query_id", res.QueryID).
		Str("requester", requester).
		Str("retrieval", path).
		Int("candidates", res.CandidatesScanned).
		Int("failed", ev.Stats.Failed).
		Int("results", len(records)).
		Int64("elapsed_ms", res.ExecutionTimeMs).
		Msg("range query executed")

	s.record(ctx, store.QueryLogEntry{
		QueryID:           res.QueryID,
		Requester:         requester,
		Query:             q,
		CenterCell:        geo.IndexPrecision(p.CenterLat, p.CenterLng, logCellPrecision),
		ResultCount:       len(records),
		CandidatesScanned: res.CandidatesScanned,
		ExecutionTimeMs:   res.ExecutionTimeMs,
		Timestamp:         start.UTC(),
	})
	return res, nil
}

// filter is the candidate filter configured for p
func (s *Service) filter(p geocrypt.Predicate) store.CandidateFilter {
	f := store.CandidateFilter{Limit: s.maxCandidates}
	if s.categoryPrefilter {
		f.Category = p.Category
	}
	if s.spatialPrefilter {
		f.IndexPrefixes = geo.Cover(p.CenterLat, p.CenterLng, p.Radius, s.precision)
	}
	return f
}

// retrieve fetches with f, retries once without its conditions and finally
// degrades to no candidates.
func (s *Service) retrieve(ctx context.Context, f store.CandidateFilter) ([]*geocrypt.EncryptedPoint, string) {
	filtered := f.Category != "" || len(f.IndexPrefixes) > 0

	if filtered {
		candidates, err := s.store.FetchCandidates(ctx, f)
		if err == nil {
			s.metrics.RecordRetrieval(metrics.RetrievalFiltered)
			return candidates, metrics.RetrievalFiltered
		}
		s.logger.Warn().Err(err).Msg("filtered candidate fetch failed, retrying unfiltered")
	}

	candidates, err := s.store.FetchCandidates(ctx, f.Unfiltered())
	if err == nil {
		s.metrics.RecordRetrieval(metrics.RetrievalUnfiltered)
		return candidates, metrics.RetrievalUnfiltered
	}

	s.logger.Error().Err(err).Msg("candidate fetch failed, continuing with no candidates")
	s.metrics.RecordRetrieval(metrics.RetrievalDegraded)
	return nil, metrics.RetrievalDegraded
}

// record hands entry to the query log without waiting for it
func (s *Service) record(ctx context.Context, entry store.QueryLogEntry) {
	if s.queryLog == nil {
		return
	}

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.logTimeout)
		defer cancel()
		if err := s.queryLog.LogQuery(lctx, entry); err != nil {
			s.metrics.RecordQueryLogFailure()
			s.logger.Warn().Err(err).Str("query_id", entry.QueryID).Msg("failed to write query log")
		}
	}()
}

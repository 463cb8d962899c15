// Package store defines the persistence contracts around the encrypted core.
//
// A PointStore only ever sees sealed points plus the attributes published
// in clear next to them. It filters coarsely and orders by recency; exact
// spatial filtering is left to the evaluator.
package store

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kochabx/eplq/core/crypto/geocrypt"
	"github.com/kochabx/eplq/core/geo"
)

// DefaultLimit caps a candidate fetch when the filter gives no limit
const DefaultLimit = 1000

// StoredPoint is a sealed point with its public attributes. Category is
// only set when the owner chose to publish it for prefiltering.
type StoredPoint struct {
	ID       string
	Point    *geocrypt.EncryptedPoint
	Category string
}

// CandidateFilter narrows a fetch. Zero fields do not filter.
type CandidateFilter struct {
	// Category matches the published category exactly, ignoring case
	Category string
	// IndexPrefixes matches points whose spatial index starts with any prefix
	IndexPrefixes []string
	// Limit caps the number of points returned
	Limit int
}

// Unfiltered returns f without its category and spatial conditions
func (f CandidateFilter) Unfiltered() CandidateFilter {
	return CandidateFilter{Limit: f.Limit}
}

// Normalize lowercases the category and applies DefaultLimit
func (f CandidateFilter) Normalize() CandidateFilter {
	f.Category = NormalizeCategory(f.Category)
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	return f
}

// Match reports whether p passes the category and prefix conditions
func (f CandidateFilter) Match(p StoredPoint) bool {
	if f.Category != "" && NormalizeCategory(p.Category) != NormalizeCategory(f.Category) {
		return false
	}
	if len(f.IndexPrefixes) > 0 && (p.Point == nil || !geo.HasPrefix(p.Point.SpatialIndex, f.IndexPrefixes)) {
		return false
	}
	return true
}

// NormalizeCategory is the form categories are published and compared in
func NormalizeCategory(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}

// NewID returns a time ordered identifier, so ids sort by insertion time
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// PointStore persists sealed points
type PointStore interface {
	// Insert stores p and returns its id, assigning one when p.ID is empty
	Insert(ctx context.Context, p StoredPoint) (string, error)
	// FetchCandidates returns up to filter.Limit points matching filter,
	// newest first
	FetchCandidates(ctx context.Context, filter CandidateFilter) ([]*geocrypt.EncryptedPoint, error)
	// Count returns the number of stored points
	Count(ctx context.Context) (int64, error)
	Close(ctx context.Context) error
}

// QueryLogEntry records one executed query. The predicate is kept sealed;
// CenterCell is a coarse spatial index of the query center.
type QueryLogEntry struct {
	QueryID           string                   `json:"queryId" bson:"query_id"`
	Requester         string                   `json:"requester" bson:"requester"`
	Query             *geocrypt.EncryptedQuery `json:"query" bson:"query"`
	CenterCell        string                   `json:"centerCell" bson:"center_cell"`
	ResultCount       int                      `json:"resultCount" bson:"result_count"`
	CandidatesScanned int                      `json:"candidatesScanned" bson:"candidates_scanned"`
	ExecutionTimeMs   int64                    `json:"executionTimeMs" bson:"execution_time_ms"`
	Timestamp         time.Time                `json:"timestamp" bson:"timestamp"`
}

// QueryLogSink receives query log entries. Failures never fail a query.
type QueryLogSink interface {
	LogQuery(ctx context.Context, entry QueryLogEntry) error
	Close(ctx context.Context) error
}

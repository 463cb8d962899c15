package leveldb

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochabx/eplq/core/crypto/geocrypt"
	"github.com/kochabx/eplq/errors"
	"github.com/kochabx/eplq/store"
)

func point(index string) *geocrypt.EncryptedPoint {
	return &geocrypt.EncryptedPoint{
		Ciphertext:    []byte("sealed-" + index),
		SpatialIndex:  index,
		PredicateHash: "hash",
		IV:            make([]byte, geocrypt.NonceSize),
		CreatedAt:     time.Now().UTC(),
	}
}

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func TestInsertFetchNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)

	for i := 0; i < 5; i++ {
		id, err := s.Insert(ctx, store.StoredPoint{Point: point(fmt.Sprintf("idx%d", i))})
		require.NoError(t, err)
		assert.NotEmpty(t, id)
	}

	got, err := s.FetchCandidates(ctx, store.CandidateFilter{Limit: 3})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "idx4", got[0].SpatialIndex)
	assert.Equal(t, "idx2", got[2].SpatialIndex)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)
}

func TestFetchByCategory(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)

	_, err := s.Insert(ctx, store.StoredPoint{Point: point("a1"), Category: "Restaurant"})
	require.NoError(t, err)
	_, err = s.Insert(ctx, store.StoredPoint{Point: point("a2"), Category: "hospital"})
	require.NoError(t, err)
	_, err = s.Insert(ctx, store.StoredPoint{Point: point("b1"), Category: "restaurant"})
	require.NoError(t, err)
	_, err = s.Insert(ctx, store.StoredPoint{Point: point("b2")})
	require.NoError(t, err)

	got, err := s.FetchCandidates(ctx, store.CandidateFilter{Category: "RESTAURANT"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b1", got[0].SpatialIndex)
	assert.Equal(t, "a1", got[1].SpatialIndex)

	got, err = s.FetchCandidates(ctx, store.CandidateFilter{Category: "restaurant", IndexPrefixes: []string{"a"}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a1", got[0].SpatialIndex)

	got, err = s.FetchCandidates(ctx, store.CandidateFilter{IndexPrefixes: []string{"b"}})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestInsertExplicitID(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)

	id, err := s.Insert(ctx, store.StoredPoint{ID: "fixed", Point: point("x")})
	require.NoError(t, err)
	assert.Equal(t, "fixed", id)

	_, err = s.Insert(ctx, store.StoredPoint{ID: "fixed", Point: point("y")})
	require.NoError(t, err)

	got, err := s.FetchCandidates(ctx, store.CandidateFilter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "y", got[0].SpatialIndex)
}

func TestInsertNil(t *testing.T) {
	s := openMemory(t)
	_, err := s.Insert(context.Background(), store.StoredPoint{})
	assert.True(t, errors.Is(err, errors.ErrInvalidArgument))
}

func TestFetchCancelled(t *testing.T) {
	s := openMemory(t)
	_, err := s.Insert(context.Background(), store.StoredPoint{Point: point("x")})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.FetchCandidates(ctx, store.CandidateFilter{})
	assert.True(t, errors.Is(err, errors.ErrRetrieval))
}

func TestOpenFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "points")

	s, err := Open(Config{Path: path})
	require.NoError(t, err)
	_, err = s.Insert(ctx, store.StoredPoint{Point: point("persisted")})
	require.NoError(t, err)
	require.NoError(t, s.Close(ctx))

	s, err = Open(Config{Path: path})
	require.NoError(t, err)
	defer s.Close(ctx)

	got, err := s.FetchCandidates(ctx, store.CandidateFilter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []byte("sealed-persisted"), got[0].Ciphertext)
}

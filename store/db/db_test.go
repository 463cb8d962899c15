package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochabx/eplq/core/crypto/geocrypt"
	"github.com/kochabx/eplq/errors"
	"github.com/kochabx/eplq/log"
	"github.com/kochabx/eplq/store"
)

var base = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func point(index string, at int) *geocrypt.EncryptedPoint {
	return &geocrypt.EncryptedPoint{
		Ciphertext:    []byte("sealed-" + index),
		SpatialIndex:  index,
		PredicateHash: "hash",
		IV:            make([]byte, geocrypt.NonceSize),
		CreatedAt:     base.Add(time.Duration(at) * time.Second),
	}
}

func openSQLite(t *testing.T) *PointStore {
	t.Helper()
	cfg := &Config{
		Driver: DriverSQLite,
		SQLite: SQLiteConfig{FilePath: filepath.Join(t.TempDir(), "eplq.db")},
	}
	c, err := New(cfg, WithLogger(log.Nop()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	s, err := NewPointStore(context.Background(), c)
	require.NoError(t, err)
	return s
}

func TestConfigDefaults(t *testing.T) {
	c := &Config{}
	require.NoError(t, c.Init())
	assert.Equal(t, DriverSQLite, c.Driver)
	assert.Equal(t, "encrypted_points", c.Table)
	assert.Equal(t, 1, c.Pool.MaxOpenConns)

	dsn, err := c.DSN()
	require.NoError(t, err)
	assert.Equal(t, "file:data/eplq.db?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", dsn)
}

func TestConfigDSN(t *testing.T) {
	c := &Config{Driver: DriverMySQL, MySQL: MySQLConfig{Password: "pw"}}
	require.NoError(t, c.Init())
	dsn, err := c.DSN()
	require.NoError(t, err)
	assert.Equal(t, "root:pw@tcp(localhost:3306)/eplq?charset=utf8mb4&collation=utf8mb4_unicode_ci&parseTime=true&loc=UTC&timeout=10s", dsn)
	assert.Equal(t, 100, c.Pool.MaxOpenConns)

	c = &Config{Driver: DriverPostgres}
	require.NoError(t, c.Init())
	dsn, err = c.DSN()
	require.NoError(t, err)
	assert.Contains(t, dsn, "host=localhost port=5432 user=postgres")
	assert.Contains(t, dsn, "dbname=eplq sslmode=disable")

	c = &Config{Driver: "oracle"}
	_, err = c.DSN()
	assert.True(t, errors.Is(err, errors.ErrInvalidArgument))
}

func TestLogLevel(t *testing.T) {
	assert.EqualValues(t, 1, (&Config{}).LogLevel())
	assert.EqualValues(t, 4, (&Config{Level: "INFO"}).LogLevel())
	assert.EqualValues(t, 3, (&Config{Level: "warn"}).LogLevel())
}

func TestNewNilConfig(t *testing.T) {
	_, err := New(nil)
	assert.True(t, errors.Is(err, errors.ErrInvalidArgument))
}

func TestPingNotInitialized(t *testing.T) {
	err := (&Client{}).Ping(context.Background())
	assert.True(t, errors.Is(err, errors.ErrNotInitialized))
	assert.NoError(t, (&Client{}).Close())
}

func TestClientStats(t *testing.T) {
	assert.Zero(t, (&Client{}).Stats().OpenConnections)

	cfg := &Config{
		Driver: DriverSQLite,
		SQLite: SQLiteConfig{FilePath: filepath.Join(t.TempDir(), "eplq.db")},
	}
	c, err := New(cfg, WithLogger(log.Nop()))
	require.NoError(t, err)
	defer c.Close()

	st := c.Stats()
	assert.GreaterOrEqual(t, st.OpenConnections, 1)
	assert.Zero(t, st.InUse)
}

func TestInsertFetchNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t)

	for i, idx := range []string{"pq000000", "pq100000", "pr000000", "n3000000"} {
		id, err := s.Insert(ctx, store.StoredPoint{Point: point(idx, i)})
		require.NoError(t, err)
		assert.NotEmpty(t, id)
	}

	got, err := s.FetchCandidates(ctx, store.CandidateFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "n3000000", got[0].SpatialIndex)
	assert.Equal(t, "pr000000", got[1].SpatialIndex)
	assert.Equal(t, []byte("sealed-n3000000"), got[0].Ciphertext)
	assert.True(t, got[0].CreatedAt.Equal(base.Add(3*time.Second)))

	got, err = s.FetchCandidates(ctx, store.CandidateFilter{IndexPrefixes: []string{"pq", "n3"}})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "n3000000", got[0].SpatialIndex)
	assert.Equal(t, "pq000000", got[2].SpatialIndex)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)
}

func TestFetchByCategory(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t)

	_, err := s.Insert(ctx, store.StoredPoint{Point: point("a1", 0), Category: "Restaurant"})
	require.NoError(t, err)
	_, err = s.Insert(ctx, store.StoredPoint{Point: point("a2", 1), Category: "hospital"})
	require.NoError(t, err)
	_, err = s.Insert(ctx, store.StoredPoint{Point: point("b1", 2), Category: " restaurant"})
	require.NoError(t, err)

	got, err := s.FetchCandidates(ctx, store.CandidateFilter{Category: "RESTAURANT"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b1", got[0].SpatialIndex)

	got, err = s.FetchCandidates(ctx, store.CandidateFilter{Category: "restaurant", IndexPrefixes: []string{"a"}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a1", got[0].SpatialIndex)
}

func TestInsertErrors(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t)

	_, err := s.Insert(ctx, store.StoredPoint{})
	assert.True(t, errors.Is(err, errors.ErrInvalidArgument))

	_, err = s.Insert(ctx, store.StoredPoint{ID: "dup", Point: point("x", 0)})
	require.NoError(t, err)
	_, err = s.Insert(ctx, store.StoredPoint{ID: "dup", Point: point("y", 1)})
	assert.True(t, errors.Is(err, errors.ErrInternal))
}

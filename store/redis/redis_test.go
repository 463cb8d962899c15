package redis

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochabx/eplq/errors"
	"github.com/kochabx/eplq/log"
	"github.com/kochabx/eplq/store"
)

func TestConfigDefaults(t *testing.T) {
	c := &Config{}
	require.NoError(t, c.Init())
	assert.Equal(t, []string{"localhost:6379"}, c.Addrs)
	assert.Equal(t, 5*time.Second, c.DialTimeout)
	assert.Equal(t, "eplq:query_log", c.QueryLogKey)
	assert.EqualValues(t, 10000, c.QueryLogMax)
	assert.Equal(t, "single", c.mode())
}

func TestConfigMode(t *testing.T) {
	assert.Equal(t, "cluster", (&Config{Addrs: []string{"a:1", "b:1"}}).mode())
	assert.Equal(t, "sentinel", (&Config{Addrs: []string{"a:1"}, MasterName: "m"}).mode())
}

func TestConfigValidate(t *testing.T) {
	c := &Config{Addrs: []string{"a:1"}, QueryLogMax: 1, ReadTimeout: -time.Second}
	assert.True(t, errors.Is(c.Validate(), errors.ErrInvalidArgument))

	c = &Config{Addrs: []string{"a:1"}}
	assert.True(t, errors.Is(c.Validate(), errors.ErrInvalidArgument))
}

func TestUniversalOptions(t *testing.T) {
	c := &Config{}
	require.NoError(t, c.Init())
	o := universalOptions(c)
	assert.Positive(t, o.PoolSize)
	assert.Equal(t, 3, o.Protocol)
}

func TestNewNilConfig(t *testing.T) {
	_, err := New(context.Background(), nil)
	assert.True(t, errors.Is(err, errors.ErrInvalidArgument))
}

// Needs a server: EPLQ_REDIS_ADDR=localhost:6379
func TestQueryLogCapped(t *testing.T) {
	addr := os.Getenv("EPLQ_REDIS_ADDR")
	if addr == "" {
		t.Skip("EPLQ_REDIS_ADDR not set")
	}
	ctx := context.Background()

	key := "eplq:test:" + store.NewID()
	c, err := New(ctx, &Config{Addrs: strings.Split(addr, ","), QueryLogKey: key, QueryLogMax: 3}, WithLogger(log.Nop()), WithDebug())
	require.NoError(t, err)
	defer c.Close()
	defer c.UniversalClient().Del(ctx, key)

	sink := NewQueryLog(c)
	for _, id := range []string{"q1", "q2", "q3", "q4"} {
		require.NoError(t, sink.LogQuery(ctx, store.QueryLogEntry{QueryID: id, Timestamp: time.Now().UTC()}))
	}

	got, err := sink.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "q4", got[0].QueryID)
	assert.Equal(t, "q2", got[2].QueryID)
}

package redis

import (
	"context"
	"sort"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scorekeeper/core"
	"scorekeeper/engine"
	"scorekeeper/engine/enginetest"
)

// newTestClient spins up a miniredis server and returns a client plus the server.
func newTestClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return client, mr
}

func record(name string, score int64) core.ScoreRecord {
	return core.ScoreRecord{PlayerName: name, PlayerAge: "10", PlayerSchool: "EMEF", Score: score, SubmittedAt: time.Date(2026, 10, 14, 7, 0, 0, 0, time.UTC)}
}

func TestRedisStoreSuite(t *testing.T) {
	enginetest.Run(t, func(t *testing.T, capacity int) engine.Repository {
		client, _ := newTestClient(t)
		return NewWithClient(client, "test", capacity)
	})
}

func TestStore_InsertTrimsAndCleansHash(t *testing.T) {
	client, mr := newTestClient(t)
	store := NewWithClient(client, "game", 2)
	defer store.Close()
	ctx := context.Background()

	for _, s := range []int64{10, 20} {
		res, err := store.Insert(ctx, record("p", s))
		require.NoError(t, err)
		assert.Empty(t, res.Evicted)
	}
	res, err := store.Insert(ctx, record("p", 30))
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.ID)
	assert.Equal(t, 2, res.Size)
	require.Len(t, res.Evicted, 1)
	assert.Equal(t, int64(10), res.Evicted[0].Score)
	assert.Equal(t, int64(1), res.Evicted[0].ID)

	fields, err := mr.HKeys("game:records")
	require.NoError(t, err)
	assert.Len(t, fields, 2)
	members, err := mr.ZMembers("game:ranking")
	require.NoError(t, err)
	assert.Len(t, members, 2)
	seq, err := mr.Get("game:seq")
	require.NoError(t, err)
	assert.Equal(t, "3", seq)
}

func TestStore_EvictsNewestOnTie(t *testing.T) {
	client, _ := newTestClient(t)
	store := NewWithClient(client, "", 2)
	defer store.Close()
	ctx := context.Background()

	for _, name := range []string{"first", "second", "third"} {
		_, err := store.Insert(ctx, record(name, 50))
		require.NoError(t, err)
	}
	st, err := store.Ranked(ctx, 10)
	require.NoError(t, err)
	require.Len(t, st.Records, 2)
	assert.Equal(t, "first", st.Records[0].PlayerName)
	assert.Equal(t, "second", st.Records[1].PlayerName)
}

func TestStore_RankedHonorsLimit(t *testing.T) {
	client, _ := newTestClient(t)
	store := NewWithClient(client, "", 10)
	defer store.Close()
	ctx := context.Background()
	for i := int64(1); i <= 4; i++ {
		_, err := store.Insert(ctx, record("p", i))
		require.NoError(t, err)
	}
	st, err := store.Ranked(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, st.Total)
	require.Len(t, st.Records, 2)
	assert.Equal(t, int64(4), st.Records[0].Score)

	st, err = store.Ranked(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, st.Records)
	assert.Equal(t, 4, st.Total)
}

func TestStore_ConnectionError(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	store := NewWithClient(client, "", 10)
	defer store.Close()
	_, err := store.Insert(context.Background(), record("p", 1))
	assert.Error(t, err)
	_, err = store.Count(context.Background())
	assert.Error(t, err)
}

func TestTieKeyOrdersLowerIDsHigher(t *testing.T) {
	keys := []string{tieKey(3), tieKey(1), tieKey(12), tieKey(2)}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	assert.Equal(t, []string{tieKey(1), tieKey(2), tieKey(3), tieKey(12)}, keys)
	assert.Len(t, tieKey(1), 15)
}

func TestConfig_DefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "localhost:6379", cfg.Addr)
	assert.Equal(t, "scorekeeper", cfg.KeyPrefix)
	assert.Equal(t, 10, cfg.PoolSize)
	assert.Equal(t, 5*time.Second, cfg.DialTimeout)
}

package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scorekeeper/core"
	"scorekeeper/engine"
	"scorekeeper/engine/enginetest"
)

func TestJSONFileStoreSuite(t *testing.T) {
	enginetest.Run(t, func(t *testing.T, capacity int) engine.Repository {
		s, err := New(filepath.Join(t.TempDir(), "scores.json"), capacity)
		require.NoError(t, err)
		return s
	})
}

func record(name string, score int64) core.ScoreRecord {
	return core.ScoreRecord{PlayerName: name, PlayerAge: "9", PlayerSchool: "s", Score: score, SubmittedAt: time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)}
}

func TestStorePersistAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "scores.json")
	ctx := context.Background()

	store, err := New(path, 2)
	require.NoError(t, err)
	for _, s := range []int64{10, 30, 20} {
		_, err := store.Insert(ctx, record("p", s))
		require.NoError(t, err)
	}

	// ensure file written
	_, err = os.Stat(path)
	require.NoError(t, err)

	reloaded, err := New(path, 2)
	require.NoError(t, err)
	st, err := reloaded.Ranked(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Total)
	require.Len(t, st.Records, 2)
	assert.Equal(t, int64(30), st.Records[0].Score)
	assert.Equal(t, int64(2), st.Records[0].ID)
	assert.True(t, st.Records[0].SubmittedAt.Equal(record("p", 0).SubmittedAt))

	// the sequence survives a restart even though id 3 is the only one left above id 2
	res, err := reloaded.Insert(ctx, record("q", 5))
	require.NoError(t, err)
	assert.Equal(t, int64(4), res.ID)
	require.Len(t, res.Evicted, 1)
	assert.Equal(t, int64(4), res.Evicted[0].ID)
}

func TestStoreLoadTrimsToCapacity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.json")
	ctx := context.Background()
	big, err := New(path, 5)
	require.NoError(t, err)
	for i := int64(1); i <= 5; i++ {
		_, err := big.Insert(ctx, record("p", i))
		require.NoError(t, err)
	}
	small, err := New(path, 3)
	require.NoError(t, err)
	n, err := small.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestStoreFailedWriteLeavesStateUnchanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.json")
	ctx := context.Background()
	store, err := New(path, 5)
	require.NoError(t, err)
	_, err = store.Insert(ctx, record("a", 1))
	require.NoError(t, err)

	// a directory where the temp file goes makes the write fail
	require.NoError(t, os.Mkdir(path+".tmp", 0o755))
	_, err = store.Insert(ctx, record("b", 2))
	require.Error(t, err)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, os.Remove(path+".tmp"))
	res, err := store.Insert(ctx, record("c", 3))
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.ID)
}

func TestStoreRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err := New(path, 5)
	assert.Error(t, err)
}

func TestStoreHonorsCanceledContext(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "scores.json"), 5)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.Count(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = s.Ranked(ctx, 3)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = s.Insert(ctx, core.ScoreRecord{PlayerName: "a", Score: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStoreWritesNoLeftoverTempFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.json")
	s, err := New(path, 5)
	require.NoError(t, err)
	_, err = s.Insert(context.Background(), core.ScoreRecord{PlayerName: "a", Score: 1, SubmittedAt: time.Now().UTC()})
	require.NoError(t, err)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
	reopened, err := New(path, 5)
	require.NoError(t, err)
	n, err := reopened.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

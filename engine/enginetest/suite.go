// Package enginetest holds the behavioral checks every Repository backend must pass.
package enginetest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scorekeeper/core"
	"scorekeeper/engine"
	"scorekeeper/export"
	"scorekeeper/leaderboard"
)

// Factory returns a fresh, empty repository retaining at most capacity records.
type Factory func(t *testing.T, capacity int) engine.Repository

// Clock returns a func that advances one second per call from a fixed start.
func Clock() func() time.Time {
	start := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	var n atomic.Int64
	return func() time.Time {
		return start.Add(time.Duration(n.Add(1)) * time.Second)
	}
}

// NewService builds a synchronous service around a repository from newRepo.
func NewService(t *testing.T, newRepo Factory, capacity int, limits engine.Limits) *engine.ScoreService {
	t.Helper()
	svc := engine.NewScoreService(
		newRepo(t, capacity),
		engine.NewEventBus(engine.DispatchSync),
		export.NewFormatter(export.Options{}),
		limits,
		Clock(),
	)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func submission(name string, score int64) core.Submission {
	return core.Submission{PlayerName: name, PlayerAge: "9 anos", PlayerSchool: "Escola Municipal", Score: core.Int64(score), Level: 1}
}

func submit(t *testing.T, svc *engine.ScoreService, name string, score int64) int64 {
	t.Helper()
	id, err := svc.Submit(context.Background(), submission(name, score))
	require.NoError(t, err)
	return id
}

func names(records []core.RankedRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.PlayerName
	}
	return out
}

// Run executes the suite against repositories built by newRepo.
func Run(t *testing.T, newRepo Factory) {
	t.Run("TopThreeOfTen", func(t *testing.T) { testTopThreeOfTen(t, newRepo) })
	t.Run("CapacityTwoEvictsLowest", func(t *testing.T) { testCapacityTwo(t, newRepo) })
	t.Run("MissingNameRejected", func(t *testing.T) { testMissingName(t, newRepo) })
	t.Run("EqualScoresKeepSubmissionOrder", func(t *testing.T) { testEqualScores(t, newRepo) })
	t.Run("EmptyStore", func(t *testing.T) { testEmptyStore(t, newRepo) })
	t.Run("RandomSequencesStayRankedAndBounded", func(t *testing.T) { testRandomSequences(t, newRepo) })
	t.Run("TopNIsIdempotent", func(t *testing.T) { testIdempotent(t, newRepo) })
	t.Run("ExportUsesSeparateLimitAndSameRanks", func(t *testing.T) { testExportLimit(t, newRepo) })
	t.Run("NegativeScores", func(t *testing.T) { testNegativeScores(t, newRepo) })
	t.Run("ConcurrentSubmissions", func(t *testing.T) { testConcurrent(t, newRepo) })
}

func testTopThreeOfTen(t *testing.T, newRepo Factory) {
	svc := NewService(t, newRepo, 100, engine.Limits{Top: 10, Export: 50})
	scores := []int64{150, 120, 100, 90, 80, 70, 60, 50, 40, 30}
	for i, s := range scores {
		submit(t, svc, fmt.Sprintf("player-%d", i), s)
	}
	top, err := svc.TopN(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, top, 3)
	for i, want := range []int64{150, 120, 100} {
		assert.Equal(t, want, top[i].Score)
		assert.Equal(t, i+1, top[i].Rank)
	}
	assert.Equal(t, "player-0", top[0].PlayerName)

	def, err := svc.TopN(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, def, 10)
}

func testCapacityTwo(t *testing.T, newRepo Factory) {
	svc := NewService(t, newRepo, 2, engine.Limits{})
	lowID := submit(t, svc, "ten", 10)
	submit(t, svc, "twenty", 20)
	submit(t, svc, "thirty", 30)

	n, err := svc.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	top, err := svc.TopN(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"thirty", "twenty"}, names(top))
	for _, r := range top {
		assert.NotEqual(t, lowID, r.ID, "evicted id must not come back")
	}

	// ids keep counting after an eviction
	next := submit(t, svc, "forty", 40)
	assert.Equal(t, top[0].ID+1, next)
}

func testMissingName(t *testing.T, newRepo Factory) {
	svc := NewService(t, newRepo, 10, engine.Limits{})
	submit(t, svc, "ana", 5)

	_, err := svc.Submit(context.Background(), core.Submission{PlayerAge: "9", PlayerSchool: "x", Score: core.Int64(99)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrValidation))
	var verr *core.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "playerName", verr.Field)

	n, err := svc.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func testEqualScores(t *testing.T, newRepo Factory) {
	svc := NewService(t, newRepo, 10, engine.Limits{})
	submit(t, svc, "low", 10)
	submit(t, svc, "A", 50)
	submit(t, svc, "B", 50)
	submit(t, svc, "C", 50)
	top, err := svc.TopN(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C", "low"}, names(top))
}

func testEmptyStore(t *testing.T, newRepo Factory) {
	svc := NewService(t, newRepo, 10, engine.Limits{})
	top, err := svc.TopN(context.Background(), 10)
	require.NoError(t, err)
	assert.NotNil(t, top)
	assert.Empty(t, top)

	doc, err := svc.Export(context.Background(), export.FormatJSON, export.BrazilianPortuguese)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(doc.Data, &body))
	assert.Equal(t, float64(0), body["total_scores"])
	assert.Equal(t, []any{}, body["scores"])
}

func testRandomSequences(t *testing.T, newRepo Factory) {
	const capacity = 15
	f := gofakeit.New(7)
	svc := NewService(t, newRepo, capacity, engine.Limits{Top: capacity, Export: capacity})

	var all []core.ScoreRecord
	var lastID int64
	for i := 0; i < 60; i++ {
		name := f.FirstName()
		score := int64(f.IntRange(0, 25))
		id := submit(t, svc, name, score)
		require.Greater(t, id, lastID, "ids must be strictly increasing")
		lastID = id
		all = append(all, core.ScoreRecord{ID: id, PlayerName: name, Score: score})

		top, err := svc.TopN(context.Background(), capacity)
		require.NoError(t, err)

		expected := leaderboard.Rank(all)
		if len(expected) > capacity {
			expected = expected[:capacity]
		}
		require.Len(t, top, len(expected))
		for j := range expected {
			require.Equal(t, expected[j].ID, top[j].ID, "position %d after %d submissions", j, i+1)
			require.Equal(t, j+1, top[j].Rank)
		}

		n, err := svc.Count(context.Background())
		require.NoError(t, err)
		require.LessOrEqual(t, n, capacity)
		if i+1 > capacity {
			require.Equal(t, capacity, n)
		}
	}
}

func testIdempotent(t *testing.T, newRepo Factory) {
	svc := NewService(t, newRepo, 20, engine.Limits{})
	for i, s := range []int64{5, 9, 9, 1, 7} {
		submit(t, svc, fmt.Sprintf("p%d", i), s)
	}
	first, err := svc.TopN(context.Background(), 10)
	require.NoError(t, err)
	second, err := svc.TopN(context.Background(), 10)
	require.NoError(t, err)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("repeated topN differs (-first +second):\n%s", diff)
	}
	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func testExportLimit(t *testing.T, newRepo Factory) {
	svc := NewService(t, newRepo, 100, engine.Limits{Top: 10, Export: 50})
	for i := 0; i < 60; i++ {
		submit(t, svc, fmt.Sprintf("p%02d", i), int64(i%7))
	}
	doc, err := svc.Export(context.Background(), export.FormatJSON, export.BrazilianPortuguese)
	require.NoError(t, err)
	var body struct {
		TotalScores int                 `json:"total_scores"`
		Exported    int                 `json:"exported"`
		Scores      []core.RankedRecord `json:"scores"`
	}
	require.NoError(t, json.Unmarshal(doc.Data, &body))
	assert.Equal(t, 60, body.TotalScores)
	assert.Equal(t, 50, body.Exported)

	top, err := svc.TopN(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, body.Scores, len(top))
	for i := range top {
		assert.Equal(t, top[i].ID, body.Scores[i].ID)
		assert.Equal(t, top[i].Rank, body.Scores[i].Rank)
		assert.True(t, top[i].SubmittedAt.Equal(body.Scores[i].SubmittedAt))
	}
}

func testNegativeScores(t *testing.T, newRepo Factory) {
	svc := NewService(t, newRepo, 10, engine.Limits{})
	submit(t, svc, "minus", -5)
	submit(t, svc, "zero", 0)
	submit(t, svc, "deep", -100)
	top, err := svc.TopN(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"zero", "minus", "deep"}, names(top))
}

func testConcurrent(t *testing.T, newRepo Factory) {
	const (
		capacity = 25
		workers  = 8
		perW     = 10
	)
	svc := NewService(t, newRepo, capacity, engine.Limits{Top: capacity})

	var wg sync.WaitGroup
	idCh := make(chan int64, workers*perW)
	errCh := make(chan error, workers*perW*2)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perW; i++ {
				id, err := svc.Submit(context.Background(), submission(fmt.Sprintf("w%d-%d", w, i), int64((w*perW+i)%13)))
				if err != nil {
					errCh <- err
					continue
				}
				idCh <- id
				top, err := svc.TopN(context.Background(), capacity*2)
				if err != nil {
					errCh <- err
					continue
				}
				if len(top) > capacity {
					errCh <- fmt.Errorf("read saw %d records above cap %d", len(top), capacity)
				}
			}
		}(w)
	}
	wg.Wait()
	close(idCh)
	close(errCh)
	for err := range errCh {
		t.Fatalf("concurrent call failed: %v", err)
	}

	seen := map[int64]bool{}
	for id := range idCh {
		require.False(t, seen[id], "id %d assigned twice", id)
		seen[id] = true
	}
	require.Len(t, seen, workers*perW)

	n, err := svc.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, capacity, n)

	top, err := svc.TopN(context.Background(), capacity)
	require.NoError(t, err)
	for i := 1; i < len(top); i++ {
		prev, cur := top[i-1], top[i]
		require.True(t, prev.Score > cur.Score || (prev.Score == cur.Score && prev.ID < cur.ID), "out of order at %d", i)
	}
}

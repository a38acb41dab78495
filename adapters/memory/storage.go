package memory

import (
	"context"
	"sync"

	"scorekeeper/core"
	"scorekeeper/engine"
	"scorekeeper/leaderboard"
)

// Store is a concurrent in-memory repository. Contents are lost on exit.
type Store struct {
	mu       sync.RWMutex
	board    *leaderboard.SkipList
	capacity int
	nextID   int64
}

// New returns an empty store that retains at most capacity records.
// A non-positive capacity uses core.DefaultRetentionCap.
func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = core.DefaultRetentionCap
	}
	return &Store{board: leaderboard.NewSkipList(), capacity: capacity}
}

func (s *Store) Insert(ctx context.Context, rec core.ScoreRecord) (core.InsertResult, error) {
	if err := ctx.Err(); err != nil {
		return core.InsertResult{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	rec.ID = s.nextID
	s.board.Insert(rec)
	evicted := s.board.Trim(s.capacity)
	return core.InsertResult{ID: rec.ID, Evicted: evicted, Size: s.board.Len()}, nil
}

func (s *Store) Ranked(ctx context.Context, limit int) (core.Standings, error) {
	if err := ctx.Err(); err != nil {
		return core.Standings{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return core.Standings{Records: s.board.TopN(limit), Total: s.board.Len()}, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.board.Len(), nil
}

func (s *Store) Close() error { return nil }

var _ engine.Repository = (*Store)(nil)

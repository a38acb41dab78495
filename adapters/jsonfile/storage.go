package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"scorekeeper/core"
	"scorekeeper/engine"
	"scorekeeper/leaderboard"
)

// Store persists the whole ranking to a single JSON file.
// Suitable for demos and small deployments.
type Store struct {
	path     string
	capacity int
	mu       sync.RWMutex
	// in-memory cache for speed
	board  *leaderboard.SkipList
	nextID int64
}

type fileState struct {
	NextID int64              `json:"next_id"`
	Scores []core.ScoreRecord `json:"scores"`
}

// New opens the file at path, creating it lazily on the first insert.
// Records above capacity found on load are dropped.
func New(path string, capacity int) (*Store, error) {
	if capacity <= 0 {
		capacity = core.DefaultRetentionCap
	}
	s := &Store{path: path, capacity: capacity, board: leaderboard.NewSkipList()}
	if err := s.load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) load() error {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	var st fileState
	if err := json.Unmarshal(b, &st); err != nil {
		return fmt.Errorf("decode %s: %w", s.path, err)
	}
	for _, rec := range st.Scores {
		s.board.Insert(rec)
		if rec.ID > st.NextID {
			st.NextID = rec.ID
		}
	}
	s.board.Trim(s.capacity)
	s.nextID = st.NextID
	return nil
}

func (s *Store) persist(st fileState) error {
	tmp := s.path + ".tmp"
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	// the data must be on disk before the rename makes it visible
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return err
	}
	return syncDir(filepath.Dir(s.path))
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}

// Insert writes the post-insert state to disk before touching the cache, so
// a failed write leaves both the file and the cache as they were.
func (s *Store) Insert(ctx context.Context, rec core.ScoreRecord) (core.InsertResult, error) {
	if err := ctx.Err(); err != nil {
		return core.InsertResult{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.ID = s.nextID + 1
	next := append(s.board.TopN(s.board.Len()), rec)
	leaderboard.Sort(next)
	if len(next) > s.capacity {
		next = next[:s.capacity]
	}
	if err := s.persist(fileState{NextID: rec.ID, Scores: next}); err != nil {
		return core.InsertResult{}, fmt.Errorf("persist %s: %w", s.path, err)
	}

	s.nextID = rec.ID
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

package leaderboard

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"

	"scorekeeper/core"
)

// A skip list ordered by Less (score desc, id asc) giving O(log n) inserts
// and a cheap walk from the top.

const maxLevel = 16
const pFactor = 0.25

type node struct {
	rec  core.ScoreRecord
	next [maxLevel]*node
}

// SkipList is not safe for concurrent use; callers serialize access.
type SkipList struct {
	head *node
	lvl  int
	size int
	rng  *rand.Rand
}

func NewSkipList() *SkipList {
	// Use crypto/rand to generate a secure seed for PCG
	var seed [16]byte
	if _, err := cryptorand.Read(seed[:]); err != nil {
		seed = [16]byte{}
	}
	seed1 := binary.BigEndian.Uint64(seed[:8])
	seed2 := binary.BigEndian.Uint64(seed[8:])

	return &SkipList{
		head: &node{},
		lvl:  1,
		rng:  rand.New(rand.NewPCG(seed1, seed2)),
	}
}

func (s *SkipList) randomLevel() int {
	lvl := 1
	for lvl < maxLevel && s.rng.Float64() < pFactor {
		lvl++
	}
	return lvl
}

// Insert places rec at its ranked position. IDs are expected to be unique.
func (s *SkipList) Insert(rec core.ScoreRecord) {
	update := [maxLevel]*node{}
	cur := s.head
	for i := s.lvl - 1; i >= 0; i-- {
		for cur.next[i] != nil && Less(cur.next[i].rec, rec) {
			cur = cur.next[i]
		}
		update[i] = cur
	}
	lvl := s.randomLevel()
	if lvl > s.lvl {
		for i := s.lvl; i < lvl; i++ {
			update[i] = s.head
		}
		s.lvl = lvl
	}
	n := &node{rec: rec}
	for i := 0; i < lvl; i++ {
		n.next[i] = update[i].next[i]
		update[i].next[i] = n
	}
	s.size++
}

func (s *SkipList) remove(rec core.ScoreRecord) bool {
	update := [maxLevel]*node{}
	cur := s.head
	for i := s.lvl - 1; i >= 0; i-- {
		for cur.next[i] != nil && Less(cur.next[i].rec, rec) {
			cur = cur.next[i]
		}
		update[i] = cur
	}
	target := update[0].next[0]
	if target == nil || target.rec.ID != rec.ID {
		return false
	}
	for i := 0; i < s.lvl; i++ {
		if update[i].next[i] == target {
			update[i].next[i] = target.next[i]
		}
	}
	for s.lvl > 1 && s.head.next[s.lvl-1] == nil {
		s.lvl--
	}
	s.size--
	return true
}

// Trim removes every record ranked below capacity and returns them in rank order.
func (s *SkipList) Trim(capacity int) []core.ScoreRecord {
	if capacity < 0 {
		capacity = 0
	}
	if s.size <= capacity {
		return nil
	}
	evicted := make([]core.ScoreRecord, 0, s.size-capacity)
	cur := s.head.next[0]
	for i := 0; cur != nil; i++ {
		if i >= capacity {
			evicted = append(evicted, cur.rec)
		}
		cur = cur.next[0]
	}
	for _, rec := range evicted {
		s.remove(rec)
	}
	return evicted
}

// TopN returns up to n records from the top. n <= 0 yields an empty slice.
func (s *SkipList) TopN(n int) []core.ScoreRecord {
	if n <= 0 {
		return []core.ScoreRecord{}
	}
	if n > s.size {
		n = s.size
	}
	out := make([]core.ScoreRecord, 0, n)
	cur := s.head.next[0]
	for cur != nil && len(out) < n {
		out = append(out, cur.rec)
		cur = cur.next[0]
	}
	return out
}

func (s *SkipList) Len() int { return s.size }

var _ Board = (*SkipList)(nil)

package leaderboard

import (
	"sort"

	"scorekeeper/core"
)

// Board abstracts an ordered collection of score records.
type Board interface {
	Insert(rec core.ScoreRecord)
	Trim(capacity int) []core.ScoreRecord
	TopN(n int) []core.ScoreRecord
	Len() int
}

// Less is the ranking order used everywhere: higher score first, and among
// equal scores the earlier submission (lower id) first.
func Less(a, b core.ScoreRecord) bool {
	if a.Score == b.Score {
		return a.ID < b.ID
	}
	return a.Score > b.Score
}

// Sort orders records in place by Less. The sort is stable.
func Sort(records []core.ScoreRecord) {
	sort.SliceStable(records, func(i, j int) bool { return Less(records[i], records[j]) })
}

// Rank sorts a copy of records and annotates each with its 1-based position.
// The result is never nil.
func Rank(records []core.ScoreRecord) []core.RankedRecord {
	sorted := make([]core.ScoreRecord, len(records))
	copy(sorted, records)
	Sort(sorted)
	out := make([]core.RankedRecord, len(sorted))
	for i, rec := range sorted {
		out[i] = core.RankedRecord{Rank: i + 1, ScoreRecord: rec}
	}
	return out
}

package core

import (
	"strings"
	"time"
)

// DefaultRetentionCap is the number of records a store keeps when no capacity is configured.
const DefaultRetentionCap = 100

// ScoreRecord is an immutable score entry. ID and SubmittedAt are assigned by the store.
type ScoreRecord struct {
	ID           int64     `json:"id"`
	PlayerName   string    `json:"player_name"`
	PlayerAge    string    `json:"player_age"`
	PlayerSchool string    `json:"player_school"`
	Score        int64     `json:"score"`
	Level        int64     `json:"level"`
	SubmittedAt  time.Time `json:"date"`
}

// RankedRecord is a record annotated with its 1-based position in one ranked view.
// Rank is never persisted.
type RankedRecord struct {
	Rank int `json:"rank"`
	ScoreRecord
}

// Standings is an ordered slice of records read together with the number of
// records held by the store at the same instant.
type Standings struct {
	Records []ScoreRecord
	Total   int
}

// InsertResult reports what a single insertion did to the store.
type InsertResult struct {
	ID      int64
	Evicted []ScoreRecord
	Size    int
}

// Submission is caller input for a new score. Score is a pointer so that a
// missing value can be told apart from zero.
type Submission struct {
	PlayerName   string
	PlayerAge    string
	PlayerSchool string
	Score        *int64
	Level        int64
}

// Validate reports the first missing required field.
func (s Submission) Validate() error {
	switch {
	case strings.TrimSpace(s.PlayerName) == "":
		return &ValidationError{Field: "playerName", Reason: "is required"}
	case strings.TrimSpace(s.PlayerAge) == "":
		return &ValidationError{Field: "playerAge", Reason: "is required"}
	case strings.TrimSpace(s.PlayerSchool) == "":
		return &ValidationError{Field: "playerSchool", Reason: "is required"}
	case s.Score == nil:
		return &ValidationError{Field: "score", Reason: "is required"}
	}
	return nil
}

// Record builds the record to insert. The ID is left for the store to assign.
func (s Submission) Record(at time.Time) ScoreRecord {
	var score int64
	if s.Score != nil {
		score = *s.Score
	}
	return ScoreRecord{
		PlayerName:   strings.TrimSpace(s.PlayerName),
		PlayerAge:    strings.TrimSpace(s.PlayerAge),
		PlayerSchool: strings.TrimSpace(s.PlayerSchool),
		Score:        score,
		Level:        s.Level,
		SubmittedAt:  at.UTC(),
	}
}

// Int64 returns a pointer to v. Handy for building submissions in code.
func Int64(v int64) *int64 { return &v }

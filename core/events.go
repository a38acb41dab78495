package core

import "time"

// EventType enumerates domain events.
type EventType string

const (
	EventScoreSubmitted       EventType = "score_submitted"
	EventScoreEvicted         EventType = "score_evicted"
	EventSubmissionRejected   EventType = "submission_rejected"
	EventSnapshotExported     EventType = "snapshot_exported"
	EventSnapshotExportFailed EventType = "snapshot_export_failed"
)

// AllEventTypes lists every event the engine publishes.
var AllEventTypes = []EventType{
	EventScoreSubmitted,
	EventScoreEvicted,
	EventSubmissionRejected,
	EventSnapshotExported,
	EventSnapshotExportFailed,
}

// Event represents an immutable domain event.
type Event struct {
	Type     EventType `json:"type"`
	Time     time.Time `json:"time"`
	RecordID int64     `json:"record_id,omitempty"`
	Player   string    `json:"player,omitempty"`
	Score    int64     `json:"score,omitempty"`
	Size     int       `json:"size,omitempty"`
	Format   string    `json:"format,omitempty"`
	Reason   string    `json:"reason,omitempty"`
}

func NewScoreSubmitted(rec ScoreRecord, size int) Event {
	return Event{Type: EventScoreSubmitted, Time: time.Now().UTC(), RecordID: rec.ID, Player: rec.PlayerName, Score: rec.Score, Size: size}
}

func NewScoreEvicted(rec ScoreRecord, size int) Event {
	return Event{Type: EventScoreEvicted, Time: time.Now().UTC(), RecordID: rec.ID, Player: rec.PlayerName, Score: rec.Score, Size: size}
}

func NewSubmissionRejected(reason string) Event {
	return Event{Type: EventSubmissionRejected, Time: time.Now().UTC(), Reason: reason}
}

func NewSnapshotExported(format string, size int) Event {
	return Event{Type: EventSnapshotExported, Time: time.Now().UTC(), Format: format, Size: size}
}

func NewSnapshotExportFailed(format string, reason string) Event {
	return Event{Type: EventSnapshotExportFailed, Time: time.Now().UTC(), Format: format, Reason: reason}
}

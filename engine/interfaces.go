package engine

import (
	"context"

	"scorekeeper/core"
)

// Repository abstracts persistence for score records. Every backend owns a
// fixed retention cap set at construction.
type Repository interface {
	// Insert assigns the next id to rec, stores it and evicts every record
	// ranked below the cap, as one atomic unit.
	Insert(ctx context.Context, rec core.ScoreRecord) (core.InsertResult, error)
	// Ranked returns up to limit records in ranking order plus the number of
	// records held, both read from one consistent view.
	Ranked(ctx context.Context, limit int) (core.Standings, error)
	// Count returns the number of records held.
	Count(ctx context.Context) (int, error)
	Close() error
}

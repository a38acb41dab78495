package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"scorekeeper/core"
	"scorekeeper/export"
	"scorekeeper/leaderboard"
)

// DefaultTopLimit is the size of the live ranked view when none is requested.
const DefaultTopLimit = 10

// Limits bounds the live ranked view and export snapshots independently.
type Limits struct {
	Top    int
	Export int
}

func (l Limits) withDefaults() Limits {
	if l.Top <= 0 {
		l.Top = DefaultTopLimit
	}
	if l.Export <= 0 {
		l.Export = export.DefaultLimit
	}
	return l
}

// ScoreService wires the repository, event bus and export formatter into the
// submit / topN / export API.
type ScoreService struct {
	repo      Repository
	bus       *EventBus
	formatter *export.Formatter
	limits    Limits
	now       func() time.Time
}

func NewScoreService(repo Repository, bus *EventBus, formatter *export.Formatter, limits Limits, now func() time.Time) *ScoreService {
	if repo == nil || bus == nil || formatter == nil {
		panic("NewScoreService requires non-nil repository, bus, and formatter")
	}
	if now == nil {
		now = time.Now
	}
	return &ScoreService{repo: repo, bus: bus, formatter: formatter, limits: limits.withDefaults(), now: now}
}

// Subscribe convenience method.
func (s *ScoreService) Subscribe(typ core.EventType, handler func(context.Context, core.Event)) func() {
	return s.bus.Subscribe(typ, handler)
}

func (s *ScoreService) Limits() Limits { return s.limits }

func (s *ScoreService) Formatter() *export.Formatter { return s.formatter }

// Submit validates the submission, stores it and returns the assigned id.
// Lower ranked records may be evicted as a side effect.
func (s *ScoreService) Submit(ctx context.Context, sub core.Submission) (int64, error) {
	if err := sub.Validate(); err != nil {
		s.bus.Publish(ctx, core.NewSubmissionRejected(err.Error()))
		return 0, err
	}
	rec := sub.Record(s.now())
	res, err := s.repo.Insert(ctx, rec)
	if err != nil {
		return 0, storageErr("insert score", err)
	}
	rec.ID = res.ID
	s.bus.Publish(ctx, core.NewScoreSubmitted(rec, res.Size))
	for _, ev := range res.Evicted {
		s.bus.Publish(ctx, core.NewScoreEvicted(ev, res.Size))
	}
	return res.ID, nil
}

// TopN returns up to n ranked records; n <= 0 uses the configured top limit.
func (s *ScoreService) TopN(ctx context.Context, n int) ([]core.RankedRecord, error) {
	if n <= 0 {
		n = s.limits.Top
	}
	st, err := s.repo.Ranked(ctx, n)
	if err != nil {
		return nil, storageErr("read ranking", err)
	}
	return leaderboard.Rank(st.Records), nil
}

// Snapshot captures up to the export limit of ranked records and the store total.
func (s *ScoreService) Snapshot(ctx context.Context) (export.Snapshot, error) {
	st, err := s.repo.Ranked(ctx, s.limits.Export)
	if err != nil {
		return export.Snapshot{}, storageErr("read snapshot", err)
	}
	return export.Snapshot{
		GeneratedAt: s.now().UTC(),
		Total:       st.Total,
		Records:     leaderboard.Rank(st.Records),
	}, nil
}

// Export renders a fresh snapshot in the requested format and locale.
func (s *ScoreService) Export(ctx context.Context, format export.Format, locale export.Locale) (export.Document, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		s.bus.Publish(ctx, core.NewSnapshotExportFailed(string(format), err.Error()))
		return export.Document{}, err
	}
	doc, err := s.formatter.Render(format, snap, locale)
	if err != nil {
		s.bus.Publish(ctx, core.NewSnapshotExportFailed(string(format), err.Error()))
		return export.Document{}, err
	}
	s.bus.Publish(ctx, core.NewSnapshotExported(string(format), len(snap.Records)))
	return doc, nil
}

// Count returns how many records the store holds.
func (s *ScoreService) Count(ctx context.Context) (int, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, storageErr("count scores", err)
	}
	return n, nil
}

// Close stops event dispatch and releases the repository.
func (s *ScoreService) Close() error {
	s.bus.Close()
	return s.repo.Close()
}

func storageErr(op string, err error) error {
	if errors.Is(err, core.ErrStorage) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", core.ErrStorage, op, err)
}

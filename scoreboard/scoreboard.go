package scoreboard

import (
	"context"
	"time"

	mem "scorekeeper/adapters/memory"
	"scorekeeper/core"
	"scorekeeper/engine"
	"scorekeeper/export"
)

// Option configures the ScoreService builder.
type Option func(*config)

type config struct {
	repo      engine.Repository
	mode      engine.DispatchMode
	formatter *export.Formatter
	limits    engine.Limits
	now       func() time.Time
	hooks     []func(context.Context, core.Event)
}

// WithRepository sets the persistence adapter.
func WithRepository(r engine.Repository) Option { return func(c *config) { c.repo = r } }

// WithDispatchMode selects sync or async event dispatch.
func WithDispatchMode(m engine.DispatchMode) Option { return func(c *config) { c.mode = m } }

// WithFormatter replaces the export formatter.
func WithFormatter(f *export.Formatter) Option { return func(c *config) { c.formatter = f } }

// WithLimits sets the live view and export sizes.
func WithLimits(l engine.Limits) Option { return func(c *config) { c.limits = l } }

// WithClock sets the time source used to stamp submissions and snapshots.
func WithClock(now func() time.Time) Option { return func(c *config) { c.now = now } }

// WithHook subscribes h to every event the service publishes.
func WithHook(h func(context.Context, core.Event)) Option {
	return func(c *config) { c.hooks = append(c.hooks, h) }
}

// New builds a configured ScoreService. If not provided, defaults are used:
//   - repository: in-memory, core.DefaultRetentionCap
//   - formatter: pt-BR, UTC
//   - dispatch: async
func New(opts ...Option) *engine.ScoreService {
	cfg := &config{mode: engine.DispatchAsync}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.repo == nil {
		cfg.repo = mem.New(core.DefaultRetentionCap)
	}
	if cfg.formatter == nil {
		cfg.formatter = export.NewFormatter(export.Options{})
	}
	svc := engine.NewScoreService(cfg.repo, engine.NewEventBus(cfg.mode), cfg.formatter, cfg.limits, cfg.now)
	for _, h := range cfg.hooks {
		for _, typ := range core.AllEventTypes {
			svc.Subscribe(typ, h)
		}
	}
	return svc
}

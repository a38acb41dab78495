// Package metrics turns score events into Prometheus series.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"scorekeeper/core"
)

// Subscriber is satisfied by engine.EventBus and engine.ScoreService.
type Subscriber interface {
	Subscribe(typ core.EventType, handler func(context.Context, core.Event)) func()
}

// Recorder holds the service collectors.
type Recorder struct {
	submissions *prometheus.CounterVec
	evictions   prometheus.Counter
	exports     *prometheus.CounterVec
	held        prometheus.Gauge
}

// NewRecorder creates the collectors and registers them with reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scorekeeper_submissions_total",
			Help: "Score submissions by result (accepted, rejected).",
		}, []string{"result"}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scorekeeper_evictions_total",
			Help: "Records dropped by the retention cap.",
		}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scorekeeper_exports_total",
			Help: "Ranking exports by format and result (ok, failed).",
		}, []string{"format", "result"}),
		held: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scorekeeper_scores_held",
			Help: "Records currently retained.",
		}),
	}
	for _, c := range []prometheus.Collector{r.submissions, r.evictions, r.exports, r.held} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// OnEvent updates the series for one event.
func (r *Recorder) OnEvent(_ context.Context, e core.Event) {
	switch e.Type {
	case core.EventScoreSubmitted:
		r.submissions.WithLabelValues("accepted").Inc()
		r.held.Set(float64(e.Size))
	case core.EventSubmissionRejected:
		r.submissions.WithLabelValues("rejected").Inc()
	case core.EventScoreEvicted:
		r.evictions.Inc()
		r.held.Set(float64(e.Size))
	case core.EventSnapshotExported:
		r.exports.WithLabelValues(e.Format, "ok").Inc()
	case core.EventSnapshotExportFailed:
		r.exports.WithLabelValues(e.Format, "failed").Inc()
	}
}

// SetHeld seeds the gauge, e.g. with the count found at startup.
func (r *Recorder) SetHeld(n int) { r.held.Set(float64(n)) }

// Attach subscribes the recorder to every event type and returns a func
// that removes all the subscriptions.
func (r *Recorder) Attach(s Subscriber) func() {
	var unsubs []func()
	for _, typ := range core.AllEventTypes {
		unsubs = append(unsubs, s.Subscribe(typ, r.OnEvent))
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

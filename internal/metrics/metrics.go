// Package metrics holds the prometheus counters of the media services. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	TriggerUser     = "user"
	TriggerSchedule = "schedule"
)

type Metrics struct {
	Registry *prometheus.Registry

	trashed        prometheus.Counter
	restored       prometheus.Counter
	purged         *prometheus.CounterVec
	purgeFailures  *prometheus.CounterVec
	favoriteUpdate prometheus.Counter
	uploads        prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		trashed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "photo_api",
			Name:      "media_trashed_total",
			Help:      "Media items moved to the trash.",
		}),
		restored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "photo_api",
			Name:      "media_restored_total",
			Help:      "Media items restored from the trash.",
		}),
		purged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "photo_api",
			Name:      "media_purged_total",
			Help:      "Media items permanently deleted.",
		}, []string{"trigger"}),
		purgeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "photo_api",
			Name:      "purge_failures_total",
			Help:      "Per item purge failures by error kind.",
		}, []string{"kind"}),
		favoriteUpdate: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "photo_api",
			Name:      "favorite_updates_total",
			Help:      "Media items whose favorite flag was set.",
		}),
		uploads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "photo_api",
			Name:      "uploads_total",
			Help:      "Media items uploaded.",
		}),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.trashed,
		m.restored,
		m.purged,
		m.purgeFailures,
		m.favoriteUpdate,
		m.uploads,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Trashed(n int) {
	if m != nil {
		m.trashed.Add(float64(n))
	}
}

func (m *Metrics) Restored(n int) {
	if m != nil {
		m.restored.Add(float64(n))
	}
}

func (m *Metrics) Purged(trigger string, n int) {
	if m != nil {
		m.purged.WithLabelValues(trigger).Add(float64(n))
	}
}

func (m *Metrics) PurgeFailed(kind string) {
	if m != nil {
		m.purgeFailures.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) FavoriteUpdated(n int) {
	if m != nil {
		m.favoriteUpdate.Add(float64(n))
	}
}

func (m *Metrics) Uploaded() {
	if m != nil {
		m.uploads.Inc()
	}
}

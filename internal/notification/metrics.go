package notification

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes store state to Prometheus. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	Unread          prometheus.Gauge
	Total           prometheus.Gauge
	PersistFailures prometheus.Counter
	Expired         prometheus.Counter
	Deduplicated    prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Unread: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mediadash_notifications_unread",
			Help: "Number of pending notifications",
		}),
		Total: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mediadash_notifications_total",
			Help: "Number of notifications held in memory",
		}),
		PersistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mediadash_notification_persist_failures_total",
			Help: "Number of failed notification blob writes",
		}),
		Expired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mediadash_notifications_expired_total",
			Help: "Number of archived notifications removed by the expiry sweep",
		}),
		Deduplicated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mediadash_notifications_deduplicated_total",
			Help: "Number of notifications replaced or dropped as email duplicates",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.Unread, m.Total, m.PersistFailures, m.Expired, m.Deduplicated)
	}
	return m
}

func (m *Metrics) observe(unread, total int) {
	if m == nil {
		return
	}
	m.Unread.Set(float64(unread))
	m.Total.Set(float64(total))
}

func (m *Metrics) persistFailed() {
	if m == nil {
		return
	}
	m.PersistFailures.Inc()
}

func (m *Metrics) expired(n int) {
	if m == nil {
		return
	}
	m.Expired.Add(float64(n))
}

func (m *Metrics) deduplicated(n int) {
	if m == nil {
		return
	}
	m.Deduplicated.Add(float64(n))
}

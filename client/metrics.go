package client

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts session client activity. A nil *Metrics records nothing.
type Metrics struct {
	refreshes *prometheus.CounterVec
	retries   prometheus.Counter
	expired   prometheus.Counter
	requests  *prometheus.CounterVec
}

// NewMetrics creates the session client collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stockpulse",
			Subsystem: "session",
			Name:      "refresh_total",
			Help:      "Access token refresh calls by result.",
		}, []string{"result"}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stockpulse",
			Subsystem: "session",
			Name:      "retries_total",
			Help:      "Requests re-issued after a successful refresh.",
		}),
		expired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stockpulse",
			Subsystem: "session",
			Name:      "expired_total",
			Help:      "Sessions cleared because a refresh failed.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stockpulse",
			Subsystem: "session",
			Name:      "requests_total",
			Help:      "Round trips by response status code.",
		}, []string{"code"}),
	}
	for _, c := range []prometheus.Collector{m.refreshes, m.retries, m.expired, m.requests} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) refresh(result string) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(result).Inc()
}

func (m *Metrics) retry() {
	if m == nil {
		return
	}
	m.retries.Inc()
}

func (m *Metrics) expire() {
	if m == nil {
		return
	}
	m.expired.Inc()
}

func (m *Metrics) request(code string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(code).Inc()
}

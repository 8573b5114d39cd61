package h2conn

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the Prometheus collectors a Connection reports to. A nil
// *Metrics is valid and records nothing; a zero Metrics value is not, since
// its collectors are nil. Use NewMetrics to get one that is registered
// against a registry (prometheus.DefaultRegisterer if reg is nil).
type Metrics struct {
	FramesTotal            *prometheus.CounterVec
	StreamsOpen            prometheus.Gauge
	GoAwayTotal             *prometheus.CounterVec
	RstStreamTotal          *prometheus.CounterVec
	FlowControlStallsTotal prometheus.Counter
}

// NewMetrics constructs and registers the collectors. Registration errors
// (e.g. duplicate registration in tests) are ignored, matching the
// register-once-best-effort pattern common to long-lived server metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		FramesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "h2conn",
			Name:      "frames_total",
			Help:      "HTTP/2 frames processed, by type.",
		}, []string{"type"}),
		StreamsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "h2conn",
			Name:      "streams_open",
			Help:      "Currently open HTTP/2 streams, summed across connections.",
		}),
		GoAwayTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "h2conn",
			Name:      "goaway_total",
			Help:      "GOAWAY frames sent, by error code.",
		}, []string{"code"}),
		RstStreamTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "h2conn",
			Name:      "rststream_total",
			Help:      "RST_STREAM frames sent, by error code.",
		}, []string{"code"}),
		FlowControlStallsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "h2conn",
			Name:      "flow_control_stalls_total",
			Help:      "Writes parked waiting for a WINDOW_UPDATE.",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.FramesTotal, m.StreamsOpen, m.GoAwayTotal, m.RstStreamTotal, m.FlowControlStallsTotal,
	} {
		_ = reg.Register(c)
	}

	return m
}

func (m *Metrics) observeFrame(t FrameType) {
	if m != nil {
		m.FramesTotal.WithLabelValues(t.String()).Inc()
	}
}

func (m *Metrics) observeGoAway(code ErrorCode) {
	if m != nil {
		m.GoAwayTotal.WithLabelValues(code.String()).Inc()
	}
}

func (m *Metrics) observeRstStream(code ErrorCode) {
	if m != nil {
		m.RstStreamTotal.WithLabelValues(code.String()).Inc()
	}
}

func (m *Metrics) observeStall() {
	if m != nil {
		m.FlowControlStallsTotal.Inc()
	}
}

func (m *Metrics) streamOpened() {
	if m != nil {
		m.StreamsOpen.Inc()
	}
}

func (m *Metrics) streamClosed() {
	if m != nil {
		m.StreamsOpen.Dec()
	}
}

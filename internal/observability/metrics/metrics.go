package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	namespace = "cityvibes"
	subsystem = "relay"
)

// RelayMetrics exposes counters/histograms for the webhook relay.
type RelayMetrics struct {
	inboundTotal      *prometheus.CounterVec
	outboundTotal     *prometheus.CounterVec
	sheetLogTotal     *prometheus.CounterVec
	completionTotal   *prometheus.CounterVec
	completionLatency *prometheus.HistogramVec
	escalationTotal   *prometheus.CounterVec
	webhookLatency    *prometheus.HistogramVec
}

func NewRelayMetrics(reg prometheus.Registerer) *RelayMetrics {
	m := &RelayMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "inbound_webhook_total",
			Help:      "Total inbound WhatsApp webhooks by route and outcome",
		}, []string{"route", "status"}),
		outboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "outbound_total",
			Help:      "Total outbound WhatsApp sends",
		}, []string{"kind", "status"}),
		sheetLogTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "sheet_log_total",
			Help:      "Total spreadsheet log appends",
		}, []string{"sender", "status"}),
		completionTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "completion_total",
			Help:      "Total completion-service calls",
		}, []string{"purpose", "status"}),
		completionLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "completion_latency_seconds",
			Help:      "Latency of completion-service calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"purpose"}),
		escalationTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "escalation_total",
			Help:      "Total operator escalations",
		}, []string{"status"}),
		webhookLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "webhook_latency_seconds",
			Help:      "Latency of webhook processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.inboundTotal,
		m.outboundTotal,
		m.sheetLogTotal,
		m.completionTotal,
		m.completionLatency,
		m.escalationTotal,
		m.webhookLatency,
	)
	return m
}

func (m *RelayMetrics) ObserveInbound(route, status string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(route, status).Inc()
}

func (m *RelayMetrics) ObserveOutbound(kind, status string) {
	if m == nil {
		return
	}
	m.outboundTotal.WithLabelValues(kind, status).Inc()
}

func (m *RelayMetrics) ObserveSheetLog(sender, status string) {
	if m == nil {
		return
	}
	m.sheetLogTotal.WithLabelValues(sender, status).Inc()
}

// ObserveCompletion satisfies llm.Observer.
func (m *RelayMetrics) ObserveCompletion(purpose, status string, seconds float64) {
	if m == nil {
		return
	}
	m.completionTotal.WithLabelValues(purpose, status).Inc()
	m.completionLatency.WithLabelValues(purpose).Observe(seconds)
}

func (m *RelayMetrics) ObserveEscalation(status string) {
	if m == nil {
		return
	}
	m.escalationTotal.WithLabelValues(status).Inc()
}

func (m *RelayMetrics) ObserveWebhookLatency(route string, seconds float64) {
	if m == nil {
		return
	}
	m.webhookLatency.WithLabelValues(route).Observe(seconds)
}

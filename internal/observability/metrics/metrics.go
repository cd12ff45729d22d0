package metrics

import "github.com/prometheus/client_golang/prometheus"

// BotMetrics exposes counters/histograms for the conversation flow.
type BotMetrics struct {
	inboundTotal     *prometheus.CounterVec
	actionsTotal     *prometheus.CounterVec
	extractorLatency prometheus.Histogram
	dispatchErrors   *prometheus.CounterVec
}

func NewBotMetrics(reg prometheus.Registerer) *BotMetrics {
	m := &BotMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sportsreport",
			Subsystem: "bot",
			Name:      "inbound_messages_total",
			Help:      "Total inbound WhatsApp messages",
		}, []string{"status"}),
		actionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sportsreport",
			Subsystem: "bot",
			Name:      "actions_total",
			Help:      "Total resolved actions by kind and outcome",
		}, []string{"action", "outcome"}),
		extractorLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sportsreport",
			Subsystem: "bot",
			Name:      "extractor_latency_seconds",
			Help:      "Latency of intent extraction calls",
			Buckets:   prometheus.DefBuckets,
		}),
		dispatchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sportsreport",
			Subsystem: "bot",
			Name:      "dispatch_errors_total",
			Help:      "Directory mutation failures by action",
		}, []string{"action"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.actionsTotal, m.extractorLatency, m.dispatchErrors)
	return m
}

func (m *BotMetrics) ObserveInbound(status string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(status).Inc()
}

func (m *BotMetrics) ObserveAction(action, outcome string) {
	if m == nil {
		return
	}
	m.actionsTotal.WithLabelValues(action, outcome).Inc()
}

func (m *BotMetrics) ObserveExtractorLatency(seconds float64) {
	if m == nil {
		return
	}
	m.extractorLatency.Observe(seconds)
}

func (m *BotMetrics) ObserveDispatchError(action string) {
	if m == nil {
		return
	}
	m.dispatchErrors.WithLabelValues(action).Inc()
}

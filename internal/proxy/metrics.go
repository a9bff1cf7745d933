package proxy

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// 请求结束方式
const (
	outcomeResolved       = "resolved"
	outcomeRejected       = "rejected"
	outcomeTimeout        = "timeout"
	outcomeTransportError = "transport_error"
	outcomeCancelled      = "cancelled"
	outcomeClosed         = "closed"
)

// 入站请求结果
const (
	inboundOK        = "ok"
	inboundFailed    = "failed"
	inboundNoHandler = "no_handler"
)

// 响应丢弃原因
const (
	dropDuplicate = "duplicate"
	dropUnknown   = "unknown"
)

// metrics 代理指标
type metrics struct {
	reg prometheus.Registerer

	sent     *prometheus.CounterVec
	settled  *prometheus.CounterVec
	pending  prometheus.Gauge
	inbound  *prometheus.CounterVec
	dropped  *prometheus.CounterVec
	duration prometheus.Histogram

	collectors []prometheus.Collector
}

func newMetrics(reg prometheus.Registerer, contextName string) (*metrics, error) {
	labels := prometheus.Labels{"context": contextName}

	m := &metrics{
		reg: reg,
		sent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "msgproxy",
			Name:        "requests_sent_total",
			Help:        "Outbound requests by destination kind.",
			ConstLabels: labels,
		}, []string{"destination"}),
		settled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "msgproxy",
			Name:        "requests_settled_total",
			Help:        "Outbound requests by settlement outcome.",
			ConstLabels: labels,
		}, []string{"outcome"}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "msgproxy",
			Name:        "pending_requests",
			Help:        "Outbound requests waiting for a result.",
			ConstLabels: labels,
		}),
		inbound: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "msgproxy",
			Name:        "inbound_requests_total",
			Help:        "Inbound requests by dispatch result.",
			ConstLabels: labels,
		}, []string{"result"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "msgproxy",
			Name:        "dropped_responses_total",
			Help:        "Responses dropped because no pending request matched.",
			ConstLabels: labels,
		}, []string{"reason"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "msgproxy",
			Name:        "request_duration_seconds",
			Help:        "Time from send to settlement.",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}

	m.collectors = []prometheus.Collector{m.sent, m.settled, m.pending, m.inbound, m.dropped, m.duration}
	for _, c := range m.collectors {
		if err := reg.Register(c); err != nil {
			m.unregister()
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return m, nil
}

// unregister 注销全部指标
func (m *metrics) unregister() error {
	failed := 0
	for _, c := range m.collectors {
		if !m.reg.Unregister(c) {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("unregister metrics: %d collectors not registered", failed)
	}
	return nil
}

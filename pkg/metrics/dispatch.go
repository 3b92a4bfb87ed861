package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DispatchMetrics counts per-recipient outcomes of message batches.
type DispatchMetrics struct {
	sent    *prometheus.CounterVec
	failed  *prometheus.CounterVec
	batches *prometheus.CounterVec
}

// NewDispatchMetrics registers the dispatch metrics on the provided registerer.
func NewDispatchMetrics(reg prometheus.Registerer) *DispatchMetrics {
	if reg == nil {
		return &DispatchMetrics{}
	}
	sent := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "messages_sent_total",
		Help: "Messages accepted by the transport provider.",
	}, []string{"channel"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "messages_failed_total",
		Help: "Messages rejected by the transport provider.",
	}, []string{"channel"})
	batches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "message_batches_total",
		Help: "Dispatch batches by terminal outcome.",
	}, []string{"outcome"})
	reg.MustRegister(sent, failed, batches)
	return &DispatchMetrics{
		sent:    sent,
		failed:  failed,
		batches: batches,
	}
}

// IncSent increments the sent counter for the channel.
func (d *DispatchMetrics) IncSent(channel string) {
	if d == nil || d.sent == nil {
		return
	}
	d.sent.WithLabelValues(channel).Inc()
}

// IncFailed increments the failed counter for the channel.
func (d *DispatchMetrics) IncFailed(channel string) {
	if d == nil || d.failed == nil {
		return
	}
	d.failed.WithLabelValues(channel).Inc()
}

// IncBatch increments the batch counter for the outcome.
func (d *DispatchMetrics) IncBatch(outcome string) {
	if d == nil || d.batches == nil {
		return
	}
	d.batches.WithLabelValues(outcome).Inc()
}

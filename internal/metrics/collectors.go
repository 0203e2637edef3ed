package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collectors agrupa los contadores del servicio; se registran en el registry
// que se pase, así cada Tracker de test usa el suyo.
type Collectors struct {
	TouchPoints    *prometheus.CounterVec
	Rejected       prometheus.Counter
	Conversions    *prometheus.CounterVec
	Enrichment     *prometheus.CounterVec
	Alerts         *prometheus.CounterVec
	ActionFailures *prometheus.CounterVec
	LeadScore      prometheus.Histogram
}

func NewCollectors(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		TouchPoints: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: "leadintel", Name: "touchpoints_total", Help: "Touchpoints recorded by event type."},
			[]string{"event_type"}),
		Rejected: prometheus.NewCounter(
			prometheus.CounterOpts{Namespace: "leadintel", Name: "touchpoints_rejected_total", Help: "Touchpoints rejected by validation."}),
		Conversions: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: "leadintel", Name: "conversions_total", Help: "Conversion paths built by converting channel."},
			[]string{"channel"}),
		Enrichment: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: "leadintel", Subsystem: "enrichment", Name: "lookups_total", Help: "Enrichment lookups by result (hit, miss, error)."},
			[]string{"result"}),
		Alerts: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: "leadintel", Subsystem: "alerts", Name: "emitted_total", Help: "Alerts emitted by type and priority."},
			[]string{"type", "priority"}),
		ActionFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: "leadintel", Subsystem: "alerts", Name: "action_failures_total", Help: "Notification actions that failed after retries."},
			[]string{"action"}),
		LeadScore: prometheus.NewHistogram(
			prometheus.HistogramOpts{Namespace: "leadintel", Name: "lead_overall_score", Help: "Overall lead score on each rescoring.", Buckets: prometheus.LinearBuckets(0, 10, 11)}),
	}
	if reg != nil {
		reg.MustRegister(c.TouchPoints, c.Rejected, c.Conversions, c.Enrichment, c.Alerts, c.ActionFailures, c.LeadScore)
	}
	return c
}

package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	gateOutcomes   *prom.CounterVec
	gateDuration   *prom.HistogramVec
	recoveryResets prom.Counter
	persistedKeys  prom.Gauge
}

// NewPrometheusRecorder constructs the metrics and registers them with reg.
// A nil reg gets a private registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		gateOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "walletboot",
			Name:      "gate_outcomes_total",
			Help:      "Startup gate evaluations by outcome",
		}, []string{"gate", "outcome"}),
		gateDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "walletboot",
			Name:      "gate_duration_seconds",
			Help:      "Duration of startup gate evaluations including the remote fetch",
			Buckets:   prom.DefBuckets,
		}, []string{"gate"}),
		recoveryResets: prom.NewCounter(prom.CounterOpts{
			Namespace: "walletboot",
			Name:      "recovery_resets_total",
			Help:      "Wallet resets performed after an empty keychain was detected",
		}),
		persistedKeys: prom.NewGauge(prom.GaugeOpts{
			Namespace: "walletboot",
			Name:      "persisted_keys",
			Help:      "Number of persisted state keys seen on the last read",
		}),
	}
	reg.MustRegister(pr.gateOutcomes, pr.gateDuration, pr.recoveryResets, pr.persistedKeys)
	return pr
}

func (p *PrometheusRecorder) IncGateOutcome(gate string, outcome Outcome) {
	if p == nil {
		return
	}
	p.gateOutcomes.WithLabelValues(gate, string(outcome)).Inc()
}

func (p *PrometheusRecorder) ObserveGateDuration(gate string, d time.Duration) {
	if p == nil {
		return
	}
	p.gateDuration.WithLabelValues(gate).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRecoveryReset() {
	if p == nil {
		return
	}
	p.recoveryResets.Inc()
}

func (p *PrometheusRecorder) SetPersistedKeys(n int) {
	if p == nil {
		return
	}
	p.persistedKeys.Set(float64(n))
}

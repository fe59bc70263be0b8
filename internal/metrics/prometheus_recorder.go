package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "opentimer"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	frames           *prom.CounterVec
	dispatchDuration prom.Histogram
	passwordChecks   *prom.CounterVec
	displayEvents    *prom.CounterVec
	alarmsTriggered  prom.Counter
	output           prom.Gauge
	countdown        prom.Gauge
	armed            prom.Gauge
}

// NewPrometheusRecorder constructs the metrics and registers them with reg.
// A nil reg gets a fresh registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}

	pr := &PrometheusRecorder{
		frames: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Received frames by outcome",
		}, []string{"outcome"}),
		dispatchDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_duration_seconds",
			Help:      "Time spent decoding and applying one frame",
			Buckets:   prom.ExponentialBuckets(0.0001, 4, 8),
		}),
		passwordChecks: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "password_checks_total",
			Help:      "Password presentations by result",
		}, []string{"result"}),
		displayEvents: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "display_events_total",
			Help:      "Display notifications by kind",
		}, []string{"kind"}),
		alarmsTriggered: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "alarms_triggered_total",
			Help:      "Alarm entries that matched and actuated",
		}),
		output: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "output_active",
			Help:      "1 while the output is driven on",
		}),
		countdown: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "countdown_remaining",
			Help:      "Remaining countdown register value",
		}),
		armed: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "armed",
			Help:      "1 while the schedule is armed",
		}),
	}

	reg.MustRegister(
		pr.frames,
		pr.dispatchDuration,
		pr.passwordChecks,
		pr.displayEvents,
		pr.alarmsTriggered,
		pr.output,
		pr.countdown,
		pr.armed,
	)

	return pr
}

func (p *PrometheusRecorder) IncFrame(outcome FrameOutcome) {
	if p == nil {
		return
	}

	p.frames.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) ObserveDispatchDuration(d time.Duration) {
	if p == nil {
		return
	}

	p.dispatchDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncPasswordCheck(correct bool) {
	if p == nil {
		return
	}

	res := "incorrect"
	if correct {
		res = "correct"
	}

	p.passwordChecks.WithLabelValues(res).Inc()
}

func (p *PrometheusRecorder) IncDisplayEvent(kind string) {
	if p == nil {
		return
	}

	p.displayEvents.WithLabelValues(kind).Inc()
}

func (p *PrometheusRecorder) IncAlarmTriggered() {
	if p == nil {
		return
	}

	p.alarmsTriggered.Inc()
}

func (p *PrometheusRecorder) SetOutput(on bool) {
	if p == nil {
		return
	}

	p.output.Set(boolValue(on))
}

func (p *PrometheusRecorder) SetCountdown(n int) {
	if p == nil {
		return
	}

	p.countdown.Set(float64(n))
}

func (p *PrometheusRecorder) SetArmed(armed bool) {
	if p == nil {
		return
	}

	p.armed.Set(boolValue(armed))
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}

	return 0
}

package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"ecusim/internal/control"
)

// Labels for the stage_active_rows_total counter.
const (
	ActiveBTOOverride = "bto_override"
	ActiveBTORamp     = "bto_ramp"
	ActiveCruise      = control.StageCruise
	ActiveCoastdown   = control.StageCoastdown
	ActiveIdle        = control.StageIdle
	ActiveLimpCap     = control.StageLimpCap
	ActiveRevCut      = "rev_cut"
	ActiveSlew        = control.StageSlew
)

var speedBuckets = prometheus.LinearBuckets(0, 250, 9)

// Recorder accumulates statistics for one run.
type Recorder struct {
	registry *prometheus.Registry

	rows           *prometheus.CounterVec
	stageActive    *prometheus.CounterVec
	limpLatches    prometheus.Counter
	revActivations prometheus.Counter
	peakSpeed      prometheus.Gauge
	finalSpeed     prometheus.Gauge
	speed          prometheus.Histogram
	duration       prometheus.Gauge
	completed      prometheus.Gauge

	peak int
}

// NewRecorder registers the run collectors under namespace. An empty
// namespace falls back to "ecusim".
func NewRecorder(namespace string) *Recorder {
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		namespace = "ecusim"
	}
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "rows_total",
			Help:      "Rows processed, by engine state",
		}, []string{"engine_state"}),
		stageActive: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "stage_active_rows_total",
			Help:      "Rows on which a controller stage changed or governed the speed",
		}, []string{"stage"}),
		limpLatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "limp_latch_events_total",
			Help:      "Times limp mode latched",
		}),
		revActivations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "rev_cut_activations_total",
			Help:      "Times the hard rev cut engaged",
		}),
		peakSpeed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "engine_speed_peak_rpm",
			Help:      "Highest emitted engine speed",
		}),
		finalSpeed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "engine_speed_final_rpm",
			Help:      "Engine speed emitted on the last row",
		}),
		speed: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "engine_speed_rpm",
			Help:      "Distribution of emitted engine speed while the engine is on",
			Buckets:   speedBuckets,
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "duration_seconds",
			Help:      "Wall time of the run",
		}),
		completed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "completed_timestamp_seconds",
			Help:      "Unix time the run finished",
		}),
	}
	r.registry.MustRegister(
		r.rows,
		r.stageActive,
		r.limpLatches,
		r.revActivations,
		r.peakSpeed,
		r.finalSpeed,
		r.speed,
		r.duration,
		r.completed,
	)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Observe folds one row into the run statistics.
func (r *Recorder) Observe(out control.RowOutput, trace control.Trace) {
	if out.EngineState == 0 {
		r.rows.WithLabelValues("off").Inc()
		r.finalSpeed.Set(float64(out.EngineSpeed))
		return
	}
	r.rows.WithLabelValues("on").Inc()
	r.speed.Observe(float64(out.EngineSpeed))
	r.finalSpeed.Set(float64(out.EngineSpeed))
	if out.EngineSpeed > r.peak {
		r.peak = out.EngineSpeed
		r.peakSpeed.Set(float64(out.EngineSpeed))
	}

	active := func(label string, ok bool) {
		if ok {
			r.stageActive.WithLabelValues(label).Inc()
		}
	}
	active(ActiveBTOOverride, trace.BTOOverride)
	active(ActiveBTORamp, trace.BTORamping)
	active(ActiveCruise, trace.CruiseActive)
	active(ActiveCoastdown, trace.DragActive)
	active(ActiveIdle, trace.IdleActive)
	active(ActiveLimpCap, trace.LimpCapped)
	active(ActiveRevCut, trace.RevCutActive)
	active(ActiveSlew, trace.SlewLimited)

	if trace.LimpLatchedNow {
		r.limpLatches.Inc()
	}
	if trace.RevCutActivated {
		r.revActivations.Inc()
	}
}

// Finish stamps the run duration and completion time.
func (r *Recorder) Finish(elapsed time.Duration, at time.Time) {
	r.duration.Set(elapsed.Seconds())
	r.completed.Set(float64(at.Unix()))
}

// WriteTextfile atomically writes the registry to path in the text
// exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

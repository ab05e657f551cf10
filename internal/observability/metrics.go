package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sherreria/DualModeEeeSimulator/sim"
)

// RunCollector bundles the Prometheus metrics describing one simulation run.
// The values are set once from the final statistics and exported as a
// node-exporter textfile.
type RunCollector struct {
	gatherer prometheus.Gatherer

	Frames           *prometheus.CounterVec
	Bytes            *prometheus.CounterVec
	FrameDelay       *prometheus.GaugeVec
	StateTime        *prometheus.GaugeVec
	StateShare       *prometheus.GaugeVec
	PowerConsumption prometheus.Gauge
	CoalescingCycles prometheus.Counter
	AdaptiveValue    prometheus.Gauge
}

// NewRunCollector registers the run metrics against reg, defaulting to the
// global Prometheus registry when nil.
func NewRunCollector(reg prometheus.Registerer) (*RunCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &RunCollector{
		gatherer: gatherer,
		Frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eee_frames_total",
			Help: "Frames handled by the link, labeled by outcome (received, sent, dropped).",
		}, []string{"outcome"}),
		Bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eee_bytes_total",
			Help: "Bytes handled by the link, labeled by direction (received, sent).",
		}, []string{"direction"}),
		FrameDelay: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "eee_frame_delay_seconds",
			Help: "Per-frame queueing delay, labeled by statistic (average, max).",
		}, []string{"stat"}),
		StateTime: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "eee_state_time_seconds",
			Help: "Simulated time spent in each link state.",
		}, []string{"state"}),
		StateShare: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "eee_state_share_ratio",
			Help: "Fraction of the simulated time spent in each link state.",
		}, []string{"state"}),
		PowerConsumption: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "eee_power_consumption_ratio",
			Help: "Average power draw relative to an always-active link.",
		}),
		CoalescingCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "eee_coalescing_cycles_total",
			Help: "Number of wake-ups with frames queued.",
		}),
		AdaptiveValue: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "eee_adaptive_value",
			Help: "Time-weighted average of the derived threshold (frames) or delay bound (seconds).",
		}),
	}

	for name, col := range map[string]prometheus.Collector{
		"eee_frames_total":            c.Frames,
		"eee_bytes_total":             c.Bytes,
		"eee_frame_delay_seconds":     c.FrameDelay,
		"eee_state_time_seconds":      c.StateTime,
		"eee_state_share_ratio":       c.StateShare,
		"eee_power_consumption_ratio": c.PowerConsumption,
		"eee_coalescing_cycles_total": c.CoalescingCycles,
		"eee_adaptive_value":          c.AdaptiveValue,
	} {
		if err := reg.Register(col); err != nil {
			return nil, fmt.Errorf("register %s: %w", name, err)
		}
	}
	return c, nil
}

// Observe copies the final statistics of a run into the metrics.
func (c *RunCollector) Observe(st *sim.Statistics) {
	c.Frames.WithLabelValues("received").Add(float64(st.FramesReceived))
	c.Frames.WithLabelValues("sent").Add(float64(st.FramesSent))
	c.Frames.WithLabelValues("dropped").Add(float64(st.FramesDropped))
	c.Bytes.WithLabelValues("received").Add(float64(st.BytesReceived))
	c.Bytes.WithLabelValues("sent").Add(float64(st.BytesSent))

	c.FrameDelay.WithLabelValues("average").Set(st.AverageDelay() / sim.PicosPerSecond)
	c.FrameDelay.WithLabelValues("max").Set(float64(st.MaxDelay) / sim.PicosPerSecond)

	for _, s := range sim.AllLinkStates {
		c.StateTime.WithLabelValues(s.String()).Set(float64(st.TimeInState[s]) / sim.PicosPerSecond)
		c.StateShare.WithLabelValues(s.String()).Set(st.StateShare(s))
	}
	c.PowerConsumption.Set(st.PowerConsumption())
	c.CoalescingCycles.Add(float64(st.CoalescingCycles))

	if st.Mode.IsAdaptive() {
		v := st.AverageAdaptiveValue()
		if st.Mode.AdaptsDelayBound() {
			v /= sim.PicosPerSecond
		}
		c.AdaptiveValue.Set(v)
	}
}

// WriteTextfile writes every gathered metric to path in the Prometheus text format.
func (c *RunCollector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.gatherer); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}

package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PingerCollector bundles Prometheus metrics for the simulator and
// provides helpers to wire them into the HTTP surface.
type PingerCollector struct {
	gatherer prometheus.Gatherer

	Observations    *prometheus.CounterVec
	SkippedTicks    *prometheus.CounterVec
	PositionUpdates *prometheus.CounterVec
	StepDurations   prometheus.Histogram

	HTTPRequests  *prometheus.CounterVec
	HTTPDurations *prometheus.HistogramVec

	ScenarioPingers prometheus.Gauge
}

// NewPingerCollector registers simulator metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewPingerCollector(reg prometheus.Registerer) (*PingerCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	observations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pinger_observations_total",
		Help: "Total number of published pinger observations, labeled by pinger.",
	}, []string{"pinger"})
	observations, err := registerCounterVec(reg, observations, "pinger_observations_total")
	if err != nil {
		return nil, err
	}

	skipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pinger_ticks_skipped_total",
		Help: "Total number of simulation ticks dropped by the per-pinger rate gate.",
	}, []string{"pinger"})
	skipped, err = registerCounterVec(reg, skipped, "pinger_ticks_skipped_total")
	if err != nil {
		return nil, err
	}

	positionUpdates := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pinger_position_updates_total",
		Help: "Total number of beacon position updates, labeled by pinger and source (http, udp).",
	}, []string{"pinger", "source"})
	positionUpdates, err = registerCounterVec(reg, positionUpdates, "pinger_position_updates_total")
	if err != nil {
		return nil, err
	}

	stepDurations := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sim_step_duration_seconds",
		Help:    "Wall-clock duration of one simulation engine step.",
		Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
	})
	stepDurations, err = registerHistogram(reg, stepDurations, "sim_step_duration_seconds")
	if err != nil {
		return nil, err
	}

	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "api_requests_total",
		Help: "Total number of handled API requests, labeled by route, method, and status code.",
	}, []string{"route", "method", "code"})
	httpRequests, err = registerCounterVec(reg, httpRequests, "api_requests_total")
	if err != nil {
		return nil, err
	}

	httpDurations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "api_request_duration_seconds",
		Help:    "API request latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"route", "method"})
	httpDurations, err = registerHistogramVec(reg, httpDurations, "api_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	pingers, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "scenario_pingers",
		Help: "Number of pingers configured in the loaded scenario.",
	}), "scenario_pingers")
	if err != nil {
		return nil, err
	}

	return &PingerCollector{
		gatherer:        gatherer,
		Observations:    observations,
		SkippedTicks:    skipped,
		PositionUpdates: positionUpdates,
		StepDurations:   stepDurations,
		HTTPRequests:    httpRequests,
		HTTPDurations:   httpDurations,
		ScenarioPingers: pingers,
	}, nil
}

// ObservationAccepted satisfies the engine's StepRecorder interface.
func (c *PingerCollector) ObservationAccepted(pingerID string) {
	if c == nil || c.Observations == nil {
		return
	}
	c.Observations.WithLabelValues(pingerID).Inc()
}

// TickSkipped satisfies the engine's StepRecorder interface.
func (c *PingerCollector) TickSkipped(pingerID string) {
	if c == nil || c.SkippedTicks == nil {
		return
	}
	c.SkippedTicks.WithLabelValues(pingerID).Inc()
}

// StepDuration satisfies the engine's StepRecorder interface.
func (c *PingerCollector) StepDuration(d time.Duration) {
	if c == nil || c.StepDurations == nil {
		return
	}
	c.StepDurations.Observe(d.Seconds())
}

// PositionUpdated records an inbound beacon position update.
func (c *PingerCollector) PositionUpdated(pingerID, source string) {
	if c == nil || c.PositionUpdates == nil {
		return
	}
	c.PositionUpdates.WithLabelValues(pingerID, source).Inc()
}

// SetScenarioPingers records the number of configured pingers.
func (c *PingerCollector) SetScenarioPingers(n int) {
	if c == nil || c.ScenarioPingers == nil {
		return
	}
	c.ScenarioPingers.Set(float64(n))
}

// InstrumentHandler wraps an HTTP handler with request count and latency
// recording under the given route label.
func (c *PingerCollector) InstrumentHandler(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		if c == nil {
			return
		}
		if c.HTTPRequests != nil {
			c.HTTPRequests.WithLabelValues(route, r.Method, fmt.Sprintf("%d", sw.code)).Inc()
		}
		if c.HTTPDurations != nil {
			c.HTTPDurations.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
		}
	})
}

// Handler exposes a ready-to-use /metrics handler.
func (c *PingerCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}

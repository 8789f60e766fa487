// Package api exposes the simulator's HTTP control surface: pinger
// status queries and beacon position updates.
package api

import (
	"encoding/json"
	"math"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/signalsfoundry/pinger-simulator/core"
	"github.com/signalsfoundry/pinger-simulator/internal/logging"
	"github.com/signalsfoundry/pinger-simulator/internal/observability"
	"github.com/signalsfoundry/pinger-simulator/timectrl"
)

// Server wires the engine snapshot accessors and position mutation into
// HTTP handlers.
type Server struct {
	engine    *core.SimulationEngine
	clock     timectrl.SimClock
	collector *observability.PingerCollector
	log       logging.Logger
}

// NewServer builds the HTTP surface. The collector may be nil in tests.
func NewServer(engine *core.SimulationEngine, clock timectrl.SimClock, collector *observability.PingerCollector, log logging.Logger) *Server {
	if log == nil {
		log = logging.Noop()
	}
	return &Server{
		engine:    engine,
		clock:     clock,
		collector: collector,
		log:       log,
	}
}

// Handler returns the routed and instrumented handler tree.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /healthz", s.route("/healthz", http.HandlerFunc(s.health)))
	mux.Handle("GET /api/pingers", s.route("/api/pingers", http.HandlerFunc(s.listPingers)))
	mux.Handle("GET /api/pingers/{id}", s.route("/api/pingers/{id}", http.HandlerFunc(s.getPinger)))
	mux.Handle("POST /api/pingers/{id}/position", s.route("/api/pingers/{id}/position", http.HandlerFunc(s.setPosition)))
	return s.requestID(mux)
}

// route applies per-route metrics instrumentation when a collector is
// configured.
func (s *Server) route(name string, h http.Handler) http.Handler {
	if s.collector == nil {
		return h
	}
	return s.collector.InstrumentHandler(name, h)
}

// requestID stamps every request with a request_id for log correlation.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r.WithContext(logging.ContextWithRequestID(r.Context(), id)))
	})
}

type positionPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type observationPayload struct {
	FrameID   string    `json:"frame_id"`
	Time      time.Time `json:"time"`
	Range     float64   `json:"range_m"`
	Bearing   float64   `json:"bearing_rad"`
	Elevation float64   `json:"elevation_rad"`
}

type pingerPayload struct {
	ID              string              `json:"id"`
	FrameID         string              `json:"frame_id"`
	UpdatePeriodMs  float64             `json:"update_period_ms"`
	BeaconPosition  positionPayload     `json:"beacon_position"`
	Accepted        uint64              `json:"accepted"`
	Skipped         uint64              `json:"skipped"`
	LastObservation *observationPayload `json:"last_observation,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"vehicle":  s.engine.VehicleID(),
		"sim_time": s.clock.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (s *Server) listPingers(w http.ResponseWriter, r *http.Request) {
	statuses := s.engine.Statuses()
	out := make([]pingerPayload, 0, len(statuses))
	for _, st := range statuses {
		out = append(out, toPayload(st))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getPinger(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	st, ok := s.engine.Status(id)
	if !ok {
		http.Error(w, "unknown pinger", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toPayload(st))
}

func (s *Server) setPosition(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	pinger, ok := s.engine.Pinger(id)
	if !ok {
		http.Error(w, "unknown pinger", http.StatusNotFound)
		return
	}

	var payload positionPayload
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		http.Error(w, "bad position payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if !finite(payload.X) || !finite(payload.Y) || !finite(payload.Z) {
		http.Error(w, "position components must be finite", http.StatusBadRequest)
		return
	}

	pinger.SetPosition(core.Vec3{X: payload.X, Y: payload.Y, Z: payload.Z})
	if s.collector != nil {
		s.collector.PositionUpdated(id, "http")
	}

	s.log.Info(r.Context(), "beacon position updated",
		logging.String("request_id", logging.RequestIDFromContext(r.Context())),
		logging.String("pinger", id),
		logging.Float("x", payload.X),
		logging.Float("y", payload.Y),
		logging.Float("z", payload.Z),
	)

	w.WriteHeader(http.StatusNoContent)
}

func toPayload(st core.PingerStatus) pingerPayload {
	p := pingerPayload{
		ID:             st.ID,
		FrameID:        st.FrameID,
		UpdatePeriodMs: float64(st.UpdatePeriod) / float64(time.Millisecond),
		BeaconPosition: positionPayload{
			X: st.BeaconPosition.X,
			Y: st.BeaconPosition.Y,
			Z: st.BeaconPosition.Z,
		},
		Accepted: st.Accepted,
		Skipped:  st.Skipped,
	}
	if st.LastObservation != nil {
		p.LastObservation = &observationPayload{
			FrameID:   st.LastObservation.FrameID,
			Time:      st.LastObservation.Time,
			Range:     st.LastObservation.Range,
			Bearing:   st.LastObservation.Bearing,
			Elevation: st.LastObservation.Elevation,
		}
	}
	return p
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

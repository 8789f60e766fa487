package core

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/signalsfoundry/pinger-simulator/model"
)

// Publisher receives every accepted observation. Implementations must
// not block for long; they run on the tick path.
type Publisher func(model.Observation)

// StepRecorder receives engine-level measurements. It is satisfied by
// the observability collector; a nil recorder disables recording.
type StepRecorder interface {
	ObservationAccepted(pingerID string)
	TickSkipped(pingerID string)
	StepDuration(d time.Duration)
}

// PingerStatus is a copy-out snapshot of one pinger's state for the
// control API.
type PingerStatus struct {
	ID              string
	FrameID         string
	UpdatePeriod    time.Duration
	BeaconPosition  Vec3
	Accepted        uint64
	Skipped         uint64
	LastObservation *model.Observation
}

// SimulationEngine owns the vehicle pose and the pinger set. Step is
// invoked once per simulation tick by the time controller; accepted
// observations fan out to the publisher.
type SimulationEngine struct {
	vehicleID string
	motion    MotionModel
	publish   Publisher
	recorder  StepRecorder

	mu      sync.RWMutex
	pose    Pose
	pingers map[string]*Pinger
	order   []string // stable iteration order for Step and snapshots
	stats   map[string]*pingerStats
}

type pingerStats struct {
	accepted uint64
	skipped  uint64
	last     *model.Observation
}

// NewSimulationEngine builds an engine around a vehicle motion model.
func NewSimulationEngine(vehicleID string, motion MotionModel, publish Publisher, recorder StepRecorder) *SimulationEngine {
	if publish == nil {
		publish = func(model.Observation) {}
	}
	return &SimulationEngine{
		vehicleID: vehicleID,
		motion:    motion,
		publish:   publish,
		recorder:  recorder,
		pingers:   make(map[string]*Pinger),
		stats:     make(map[string]*pingerStats),
	}
}

// AddPinger registers a pinger with the engine. Later registrations
// with the same ID replace the earlier one.
func (se *SimulationEngine) AddPinger(p *Pinger) {
	se.mu.Lock()
	defer se.mu.Unlock()
	if _, exists := se.pingers[p.ID()]; !exists {
		se.order = append(se.order, p.ID())
	}
	se.pingers[p.ID()] = p
	se.stats[p.ID()] = &pingerStats{}
}

// Pinger returns the registered pinger with the given ID, if any.
func (se *SimulationEngine) Pinger(id string) (*Pinger, bool) {
	se.mu.RLock()
	defer se.mu.RUnlock()
	p, ok := se.pingers[id]
	return p, ok
}

// VehicleID returns the identifier of the simulated vehicle.
func (se *SimulationEngine) VehicleID() string { return se.vehicleID }

// VehiclePose returns the pose computed by the most recent step.
func (se *SimulationEngine) VehiclePose() Pose {
	se.mu.RLock()
	defer se.mu.RUnlock()
	return se.pose
}

// Step advances the simulation by one tick: update the vehicle pose,
// then offer the tick to every pinger and publish what they accept.
func (se *SimulationEngine) Step(ctx context.Context, simTime time.Time) {
	start := time.Now()

	tracer := otel.Tracer("pinger-simulator/core")
	_, span := tracer.Start(ctx, "SimulationEngine.Step")
	defer span.End()

	pose := se.motion.Pose(simTime)

	se.mu.Lock()
	se.pose = pose
	se.mu.Unlock()

	accepted := 0
	for _, id := range se.snapshotOrder() {
		p, ok := se.Pinger(id)
		if !ok {
			continue
		}

		obs, ok := p.Observe(simTime, pose)
		if !ok {
			se.recordSkip(id)
			continue
		}
		se.recordObservation(obs)
		se.publish(obs)
		accepted++
	}

	span.SetAttributes(
		attribute.String("vehicle.id", se.vehicleID),
		attribute.Int("observations.accepted", accepted),
	)

	if se.recorder != nil {
		se.recorder.StepDuration(time.Since(start))
	}
}

// Statuses returns copy-out snapshots of all pingers in registration
// order.
func (se *SimulationEngine) Statuses() []PingerStatus {
	se.mu.RLock()
	defer se.mu.RUnlock()

	out := make([]PingerStatus, 0, len(se.order))
	for _, id := range se.order {
		out = append(out, se.statusLocked(id))
	}
	return out
}

// Status returns the snapshot for one pinger.
func (se *SimulationEngine) Status(id string) (PingerStatus, bool) {
	se.mu.RLock()
	defer se.mu.RUnlock()
	if _, ok := se.pingers[id]; !ok {
		return PingerStatus{}, false
	}
	return se.statusLocked(id), true
}

func (se *SimulationEngine) statusLocked(id string) PingerStatus {
	p := se.pingers[id]
	st := se.stats[id]

	status := PingerStatus{
		ID:             p.ID(),
		FrameID:        p.FrameID(),
		UpdatePeriod:   p.UpdatePeriod(),
		BeaconPosition: p.Position(),
		Accepted:       st.accepted,
		Skipped:        st.skipped,
	}
	if st.last != nil {
		obs := *st.last
		status.LastObservation = &obs
	}
	return status
}

func (se *SimulationEngine) snapshotOrder() []string {
	se.mu.RLock()
	defer se.mu.RUnlock()
	out := make([]string, len(se.order))
	copy(out, se.order)
	return out
}

func (se *SimulationEngine) recordObservation(obs model.Observation) {
	se.mu.Lock()
	if st, ok := se.stats[obs.PingerID]; ok {
		st.accepted++
		cp := obs
		st.last = &cp
	}
	se.mu.Unlock()

	if se.recorder != nil {
		se.recorder.ObservationAccepted(obs.PingerID)
	}
}

func (se *SimulationEngine) recordSkip(id string) {
	se.mu.Lock()
	if st, ok := se.stats[id]; ok {
		st.skipped++
	}
	se.mu.Unlock()

	if se.recorder != nil {
		se.recorder.TickSkipped(id)
	}
}

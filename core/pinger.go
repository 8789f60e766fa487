package core

import (
	"fmt"
	"sync"
	"time"

	"github.com/signalsfoundry/pinger-simulator/model"
)

// Pinger simulates a range/bearing/elevation localisation sensor tracking
// a single acoustic beacon. Each accepted tick it transforms the beacon
// position into the vehicle's sensor frame, perturbs the spherical
// coordinates through per-axis noise models, and returns the estimate.
//
// The beacon position may be moved at any time from any goroutine via
// SetPosition; Observe is driven by the simulation tick. The two only
// share the position value, guarded by a mutex held just long enough to
// copy it.
type Pinger struct {
	id      string
	frameID string
	period  time.Duration

	rangeNoise     NoiseModel
	bearingNoise   NoiseModel
	elevationNoise NoiseModel

	mu       sync.Mutex
	position Vec3

	// lastUpdate is the simulation time of the last accepted tick. The
	// zero value makes the first tick always eligible. Only the tick
	// goroutine touches it.
	lastUpdate time.Time
}

// NewPinger validates the definition and builds the sensor model.
// The update rate must be positive; noise specs must be well formed.
func NewPinger(def model.PingerDefinition) (*Pinger, error) {
	if def.ID == "" {
		return nil, fmt.Errorf("pinger: id is required")
	}
	if def.UpdateRateHz <= 0 {
		return nil, fmt.Errorf("pinger %q: update rate must be > 0 Hz, got %v", def.ID, def.UpdateRateHz)
	}

	rangeNoise, err := NewNoiseModel(def.RangeNoise)
	if err != nil {
		return nil, fmt.Errorf("pinger %q: range noise: %w", def.ID, err)
	}
	bearingNoise, err := NewNoiseModel(def.BearingNoise)
	if err != nil {
		return nil, fmt.Errorf("pinger %q: bearing noise: %w", def.ID, err)
	}
	elevationNoise, err := NewNoiseModel(def.ElevationNoise)
	if err != nil {
		return nil, fmt.Errorf("pinger %q: elevation noise: %w", def.ID, err)
	}

	return &Pinger{
		id:             def.ID,
		frameID:        def.FrameID,
		period:         time.Duration(float64(time.Second) / def.UpdateRateHz),
		rangeNoise:     rangeNoise,
		bearingNoise:   bearingNoise,
		elevationNoise: elevationNoise,
		position:       Vec3{X: def.Position.X, Y: def.Position.Y, Z: def.Position.Z},
	}, nil
}

// ID returns the pinger's identifier.
func (p *Pinger) ID() string { return p.id }

// FrameID returns the frame identifier stamped on observations.
func (p *Pinger) FrameID() string { return p.frameID }

// UpdatePeriod returns the minimum simulation-time interval between
// accepted ticks.
func (p *Pinger) UpdatePeriod() time.Duration { return p.period }

// SetPosition moves the beacon. Safe to call concurrently with Observe
// and with itself.
func (p *Pinger) SetPosition(pos Vec3) {
	p.mu.Lock()
	p.position = pos
	p.mu.Unlock()
}

// Position returns the current beacon position.
func (p *Pinger) Position() Vec3 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.position
}

// Observe offers a simulation tick to the sensor. Ticks arriving before
// the configured update period has elapsed are dropped (ok == false), so
// the output rate stays bounded no matter how fast the host steps. On an
// accepted tick it returns the noisy estimate of the beacon relative to
// sensorPose, stamped with simTime.
func (p *Pinger) Observe(simTime time.Time, sensorPose Pose) (model.Observation, bool) {
	if simTime.Sub(p.lastUpdate) < p.period {
		return model.Observation{}, false
	}
	p.lastUpdate = simTime

	p.mu.Lock()
	beacon := p.position
	p.mu.Unlock()

	// The lock is released before any trigonometry or noise sampling so a
	// burst of inbound position updates cannot stall the tick path.
	rng, bearing, elevation := Spherical(sensorPose.ToLocal(beacon))

	return model.Observation{
		PingerID:  p.id,
		FrameID:   p.frameID,
		Time:      simTime,
		Range:     p.rangeNoise.Sample(rng),
		Bearing:   p.bearingNoise.Sample(bearing),
		Elevation: p.elevationNoise.Sample(elevation),
	}, true
}

package core

import (
	"math"
	"time"

	"github.com/signalsfoundry/pinger-simulator/model"
)

// MotionModel produces the vehicle's pose for a given simulation time.
type MotionModel interface {
	Pose(simTime time.Time) Pose
}

// StaticMotionModel keeps the vehicle at a fixed pose.
type StaticMotionModel struct {
	Fixed Pose
}

// Pose for static motion always returns the configured pose.
func (m *StaticMotionModel) Pose(time.Time) Pose { return m.Fixed }

// CircuitMotionModel drives the vehicle around a deterministic
// figure-eight centred on the start position, heading aligned with the
// instantaneous velocity. It gives search-pattern-like coverage without
// any physics integration.
type CircuitMotionModel struct {
	Centre  Vec3
	RadiusM float64
	Period  time.Duration
	Epoch   time.Time
}

// Pose returns the circuit pose at simTime.
func (m *CircuitMotionModel) Pose(simTime time.Time) Pose {
	period := m.Period
	if period <= 0 {
		period = 2 * time.Minute
	}
	radius := m.RadiusM
	if radius <= 0 {
		radius = 25
	}

	elapsed := simTime.Sub(m.Epoch)
	phase := math.Mod(elapsed.Seconds(), period.Seconds()) / period.Seconds()
	w := 2 * math.Pi * phase

	// Lissajous figure-eight: x traces the full circle, y half of it,
	// keeping the path inside the configured radius.
	x := radius * math.Cos(w)
	y := radius * 0.5 * math.Sin(2*w)

	vx := -radius * math.Sin(w)
	vy := radius * math.Cos(2*w)
	yaw := math.Atan2(vy, vx)

	return Pose{
		Position:    Vec3{X: m.Centre.X + x, Y: m.Centre.Y + y, Z: m.Centre.Z},
		Orientation: QuatFromYawPitchRoll(yaw, 0, 0),
	}
}

// NewMotionModel chooses a MotionModel for the vehicle definition.
// Unknown kinds fall back to static at the start pose.
func NewMotionModel(def model.VehicleDefinition, epoch time.Time) MotionModel {
	start := Vec3{X: def.Position.X, Y: def.Position.Y, Z: def.Position.Z}

	switch def.Motion.Kind {
	case model.MotionCircuit:
		return &CircuitMotionModel{
			Centre:  start,
			RadiusM: def.Motion.RadiusM,
			Period:  def.Motion.Period,
			Epoch:   epoch,
		}
	default:
		return &StaticMotionModel{
			Fixed: Pose{
				Position:    start,
				Orientation: QuatFromYawPitchRoll(def.YawRad, 0, 0),
			},
		}
	}
}

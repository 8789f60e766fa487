package model

import "time"

// MotionKind selects how the vehicle carrying the sensor moves.
type MotionKind string

const (
	MotionStatic  MotionKind = "static"
	MotionCircuit MotionKind = "circuit"
)

// MotionSpec is the configuration-time description of a vehicle motion
// model. RadiusM and Period apply to the circuit kind.
type MotionSpec struct {
	Kind    MotionKind
	RadiusM float64
	Period  time.Duration
}

// VehicleDefinition describes the platform the pinger receiver is
// mounted on: a start pose plus a motion model.
type VehicleDefinition struct {
	ID string

	// Start position in the world frame, metres, and heading (yaw) in
	// radians. Motion models treat these as the circuit centre.
	Position Position
	YawRad   float64

	Motion MotionSpec
}

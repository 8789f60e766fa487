package model

import "time"

// Observation is a single noisy range/bearing/elevation estimate of a
// beacon as seen from the vehicle's sensor frame. Angles are radians,
// range is metres, Time is simulation time.
type Observation struct {
	PingerID string
	FrameID  string
	Time     time.Time

	Range     float64
	Bearing   float64
	Elevation float64
}

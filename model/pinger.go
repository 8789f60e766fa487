package model

// NoiseKind selects the distribution a noise model samples from.
type NoiseKind string

const (
	NoiseNone     NoiseKind = "none"
	NoiseGaussian NoiseKind = "gaussian"
	NoiseUniform  NoiseKind = "uniform"
)

// NoiseSpec is the configuration-time description of a noise model.
// Mean/StdDev apply to the gaussian kind, HalfWidth to the uniform kind.
type NoiseSpec struct {
	Kind      NoiseKind
	Mean      float64
	StdDev    float64
	HalfWidth float64
	Seed      uint64 // optional; 0 means derive a seed
}

// PingerDefinition describes one simulated acoustic beacon and the
// receiver that estimates its position.
type PingerDefinition struct {
	ID      string
	FrameID string // frame identifier stamped on every observation

	UpdateRateHz float64

	// Position is the beacon's initial position in the world frame, metres.
	Position Position

	RangeNoise     NoiseSpec
	BearingNoise   NoiseSpec
	ElevationNoise NoiseSpec
}

// Position is a point in the world frame, metres.
type Position struct {
	X float64
	Y float64
	Z float64
}

package core

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/signalsfoundry/pinger-simulator/model"
)

// Scenario holds the validated definitions loaded from a scenario file:
// one vehicle and the set of pingers mounted on it.
type Scenario struct {
	Vehicle model.VehicleDefinition
	Pingers []model.PingerDefinition
}

// internal JSON shapes – kept unexported so the on-disk format can
// evolve independently of the model types.
type scenarioJSON struct {
	Vehicle vehicleJSON  `json:"vehicle"`
	Pingers []pingerJSON `json:"pingers"`
}

type vehicleJSON struct {
	ID       string       `json:"id"`
	Position positionJSON `json:"position"`
	YawDeg   float64      `json:"yaw_deg"`
	Motion   *motionJSON  `json:"motion"`
}

type motionJSON struct {
	Kind    string  `json:"kind"` // "static" | "circuit"
	RadiusM float64 `json:"radius_m"`
	Period  string  `json:"period"` // Go duration string, e.g. "120s"
}

type pingerJSON struct {
	ID             string       `json:"id"`
	FrameID        string       `json:"frame_id"`
	UpdateRateHz   float64      `json:"update_rate_hz"`
	Position       positionJSON `json:"position"`
	RangeNoise     *noiseJSON   `json:"range_noise"`
	BearingNoise   *noiseJSON   `json:"bearing_noise"`
	ElevationNoise *noiseJSON   `json:"elevation_noise"`
}

type noiseJSON struct {
	Kind      string  `json:"kind"` // "none" | "gaussian" | "uniform"
	Mean      float64 `json:"mean"`
	StdDev    float64 `json:"stddev"`
	HalfWidth float64 `json:"half_width"`
	Seed      uint64  `json:"seed"`
}

type positionJSON struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// LoadScenario reads a JSON scenario from r and returns the validated
// definitions. Structural errors and invalid definitions (missing IDs,
// non-positive update rates, unknown motion or noise kinds) fail the
// load; construction-time checks in NewPinger are not repeated here
// beyond what is needed for a useful error message.
func LoadScenario(r io.Reader) (*Scenario, error) {
	var payload scenarioJSON
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("LoadScenario: decode failed: %w", err)
	}

	if payload.Vehicle.ID == "" {
		return nil, fmt.Errorf("LoadScenario: vehicle id is required")
	}
	if len(payload.Pingers) == 0 {
		return nil, fmt.Errorf("LoadScenario: at least one pinger is required")
	}

	vehicle := model.VehicleDefinition{
		ID:       payload.Vehicle.ID,
		Position: model.Position(payload.Vehicle.Position),
		YawRad:   payload.Vehicle.YawDeg * degToRad,
	}

	motion, err := motionFromJSON(payload.Vehicle.Motion)
	if err != nil {
		return nil, fmt.Errorf("LoadScenario: vehicle %q: %w", payload.Vehicle.ID, err)
	}
	vehicle.Motion = motion

	scenario := &Scenario{Vehicle: vehicle}
	seen := make(map[string]bool, len(payload.Pingers))

	for _, jp := range payload.Pingers {
		if jp.ID == "" {
			return nil, fmt.Errorf("LoadScenario: pinger with empty id")
		}
		if seen[jp.ID] {
			return nil, fmt.Errorf("LoadScenario: duplicate pinger id %q", jp.ID)
		}
		seen[jp.ID] = true

		if jp.UpdateRateHz <= 0 {
			return nil, fmt.Errorf("LoadScenario: pinger %q: update_rate_hz must be > 0", jp.ID)
		}

		def := model.PingerDefinition{
			ID:           jp.ID,
			FrameID:      jp.FrameID,
			UpdateRateHz: jp.UpdateRateHz,
			Position:     model.Position(jp.Position),
		}
		if def.FrameID == "" {
			def.FrameID = jp.ID
		}

		if def.RangeNoise, err = noiseFromJSON(jp.RangeNoise); err != nil {
			return nil, fmt.Errorf("LoadScenario: pinger %q: range_noise: %w", jp.ID, err)
		}
		if def.BearingNoise, err = noiseFromJSON(jp.BearingNoise); err != nil {
			return nil, fmt.Errorf("LoadScenario: pinger %q: bearing_noise: %w", jp.ID, err)
		}
		if def.ElevationNoise, err = noiseFromJSON(jp.ElevationNoise); err != nil {
			return nil, fmt.Errorf("LoadScenario: pinger %q: elevation_noise: %w", jp.ID, err)
		}

		scenario.Pingers = append(scenario.Pingers, def)
	}

	return scenario, nil
}

const degToRad = math.Pi / 180.0

func motionFromJSON(js *motionJSON) (model.MotionSpec, error) {
	if js == nil {
		return model.MotionSpec{Kind: model.MotionStatic}, nil
	}

	switch strings.ToLower(strings.TrimSpace(js.Kind)) {
	case "", "static":
		return model.MotionSpec{Kind: model.MotionStatic}, nil
	case "circuit":
		spec := model.MotionSpec{Kind: model.MotionCircuit, RadiusM: js.RadiusM}
		if js.Period != "" {
			period, err := time.ParseDuration(js.Period)
			if err != nil {
				return model.MotionSpec{}, fmt.Errorf("bad motion period %q: %w", js.Period, err)
			}
			if period <= 0 {
				return model.MotionSpec{}, fmt.Errorf("motion period must be > 0, got %s", period)
			}
			spec.Period = period
		}
		return spec, nil
	default:
		return model.MotionSpec{}, fmt.Errorf("unknown motion kind %q", js.Kind)
	}
}

func noiseFromJSON(js *noiseJSON) (model.NoiseSpec, error) {
	if js == nil {
		return model.NoiseSpec{Kind: model.NoiseNone}, nil
	}

	kind := model.NoiseKind(strings.ToLower(strings.TrimSpace(js.Kind)))
	switch kind {
	case "", model.NoiseNone:
		return model.NoiseSpec{Kind: model.NoiseNone}, nil
	case model.NoiseGaussian:
		if js.StdDev < 0 {
			return model.NoiseSpec{}, fmt.Errorf("stddev must be >= 0, got %v", js.StdDev)
		}
		return model.NoiseSpec{Kind: kind, Mean: js.Mean, StdDev: js.StdDev, Seed: js.Seed}, nil
	case model.NoiseUniform:
		if js.HalfWidth < 0 {
			return model.NoiseSpec{}, fmt.Errorf("half_width must be >= 0, got %v", js.HalfWidth)
		}
		return model.NoiseSpec{Kind: kind, HalfWidth: js.HalfWidth, Seed: js.Seed}, nil
	default:
		return model.NoiseSpec{}, fmt.Errorf("unknown noise kind %q", js.Kind)
	}
}

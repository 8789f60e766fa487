package core

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/signalsfoundry/pinger-simulator/model"
)

const validScenario = `{
  "vehicle": {
    "id": "usv1",
    "position": { "x": 1, "y": 2, "z": 0 },
    "yaw_deg": 90,
    "motion": { "kind": "circuit", "radius_m": 40, "period": "2m" }
  },
  "pingers": [
    {
      "id": "pinger1",
      "frame_id": "usv1/pinger",
      "update_rate_hz": 1,
      "position": { "x": 25, "y": -10, "z": -12 },
      "range_noise": { "kind": "gaussian", "stddev": 0.3 },
      "bearing_noise": { "kind": "uniform", "half_width": 0.05 }
    },
    {
      "id": "pinger2",
      "update_rate_hz": 0.5,
      "position": { "x": -60, "y": 35, "z": -8 }
    }
  ]
}`

func TestLoadScenario_Valid(t *testing.T) {
	scenario, err := LoadScenario(strings.NewReader(validScenario))
	if err != nil {
		t.Fatalf("LoadScenario: %v", err)
	}

	wantVehicle := model.VehicleDefinition{
		ID:       "usv1",
		Position: model.Position{X: 1, Y: 2, Z: 0},
		YawRad:   math.Pi / 2,
		Motion:   model.MotionSpec{Kind: model.MotionCircuit, RadiusM: 40, Period: 2 * time.Minute},
	}
	if diff := cmp.Diff(wantVehicle, scenario.Vehicle, cmpopts.EquateApprox(1e-12, 0)); diff != "" {
		t.Fatalf("vehicle mismatch (-want +got):\n%s", diff)
	}

	if len(scenario.Pingers) != 2 {
		t.Fatalf("got %d pingers, want 2", len(scenario.Pingers))
	}

	wantFirst := model.PingerDefinition{
		ID:           "pinger1",
		FrameID:      "usv1/pinger",
		UpdateRateHz: 1,
		Position:     model.Position{X: 25, Y: -10, Z: -12},
		RangeNoise:   model.NoiseSpec{Kind: model.NoiseGaussian, StdDev: 0.3},
		BearingNoise: model.NoiseSpec{Kind: model.NoiseUniform, HalfWidth: 0.05},
		// elevation noise omitted in JSON -> none
		ElevationNoise: model.NoiseSpec{Kind: model.NoiseNone},
	}
	if diff := cmp.Diff(wantFirst, scenario.Pingers[0]); diff != "" {
		t.Fatalf("pinger1 mismatch (-want +got):\n%s", diff)
	}

	// Frame id defaults to the pinger id when omitted.
	if scenario.Pingers[1].FrameID != "pinger2" {
		t.Fatalf("pinger2 frame id = %q, want %q", scenario.Pingers[1].FrameID, "pinger2")
	}
}

func TestLoadScenario_Errors(t *testing.T) {
	cases := []struct {
		name string
		json string
	}{
		{name: "not json", json: `{`},
		{name: "missing vehicle id", json: `{"vehicle": {}, "pingers": [{"id": "p", "update_rate_hz": 1}]}`},
		{name: "no pingers", json: `{"vehicle": {"id": "v"}, "pingers": []}`},
		{
			name: "pinger without id",
			json: `{"vehicle": {"id": "v"}, "pingers": [{"update_rate_hz": 1}]}`,
		},
		{
			name: "duplicate pinger id",
			json: `{"vehicle": {"id": "v"}, "pingers": [{"id": "p", "update_rate_hz": 1}, {"id": "p", "update_rate_hz": 1}]}`,
		},
		{
			name: "zero update rate",
			json: `{"vehicle": {"id": "v"}, "pingers": [{"id": "p", "update_rate_hz": 0}]}`,
		},
		{
			name: "negative update rate",
			json: `{"vehicle": {"id": "v"}, "pingers": [{"id": "p", "update_rate_hz": -1}]}`,
		},
		{
			name: "unknown motion kind",
			json: `{"vehicle": {"id": "v", "motion": {"kind": "warp"}}, "pingers": [{"id": "p", "update_rate_hz": 1}]}`,
		},
		{
			name: "bad motion period",
			json: `{"vehicle": {"id": "v", "motion": {"kind": "circuit", "period": "soon"}}, "pingers": [{"id": "p", "update_rate_hz": 1}]}`,
		},
		{
			name: "unknown noise kind",
			json: `{"vehicle": {"id": "v"}, "pingers": [{"id": "p", "update_rate_hz": 1, "range_noise": {"kind": "cauchy"}}]}`,
		},
		{
			name: "negative stddev",
			json: `{"vehicle": {"id": "v"}, "pingers": [{"id": "p", "update_rate_hz": 1, "range_noise": {"kind": "gaussian", "stddev": -1}}]}`,
		},
		{
			name: "unknown field",
			json: `{"vehicle": {"id": "v"}, "pingers": [{"id": "p", "update_rate_hz": 1}], "extra": true}`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := LoadScenario(strings.NewReader(tc.json)); err == nil {
				t.Fatalf("expected error for scenario %s", tc.name)
			}
		})
	}
}

package core

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/stat"

	"github.com/signalsfoundry/pinger-simulator/model"
)

func TestNoNoise_PassesThrough(t *testing.T) {
	n := NoNoise{}
	for _, v := range []float64{0, -3.5, 1e9, math.Pi} {
		if got := n.Sample(v); got != v {
			t.Fatalf("Sample(%v) = %v, want unchanged", v, got)
		}
	}
}

func TestGaussianNoise_MeanConvergesToTrueValue(t *testing.T) {
	const trueValue = 42.0
	g, err := NewGaussianNoise(0, 0.5, 12345)
	if err != nil {
		t.Fatalf("NewGaussianNoise: %v", err)
	}

	samples := make([]float64, 20000)
	for i := range samples {
		samples[i] = g.Sample(trueValue)
	}

	// Statistical sanity: the sample mean should sit near the true value
	// well within 5 standard errors (0.5/sqrt(20000) ≈ 0.0035).
	mean := stat.Mean(samples, nil)
	if math.Abs(mean-trueValue) > 0.02 {
		t.Fatalf("sample mean = %v, want within 0.02 of %v", mean, trueValue)
	}

	stddev := stat.StdDev(samples, nil)
	if math.Abs(stddev-0.5) > 0.05 {
		t.Fatalf("sample stddev = %v, want within 0.05 of 0.5", stddev)
	}
}

func TestGaussianNoise_ZeroStdDevAddsOnlyBias(t *testing.T) {
	g, err := NewGaussianNoise(1.5, 0, 1)
	if err != nil {
		t.Fatalf("NewGaussianNoise: %v", err)
	}
	if got := g.Sample(10); got != 11.5 {
		t.Fatalf("Sample(10) = %v, want 11.5", got)
	}
}

func TestUniformNoise_StaysWithinHalfWidth(t *testing.T) {
	const trueValue = -7.0
	const halfWidth = 0.25

	u, err := NewUniformNoise(halfWidth, 99)
	if err != nil {
		t.Fatalf("NewUniformNoise: %v", err)
	}

	for i := 0; i < 5000; i++ {
		got := u.Sample(trueValue)
		if got < trueValue-halfWidth || got > trueValue+halfWidth {
			t.Fatalf("sample %v outside [%v, %v]", got, trueValue-halfWidth, trueValue+halfWidth)
		}
	}
}

func TestNewNoiseModel_Selection(t *testing.T) {
	cases := []struct {
		name    string
		spec    model.NoiseSpec
		wantErr bool
	}{
		{name: "default none", spec: model.NoiseSpec{}},
		{name: "explicit none", spec: model.NoiseSpec{Kind: model.NoiseNone}},
		{name: "gaussian", spec: model.NoiseSpec{Kind: model.NoiseGaussian, StdDev: 0.1}},
		{name: "uniform", spec: model.NoiseSpec{Kind: model.NoiseUniform, HalfWidth: 0.1}},
		{name: "negative stddev", spec: model.NoiseSpec{Kind: model.NoiseGaussian, StdDev: -1}, wantErr: true},
		{name: "negative half-width", spec: model.NoiseSpec{Kind: model.NoiseUniform, HalfWidth: -1}, wantErr: true},
		{name: "unknown kind", spec: model.NoiseSpec{Kind: "cauchy"}, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := NewNoiseModel(tc.spec)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %+v", tc.spec)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewNoiseModel(%+v): %v", tc.spec, err)
			}
			if got := m.Sample(1.0); math.IsNaN(got) || math.IsInf(got, 0) {
				t.Fatalf("Sample(1.0) = %v, want finite", got)
			}
		})
	}
}

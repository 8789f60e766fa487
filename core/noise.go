package core

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/signalsfoundry/pinger-simulator/model"
)

// NoiseModel perturbs a true sensor value. Implementations may hold
// internal random state but must return a finite value for finite input.
type NoiseModel interface {
	Sample(trueValue float64) float64
}

// NoNoise passes values through unchanged.
type NoNoise struct{}

func (NoNoise) Sample(trueValue float64) float64 { return trueValue }

// GaussianNoise adds normally distributed noise to the true value.
type GaussianNoise struct {
	dist distuv.Normal
}

// NewGaussianNoise builds an additive Gaussian noise model. A zero seed
// derives one from the global generator so independent models do not
// share a sample stream.
func NewGaussianNoise(mean, stddev float64, seed uint64) (*GaussianNoise, error) {
	if stddev < 0 {
		return nil, fmt.Errorf("gaussian noise: stddev must be >= 0, got %v", stddev)
	}
	return &GaussianNoise{
		dist: distuv.Normal{
			Mu:    mean,
			Sigma: stddev,
			Src:   newSource(seed),
		},
	}, nil
}

func (g *GaussianNoise) Sample(trueValue float64) float64 {
	if g.dist.Sigma == 0 {
		return trueValue + g.dist.Mu
	}
	return trueValue + g.dist.Rand()
}

// UniformNoise adds noise drawn uniformly from [-HalfWidth, +HalfWidth].
type UniformNoise struct {
	dist distuv.Uniform
}

// NewUniformNoise builds an additive uniform noise model.
func NewUniformNoise(halfWidth float64, seed uint64) (*UniformNoise, error) {
	if halfWidth < 0 {
		return nil, fmt.Errorf("uniform noise: half-width must be >= 0, got %v", halfWidth)
	}
	return &UniformNoise{
		dist: distuv.Uniform{
			Min: -halfWidth,
			Max: halfWidth,
			Src: newSource(seed),
		},
	}, nil
}

func (u *UniformNoise) Sample(trueValue float64) float64 {
	if u.dist.Min == u.dist.Max {
		return trueValue
	}
	return trueValue + u.dist.Rand()
}

// NewNoiseModel selects a concrete noise model from its spec. An empty
// kind defaults to none so scenario files can omit noise blocks.
func NewNoiseModel(spec model.NoiseSpec) (NoiseModel, error) {
	switch spec.Kind {
	case model.NoiseNone, "":
		return NoNoise{}, nil
	case model.NoiseGaussian:
		return NewGaussianNoise(spec.Mean, spec.StdDev, spec.Seed)
	case model.NoiseUniform:
		return NewUniformNoise(spec.HalfWidth, spec.Seed)
	default:
		return nil, fmt.Errorf("unknown noise kind %q", spec.Kind)
	}
}

func newSource(seed uint64) rand.Source {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
}

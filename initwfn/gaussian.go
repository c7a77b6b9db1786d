package initwfn

import (
	"math/rand"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// GaussianConfig implements a configuration of Gaussian weight
// initialization with an explicit seeded source
type GaussianConfig struct {
	Mean   float64
	Stddev float64
	Seed   uint64
}

// NewGaussian returns a new Gaussian weight initializer
func NewGaussian(mean, stddev float64, seed uint64) (*InitWFn, error) {
	config := GaussianConfig{
		Mean:   mean,
		Stddev: stddev,
		Seed:   seed,
	}

	return newInitWFn(config)
}

// Type returns the type of initialization algorithm described by the
// configuration
func (g GaussianConfig) Type() Type {
	return Gaussian
}

// Create returns the weight initialization algorithm as a Gorgonia
// InitWFn
func (g GaussianConfig) Create() G.InitWFn {
	rng := rand.New(rand.NewSource(int64(g.Seed)))

	return func(dt tensor.Dtype, s ...int) interface{} {
		size := tensor.Shape(s).TotalSize()
		backing := make([]float64, size)
		for i := range backing {
			backing[i] = rng.NormFloat64()*g.Stddev + g.Mean
		}
		return backing
	}
}

package initwfn

import (
	"math"
	"math/rand"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// GlorotNConfig implements a configuration of the Glorot Normal
// initialization algorithm. Sampling uses an explicit seeded source so
// that identical configurations always produce identical weights.
type GlorotNConfig struct {
	Gain float64
	Seed uint64
}

// NewGlorotN returns a new Glorot Normal weight initializer
func NewGlorotN(gain float64, seed uint64) (*InitWFn, error) {
	config := GlorotNConfig{
		Gain: gain,
		Seed: seed,
	}

	return newInitWFn(config)
}

// Type returns the type of initialization algorithm described by the
// configuration
func (g GlorotNConfig) Type() Type {
	return GlorotN
}

// Create returns the weight initialization algorithm as a Gorgonia
// InitWFn
func (g GlorotNConfig) Create() G.InitWFn {
	rng := rand.New(rand.NewSource(int64(g.Seed)))

	return func(dt tensor.Dtype, s ...int) interface{} {
		fanIn, fanOut := fans(s)
		stddev := g.Gain * math.Sqrt(2.0/float64(fanIn+fanOut))

		size := tensor.Shape(s).TotalSize()
		backing := make([]float64, size)
		for i := range backing {
			backing[i] = rng.NormFloat64() * stddev
		}
		return backing
	}
}

// GlorotUConfig implements a configuration of the Glorot Uniform
// initialization algorithm with an explicit seeded source
type GlorotUConfig struct {
	Gain float64
	Seed uint64
}

// NewGlorotU returns a new Glorot Uniform weight initializer
func NewGlorotU(gain float64, seed uint64) (*InitWFn, error) {
	config := GlorotUConfig{
		Gain: gain,
		Seed: seed,
	}

	return newInitWFn(config)
}

// Type returns the type of initialization algorithm described by the
// configuration
func (g GlorotUConfig) Type() Type {
	return GlorotU
}

// Create returns the weight initialization algorithm as a Gorgonia
// InitWFn
func (g GlorotUConfig) Create() G.InitWFn {
	rng := rand.New(rand.NewSource(int64(g.Seed)))

	return func(dt tensor.Dtype, s ...int) interface{} {
		fanIn, fanOut := fans(s)
		limit := g.Gain * math.Sqrt(6.0/float64(fanIn+fanOut))

		size := tensor.Shape(s).TotalSize()
		backing := make([]float64, size)
		for i := range backing {
			backing[i] = (rng.Float64()*2.0 - 1.0) * limit
		}
		return backing
	}
}

// fans returns the fan-in and fan-out of a weight tensor shape
func fans(s []int) (fanIn, fanOut int) {
	switch len(s) {
	case 0:
		return 1, 1
	case 1:
		return s[0], s[0]
	default:
		return s[0], s[1]
	}
}

// Package environment outlines the interfaces and structs needed to
// implement concrete environments
package environment

import (
	"gonum.org/v1/gonum/mat"

	"github.com/lgandara/dprl/spec"
	"github.com/lgandara/dprl/timestep"
)

// Starter implements a distribution of starting states and samples
// starting states for environments
type Starter interface {
	Start() mat.Vector
}

// Environment implements a simulated environment that an agent
// interacts with through a reset/step contract.
//
// Reset begins a new episode and returns its first timestep. Step
// advances the environment by one action and returns the resulting
// timestep, whose StepType and EndType report whether and how the
// episode ended. Any error returned by Step is the environment's own;
// callers propagate such errors without interpretation.
type Environment interface {
	Reset() timestep.TimeStep
	Step(action mat.Vector) (timestep.TimeStep, error)
	ObservationSpec() spec.Environment
	ActionSpec() spec.Environment
}

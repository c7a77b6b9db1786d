// Package timestep implements timesteps of the agent-environment interaction
package timestep

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// StepType denotes the type of step that a TimeStep can be, either a
// first environmental step, a middle step, or a last step
type StepType int

const (
	First StepType = iota
	Mid
	Last
)

func (s StepType) String() string {
	switch s {
	case First:
		return "First"
	case Last:
		return "Last"
	default:
		return "Mid"
	}
}

// EndType denotes how an episode ended. A Last timestep is either
// Terminated (the environment reached a terminal state) or Truncated
// (a step limit cut the episode short). Both end the reward sequence
// and are treated identically by learning algorithms in this module.
type EndType int

const (
	// Nil is the EndType of any non-terminal timestep
	Nil EndType = iota
	Terminated
	Truncated
)

func (e EndType) String() string {
	switch e {
	case Terminated:
		return "Terminated"
	case Truncated:
		return "Truncated"
	default:
		return "Nil"
	}
}

// TimeStep packages together a single timestep in an environment
type TimeStep struct {
	stepType    StepType
	endType     EndType
	Reward      float64
	Observation mat.Vector
	Number      int
}

// New returns a new non-terminal TimeStep
func New(t StepType, r float64, o mat.Vector, n int) TimeStep {
	return TimeStep{t, Nil, r, o, n}
}

// NewLast returns a new episode-ending TimeStep with the given EndType
func NewLast(e EndType, r float64, o mat.Vector, n int) TimeStep {
	return TimeStep{Last, e, r, o, n}
}

// First returns whether a TimeStep is the first in an episode
func (t TimeStep) First() bool {
	return t.stepType == First
}

// Mid returns whether a TimeStep is a middle step in an episode
func (t TimeStep) Mid() bool {
	return t.stepType == Mid
}

// Last returns whether a TimeStep ends an episode, through either
// termination or truncation
func (t TimeStep) Last() bool {
	return t.stepType == Last
}

// Terminated returns whether a TimeStep ends an episode by reaching a
// terminal environment state
func (t TimeStep) Terminated() bool {
	return t.endType == Terminated
}

// Truncated returns whether a TimeStep ends an episode by hitting a
// step limit
func (t TimeStep) Truncated() bool {
	return t.endType == Truncated
}

func (t TimeStep) String() string {
	str := "TimeStep | Type: %v  |  End: %v  |  Reward:  %.2f  |  " +
		"Step Number:  %v"

	return fmt.Sprintf(str, t.stepType, t.endType, t.Reward, t.Number)
}

// Package cartpole implements the Cartpole classic control environment
package cartpole

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/lgandara/dprl/environment"
	"github.com/lgandara/dprl/spec"
	ts "github.com/lgandara/dprl/timestep"
	"github.com/lgandara/dprl/utils/floatutils"
)

const (
	// Physical constants
	Gravity        float64 = 9.8
	CartMass       float64 = 1.0
	PoleMass       float64 = 0.1
	TotalMass      float64 = CartMass + PoleMass
	HalfPoleLength float64 = 0.5  // half of pole length
	ForceMag       float64 = 10.0 // Magnitude of force applied
	Dt             float64 = 0.02 // seconds between state updates

	// Episode-ending bounds on state variables
	PositionBounds float64 = 2.4
	FailAngle      float64 = 12.0 * math.Pi / 180.0

	// Bounds (+/-) for starting states
	StartBounds float64 = 0.05

	// Discrete actions
	MinDiscreteAction int = 0
	MaxDiscreteAction int = 1

	// Reward granted on every step, including the terminal one
	StepReward float64 = 1.0
)

// Cartpole implements the classic control environment Cartpole. A pole
// is attached to a cart which can accelerate left or right along a
// frictionless track, and the agent must keep the pole upright for as
// long as possible.
//
// The state features are continuous and consist of the cart's x
// position and velocity, as well as the pole's angle from the positive
// y-axis and the pole's angular velocity.
//
// Actions are discrete and determine the force applied to the cart:
//
//	Action	Meaning
//	  0		Accelerate left
//	  1		Accelerate right
//
// Episodes terminate when the cart leaves the track bounds or the pole
// falls past the failure angle, and truncate at stepLimit steps. A
// reward of +1 is given on every step, so the episode return equals
// the number of steps the pole stayed up.
type Cartpole struct {
	env.Starter
	lastStep  ts.TimeStep
	stepLimit int

	positionBounds r1.Interval
	failAngle      float64
}

// New constructs a new Cartpole environment. Episodes are truncated
// after stepLimit steps.
func New(starter env.Starter, stepLimit int) (*Cartpole, ts.TimeStep) {
	positionBounds := r1.Interval{Min: -PositionBounds, Max: PositionBounds}

	state := starter.Start()
	firstStep := ts.New(ts.First, 0.0, state, 0)

	cartpole := &Cartpole{
		Starter:        starter,
		lastStep:       firstStep,
		stepLimit:      stepLimit,
		positionBounds: positionBounds,
		failAngle:      FailAngle,
	}

	return cartpole, firstStep
}

// NewDefault constructs a Cartpole with the conventional uniform
// [-0.05, 0.05) start-state distribution and a 500-step limit
func NewDefault(seed uint64) (*Cartpole, ts.TimeStep) {
	bounds := r1.Interval{Min: -StartBounds, Max: StartBounds}
	starter := env.NewUniformStarter([]r1.Interval{
		bounds,
		bounds,
		bounds,
		bounds,
	}, seed)

	return New(starter, 500)
}

// Reset resets the environment and returns a starting state drawn from
// the environment Starter
func (c *Cartpole) Reset() ts.TimeStep {
	state := c.Start()
	startStep := ts.New(ts.First, 0, state, 0)
	c.lastStep = startStep

	return startStep
}

// ActionSpec returns the action specification of the environment
func (c *Cartpole) ActionSpec() spec.Environment {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{float64(MinDiscreteAction)})
	upperBound := mat.NewVecDense(1, []float64{float64(MaxDiscreteAction)})

	return spec.NewEnvironment(shape, spec.Action, lowerBound,
		upperBound, spec.Discrete)
}

// ObservationSpec returns the observation specification of the
// environment
func (c *Cartpole) ObservationSpec() spec.Environment {
	shape := mat.NewVecDense(4, nil)

	lower := []float64{c.positionBounds.Min, math.Inf(-1),
		-c.failAngle, math.Inf(-1)}
	lowerBound := mat.NewVecDense(4, lower)

	upper := []float64{c.positionBounds.Max, math.Inf(1),
		c.failAngle, math.Inf(1)}
	upperBound := mat.NewVecDense(4, upper)

	return spec.NewEnvironment(shape, spec.Observation, lowerBound,
		upperBound, spec.Continuous)
}

// Step takes one environmental step given action a and returns the
// next state as a timestep.TimeStep
func (c *Cartpole) Step(a mat.Vector) (ts.TimeStep, error) {
	intAction := int(a.AtVec(0))
	if intAction < MinDiscreteAction || intAction > MaxDiscreteAction {
		return ts.TimeStep{}, fmt.Errorf("step: illegal action %v ∉ [%v, %v]",
			intAction, MinDiscreteAction, MaxDiscreteAction)
	}

	// Get state variables
	state := c.lastStep.Observation
	x, xDot := state.AtVec(0), state.AtVec(1)
	th, thDot := state.AtVec(2), state.AtVec(3)

	// Magnify the force in the direction of the action
	force := ForceMag
	if intAction == 0 {
		force = -ForceMag
	}

	// Calculate physical variables to determine the next state
	cosTheta := math.Cos(th)
	sinTheta := math.Sin(th)

	poleMassLength := PoleMass * HalfPoleLength

	temp := (force + poleMassLength*thDot*thDot*sinTheta) / TotalMass
	thAcc := (Gravity*sinTheta - cosTheta*temp) / (HalfPoleLength *
		(4.0/3.0 - PoleMass*cosTheta*cosTheta/TotalMass))
	xAcc := temp - poleMassLength*thAcc*cosTheta/TotalMass

	// Update state variables using Euler kinematic integration
	x += Dt * xDot
	xDot += Dt * xAcc
	th += Dt * thDot
	thDot += Dt * thAcc

	newState := mat.NewVecDense(4, []float64{x, xDot, th, thDot})
	number := c.lastStep.Number + 1

	var nextStep ts.TimeStep
	switch {
	case c.failed(x, th):
		nextStep = ts.NewLast(ts.Terminated, StepReward, newState, number)

	case number >= c.stepLimit:
		nextStep = ts.NewLast(ts.Truncated, StepReward, newState, number)

	default:
		nextStep = ts.New(ts.Mid, StepReward, newState, number)
	}

	c.lastStep = nextStep
	return nextStep, nil
}

// failed returns whether the state ends the episode in failure
func (c *Cartpole) failed(x, th float64) bool {
	return x < c.positionBounds.Min || x > c.positionBounds.Max ||
		math.Abs(th) > c.failAngle
}

func (c *Cartpole) String() string {
	msg := "Cartpole  |  Position: %v  |  Speed: %v  |  Angle: %v" +
		"  |  Angular Velocity: %v"

	state := c.lastStep.Observation
	position, speed := state.AtVec(0), state.AtVec(1)
	angle, velocity := state.AtVec(2), state.AtVec(3)

	return fmt.Sprintf(msg, position, speed, angle, velocity)
}

// Render returns a coarse textual rendering of the cart position along
// the track, useful for eyeballing trained policies in a terminal
func (c *Cartpole) Render() string {
	const width = 41

	x := floatutils.Clip(c.lastStep.Observation.AtVec(0),
		c.positionBounds.Min, c.positionBounds.Max)
	span := c.positionBounds.Max - c.positionBounds.Min
	pos := int((x - c.positionBounds.Min) / span * float64(width-1))

	track := make([]byte, width)
	for i := range track {
		track[i] = '-'
	}
	track[pos] = '#'

	return string(track)
}

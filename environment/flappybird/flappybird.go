// Package flappybird implements the Flappy Bird game as an environment
package flappybird

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/lgandara/dprl/spec"
	ts "github.com/lgandara/dprl/timestep"
	"github.com/lgandara/dprl/utils/floatutils"
)

const (
	// Screen geometry in pixels, y growing downwards
	ScreenWidth  float64 = 500
	ScreenHeight float64 = 800
	FloorY       float64 = 730
	CeilingY     float64 = -50

	// Bird geometry and physics
	BirdX          float64 = 230
	BirdStartY     float64 = 350
	BirdWidth      float64 = 68
	BirdHeight     float64 = 48
	FlapVelocity   float64 = -10.5
	MaxFallPerStep float64 = 16

	// Pipe geometry and movement. Each pipe pair leaves a vertical gap
	// whose top edge is drawn uniformly from [PipeMinGapTop,
	// PipeMaxGapTop).
	PipeSpawnX    float64 = 700
	PipeWidth     float64 = 104
	PipeGap       float64 = 200
	PipeSpeed     float64 = 5
	PipeMinGapTop float64 = 50
	PipeMaxGapTop float64 = 450

	// Discrete actions
	MinDiscreteAction int = 0
	MaxDiscreteAction int = 1

	// Rewards
	StepReward  float64 = 1.0
	PassReward  float64 = 100.0
	CrashReward float64 = -1.0
)

// bird is the agent-controlled bird. Its horizontal position is fixed
// at BirdX; flapping resets the vertical velocity to FlapVelocity and
// restarts the fall clock.
type bird struct {
	y    float64
	vel  float64
	tick int
}

// pipe is the next upcoming pipe pair. gapTop and gapBottom are the
// vertical bounds of the opening the bird must fly through.
type pipe struct {
	x         float64
	gapTop    float64
	gapBottom float64
}

// FlappyBird implements the side-scrolling Flappy Bird game as an
// environment. The bird falls under gravity and the agent decides on
// every step whether to flap, which resets the vertical velocity
// upwards. Pipes scroll towards the bird at constant speed; once a
// pipe scrolls past the bird a new one spawns at the right edge with a
// randomly placed gap.
//
// The state features are continuous: the bird's altitude, the vertical
// distances from the bird to the top and bottom edges of the next
// pipe's gap, and the horizontal position of the next pipe.
//
// Actions are discrete:
//
//	Action	Meaning
//	  0		Do nothing
//	  1		Flap
//
// A reward of +1 is given on every step and an extra +100 whenever the
// bird passes a pipe. Episodes terminate with a reward of -1 when the
// bird hits a pipe, the floor, or the ceiling, and truncate at
// stepLimit steps.
type FlappyBird struct {
	lastStep  ts.TimeStep
	stepLimit int

	bird bird
	pipe pipe

	gapTopDist distuv.Uniform
}

// New constructs a new FlappyBird environment. The seed determines the
// sequence of pipe gap placements, so a fixed seed reproduces identical
// pipe layouts. Episodes are truncated after stepLimit steps.
func New(seed uint64, stepLimit int) (*FlappyBird, ts.TimeStep) {
	flappy := &FlappyBird{
		stepLimit: stepLimit,
		gapTopDist: distuv.Uniform{
			Min: PipeMinGapTop,
			Max: PipeMaxGapTop,
			Src: rand.NewSource(seed),
		},
	}
	firstStep := flappy.Reset()

	return flappy, firstStep
}

// NewDefault constructs a FlappyBird with a 1000-step limit
func NewDefault(seed uint64) (*FlappyBird, ts.TimeStep) {
	return New(seed, 1000)
}

// Reset resets the environment: the bird returns to its spawn altitude
// at rest and a fresh pipe spawns at the right edge
func (f *FlappyBird) Reset() ts.TimeStep {
	f.bird = bird{y: BirdStartY}
	f.pipe = f.spawnPipe()

	startStep := ts.New(ts.First, 0, f.observation(), 0)
	f.lastStep = startStep

	return startStep
}

// spawnPipe returns a new pipe at the right edge with a randomly
// placed gap
func (f *FlappyBird) spawnPipe() pipe {
	gapTop := f.gapTopDist.Rand()

	return pipe{
		x:         PipeSpawnX,
		gapTop:    gapTop,
		gapBottom: gapTop + PipeGap,
	}
}

// observation returns the current state features
func (f *FlappyBird) observation() *mat.VecDense {
	return mat.NewVecDense(4, []float64{
		f.bird.y,
		math.Abs(f.bird.y - f.pipe.gapTop),
		math.Abs(f.bird.y - f.pipe.gapBottom),
		f.pipe.x,
	})
}

// ActionSpec returns the action specification of the environment
func (f *FlappyBird) ActionSpec() spec.Environment {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{float64(MinDiscreteAction)})
	upperBound := mat.NewVecDense(1, []float64{float64(MaxDiscreteAction)})

	return spec.NewEnvironment(shape, spec.Action, lowerBound,
		upperBound, spec.Discrete)
}

// ObservationSpec returns the observation specification of the
// environment
func (f *FlappyBird) ObservationSpec() spec.Environment {
	shape := mat.NewVecDense(4, nil)

	lower := []float64{CeilingY, 0, 0, -PipeWidth}
	lowerBound := mat.NewVecDense(4, lower)

	upper := []float64{FloorY, ScreenHeight, ScreenHeight, PipeSpawnX}
	upperBound := mat.NewVecDense(4, upper)

	return spec.NewEnvironment(shape, spec.Observation, lowerBound,
		upperBound, spec.Continuous)
}

// Step takes one environmental step given action a and returns the
// next state as a timestep.TimeStep
func (f *FlappyBird) Step(a mat.Vector) (ts.TimeStep, error) {
	intAction := int(a.AtVec(0))
	if intAction < MinDiscreteAction || intAction > MaxDiscreteAction {
		return ts.TimeStep{}, fmt.Errorf("step: illegal action %v ∉ [%v, %v]",
			intAction, MinDiscreteAction, MaxDiscreteAction)
	}

	if intAction == 1 {
		f.bird.vel = FlapVelocity
		f.bird.tick = 0
	}

	// Displacement grows quadratically with the time since the last
	// flap, capped at terminal fall speed. Upward movement gets a small
	// boost so a flap overcomes a step of gravity.
	f.bird.tick++
	t := float64(f.bird.tick)
	displacement := f.bird.vel*t + 1.5*t*t
	if displacement >= MaxFallPerStep {
		displacement = MaxFallPerStep
	}
	if displacement < 0 {
		displacement -= 2
	}
	f.bird.y += displacement

	f.pipe.x -= PipeSpeed

	reward := StepReward
	if f.pipe.x+PipeWidth < BirdX {
		reward += PassReward
		f.pipe = f.spawnPipe()
	}

	crashed := f.crashed()
	if crashed {
		reward = CrashReward
	}

	newState := f.observation()
	number := f.lastStep.Number + 1

	var nextStep ts.TimeStep
	switch {
	case crashed:
		nextStep = ts.NewLast(ts.Terminated, reward, newState, number)

	case number >= f.stepLimit:
		nextStep = ts.NewLast(ts.Truncated, reward, newState, number)

	default:
		nextStep = ts.New(ts.Mid, reward, newState, number)
	}

	f.lastStep = nextStep
	return nextStep, nil
}

// crashed returns whether the bird has hit a pipe, the floor, or the
// ceiling
func (f *FlappyBird) crashed() bool {
	overlapsPipe := BirdX+BirdWidth > f.pipe.x && BirdX < f.pipe.x+PipeWidth
	outsideGap := f.bird.y < f.pipe.gapTop ||
		f.bird.y+BirdHeight > f.pipe.gapBottom

	return (overlapsPipe && outsideGap) ||
		f.bird.y+BirdHeight-10 >= FloorY ||
		f.bird.y < CeilingY
}

func (f *FlappyBird) String() string {
	msg := "FlappyBird  |  Altitude: %v  |  Gap Top: %v  |  Gap Bottom: %v" +
		"  |  Pipe Position: %v"

	return fmt.Sprintf(msg, f.bird.y, f.pipe.gapTop, f.pipe.gapBottom,
		f.pipe.x)
}

// Render returns a coarse textual rendering of the bird's altitude
// between the ceiling and the floor, with the next pipe's gap marked,
// useful for eyeballing trained policies in a terminal
func (f *FlappyBird) Render() string {
	const width = 41

	span := FloorY - CeilingY
	column := func(y float64) int {
		y = floatutils.Clip(y, CeilingY, FloorY)
		return int((y - CeilingY) / span * float64(width-1))
	}

	strip := make([]byte, width)
	for i := range strip {
		strip[i] = '-'
	}
	strip[column(f.pipe.gapTop)] = '['
	strip[column(f.pipe.gapBottom)] = ']'
	strip[column(f.bird.y)] = '#'

	return string(strip)
}

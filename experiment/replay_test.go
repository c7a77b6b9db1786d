package experiment_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gonum.org/v1/gonum/mat"

	"github.com/lgandara/dprl/environment"
	"github.com/lgandara/dprl/environment/classiccontrol/cartpole"
	"github.com/lgandara/dprl/experiment"
	"github.com/lgandara/dprl/spec"
	"github.com/lgandara/dprl/timestep"
)

// pushRight always accelerates the cart right, toppling the pole
// within a handful of steps
type pushRight struct{}

func (pushRight) Act(obs mat.Vector) (*mat.VecDense, float64, error) {
	return mat.NewVecDense(1, []float64{1}), 0, nil
}

func TestReplayRendersEveryState(t *testing.T) {
	env, _ := cartpole.NewDefault(3)
	var out bytes.Buffer

	episodeReturn, steps, err := experiment.Replay(pushRight{}, env, 0, &out)
	require.NoError(t, err)

	assert.Greater(t, steps, 0)
	assert.Equal(t, float64(steps)*cartpole.StepReward, episodeReturn)

	frames := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	assert.Len(t, frames, steps+1,
		"one frame per state, including the starting state")
	for i, frame := range frames {
		assert.Contains(t, frame, "#", "frame %v should mark the cart", i)
		assert.Len(t, frame, 41)
	}
}

func TestReplayHonorsStepBudget(t *testing.T) {
	const budget = 3

	env, _ := cartpole.NewDefault(3)
	var out bytes.Buffer

	_, steps, err := experiment.Replay(pushRight{}, env, budget, &out)
	require.NoError(t, err)
	assert.Equal(t, budget, steps)
}

// blindEnv forwards to an environment while hiding its rendering
// support
type blindEnv struct {
	env environment.Environment
}

func (b blindEnv) Reset() timestep.TimeStep { return b.env.Reset() }

func (b blindEnv) Step(a mat.Vector) (timestep.TimeStep, error) {
	return b.env.Step(a)
}

func (b blindEnv) ObservationSpec() spec.Environment {
	return b.env.ObservationSpec()
}

func (b blindEnv) ActionSpec() spec.Environment { return b.env.ActionSpec() }

func TestReplaySkipsRenderingWhenUnsupported(t *testing.T) {
	env, _ := cartpole.NewDefault(3)
	var out bytes.Buffer

	_, steps, err := experiment.Replay(pushRight{}, blindEnv{env}, 5, &out)
	require.NoError(t, err)

	assert.Equal(t, 5, steps)
	assert.Zero(t, out.Len())
}

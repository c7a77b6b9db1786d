package vpg

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/lgandara/dprl/environment"
)

// Actor selects actions for observations, returning each sampled
// action together with its log-probability under the sampling
// distribution
type Actor interface {
	Act(obs mat.Vector) (*mat.VecDense, float64, error)
}

// CollectEpisode drives the actor against the environment for exactly
// one episode and records its trajectory. The episode ends when the
// environment reports termination or truncation, or when maxSteps
// steps have been collected, whichever comes first; a budget cut is
// recorded identically to a natural ending since both close the reward
// sequence. A maxSteps value of zero or less means no step budget.
//
// Collection is inherently sequential: each step depends on the
// environment state produced by the previous one. Environment errors
// are propagated unmodified.
func CollectEpisode(actor Actor, env environment.Environment,
	maxSteps int) (*Trajectory, error) {
	step := env.Reset()
	trajectory := NewTrajectory(step.Observation.Len())

	for {
		action, logProb, err := actor.Act(step.Observation)
		if err != nil {
			return nil, fmt.Errorf("collectepisode: %w", err)
		}

		next, err := env.Step(action)
		if err != nil {
			return nil, err
		}

		err = trajectory.Append(step.Observation, action.AtVec(0),
			next.Reward, logProb)
		if err != nil {
			return nil, fmt.Errorf("collectepisode: %w", err)
		}

		if next.Last() || (maxSteps > 0 && trajectory.Len() >= maxSteps) {
			break
		}
		step = next
	}

	trajectory.Close()
	return trajectory, nil
}

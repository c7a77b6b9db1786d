package experiment

import (
	"fmt"
	"io"

	"github.com/lgandara/dprl/agent/vpg"
	"github.com/lgandara/dprl/environment"
)

// Renderer is implemented by environments that can draw their current
// state as text
type Renderer interface {
	Render() string
}

// Replay rolls out a single episode of the actor against the
// environment without training, writing a rendering of every state to
// out when the environment implements Renderer. It returns the episode
// return and length. The episode ends on termination, truncation, or
// after maxSteps steps; a maxSteps value of zero or less means no step
// budget.
func Replay(actor vpg.Actor, env environment.Environment, maxSteps int,
	out io.Writer) (float64, int, error) {
	step := env.Reset()
	renderer, _ := env.(Renderer)

	if renderer != nil {
		fmt.Fprintln(out, renderer.Render())
	}

	var totalReward float64
	var steps int
	for {
		action, _, err := actor.Act(step.Observation)
		if err != nil {
			return totalReward, steps, fmt.Errorf("replay: %w", err)
		}

		next, err := env.Step(action)
		if err != nil {
			return totalReward, steps, err
		}
		totalReward += next.Reward
		steps++

		if renderer != nil {
			fmt.Fprintln(out, renderer.Render())
		}

		if next.Last() || (maxSteps > 0 && steps >= maxSteps) {
			break
		}
		step = next
	}

	return totalReward, steps, nil
}

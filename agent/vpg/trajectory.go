package vpg

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ErrEmptyTrajectory is returned when an operation requires a
// trajectory with at least one recorded step
var ErrEmptyTrajectory = errors.New("empty trajectory")

// Trajectory is the ordered per-step record of exactly one episode.
// For every step it stores the reward, the log-probability of the
// sampled action, and the (observation, action) pair itself, so that
// the update step can rebuild the log-probability of exactly the
// sampled actions as a differentiable quantity. The order of steps is
// chronological and load-bearing: advantage estimation is
// order-sensitive.
//
// A Trajectory is appended to while its episode runs and closed when
// the episode ends, after which it is never mutated again.
type Trajectory struct {
	obsDim int

	observations []float64 // row-major, one row per step
	actions      []float64
	rewards      []float64
	logProbs     []float64

	closed bool
}

// NewTrajectory returns a new empty Trajectory for observations of
// length obsDim
func NewTrajectory(obsDim int) *Trajectory {
	return &Trajectory{obsDim: obsDim}
}

// Append records one step of the episode
func (t *Trajectory) Append(obs mat.Vector, action, reward,
	logProb float64) error {
	if t.closed {
		return fmt.Errorf("append: cannot append to a closed trajectory")
	}
	if obs.Len() != t.obsDim {
		return fmt.Errorf("append: illegal observation length\n\twant(%v)"+
			"\n\thave(%v)", t.obsDim, obs.Len())
	}

	for i := 0; i < obs.Len(); i++ {
		t.observations = append(t.observations, obs.AtVec(i))
	}
	t.actions = append(t.actions, action)
	t.rewards = append(t.rewards, reward)
	t.logProbs = append(t.logProbs, logProb)

	return nil
}

// Close marks the end of the trajectory's episode. A closed trajectory
// rejects further appends.
func (t *Trajectory) Close() {
	t.closed = true
}

// Closed returns whether the trajectory's episode has ended
func (t *Trajectory) Closed() bool {
	return t.closed
}

// Len returns the number of recorded steps
func (t *Trajectory) Len() int {
	return len(t.rewards)
}

// ObsDim returns the length of each recorded observation
func (t *Trajectory) ObsDim() int {
	return t.obsDim
}

// Rewards returns a copy of the per-step rewards in chronological
// order
func (t *Trajectory) Rewards() []float64 {
	return append([]float64{}, t.rewards...)
}

// LogProbs returns a copy of the per-step action log-probabilities in
// chronological order
func (t *Trajectory) LogProbs() []float64 {
	return append([]float64{}, t.logProbs...)
}

// Observations returns a copy of the recorded observations in
// row-major order, one row per step
func (t *Trajectory) Observations() []float64 {
	return append([]float64{}, t.observations...)
}

// Actions returns a copy of the recorded actions in chronological
// order
func (t *Trajectory) Actions() []float64 {
	return append([]float64{}, t.actions...)
}

// TotalReward returns the undiscounted sum of all rewards in the
// trajectory
func (t *Trajectory) TotalReward() float64 {
	return floats.Sum(t.rewards)
}

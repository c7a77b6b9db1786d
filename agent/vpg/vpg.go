// Package vpg implements the Vanilla Policy Gradient algorithm with
// selectable advantage-weighting policies.
//
// Adapted from:
//
// https://spinningup.openai.com/en/latest/algorithms/vpg.html
package vpg

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/lgandara/dprl/agent/policy"
	"github.com/lgandara/dprl/environment"
	"github.com/lgandara/dprl/initwfn"
	"github.com/lgandara/dprl/network"
	"github.com/lgandara/dprl/solver"
	"github.com/lgandara/dprl/utils/floatutils"
)

// EpochMetrics is a plain record of what happened during one training
// epoch, for consumption by external logging layers. Loss is the
// scalar surrogate loss; it carries no semantic meaning as an
// objective across epochs. TotalReward is the sum of all rewards
// collected in the epoch, MaxReward the best single-episode return,
// and Steps the number of timesteps collected.
type EpochMetrics struct {
	Loss        float64
	TotalReward float64
	MaxReward   float64
	Steps       int
}

// Config describes a configuration of a VPG agent
type Config struct {
	PolicyLayers      []int
	PolicyBiases      []bool
	PolicyActivations []*network.Activation

	InitWFn *initwfn.InitWFn
	Solver  *solver.Solver

	AdvantageMode    AdvantageMode
	EpisodesPerEpoch int

	// MaxEpisodeSteps truncates episodes that the environment does not
	// end on its own. Zero or less means no budget.
	MaxEpisodeSteps int
}

// Validate returns an error describing why the configuration cannot
// construct a VPG agent, or nil if it can
func (c Config) Validate() error {
	if len(c.PolicyLayers) != len(c.PolicyBiases) ||
		len(c.PolicyLayers) != len(c.PolicyActivations) {
		return fmt.Errorf("validate: policy layers, biases, and "+
			"activations must have equal lengths\n\thave(%v, %v, %v)",
			len(c.PolicyLayers), len(c.PolicyBiases),
			len(c.PolicyActivations))
	}
	if c.InitWFn == nil {
		return fmt.Errorf("validate: no weight initializer given")
	}
	if c.Solver == nil {
		return fmt.Errorf("validate: no solver given")
	}
	if c.EpisodesPerEpoch < 1 {
		return fmt.Errorf("validate: episodes per epoch must be positive"+
			"\n\thave(%v)", c.EpisodesPerEpoch)
	}
	return c.AdvantageMode.Validate()
}

// VPG implements the Vanilla Policy Gradient algorithm. Each epoch it
// collects trajectories with its behaviour policy, weights every
// timestep with an advantage estimate, and applies exactly one solver
// step to the policy weights.
type VPG struct {
	behaviour *policy.CategoricalMLP
	solver    *solver.Solver

	mode             AdvantageMode
	episodesPerEpoch int
	maxEpisodeSteps  int

	completedEpochs int
}

// New creates and returns a new VPG agent acting in env. The seed
// controls action sampling, so a fixed seed against a deterministic
// environment reproduces identical training runs.
func New(env environment.Environment, c Config, seed int64) (*VPG, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	behaviour, err := policy.NewCategoricalMLP(env, 1, c.PolicyLayers,
		c.PolicyBiases, c.PolicyActivations, c.InitWFn, seed)
	if err != nil {
		return nil, fmt.Errorf("new: could not create behaviour policy: %v",
			err)
	}

	return &VPG{
		behaviour:        behaviour,
		solver:           c.Solver,
		mode:             c.AdvantageMode,
		episodesPerEpoch: c.EpisodesPerEpoch,
		maxEpisodeSteps:  c.MaxEpisodeSteps,
	}, nil
}

// Policy returns the agent's behaviour policy
func (v *VPG) Policy() *policy.CategoricalMLP {
	return v.behaviour
}

// CompletedEpochs returns the number of epochs trained so far
func (v *VPG) CompletedEpochs() int {
	return v.completedEpochs
}

// Close releases the agent's resources
func (v *VPG) Close() error {
	return v.behaviour.Close()
}

// RunEpoch runs one full training cycle: trajectory collection,
// advantage estimation, and a single solver step. The advantage mode
// is validated before any trajectory is collected. Any error aborts
// the epoch; the caller decides whether to abort the run.
func (v *VPG) RunEpoch(env environment.Environment) (EpochMetrics, error) {
	if err := v.mode.Validate(); err != nil {
		return EpochMetrics{}, fmt.Errorf("runepoch: %w", err)
	}

	trajectories := make([]*Trajectory, v.episodesPerEpoch)
	advantages := make([][]float64, v.episodesPerEpoch)
	for i := range trajectories {
		trajectory, err := CollectEpisode(v.behaviour, env,
			v.maxEpisodeSteps)
		if err != nil {
			return EpochMetrics{}, err
		}

		advantage, err := EstimateAdvantages(trajectory, v.mode)
		if err != nil {
			return EpochMetrics{}, fmt.Errorf("runepoch: %w", err)
		}

		trajectories[i] = trajectory
		advantages[i] = advantage
	}

	loss, err := v.update(trajectories, advantages)
	if err != nil {
		return EpochMetrics{}, fmt.Errorf("runepoch: %w", err)
	}
	v.completedEpochs++

	metrics := EpochMetrics{Loss: loss}
	returns := make([]float64, len(trajectories))
	for i, trajectory := range trajectories {
		returns[i] = trajectory.TotalReward()
		metrics.TotalReward += returns[i]
		metrics.Steps += trajectory.Len()
	}
	metrics.MaxReward = floatutils.Max(returns...)

	return metrics, nil
}

// update combines the epoch's log-probabilities and advantages into
// the surrogate loss -mean(logProb * advantage), backpropagates, and
// applies exactly one solver step to the policy weights. It returns
// the scalar loss value for observability only.
//
// The loss is built on a fresh graph sized to the epoch's step count,
// so gradients never accumulate across epochs. Advantages enter the
// graph as plain values: only the log-probability term carries
// gradient.
func (v *VPG) update(trajectories []*Trajectory,
	advantages [][]float64) (float64, error) {
	var steps int
	for _, trajectory := range trajectories {
		steps += trajectory.Len()
	}
	if steps == 0 {
		return 0, ErrEmptyTrajectory
	}

	states := make([]float64, 0, steps*trajectories[0].ObsDim())
	actions := make([]float64, 0, steps)
	weights := make([]float64, 0, steps)
	for i, trajectory := range trajectories {
		if trajectory.Len() != len(advantages[i]) {
			return 0, fmt.Errorf("update: advantages misaligned with "+
				"trajectory\n\twant(%v)\n\thave(%v)", trajectory.Len(),
				len(advantages[i]))
		}
		states = append(states, trajectory.Observations()...)
		actions = append(actions, trajectory.Actions()...)
		weights = append(weights, advantages[i]...)
	}

	train, err := v.behaviour.CloneWithBatch(steps)
	if err != nil {
		return 0, fmt.Errorf("update: could not create training policy: %v",
			err)
	}

	graph := train.Network().Graph()
	advantageNode := G.NewVector(
		graph,
		tensor.Float64,
		G.WithShape(steps),
		G.WithName("advantages"),
	)

	loss := G.Must(G.HadamardProd(train.LogProbNode(), advantageNode))
	loss = G.Must(G.Mean(loss))
	loss = G.Must(G.Neg(loss))

	var lossVal G.Value
	G.Read(loss, &lossVal)

	learnables := train.Network().Learnables()
	if _, err := G.Grad(loss, learnables...); err != nil {
		return 0, fmt.Errorf("update: could not construct gradient: %v", err)
	}

	vm := G.NewTapeMachine(graph, G.BindDualValues(learnables...))
	defer vm.Close()

	if _, err := train.LogProbOf(states, actions); err != nil {
		return 0, fmt.Errorf("update: %v", err)
	}
	advantageTensor := tensor.New(
		tensor.WithShape(steps),
		tensor.WithBacking(weights),
	)
	if err := G.Let(advantageNode, advantageTensor); err != nil {
		return 0, fmt.Errorf("update: %v", err)
	}

	if err := vm.RunAll(); err != nil {
		return 0, fmt.Errorf("update: could not run training policy: %v",
			err)
	}
	if err := v.solver.Step(train.Network().Model()); err != nil {
		return 0, fmt.Errorf("update: could not apply solver step: %v", err)
	}
	vm.Reset()

	if err := network.Set(v.behaviour.Network(), train.Network()); err != nil {
		return 0, fmt.Errorf("update: could not update behaviour policy: %v",
			err)
	}

	return lossVal.Data().(float64), nil
}

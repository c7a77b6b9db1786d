// Package policy implements parametric stochastic action-selection
// policies
package policy

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/lgandara/dprl/environment"
	"github.com/lgandara/dprl/initwfn"
	"github.com/lgandara/dprl/network"
	"github.com/lgandara/dprl/spec"
	"github.com/lgandara/dprl/utils/floatutils"
)

// ErrShapeMismatch is returned when an observation does not match the
// policy's configured observation-space shape
var ErrShapeMismatch = errors.New("observation shape mismatch")

// CategoricalMLP is a stochastic policy over a discrete action space.
// An MLP maps an observation to one logit per action, and actions are
// sampled from the softmax distribution over those logits.
//
// A CategoricalMLP with batch size 1 selects actions with Act. A
// CategoricalMLP of any batch size exposes the log-probability of
// externally inputted (state, action) pairs as a differentiable graph
// node through LogProbOf and LogProbNode, which is how a learner
// computes policy gradients for the actions a batch-1 copy sampled.
type CategoricalMLP struct {
	net network.NeuralNet
	vm  G.VM

	logits *G.Node

	actionIndices       *G.Node
	logProbInputActions *G.Node
	logProbVal          G.Value

	numActions int

	rng  *rand.Rand
	seed int64
}

// NewCategoricalMLP returns a new CategoricalMLP for the action and
// observation spaces of env. The seed determines the source of
// randomness for action sampling, so a fixed seed reproduces identical
// action sequences against a deterministic environment.
func NewCategoricalMLP(env environment.Environment, batch int,
	hiddenSizes []int, biases []bool, activations []*network.Activation,
	init *initwfn.InitWFn, seed int64) (*CategoricalMLP, error) {
	if env.ActionSpec().Cardinality != spec.Discrete {
		return nil, fmt.Errorf("newcategoricalmlp: softmax policy cannot " +
			"be used with continuous actions")
	}

	features := env.ObservationSpec().Shape.Len()
	numActions := int(env.ActionSpec().UpperBound.AtVec(0)) + 1

	g := G.NewGraph()
	net, err := network.NewMLP(features, batch, numActions, g, hiddenSizes,
		biases, init.InitWFn(), activations)
	if err != nil {
		return nil, fmt.Errorf("newcategoricalmlp: could not create policy "+
			"network: %v", err)
	}

	return fromNetwork(net, numActions, seed)
}

// fromNetwork builds the categorical heads of a CategoricalMLP on top
// of an existing logits network
func fromNetwork(net network.NeuralNet, numActions int,
	seed int64) (*CategoricalMLP, error) {
	logits := net.Prediction()

	// Log probability of actions inputted with LogProbOf. Actions are
	// one-hot encoded so that selecting the logit of each row's action
	// is a differentiable masked sum.
	actionIndices := G.NewMatrix(
		net.Graph(),
		tensor.Float64,
		G.WithShape(logits.Shape()...),
		G.WithInit(G.Zeroes()),
		G.WithName("actionIndices"),
	)
	logitsInputActions := G.Must(G.HadamardProd(actionIndices, logits))
	logitsInputActions = G.Must(G.Sum(logitsInputActions, 1))

	inputsLogSumExp := logSumExpNode(logits, 1)
	logProbInputActions := G.Must(G.Sub(logitsInputActions, inputsLogSumExp))

	pol := &CategoricalMLP{
		net:                 net,
		logits:              logits,
		actionIndices:       actionIndices,
		logProbInputActions: logProbInputActions,
		numActions:          numActions,
		rng:                 rand.New(rand.NewSource(seed)),
		seed:                seed,
	}
	G.Read(pol.logProbInputActions, &pol.logProbVal)

	if net.BatchSize() == 1 {
		pol.vm = G.NewTapeMachine(net.Graph())
	}

	return pol, nil
}

// logSumExpNode adds a numerically stable log-sum-exp along the given
// axis to the computational graph
func logSumExpNode(logits *G.Node, along int) *G.Node {
	max := G.Must(G.Max(logits, along))

	exponent := G.Must(G.BroadcastSub(logits, max, nil, []byte{1}))
	exponent = G.Must(G.Exp(exponent))

	sum := G.Must(G.Sum(exponent, along))
	log := G.Must(G.Log(sum))

	return G.Must(G.Add(max, log))
}

// Act samples an action for the given observation and returns it
// together with the log-probability of that action under the policy's
// current parameterization
func (c *CategoricalMLP) Act(obs mat.Vector) (*mat.VecDense, float64,
	error) {
	if obs.Len() != c.net.Features() {
		return nil, 0, fmt.Errorf("act: %w: want(%v) have(%v)",
			ErrShapeMismatch, c.net.Features(), obs.Len())
	}
	if c.vm == nil {
		return nil, 0, fmt.Errorf("act: action selection requires a " +
			"batch size of 1")
	}

	raw := make([]float64, obs.Len())
	for i := range raw {
		raw[i] = obs.AtVec(i)
	}

	if err := c.net.SetInput(raw); err != nil {
		return nil, 0, fmt.Errorf("act: %v", err)
	}
	if err := c.vm.RunAll(); err != nil {
		return nil, 0, fmt.Errorf("act: could not run policy network: %v",
			err)
	}
	logits := append([]float64{}, c.net.Output().Data().([]float64)...)
	c.vm.Reset()

	action := sampleCategorical(logits, c.rng)
	logProb := logits[action] - floatutils.LogSumExp(logits...)

	return mat.NewVecDense(1, []float64{float64(action)}), logProb, nil
}

// sampleCategorical samples an action index from the softmax
// distribution over logits
func sampleCategorical(logits []float64, rng *rand.Rand) int {
	max := floatutils.Max(logits...)

	var sum float64
	probs := make([]float64, len(logits))
	for i, logit := range logits {
		probs[i] = math.Exp(logit - max)
		sum += probs[i]
	}

	threshold := rng.Float64() * sum
	var cumulative float64
	for i, prob := range probs {
		cumulative += prob
		if threshold <= cumulative {
			return i
		}
	}
	return len(probs) - 1
}

// GreedyAct selects the highest-logit action for the given observation
// instead of sampling, returning it with its log-probability. Ties are
// broken with the policy's random source. Useful for evaluating a
// trained policy without exploration noise.
func (c *CategoricalMLP) GreedyAct(obs mat.Vector) (*mat.VecDense, float64,
	error) {
	if obs.Len() != c.net.Features() {
		return nil, 0, fmt.Errorf("greedyact: %w: want(%v) have(%v)",
			ErrShapeMismatch, c.net.Features(), obs.Len())
	}
	if c.vm == nil {
		return nil, 0, fmt.Errorf("greedyact: action selection requires a " +
			"batch size of 1")
	}

	raw := make([]float64, obs.Len())
	for i := range raw {
		raw[i] = obs.AtVec(i)
	}

	if err := c.net.SetInput(raw); err != nil {
		return nil, 0, fmt.Errorf("greedyact: %v", err)
	}
	if err := c.vm.RunAll(); err != nil {
		return nil, 0, fmt.Errorf("greedyact: could not run policy "+
			"network: %v", err)
	}
	logits := append([]float64{}, c.net.Output().Data().([]float64)...)
	c.vm.Reset()

	_, argmax := floatutils.MaxSlice(logits)
	action := argmax[c.rng.Intn(len(argmax))]
	logProb := logits[action] - floatutils.LogSumExp(logits...)

	return mat.NewVecDense(1, []float64{float64(action)}), logProb, nil
}

// Greedy adapts a CategoricalMLP so that Act always takes the mode of
// the action distribution
type Greedy struct {
	*CategoricalMLP
}

// Act selects the highest-logit action for the given observation
func (g Greedy) Act(obs mat.Vector) (*mat.VecDense, float64, error) {
	return g.GreedyAct(obs)
}

// LogProbOf sets the log-probability node to compute the
// log-probability of taking the argument actions in the argument
// states. States are given in row-major order; actions hold one action
// index per state row. The returned node stays differentiable with
// respect to the network weights.
func (c *CategoricalMLP) LogProbOf(states, actions []float64) (*G.Node,
	error) {
	batch := c.net.BatchSize()
	if len(states) != batch*c.net.Features() {
		return nil, fmt.Errorf("logprobof: illegal states length "+
			"\n\twant(%v)\n\thave(%v)", batch*c.net.Features(), len(states))
	}
	if len(actions) != batch {
		return nil, fmt.Errorf("logprobof: illegal actions length "+
			"\n\twant(%v)\n\thave(%v)", batch, len(actions))
	}

	if err := c.net.SetInput(states); err != nil {
		return nil, fmt.Errorf("logprobof: %v", err)
	}

	oneHot := make([]float64, 0, c.numActions*batch)
	for i := range actions {
		row := make([]float64, c.numActions)
		index := int(actions[i])
		if index < 0 || index >= c.numActions {
			return nil, fmt.Errorf("logprobof: illegal action index %v "+
				"outside [0, %v)", index, c.numActions)
		}
		row[index] = 1.0
		oneHot = append(oneHot, row...)
	}
	oneHotTensor := tensor.NewDense(
		tensor.Float64,
		[]int{batch, c.numActions},
		tensor.WithBacking(oneHot),
	)
	if err := G.Let(c.actionIndices, oneHotTensor); err != nil {
		return nil, fmt.Errorf("logprobof: %v", err)
	}

	return c.logProbInputActions, nil
}

// LogProbNode returns the node that calculates the log-probability of
// the actions inputted with LogProbOf
func (c *CategoricalMLP) LogProbNode() *G.Node {
	return c.logProbInputActions
}

// LogProbVal returns the value of the node returned by LogProbNode
// after a forward pass
func (c *CategoricalMLP) LogProbVal() G.Value {
	return c.logProbVal
}

// CloneWithBatch clones the policy onto a fresh graph with a new input
// batch size, copying the current weights
func (c *CategoricalMLP) CloneWithBatch(batch int) (*CategoricalMLP,
	error) {
	net, err := c.net.CloneWithBatch(batch)
	if err != nil {
		return nil, fmt.Errorf("clonewithbatch: %v", err)
	}

	return fromNetwork(net, c.numActions, c.seed)
}

// Network returns the neural network parameterizing the policy
func (c *CategoricalMLP) Network() network.NeuralNet {
	return c.net
}

// NumActions returns the size of the policy's discrete action space
func (c *CategoricalMLP) NumActions() int {
	return c.numActions
}

// Close releases the policy's virtual machine resources
func (c *CategoricalMLP) Close() error {
	if c.vm == nil {
		return nil
	}
	return c.vm.Close()
}

// Package network implements neural network function approximators
package network

import (
	G "gorgonia.org/gorgonia"
)

// NeuralNet is a differentiable function approximator operating on
// fixed-size batches of feature vectors
type NeuralNet interface {
	// Graph returns the computational graph the network is built on
	Graph() *G.ExprGraph

	// CloneWithBatch clones the network onto a fresh graph with a new
	// input batch size, copying the current weights
	CloneWithBatch(int) (NeuralNet, error)

	BatchSize() int
	Features() int
	Outputs() int

	// SetInput sets the value of the input node before running the
	// forward pass. The input is given in row-major order and must
	// hold BatchSize() * Features() values.
	SetInput([]float64) error

	// Set copies the weights of another network of identical
	// architecture into this network
	Set(NeuralNet) error

	// Learnables returns the learnable weight nodes
	Learnables() G.Nodes

	// Model returns the learnable nodes with their gradients, in the
	// form a solver consumes
	Model() []G.ValueGrad

	// Prediction returns the graph node holding the network output,
	// and Output the value of that node after a forward pass
	Prediction() *G.Node
	Output() G.Value
}

// Set copies the weights of the source network into dest. The networks
// must share an architecture but may differ in batch size.
func Set(dest, source NeuralNet) error {
	return dest.Set(source)
}

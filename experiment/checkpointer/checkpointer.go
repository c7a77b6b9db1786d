// Package checkpointer implements periodic snapshots of policy weights
// so that trained policies can be reloaded and run later
package checkpointer

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/lgandara/dprl/network"
)

// snapshot is the on-disk representation of a network's weights
type snapshot struct {
	Shapes [][]int
	Values [][]float64
}

// Save writes the current weights of net to path
func Save(path string, net network.NeuralNet) error {
	learnables := net.Learnables()

	snap := snapshot{
		Shapes: make([][]int, len(learnables)),
		Values: make([][]float64, len(learnables)),
	}
	for i, node := range learnables {
		dense, ok := node.Value().(*tensor.Dense)
		if !ok {
			return fmt.Errorf("save: learnable %v holds no dense tensor", i)
		}
		snap.Shapes[i] = append([]int{}, dense.Shape()...)
		values := dense.Data().([]float64)
		snap.Values[i] = append([]float64{}, values...)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save: could not create checkpoint file: %v", err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(snap); err != nil {
		return fmt.Errorf("save: could not encode checkpoint: %v", err)
	}
	return nil
}

// Load reads the weights stored at path into net. The stored snapshot
// must match the network's architecture.
func Load(path string, net network.NeuralNet) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("load: could not open checkpoint file: %v", err)
	}
	defer file.Close()

	var snap snapshot
	if err := gob.NewDecoder(file).Decode(&snap); err != nil {
		return fmt.Errorf("load: could not decode checkpoint: %v", err)
	}

	learnables := net.Learnables()
	if len(snap.Values) != len(learnables) {
		return fmt.Errorf("load: checkpoint architecture mismatch"+
			"\n\twant(%v learnables)\n\thave(%v)", len(learnables),
			len(snap.Values))
	}

	for i, node := range learnables {
		weights := tensor.New(
			tensor.WithShape(snap.Shapes[i]...),
			tensor.WithBacking(snap.Values[i]),
		)
		if !node.Shape().Eq(weights.Shape()) {
			return fmt.Errorf("load: checkpoint shape mismatch at "+
				"learnable %v\n\twant%v\n\thave%v", i, node.Shape(),
				weights.Shape())
		}
		if err := G.Let(node, weights); err != nil {
			return fmt.Errorf("load: could not set learnable %v: %v", i, err)
		}
	}
	return nil
}

// NStep checkpoints a network's weights every interval epochs
type NStep struct {
	interval int
	dir      string
	net      network.NeuralNet
	saved    int
}

// NewNStep returns a Checkpointer that snapshots net into dir every
// interval epochs
func NewNStep(net network.NeuralNet, dir string, interval int) (*NStep,
	error) {
	if interval < 1 {
		return nil, fmt.Errorf("newnstep: interval must be positive"+
			"\n\thave(%v)", interval)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("newnstep: could not create checkpoint "+
			"directory: %v", err)
	}

	return &NStep{interval: interval, dir: dir, net: net}, nil
}

// Checkpoint snapshots the network if epoch is a checkpointing epoch.
// Epochs are counted from 1.
func (n *NStep) Checkpoint(epoch int) error {
	if epoch%n.interval != 0 {
		return nil
	}

	path := filepath.Join(n.dir, fmt.Sprintf("policy-%06d.ckpt", epoch))
	if err := Save(path, n.net); err != nil {
		return fmt.Errorf("checkpoint: %v", err)
	}
	n.saved++
	return nil
}

// Saved returns the number of checkpoints written so far
func (n *NStep) Saved() int {
	return n.saved
}

// Package experiment implements functionality for running a training
// experiment: an epoch loop driving an agent against an environment,
// with metric tracking, progress display, and periodic checkpointing.
package experiment

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/lgandara/dprl/agent/vpg"
	"github.com/lgandara/dprl/environment"
	"github.com/lgandara/dprl/experiment/checkpointer"
	"github.com/lgandara/dprl/experiment/tracker"
)

// Epochs runs an agent against an environment for a fixed number of
// training epochs. Each epoch's metrics are sent to all registered
// trackers; Save persists the tracked data once the experiment has
// finished.
type Epochs struct {
	agent  *vpg.VPG
	env    environment.Environment
	epochs int

	logger       *TrainingLogger
	trackers     []tracker.Tracker
	checkpointer *checkpointer.NStep
}

// NewEpochs creates and returns a new epoch-driven experiment. The
// logger and checkpointer may be nil to disable progress display and
// checkpointing respectively.
func NewEpochs(agent *vpg.VPG, env environment.Environment, epochs int,
	logger *TrainingLogger, trackers []tracker.Tracker,
	check *checkpointer.NStep) *Epochs {
	return &Epochs{
		agent:        agent,
		env:          env,
		epochs:       epochs,
		logger:       logger,
		trackers:     trackers,
		checkpointer: check,
	}
}

// Register adds a new Tracker to the (possibly already running)
// experiment
func (e *Epochs) Register(t tracker.Tracker) {
	e.trackers = append(e.trackers, t)
}

// Run runs the experiment for all epochs. The first error aborts the
// run.
func (e *Epochs) Run() error {
	for epoch := 0; epoch < e.epochs; epoch++ {
		metrics, err := e.agent.RunEpoch(e.env)
		if err != nil {
			return fmt.Errorf("run: epoch %v: %w", epoch, err)
		}

		for _, t := range e.trackers {
			t.Track(metrics)
		}
		if e.logger != nil {
			e.logger.Update(epoch, metrics)
		}
		if e.checkpointer != nil {
			if err := e.checkpointer.Checkpoint(epoch + 1); err != nil {
				return fmt.Errorf("run: epoch %v: %v", epoch, err)
			}
		}
	}

	if e.logger != nil {
		if err := e.logger.Close(); err != nil {
			return fmt.Errorf("run: %v", err)
		}
	}
	return nil
}

// Save saves all the data cached by the trackers to disk
func (e *Epochs) Save() error {
	for _, t := range e.trackers {
		if err := t.Save(); err != nil {
			return fmt.Errorf("save: %v", err)
		}
	}
	return nil
}

// NewRunDir creates and returns a unique directory under base for one
// experiment run's artifacts (metrics, checkpoints, plots)
func NewRunDir(base string) (string, error) {
	dir := filepath.Join(base, uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("newrundir: could not create run "+
			"directory: %v", err)
	}
	return dir, nil
}

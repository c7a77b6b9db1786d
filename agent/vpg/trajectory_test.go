package vpg

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func TestTrajectoryRecordsAlignedSequences(t *testing.T) {
	trajectory := NewTrajectory(2)

	steps := []struct {
		obs     []float64
		action  float64
		reward  float64
		logProb float64
	}{
		{[]float64{0.1, 0.2}, 0, 1.0, -0.7},
		{[]float64{0.3, 0.4}, 1, -0.5, -0.3},
		{[]float64{0.5, 0.6}, 0, 2.0, -1.1},
	}

	for _, step := range steps {
		err := trajectory.Append(mat.NewVecDense(2, step.obs), step.action,
			step.reward, step.logProb)
		if err != nil {
			t.Fatalf("could not append step: %v", err)
		}
	}
	trajectory.Close()

	if trajectory.Len() != len(steps) {
		t.Errorf("wrong length\n\twant(%v)\n\thave(%v)", len(steps),
			trajectory.Len())
	}
	if len(trajectory.Rewards()) != len(trajectory.LogProbs()) {
		t.Errorf("rewards and log probabilities misaligned")
	}
	if len(trajectory.Actions()) != trajectory.Len() {
		t.Errorf("actions misaligned with trajectory")
	}
	if len(trajectory.Observations()) != trajectory.Len()*trajectory.ObsDim() {
		t.Errorf("observations misaligned with trajectory")
	}

	wantRewards := []float64{1.0, -0.5, 2.0}
	if !floats.Equal(trajectory.Rewards(), wantRewards) {
		t.Errorf("wrong rewards\n\twant(%v)\n\thave(%v)", wantRewards,
			trajectory.Rewards())
	}
	wantObs := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6}
	if !floats.Equal(trajectory.Observations(), wantObs) {
		t.Errorf("wrong observations\n\twant(%v)\n\thave(%v)", wantObs,
			trajectory.Observations())
	}
	if math.Abs(trajectory.TotalReward()-2.5) > 1e-12 {
		t.Errorf("wrong total reward\n\twant(%v)\n\thave(%v)", 2.5,
			trajectory.TotalReward())
	}
}

func TestTrajectoryRejectsShapeMismatch(t *testing.T) {
	trajectory := NewTrajectory(4)

	err := trajectory.Append(mat.NewVecDense(3, nil), 0, 1, -0.5)
	if err == nil {
		t.Error("appending an observation of the wrong length should fail")
	}
	if trajectory.Len() != 0 {
		t.Error("a rejected append should not record a step")
	}
}

func TestTrajectoryRejectsAppendAfterClose(t *testing.T) {
	trajectory := NewTrajectory(1)
	obs := mat.NewVecDense(1, []float64{1})

	if err := trajectory.Append(obs, 0, 1, -0.5); err != nil {
		t.Fatalf("could not append step: %v", err)
	}
	trajectory.Close()

	if !trajectory.Closed() {
		t.Error("trajectory should report closed after Close")
	}
	if err := trajectory.Append(obs, 0, 1, -0.5); err == nil {
		t.Error("appending to a closed trajectory should fail")
	}
	if trajectory.Len() != 1 {
		t.Error("a rejected append should not record a step")
	}
}

func TestTrajectoryAccessorsReturnCopies(t *testing.T) {
	trajectory := trajectoryWithRewards(t, []float64{1, 2, 3})

	rewards := trajectory.Rewards()
	rewards[0] = -100

	if trajectory.Rewards()[0] != 1 {
		t.Error("mutating a returned slice should not change the trajectory")
	}
}

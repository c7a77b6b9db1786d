package vpg

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// trajectoryWithRewards returns a closed trajectory holding the given
// reward sequence, with placeholder observations and actions
func trajectoryWithRewards(t *testing.T, rewards []float64) *Trajectory {
	t.Helper()

	trajectory := NewTrajectory(1)
	obs := mat.NewVecDense(1, []float64{0.0})
	for _, reward := range rewards {
		if err := trajectory.Append(obs, 0, reward, -0.5); err != nil {
			t.Fatalf("could not build trajectory: %v", err)
		}
	}
	trajectory.Close()

	return trajectory
}

func TestEstimateAdvantages(t *testing.T) {
	rewards := []float64{1, 1, 1}

	tests := []struct {
		name string
		mode AdvantageMode
		want []float64
	}{
		{"total reward", TotalReward, []float64{3, 3, 3}},
		{"reward to go", RewardToGo, []float64{3, 2, 1}},
		{"baselined reward to go", BaselinedRewardToGo, []float64{1, 0, -1}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			trajectory := trajectoryWithRewards(t, rewards)

			have, err := EstimateAdvantages(trajectory, test.mode)
			if err != nil {
				t.Fatalf("could not estimate advantages: %v", err)
			}
			if !floats.EqualApprox(have, test.want, 1e-12) {
				t.Errorf("wrong advantages\n\twant(%v)\n\thave(%v)",
					test.want, have)
			}
			if len(have) != trajectory.Len() {
				t.Errorf("advantages misaligned with trajectory"+
					"\n\twant(%v)\n\thave(%v)", trajectory.Len(), len(have))
			}
		})
	}
}

func TestEstimateAdvantagesRewardToGoStartsAtTotal(t *testing.T) {
	rewards := []float64{0.5, -2, 3, 1.25}
	trajectory := trajectoryWithRewards(t, rewards)

	advantages, err := EstimateAdvantages(trajectory, RewardToGo)
	if err != nil {
		t.Fatalf("could not estimate advantages: %v", err)
	}

	total := floats.Sum(rewards)
	if math.Abs(advantages[0]-total) > 1e-12 {
		t.Errorf("first reward-to-go is not the total reward"+
			"\n\twant(%v)\n\thave(%v)", total, advantages[0])
	}
}

func TestEstimateAdvantagesTotalRewardIsConstant(t *testing.T) {
	rewards := []float64{-1.5, 4, 0, 2.25, -3}
	trajectory := trajectoryWithRewards(t, rewards)

	advantages, err := EstimateAdvantages(trajectory, TotalReward)
	if err != nil {
		t.Fatalf("could not estimate advantages: %v", err)
	}

	total := floats.Sum(rewards)
	for i, advantage := range advantages {
		if advantage != total {
			t.Errorf("advantage %v is not the total reward"+
				"\n\twant(%v)\n\thave(%v)", i, total, advantage)
		}
	}
}

func TestEstimateAdvantagesBaselinedHasZeroMean(t *testing.T) {
	rewards := []float64{3.5, -1, 0.25, 7, -4.5, 2}
	trajectory := trajectoryWithRewards(t, rewards)

	advantages, err := EstimateAdvantages(trajectory, BaselinedRewardToGo)
	if err != nil {
		t.Fatalf("could not estimate advantages: %v", err)
	}

	mean := floats.Sum(advantages) / float64(len(advantages))
	if math.Abs(mean) > 1e-12 {
		t.Errorf("baselined advantages should have zero mean, got %v", mean)
	}
}

func TestEstimateAdvantagesSingleStep(t *testing.T) {
	trajectory := trajectoryWithRewards(t, []float64{2.5})

	toGo, err := EstimateAdvantages(trajectory, RewardToGo)
	if err != nil {
		t.Fatalf("could not estimate advantages: %v", err)
	}
	if len(toGo) != 1 || toGo[0] != 2.5 {
		t.Errorf("wrong single-step reward-to-go\n\twant([2.5])"+
			"\n\thave(%v)", toGo)
	}

	baselined, err := EstimateAdvantages(trajectory, BaselinedRewardToGo)
	if err != nil {
		t.Fatalf("could not estimate advantages: %v", err)
	}
	if len(baselined) != 1 || baselined[0] != 0 {
		t.Errorf("single-step baselined advantage should be exactly zero, "+
			"got %v", baselined)
	}
}

func TestEstimateAdvantagesDeterministic(t *testing.T) {
	trajectory := trajectoryWithRewards(t, []float64{1, -2, 0.5, 4})

	for _, mode := range []AdvantageMode{TotalReward, RewardToGo,
		BaselinedRewardToGo} {
		first, err := EstimateAdvantages(trajectory, mode)
		if err != nil {
			t.Fatalf("could not estimate advantages: %v", err)
		}
		second, err := EstimateAdvantages(trajectory, mode)
		if err != nil {
			t.Fatalf("could not estimate advantages: %v", err)
		}
		if !floats.Equal(first, second) {
			t.Errorf("%v advantages changed between calls"+
				"\n\twant(%v)\n\thave(%v)", mode, first, second)
		}
	}
}

func TestEstimateAdvantagesUnknownMode(t *testing.T) {
	trajectory := trajectoryWithRewards(t, []float64{1})

	_, err := EstimateAdvantages(trajectory, AdvantageMode(99))
	if !errors.Is(err, ErrUnknownAdvantageMode) {
		t.Errorf("unknown mode should fail with ErrUnknownAdvantageMode, "+
			"got %v", err)
	}
}

func TestEstimateAdvantagesEmptyTrajectory(t *testing.T) {
	trajectory := NewTrajectory(1)
	trajectory.Close()

	_, err := EstimateAdvantages(trajectory, RewardToGo)
	if !errors.Is(err, ErrEmptyTrajectory) {
		t.Errorf("empty trajectory should fail with ErrEmptyTrajectory, "+
			"got %v", err)
	}
}

func TestParseAdvantageMode(t *testing.T) {
	tests := []struct {
		in   string
		want AdvantageMode
	}{
		{"total_reward", TotalReward},
		{"reward_to_go", RewardToGo},
		{"baselined", BaselinedRewardToGo},
		{"reward_to_go_baselined", BaselinedRewardToGo},
	}

	for _, test := range tests {
		have, err := ParseAdvantageMode(test.in)
		if err != nil {
			t.Errorf("could not parse %q: %v", test.in, err)
			continue
		}
		if have != test.want {
			t.Errorf("wrong mode for %q\n\twant(%v)\n\thave(%v)", test.in,
				test.want, have)
		}
	}

	if _, err := ParseAdvantageMode("discounted"); !errors.Is(err,
		ErrUnknownAdvantageMode) {
		t.Errorf("unknown spelling should fail with "+
			"ErrUnknownAdvantageMode, got %v", err)
	}
}

func TestAdvantageModeValidate(t *testing.T) {
	for _, mode := range []AdvantageMode{TotalReward, RewardToGo,
		BaselinedRewardToGo} {
		if err := mode.Validate(); err != nil {
			t.Errorf("%v should validate, got %v", mode, err)
		}
	}

	if err := AdvantageMode(-1).Validate(); !errors.Is(err,
		ErrUnknownAdvantageMode) {
		t.Errorf("illegal mode should fail with ErrUnknownAdvantageMode, "+
			"got %v", err)
	}
}

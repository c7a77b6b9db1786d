package vpg

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrUnknownAdvantageMode is returned when an AdvantageMode is not one
// of the enumerated weighting policies. A malformed mode never falls
// back to a default.
var ErrUnknownAdvantageMode = errors.New("unknown advantage mode")

// AdvantageMode selects the temporal credit-assignment policy used to
// weight each timestep's contribution to the policy-gradient loss. It
// is a closed enumeration: every switch over AdvantageMode is
// exhaustive and rejects unknown values.
type AdvantageMode int

const (
	// TotalReward weights every timestep with the undiscounted sum of
	// all rewards in the trajectory
	TotalReward AdvantageMode = iota

	// RewardToGo weights timestep t with the undiscounted sum of
	// rewards from t to the end of the trajectory
	RewardToGo

	// BaselinedRewardToGo weights timestep t with its reward-to-go
	// minus the trajectory mean of the reward-to-go sequence. The
	// baseline reduces estimator variance without biasing the expected
	// gradient.
	BaselinedRewardToGo
)

// String implements the fmt.Stringer interface
func (m AdvantageMode) String() string {
	switch m {
	case TotalReward:
		return "total_reward"
	case RewardToGo:
		return "reward_to_go"
	case BaselinedRewardToGo:
		return "baselined"
	default:
		return fmt.Sprintf("AdvantageMode(%d)", int(m))
	}
}

// Validate returns an error if the mode is not one of the enumerated
// weighting policies
func (m AdvantageMode) Validate() error {
	switch m {
	case TotalReward, RewardToGo, BaselinedRewardToGo:
		return nil
	default:
		return fmt.Errorf("%w: %v", ErrUnknownAdvantageMode, m)
	}
}

// ParseAdvantageMode parses the configuration-file spelling of an
// AdvantageMode
func ParseAdvantageMode(s string) (AdvantageMode, error) {
	switch s {
	case "total_reward":
		return TotalReward, nil
	case "reward_to_go":
		return RewardToGo, nil
	case "baselined", "reward_to_go_baselined":
		return BaselinedRewardToGo, nil
	default:
		return 0, fmt.Errorf("parseadvantagemode: %w: %q",
			ErrUnknownAdvantageMode, s)
	}
}

// EstimateAdvantages computes one advantage per trajectory timestep,
// aligned index-for-index with the trajectory, under the given
// weighting mode. All modes are strictly undiscounted. The same
// trajectory and mode always yield the same sequence.
func EstimateAdvantages(t *Trajectory, mode AdvantageMode) ([]float64,
	error) {
	if t.Len() == 0 {
		return nil, fmt.Errorf("estimateadvantages: %w", ErrEmptyTrajectory)
	}

	rewards := t.Rewards()

	switch mode {
	case TotalReward:
		total := floats.Sum(rewards)
		advantages := make([]float64, len(rewards))
		for i := range advantages {
			advantages[i] = total
		}
		return advantages, nil

	case RewardToGo:
		return rewardsToGo(rewards), nil

	case BaselinedRewardToGo:
		advantages := rewardsToGo(rewards)
		baseline := stat.Mean(advantages, nil)
		floats.AddConst(-baseline, advantages)
		return advantages, nil

	default:
		return nil, fmt.Errorf("estimateadvantages: %w: %v",
			ErrUnknownAdvantageMode, mode)
	}
}

// rewardsToGo computes the undiscounted suffix sums of rewards in a
// single backward pass
func rewardsToGo(rewards []float64) []float64 {
	toGo := make([]float64, len(rewards))

	var running float64
	for i := len(rewards) - 1; i >= 0; i-- {
		running += rewards[i]
		toGo[i] = running
	}
	return toGo
}

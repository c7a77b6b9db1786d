package flappybird_test

import (
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/lgandara/dprl/environment/flappybird"
)

var (
	noFlap = mat.NewVecDense(1, []float64{0})
	flap   = mat.NewVecDense(1, []float64{1})
)

func TestFlappyBirdDeterministicUnderSeed(t *testing.T) {
	const seed uint64 = 14

	first, _ := flappybird.NewDefault(seed)
	second, _ := flappybird.NewDefault(seed)

	firstStep := first.Reset()
	secondStep := second.Reset()

	for i := 0; i < 50; i++ {
		if !mat.Equal(firstStep.Observation, secondStep.Observation) {
			t.Fatalf("step %v: identically seeded environments diverged", i)
		}
		if firstStep.Reward != secondStep.Reward {
			t.Fatalf("step %v: identically seeded environments gave "+
				"different rewards", i)
		}
		if firstStep.Last() {
			break
		}

		action := noFlap
		if i%3 == 0 {
			action = flap
		}

		var err error
		firstStep, err = first.Step(action)
		if err != nil {
			t.Fatalf("could not step environment: %v", err)
		}
		secondStep, err = second.Step(action)
		if err != nil {
			t.Fatalf("could not step environment: %v", err)
		}
	}
}

func TestFlappyBirdNeverFlappingHitsTheFloor(t *testing.T) {
	env, _ := flappybird.NewDefault(42)
	env.Reset()

	// Gravity pulls the spawn altitude to the floor well before the
	// first pipe reaches the bird
	for i := 0; i < 40; i++ {
		step, err := env.Step(noFlap)
		if err != nil {
			t.Fatalf("could not step environment: %v", err)
		}
		if !step.Last() {
			if step.Reward != flappybird.StepReward {
				t.Errorf("wrong mid-episode reward\n\twant(%v)\n\thave(%v)",
					flappybird.StepReward, step.Reward)
			}
			continue
		}

		if !step.Terminated() {
			t.Error("hitting the floor should terminate the episode")
		}
		if step.Reward != flappybird.CrashReward {
			t.Errorf("wrong crash reward\n\twant(%v)\n\thave(%v)",
				flappybird.CrashReward, step.Reward)
		}
		altitude := step.Observation.AtVec(0)
		if altitude+flappybird.BirdHeight-10 < flappybird.FloorY {
			t.Errorf("episode ended above the floor at altitude %v", altitude)
		}
		return
	}
	t.Error("never flapping should end the episode")
}

func TestFlappyBirdAlwaysFlappingHitsTheCeiling(t *testing.T) {
	env, _ := flappybird.NewDefault(42)
	env.Reset()

	for i := 0; i < 50; i++ {
		step, err := env.Step(flap)
		if err != nil {
			t.Fatalf("could not step environment: %v", err)
		}
		if !step.Last() {
			continue
		}

		if !step.Terminated() {
			t.Error("flying past the ceiling should terminate the episode")
		}
		if step.Reward != flappybird.CrashReward {
			t.Errorf("wrong crash reward\n\twant(%v)\n\thave(%v)",
				flappybird.CrashReward, step.Reward)
		}
		if altitude := step.Observation.AtVec(0); altitude >= flappybird.CeilingY {
			t.Errorf("episode ended below the ceiling at altitude %v",
				altitude)
		}
		return
	}
	t.Error("always flapping should end the episode")
}

func TestFlappyBirdRejectsIllegalAction(t *testing.T) {
	env, _ := flappybird.NewDefault(1)
	env.Reset()

	_, err := env.Step(mat.NewVecDense(1, []float64{2}))
	if err == nil {
		t.Error("an out-of-range action should fail")
	}
	_, err = env.Step(mat.NewVecDense(1, []float64{-1}))
	if err == nil {
		t.Error("a negative action should fail")
	}
}

func TestFlappyBirdTruncatesAtStepLimit(t *testing.T) {
	const limit = 3

	env, _ := flappybird.New(42, limit)
	env.Reset()

	var last bool
	for i := 0; i < limit; i++ {
		step, err := env.Step(noFlap)
		if err != nil {
			t.Fatalf("could not step environment: %v", err)
		}
		last = step.Last()

		if i < limit-1 {
			if last {
				t.Fatalf("episode ended early at step %v", i+1)
			}
			continue
		}

		if !last || !step.Truncated() {
			t.Error("reaching the step limit should truncate the episode")
		}
		if step.Terminated() {
			t.Error("a truncated episode should not report termination")
		}
		if step.Number != limit {
			t.Errorf("wrong final step number\n\twant(%v)\n\thave(%v)",
				limit, step.Number)
		}
	}
}

func TestFlappyBirdResetRestoresSpawnState(t *testing.T) {
	env, _ := flappybird.NewDefault(7)

	for i := 0; i < 5; i++ {
		step := env.Reset()

		if !step.First() {
			t.Error("reset should return a first step")
		}
		obs := step.Observation
		if obs.Len() != 4 {
			t.Fatalf("wrong observation length\n\twant(%v)\n\thave(%v)",
				4, obs.Len())
		}
		if obs.AtVec(0) != flappybird.BirdStartY {
			t.Errorf("wrong spawn altitude\n\twant(%v)\n\thave(%v)",
				flappybird.BirdStartY, obs.AtVec(0))
		}
		if obs.AtVec(3) != flappybird.PipeSpawnX {
			t.Errorf("wrong pipe spawn position\n\twant(%v)\n\thave(%v)",
				flappybird.PipeSpawnX, obs.AtVec(3))
		}
		if obs.AtVec(1) < 0 || obs.AtVec(2) < 0 {
			t.Error("gap distances should not be negative")
		}

		// Burn a few steps so the next reset has state to restore
		for j := 0; j < 3; j++ {
			if _, err := env.Step(noFlap); err != nil {
				t.Fatalf("could not step environment: %v", err)
			}
		}
	}
}

func TestFlappyBirdObservationTracksGapDistances(t *testing.T) {
	env, _ := flappybird.NewDefault(3)
	step := env.Reset()

	for i := 0; i < 10; i++ {
		var err error
		step, err = env.Step(noFlap)
		if err != nil {
			t.Fatalf("could not step environment: %v", err)
		}

		obs := step.Observation
		if obs.AtVec(1) < 0 || obs.AtVec(2) < 0 {
			t.Errorf("step %v: gap distances should not be negative", i)
		}
		wantX := flappybird.PipeSpawnX - float64(i+1)*flappybird.PipeSpeed
		if obs.AtVec(3) != wantX {
			t.Errorf("step %v: wrong pipe position\n\twant(%v)\n\thave(%v)",
				i, wantX, obs.AtVec(3))
		}
	}
}

func TestFlappyBirdRenderMarksBirdAndGap(t *testing.T) {
	env, _ := flappybird.NewDefault(11)
	env.Reset()

	frame := env.Render()
	if len(frame) != 41 {
		t.Fatalf("wrong frame width\n\twant(%v)\n\thave(%v)", 41, len(frame))
	}
	if strings.Count(frame, "#") != 1 {
		t.Errorf("frame should mark the bird exactly once: %q", frame)
	}
	// The bird marker is drawn last and may cover one gap edge
	if !strings.Contains(frame, "[") && !strings.Contains(frame, "]") {
		t.Errorf("frame should mark the pipe gap: %q", frame)
	}
}

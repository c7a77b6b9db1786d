package experiment

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"

	"github.com/lgandara/dprl/agent/vpg"
)

// TrainingLogger displays training progress: a progress bar advanced
// once per epoch with a reward/loss postfix, plus a structured metrics
// record logged every tableLogFreq epochs. Either output can be
// disabled independently.
type TrainingLogger struct {
	epochs       int
	tableLogFreq int

	bar      *progressbar.ProgressBar
	log      zerolog.Logger
	maxSteps int
}

// NewTrainingLogger returns a TrainingLogger for a run of the given
// number of epochs. If progress is false no progress bar is shown; if
// tableLogFreq is 0 no periodic metrics records are logged.
func NewTrainingLogger(out io.Writer, epochs int, progress bool,
	tableLogFreq int) *TrainingLogger {
	var bar *progressbar.ProgressBar
	if progress {
		bar = progressbar.NewOptions(epochs,
			progressbar.OptionSetWriter(out),
			progressbar.OptionSetDescription("training"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(25),
		)
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: out}).With().
		Timestamp().Logger()

	return &TrainingLogger{
		epochs:       epochs,
		tableLogFreq: tableLogFreq,
		bar:          bar,
		log:          log,
	}
}

// Update records the metrics of one completed epoch. Epochs are
// counted from 0.
func (t *TrainingLogger) Update(epoch int, m vpg.EpochMetrics) {
	if m.Steps > t.maxSteps {
		t.maxSteps = m.Steps
	}

	if t.bar != nil {
		t.bar.Describe(fmt.Sprintf(
			"training | reward=%8.1f | loss=%8.4f | max_steps=%5d",
			m.TotalReward, m.Loss, t.maxSteps))
		_ = t.bar.Add(1)
	}

	if t.tableLogFreq > 0 && (epoch+1)%t.tableLogFreq == 0 {
		t.log.Info().
			Int("epoch", epoch).
			Float64("loss", m.Loss).
			Float64("reward", m.TotalReward).
			Float64("max_reward", m.MaxReward).
			Int("steps", m.Steps).
			Int("max_steps", t.maxSteps).
			Msg("epoch metrics")
	}
}

// Close finishes the progress bar
func (t *TrainingLogger) Close() error {
	if t.bar == nil {
		return nil
	}
	return t.bar.Finish()
}

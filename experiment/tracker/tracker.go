// Package tracker implements trackers, which cache training metrics
// during an experiment and save them after the experiment has finished
package tracker

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/lgandara/dprl/agent/vpg"
)

// Tracker keeps track of per-epoch experiment data and saves the data
// after the experiment has finished
type Tracker interface {
	Track(m vpg.EpochMetrics)
	Save() error
}

// LoadData loads and returns the data saved by a Tracker
func LoadData(filename string) ([]float64, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("loaddata: could not open data file: %v", err)
	}
	defer file.Close()

	dec := gob.NewDecoder(file)
	var data []float64
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("loaddata: could not decode data: %v", err)
	}

	return data, nil
}

// scalarTracker caches one scalar per epoch in RAM and gob-encodes the
// series to disk on Save
type scalarTracker struct {
	filename string
	selector func(vpg.EpochMetrics) float64
	data     []float64
}

// Track caches the tracked scalar of one epoch's metrics
func (s *scalarTracker) Track(m vpg.EpochMetrics) {
	s.data = append(s.data, s.selector(m))
}

// Save writes all cached data to disk
func (s *scalarTracker) Save() error {
	file, err := os.Create(s.filename)
	if err != nil {
		return fmt.Errorf("save: could not create data file: %v", err)
	}
	defer file.Close()

	enc := gob.NewEncoder(file)
	if err := enc.Encode(s.data); err != nil {
		return fmt.Errorf("save: could not encode data: %v", err)
	}

	return nil
}

// Data returns the scalars cached so far
func (s *scalarTracker) Data() []float64 {
	return append([]float64{}, s.data...)
}

// Return tracks the total reward of each epoch
type Return struct {
	scalarTracker
}

// NewReturn returns a Tracker that tracks per-epoch total reward,
// saved to filename
func NewReturn(filename string) *Return {
	return &Return{scalarTracker{
		filename: filename,
		selector: func(m vpg.EpochMetrics) float64 { return m.TotalReward },
	}}
}

// Loss tracks the surrogate loss of each epoch
type Loss struct {
	scalarTracker
}

// NewLoss returns a Tracker that tracks per-epoch loss, saved to
// filename
func NewLoss(filename string) *Loss {
	return &Loss{scalarTracker{
		filename: filename,
		selector: func(m vpg.EpochMetrics) float64 { return m.Loss },
	}}
}

package plotter_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lgandara/dprl/experiment/plotter"
)

func TestLineWritesPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "returns.png")

	series := []float64{10, 12, 9, 20, 35, 50}
	require.NoError(t, plotter.Line(path, "return per epoch", series))
	assert.FileExists(t, path)
}

func TestLineHandlesFlatSeries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flat.png")

	require.NoError(t, plotter.Line(path, "flat", []float64{5, 5, 5}))
	assert.FileExists(t, path)
}

func TestLineRejectsShortSeries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.png")

	assert.Error(t, plotter.Line(path, "short", []float64{1}))
	assert.NoFileExists(t, path)
}

package floatutils

import (
	"math"
	"testing"
)

func TestClip(t *testing.T) {
	tests := []struct {
		value, min, max, want float64
	}{
		{0.5, 0, 1, 0.5},
		{-2, 0, 1, 0},
		{3, 0, 1, 1},
		{1, 1, 1, 1},
	}

	for _, test := range tests {
		if have := Clip(test.value, test.min, test.max); have != test.want {
			t.Errorf("wrong clipped value for %v\n\twant(%v)\n\thave(%v)",
				test.value, test.want, have)
		}
	}
}

func TestMinMax(t *testing.T) {
	values := []float64{3, -1, 7, 0.5}

	if have := Min(values...); have != -1 {
		t.Errorf("wrong minimum\n\twant(%v)\n\thave(%v)", -1.0, have)
	}
	if have := Max(values...); have != 7 {
		t.Errorf("wrong maximum\n\twant(%v)\n\thave(%v)", 7.0, have)
	}
}

func TestMaxSlice(t *testing.T) {
	max, indices := MaxSlice([]float64{2, 5, 5, 1, 5})
	if max != 5 {
		t.Errorf("wrong maximum\n\twant(%v)\n\thave(%v)", 5.0, max)
	}
	if len(indices) != 3 || indices[0] != 1 || indices[1] != 2 ||
		indices[2] != 4 {
		t.Errorf("wrong maximum indices\n\twant([1 2 4])\n\thave(%v)",
			indices)
	}

	max, indices = MaxSlice([]float64{9, 1, 2})
	if max != 9 || len(indices) != 1 || indices[0] != 0 {
		t.Errorf("wrong maximum at index 0\n\thave(%v, %v)", max, indices)
	}
}

func TestLogSumExp(t *testing.T) {
	values := []float64{1, 2, 3}

	var naive float64
	for _, val := range values {
		naive += math.Exp(val)
	}
	want := math.Log(naive)

	if have := LogSumExp(values...); math.Abs(have-want) > 1e-12 {
		t.Errorf("wrong log-sum-exp\n\twant(%v)\n\thave(%v)", want, have)
	}

	// Stability with large magnitudes where the naive form overflows
	large := LogSumExp(1000, 1000)
	if math.IsInf(large, 0) || math.Abs(large-(1000+math.Log(2))) > 1e-9 {
		t.Errorf("log-sum-exp should stay finite for large inputs, got %v",
			large)
	}
}

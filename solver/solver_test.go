package solver

import (
	"encoding/json"
	"testing"
)

func TestSolverJSONRoundTrip(t *testing.T) {
	adam, err := NewAdam(0.005, 1e-8, 0.9, 0.999, 1)
	if err != nil {
		t.Fatalf("could not create solver: %v", err)
	}

	data, err := json.Marshal(adam)
	if err != nil {
		t.Fatalf("could not marshal solver: %v", err)
	}

	var decoded Solver
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("could not unmarshal solver: %v", err)
	}

	if decoded.Type != Adam {
		t.Errorf("wrong solver type\n\twant(%v)\n\thave(%v)", Adam,
			decoded.Type)
	}
	config, ok := decoded.Config.(AdamConfig)
	if !ok {
		t.Fatalf("wrong config type %T", decoded.Config)
	}
	if config.StepSize != 0.005 {
		t.Errorf("wrong step size\n\twant(%v)\n\thave(%v)", 0.005,
			config.StepSize)
	}
	if decoded.Solver == nil {
		t.Error("unmarshalling should recreate the wrapped solver")
	}
}

func TestSolverUnknownTypeFails(t *testing.T) {
	var decoded Solver
	err := json.Unmarshal([]byte(`{"Type": "Newton", "Config": {}}`),
		&decoded)
	if err == nil {
		t.Error("unknown solver type should fail to unmarshal")
	}
}

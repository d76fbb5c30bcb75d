package mlmodel

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// twoTreeArtifact has one stump splitting on PM2.5 at 50 and one constant
// tree, so the ensemble mean is easy to compute by hand.
const twoTreeArtifact = `{
	"feature_names": ["PM2.5", "PM10", "NH3", "CO"],
	"trees": [
		{
			"children_left":  [1, -1, -1],
			"children_right": [2, -1, -1],
			"feature":        [0, -2, -2],
			"threshold":      [50.0, 0.0, 0.0],
			"value":          [0.0, 40.0, 120.0]
		},
		{
			"children_left":  [-1],
			"children_right": [-1],
			"feature":        [-2],
			"threshold":      [0.0],
			"value":          [60.0]
		}
	]
}`

func TestParseAndPredict(t *testing.T) {
	t.Parallel()

	m, err := Parse([]byte(twoTreeArtifact))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	tests := []struct {
		name string
		x    []float64
		want float64
	}{
		{name: "left branch", x: []float64{12.5, 30, 4, 0.7}, want: 50},   // (40+60)/2
		{name: "boundary goes left", x: []float64{50, 0, 0, 0}, want: 50}, // x <= threshold
		{name: "right branch", x: []float64{50.1, 0, 0, 0}, want: 90},     // (120+60)/2
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := m.Predict(tt.x)
			if err != nil {
				t.Fatalf("Predict: %v", err)
			}
			if got != tt.want {
				t.Errorf("Predict(%v) = %v, want %v", tt.x, got, tt.want)
			}
		})
	}
}

func TestPredictDimensionMismatch(t *testing.T) {
	t.Parallel()

	m, err := Parse([]byte(twoTreeArtifact))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	for _, x := range [][]float64{nil, {1}, {1, 2, 3}, {1, 2, 3, 4, 5}} {
		if _, err := m.Predict(x); !errors.Is(err, ErrDimensionMismatch) {
			t.Errorf("Predict(len=%d) error = %v, want ErrDimensionMismatch", len(x), err)
		}
	}
}

func TestFeatureNamesCopy(t *testing.T) {
	t.Parallel()

	m, err := Parse([]byte(twoTreeArtifact))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	names := m.FeatureNames()
	names[0] = "tampered"
	if m.FeatureNames()[0] != "PM2.5" {
		t.Error("FeatureNames must return an independent copy")
	}
}

func TestParseRejectsBadArtifacts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
	}{
		{name: "not json", raw: `not json`},
		{name: "no feature names", raw: `{"feature_names": [], "trees": [{"children_left":[-1],"children_right":[-1],"feature":[-2],"threshold":[0],"value":[1]}]}`},
		{name: "no trees", raw: `{"feature_names": ["a"], "trees": []}`},
		{name: "empty tree", raw: `{"feature_names": ["a"], "trees": [{}]}`},
		{
			name: "inconsistent arrays",
			raw:  `{"feature_names": ["a"], "trees": [{"children_left":[1,-1],"children_right":[1],"feature":[0,-2],"threshold":[0,0],"value":[0,1]}]}`,
		},
		{
			name: "feature index out of range",
			raw:  `{"feature_names": ["a"], "trees": [{"children_left":[-1],"children_right":[-1],"feature":[3],"threshold":[0],"value":[1]}]}`,
		},
		{
			name: "child index out of range",
			raw:  `{"feature_names": ["a"], "trees": [{"children_left":[5],"children_right":[1],"feature":[0],"threshold":[0],"value":[0]}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := Parse([]byte(tt.raw)); err == nil {
				t.Error("Parse should reject artifact")
			}
		})
	}
}

func TestEvalCyclicArtifactTerminates(t *testing.T) {
	t.Parallel()

	// Two internal nodes pointing at each other. Structurally valid indices,
	// so Parse accepts it; eval must bail out instead of spinning.
	raw := `{
		"feature_names": ["a"],
		"trees": [{
			"children_left":  [1, 0],
			"children_right": [1, 0],
			"feature":        [0, 0],
			"threshold":      [0.0, 0.0],
			"value":          [0.0, 0.0]
		}]
	}`
	m, err := Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := m.Predict([]float64{1}); !errors.Is(err, ErrBadArtifact) {
		t.Errorf("Predict on cyclic tree = %v, want ErrBadArtifact", err)
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(path, []byte(twoTreeArtifact), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := len(m.FeatureNames()); got != 4 {
		t.Errorf("feature count = %d, want 4", got)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Load should fail for a missing file")
	}
}

// Package mlmodel loads and evaluates the exported AQI regression artifact.
// The artifact is a JSON file produced by the training job: the ordered
// feature names the model was fitted against plus a flattened decision-tree
// ensemble. Prediction is the mean of the per-tree outputs.
package mlmodel

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

var (
	// ErrBadArtifact reports a file that parsed but fails structural checks.
	ErrBadArtifact = errors.New("invalid model artifact")
	// ErrDimensionMismatch reports an input vector whose length differs from
	// the artifact's feature count.
	ErrDimensionMismatch = errors.New("feature vector dimension mismatch")
)

// tree is one regressor in flattened array form. Node i branches on
// Feature[i] against Threshold[i]; Feature[i] < 0 marks a leaf whose output
// is Value[i]. Children indices point back into the same arrays.
type tree struct {
	ChildrenLeft  []int     `json:"children_left"`
	ChildrenRight []int     `json:"children_right"`
	Feature       []int     `json:"feature"`
	Threshold     []float64 `json:"threshold"`
	Value         []float64 `json:"value"`
}

func (t *tree) validate(idx, nFeatures int) error {
	n := len(t.Feature)
	if n == 0 {
		return fmt.Errorf("%w: tree %d has no nodes", ErrBadArtifact, idx)
	}
	if len(t.ChildrenLeft) != n || len(t.ChildrenRight) != n ||
		len(t.Threshold) != n || len(t.Value) != n {
		return fmt.Errorf("%w: tree %d has inconsistent node arrays", ErrBadArtifact, idx)
	}
	for i := 0; i < n; i++ {
		if t.Feature[i] >= nFeatures {
			return fmt.Errorf("%w: tree %d node %d references feature %d", ErrBadArtifact, idx, i, t.Feature[i])
		}
		if t.Feature[i] < 0 {
			continue // leaf
		}
		if t.ChildrenLeft[i] < 0 || t.ChildrenLeft[i] >= n ||
			t.ChildrenRight[i] < 0 || t.ChildrenRight[i] >= n {
			return fmt.Errorf("%w: tree %d node %d has child index out of range", ErrBadArtifact, idx, i)
		}
	}
	return nil
}

// eval walks the tree from the root. The step counter bounds traversal at the
// node count so a cyclic artifact cannot spin the request forever.
func (t *tree) eval(x []float64) (float64, error) {
	node := 0
	for steps := 0; steps <= len(t.Feature); steps++ {
		f := t.Feature[node]
		if f < 0 {
			return t.Value[node], nil
		}
		if x[f] <= t.Threshold[node] {
			node = t.ChildrenLeft[node]
		} else {
			node = t.ChildrenRight[node]
		}
	}
	return 0, fmt.Errorf("%w: tree traversal did not terminate", ErrBadArtifact)
}

// Model is a loaded, validated artifact. Evaluation is read-only, so a single
// Model is safe for concurrent use.
type Model struct {
	featureNames []string
	trees        []tree
}

type artifact struct {
	FeatureNames []string `json:"feature_names"`
	Trees        []tree   `json:"trees"`
}

// Load reads and validates the artifact at path.
func Load(path string) (*Model, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}
	return Parse(raw)
}

// Parse builds a Model from raw artifact bytes.
func Parse(raw []byte) (*Model, error) {
	var a artifact
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("parse model artifact: %w", err)
	}
	if len(a.FeatureNames) == 0 {
		return nil, fmt.Errorf("%w: no feature names", ErrBadArtifact)
	}
	if len(a.Trees) == 0 {
		return nil, fmt.Errorf("%w: no trees", ErrBadArtifact)
	}
	for i := range a.Trees {
		if err := a.Trees[i].validate(i, len(a.FeatureNames)); err != nil {
			return nil, err
		}
	}
	return &Model{featureNames: a.FeatureNames, trees: a.Trees}, nil
}

// FeatureNames returns the artifact's feature order as an independent copy.
func (m *Model) FeatureNames() []string {
	out := make([]string, len(m.featureNames))
	copy(out, m.featureNames)
	return out
}

// Predict evaluates the ensemble for one feature vector.
func (m *Model) Predict(x []float64) (float64, error) {
	if len(x) != len(m.featureNames) {
		return 0, fmt.Errorf("%w: got %d features, model expects %d",
			ErrDimensionMismatch, len(x), len(m.featureNames))
	}
	sum := 0.0
	for i := range m.trees {
		v, err := m.trees[i].eval(x)
		if err != nil {
			return 0, err
		}
		sum += v
	}
	return sum / float64(len(m.trees)), nil
}

package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	KindLinear = "linear"
	KindVoting = "voting"
)

// linearSpec is the exported form of a fitted linear classifier: one
// coefficient row per class (or a single row for a binary model).
type linearSpec struct {
	Classes      []int       `json:"classes"`
	Coefficients [][]float64 `json:"coefficients"`
	Intercepts   []float64   `json:"intercepts"`
}

type modelFile struct {
	Kind string `json:"kind"`
	linearSpec
	Estimators []linearSpec `json:"estimators"`
	Weights    []float64    `json:"weights"`
}

// LinearModel is a multinomial (softmax) or binary (sigmoid) linear classifier.
type LinearModel struct {
	classes    []int
	weights    *mat.Dense
	intercepts *mat.VecDense
	features   int
	binary     bool
}

// VotingModel averages the probabilities of its estimators (soft voting).
type VotingModel struct {
	classes    []int
	estimators []*LinearModel
	weights    []float64
}

// LoadJSONModel reads a linear or voting model document.
func LoadJSONModel(path string) (Classifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	var file modelFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}

	switch file.Kind {
	case KindLinear, "":
		return newLinearModel(file.linearSpec)
	case KindVoting:
		return newVotingModel(file.Estimators, file.Weights)
	default:
		return nil, fmt.Errorf("unsupported model kind %q", file.Kind)
	}
}

func newLinearModel(spec linearSpec) (*LinearModel, error) {
	if len(spec.Classes) < 2 {
		return nil, errors.New("model needs at least two classes")
	}
	rows := len(spec.Coefficients)
	binary := rows == 1 && len(spec.Classes) == 2
	if rows != len(spec.Classes) && !binary {
		return nil, fmt.Errorf("model has %d coefficient rows for %d classes", rows, len(spec.Classes))
	}
	if len(spec.Intercepts) != rows {
		return nil, fmt.Errorf("model has %d intercepts for %d coefficient rows", len(spec.Intercepts), rows)
	}
	width := len(spec.Coefficients[0])
	if width == 0 {
		return nil, errors.New("model has no features")
	}

	flat := make([]float64, 0, rows*width)
	for i, row := range spec.Coefficients {
		if len(row) != width {
			return nil, fmt.Errorf("coefficient row %d has %d values, want %d", i, len(row), width)
		}
		flat = append(flat, row...)
	}

	return &LinearModel{
		classes:    append([]int(nil), spec.Classes...),
		weights:    mat.NewDense(rows, width, flat),
		intercepts: mat.NewVecDense(rows, append([]float64(nil), spec.Intercepts...)),
		features:   width,
		binary:     binary,
	}, nil
}

func newVotingModel(specs []linearSpec, weights []float64) (*VotingModel, error) {
	if len(specs) == 0 {
		return nil, errors.New("voting model has no estimators")
	}
	if weights == nil {
		weights = make([]float64, len(specs))
		for i := range weights {
			weights[i] = 1
		}
	}
	if len(weights) != len(specs) {
		return nil, fmt.Errorf("voting model has %d weights for %d estimators", len(weights), len(specs))
	}
	if floats.Sum(weights) <= 0 {
		return nil, errors.New("voting model weights must sum to a positive value")
	}

	vm := &VotingModel{weights: append([]float64(nil), weights...)}
	for i, spec := range specs {
		est, err := newLinearModel(spec)
		if err != nil {
			return nil, fmt.Errorf("estimator %d: %w", i, err)
		}
		if i == 0 {
			vm.classes = est.classes
		} else if !sameClasses(vm.classes, est.classes) || est.features != vm.estimators[0].features {
			return nil, fmt.Errorf("estimator %d does not match the first estimator's classes or width", i)
		}
		vm.estimators = append(vm.estimators, est)
	}
	return vm, nil
}

func (m *LinearModel) NumFeatures() int { return m.features }

func (m *LinearModel) Close() error { return nil }

// PredictProba computes class probabilities for one feature row.
func (m *LinearModel) PredictProba(features []float64) ([]float64, error) {
	if err := checkWidth(features, m.features); err != nil {
		return nil, err
	}
	var scores mat.VecDense
	scores.MulVec(m.weights, mat.NewVecDense(len(features), features))
	scores.AddVec(&scores, m.intercepts)

	if m.binary {
		p := 1 / (1 + math.Exp(-scores.AtVec(0)))
		return []float64{1 - p, p}, nil
	}

	probs := make([]float64, scores.Len())
	for i := range probs {
		probs[i] = scores.AtVec(i)
	}
	lse := floats.LogSumExp(probs)
	for i, s := range probs {
		probs[i] = math.Exp(s - lse)
	}
	return probs, nil
}

// Predict returns the class code with the highest probability.
func (m *LinearModel) Predict(features []float64) (int, error) {
	probs, err := m.PredictProba(features)
	if err != nil {
		return 0, err
	}
	return m.classes[floats.MaxIdx(probs)], nil
}

func (v *VotingModel) NumFeatures() int { return v.estimators[0].features }

func (v *VotingModel) Close() error { return nil }

func (v *VotingModel) PredictProba(features []float64) ([]float64, error) {
	avg := make([]float64, len(v.classes))
	for i, est := range v.estimators {
		probs, err := est.PredictProba(features)
		if err != nil {
			return nil, fmt.Errorf("estimator %d: %w", i, err)
		}
		floats.AddScaled(avg, v.weights[i], probs)
	}
	floats.Scale(1/floats.Sum(v.weights), avg)
	return avg, nil
}

func (v *VotingModel) Predict(features []float64) (int, error) {
	probs, err := v.PredictProba(features)
	if err != nil {
		return 0, err
	}
	return v.classes[floats.MaxIdx(probs)], nil
}

func sameClasses(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

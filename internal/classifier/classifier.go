package classifier

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	// ErrUnknownClass is returned when a label or class code is not known to the encoder.
	ErrUnknownClass = errors.New("unknown class")
	// ErrFeatureWidth is returned when a feature vector does not match the model input width.
	ErrFeatureWidth = errors.New("feature vector width mismatch")
)

// Classifier is a trained model consumed as an opaque artifact.
type Classifier interface {
	// Predict returns the class code for a single feature row.
	Predict(features []float64) (int, error)
	// PredictProba returns the probability of every class for a single feature row,
	// ordered by class code.
	PredictProba(features []float64) ([]float64, error)
	// NumFeatures is the input width the model was trained on.
	NumFeatures() int
	Close() error
}

// Options carries what format-specific deserializers need beyond the file itself.
type Options struct {
	Features int
	Classes  int
	ONNX     ONNXOptions
}

// Load picks a deserializer by file extension: .onnx files go through ONNX
// Runtime, everything else is read as a JSON model document.
func Load(path string, opts Options) (Classifier, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".onnx":
		return NewONNXModel(path, opts)
	default:
		return LoadJSONModel(path)
	}
}

func checkWidth(features []float64, want int) error {
	if len(features) != want {
		return fmt.Errorf("%w: got %d, want %d", ErrFeatureWidth, len(features), want)
	}
	return nil
}

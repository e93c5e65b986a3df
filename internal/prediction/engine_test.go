package prediction

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/Skufu/GoDiagnose/internal/classifier"
	"github.com/Skufu/GoDiagnose/internal/resources"
)

var vocabulary = []string{"high_fever", "headache", "chills", "joint_pain", "vomiting", "skin_rash", "nausea", "fatigue"}

type fakeClassifier struct {
	code  int
	probs []float64
	err   error
	seen  []float64
}

func (f *fakeClassifier) Predict(features []float64) (int, error) {
	f.seen = append([]float64(nil), features...)
	return f.code, f.err
}

func (f *fakeClassifier) PredictProba(features []float64) ([]float64, error) {
	return f.probs, f.err
}

func (f *fakeClassifier) NumFeatures() int { return len(vocabulary) }

func (f *fakeClassifier) Close() error { return nil }

func newEngine(t *testing.T, clf classifier.Classifier) *Engine {
	t.Helper()
	enc, err := classifier.NewLabelEncoder([]string{"Dengue", "Malaria", "Typhoid", "Common Cold"})
	require.NoError(t, err)
	dict := &resources.DataDictionary{
		SymptomIndex:      map[string]int{"High Fever": 0, "Headache": 1},
		PredictionClasses: enc.Classes(),
	}
	return NewEngine(resources.New(clf, enc, dict, vocabulary), zerolog.Nop())
}

func testPolicy() Policy {
	return Policy{
		MinSymptoms:         3,
		TargetDiseases:      []string{"Dengue", "Malaria", "Typhoid"},
		ConfidenceThreshold: 40,
		Recommendations:     3,
	}
}

func TestPredictNotReady(t *testing.T) {
	engine := NewEngine(&resources.Resources{}, zerolog.Nop())
	require.False(t, engine.Ready())

	result, err := engine.Predict([]string{"high_fever", "headache", "chills"}, testPolicy())
	require.NoError(t, err)
	require.Equal(t, StatusError, result.Status)
	require.NotEmpty(t, result.Message)
}

func TestPredictInsufficientData(t *testing.T) {
	engine := newEngine(t, &fakeClassifier{probs: []float64{1, 0, 0, 0}})

	for _, tokens := range [][]string{nil, {"high_fever"}, {"nonsense", "more_nonsense"}} {
		result, err := engine.Predict(tokens, testPolicy())
		require.NoError(t, err)
		require.Equal(t, StatusInsufficient, result.Status)
		require.Contains(t, result.Message, "at least 3 symptoms")
	}
}

func TestPredictUnrecognizedSymptoms(t *testing.T) {
	engine := newEngine(t, &fakeClassifier{probs: []float64{1, 0, 0, 0}})

	tokens := []string{"sneezing", "itchy_eyes", "sneezing"}
	result, err := engine.Predict(tokens, testPolicy())
	require.NoError(t, err)
	require.Equal(t, StatusUnrecognized, result.Status)
	require.Equal(t, tokens, result.Unrecognized)
	require.Empty(t, result.PredictedLabel)
}

func TestPredictTargetDisease(t *testing.T) {
	clf := &fakeClassifier{code: 1, probs: []float64{0.1, 0.75, 0.1, 0.05}}
	engine := newEngine(t, clf)

	result, err := engine.Predict([]string{"high_fever", "chills", "sweating", "headache"}, testPolicy())
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, result.Status)
	require.Equal(t, "Malaria", result.PredictedLabel)
	require.Contains(t, result.Message, "Malaria")
	require.Equal(t, "75.00%", result.Confidence)
	require.InDelta(t, 75.0, result.Probability, 1e-9)
	require.Equal(t, []string{"sweating"}, result.Unrecognized)
	require.Empty(t, result.Hospitals)

	require.Equal(t, []float64{1, 1, 1, 0, 0, 0, 0, 0}, clf.seen)
}

func TestPredictBelowThreshold(t *testing.T) {
	engine := newEngine(t, &fakeClassifier{code: 0, probs: []float64{0.3512, 0.3, 0.2, 0.1488}})

	result, err := engine.Predict([]string{"high_fever", "headache", "joint_pain"}, testPolicy())
	require.NoError(t, err)
	require.Equal(t, StatusUncertain, result.Status)
	require.Equal(t, "Dengue", result.PredictedLabel)
	require.Equal(t, "35.12%", result.Confidence)
	require.Contains(t, result.Message, "35.12%")
	require.Empty(t, result.Hospitals)
}

func TestPredictOutOfScope(t *testing.T) {
	engine := newEngine(t, &fakeClassifier{code: 3, probs: []float64{0.05, 0.05, 0.1, 0.8}})

	result, err := engine.Predict([]string{"headache", "nausea", "fatigue"}, testPolicy())
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, result.Status)
	require.Equal(t, "Common Cold", result.PredictedLabel)
	require.Contains(t, result.Message, "Dengue, Malaria, Typhoid")
	require.Empty(t, result.Hospitals)
}

func TestPredictProbabilityMissingForLabel(t *testing.T) {
	engine := newEngine(t, &fakeClassifier{code: 2, probs: []float64{0.5, 0.5}})

	result, err := engine.Predict([]string{"headache", "nausea", "fatigue"}, testPolicy())
	require.NoError(t, err)
	require.Equal(t, StatusUncertain, result.Status)
	require.Equal(t, "0.00%", result.Confidence)
}

func TestPredictClassifierFailure(t *testing.T) {
	boom := errors.New("boom")
	engine := newEngine(t, &fakeClassifier{err: boom})

	_, err := engine.Predict([]string{"headache", "nausea", "fatigue"}, testPolicy())
	require.ErrorIs(t, err, boom)

	// shared resources stay usable
	require.True(t, engine.Ready())
}

func TestPredictUnknownClassCode(t *testing.T) {
	engine := newEngine(t, &fakeClassifier{code: 9, probs: []float64{1, 0, 0, 0}})

	_, err := engine.Predict([]string{"headache", "nausea", "fatigue"}, testPolicy())
	require.ErrorIs(t, err, classifier.ErrUnknownClass)
}

func TestLoadPolicy(t *testing.T) {
	p, err := LoadPolicy("")
	require.NoError(t, err)
	require.Equal(t, DefaultPolicy(), p)

	p, err = LoadPolicy(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, DefaultPolicy(), p)

	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("minSymptoms: 4\ntargetDiseases: [Malaria]\nconfidenceThreshold: 55.5\n"), 0o644))
	p, err = LoadPolicy(path)
	require.NoError(t, err)
	require.Equal(t, 4, p.MinSymptoms)
	require.Equal(t, []string{"Malaria"}, p.TargetDiseases)
	require.InDelta(t, 55.5, p.ConfidenceThreshold, 1e-9)
	require.Equal(t, 3, p.Recommendations)
	require.True(t, p.IsTarget("Malaria"))
	require.False(t, p.IsTarget("Dengue"))

	for _, bad := range []string{
		"confidenceThreshold: 140\n",
		"confidenceThreshold: -1\n",
		"minSymptoms: -2\n",
		"recommendations: 0\n",
	} {
		require.NoError(t, os.WriteFile(path, []byte(bad), 0o644))
		_, err = LoadPolicy(path)
		require.Error(t, err, bad)
	}

	require.NoError(t, os.WriteFile(path, []byte("minSymptoms: [\n"), 0o644))
	_, err = LoadPolicy(path)
	require.Error(t, err)
}

func TestLoadPolicyKeepsExplicitZeros(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("minSymptoms: 0\nconfidenceThreshold: 0\n"), 0o644))

	p, err := LoadPolicy(path)
	require.NoError(t, err)
	require.Equal(t, 0, p.MinSymptoms)
	require.Zero(t, p.ConfidenceThreshold)
	require.Equal(t, DefaultPolicy().TargetDiseases, p.TargetDiseases)
	require.Equal(t, 3, p.Recommendations)

	engine := newEngine(t, &fakeClassifier{code: 0, probs: []float64{0.01, 0.99, 0, 0}})
	result, err := engine.Predict([]string{"headache"}, p)
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, result.Status)
	require.Equal(t, "1.00%", result.Confidence)
}

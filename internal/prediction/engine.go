package prediction

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Skufu/GoDiagnose/internal/resources"
)

type Status string

const (
	StatusError        Status = "Error"
	StatusInsufficient Status = "Insufficient Data"
	StatusUnrecognized Status = "Unrecognized Symptoms"
	StatusUncertain    Status = "Uncertain Diagnosis"
	StatusSuccess      Status = "Prediction Successful"
)

const (
	notReadyMessage     = "Prediction service is not available due to a loading error. Please check server logs."
	unrecognizedMessage = "None of the provided symptoms were recognized by the system. Please check spelling or provide more common symptoms."
)

// Result is the outcome of one prediction request.
type Result struct {
	Status         Status   `json:"status"`
	Message        string   `json:"message"`
	PredictedLabel string   `json:"predictedDisease,omitempty"`
	Probability    float64  `json:"-"`
	Confidence     string   `json:"probability,omitempty"`
	Unrecognized   []string `json:"unrecognizedSymptoms"`
	Hospitals      []string `json:"hospitalRecommendations"`
}

// Engine maps symptom tokens onto the feature vocabulary and applies the
// confidence and target-disease policy to the classifier's output.
type Engine struct {
	res    *resources.Resources
	logger zerolog.Logger
}

func NewEngine(res *resources.Resources, logger zerolog.Logger) *Engine {
	return &Engine{res: res, logger: logger}
}

// Ready reports whether the underlying resources loaded.
func (e *Engine) Ready() bool {
	return e.res.Ready()
}

// Predict runs the decision procedure for already normalized tokens. Only a
// classifier failure is returned as an error; every other outcome is a Result.
func (e *Engine) Predict(tokens []string, policy Policy) (Result, error) {
	result := Result{Unrecognized: []string{}, Hospitals: []string{}}

	if !e.res.Ready() {
		result.Status = StatusError
		result.Message = notReadyMessage
		return result, nil
	}

	if len(tokens) < policy.MinSymptoms {
		result.Status = StatusInsufficient
		result.Message = fmt.Sprintf("Please provide at least %d symptoms for a prediction.", policy.MinSymptoms)
		return result, nil
	}

	features := make([]float64, e.res.NumFeatures())
	recognized := 0
	for _, token := range tokens {
		pos, ok := e.res.FeaturePosition(token)
		if !ok {
			result.Unrecognized = append(result.Unrecognized, token)
			continue
		}
		features[pos] = 1
		recognized++
	}

	if recognized == 0 {
		result.Status = StatusUnrecognized
		result.Message = unrecognizedMessage
		return result, nil
	}

	label, probability, err := e.classify(features)
	if err != nil {
		return Result{}, err
	}

	result.Status = StatusSuccess
	result.PredictedLabel = label
	result.Probability = probability
	result.Confidence = fmt.Sprintf("%.2f%%", probability)

	switch {
	case probability < policy.ConfidenceThreshold:
		result.Status = StatusUncertain
		result.Message = fmt.Sprintf("The prediction confidence (%.2f%%) is below the threshold. Please consult a healthcare professional for a definitive diagnosis.", probability)
	case policy.IsTarget(label):
		result.Message = fmt.Sprintf("Based on the symptoms provided, you may have %s.", label)
	default:
		result.Message = fmt.Sprintf("The system predicted '%s'. This model is specifically trained for %s. Please consult a healthcare professional.",
			label, strings.Join(policy.TargetDiseases, ", "))
	}
	return result, nil
}

func (e *Engine) classify(features []float64) (string, float64, error) {
	model := e.res.Classifier()
	encoder := e.res.Encoder()

	code, err := model.Predict(features)
	if err != nil {
		return "", 0, fmt.Errorf("classifier predict: %w", err)
	}
	label, err := encoder.Decode(code)
	if err != nil {
		return "", 0, fmt.Errorf("decode class %d: %w", code, err)
	}
	probs, err := model.PredictProba(features)
	if err != nil {
		return "", 0, fmt.Errorf("classifier predict_proba: %w", err)
	}

	idx, ok := encoder.Index(label)
	if !ok || idx >= len(probs) {
		e.logger.Warn().Str("label", label).Msg("predicted label not found in encoder classes")
		return label, 0, nil
	}
	return label, probs[idx] * 100, nil
}

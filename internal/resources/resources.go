package resources

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/Skufu/GoDiagnose/internal/classifier"
)

// Paths locates the startup artifacts.
type Paths struct {
	Model        string
	Encoder      string
	DataDict     string
	TrainingData string
}

// Resources holds everything the prediction engine reads. It is built once at
// startup and never mutated; an unloaded value reports Ready() == false.
type Resources struct {
	model      classifier.Classifier
	encoder    *classifier.LabelEncoder
	dict       *DataDictionary
	vocabulary []string
	vocabIndex map[string]int
}

// New assembles resources from already loaded parts.
func New(model classifier.Classifier, encoder *classifier.LabelEncoder, dict *DataDictionary, vocabulary []string) *Resources {
	r := &Resources{
		model:      model,
		encoder:    encoder,
		dict:       dict,
		vocabulary: append([]string(nil), vocabulary...),
		vocabIndex: make(map[string]int, len(vocabulary)),
	}
	for i, name := range r.vocabulary {
		if _, dup := r.vocabIndex[name]; !dup {
			r.vocabIndex[name] = i
		}
	}
	return r
}

// Load reads every artifact. Any failure is logged and yields empty resources;
// callers must consult Ready.
func Load(paths Paths, opts classifier.Options, logger zerolog.Logger) *Resources {
	res, err := load(paths, opts, logger)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Error().Err(err).Msg("required file missing; ensure the model, encoder, data dictionary and training data are present")
		} else {
			logger.Error().Err(err).Msg("unexpected error while loading resources")
		}
		return &Resources{}
	}
	return res
}

func load(paths Paths, opts classifier.Options, logger zerolog.Logger) (*Resources, error) {
	vocabulary, err := LoadFeatureVocabulary(paths.TrainingData)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("file", paths.TrainingData).Str("size", fileSize(paths.TrainingData)).
		Int("columns", len(vocabulary)).Msg("training columns loaded")

	encoder, err := classifier.LoadLabelEncoder(paths.Encoder)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("file", paths.Encoder).Int("classes", encoder.Len()).Msg("encoder loaded")

	dict, err := LoadDataDictionary(paths.DataDict)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("file", paths.DataDict).Int("symptoms", len(dict.SymptomIndex)).Msg("data dictionary loaded")

	opts.Features = len(vocabulary)
	opts.Classes = encoder.Len()
	model, err := classifier.Load(paths.Model, opts)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	if model.NumFeatures() != len(vocabulary) {
		_ = model.Close()
		return nil, fmt.Errorf("%w: model expects %d features, training data has %d columns",
			classifier.ErrFeatureWidth, model.NumFeatures(), len(vocabulary))
	}
	logger.Info().Str("file", paths.Model).Str("size", fileSize(paths.Model)).Msg("model loaded")

	if len(dict.SymptomIndex) != len(vocabulary) {
		logger.Warn().Int("symptom_index", len(dict.SymptomIndex)).Int("training_columns", len(vocabulary)).
			Msg("symptom index size does not match training columns; predictions may be inaccurate")
	}

	return New(model, encoder, dict, vocabulary), nil
}

func fileSize(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return "unknown"
	}
	return humanize.Bytes(uint64(info.Size()))
}

// Ready reports whether every resource is loaded and non-empty.
func (r *Resources) Ready() bool {
	return r != nil &&
		r.model != nil &&
		r.encoder != nil && r.encoder.Len() > 0 &&
		r.dict != nil &&
		len(r.dict.SymptomIndex) > 0 &&
		len(r.vocabulary) > 0
}

func (r *Resources) Classifier() classifier.Classifier { return r.model }

func (r *Resources) Encoder() *classifier.LabelEncoder { return r.encoder }

// FeaturePosition returns the vector position of a canonical symptom token.
func (r *Resources) FeaturePosition(token string) (int, bool) {
	i, ok := r.vocabIndex[token]
	return i, ok
}

// Vocabulary returns a copy of the ordered feature columns.
func (r *Resources) Vocabulary() []string {
	return append([]string(nil), r.vocabulary...)
}

// NumFeatures is the width of the feature vector.
func (r *Resources) NumFeatures() int {
	return len(r.vocabulary)
}

// SymptomNames lists the symptom index keys ordered by index position.
func (r *Resources) SymptomNames() []string {
	if r == nil || r.dict == nil {
		return []string{}
	}
	names := make([]string, 0, len(r.dict.SymptomIndex))
	for name := range r.dict.SymptomIndex {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := r.dict.SymptomIndex[names[i]], r.dict.SymptomIndex[names[j]]
		if a == b {
			return names[i] < names[j]
		}
		return a < b
	})
	return names
}

// Close releases the classifier.
func (r *Resources) Close() error {
	if r == nil || r.model == nil {
		return nil
	}
	return r.model.Close()
}

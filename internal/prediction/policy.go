package prediction

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Policy holds the decision constants supplied by the request boundary.
type Policy struct {
	MinSymptoms         int      `yaml:"minSymptoms" json:"minSymptoms"`
	TargetDiseases      []string `yaml:"targetDiseases" json:"targetDiseases"`
	ConfidenceThreshold float64  `yaml:"confidenceThreshold" json:"confidenceThreshold"`
	Recommendations     int      `yaml:"recommendations" json:"recommendations"`
}

func DefaultPolicy() Policy {
	return Policy{
		MinSymptoms:         7,
		TargetDiseases:      []string{"Dengue", "Malaria", "Typhoid"},
		ConfidenceThreshold: 40.0,
		Recommendations:     3,
	}
}

// Validate rejects values the engine cannot apply. Zero is a legal
// minimum or threshold.
func (p Policy) Validate() error {
	switch {
	case p.MinSymptoms < 0:
		return fmt.Errorf("min symptoms %d is negative", p.MinSymptoms)
	case p.ConfidenceThreshold < 0:
		return fmt.Errorf("confidence threshold %.2f is negative", p.ConfidenceThreshold)
	case p.ConfidenceThreshold > 100:
		return fmt.Errorf("confidence threshold %.2f is above 100%%", p.ConfidenceThreshold)
	case p.Recommendations < 1:
		return fmt.Errorf("recommendations %d must be at least 1", p.Recommendations)
	}
	return nil
}

// LoadPolicy reads a YAML policy file over DefaultPolicy, so keys left out keep
// their default and explicit zeros are kept. An empty path or a missing file
// yields the defaults.
func LoadPolicy(path string) (Policy, error) {
	p := DefaultPolicy()
	if strings.TrimSpace(path) == "" {
		return p, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return p, nil
		}
		return p, fmt.Errorf("read policy: %w", err)
	}

	loaded := DefaultPolicy()
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return p, fmt.Errorf("decode policy: %w", err)
	}
	if err := loaded.Validate(); err != nil {
		return p, fmt.Errorf("invalid policy: %w", err)
	}
	return loaded, nil
}

// IsTarget reports whether label is one of the target diseases.
func (p Policy) IsTarget(label string) bool {
	for _, d := range p.TargetDiseases {
		if d == label {
			return true
		}
	}
	return false
}

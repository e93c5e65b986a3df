package resources

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const dataDictSchema = `{
	"type": "object",
	"required": ["symptom_index", "predictions_classes"],
	"properties": {
		"symptom_index": {
			"type": "object",
			"minProperties": 1,
			"additionalProperties": {"type": "integer", "minimum": 0}
		},
		"predictions_classes": {
			"type": "array",
			"minItems": 1,
			"items": {"type": "string"}
		}
	}
}`

var dataDictSchemaLoader = gojsonschema.NewStringLoader(dataDictSchema)

// DataDictionary is the training-time metadata shipped next to the model.
type DataDictionary struct {
	SymptomIndex      map[string]int `json:"symptom_index"`
	PredictionClasses []string       `json:"predictions_classes"`
}

// LoadDataDictionary reads and schema-validates the data dictionary document.
func LoadDataDictionary(path string) (*DataDictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read data dictionary: %w", err)
	}

	result, err := gojsonschema.Validate(dataDictSchemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("validate data dictionary: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("invalid data dictionary: %s", strings.Join(msgs, "; "))
	}

	var dict DataDictionary
	if err := json.Unmarshal(data, &dict); err != nil {
		return nil, fmt.Errorf("decode data dictionary: %w", err)
	}
	return &dict, nil
}

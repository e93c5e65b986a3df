package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// LabelEncoder is an immutable bidirectional mapping between class codes and
// disease names. Class code i is the i-th entry of the ordered class list.
type LabelEncoder struct {
	classes []string
	index   map[string]int
}

type encoderFile struct {
	Classes []string `json:"classes"`
}

// NewLabelEncoder builds an encoder from an ordered class list.
func NewLabelEncoder(classes []string) (*LabelEncoder, error) {
	if len(classes) == 0 {
		return nil, errors.New("label encoder has no classes")
	}
	enc := &LabelEncoder{
		classes: make([]string, len(classes)),
		index:   make(map[string]int, len(classes)),
	}
	for i, c := range classes {
		if strings.TrimSpace(c) == "" {
			return nil, fmt.Errorf("label encoder class %d is blank", i)
		}
		if _, dup := enc.index[c]; dup {
			return nil, fmt.Errorf("label encoder class %q is duplicated", c)
		}
		enc.classes[i] = c
		enc.index[c] = i
	}
	return enc, nil
}

// LoadLabelEncoder reads a {"classes": [...]} document.
func LoadLabelEncoder(path string) (*LabelEncoder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read label encoder: %w", err)
	}
	var file encoderFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode label encoder: %w", err)
	}
	return NewLabelEncoder(file.Classes)
}

// Encode returns the class code for a label.
func (e *LabelEncoder) Encode(label string) (int, error) {
	code, ok := e.index[label]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownClass, label)
	}
	return code, nil
}

// Decode returns the label for a class code.
func (e *LabelEncoder) Decode(code int) (string, error) {
	if code < 0 || code >= len(e.classes) {
		return "", fmt.Errorf("%w: code %d", ErrUnknownClass, code)
	}
	return e.classes[code], nil
}

// Index reports the position of label among the known classes.
func (e *LabelEncoder) Index(label string) (int, bool) {
	i, ok := e.index[label]
	return i, ok
}

// Classes returns a copy of the ordered class list.
func (e *LabelEncoder) Classes() []string {
	out := make([]string, len(e.classes))
	copy(out, e.classes)
	return out
}

func (e *LabelEncoder) Len() int {
	return len(e.classes)
}

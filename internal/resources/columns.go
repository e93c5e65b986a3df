package resources

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strings"
)

// LoadFeatureVocabulary reads the reference training CSV and returns its
// header minus columns that hold no values and minus the trailing label column.
func LoadFeatureVocabulary(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open training data: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read training data: %w", err)
	}
	if len(rows) == 0 {
		return nil, errors.New("training data has no header")
	}

	header := rows[0]
	filled := make([]bool, len(header))
	for _, row := range rows[1:] {
		for i := 0; i < len(row) && i < len(header); i++ {
			if strings.TrimSpace(row[i]) != "" {
				filled[i] = true
			}
		}
	}

	columns := make([]string, 0, len(header))
	for i, name := range header {
		if filled[i] {
			columns = append(columns, cleanCell(name))
		}
	}
	if len(columns) == 0 {
		return []string{}, nil
	}
	return columns[:len(columns)-1], nil
}

func cleanCell(cell string) string {
	return strings.TrimSpace(strings.TrimPrefix(cell, "\ufeff"))
}

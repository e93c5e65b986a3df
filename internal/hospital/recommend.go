package hospital

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/rs/zerolog"
)

const defaultRecommendations = 3

// Recommender samples hospitals whose specialties mention a disease.
type Recommender struct {
	dir    *Directory
	logger zerolog.Logger
	perm   func(n int) []int
}

func NewRecommender(dir *Directory, logger zerolog.Logger) *Recommender {
	return &Recommender{dir: dir, logger: logger, perm: rand.Perm}
}

// Recommend returns up to n formatted hospitals specializing in disease, in
// random order. It always returns at least one entry: when nothing can be
// recommended the single entry explains why. A non-positive n is not a bound:
// it means the default of 3, so Recommend(d, 0) may return up to 3 entries.
func (r *Recommender) Recommend(disease string, n int) []string {
	if n <= 0 {
		n = defaultRecommendations
	}
	if !r.dir.Loaded() {
		return []string{"Hospital recommendations not available due to data loading error or file not found."}
	}
	if !r.dir.HasColumn(ColumnSpecialties) {
		r.logger.Warn().Str("column", ColumnSpecialties).Msg("column not found in hospital data")
		return []string{fmt.Sprintf("Hospital recommendations not available: '%s' column missing.", ColumnSpecialties)}
	}

	term := strings.ToLower(disease)
	var matches [][]string
	for _, row := range r.dir.rows {
		spec, ok := r.dir.value(row, ColumnSpecialties)
		if ok && strings.Contains(strings.ToLower(spec), term) {
			matches = append(matches, row)
		}
	}
	if len(matches) == 0 {
		return []string{fmt.Sprintf("No hospitals found specializing in '%s' in the provided data.", disease)}
	}

	for _, col := range []string{ColumnName, ColumnAddress, ColumnContact} {
		if !r.dir.HasColumn(col) {
			r.logger.Warn().Str("column", col).Msg("required column not found in hospital data")
			return []string{"Hospital recommendations not available: Required columns missing."}
		}
	}

	k := min(n, len(matches))
	order := r.perm(len(matches))[:k]
	out := make([]string, 0, k)
	for _, i := range order {
		out = append(out, r.format(matches[i]))
	}
	return out
}

func (r *Recommender) format(row []string) string {
	return fmt.Sprintf("%s (Address: %s, Contact: %s)",
		r.field(row, ColumnName), r.field(row, ColumnAddress), r.field(row, ColumnContact))
}

func (r *Recommender) field(row []string, column string) string {
	if v, ok := r.dir.value(row, column); ok {
		return v
	}
	return "N/A"
}

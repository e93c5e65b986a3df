package symptoms

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "empty", in: "", want: []string{}},
		{name: "whitespace only", in: "  \t\n ", want: []string{}},
		{name: "commas only", in: " , ,, ", want: []string{}},
		{name: "mixed case and padding", in: "Fever, Headache ,  joint_pain", want: []string{"fever", "headache", "joint_pain"}},
		{name: "internal spaces", in: "Joint Pain,high fever", want: []string{"joint_pain", "high_fever"}},
		{name: "duplicates kept", in: "fever,Fever,fever", want: []string{"fever", "fever", "fever"}},
		{name: "full width letters", in: "ＦＥＶＥＲ", want: []string{"fever"}},
		{name: "full width comma is not a separator", in: "high fever，headache", want: []string{"high_fever,headache"}},
		{name: "small comma is not a separator", in: "chills﹐nausea, vomiting", want: []string{"chills,nausea", "vomiting"}},
		{name: "ideographic space trimmed", in: "\u3000fever\u3000,chills", want: []string{"fever", "chills"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeCompatibilityCommasKeepTokenCount(t *testing.T) {
	require.Len(t, Normalize("high fever，headache﹐chills"), 1)
	require.Len(t, Normalize("high fever,headache,chills"), 3)
}

func TestNormalizeNeverNil(t *testing.T) {
	require.NotNil(t, Normalize(""))
	require.NotNil(t, Normalize(",,,"))
}

func TestDisplay(t *testing.T) {
	require.Equal(t, "Joint Pain", Display("joint_pain"))
	require.Equal(t, "Fever", Display("fever"))
	require.Equal(t, []string{"High Fever", "Chills"}, DisplayAll([]string{"high_fever", "chills"}))
}

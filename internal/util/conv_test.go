package util_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"quizprep_backend/internal/util"
)

func TestNormalizeAnswerLetter(t *testing.T) {
	tests := map[string]struct {
		in   string
		want string
	}{
		"plain uppercase":       {"B", "B"},
		"lowercase":             {"c", "C"},
		"whitespace":            {"  D ", "D"},
		"char code uppercase":   {"66", "B"},
		"char code lowercase":   {"98", "B"},
		"char code with spaces": {" 65 ", "A"},
		"not a char code":       {"7", "7"},
		"code between cases":    {"94", "94"}, // '^' is not a letter
		"empty":                 {"", ""},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, tt.want, util.NormalizeAnswerLetter(tt.in))
		})
	}
}

func TestExtractQuestionCount(t *testing.T) {
	require.Equal(t, 25, util.ExtractQuestionCount("generate 25 questions about Go", 10))
	require.Equal(t, 10, util.ExtractQuestionCount("generate some questions about Go", 10))
	require.Equal(t, 3, util.ExtractQuestionCount("3 hard SQL questions, medium difficulty", 10))
}

func TestClamp(t *testing.T) {
	require.Equal(t, 5, util.Clamp(2, 5, 10000))
	require.Equal(t, 10000, util.Clamp(50000, 5, 10000))
	require.Equal(t, 42, util.Clamp(42, 5, 10000))
}

package service

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestTruncateOnRuneBoundary(t *testing.T) {
	require.Equal(t, "short", truncateOnRuneBoundary("short", 10))
	require.Equal(t, "abc", truncateOnRuneBoundary("abcdef", 3))

	// "简历" is 6 bytes; cutting at 4 would split the second character
	s := "简历"
	got := truncateOnRuneBoundary(s, 4)
	require.Equal(t, "简", got)
	require.True(t, utf8.ValidString(got))

	long := strings.Repeat("资", 3000) // 9000 bytes
	got = truncateOnRuneBoundary(long, 5000)
	require.True(t, utf8.ValidString(got))
	require.LessOrEqual(t, len(got), 5000)
}

func TestExtractTextRejectsUnsupportedTypes(t *testing.T) {
	_, err := extractText("resume.doc", []byte("legacy"))
	require.Error(t, err)

	text, err := extractText("resume.txt", []byte("plain text body"))
	require.NoError(t, err)
	require.Equal(t, "plain text body", text)
}

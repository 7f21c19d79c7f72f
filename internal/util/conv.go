package util

import (
	"regexp"
	"strconv"
	"strings"
)

var firstIntPattern = regexp.MustCompile(`\b(\d+)\b`)

// ExtractQuestionCount pulls the first integer out of a free-text prompt
// ("generate 25 questions about ..."), falling back to def when the prompt
// names no number.
func ExtractQuestionCount(prompt string, def int) int {
	m := firstIntPattern.FindStringSubmatch(prompt)
	if m == nil {
		return def
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return def
	}
	return n
}

// Clamp bounds n to [min, max].
func Clamp(n, min, max int) int {
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}

// NormalizeAnswerLetter maps the stored or submitted representation of an
// answer onto an uppercase letter. Legacy rows can hold the numeric
// character code instead of the letter ("66" instead of "B").
func NormalizeAnswerLetter(s string) string {
	s = strings.TrimSpace(s)
	if code, err := strconv.Atoi(s); err == nil {
		switch {
		case code >= 'A' && code <= 'Z':
			s = string(rune(code))
		case code >= 'a' && code <= 'z':
			s = string(rune(code))
		}
	}
	return strings.ToUpper(s)
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"quizprep_backend/internal/config"
	"quizprep_backend/internal/util"
	"quizprep_backend/pkg/logger"
	"quizprep_backend/pkg/monitoring"
)

// QuizCompleter produces raw completion text for a generation prompt.
// *AIService is the production implementation; tests substitute stubs.
type QuizCompleter interface {
	CompleteQuiz(ctx context.Context, prompt string) (string, error)
}

// GeneratedQuestion is one validated item from a model response.
type GeneratedQuestion struct {
	Question    string            `json:"question"`
	Options     map[string]string `json:"options"`
	Answer      string            `json:"answer"`
	Explanation string            `json:"explanation"`
	Topic       string            `json:"topic"`
	Difficulty  string            `json:"difficulty"`
	Company     string            `json:"company"`
}

type GeneratorService struct {
	completer QuizCompleter
	config    config.QuizConfig
}

func NewGeneratorService(completer QuizCompleter, cfg config.QuizConfig) *GeneratorService {
	return &GeneratorService{completer: completer, config: cfg}
}

var (
	fenceOpenRe   = regexp.MustCompile("(?s)^\\s*```(?:json)?\\s*")
	fenceCloseRe  = regexp.MustCompile("(?s)\\s*```\\s*$")
	htmlCommentRe = regexp.MustCompile(`(?s)<!--.*?-->`)
	trailingComma = regexp.MustCompile(`,\s*([}\]])`)
	controlChars  = regexp.MustCompile("[\x00-\x08\x0b\x0c\x0e-\x1f]")
)

// CleanResponse strips the markdown and JSON noise models wrap their output
// in: code fences, HTML comments, trailing commas and stray control
// characters. It does not guarantee valid JSON; ExtractJSONArray does the
// structural check.
func CleanResponse(raw string) string {
	s := strings.TrimSpace(raw)
	s = fenceOpenRe.ReplaceAllString(s, "")
	s = fenceCloseRe.ReplaceAllString(s, "")
	s = htmlCommentRe.ReplaceAllString(s, "")
	s = controlChars.ReplaceAllString(s, "")
	s = trailingComma.ReplaceAllString(s, "$1")
	return strings.TrimSpace(s)
}

// ExtractJSONArray locates the first top-level JSON array in s by bracket
// counting (string and escape aware) and returns it, or "" when no balanced
// valid array exists. Models often surround the array with prose; this cuts
// it out.
func ExtractJSONArray(s string) string {
	start := strings.Index(s, "[")
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '[':
			if !inString {
				depth++
			}
		case ']':
			if !inString {
				depth--
				if depth == 0 {
					candidate := s[start : i+1]
					if json.Valid([]byte(candidate)) {
						return candidate
					}
					return ""
				}
			}
		}
	}
	return ""
}

var optionKeys = []string{"A", "B", "C", "D"}

// ValidateQuestion checks one parsed item against the structural contract:
// non-empty question text, options with exactly the keys A..D all non-empty,
// and an answer that normalizes to one of those keys. The normalized answer
// is written back on success.
func ValidateQuestion(q *GeneratedQuestion) error {
	if strings.TrimSpace(q.Question) == "" {
		return fmt.Errorf("empty question text")
	}
	if len(q.Options) != len(optionKeys) {
		return fmt.Errorf("expected %d options, got %d", len(optionKeys), len(q.Options))
	}
	for _, key := range optionKeys {
		if strings.TrimSpace(q.Options[key]) == "" {
			return fmt.Errorf("missing or empty option %q", key)
		}
	}
	answer := util.NormalizeAnswerLetter(q.Answer)
	valid := false
	for _, key := range optionKeys {
		if answer == key {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("answer %q is not one of A..D", q.Answer)
	}
	q.Answer = answer
	return nil
}

// ParseQuestions runs clean/extract/unmarshal over one raw model response
// and returns the structurally valid items. Invalid items are dropped, not
// fatal; a response with no usable array returns an empty slice.
func ParseQuestions(raw string) []GeneratedQuestion {
	cleaned := CleanResponse(raw)
	arr := ExtractJSONArray(cleaned)
	if arr == "" {
		return nil
	}
	var items []GeneratedQuestion
	if err := json.Unmarshal([]byte(arr), &items); err != nil {
		return nil
	}
	out := make([]GeneratedQuestion, 0, len(items))
	for i := range items {
		if err := ValidateQuestion(&items[i]); err != nil {
			monitoring.GeneratedQuestions.WithLabelValues("invalid").Inc()
			logger.Log.Debug("丢弃无效题目", zap.Error(err))
			continue
		}
		out = append(out, items[i])
	}
	return out
}

// dedupeKey folds question text so near-identical phrasings collide.
func dedupeKey(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}

// Generate produces exactly total unique questions for prompt, batching
// upstream requests and filling shortfalls with bounded retries. Upstream
// failures are logged and count as zero-progress rounds rather than
// aborting. It returns fewer than total when repeated fill rounds make no
// progress, which the caller surfaces as a generation failure.
func (s *GeneratorService) Generate(ctx context.Context, prompt string, total int) ([]GeneratedQuestion, error) {
	batchSize := s.config.MaxBatchSize
	if batchSize <= 0 {
		batchSize = 20
	}

	collected := make([]GeneratedQuestion, 0, total)
	seen := make(map[string]struct{}, total)

	absorb := func(items []GeneratedQuestion) int {
		added := 0
		for _, q := range items {
			key := dedupeKey(q.Question)
			if _, dup := seen[key]; dup {
				monitoring.GeneratedQuestions.WithLabelValues("duplicate").Inc()
				continue
			}
			seen[key] = struct{}{}
			collected = append(collected, q)
			monitoring.GeneratedQuestions.WithLabelValues("accepted").Inc()
			added++
			if len(collected) >= total {
				break
			}
		}
		return added
	}

	// 单批失败只记录并返回 0，让补齐阶段继续兜底
	requestBatch := func(n int) int {
		start := time.Now()
		batchPrompt := fmt.Sprintf("%s\n\nGenerate exactly %d unique multiple-choice questions.", prompt, n)
		raw, err := s.completer.CompleteQuiz(ctx, batchPrompt)
		monitoring.GeneratorBatchDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			logger.Log.Warn("generation batch failed",
				zap.Int("requested", n),
				zap.Error(err))
			return 0
		}
		return absorb(ParseQuestions(raw))
	}

	// 初始批次按计划请求一遍，不足部分交给补齐阶段
	for planned := total; planned > 0 && len(collected) < total; planned -= batchSize {
		n := planned
		if n > batchSize {
			n = batchSize
		}
		requestBatch(n)
	}

	fillAttempts := s.config.FillAttempts
	if fillAttempts <= 0 {
		fillAttempts = 3
	}
	zeroRounds := 0
	for len(collected) < total && zeroRounds < fillAttempts {
		missing := total - len(collected)
		n := missing
		if n > batchSize {
			n = batchSize
		}
		if requestBatch(n) == 0 {
			zeroRounds++
		} else {
			zeroRounds = 0
		}
	}

	if len(collected) > total {
		collected = collected[:total]
	}
	if len(collected) < total {
		logger.Log.Warn("generation shortfall",
			zap.Int("requested", total),
			zap.Int("produced", len(collected)))
	}
	return collected, nil
}

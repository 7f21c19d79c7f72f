package service_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"quizprep_backend/internal/config"
	"quizprep_backend/internal/service"
)

func makeItem(text string) service.GeneratedQuestion {
	return service.GeneratedQuestion{
		Question: text,
		Options: map[string]string{
			"A": "first", "B": "second", "C": "third", "D": "fourth",
		},
		Answer:     "B",
		Topic:      "Go",
		Difficulty: "medium",
	}
}

func itemsJSON(t *testing.T, items []service.GeneratedQuestion) string {
	t.Helper()
	data, err := json.Marshal(items)
	require.NoError(t, err)
	return string(data)
}

// scriptedCompleter replays canned responses, then empty arrays.
type scriptedCompleter struct {
	responses []string
	calls     int
}

func (s *scriptedCompleter) CompleteQuiz(_ context.Context, _ string) (string, error) {
	if s.calls >= len(s.responses) {
		s.calls++
		return "[]", nil
	}
	r := s.responses[s.calls]
	s.calls++
	return r, nil
}

// countingCompleter mints fresh unique questions on every call.
type countingCompleter struct {
	perCall int
	next    int
	calls   int
}

func (s *countingCompleter) CompleteQuiz(_ context.Context, _ string) (string, error) {
	s.calls++
	items := make([]service.GeneratedQuestion, 0, s.perCall)
	for i := 0; i < s.perCall; i++ {
		items = append(items, makeItem(fmt.Sprintf("What does feature %d do?", s.next)))
		s.next++
	}
	data, err := json.Marshal(items)
	return string(data), err
}

func quizConfig() config.QuizConfig {
	return config.QuizConfig{
		MinQuestions: 5,
		MaxQuestions: 10000,
		MaxBatchSize: 20,
		FillAttempts: 3,
	}
}

func TestCleanResponse(t *testing.T) {
	raw := "```json\n[{\"question\": \"q\",}]\n```"
	cleaned := service.CleanResponse(raw)
	require.Equal(t, `[{"question": "q"}]`, cleaned)

	raw = "<!-- model note -->\n[1, 2,\x00 3]"
	require.Equal(t, "[1, 2, 3]", service.CleanResponse(raw))
}

func TestExtractJSONArray(t *testing.T) {
	got := service.ExtractJSONArray(`Here are your questions: [{"a": 1}] hope this helps`)
	require.Equal(t, `[{"a": 1}]`, got)

	// brackets inside strings must not throw off the counting
	got = service.ExtractJSONArray(`[{"q": "what does arr[0] mean?"}]`)
	require.Equal(t, `[{"q": "what does arr[0] mean?"}]`, got)

	// nested arrays stay inside the outer one
	got = service.ExtractJSONArray(`prefix [[1, 2], [3]] suffix`)
	require.Equal(t, `[[1, 2], [3]]`, got)

	require.Empty(t, service.ExtractJSONArray("no array here"))
	require.Empty(t, service.ExtractJSONArray("[unterminated"))
	require.Empty(t, service.ExtractJSONArray(`[{"broken": }]`))
}

func TestValidateQuestion(t *testing.T) {
	q := makeItem("valid?")
	require.NoError(t, service.ValidateQuestion(&q))

	q = makeItem("char code answer")
	q.Answer = "67"
	require.NoError(t, service.ValidateQuestion(&q))
	require.Equal(t, "C", q.Answer)

	q = makeItem("lowercase answer")
	q.Answer = "d"
	require.NoError(t, service.ValidateQuestion(&q))
	require.Equal(t, "D", q.Answer)

	q = makeItem("")
	require.Error(t, service.ValidateQuestion(&q))

	q = makeItem("three options only")
	delete(q.Options, "D")
	require.Error(t, service.ValidateQuestion(&q))

	q = makeItem("wrong option key")
	delete(q.Options, "D")
	q.Options["E"] = "fifth"
	require.Error(t, service.ValidateQuestion(&q))

	q = makeItem("answer out of range")
	q.Answer = "E"
	require.Error(t, service.ValidateQuestion(&q))
}

func TestParseQuestionsDropsInvalidItems(t *testing.T) {
	good := makeItem("keep me?")
	bad := makeItem("drop me?")
	bad.Answer = "Z"
	raw := "```json\n" + itemsJSON(t, []service.GeneratedQuestion{good, bad}) + "\n```"

	parsed := service.ParseQuestions(raw)
	require.Len(t, parsed, 1)
	require.Equal(t, "keep me?", parsed[0].Question)
}

func TestGenerateExactCount(t *testing.T) {
	items := []service.GeneratedQuestion{
		makeItem("q1?"), makeItem("q2?"), makeItem("q3?"),
		makeItem("q4?"), makeItem("q5?"),
	}
	completer := &scriptedCompleter{responses: []string{itemsJSON(t, items)}}
	gen := service.NewGeneratorService(completer, quizConfig())

	got, err := gen.Generate(context.Background(), "5 Go questions", 5)
	require.NoError(t, err)
	require.Len(t, got, 5)
	require.Equal(t, 1, completer.calls)

	seen := map[string]bool{}
	for _, q := range got {
		require.False(t, seen[q.Question])
		seen[q.Question] = true
	}
}

func TestGenerateFillsAfterDuplicates(t *testing.T) {
	first := []service.GeneratedQuestion{
		makeItem("q1?"), makeItem("q2?"), makeItem("q3?"),
		makeItem("q4?"), makeItem("Q1?"), // dupe of q1 modulo case
	}
	second := []service.GeneratedQuestion{makeItem("q5?")}
	completer := &scriptedCompleter{responses: []string{
		itemsJSON(t, first),
		itemsJSON(t, second),
	}}
	gen := service.NewGeneratorService(completer, quizConfig())

	got, err := gen.Generate(context.Background(), "5 Go questions", 5)
	require.NoError(t, err)
	require.Len(t, got, 5)
	require.Equal(t, 2, completer.calls)
}

func TestGenerateBatchesLargeRequests(t *testing.T) {
	completer := &countingCompleter{perCall: 20}
	gen := service.NewGeneratorService(completer, quizConfig())

	got, err := gen.Generate(context.Background(), "lots of questions", 45)
	require.NoError(t, err)
	require.Len(t, got, 45)
	require.Equal(t, 3, completer.calls)
}

// flakyCompleter fails its first failures calls, then mints fresh questions.
type flakyCompleter struct {
	failures int
	inner    countingCompleter
}

func (s *flakyCompleter) CompleteQuiz(ctx context.Context, prompt string) (string, error) {
	if s.failures > 0 {
		s.failures--
		s.inner.calls++
		return "", fmt.Errorf("upstream timeout")
	}
	return s.inner.CompleteQuiz(ctx, prompt)
}

type failingCompleter struct {
	calls int
}

func (s *failingCompleter) CompleteQuiz(_ context.Context, _ string) (string, error) {
	s.calls++
	return "", fmt.Errorf("upstream down")
}

func TestGenerateRecoversFromTransientUpstreamFailure(t *testing.T) {
	completer := &flakyCompleter{failures: 1, inner: countingCompleter{perCall: 5}}
	gen := service.NewGeneratorService(completer, quizConfig())

	got, err := gen.Generate(context.Background(), "5 Go questions", 5)
	require.NoError(t, err)
	require.Len(t, got, 5)
	require.Equal(t, 2, completer.inner.calls)
}

func TestGenerateReturnsShortWhenUpstreamKeepsFailing(t *testing.T) {
	completer := &failingCompleter{}
	gen := service.NewGeneratorService(completer, quizConfig())

	got, err := gen.Generate(context.Background(), "5 Go questions", 5)
	require.NoError(t, err)
	require.Empty(t, got)
	// one planned round plus the bounded fill rounds
	require.Equal(t, 4, completer.calls)
}

func TestGenerateStopsAfterStalledFillRounds(t *testing.T) {
	// the upstream keeps repeating the same question, so fill rounds make no
	// progress and generation must terminate short instead of spinning
	same := itemsJSON(t, []service.GeneratedQuestion{makeItem("the only question?")})
	completer := &scriptedCompleter{responses: []string{same, same, same, same, same, same}}
	gen := service.NewGeneratorService(completer, quizConfig())

	got, err := gen.Generate(context.Background(), "5 Go questions", 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.LessOrEqual(t, completer.calls, 5)
}

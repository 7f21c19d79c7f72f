package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"quizprep_backend/internal/config"
)

// quizContext is the system prompt for question generation. The generator
// treats the model's compliance as best effort; the pipeline in
// generator_service.go enforces the actual contract.
const quizContext = `You are an AI specialized in generating technical MCQs for interview preparation platforms.

### Your strict job:
- Generate ONLY the exact number of questions requested by the user.
- Each question must be challenging, realistic, and technically deep.

### Each MCQ must have:
1. "question": clear question text
2. "options": a JSON object with exactly 4 plausible options (A, B, C, D)
3. "answer": one correct option key ("A", "B", "C", or "D")
4. "explanation": why the correct answer is right and the others are wrong
5. "topic": e.g. SQL, Python, Java, DSA, Web Development
6. "difficulty": easy, medium, hard
7. "company": e.g. Google, Amazon, TCS, Infosys, Microsoft

### Extra rules:
- Options must confuse smartly, not trivially.
- No question repetition.
- Output ONLY a valid JSON array. NO markdown formatting, NO text outside JSON.`

// enhanceContext is the system prompt for the prompt-refinement endpoint.
const enhanceContext = `You are a prompt refinement assistant. Improve user prompts for quiz question generation:
1. Make them specific and unambiguous
2. Clarify scope and difficulty (default medium if unspecified)
3. Keep the refined prompt short, similar to the original
4. Do NOT ask the user for more details
5. Always use numerical values for quantities ("10 questions", not "ten questions")
Return only the improved prompt.`

type AIService struct {
	mu     sync.RWMutex
	config config.AIConfig
	client *http.Client
}

func NewAIService(cfg config.AIConfig) *AIService {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &AIService{
		config: cfg,
		client: &http.Client{Timeout: timeout},
	}
}

// UpdateConfig swaps API settings at runtime (config hot reload).
func (s *AIService) UpdateConfig(cfg config.AIConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = cfg
}

type AIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionRequest struct {
	Model       string          `json:"model"`
	Messages    []AIChatMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
	TopP        float64         `json:"top_p"`
	MaxTokens   int             `json:"max_tokens"`
}

type ChatCompletionResponse struct {
	Choices []struct {
		Message AIChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// CompleteQuiz sends one generation request and returns the raw completion
// text. The response is untrusted; callers must clean and validate it.
func (s *AIService) CompleteQuiz(ctx context.Context, prompt string) (string, error) {
	return s.complete(ctx, quizContext, prompt)
}

// EnhancePrompt asks the model to refine a user's quiz prompt.
func (s *AIService) EnhancePrompt(ctx context.Context, prompt string) (string, error) {
	return s.complete(ctx, enhanceContext, prompt)
}

func (s *AIService) complete(ctx context.Context, systemContext, prompt string) (string, error) {
	s.mu.RLock()
	cfg := s.config
	s.mu.RUnlock()

	reqBody := ChatCompletionRequest{
		Model: cfg.Model,
		Messages: []AIChatMessage{
			{Role: "system", Content: systemContext},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.2,
		TopP:        0.9,
		MaxTokens:   4096,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("AI API error (status %d): %s", resp.StatusCode, string(body))
	}

	var completion ChatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", err
	}

	if completion.Error != nil {
		return "", fmt.Errorf("AI API error: %s", completion.Error.Message)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("AI API returned no choices")
	}

	return completion.Choices[0].Message.Content, nil
}

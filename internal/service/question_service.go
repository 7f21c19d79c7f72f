package service

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"quizprep_backend/internal/config"
	"quizprep_backend/internal/model"
	"quizprep_backend/internal/repository"
	"quizprep_backend/internal/util"
	"quizprep_backend/pkg/logger"
)

const generationCacheTTL = time.Hour

type QuestionService struct {
	questionRepo *repository.QuestionRepository
	generator    *GeneratorService
	ai           *AIService
	redis        *redis.Client
	config       config.QuizConfig
}

func NewQuestionService(questionRepo *repository.QuestionRepository, generator *GeneratorService, ai *AIService, rdb *redis.Client, cfg config.QuizConfig) *QuestionService {
	return &QuestionService{
		questionRepo: questionRepo,
		generator:    generator,
		ai:           ai,
		redis:        rdb,
		config:       cfg,
	}
}

// ClampCount folds a requested question count into the configured bounds.
func (s *QuestionService) ClampCount(n int) int {
	return util.Clamp(n, s.config.MinQuestions, s.config.MaxQuestions)
}

func generationCacheKey(prompt string, count int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d", prompt, count)))
	return fmt.Sprintf("quizgen:%x", sum)
}

// GenerateQuestions produces count unique bank questions for prompt. Counts
// outside the configured bounds are clamped, not rejected. Identical
// generations within the cache window are served from Redis; otherwise the
// pipeline runs and every produced item is persisted with text-level dedupe
// against the bank. A shortfall after all fill rounds is ErrGenerationFailed.
func (s *QuestionService) GenerateQuestions(ctx context.Context, userID, prompt string, count int) ([]model.Question, error) {
	count = s.ClampCount(count)

	cacheKey := generationCacheKey(prompt, count)
	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, cacheKey).Result(); err == nil {
			var ids []string
			if json.Unmarshal([]byte(cached), &ids) == nil && len(ids) == count {
				questions, err := s.questionRepo.FindByIDs(ids)
				if err == nil && len(questions) == count {
					return questions, nil
				}
			}
		}
	}

	generated, err := s.generator.Generate(ctx, prompt, count)
	if err != nil {
		return nil, err
	}
	if len(generated) < count {
		logger.Log.Warn("题目生成数量不足",
			zap.Int("requested", count),
			zap.Int("produced", len(generated)))
		return nil, util.ErrGenerationFailed
	}

	questions := make([]model.Question, 0, count)
	created := 0
	for _, g := range generated {
		q, isNew, err := s.persistQuestion(userID, g)
		if err != nil {
			return nil, err
		}
		if isNew {
			created++
		}
		questions = append(questions, *q)
	}
	logger.Log.Info("generation persisted",
		zap.Int("new", created),
		zap.Int("existing", len(questions)-created))

	s.logPrompt(prompt, generated)

	if s.redis != nil {
		ids := make([]string, len(questions))
		for i, q := range questions {
			ids[i] = q.ID
		}
		if payload, err := json.Marshal(ids); err == nil {
			if err := s.redis.Set(ctx, cacheKey, payload, generationCacheTTL).Err(); err != nil {
				logger.Log.Warn("failed to cache generation result", zap.Error(err))
			}
		}
	}

	return questions, nil
}

// persistQuestion writes one generated item to the bank, reusing an existing
// row when the exact text is already stored.
func (s *QuestionService) persistQuestion(userID string, g GeneratedQuestion) (*model.Question, bool, error) {
	existing, err := s.questionRepo.FindByText(g.Question)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	q := &model.Question{
		QuestionText:  g.Question,
		OptionA:       g.Options["A"],
		OptionB:       g.Options["B"],
		OptionC:       g.Options["C"],
		OptionD:       g.Options["D"],
		CorrectAnswer: g.Answer,
		Explanation:   g.Explanation,
		Topic:         g.Topic,
		Difficulty:    g.Difficulty,
		Company:       g.Company,
		CreatedBy:     userID,
	}
	if err := s.questionRepo.Create(q); err != nil {
		return nil, false, err
	}
	return q, true, nil
}

func (s *QuestionService) logPrompt(prompt string, generated []GeneratedQuestion) {
	payload, err := json.Marshal(generated)
	if err != nil {
		return
	}
	entry := &model.PromptLog{Prompt: prompt, Response: payload}
	if err := s.questionRepo.CreatePromptLog(entry); err != nil {
		logger.Log.Warn("failed to write prompt log", zap.Error(err))
	}
}

// EnhancePrompt refines a raw user prompt before generation.
func (s *QuestionService) EnhancePrompt(ctx context.Context, prompt string) (string, error) {
	return s.ai.EnhancePrompt(ctx, prompt)
}

// GetQuestions resolves an id list in request order; missing ids are
// skipped, an empty list is fine.
func (s *QuestionService) GetQuestions(ids []string) ([]model.Question, error) {
	if len(ids) == 0 {
		return []model.Question{}, nil
	}
	return s.questionRepo.FindByIDs(ids)
}

func (s *QuestionService) GetQuestion(id string) (*model.Question, error) {
	q, err := s.questionRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuestionNotFound
		}
		return nil, err
	}
	return q, nil
}

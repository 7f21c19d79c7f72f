package repository

import (
	"quizprep_backend/internal/model"

	"gorm.io/gorm"
)

type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

func (r *QuestionRepository) Create(q *model.Question) error {
	return r.DB.Create(q).Error
}

func (r *QuestionRepository) FindByID(id string) (*model.Question, error) {
	var q model.Question
	err := r.DB.First(&q, "id = ?", id).Error
	return &q, err
}

func (r *QuestionRepository) FindByText(text string) (*model.Question, error) {
	var q model.Question
	err := r.DB.First(&q, "question_text = ?", text).Error
	return &q, err
}

// FindByIDs returns the questions in the order the ids were requested.
// Missing ids are skipped, not an error.
func (r *QuestionRepository) FindByIDs(ids []string) ([]model.Question, error) {
	var qs []model.Question
	if err := r.DB.Where("id IN ?", ids).Find(&qs).Error; err != nil {
		return nil, err
	}

	byID := make(map[string]model.Question, len(qs))
	for _, q := range qs {
		byID[q.ID] = q
	}

	ordered := make([]model.Question, 0, len(qs))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			ordered = append(ordered, q)
		}
	}
	return ordered, nil
}

func (r *QuestionRepository) CreatePromptLog(log *model.PromptLog) error {
	return r.DB.Create(log).Error
}

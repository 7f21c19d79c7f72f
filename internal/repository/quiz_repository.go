package repository

import (
	"time"

	"quizprep_backend/internal/model"

	"gorm.io/gorm"
)

type QuizRepository struct {
	DB *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: db}
}

// CreateSessionWithQuestions inserts the session and its ordered question
// links as one unit.
func (r *QuizRepository) CreateSessionWithQuestions(session *model.QuizSession, questionIDs []string) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(session).Error; err != nil {
			return err
		}
		for idx, qid := range questionIDs {
			link := model.QuizSessionQuestion{
				QuizSessionID: session.ID,
				QuestionID:    qid,
				QuestionOrder: idx + 1,
			}
			if err := tx.Create(&link).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *QuizRepository) FindSessionByID(id string) (*model.QuizSession, error) {
	var s model.QuizSession
	err := r.DB.First(&s, "id = ?", id).Error
	return &s, err
}

func (r *QuizRepository) FindOwnedSession(id, userID string) (*model.QuizSession, error) {
	var s model.QuizSession
	err := r.DB.First(&s, "id = ? AND user_id = ?", id, userID).Error
	return &s, err
}

func (r *QuizRepository) FindSessionWithQuestions(id, userID string) (*model.QuizSession, error) {
	var s model.QuizSession
	err := r.DB.
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("question_order asc")
		}).
		Preload("Questions.Question").
		First(&s, "id = ? AND user_id = ?", id, userID).Error
	return &s, err
}

func (r *QuizRepository) UpdateSession(session *model.QuizSession) error {
	return r.DB.Save(session).Error
}

func (r *QuizRepository) FindAnswersBySession(sessionID string) ([]model.UserAnswer, error) {
	var answers []model.UserAnswer
	err := r.DB.Where("quiz_session_id = ?", sessionID).Find(&answers).Error
	return answers, err
}

// ListSubmittedByUser returns submitted sessions newest first; limit <= 0
// means no limit.
func (r *QuizRepository) ListSubmittedByUser(userID string, limit int) ([]model.QuizSession, error) {
	var sessions []model.QuizSession
	query := r.DB.
		Where("user_id = ? AND submitted_at IS NOT NULL", userID).
		Order("submitted_at desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&sessions).Error
	return sessions, err
}

func (r *QuizRepository) ListAllByUser(userID string) ([]model.QuizSession, error) {
	var sessions []model.QuizSession
	err := r.DB.Where("user_id = ?", userID).Find(&sessions).Error
	return sessions, err
}

func (r *QuizRepository) CountSessionsSince(userID string, since time.Time) (int64, error) {
	var count int64
	err := r.DB.Model(&model.QuizSession{}).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Count(&count).Error
	return count, err
}

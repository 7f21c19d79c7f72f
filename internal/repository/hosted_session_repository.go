package repository

import (
	"quizprep_backend/internal/model"

	"gorm.io/gorm"
)

type HostedSessionRepository struct {
	DB *gorm.DB
}

func NewHostedSessionRepository(db *gorm.DB) *HostedSessionRepository {
	return &HostedSessionRepository{DB: db}
}

// CreateTemplateAndRoom writes the template, its ordered question list and
// the room record as one unit.
func (r *HostedSessionRepository) CreateTemplateAndRoom(template *model.HostedQuizSession, questionIDs []string, room *model.HostedSession) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(template).Error; err != nil {
			return err
		}
		for idx, qid := range questionIDs {
			link := model.HostedQuizSessionQuestion{
				HostedQuizSessionID: template.ID,
				QuestionID:          qid,
				QuestionOrder:       idx + 1,
			}
			if err := tx.Create(&link).Error; err != nil {
				return err
			}
		}
		room.QuizSessionID = template.ID
		return tx.Create(room).Error
	})
}

func (r *HostedSessionRepository) FindRoomByID(id string) (*model.HostedSession, error) {
	var room model.HostedSession
	err := r.DB.First(&room, "id = ?", id).Error
	return &room, err
}

// FindRoomForUpdate loads the room under a row lock. Must run inside a
// transaction.
func (r *HostedSessionRepository) FindRoomForUpdate(tx *gorm.DB, id string) (*model.HostedSession, error) {
	var room model.HostedSession
	err := LockForUpdate(tx).First(&room, "id = ?", id).Error
	return &room, err
}

func (r *HostedSessionRepository) FindTemplateByID(id string) (*model.HostedQuizSession, error) {
	var template model.HostedQuizSession
	err := r.DB.First(&template, "id = ?", id).Error
	return &template, err
}

func (r *HostedSessionRepository) FindTemplateWithQuestions(id string) (*model.HostedQuizSession, error) {
	var template model.HostedQuizSession
	err := r.DB.
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("question_order asc")
		}).
		First(&template, "id = ?", id).Error
	return &template, err
}

func (r *HostedSessionRepository) FindParticipant(roomID, userID string) (*model.HostedSessionParticipant, error) {
	var p model.HostedSessionParticipant
	err := r.DB.First(&p, "hosted_session_id = ? AND user_id = ?", roomID, userID).Error
	return &p, err
}

func (r *HostedSessionRepository) FindRoomBySession(sessionID string) (*model.HostedSession, error) {
	var room model.HostedSession
	err := r.DB.First(&room, "id = (?)",
		r.DB.Model(&model.HostedSessionParticipant{}).
			Select("hosted_session_id").
			Where("quiz_session_id = ?", sessionID),
	).Error
	return &room, err
}

func (r *HostedSessionRepository) ListParticipants(roomID string) ([]model.HostedSessionParticipant, error) {
	var ps []model.HostedSessionParticipant
	err := r.DB.Where("hosted_session_id = ?", roomID).Find(&ps).Error
	return ps, err
}

func (r *HostedSessionRepository) ListLeaderboard(roomID string) ([]model.LeaderboardEntry, error) {
	var entries []model.LeaderboardEntry
	err := r.DB.
		Where("hosted_session_id = ?", roomID).
		Order("position asc").
		Find(&entries).Error
	return entries, err
}

func (r *HostedSessionRepository) ListActiveRooms() ([]model.HostedSession, error) {
	var rooms []model.HostedSession
	err := r.DB.Where("is_active = ?", true).Order("created_at desc").Find(&rooms).Error
	return rooms, err
}

func (r *HostedSessionRepository) ListRoomsByHost(hostID string) ([]model.HostedSession, error) {
	var rooms []model.HostedSession
	err := r.DB.Where("host_id = ?", hostID).Order("created_at desc").Find(&rooms).Error
	return rooms, err
}

func (r *HostedSessionRepository) UpdateRoom(room *model.HostedSession) error {
	return r.DB.Save(room).Error
}

package service

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"quizprep_backend/internal/model"
	"quizprep_backend/internal/repository"
	"quizprep_backend/internal/util"
)

type CreateRoomRequest struct {
	Title         string  `json:"title" binding:"required"`
	Prompt        string  `json:"prompt" binding:"required"`
	NumQuestions  int     `json:"numQuestions"`
	TotalDuration float64 `json:"totalDuration"`
	TotalSpots    int     `json:"totalSpots" binding:"required,gt=0"`
	Topic         string  `json:"topic"`
	Difficulty    string  `json:"difficulty"`
	Company       string  `json:"company"`
}

// JoinRoomResult carries the participant's private session id so the client
// can start answering immediately.
type JoinRoomResult struct {
	RoomID        string `json:"roomId"`
	QuizSessionID string `json:"quizSessionId"`
}

type LeaderboardRow struct {
	Position    int        `json:"position"`
	UserID      string     `json:"userId"`
	UserName    string     `json:"userName"`
	Score       int        `json:"score"`
	StartedAt   *time.Time `json:"startedAt"`
	SubmittedAt *time.Time `json:"submittedAt"`
}

type LeaderboardView struct {
	RoomID   string           `json:"roomId"`
	Title    string           `json:"title"`
	IsActive bool             `json:"isActive"`
	Entries  []LeaderboardRow `json:"entries"`
}

type HostedService struct {
	hostedRepo      *repository.HostedSessionRepository
	userRepo        *repository.UserRepository
	questionService *QuestionService
}

func NewHostedService(hostedRepo *repository.HostedSessionRepository, userRepo *repository.UserRepository, questionService *QuestionService) *HostedService {
	return &HostedService{
		hostedRepo:      hostedRepo,
		userRepo:        userRepo,
		questionService: questionService,
	}
}

// CreateRoom generates the question set, stores it as an immutable template
// and opens a room over it.
func (s *HostedService) CreateRoom(ctx context.Context, hostID string, req *CreateRoomRequest) (*model.HostedSession, error) {
	count := req.NumQuestions
	if count <= 0 {
		count = util.ExtractQuestionCount(req.Prompt, defaultQuestionCount)
	}
	count = s.questionService.ClampCount(count)

	questions, err := s.questionService.GenerateQuestions(ctx, hostID, req.Prompt, count)
	if err != nil {
		return nil, err
	}

	duration := req.TotalDuration
	if duration <= 0 {
		duration = minutesPerQuestion * float64(len(questions))
	}

	template := &model.HostedQuizSession{
		HostID:        hostID,
		Prompt:        req.Prompt,
		Topic:         req.Topic,
		Difficulty:    req.Difficulty,
		Company:       req.Company,
		NumQuestions:  len(questions),
		TotalDuration: duration,
	}
	ids := make([]string, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}
	room := &model.HostedSession{
		HostID:     hostID,
		Title:      req.Title,
		TotalSpots: req.TotalSpots,
		IsActive:   true,
	}
	if err := s.hostedRepo.CreateTemplateAndRoom(template, ids, room); err != nil {
		return nil, err
	}
	return room, nil
}

// JoinRoom claims a spot and creates the participant's private copy of the
// template, all while holding the room row lock so capacity checks and the
// counter increment are atomic. A user can hold at most one spot per room.
func (s *HostedService) JoinRoom(roomID, userID string) (*JoinRoomResult, error) {
	var result *JoinRoomResult
	err := s.hostedRepo.DB.Transaction(func(tx *gorm.DB) error {
		room, err := s.hostedRepo.FindRoomForUpdate(tx, roomID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrRoomNotFound
			}
			return err
		}
		if !room.IsActive {
			return util.ErrRoomInactive
		}
		if room.CurrentParticipants >= room.TotalSpots {
			return util.ErrRoomFull
		}

		var existing model.HostedSessionParticipant
		err = tx.First(&existing, "hosted_session_id = ? AND user_id = ?", room.ID, userID).Error
		if err == nil {
			return util.ErrAlreadyJoined
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var template model.HostedQuizSession
		if err := tx.
			Preload("Questions", func(db *gorm.DB) *gorm.DB {
				return db.Order("question_order asc")
			}).
			First(&template, "id = ?", room.QuizSessionID).Error; err != nil {
			return err
		}

		sessionCopy := model.QuizSession{
			UserID:          userID,
			HostedSessionID: room.ID,
			Prompt:          template.Prompt,
			Topic:           template.Topic,
			Difficulty:      template.Difficulty,
			Company:         template.Company,
			NumQuestions:    template.NumQuestions,
			TotalDuration:   template.TotalDuration,
		}
		if err := tx.Create(&sessionCopy).Error; err != nil {
			return err
		}
		for _, link := range template.Questions {
			row := model.QuizSessionQuestion{
				QuizSessionID: sessionCopy.ID,
				QuestionID:    link.QuestionID,
				QuestionOrder: link.QuestionOrder,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}

		participant := model.HostedSessionParticipant{
			HostedSessionID: room.ID,
			UserID:          userID,
			QuizSessionID:   sessionCopy.ID,
		}
		if err := tx.Create(&participant).Error; err != nil {
			return err
		}

		room.CurrentParticipants++

		// joined-but-not-submitted participants show up at the bottom of
		// the leaderboard with a zero score
		entry := model.LeaderboardEntry{
			HostedSessionID: room.ID,
			ParticipantID:   participant.ID,
			Score:           0,
			Position:        room.CurrentParticipants,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		if err := tx.Save(room).Error; err != nil {
			return err
		}

		result = &JoinRoomResult{RoomID: room.ID, QuizSessionID: sessionCopy.ID}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// StartRoom is the host's one-shot start. Restarting is rejected.
func (s *HostedService) StartRoom(roomID, hostID string) (*model.HostedSession, error) {
	room, err := s.getRoom(roomID)
	if err != nil {
		return nil, err
	}
	if room.HostID != hostID {
		return nil, util.ErrNotHost
	}
	if !room.IsActive {
		return nil, util.ErrRoomInactive
	}
	if room.StartedAt != nil {
		return nil, util.ErrAlreadyStarted
	}
	now := time.Now()
	room.StartedAt = &now
	if err := s.hostedRepo.UpdateRoom(room); err != nil {
		return nil, err
	}
	return room, nil
}

// EndRoom lets the host close the room before everyone has submitted.
// Ending an already closed room is a no-op.
func (s *HostedService) EndRoom(roomID, hostID string) (*model.HostedSession, error) {
	room, err := s.getRoom(roomID)
	if err != nil {
		return nil, err
	}
	if room.HostID != hostID {
		return nil, util.ErrNotHost
	}
	if room.IsActive {
		now := time.Now()
		room.IsActive = false
		room.EndedAt = &now
		if err := s.hostedRepo.UpdateRoom(room); err != nil {
			return nil, err
		}
	}
	return room, nil
}

func (s *HostedService) GetRoom(roomID string) (*model.HostedSession, error) {
	return s.getRoom(roomID)
}

func (s *HostedService) getRoom(roomID string) (*model.HostedSession, error) {
	room, err := s.hostedRepo.FindRoomByID(roomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrRoomNotFound
		}
		return nil, err
	}
	return room, nil
}

// GetLeaderboard returns the room standings in position order with the
// participants' display names resolved.
func (s *HostedService) GetLeaderboard(roomID string) (*LeaderboardView, error) {
	room, err := s.getRoom(roomID)
	if err != nil {
		return nil, err
	}
	entries, err := s.hostedRepo.ListLeaderboard(room.ID)
	if err != nil {
		return nil, err
	}
	participants, err := s.hostedRepo.ListParticipants(room.ID)
	if err != nil {
		return nil, err
	}

	userIDByParticipant := make(map[string]string, len(participants))
	for _, p := range participants {
		userIDByParticipant[p.ID] = p.UserID
	}

	rows := make([]LeaderboardRow, 0, len(entries))
	for _, e := range entries {
		userID := userIDByParticipant[e.ParticipantID]
		name := ""
		if userID != "" {
			if u, err := s.userRepo.FindByID(userID); err == nil {
				name = u.Name
			}
		}
		rows = append(rows, LeaderboardRow{
			Position:    e.Position,
			UserID:      userID,
			UserName:    name,
			Score:       e.Score,
			StartedAt:   e.StartedAt,
			SubmittedAt: e.SubmittedAt,
		})
	}
	return &LeaderboardView{
		RoomID:   room.ID,
		Title:    room.Title,
		IsActive: room.IsActive,
		Entries:  rows,
	}, nil
}

func (s *HostedService) ListActiveRooms() ([]model.HostedSession, error) {
	return s.hostedRepo.ListActiveRooms()
}

func (s *HostedService) ListRoomsByHost(hostID string) ([]model.HostedSession, error) {
	return s.hostedRepo.ListRoomsByHost(hostID)
}

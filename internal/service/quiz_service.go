package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"gorm.io/gorm"

	"quizprep_backend/internal/model"
	"quizprep_backend/internal/repository"
	"quizprep_backend/internal/util"
)

const defaultQuestionCount = 30

// minutesPerQuestion is the default exam budget when the caller names no
// duration.
const minutesPerQuestion = 1.5

type CreateQuizRequest struct {
	Prompt        string  `json:"prompt" binding:"required"`
	NumQuestions  int     `json:"numQuestions"`
	TotalDuration float64 `json:"totalDuration"`
	Topic         string  `json:"topic"`
	Difficulty    string  `json:"difficulty"`
	Company       string  `json:"company"`
}

type SubmitQuizRequest struct {
	// Answers maps question id to the selected option letter.
	Answers map[string]string `json:"answers" binding:"required"`
}

type AnswerResult struct {
	QuestionID     string `json:"questionId"`
	SelectedOption string `json:"selectedOption"`
	CorrectAnswer  string `json:"correctAnswer"`
	IsCorrect      bool   `json:"isCorrect"`
}

type SubmitQuizResult struct {
	SessionID string         `json:"sessionId"`
	Score     int            `json:"score"`
	Total     int            `json:"total"`
	Answers   []AnswerResult `json:"answers"`
}

type QuizService struct {
	quizRepo        *repository.QuizRepository
	hostedRepo      *repository.HostedSessionRepository
	questionService *QuestionService
}

func NewQuizService(quizRepo *repository.QuizRepository, hostedRepo *repository.HostedSessionRepository, questionService *QuestionService) *QuizService {
	return &QuizService{
		quizRepo:        quizRepo,
		hostedRepo:      hostedRepo,
		questionService: questionService,
	}
}

// CreateQuiz generates a question set for the prompt and opens a solo
// session over it. When the request names no count the prompt is scanned
// for one.
func (s *QuizService) CreateQuiz(ctx context.Context, userID string, req *CreateQuizRequest) (*model.QuizSession, error) {
	count := req.NumQuestions
	if count <= 0 {
		count = util.ExtractQuestionCount(req.Prompt, defaultQuestionCount)
	}
	count = s.questionService.ClampCount(count)

	questions, err := s.questionService.GenerateQuestions(ctx, userID, req.Prompt, count)
	if err != nil {
		return nil, err
	}

	duration := req.TotalDuration
	if duration <= 0 {
		duration = minutesPerQuestion * float64(len(questions))
	}

	session := &model.QuizSession{
		UserID:        userID,
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
	if err := s.quizRepo.CreateSessionWithQuestions(session, ids); err != nil {
		return nil, err
	}
	return s.GetQuiz(session.ID, userID)
}

// GetQuiz returns the caller's session with its ordered question list.
func (s *QuizService) GetQuiz(sessionID, userID string) (*model.QuizSession, error) {
	session, err := s.quizRepo.FindSessionWithQuestions(sessionID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSessionNotFound
		}
		return nil, err
	}
	return session, nil
}

// StartQuiz stamps the session start time. Starting an already started
// session is a no-op; a submitted one cannot be restarted.
func (s *QuizService) StartQuiz(sessionID, userID string) (*model.QuizSession, error) {
	session, err := s.quizRepo.FindOwnedSession(sessionID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSessionNotFound
		}
		return nil, err
	}
	if session.SubmittedAt != nil {
		return nil, util.ErrAlreadySubmitted
	}
	if session.StartedAt == nil {
		now := time.Now()
		session.StartedAt = &now
		if err := s.quizRepo.UpdateSession(session); err != nil {
			return nil, err
		}
	}
	return session, nil
}

// SubmitQuiz grades the caller's answers and closes the session, all in one
// transaction. Answers referencing questions outside the session fail the
// whole submit. When the session is a participant copy inside a room, the
// same transaction updates the room leaderboard and, once every participant
// has submitted, closes the room.
func (s *QuizService) SubmitQuiz(sessionID, userID string, req *SubmitQuizRequest) (*SubmitQuizResult, error) {
	var result *SubmitQuizResult
	err := s.quizRepo.DB.Transaction(func(tx *gorm.DB) error {
		var session model.QuizSession
		if err := tx.
			Preload("Questions", func(db *gorm.DB) *gorm.DB {
				return db.Order("question_order asc")
			}).
			Preload("Questions.Question").
			First(&session, "id = ? AND user_id = ?", sessionID, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrSessionNotFound
			}
			return err
		}
		if session.SubmittedAt != nil {
			return util.ErrAlreadySubmitted
		}

		byQuestionID := make(map[string]*model.Question, len(session.Questions))
		for i := range session.Questions {
			if q := session.Questions[i].Question; q != nil {
				byQuestionID[q.ID] = q
			}
		}

		now := time.Now()
		score := 0
		answers := make([]AnswerResult, 0, len(req.Answers))
		for questionID, selected := range req.Answers {
			q, ok := byQuestionID[questionID]
			if !ok {
				return util.ErrQuestionNotFound
			}
			selectedLetter := util.NormalizeAnswerLetter(selected)
			correctLetter := util.NormalizeAnswerLetter(q.CorrectAnswer)
			isCorrect := selectedLetter == correctLetter
			if isCorrect {
				score++
			}
			row := model.UserAnswer{
				QuizSessionID:  session.ID,
				QuestionID:     questionID,
				SelectedOption: selectedLetter,
				IsCorrect:      isCorrect,
				AnsweredAt:     now,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			answers = append(answers, AnswerResult{
				QuestionID:     questionID,
				SelectedOption: selectedLetter,
				CorrectAnswer:  correctLetter,
				IsCorrect:      isCorrect,
			})
		}

		session.Score = score
		session.SubmittedAt = &now
		if session.StartedAt == nil {
			session.StartedAt = &now
		}
		if err := tx.Save(&session).Error; err != nil {
			return err
		}

		if session.HostedSessionID != "" {
			if err := s.updateLeaderboard(tx, &session, now); err != nil {
				return err
			}
		}

		result = &SubmitQuizResult{
			SessionID: session.ID,
			Score:     score,
			Total:     len(session.Questions),
			Answers:   answers,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// updateLeaderboard runs inside the submit transaction. The room row lock
// serializes concurrent submits so the full re-sort sees a stable set.
func (s *QuizService) updateLeaderboard(tx *gorm.DB, session *model.QuizSession, submittedAt time.Time) error {
	room, err := s.hostedRepo.FindRoomForUpdate(tx, session.HostedSessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrRoomNotFound
		}
		return err
	}

	var participant model.HostedSessionParticipant
	if err := tx.First(&participant,
		"hosted_session_id = ? AND user_id = ?", room.ID, session.UserID).Error; err != nil {
		return err
	}

	var entry model.LeaderboardEntry
	err = tx.First(&entry,
		"hosted_session_id = ? AND participant_id = ?", room.ID, participant.ID).Error
	switch {
	case err == nil:
		entry.Score = session.Score
		entry.StartedAt = session.StartedAt
		entry.SubmittedAt = &submittedAt
		if err := tx.Save(&entry).Error; err != nil {
			return err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		entry = model.LeaderboardEntry{
			HostedSessionID: room.ID,
			ParticipantID:   participant.ID,
			Score:           session.Score,
			StartedAt:       session.StartedAt,
			SubmittedAt:     &submittedAt,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
	default:
		return err
	}

	var entries []model.LeaderboardEntry
	if err := tx.Where("hosted_session_id = ?", room.ID).Find(&entries).Error; err != nil {
		return err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		ti, tj := entries[i].SubmittedAt, entries[j].SubmittedAt
		if ti == nil || tj == nil {
			return tj == nil && ti != nil
		}
		return ti.Before(*tj)
	})
	for idx := range entries {
		if entries[idx].Position != idx+1 {
			entries[idx].Position = idx + 1
			if err := tx.Model(&model.LeaderboardEntry{}).
				Where("id = ?", entries[idx].ID).
				Update("position", idx+1).Error; err != nil {
				return err
			}
		}
	}

	var participantCount, submittedCount int64
	if err := tx.Model(&model.HostedSessionParticipant{}).
		Where("hosted_session_id = ?", room.ID).
		Count(&participantCount).Error; err != nil {
		return err
	}
	if err := tx.Model(&model.LeaderboardEntry{}).
		Where("hosted_session_id = ? AND submitted_at IS NOT NULL", room.ID).
		Count(&submittedCount).Error; err != nil {
		return err
	}
	if participantCount > 0 && submittedCount >= participantCount && room.IsActive {
		room.IsActive = false
		room.EndedAt = &submittedAt
		if err := tx.Save(room).Error; err != nil {
			return err
		}
	}
	return nil
}

// GetResults returns the graded breakdown of a submitted session.
func (s *QuizService) GetResults(sessionID, userID string) (*SubmitQuizResult, error) {
	session, err := s.GetQuiz(sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session.SubmittedAt == nil {
		return nil, util.ErrSessionNotFound
	}

	rows, err := s.quizRepo.FindAnswersBySession(session.ID)
	if err != nil {
		return nil, err
	}

	correctByID := make(map[string]string, len(session.Questions))
	for i := range session.Questions {
		if q := session.Questions[i].Question; q != nil {
			correctByID[q.ID] = util.NormalizeAnswerLetter(q.CorrectAnswer)
		}
	}

	answers := make([]AnswerResult, 0, len(rows))
	for _, row := range rows {
		answers = append(answers, AnswerResult{
			QuestionID:     row.QuestionID,
			SelectedOption: row.SelectedOption,
			CorrectAnswer:  correctByID[row.QuestionID],
			IsCorrect:      row.IsCorrect,
		})
	}
	return &SubmitQuizResult{
		SessionID: session.ID,
		Score:     session.Score,
		Total:     len(session.Questions),
		Answers:   answers,
	}, nil
}

// GetHistory lists the caller's submitted sessions, newest first.
func (s *QuizService) GetHistory(userID string, limit int) ([]model.QuizSession, error) {
	return s.quizRepo.ListSubmittedByUser(userID, limit)
}

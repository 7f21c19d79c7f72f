package service

import (
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"quizprep_backend/internal/model"
	"quizprep_backend/internal/repository"
	"quizprep_backend/internal/util"
)

type UpdateProfileRequest struct {
	Name  string `json:"name" binding:"omitempty,min=2,max=100"`
	Email string `json:"email" binding:"omitempty,email"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=8"`
}

// UserStats summarizes a user's submitted quiz activity.
type UserStats struct {
	TotalQuizzes    int64   `json:"totalQuizzes"`
	AverageScore    float64 `json:"averageScore"`
	BestScore       int     `json:"bestScore"`
	TopTopic        string  `json:"topTopic,omitempty"`
	QuizzesThisWeek int64   `json:"quizzesThisWeek"`
}

type UserService struct {
	userRepo *repository.UserRepository
	quizRepo *repository.QuizRepository
}

func NewUserService(userRepo *repository.UserRepository, quizRepo *repository.QuizRepository) *UserService {
	return &UserService{userRepo: userRepo, quizRepo: quizRepo}
}

func (s *UserService) GetProfile(userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) UpdateProfile(userID string, req *UpdateProfileRequest) (*model.User, error) {
	user, err := s.GetProfile(userID)
	if err != nil {
		return nil, err
	}
	if req.Name != "" && req.Name != user.Name {
		if existing, err := s.userRepo.FindByName(req.Name); err == nil && existing.ID != user.ID {
			return nil, util.ErrNameRegistered
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		user.Name = req.Name
	}
	if req.Email != "" && req.Email != user.Email {
		if existing, err := s.userRepo.FindByEmail(req.Email); err == nil && existing.ID != user.ID {
			return nil, util.ErrEmailRegistered
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		user.Email = req.Email
	}
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) ChangePassword(userID string, req *ChangePasswordRequest) error {
	user, err := s.GetProfile(userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.OldPassword)) != nil {
		return util.ErrInvalidCredential
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.Password = string(hash)
	return s.userRepo.Update(user)
}

// GetStats aggregates the user's submitted sessions.
func (s *UserService) GetStats(userID string) (*UserStats, error) {
	sessions, err := s.quizRepo.ListSubmittedByUser(userID, 0)
	if err != nil {
		return nil, err
	}

	stats := &UserStats{TotalQuizzes: int64(len(sessions))}
	if len(sessions) > 0 {
		sum := 0
		topicCounts := make(map[string]int)
		for _, sess := range sessions {
			sum += sess.Score
			if sess.Score > stats.BestScore {
				stats.BestScore = sess.Score
			}
			if sess.Topic != "" {
				topicCounts[sess.Topic]++
			}
		}
		stats.AverageScore = float64(sum) / float64(len(sessions))

		best := 0
		for topic, n := range topicCounts {
			if n > best {
				best = n
				stats.TopTopic = topic
			}
		}
	}

	weekAgo := time.Now().AddDate(0, 0, -7)
	count, err := s.quizRepo.CountSessionsSince(userID, weekAgo)
	if err != nil {
		return nil, err
	}
	stats.QuizzesThisWeek = count
	return stats, nil
}

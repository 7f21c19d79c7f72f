package model

import "time"

// QuizSession is one user's run through an ordered question list. Solo
// practice sessions have an empty HostedSessionID; participant copies
// created at join time carry the room they belong to.
// swagger:model
type QuizSession struct {
	UUIDBase
	UserID          string     `gorm:"type:varchar(36);not null;index" json:"userId"`
	HostedSessionID string     `gorm:"type:varchar(36);index" json:"hostedSessionId,omitempty"`
	Prompt          string     `gorm:"type:text;not null" json:"prompt"`
	Topic           string     `gorm:"size:100" json:"topic"`
	Difficulty      string     `gorm:"size:100" json:"difficulty"`
	Company         string     `gorm:"size:100" json:"company"`
	NumQuestions    int        `gorm:"default:0" json:"numQuestions"`
	TotalDuration   float64    `gorm:"not null" json:"totalDuration"`
	Score           int        `gorm:"default:0" json:"score"`
	StartedAt       *time.Time `json:"startedAt"`
	SubmittedAt     *time.Time `json:"submittedAt"`

	Questions []QuizSessionQuestion `gorm:"foreignKey:QuizSessionID" json:"questions,omitempty"`
}

// QuizSessionQuestion links a session to a bank question at a fixed
// position. QuestionOrder is 1-based and is the exam sequence.
type QuizSessionQuestion struct {
	UUIDBase
	QuizSessionID string `gorm:"type:varchar(36);not null;index" json:"quizSessionId"`
	QuestionID    string `gorm:"type:varchar(36);not null" json:"questionId"`
	QuestionOrder int    `json:"questionOrder"`

	Question *Question `gorm:"foreignKey:QuestionID" json:"question,omitempty"`
}

// UserAnswer records one graded answer. Immutable once written.
type UserAnswer struct {
	UUIDBase
	QuizSessionID  string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_user_answers_session_question" json:"quizSessionId"`
	QuestionID     string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_user_answers_session_question" json:"questionId"`
	SelectedOption string    `gorm:"type:char(1);not null" json:"selectedOption"`
	IsCorrect      bool      `gorm:"not null" json:"isCorrect"`
	AnsweredAt     time.Time `json:"answeredAt"`
}

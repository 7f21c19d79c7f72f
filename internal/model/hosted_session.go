package model

import "time"

// HostedQuizSession is the host-authored template a room is built from:
// prompt metadata plus the ordered question list every participant gets a
// copy of. Immutable after creation except StartedAt.
// swagger:model
type HostedQuizSession struct {
	UUIDBase
	HostID        string     `gorm:"type:varchar(36);not null;index" json:"hostId"`
	Prompt        string     `gorm:"type:text;not null" json:"prompt"`
	Topic         string     `gorm:"size:100" json:"topic"`
	Difficulty    string     `gorm:"size:100" json:"difficulty"`
	Company       string     `gorm:"size:100" json:"company"`
	NumQuestions  int        `gorm:"default:0" json:"numQuestions"`
	TotalDuration float64    `gorm:"not null" json:"totalDuration"`
	StartedAt     *time.Time `json:"startedAt"`

	Questions []HostedQuizSessionQuestion `gorm:"foreignKey:HostedQuizSessionID" json:"questions,omitempty"`
}

type HostedQuizSessionQuestion struct {
	UUIDBase
	HostedQuizSessionID string `gorm:"type:varchar(36);not null;index" json:"hostedQuizSessionId"`
	QuestionID          string `gorm:"type:varchar(36);not null" json:"questionId"`
	QuestionOrder       int    `json:"questionOrder"`

	Question *Question `gorm:"foreignKey:QuestionID" json:"question,omitempty"`
}

// HostedSession is the room. CurrentParticipants never exceeds TotalSpots;
// the join transaction holds the room row lock while checking.
// swagger:model
type HostedSession struct {
	UUIDBase
	QuizSessionID       string     `gorm:"type:varchar(36);not null;index" json:"quizSessionId"` // template id
	HostID              string     `gorm:"type:varchar(36);not null;index" json:"hostId"`
	Title               string     `gorm:"size:255;not null" json:"title"`
	TotalSpots          int        `gorm:"not null" json:"totalSpots"`
	CurrentParticipants int        `gorm:"default:0" json:"currentParticipants"`
	IsActive            bool       `gorm:"default:true" json:"isActive"`
	StartedAt           *time.Time `json:"startedAt"`
	EndedAt             *time.Time `json:"endedAt"`
}

// HostedSessionParticipant joins a user to a room, at most once.
type HostedSessionParticipant struct {
	UUIDBase
	HostedSessionID string `gorm:"type:varchar(36);not null;uniqueIndex:idx_participants_room_user" json:"hostedSessionId"`
	UserID          string `gorm:"type:varchar(36);not null;uniqueIndex:idx_participants_room_user" json:"userId"`
	// QuizSessionID is the participant's private copy of the template.
	QuizSessionID string `gorm:"type:varchar(36);not null" json:"quizSessionId"`
}

// LeaderboardEntry is rewritten on every submit in the room: all entries
// are re-sorted (score desc, submitted_at asc) and positions reassigned
// as a dense 1..N sequence.
type LeaderboardEntry struct {
	UUIDBase
	HostedSessionID string     `gorm:"type:varchar(36);not null;uniqueIndex:idx_leaderboard_room_participant" json:"hostedSessionId"`
	ParticipantID   string     `gorm:"type:varchar(36);not null;uniqueIndex:idx_leaderboard_room_participant;constraint:OnDelete:CASCADE" json:"participantId"`
	Score           int        `gorm:"default:0" json:"score"`
	Position        int        `gorm:"default:0" json:"position"`
	StartedAt       *time.Time `json:"startedAt"`
	SubmittedAt     *time.Time `json:"submittedAt"`
}

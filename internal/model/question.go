package model

import "time"

// Question is a bank entry. Rows are immutable once created and shared by
// reference; uniqueness is enforced on the question text.
// swagger:model
type Question struct {
	UUIDBase
	QuestionText  string `gorm:"type:varchar(500);not null;uniqueIndex" json:"questionText"`
	OptionA       string `gorm:"type:text;not null" json:"optionA"`
	OptionB       string `gorm:"type:text;not null" json:"optionB"`
	OptionC       string `gorm:"type:text;not null" json:"optionC"`
	OptionD       string `gorm:"type:text;not null" json:"optionD"`
	CorrectAnswer string `gorm:"type:char(1);not null" json:"correctAnswer"`
	Explanation   string `gorm:"type:text" json:"explanation"`
	Topic         string `gorm:"size:100" json:"topic"`
	Difficulty    string `gorm:"size:100" json:"difficulty"`
	Company       string `gorm:"size:100" json:"company"`
	CreatedBy     string `gorm:"type:varchar(36);index" json:"createdBy,omitempty"`
}

// PromptLog keeps the prompt and the validated generator output of every
// successful generation run.
type PromptLog struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Prompt    string    `gorm:"type:text" json:"prompt"`
	Response  []byte    `gorm:"type:json" json:"response"`
	CreatedAt time.Time `json:"createdAt"`
}

package util

import "errors"

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrEmailRegistered   = errors.New("email already registered")
	ErrNameRegistered    = errors.New("username already registered")
	ErrInvalidCredential = errors.New("invalid credentials")

	ErrSessionNotFound  = errors.New("quiz session not found")
	ErrQuestionNotFound = errors.New("question not found")
	ErrAlreadySubmitted = errors.New("quiz already submitted")

	ErrRoomNotFound   = errors.New("hosted session not found")
	ErrRoomInactive   = errors.New("hosted session is not active")
	ErrRoomFull       = errors.New("hosted session is full")
	ErrAlreadyJoined  = errors.New("already joined this hosted session")
	ErrAlreadyStarted = errors.New("hosted session already started")
	ErrNotHost        = errors.New("only the host can perform this action")

	ErrResumeNotFound = errors.New("resume not found")
	ErrResumeEmpty    = errors.New("resume content is empty")

	ErrGenerationFailed = errors.New("failed to generate quiz")
)

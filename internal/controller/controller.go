package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"quizprep_backend/internal/util"
)

// handleServiceError maps service sentinel errors onto HTTP statuses.
// Anything unmapped is logged and reported as a 500.
func handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrUserNotFound),
		errors.Is(err, util.ErrSessionNotFound),
		errors.Is(err, util.ErrQuestionNotFound),
		errors.Is(err, util.ErrRoomNotFound),
		errors.Is(err, util.ErrResumeNotFound):
		util.NotFound(c)
	case errors.Is(err, util.ErrEmailRegistered),
		errors.Is(err, util.ErrNameRegistered),
		errors.Is(err, util.ErrAlreadySubmitted),
		errors.Is(err, util.ErrAlreadyJoined),
		errors.Is(err, util.ErrAlreadyStarted),
		errors.Is(err, util.ErrRoomFull),
		errors.Is(err, util.ErrRoomInactive):
		util.Conflict(c, err.Error())
	case errors.Is(err, util.ErrInvalidCredential):
		util.Error(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, util.ErrNotHost):
		util.Forbidden(c)
	case errors.Is(err, util.ErrGenerationFailed),
		errors.Is(err, util.ErrResumeEmpty):
		util.BadRequest(c, err.Error())
	default:
		util.LogInternalError(c, err)
	}
}

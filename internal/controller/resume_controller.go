package controller

import (
	"github.com/gin-gonic/gin"

	"quizprep_backend/internal/service"
	"quizprep_backend/internal/util"
)

// maxResumeUploadSize caps resume uploads at 10 MB.
const maxResumeUploadSize = 10 << 20

type ResumeController struct {
	ResumeService *service.ResumeService
}

func NewResumeController(resumeService *service.ResumeService) *ResumeController {
	return &ResumeController{ResumeService: resumeService}
}

// Upload godoc
// @Summary 上传简历
// @Description 支持 PDF、DOCX 和纯文本，上传后提取文本
// @Tags 简历
// @Accept  multipart/form-data
// @Produce  json
// @Security BearerAuth
// @Param   file formData file true "简历文件"
// @Success 201 {object} util.Response{data=model.Resume}
// @Failure 400 {object} util.Response "文件类型不支持或内容为空"
// @Router /api/resumes [post]
func (c *ResumeController) Upload(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	header, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}
	if header.Size > maxResumeUploadSize {
		util.BadRequest(ctx, "file too large")
		return
	}

	resume, err := c.ResumeService.Upload(ctx.Request.Context(), claims.UserID, header)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Created(ctx, resume)
}

// List godoc
// @Summary 列出我的简历
// @Tags 简历
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/resumes [get]
func (c *ResumeController) List(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	resumes, err := c.ResumeService.List(claims.UserID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, resumes)
}

// GenerateQuiz godoc
// @Summary 基于简历生成测验
// @Tags 简历
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body service.GenerateFromResumeRequest true "生成参数"
// @Success 201 {object} util.Response{data=QuizView}
// @Failure 404 {object} util.Response "简历不存在"
// @Router /api/resumes/generate [post]
func (c *ResumeController) GenerateQuiz(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.GenerateFromResumeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	session, err := c.ResumeService.GenerateQuiz(ctx.Request.Context(), claims.UserID, &req)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Created(ctx, newQuizView(session))
}

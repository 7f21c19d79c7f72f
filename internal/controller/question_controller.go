package controller

import (
	"strings"

	"github.com/gin-gonic/gin"

	"quizprep_backend/internal/service"
	"quizprep_backend/internal/util"
)

type QuestionController struct {
	QuestionService *service.QuestionService
}

func NewQuestionController(questionService *service.QuestionService) *QuestionController {
	return &QuestionController{QuestionService: questionService}
}

type enhancePromptRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}

// EnhancePrompt godoc
// @Summary 优化生成提示词
// @Description 在生成前对用户提示词做一次润色
// @Tags 题目
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body enhancePromptRequest true "原始提示词"
// @Success 200 {object} util.Response
// @Router /api/questions/prompt-enhancer [post]
func (c *QuestionController) EnhancePrompt(ctx *gin.Context) {
	var req enhancePromptRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	enhanced, err := c.QuestionService.EnhancePrompt(ctx.Request.Context(), req.Prompt)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"prompt": enhanced})
}

// ListQuestions godoc
// @Summary 按ID列表获取题目
// @Description 按请求顺序返回，不存在的ID跳过
// @Tags 题目
// @Produce  json
// @Security BearerAuth
// @Param   ids query string true "逗号分隔的题目ID"
// @Success 200 {object} util.Response
// @Router /api/questions [get]
func (c *QuestionController) ListQuestions(ctx *gin.Context) {
	var ids []string
	if raw := ctx.Query("ids"); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}

	questions, err := c.QuestionService.GetQuestions(ids)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, questions)
}

// GetQuestion godoc
// @Summary 获取题库题目
// @Tags 题目
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "题目ID"
// @Success 200 {object} util.Response{data=model.Question}
// @Failure 404 {object} util.Response
// @Router /api/questions/{id} [get]
func (c *QuestionController) GetQuestion(ctx *gin.Context) {
	q, err := c.QuestionService.GetQuestion(ctx.Param("id"))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, q)
}

package controller

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"quizprep_backend/internal/model"
	"quizprep_backend/internal/service"
	"quizprep_backend/internal/util"
)

type QuizController struct {
	QuizService *service.QuizService
}

func NewQuizController(quizService *service.QuizService) *QuizController {
	return &QuizController{QuizService: quizService}
}

// QuestionView hides the answer key until the session is submitted.
// swagger:model
type QuestionView struct {
	ID            string `json:"id"`
	QuestionOrder int    `json:"questionOrder"`
	QuestionText  string `json:"questionText"`
	OptionA       string `json:"optionA"`
	OptionB       string `json:"optionB"`
	OptionC       string `json:"optionC"`
	OptionD       string `json:"optionD"`
	Topic         string `json:"topic,omitempty"`
	Difficulty    string `json:"difficulty,omitempty"`
	Company       string `json:"company,omitempty"`
	CorrectAnswer string `json:"correctAnswer,omitempty"`
	Explanation   string `json:"explanation,omitempty"`
}

// swagger:model
type QuizView struct {
	ID            string         `json:"id"`
	Prompt        string         `json:"prompt"`
	Topic         string         `json:"topic,omitempty"`
	Difficulty    string         `json:"difficulty,omitempty"`
	Company       string         `json:"company,omitempty"`
	NumQuestions  int            `json:"numQuestions"`
	TotalDuration float64        `json:"totalDuration"`
	Score         int            `json:"score"`
	StartedAt     *time.Time     `json:"startedAt"`
	SubmittedAt   *time.Time     `json:"submittedAt"`
	Questions     []QuestionView `json:"questions"`
}

func newQuizView(session *model.QuizSession) *QuizView {
	revealed := session.SubmittedAt != nil
	view := &QuizView{
		ID:            session.ID,
		Prompt:        session.Prompt,
		Topic:         session.Topic,
		Difficulty:    session.Difficulty,
		Company:       session.Company,
		NumQuestions:  session.NumQuestions,
		TotalDuration: session.TotalDuration,
		Score:         session.Score,
		StartedAt:     session.StartedAt,
		SubmittedAt:   session.SubmittedAt,
		Questions:     make([]QuestionView, 0, len(session.Questions)),
	}
	for _, link := range session.Questions {
		if link.Question == nil {
			continue
		}
		q := QuestionView{
			ID:            link.Question.ID,
			QuestionOrder: link.QuestionOrder,
			QuestionText:  link.Question.QuestionText,
			OptionA:       link.Question.OptionA,
			OptionB:       link.Question.OptionB,
			OptionC:       link.Question.OptionC,
			OptionD:       link.Question.OptionD,
			Topic:         link.Question.Topic,
			Difficulty:    link.Question.Difficulty,
			Company:       link.Question.Company,
		}
		if revealed {
			q.CorrectAnswer = util.NormalizeAnswerLetter(link.Question.CorrectAnswer)
			q.Explanation = link.Question.Explanation
		}
		view.Questions = append(view.Questions, q)
	}
	return view
}

// CreateQuiz godoc
// @Summary 生成并创建测验
// @Description 根据提示词生成题目并创建练习会话
// @Tags 测验
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body service.CreateQuizRequest true "测验参数"
// @Success 201 {object} util.Response{data=QuizView}
// @Failure 400 {object} util.Response "生成失败"
// @Router /api/quizzes [post]
func (c *QuizController) CreateQuiz(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.CreateQuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	session, err := c.QuizService.CreateQuiz(ctx.Request.Context(), claims.UserID, &req)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Created(ctx, newQuizView(session))
}

// GetQuiz godoc
// @Summary 获取测验详情
// @Description 提交前不返回正确答案
// @Tags 测验
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "会话ID"
// @Success 200 {object} util.Response{data=QuizView}
// @Failure 404 {object} util.Response
// @Router /api/quizzes/{id} [get]
func (c *QuizController) GetQuiz(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	session, err := c.QuizService.GetQuiz(ctx.Param("id"), claims.UserID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, newQuizView(session))
}

// StartQuiz godoc
// @Summary 开始答题
// @Tags 测验
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "会话ID"
// @Success 200 {object} util.Response
// @Failure 409 {object} util.Response "已提交"
// @Router /api/quizzes/{id}/start [post]
func (c *QuizController) StartQuiz(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	session, err := c.QuizService.StartQuiz(ctx.Param("id"), claims.UserID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": session.ID, "startedAt": session.StartedAt})
}

// SubmitQuiz godoc
// @Summary 提交答案
// @Description 一次性提交全部答案并评分，重复提交返回 409
// @Tags 测验
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "会话ID"
// @Param   body body service.SubmitQuizRequest true "答案"
// @Success 200 {object} util.Response{data=service.SubmitQuizResult}
// @Failure 404 {object} util.Response "会话或题目不存在"
// @Failure 409 {object} util.Response "已提交"
// @Router /api/quizzes/{id}/submit [post]
func (c *QuizController) SubmitQuiz(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.SubmitQuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.QuizService.SubmitQuiz(ctx.Param("id"), claims.UserID, &req)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// GetResults godoc
// @Summary 获取测验成绩
// @Tags 测验
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "会话ID"
// @Success 200 {object} util.Response{data=service.SubmitQuizResult}
// @Failure 404 {object} util.Response
// @Router /api/quizzes/{id}/results [get]
func (c *QuizController) GetResults(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	result, err := c.QuizService.GetResults(ctx.Param("id"), claims.UserID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// GetHistory godoc
// @Summary 获取练习历史
// @Tags 测验
// @Produce  json
// @Security BearerAuth
// @Param   limit query int false "数量上限"
// @Success 200 {object} util.Response
// @Router /api/quizzes/history [get]
func (c *QuizController) GetHistory(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	sessions, err := c.QuizService.GetHistory(claims.UserID, limit)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, sessions)
}

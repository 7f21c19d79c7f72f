package controller

import (
	"github.com/gin-gonic/gin"

	"quizprep_backend/internal/service"
	"quizprep_backend/internal/util"
)

type HostedController struct {
	HostedService *service.HostedService
}

func NewHostedController(hostedService *service.HostedService) *HostedController {
	return &HostedController{HostedService: hostedService}
}

// CreateRoom godoc
// @Summary 创建主持房间
// @Description 生成题目模板并开放房间供参与者加入
// @Tags 主持
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body service.CreateRoomRequest true "房间参数"
// @Success 201 {object} util.Response{data=model.HostedSession}
// @Failure 400 {object} util.Response "生成失败"
// @Router /api/hosted [post]
func (c *HostedController) CreateRoom(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.CreateRoomRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	room, err := c.HostedService.CreateRoom(ctx.Request.Context(), claims.UserID, &req)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Created(ctx, room)
}

// JoinRoom godoc
// @Summary 加入房间
// @Description 占用名额并复制题目副本，满员或重复加入返回 409
// @Tags 主持
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "房间ID"
// @Success 200 {object} util.Response{data=service.JoinRoomResult}
// @Failure 409 {object} util.Response "已满或已加入"
// @Router /api/hosted/{id}/join [post]
func (c *HostedController) JoinRoom(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	result, err := c.HostedService.JoinRoom(ctx.Param("id"), claims.UserID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// StartRoom godoc
// @Summary 开始房间测验
// @Description 仅主持人可操作，且只能开始一次
// @Tags 主持
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "房间ID"
// @Success 200 {object} util.Response{data=model.HostedSession}
// @Failure 403 {object} util.Response "非主持人"
// @Failure 409 {object} util.Response "已开始"
// @Router /api/hosted/{id}/start [post]
func (c *HostedController) StartRoom(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	room, err := c.HostedService.StartRoom(ctx.Param("id"), claims.UserID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, room)
}

// EndRoom godoc
// @Summary 提前结束房间
// @Tags 主持
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "房间ID"
// @Success 200 {object} util.Response{data=model.HostedSession}
// @Failure 403 {object} util.Response "非主持人"
// @Router /api/hosted/{id}/end [post]
func (c *HostedController) EndRoom(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	room, err := c.HostedService.EndRoom(ctx.Param("id"), claims.UserID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, room)
}

// GetRoom godoc
// @Summary 获取房间详情
// @Tags 主持
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "房间ID"
// @Success 200 {object} util.Response{data=model.HostedSession}
// @Failure 404 {object} util.Response
// @Router /api/hosted/{id} [get]
func (c *HostedController) GetRoom(ctx *gin.Context) {
	room, err := c.HostedService.GetRoom(ctx.Param("id"))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, room)
}

// GetLeaderboard godoc
// @Summary 获取房间排行榜
// @Description 按名次升序返回，名次为连续的 1..N
// @Tags 主持
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "房间ID"
// @Success 200 {object} util.Response{data=service.LeaderboardView}
// @Failure 404 {object} util.Response
// @Router /api/hosted/{id}/leaderboard [get]
func (c *HostedController) GetLeaderboard(ctx *gin.Context) {
	view, err := c.HostedService.GetLeaderboard(ctx.Param("id"))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// ListActiveRooms godoc
// @Summary 列出可加入的房间
// @Tags 主持
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/hosted [get]
func (c *HostedController) ListActiveRooms(ctx *gin.Context) {
	rooms, err := c.HostedService.ListActiveRooms()
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, rooms)
}

// ListMyRooms godoc
// @Summary 列出我主持的房间
// @Tags 主持
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/hosted/mine [get]
func (c *HostedController) ListMyRooms(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	rooms, err := c.HostedService.ListRoomsByHost(claims.UserID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, rooms)
}

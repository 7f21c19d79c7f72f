package app

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"quizprep_backend/docs"
	"quizprep_backend/internal/config"
	"quizprep_backend/internal/middleware"
	"quizprep_backend/pkg/monitoring"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())
	router.GET("/health", c.health.Health)

	// 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
		public.POST("/refresh", c.auth.Refresh)
	}

	// 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		users := authGroup.Group("/users")
		{
			users.GET("/me", c.user.GetProfile)
			users.PUT("/me", c.user.UpdateProfile)
			users.PUT("/me/password", c.user.ChangePassword)
			users.GET("/me/stats", c.user.GetStats)
			users.GET("/:id", c.user.GetUser)
		}

		questions := authGroup.Group("/questions")
		{
			questions.GET("", c.question.ListQuestions)
			questions.POST("/prompt-enhancer", c.question.EnhancePrompt)
			questions.GET("/:id", c.question.GetQuestion)
		}

		quizzes := authGroup.Group("/quizzes")
		{
			quizzes.POST("", c.quiz.CreateQuiz)
			quizzes.GET("/history", c.quiz.GetHistory)
			quizzes.GET("/:id", c.quiz.GetQuiz)
			quizzes.POST("/:id/start", c.quiz.StartQuiz)
			quizzes.POST("/:id/submit", c.quiz.SubmitQuiz)
			quizzes.GET("/:id/results", c.quiz.GetResults)
		}

		hosted := authGroup.Group("/hosted")
		{
			hosted.POST("", c.hosted.CreateRoom)
			hosted.GET("", c.hosted.ListActiveRooms)
			hosted.GET("/mine", c.hosted.ListMyRooms)
			hosted.GET("/:id", c.hosted.GetRoom)
			hosted.POST("/:id/join", c.hosted.JoinRoom)
			hosted.POST("/:id/start", c.hosted.StartRoom)
			hosted.POST("/:id/end", c.hosted.EndRoom)
			hosted.GET("/:id/leaderboard", c.hosted.GetLeaderboard)
		}

		resumes := authGroup.Group("/resumes")
		{
			resumes.POST("", c.resume.Upload)
			resumes.GET("", c.resume.List)
			resumes.POST("/generate", c.resume.GenerateQuiz)
		}
	}
}

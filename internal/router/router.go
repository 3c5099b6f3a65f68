package router

import (
	"github.com/blues/mfs/internal/config"
	"github.com/blues/mfs/internal/handler"
	"github.com/blues/mfs/internal/logic"
	"github.com/blues/mfs/internal/middleware"
	"github.com/gin-gonic/gin"
)

func Setup(engine *logic.Engine, cfg *config.Config) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLog())
	r.Use(gin.Recovery())
	r.Use(middleware.CORS())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "milestone-funding-service",
		})
	})

	projectHandler := handler.NewProjectHandler(engine)
	voteHandler := handler.NewVoteHandler(engine)
	accountHandler := handler.NewAccountHandler(engine)
	auth := middleware.Auth(cfg.Auth.JWTSecret)

	// API版本组
	v1 := r.Group("/api/v1")
	{
		v1.GET("/bond", projectHandler.GetBond)
		v1.GET("/events", projectHandler.GetEvents)

		// 项目相关路由
		projects := v1.Group("/projects")
		{
			projects.GET("/funding", projectHandler.GetFundingProjects)
			projects.GET("/count", projectHandler.GetProjectCount)
			projects.GET("/:id", projectHandler.GetProject)
			projects.GET("/:id/meta", projectHandler.GetProjectMeta)
			projects.GET("/:id/milestones", projectHandler.GetMilestones)
			projects.GET("/:id/investments", projectHandler.GetInvestments)
			projects.GET("/:id/events", projectHandler.GetProjectEvents)
			projects.GET("/:id/voting", voteHandler.GetVoting)
			projects.GET("/:id/votes/:address", voteHandler.GetMyVotes)

			// 投票期结束后任何人都可以触发
			projects.POST("/:id/close", voteHandler.CloseRound)

			projects.POST("", auth, projectHandler.CreateProject)
			projects.POST("/:id/fund", auth, projectHandler.Fund)
			projects.POST("/:id/cancel", auth, projectHandler.CancelProject)
			projects.POST("/:id/milestone", auth, projectHandler.SubmitMilestone)
			projects.POST("/:id/vote", auth, voteHandler.Vote)
		}

		// 地址相关路由
		v1.GET("/creators/:address/projects", accountHandler.GetCreatorProjects)
		v1.GET("/accounts/:address/investments", accountHandler.GetInvestedProjects)
		v1.GET("/accounts/:address/claimable", accountHandler.GetClaimable)

		claims := v1.Group("/claims", auth)
		{
			claims.POST("/creator", accountHandler.ClaimCreator)
			claims.POST("/investor", accountHandler.ClaimInvestor)
			claims.POST("/owner", accountHandler.ClaimOwner)
		}
	}

	return r
}

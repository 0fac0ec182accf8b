package router

import (
	"github.com/gin-gonic/gin"
	"github.com/moka/kcs/internal/config"
	"github.com/moka/kcs/internal/handler"
	"gorm.io/gorm"
)

func Setup(db *gorm.DB, cfg *config.Config) *gin.Engine {
	r := gin.Default()

	// 中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "kol-collab-service",
		})
	})

	// API版本组
	v1 := r.Group("/api/v1")
	{
		// 达人身份与撞单保护
		influencerHandler := handler.NewInfluencerHandler(db, cfg.Engine)
		influencers := v1.Group("/influencers")
		{
			influencers.POST("/resolve", influencerHandler.ResolveIdentity)
			influencers.GET("/:id", influencerHandler.GetInfluencer)
			influencers.POST("/link", influencerHandler.LinkBrandInfluencer)
		}
		claims := v1.Group("/claims")
		{
			claims.POST("", influencerHandler.AcquireClaim)
			claims.DELETE("/:id", influencerHandler.ReleaseClaim)
			claims.GET("", influencerHandler.GetClaim)
		}

		// 合作管道
		collaborationHandler := handler.NewCollaborationHandler(db)
		collaborations := v1.Group("/collaborations")
		{
			collaborations.POST("", collaborationHandler.CreateCollaboration)
			collaborations.GET("/pipeline", collaborationHandler.GetPipelineView)
			collaborations.GET("/:id", collaborationHandler.GetCollaboration)
			collaborations.POST("/:id/advance", collaborationHandler.AdvanceStage)
			collaborations.POST("/:id/cancel", collaborationHandler.CancelCollaboration)
			collaborations.POST("/:id/block", collaborationHandler.BlockCollaboration)
			collaborations.POST("/:id/reopen", collaborationHandler.ReopenCollaboration)
			collaborations.PUT("/:id/deadline", collaborationHandler.SetDeadline)
		}

		// 样品与寄样
		dispatchHandler := handler.NewDispatchHandler(db)
		samples := v1.Group("/samples")
		{
			samples.POST("", dispatchHandler.CreateSample)
			samples.GET("", dispatchHandler.ListSamples)
			samples.PUT("/:id/unit-cost", dispatchHandler.UpdateUnitCost)
		}
		dispatches := v1.Group("/dispatches")
		{
			dispatches.POST("", dispatchHandler.DispatchSample)
			dispatches.GET("", dispatchHandler.ListDispatches)
			dispatches.POST("/:id/receipt", dispatchHandler.ConfirmReceipt)
			dispatches.POST("/:id/lost", dispatchHandler.MarkLost)
			dispatches.PUT("/:id/onboard", dispatchHandler.SetOnboardStatus)
		}

		// 合作结果
		resultHandler := handler.NewResultHandler(db, cfg.Engine)
		results := v1.Group("/results")
		{
			results.POST("", resultHandler.FinalizeResult)
			results.GET("/collaboration/:collaborationId", resultHandler.GetResult)
		}
	}

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-Staff-Id, X-Brand-Id")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

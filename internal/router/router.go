package router

import (
	"context"
	"net/http"
	"time"

	"github.com/blues/crowdcampaign/internal/access"
	"github.com/blues/crowdcampaign/internal/handler"
	"github.com/blues/crowdcampaign/internal/logic"
	"github.com/blues/crowdcampaign/internal/metrics"
	"github.com/gin-gonic/gin"
)

// Deps 路由依赖
type Deps struct {
	Campaigns    *logic.CampaignLogic
	Events       *logic.EventLogic
	Balances     *logic.BalanceLogic // 链上发放时为 nil
	Pause        *access.PauseSwitch
	AdminAddress string
	Metrics      *metrics.Metrics
	ChainHealth  func(ctx context.Context) map[string]interface{} // 未启用链上发放时为 nil
}

func Setup(deps Deps) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(gin.Recovery())
	r.Use(handler.RequestID())
	r.Use(handler.AccessLog())
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		status := gin.H{
			"status":    "ok",
			"service":   "crowdcampaign-service",
			"campaigns": len(deps.Campaigns.Campaigns()),
			"paused":    deps.Pause.Paused(),
		}
		if deps.ChainHealth != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
			defer cancel()
			status["chain"] = deps.ChainHealth(ctx)
		}
		c.JSON(http.StatusOK, status)
	})

	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	// API版本组
	v1 := r.Group("/api/v1")
	{
		// 活动相关路由
		campaignHandler := handler.NewCampaignHandler(deps.Campaigns, deps.Events)
		campaigns := v1.Group("/campaigns")
		{
			campaigns.POST("", campaignHandler.CreateCampaign)
			campaigns.GET("", campaignHandler.GetCampaigns)
			campaigns.GET("/:handle", campaignHandler.GetCampaign)
			campaigns.GET("/:handle/time-left", campaignHandler.GetTimeLeft)
			campaigns.POST("/:handle/start", campaignHandler.StartCampaign)
			campaigns.POST("/:handle/contributors", campaignHandler.RegisterContributor)
			campaigns.POST("/:handle/contents", campaignHandler.SubmitContent)
			campaigns.GET("/:handle/contributors/:address/contents", campaignHandler.GetContributions)
			campaigns.POST("/:handle/close", campaignHandler.CloseCampaign)
			campaigns.POST("/:handle/cancel", campaignHandler.CancelCampaign)
			campaigns.POST("/:handle/deposit", campaignHandler.Deposit)
			campaigns.GET("/:handle/events", campaignHandler.GetEvents)
		}

		v1.GET("/owners/:address/campaigns", campaignHandler.GetOwnerCampaigns)

		// 账本相关路由
		balanceHandler := handler.NewBalanceHandler(deps.Balances)
		v1.GET("/balances/:address", balanceHandler.GetBalance)

		// 管理相关路由
		adminHandler := handler.NewAdminHandler(deps.Pause, deps.Balances, deps.AdminAddress)
		admin := v1.Group("/admin")
		{
			admin.GET("/status", adminHandler.Status)
			admin.POST("/pause", adminHandler.Pause)
			admin.POST("/unpause", adminHandler.Unpause)
			admin.POST("/balances/:address/credit", adminHandler.Credit)
		}
	}

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-Request-ID, "+handler.CallerHeader)
		c.Header("Access-Control-Expose-Headers", handler.RequestIDHeader)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

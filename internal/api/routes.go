package api

import (
	"github.com/gin-gonic/gin"
	"github.com/mautops/review-gin/internal/auth"
	"github.com/mautops/review-gin/internal/config"
	"github.com/mautops/review-gin/internal/service"
	"github.com/mautops/review-gin/internal/websocket"
	"gorm.io/gorm"
)

// RouterDeps 路由依赖
type RouterDeps struct {
	Config          *config.Config
	DB              *gorm.DB
	Hub             *websocket.Hub
	TokenParser     *auth.TokenParser
	ReviewService   service.ReviewService
	GateService     service.PublishGateService
	FeedbackService service.FeedbackService
	HistoryService  service.HistoryService
}

// SetupRoutes 配置路由
func SetupRoutes(deps *RouterDeps) *gin.Engine {
	if config.IsProduction(deps.Config) {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	// 中间件
	router.Use(RequestIDMiddleware())
	router.Use(RequestLogMiddleware())
	router.Use(SecurityHeadersMiddleware())
	router.Use(CORSMiddleware(deps.Config.CORS))
	router.Use(RateLimitMiddleware(100, 200))
	router.Use(ErrorHandlerMiddleware())

	// 健康检查
	healthController := NewHealthController(deps.DB, deps.Hub)
	router.GET("/health", healthController.Check)

	// Prometheus 指标端点
	router.GET("/metrics", MetricsHandler)

	// WebSocket 路由
	if deps.Hub != nil {
		router.GET("/ws/reviews", websocket.ReviewEventsHandler(deps.Hub, deps.TokenParser))
	}

	reviewController := NewReviewController(deps.ReviewService, deps.GateService)
	feedbackController := NewFeedbackController(deps.FeedbackService)
	historyController := NewHistoryController(deps.HistoryService)

	// API v1 路由组,全部要求用户身份
	v1 := router.Group("/api/v1")
	v1.Use(AuthMiddleware(deps.TokenParser))
	{
		// 内容审核路由
		contents := v1.Group("/contents")
		{
			contents.GET("/:id", reviewController.Get)
			contents.POST("/:id/review-request", reviewController.RequestReview)
			contents.POST("/:id/approve", reviewController.Approve)
			contents.POST("/:id/cancel", reviewController.Cancel)
			contents.POST("/:id/ignore", reviewController.SetIgnore)
			contents.POST("/:id/publish-check", reviewController.PublishCheck)
			contents.GET("/:id/feedbacks", feedbackController.List)
			contents.POST("/:id/feedbacks", feedbackController.Add)
			contents.GET("/:id/history", historyController.ListByContent)
		}

		// 审核人视角路由
		reviews := v1.Group("/reviews")
		{
			reviews.GET("/pending", reviewController.ListPending)
			reviews.GET("/requested", reviewController.ListRequested)
		}

		// 审批历史路由
		v1.GET("/history", historyController.List)
	}

	return router
}

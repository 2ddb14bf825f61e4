package api

import (
	"github.com/gin-gonic/gin"

	"github.com/LENAX/flow-planner/pkg/api/handler"
	"github.com/LENAX/flow-planner/pkg/api/middleware"
	"github.com/LENAX/flow-planner/pkg/core/engine"
	"github.com/LENAX/flow-planner/pkg/core/events"
	"github.com/LENAX/flow-planner/pkg/storage"
)

// SetupRouter 设置路由
func SetupRouter(eng *engine.Engine, repo storage.FlowRepository, scheduler *engine.CronScheduler, bus *events.Bus, version string) *gin.Engine {
	// 设置gin模式
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// 全局中间件
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS())

	// 创建handlers
	strategyHandler := handler.NewStrategyHandler(eng)
	flowHandler := handler.NewFlowHandler(eng, repo, scheduler)
	healthHandler := handler.NewHealthHandler(version)
	wsHandler := handler.NewWSHandler(bus)

	// 健康检查路由（不带前缀）
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	// API v1 路由组
	v1 := router.Group("/api/v1")
	{
		// 策略图路由
		strategy := v1.Group("/strategy")
		{
			strategy.POST("/validate", strategyHandler.Validate)
			strategy.POST("/backtest", strategyHandler.Backtest)
			strategy.GET("/operators", strategyHandler.Operators)
		}

		// 流程路由
		flows := v1.Group("/flows")
		{
			flows.GET("", flowHandler.List)
			flows.POST("", flowHandler.Save)
			flows.GET("/:name", flowHandler.Get)
			flows.DELETE("/:name", flowHandler.Delete)
			flows.POST("/:name/run", flowHandler.Run)
			flows.POST("/:name/schedule", flowHandler.Schedule)
			flows.GET("/:name/runs", flowHandler.Runs)
		}

		// 运行记录路由
		v1.GET("/runs/:id", flowHandler.GetRun)

		// 运行事件WebSocket
		if bus != nil {
			v1.GET("/ws/runs", wsHandler.Runs)
		}
	}

	return router
}

package router

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"pomodoro/internal/handler"
	"pomodoro/internal/middleware"
)

func New(
	ledgerHandler *handler.LedgerHandler,
	corsOrigins []string,
	logger *slog.Logger,
) *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.RequestLogger(logger), gin.Recovery(), middleware.CORS(corsOrigins))

	api := engine.Group("/api")
	api.GET("/health", ledgerHandler.Health)
	api.GET("/settings", ledgerHandler.GetSettings)
	api.POST("/settings", ledgerHandler.UpdateSettings)
	api.GET("/progress", ledgerHandler.GetProgress)
	api.POST("/session-complete", ledgerHandler.CompleteSession)
	api.GET("/achievements", ledgerHandler.GetAchievements)
	api.GET("/history", ledgerHandler.GetHistory)
	api.GET("/history/summary", ledgerHandler.GetSummary)

	return engine
}

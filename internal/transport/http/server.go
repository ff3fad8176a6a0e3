package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"careerqa/internal/bootstrap"
	"careerqa/internal/transport/http/handler"
	"careerqa/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.MaxMultipartMemory = 8 << 20
	router.Use(middleware.Logger(app.Logger.Named("http")), gin.Recovery(), corsMiddleware(app.Config.App.AllowedOrigin))

	healthHandler := handler.NewHealthHandler(app)
	ragHandler := handler.NewRAGHandler(app.RAG, app.Config.Upload.MaxBytes)

	router.GET("/", healthHandler.Root)
	router.GET("/healthz", healthHandler.Check)
	router.GET("/metrics", gin.WrapH(app.Metrics.Handler()))

	router.POST("/upload", ragHandler.Upload)
	router.POST("/ask/:session_id", ragHandler.Ask)

	if app.History != nil {
		historyHandler := handler.NewHistoryHandler(app.History)
		router.GET("/history/:session_id", historyHandler.Get)
	}

	return router
}

func corsMiddleware(allowedOrigin string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	if allowedOrigin == "" || allowedOrigin == "*" {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = []string{allowedOrigin}
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}

package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"careerqa/internal/bootstrap"
)

type HealthHandler struct {
	app *bootstrap.App
}

type dependencyStatus struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

func NewHealthHandler(app *bootstrap.App) *HealthHandler {
	return &HealthHandler{app: app}
}

// Root is the liveness and mode probe.
func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "RAG Backend is running.",
		"mode":    h.app.Config.Mode(),
	})
}

func (h *HealthHandler) Check(c *gin.Context) {
	body := gin.H{
		"app":             h.app.Config.App.Name,
		"mode":            h.app.Config.Mode(),
		"uptime_sec":      int(time.Since(h.app.StartedAt).Seconds()),
		"active_sessions": h.app.RAG.ActiveSessions(),
	}
	if !h.app.Config.History.Enabled {
		c.JSON(http.StatusOK, body)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	mysqlStatus := h.checkMySQL(ctx)
	redisStatus := h.checkRedis(ctx)
	rmqStatus := h.checkRabbitMQ()

	statusCode := http.StatusOK
	if !(mysqlStatus.OK && redisStatus.OK && rmqStatus.OK) {
		statusCode = http.StatusServiceUnavailable
	}
	body["dependencies"] = gin.H{
		"mysql":    mysqlStatus,
		"redis":    redisStatus,
		"rabbitmq": rmqStatus,
	}
	c.JSON(statusCode, body)
}

func (h *HealthHandler) checkMySQL(ctx context.Context) dependencyStatus {
	if h.app.MySQL == nil {
		return dependencyStatus{OK: false, Message: "not connected"}
	}
	sqlDB, err := h.app.MySQL.DB()
	if err != nil {
		return dependencyStatus{OK: false, Message: err.Error()}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return dependencyStatus{OK: false, Message: err.Error()}
	}
	return dependencyStatus{OK: true}
}

func (h *HealthHandler) checkRedis(ctx context.Context) dependencyStatus {
	if h.app.Redis == nil {
		return dependencyStatus{OK: false, Message: "not connected"}
	}
	if err := h.app.Redis.Ping(ctx).Err(); err != nil {
		return dependencyStatus{OK: false, Message: err.Error()}
	}
	return dependencyStatus{OK: true}
}

func (h *HealthHandler) checkRabbitMQ() dependencyStatus {
	if h.app.MQConn == nil || h.app.MQConn.IsClosed() {
		return dependencyStatus{OK: false, Message: "connection closed"}
	}
	return dependencyStatus{OK: true}
}

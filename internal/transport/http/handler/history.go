package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"careerqa/internal/app"
	"careerqa/internal/transport/http/response"
)

type HistoryHandler struct {
	historyService *app.HistoryService
}

func NewHistoryHandler(historyService *app.HistoryService) *HistoryHandler {
	return &HistoryHandler{historyService: historyService}
}

func (h *HistoryHandler) Get(c *gin.Context) {
	exchanges, err := h.historyService.GetHistory(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		if errors.Is(err, app.ErrInvalidInput) {
			response.Error(c, http.StatusBadRequest, "session id is required")
			return
		}
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "get history failed")
		return
	}
	response.OK(c, gin.H{"exchanges": exchanges})
}

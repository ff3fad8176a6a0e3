package handler

import (
	"errors"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"careerqa/internal/app"
	"careerqa/internal/transport/http/response"
)

type RAGHandler struct {
	ragService *app.RAGService
	maxBytes   int64
}

type AskRequest struct {
	Question string `json:"question"`
}

type uploadResponse struct {
	Status string `json:"status"`
	*app.UploadResult
}

func NewRAGHandler(ragService *app.RAGService, maxBytes int64) *RAGHandler {
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	return &RAGHandler{ragService: ragService, maxBytes: maxBytes}
}

// Upload accepts a multipart form with a single "file" and opens a session for it.
func (h *RAGHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+(1<<20))

	file, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			response.UploadError(c, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		response.UploadError(c, http.StatusBadRequest, "missing file")
		return
	}
	if file.Size > h.maxBytes {
		response.UploadError(c, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	f, err := file.Open()
	if err != nil {
		response.UploadError(c, http.StatusInternalServerError, "failed to read file")
		return
	}
	defer f.Close()

	result, err := h.ragService.Upload(c.Request.Context(), filepath.Base(file.Filename), f)
	if err != nil {
		_ = c.Error(err)
		response.UploadError(c, http.StatusOK, h.ragService.Describe(err))
		return
	}
	response.OK(c, uploadResponse{Status: response.StatusReady, UploadResult: result})
}

func (h *RAGHandler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request payload")
		return
	}

	result, err := h.ragService.Ask(c.Request.Context(), c.Param("session_id"), req.Question)
	if err != nil {
		switch app.KindOf(err) {
		case app.KindInvalidInput:
			response.Error(c, http.StatusBadRequest, "question is required")
		case app.KindSessionInvalid:
			response.Error(c, http.StatusOK, app.SessionInvalidMessage)
		default:
			_ = c.Error(err)
			response.Error(c, http.StatusOK, err.Error())
		}
		return
	}
	response.OK(c, result)
}

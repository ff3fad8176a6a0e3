package response

import "github.com/gin-gonic/gin"

const (
	StatusReady = "ready"
	StatusError = "error"
)

// StatusResponse is the shape of a failed upload.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(200, data)
}

func UploadError(c *gin.Context, httpStatus int, message string) {
	c.JSON(httpStatus, StatusResponse{
		Status:  StatusError,
		Message: message,
	})
}

func Error(c *gin.Context, httpStatus int, message string) {
	c.JSON(httpStatus, ErrorResponse{Error: message})
}

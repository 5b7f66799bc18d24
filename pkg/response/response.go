package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/DavidValenciaX/coffeetech-invitations-service/internal/apperrors"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Body is the standard API response envelope.
type Body struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// OK sends a 200 JSON response with data.
func OK(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Body{Status: StatusSuccess, Message: message, Data: data})
}

// Created sends a 201 JSON response with data.
func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, Body{Status: StatusSuccess, Message: message, Data: data})
}

// Error sends an error envelope with the given status.
func Error(c *gin.Context, status int, message string) {
	c.JSON(status, Body{Status: StatusError, Message: message})
}

// BadRequest sends 400 with error message.
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// Unauthorized sends 401.
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, message)
}

// NotFound sends 404.
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

// FromError sends the status and message carried by an apperrors error.
// Unknown errors become a 500 with a generic message.
func FromError(c *gin.Context, err error) {
	Error(c, apperrors.KindOf(err).HTTPStatus(), apperrors.Message(err))
}

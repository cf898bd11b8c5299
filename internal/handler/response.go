package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/sahilrms/lab-master/pkg/errors"
)

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// HTTPStatus maps the application error taxonomy to response codes. The
// transport layer owns this translation; the core only signals error kinds.
func HTTPStatus(err error) int {
	switch apperrors.CodeOf(err) {
	case apperrors.ErrNotFound:
		return http.StatusNotFound
	case apperrors.ErrValidation:
		return http.StatusBadRequest
	case apperrors.ErrUnauthenticated:
		return http.StatusUnauthorized
	case apperrors.ErrForbidden:
		return http.StatusForbidden
	case apperrors.ErrDuplicateCode, apperrors.ErrHasReferences:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes the error in the standard envelope, hiding internals
// behind a generic message for 5xx responses.
func RespondError(c *gin.Context, err error) {
	status := HTTPStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal server error"
		_ = c.Error(err)
	}
	c.JSON(status, NewErrorResponse(msg))
}

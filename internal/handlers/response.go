package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quillhq/rfpdesk-backend/internal/apperrors"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondAppError maps the error taxonomy to HTTP statuses so handlers do not
// repeat the switch.
func RespondAppError(c *gin.Context, err error) {
	code := apperrors.Code(err)
	status := http.StatusInternalServerError
	switch code {
	case "validation":
		status = http.StatusBadRequest
	case "unauthorized":
		status = http.StatusUnauthorized
	case "notFound":
		status = http.StatusNotFound
	case "frozenVersion", "conflict":
		status = http.StatusConflict
	case "insufficientContext":
		status = http.StatusUnprocessableEntity
	case "rateLimitExceeded":
		status = http.StatusTooManyRequests
	case "serviceUnavailable":
		status = http.StatusServiceUnavailable
	}
	RespondError(c, status, code, err)
}

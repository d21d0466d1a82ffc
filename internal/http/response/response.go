package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/snapcal-backend/internal/platform/apierr"
)

// ErrorEnvelope is the error body. Error is a plain string; clients read it directly.
type ErrorEnvelope struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{Error: msg, Code: code})
}

// RespondAPIError renders err, using the status and code an *apierr.Error carries.
// Anything else is a 500 with a generic message.
func RespondAPIError(c *gin.Context, err error) {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		status := ae.Status
		if status == 0 {
			status = http.StatusInternalServerError
		}
		msg := ae.Error()
		if status >= http.StatusInternalServerError && ae.Code != "" {
			msg = ae.Code
		}
		c.JSON(status, ErrorEnvelope{Error: msg, Code: ae.Code, Details: ae.Details})
		return
	}
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, ErrorEnvelope{Error: "internal server error", Code: "internal"})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

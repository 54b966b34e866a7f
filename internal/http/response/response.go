package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/insightpath-backend/internal/platform/apierr"
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
	if status >= http.StatusInternalServerError {
		// Storage and driver messages stay in the logs.
		if err != nil {
			_ = c.Error(err)
		}
		msg = http.StatusText(status)
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondAPIError maps an *apierr.Error onto its status and code. Anything else is a 500 under
// fallbackCode.
func RespondAPIError(c *gin.Context, err error, fallbackCode string) {
	var ae *apierr.Error
	if errors.As(err, &ae) && ae.Status != 0 {
		RespondError(c, ae.Status, ae.Code, err)
		return
	}
	if kind := apierr.KindOf(err); kind != apierr.KindInternal {
		RespondError(c, statusForKind(kind), string(kind), err)
		return
	}
	RespondError(c, http.StatusInternalServerError, fallbackCode, err)
}

func statusForKind(k apierr.Kind) int {
	switch k {
	case apierr.KindNotFound:
		return http.StatusNotFound
	case apierr.KindPreconditionFailed:
		return http.StatusForbidden
	case apierr.KindValidation:
		return http.StatusBadRequest
	case apierr.KindConflict:
		return http.StatusConflict
	case apierr.KindUpstreamUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

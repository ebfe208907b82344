package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noteflow/noteflow-backend/internal/platform/apierr"
)

const (
	accessDeniedMessage = "Access denied. You don't have permission to access this resource."
	unexpectedMessage   = "An unexpected error occurred. Please try again later."
)

// RespondError maps an error to its status and failure envelope and aborts
// the request. 4xx detail is surfaced to the caller except for 403, which
// always gets the fixed access-denied message; 5xx detail stays internal
// apart from the storage-failure prefix case.
func RespondError(c *gin.Context, err error) {
	status, msg := Translate(err)
	c.AbortWithStatusJSON(status, Envelope{
		Success:   false,
		Message:   msg,
		Timestamp: time.Now().UTC(),
	})
}

func Translate(err error) (int, string) {
	ae, ok := apierr.From(err)
	if !ok {
		return http.StatusInternalServerError, unexpectedMessage
	}
	switch {
	case ae.Status == http.StatusForbidden:
		return ae.Status, accessDeniedMessage
	case ae.Code == "file_storage_error":
		return ae.Status, "File storage error: " + ae.Err.Error()
	case ae.Status == http.StatusUnauthorized:
		return ae.Status, "Unauthorized: " + ae.Err.Error()
	case ae.Status >= http.StatusInternalServerError:
		return ae.Status, unexpectedMessage
	default:
		return ae.Status, ae.Err.Error()
	}
}

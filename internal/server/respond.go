package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mindcanvas/internal/apperr"
)

// ok writes the success envelope. data and message are omitted when empty.
func ok(c *gin.Context, status int, data any, message string) {
	body := gin.H{"success": true}
	if data != nil {
		body["data"] = data
	}
	if message != "" {
		body["message"] = message
	}
	c.JSON(status, body)
}

// fail aborts with the error envelope for err. Errors outside the apperr
// taxonomy are logged and reported as a generic server error.
func fail(c *gin.Context, err error) {
	e := apperr.As(err)
	status := e.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	if status >= http.StatusInternalServerError {
		logFromContext(c).Error(e.Message, map[string]interface{}{
			"path":  c.Request.URL.Path,
			"error": err,
		})
	}
	body := gin.H{"success": false, "error": e.Message, "code": e.Code}
	if e.Details != nil {
		body["details"] = e.Details
	}
	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, message string) {
	fail(c, apperr.Validation(message, nil))
}

package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/ground-catalog/internal/platform/apierr"
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

// RespondCatalogError derives the status and code from the error itself.
func RespondCatalogError(c *gin.Context, err error) {
	e := apierr.From(err)
	_ = c.Error(err)
	RespondError(c, e.Status, e.Code, err)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

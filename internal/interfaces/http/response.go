package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmanzanog/trade-journal/internal/domain"
)

const (
	StatusSuccess = "success"
	StatusFail    = "fail"
	StatusError   = "error"
)

const internalErrorMessage = "Internal server error"

// Response is the envelope returned by write endpoints and by every error.
type Response struct {
	Status  string              `json:"status"`
	Data    any                 `json:"data,omitempty"`
	Message string              `json:"message,omitempty"`
	Errors  []domain.FieldError `json:"errors,omitempty"`
	Detail  string              `json:"detail,omitempty"`
	Stack   string              `json:"stack,omitempty"`
}

func success(c *gin.Context, code int, data any) {
	c.JSON(code, Response{Status: StatusSuccess, Data: data})
}

func fail(c *gin.Context, code int, message string) {
	c.JSON(code, Response{Status: StatusFail, Message: message})
}

func validationFailed(c *gin.Context, errs []domain.FieldError) {
	c.JSON(http.StatusBadRequest, Response{Status: StatusFail, Errors: errs})
}

// internalError writes the generic 500 envelope. detail and stack are
// only filled outside production.
func internalError(c *gin.Context, production bool, err error, stack string) {
	resp := Response{Status: StatusError, Message: internalErrorMessage}
	if !production {
		if err != nil {
			resp.Detail = err.Error()
		}
		resp.Stack = stack
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, resp)
}

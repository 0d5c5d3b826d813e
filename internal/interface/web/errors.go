package web

import (
	"errors"
	"net/http"

	"github.com/ArkLabsHQ/paylink/internal/core/application"
	"github.com/ArkLabsHQ/paylink/internal/interface/web/types"
	"github.com/gin-gonic/gin"
)

var errInvalidRequest = errors.New("invalid request")

func statusFor(err error) int {
	var reconErr *application.ReconciliationError
	switch {
	case errors.Is(err, errInvalidRequest),
		errors.Is(err, application.ErrInvalidAmount),
		errors.Is(err, application.ErrInvalidAsset),
		errors.Is(err, application.ErrInvalidWallet),
		errors.Is(err, application.ErrInvalidContact):
		return http.StatusBadRequest
	case errors.Is(err, application.ErrReferenceNotFound):
		return http.StatusNotFound
	case errors.As(err, &reconErr):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// abortWithError is the only place where errors become http responses.
// Internal errors are logged, never leaked.
func abortWithError(c *gin.Context, err error) {
	status := statusFor(err)
	_ = c.Error(err)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = http.StatusText(status)
	}
	c.AbortWithStatusJSON(status, types.Error{Error: msg})
}

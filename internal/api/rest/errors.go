package rest

import (
	"errors"
	"fmt"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apierrors "github.com/lexlab-ai/funnel/internal/api/shared/errors"
	"github.com/lexlab-ai/funnel/internal/domain"
	"github.com/lexlab-ai/funnel/internal/logger"
	"github.com/lexlab-ai/funnel/internal/ratelimit"
)

// respondNotFound responds with a not found error
func respondNotFound(c *gin.Context, message string, details ...string) {
	c.JSON(http.StatusNotFound, apierrors.NewNotFoundError(message, details...))
}

// respondBadRequest responds with a bad request error for bodies that cannot be decoded
func respondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, apierrors.NewBadRequestError("Invalid request body", err.Error()))
}

// respondValidationError responds with a validation error. A validation
// APIError from a request Validate is passed through as is.
func respondValidationError(c *gin.Context, err error) {
	var apiErr *apierrors.APIError
	if errors.As(err, &apiErr) {
		c.JSON(http.StatusBadRequest, apiErr)
		return
	}
	c.JSON(http.StatusBadRequest, apierrors.NewValidationError(err.Error()))
}

// respondInternalError responds with an internal server error and logs it
func respondInternalError(c *gin.Context, err error, message string, fields ...zap.Field) {
	logger.ErrorCtx(c.Request.Context(), err, fields...)
	c.JSON(http.StatusInternalServerError, apierrors.NewInternalError(message))
}

// respondError maps a service error to its response
func respondError(c *gin.Context, err error, fields ...zap.Field) {
	var limitErr *ratelimit.LimitError

	switch {
	case errors.As(err, &limitErr):
		c.Header("Retry-After", fmt.Sprintf("%d", int(math.Ceil(limitErr.RetryAfter.Seconds()))))
		c.JSON(http.StatusTooManyRequests, apierrors.NewTooManyRequestsError("Too many attempts", limitErr.Error()))
	case errors.Is(err, domain.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, apierrors.NewTooManyRequestsError("Too many attempts"))
	case errors.Is(err, domain.ErrLeadNotFound):
		respondNotFound(c, "Lead not found", err.Error())
	case errors.Is(err, domain.ErrBoardItemNotFound):
		respondNotFound(c, "Board item not found", err.Error())
	case errors.Is(err, domain.ErrInvalidStage):
		respondValidationError(c, err)
	case errors.Is(err, domain.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, apierrors.NewUnauthorizedError("Invalid credentials"))
	case errors.Is(err, domain.ErrSessionNotFound):
		c.JSON(http.StatusUnauthorized, apierrors.NewUnauthorizedError("Session expired"))
	case errors.Is(err, domain.ErrStoreUnavailable):
		logger.ErrorCtx(c.Request.Context(), err, fields...)
		c.JSON(http.StatusServiceUnavailable, apierrors.NewDatabaseError("Document store unavailable"))
	default:
		respondInternalError(c, err, "Internal server error", fields...)
	}
}

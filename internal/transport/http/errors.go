package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"motorvault/internal/command"
	"motorvault/internal/logger"
	"motorvault/internal/model"
)

const (
	errCodeBadRequest   = "bad_request"
	errCodeUnauthorized = "unauthorized"
	errCodeInternal     = command.CodeInternal
)

type errorResponse struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondWithError(c *gin.Context, status int, code, message string) {
	c.JSON(status, errorResponse{Error: errorDetail{Code: code, Message: message}})
}

// respondDomainError maps err onto a status and the shared wire code.
// Infrastructure failures are logged and reported without detail.
func respondDomainError(c *gin.Context, err error) {
	re := command.ErrorOf(err)
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		logger.ErrorCtx(c.Request.Context(), err, zap.String("path", c.Request.URL.Path))
	}
	respondWithError(c, status, re.Code, re.Message)
}

func statusOf(err error) int {
	switch {
	case !model.IsDomainError(err):
		return http.StatusInternalServerError
	case model.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, model.ErrCooldownActive):
		return http.StatusTooManyRequests
	case errors.Is(err, model.ErrNotParticipant):
		return http.StatusForbidden
	case errors.Is(err, model.ErrInvalidCommand),
		errors.Is(err, model.ErrInvalidAmount),
		errors.Is(err, model.ErrUnknownPromo),
		errors.Is(err, model.ErrUnknownColor),
		errors.Is(err, model.ErrUnknownCurrency):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrInsufficientFunds),
		errors.Is(err, model.ErrCapacityExhausted),
		errors.Is(err, model.ErrPoolExhausted),
		errors.Is(err, model.ErrDuplicateNotAllowed),
		errors.Is(err, model.ErrAlreadyRedeemed),
		errors.Is(err, model.ErrAlreadyOwned),
		errors.Is(err, model.ErrStaleProposal):
		return http.StatusConflict
	default:
		return http.StatusUnprocessableEntity
	}
}

package http

import (
	"errors"
	"net/http"

	"github.com/MikeRez0/paygate/internal/core/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// errorStatuses is checked in order; wrapped errors must come before their parents.
var errorStatuses = []struct {
	err    error
	status int
}{
	{domain.ErrUnknownProvider, http.StatusNotFound},
	{domain.ErrDataNotFound, http.StatusNotFound},
	{domain.ErrConflictingData, http.StatusConflict},

	{domain.ErrEmptyAuthorizationHeader, http.StatusUnauthorized},
	{domain.ErrInvalidAuthorizationHeader, http.StatusUnauthorized},
	{domain.ErrInvalidAuthorizationType, http.StatusUnauthorized},
	{domain.ErrInvalidToken, http.StatusUnauthorized},

	{domain.ErrIdempotencyKeyReused, http.StatusUnprocessableEntity},
	{domain.ErrInvalidRequest, http.StatusBadRequest},
	{domain.ErrBadRequest, http.StatusBadRequest},
	{domain.ErrMalformedPayload, http.StatusBadRequest},

	{domain.ErrProvider, http.StatusBadGateway},
	{domain.ErrStorage, http.StatusServiceUnavailable},
	{domain.ErrInternal, http.StatusInternalServerError},
}

func statusOf(err error) (int, bool) {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status, true
		}
	}
	return http.StatusInternalServerError, false
}

type errorResponse struct {
	Error            string `json:"error"`
	Provider         string `json:"provider,omitempty"`
	ProviderStatus   int    `json:"providerStatus,omitempty"`
	ProviderResponse string `json:"providerResponse,omitempty"`
}

func newErrorResponse(err error, status int) errorResponse {
	resp := errorResponse{Error: err.Error()}
	if status == http.StatusInternalServerError || status == http.StatusServiceUnavailable {
		resp.Error = http.StatusText(status)
	}
	var pErr *domain.ProviderError
	if errors.As(err, &pErr) {
		resp.Error = domain.ErrProvider.Error()
		resp.Provider = string(pErr.Provider)
		resp.ProviderStatus = pErr.StatusCode
		resp.ProviderResponse = pErr.Diagnostic
	}
	return resp
}

type Handler struct {
	logger *zap.Logger
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{logger: logger}
}

// handleValidationError sends an error response for some specific request validation error
func (h *Handler) handleValidationError(ctx *gin.Context, err error) {
	h.logger.Debug("invalid request", zap.Error(err))
	ctx.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
}

// handleAbort sends an error response and aborts the request with the specified status code and error message
func handleAbort(ctx *gin.Context, err error) {
	status, _ := statusOf(err)
	ctx.AbortWithStatusJSON(status, errorResponse{Error: err.Error()})
}

func (h *Handler) handleError(ctx *gin.Context, err error) {
	status, ok := statusOf(err)
	if !ok || status >= http.StatusInternalServerError {
		h.logger.Error("error processing request", zap.Int("status", status), zap.Error(err))
	}
	ctx.JSON(status, newErrorResponse(err, status))
}

func (h *Handler) handleSuccess(ctx *gin.Context, data any) {
	ctx.JSON(http.StatusOK, data)
}

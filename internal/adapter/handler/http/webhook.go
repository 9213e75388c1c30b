package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/MikeRez0/paygate/internal/core/domain"
	"github.com/MikeRez0/paygate/internal/core/port"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxWebhookBody = 1 << 20

type WebhookHandler struct {
	Handler
	service port.Service
}

func NewWebhookHandler(service port.Service, logger *zap.Logger) (*WebhookHandler, error) {
	if service == nil {
		return nil, errors.New("service is required")
	}
	return &WebhookHandler{
		Handler: *NewHandler(logger),
		service: service,
	}, nil
}

// Receive godoc
//
//	@Summary	Provider webhook, acknowledged whenever the body parses
//	@Tags		webhooks
//	@Param		provider	path	string	true	"provider"
//	@Success	200	{string}	string	"OK"
//	@Router		/api/webhooks/{provider} [post]
func (wh *WebhookHandler) Receive(ctx *gin.Context) {
	provider, err := domain.ParseProvider(ctx.Param("provider"))
	if err != nil {
		wh.handleError(ctx, err)
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(ctx.Writer, ctx.Request.Body, maxWebhookBody))
	if err != nil {
		wh.handleValidationError(ctx, err)
		return
	}

	ack, err := wh.service.ApplyEvent(ctx.Request.Context(), provider, payload, ctx.Request.Header)
	if err != nil {
		wh.handleError(ctx, err)
		return
	}

	wh.logger.Debug("webhook acknowledged",
		zap.String("provider", string(provider)),
		zap.String("outcome", string(ack.Outcome)),
		zap.Bool("verified", ack.Verified))
	ctx.String(http.StatusOK, "OK")
}

package http

import (
	"errors"
	"time"

	"github.com/MikeRez0/paygate/internal/core/domain"
	"github.com/MikeRez0/paygate/internal/core/port"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	idempotencyKeyHeader  = "Idempotency-Key"
	walletRequestIDHeader = "PayPal-Request-Id"
)

type OrderHandler struct {
	Handler
	service port.Service
}

func NewOrderHandler(service port.Service, logger *zap.Logger) (*OrderHandler, error) {
	if service == nil {
		return nil, errors.New("service is required")
	}
	return &OrderHandler{
		Handler: *NewHandler(logger),
		service: service,
	}, nil
}

type CreateOrderRequest struct {
	Amount         int64             `json:"amount"`
	Currency       string            `json:"currency"`
	Metadata       map[string]string `json:"metadata"`
	IdempotencyKey string            `json:"idempotency_key"`
}

type CreateOrderResponse struct {
	OrderID           string `json:"orderId"`
	ApprovalReference string `json:"approvalReference,omitempty"`
	Status            string `json:"status"`
	Reused            bool   `json:"reused"`
}

// CreateOrder godoc
//
//	@Summary	Create a payment order, at most once per idempotency key
//	@Tags		orders
//	@Param		provider	path	string				true	"card_processor, wallet_processor or regional_processor"
//	@Param		order		body	CreateOrderRequest	true	"order"
//	@Success	200	{object}	CreateOrderResponse
//	@Router		/api/orders/{provider} [post]
func (oh *OrderHandler) CreateOrder(ctx *gin.Context) {
	provider, err := domain.ParseProvider(ctx.Param("provider"))
	if err != nil {
		oh.handleError(ctx, err)
		return
	}

	var req CreateOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		oh.handleValidationError(ctx, err)
		return
	}

	key := req.IdempotencyKey
	if key == "" {
		key = ctx.GetHeader(idempotencyKeyHeader)
	}
	if key == "" && provider == domain.ProviderWallet {
		key = ctx.GetHeader(walletRequestIDHeader)
	}

	oh.logger.Debug("create order",
		zap.String("merchant", getAuthPayload(ctx).MerchantID),
		zap.String("provider", string(provider)),
		zap.String("idempotency_key", key))

	result, err := oh.service.CreateOrder(ctx.Request.Context(), &domain.CreateOrderRequest{
		Provider:       provider,
		Amount:         req.Amount,
		Currency:       req.Currency,
		Metadata:       req.Metadata,
		IdempotencyKey: key,
	})
	if err != nil {
		oh.handleError(ctx, err)
		return
	}

	oh.handleSuccess(ctx, CreateOrderResponse{
		OrderID:           result.Order.ProviderOrderID,
		ApprovalReference: result.ApprovalReference,
		Status:            string(result.Order.Status),
		Reused:            result.Reused,
	})
}

type OrderResponse struct {
	OrderID        string            `json:"orderId"`
	Provider       string            `json:"provider"`
	Status         string            `json:"status"`
	Amount         int64             `json:"amount"`
	Currency       string            `json:"currency"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	IdempotencyKey string            `json:"idempotencyKey,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// GetOrder godoc
//
//	@Summary	Stored state of an order
//	@Tags		orders
//	@Param		provider	path	string	true	"provider"
//	@Param		id			path	string	true	"provider order id"
//	@Success	200	{object}	OrderResponse
//	@Router		/api/orders/{provider}/{id} [get]
func (oh *OrderHandler) GetOrder(ctx *gin.Context) {
	provider, err := domain.ParseProvider(ctx.Param("provider"))
	if err != nil {
		oh.handleError(ctx, err)
		return
	}

	order, err := oh.service.GetOrder(ctx.Request.Context(), provider, ctx.Param("id"))
	if err != nil {
		oh.handleError(ctx, err)
		return
	}

	oh.handleSuccess(ctx, OrderResponse{
		OrderID:        order.ProviderOrderID,
		Provider:       string(order.Provider),
		Status:         string(order.Status),
		Amount:         order.Amount,
		Currency:       order.Currency,
		Metadata:       order.Metadata,
		IdempotencyKey: order.IdempotencyKey,
		CreatedAt:      order.CreatedAt,
		UpdatedAt:      order.UpdatedAt,
	})
}

package port

import (
	"context"
	"net/http"

	"github.com/MikeRez0/paygate/internal/core/domain"
)

//go:generate mockgen -source=service.go -destination=mock/service.go -package=mock
type Service interface {
	CreateOrder(ctx context.Context, req *domain.CreateOrderRequest) (*domain.CreateOrderResult, error)
	GetOrder(ctx context.Context, provider domain.Provider, providerOrderID string) (*domain.Order, error)
	ApplyEvent(ctx context.Context, provider domain.Provider, payload []byte,
		headers http.Header) (*domain.Acknowledgement, error)
}

package port

import (
	"context"

	"github.com/MikeRez0/paygate/internal/core/domain"
)

//go:generate mockgen -source=repository.go -destination=mock/repository.go -package=mock
type OrderRepository interface {
	FindByIdempotencyKey(ctx context.Context, provider domain.Provider, key string) (*domain.Order, error)
	FindByProviderOrderID(ctx context.Context, provider domain.Provider, providerOrderID string) (*domain.Order, error)
	// InsertIfAbsent reports InsertConflict when a row with the same
	// (provider, idempotency key) or (provider, provider order id) exists.
	InsertIfAbsent(ctx context.Context, order *domain.Order) (domain.InsertOutcome, error)
	UpdateStatusIfAdvancing(ctx context.Context, provider domain.Provider, providerOrderID string,
		status domain.OrderStatus) (domain.UpdateOutcome, error)
}

type WebhookJournal interface {
	Record(ctx context.Context, record *domain.WebhookRecord) error
}

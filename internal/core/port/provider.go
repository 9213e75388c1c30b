package port

import (
	"context"
	"net/http"

	"github.com/MikeRez0/paygate/internal/core/domain"
)

//go:generate mockgen -source=provider.go -destination=mock/provider.go -package=mock
type ProviderAdapter interface {
	Provider() domain.Provider
	Create(ctx context.Context, params domain.CreateParams) (*domain.ProviderOrder, error)
	Fetch(ctx context.Context, providerOrderID string) (*domain.ProviderOrder, error)
	ParseEvent(payload []byte, headers http.Header) (*domain.Event, error)
	Verify(ctx context.Context, payload []byte, headers http.Header) domain.Verification
}

type StatusNotifier interface {
	Notify(ctx context.Context, change domain.StatusChange) error
}

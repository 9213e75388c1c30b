package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MikeRez0/paygate/internal/core/domain"
	"github.com/MikeRez0/paygate/internal/core/port"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultCurrency = "USD"

// Policy holds the deployment choices the protocol leaves open.
type Policy struct {
	// FallbackToStored returns the stored order without an approval reference
	// when refreshing a reused order from the provider fails.
	FallbackToStored bool
	// StrictVerification drops webhook events that fail verification.
	StrictVerification bool
}

func DefaultPolicy() Policy {
	return Policy{FallbackToStored: true}
}

type Service struct {
	repo      port.OrderRepository
	providers map[domain.Provider]port.ProviderAdapter
	journal   port.WebhookJournal
	notifier  port.StatusNotifier
	policy    Policy
	logger    *zap.Logger
}

func NewService(repo port.OrderRepository, providers []port.ProviderAdapter,
	journal port.WebhookJournal, notifier port.StatusNotifier,
	policy Policy, logger *zap.Logger) (*Service, error) {
	if repo == nil {
		return nil, errors.New("order repository is required")
	}

	byProvider := make(map[domain.Provider]port.ProviderAdapter, len(providers))
	for _, p := range providers {
		if _, ok := byProvider[p.Provider()]; ok {
			return nil, fmt.Errorf("duplicate adapter for provider %s", p.Provider())
		}
		byProvider[p.Provider()] = p
	}

	if journal == nil {
		journal = nopJournal{}
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}

	return &Service{
		repo:      repo,
		providers: byProvider,
		journal:   journal,
		notifier:  notifier,
		policy:    policy,
		logger:    logger,
	}, nil
}

func (s *Service) adapter(provider domain.Provider) (port.ProviderAdapter, error) {
	a, ok := s.providers[provider]
	if !ok {
		return nil, domain.ErrUnknownProvider
	}
	return a, nil
}

// CreateOrder creates a provider order at most once per (provider, idempotency key).
func (s *Service) CreateOrder(ctx context.Context, req *domain.CreateOrderRequest) (*domain.CreateOrderResult, error) {
	if req.Amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	currency, err := normalizeCurrency(req.Currency)
	if err != nil {
		return nil, err
	}
	if len(req.IdempotencyKey) > domain.MaxIdempotencyKeyLength {
		return nil, domain.ErrIdempotencyKeyLength
	}

	adapter, err := s.adapter(req.Provider)
	if err != nil {
		return nil, err
	}

	log := s.logger.With(
		zap.String("provider", string(req.Provider)),
		zap.String("idempotency_key", req.IdempotencyKey))

	if req.IdempotencyKey != "" {
		existing, err := s.repo.FindByIdempotencyKey(ctx, req.Provider, req.IdempotencyKey)
		switch {
		case err == nil:
			log.Debug("idempotency key already materialized", zap.String("order_id", existing.ID))
			return s.reuse(ctx, adapter, existing, req.Amount, currency)
		case errors.Is(err, domain.ErrDataNotFound):
		default:
			log.Error("Find order by idempotency key", zap.Error(err))
			return nil, fmt.Errorf("%w: %w", domain.ErrStorage, err)
		}
	}

	created, err := adapter.Create(ctx, domain.CreateParams{
		Amount:         req.Amount,
		Currency:       currency,
		Metadata:       req.Metadata,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		log.Error("Create provider order", zap.Error(err))
		return nil, asProviderError(req.Provider, "create", err)
	}

	now := time.Now().UTC()
	order := &domain.Order{
		ID:              uuid.NewString(),
		Provider:        req.Provider,
		ProviderOrderID: created.ID,
		IdempotencyKey:  req.IdempotencyKey,
		Amount:          req.Amount,
		Currency:        currency,
		Status:          domain.OrderStatusCreated,
		Metadata:        req.Metadata,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	outcome, err := s.repo.InsertIfAbsent(ctx, order)
	if err != nil {
		log.Error("Insert order, provider order left orphaned",
			zap.String("provider_order_id", created.ID), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}

	if outcome == domain.InsertConflict {
		log.Warn("Concurrent create won by another request, provider order left orphaned",
			zap.String("provider_order_id", created.ID))
		return s.reconcileConflict(ctx, adapter, order, created)
	}

	log.Info("Order created",
		zap.String("order_id", order.ID),
		zap.String("provider_order_id", order.ProviderOrderID))

	return &domain.CreateOrderResult{
		Order:             order,
		ApprovalReference: created.ApprovalReference,
	}, nil
}

// reconcileConflict re-reads the row that won the insert race.
func (s *Service) reconcileConflict(ctx context.Context, adapter port.ProviderAdapter,
	lost *domain.Order, created *domain.ProviderOrder) (*domain.CreateOrderResult, error) {
	var winner *domain.Order
	var err error
	if lost.IdempotencyKey != "" {
		winner, err = s.repo.FindByIdempotencyKey(ctx, lost.Provider, lost.IdempotencyKey)
	}
	if lost.IdempotencyKey == "" || errors.Is(err, domain.ErrDataNotFound) {
		winner, err = s.repo.FindByProviderOrderID(ctx, lost.Provider, created.ID)
	}
	if err != nil {
		s.logger.Error("Read order after insert conflict", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}

	if winner.ProviderOrderID == created.ID {
		// the provider deduplicated the request itself
		if err := checkSameRequest(winner, lost.Amount, lost.Currency); err != nil {
			return nil, err
		}
		return &domain.CreateOrderResult{
			Order:             winner,
			ApprovalReference: created.ApprovalReference,
			Reused:            true,
		}, nil
	}

	return s.reuse(ctx, adapter, winner, lost.Amount, lost.Currency)
}

// reuse returns an already stored order, refreshing it from the provider.
func (s *Service) reuse(ctx context.Context, adapter port.ProviderAdapter, existing *domain.Order,
	amount int64, currency string) (*domain.CreateOrderResult, error) {
	if err := checkSameRequest(existing, amount, currency); err != nil {
		return nil, err
	}

	result := &domain.CreateOrderResult{Order: existing, Reused: true}
	if existing.ProviderOrderID == "" {
		return result, nil
	}

	fresh, err := adapter.Fetch(ctx, existing.ProviderOrderID)
	if err != nil {
		if !s.policy.FallbackToStored {
			return nil, asProviderError(existing.Provider, "fetch", err)
		}
		s.logger.Warn("Refresh provider order failed, returning stored order",
			zap.String("order_id", existing.ID),
			zap.String("provider_order_id", existing.ProviderOrderID),
			zap.Error(err))
		return result, nil
	}
	result.ApprovalReference = fresh.ApprovalReference

	if existing.Status.CanAdvanceTo(fresh.Status) {
		outcome, err := s.repo.UpdateStatusIfAdvancing(ctx, existing.Provider, existing.ProviderOrderID, fresh.Status)
		if err != nil {
			s.logger.Warn("Store refreshed status", zap.String("order_id", existing.ID), zap.Error(err))
			return result, nil
		}
		switch outcome {
		case domain.UpdateAdvanced:
			refreshed := *existing
			refreshed.Status = fresh.Status
			result.Order = &refreshed
			s.notify(ctx, &refreshed, "refresh")
		case domain.UpdateUnchanged:
			// a webhook moved the row since it was read
			current, err := s.repo.FindByProviderOrderID(ctx, existing.Provider, existing.ProviderOrderID)
			if err != nil {
				s.logger.Warn("Re-read order after refresh", zap.String("order_id", existing.ID), zap.Error(err))
				return result, nil
			}
			result.Order = current
		}
	}

	return result, nil
}

func (s *Service) GetOrder(ctx context.Context, provider domain.Provider, providerOrderID string) (*domain.Order, error) {
	if _, err := s.adapter(provider); err != nil {
		return nil, err
	}

	order, err := s.repo.FindByProviderOrderID(ctx, provider, providerOrderID)
	if err != nil {
		if errors.Is(err, domain.ErrDataNotFound) {
			return nil, err
		}
		s.logger.Error("Get order", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}
	return order, nil
}

func (s *Service) notify(ctx context.Context, order *domain.Order, source string) {
	change := domain.StatusChange{
		EventID:         uuid.NewString(),
		OrderID:         order.ID,
		Provider:        order.Provider,
		ProviderOrderID: order.ProviderOrderID,
		Status:          order.Status,
		Source:          source,
		ChangedAt:       time.Now().UTC(),
	}
	if err := s.notifier.Notify(ctx, change); err != nil {
		s.logger.Warn("Publish status change", zap.String("order_id", order.ID), zap.Error(err))
	}
}

func checkSameRequest(existing *domain.Order, amount int64, currency string) error {
	if existing.Amount != amount || existing.Currency != currency {
		return domain.ErrIdempotencyKeyReused
	}
	return nil
}

func normalizeCurrency(currency string) (string, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return defaultCurrency, nil
	}
	if len(currency) != 3 {
		return "", domain.ErrInvalidCurrency
	}
	for _, r := range currency {
		if r < 'A' || r > 'Z' {
			return "", domain.ErrInvalidCurrency
		}
	}
	return currency, nil
}

func asProviderError(provider domain.Provider, op string, err error) error {
	var pErr *domain.ProviderError
	if errors.As(err, &pErr) {
		return pErr
	}
	return domain.NewProviderError(provider, op, 0, "", err)
}

type nopJournal struct{}

func (nopJournal) Record(context.Context, *domain.WebhookRecord) error { return nil }

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, domain.StatusChange) error { return nil }

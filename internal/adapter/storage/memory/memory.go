// Package memory keeps orders in process memory. It enforces the same unique
// keys as the Postgres schema and is used when no database is configured.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/MikeRez0/paygate/internal/core/domain"
)

type key struct {
	provider domain.Provider
	value    string
}

type Store struct {
	mu                sync.Mutex
	orders            map[string]*domain.Order
	byIdempotencyKey  map[key]string
	byProviderOrderID map[key]string
	now               func() time.Time
}

func NewStore() *Store {
	return &Store{
		orders:            make(map[string]*domain.Order),
		byIdempotencyKey:  make(map[key]string),
		byProviderOrderID: make(map[key]string),
		now:               time.Now,
	}
}

func (s *Store) FindByIdempotencyKey(_ context.Context, provider domain.Provider, idempotencyKey string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byIdempotencyKey[key{provider, idempotencyKey}]
	if !ok {
		return nil, domain.ErrDataNotFound
	}
	return clone(s.orders[id]), nil
}

func (s *Store) FindByProviderOrderID(_ context.Context, provider domain.Provider, providerOrderID string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byProviderOrderID[key{provider, providerOrderID}]
	if !ok {
		return nil, domain.ErrDataNotFound
	}
	return clone(s.orders[id]), nil
}

func (s *Store) InsertIfAbsent(_ context.Context, order *domain.Order) (domain.InsertOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[order.ID]; ok {
		return domain.InsertConflict, nil
	}
	idemKey := key{order.Provider, order.IdempotencyKey}
	if order.IdempotencyKey != "" {
		if _, ok := s.byIdempotencyKey[idemKey]; ok {
			return domain.InsertConflict, nil
		}
	}
	providerKey := key{order.Provider, order.ProviderOrderID}
	if order.ProviderOrderID != "" {
		if _, ok := s.byProviderOrderID[providerKey]; ok {
			return domain.InsertConflict, nil
		}
	}

	s.orders[order.ID] = clone(order)
	if order.IdempotencyKey != "" {
		s.byIdempotencyKey[idemKey] = order.ID
	}
	if order.ProviderOrderID != "" {
		s.byProviderOrderID[providerKey] = order.ID
	}
	return domain.InsertInserted, nil
}

func (s *Store) UpdateStatusIfAdvancing(_ context.Context, provider domain.Provider, providerOrderID string,
	status domain.OrderStatus) (domain.UpdateOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byProviderOrderID[key{provider, providerOrderID}]
	if !ok {
		return domain.UpdateNotFound, nil
	}
	order := s.orders[id]
	if !order.Status.CanAdvanceTo(status) {
		return domain.UpdateUnchanged, nil
	}
	order.Status = status
	order.UpdatedAt = s.now().UTC()
	return domain.UpdateAdvanced, nil
}

// Len returns the number of stored orders.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

func clone(o *domain.Order) *domain.Order {
	c := *o
	if o.Metadata != nil {
		c.Metadata = make(map[string]string, len(o.Metadata))
		for k, v := range o.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

package domain

import (
	"time"
)

type Provider string

const (
	ProviderCard     Provider = "card_processor"
	ProviderWallet   Provider = "wallet_processor"
	ProviderRegional Provider = "regional_processor"
)

var Providers = []Provider{ProviderCard, ProviderWallet, ProviderRegional}

func ParseProvider(s string) (Provider, error) {
	for _, p := range Providers {
		if string(p) == s {
			return p, nil
		}
	}
	return "", ErrUnknownProvider
}

type OrderStatus string

const (
	OrderStatusCreated   OrderStatus = "created"
	OrderStatusApproved  OrderStatus = "approved"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusFailed    OrderStatus = "failed"
)

// IsTerminal reports whether no transition out of the status is allowed.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusFailed
}

// Predecessors lists statuses an order may be in to move to s.
func (s OrderStatus) Predecessors() []OrderStatus {
	switch s {
	case OrderStatusApproved:
		return []OrderStatus{OrderStatusCreated}
	case OrderStatusCompleted, OrderStatusFailed:
		return []OrderStatus{OrderStatusCreated, OrderStatusApproved}
	default:
		return nil
	}
}

// CanAdvanceTo reports whether moving from s to next is a forward transition.
func (s OrderStatus) CanAdvanceTo(next OrderStatus) bool {
	for _, p := range next.Predecessors() {
		if p == s {
			return true
		}
	}
	return false
}

type Order struct {
	ID              string
	Provider        Provider
	ProviderOrderID string
	IdempotencyKey  string
	Amount          int64
	Currency        string
	Status          OrderStatus
	Metadata        map[string]string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// MaxIdempotencyKeyLength matches the orders.idempotency_key column width.
const MaxIdempotencyKeyLength = 255

type CreateOrderRequest struct {
	Provider       Provider
	Amount         int64
	Currency       string
	Metadata       map[string]string
	IdempotencyKey string
}

type CreateOrderResult struct {
	Order             *Order
	ApprovalReference string
	// Reused is set when the order already existed for the idempotency key.
	Reused bool
}

// InsertOutcome is the tagged result of an optimistic insert.
type InsertOutcome int

const (
	InsertInserted InsertOutcome = iota
	InsertConflict
)

type UpdateOutcome int

const (
	UpdateAdvanced UpdateOutcome = iota
	UpdateUnchanged
	UpdateNotFound
)

func (o UpdateOutcome) String() string {
	switch o {
	case UpdateAdvanced:
		return "advanced"
	case UpdateUnchanged:
		return "unchanged"
	case UpdateNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// StatusChange is published after an order status moves forward.
type StatusChange struct {
	EventID         string      `json:"event_id"`
	OrderID         string      `json:"order_id"`
	Provider        Provider    `json:"provider"`
	ProviderOrderID string      `json:"provider_order_id"`
	Status          OrderStatus `json:"status"`
	Source          string      `json:"source"`
	ChangedAt       time.Time   `json:"changed_at"`
}

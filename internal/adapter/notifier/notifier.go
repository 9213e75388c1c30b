// Package notifier publishes order status changes for downstream consumers.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/MikeRez0/paygate/internal/core/domain"
	"go.uber.org/zap"
)

type StatusNotifier struct {
	publisher Publisher
	logger    *zap.Logger
}

func NewStatusNotifier(publisher Publisher, logger *zap.Logger) *StatusNotifier {
	return &StatusNotifier{publisher: publisher, logger: logger.Named("notifier")}
}

// Notify publishes the change with the provider name as routing key.
func (n *StatusNotifier) Notify(ctx context.Context, change domain.StatusChange) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("marshal status change: %w", err)
	}
	if err := n.publisher.Publish(ctx, string(change.Provider), payload); err != nil {
		return fmt.Errorf("publish status change: %w", err)
	}
	n.logger.Debug("Status change published",
		zap.String("order_id", change.OrderID),
		zap.String("status", string(change.Status)))
	return nil
}

func (n *StatusNotifier) Close() error {
	return n.publisher.Close()
}

// Nop discards status changes when no broker is configured.
type Nop struct{}

func (Nop) Notify(context.Context, domain.StatusChange) error { return nil }

func (Nop) Close() error { return nil }

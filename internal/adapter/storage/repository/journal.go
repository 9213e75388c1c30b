package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MikeRez0/paygate/internal/core/domain"
)

// WebhookJournal records webhook deliveries in Postgres.
type WebhookJournal struct {
	db *sql.DB
}

// NewWebhookJournal constructs a journal on top of a database/sql handle.
func NewWebhookJournal(db *sql.DB) *WebhookJournal {
	return &WebhookJournal{db: db}
}

// Record inserts one row per delivery. The payload is stored as received.
func (j *WebhookJournal) Record(ctx context.Context, record *domain.WebhookRecord) error {
	if record.ID == "" {
		return errors.New("delivery id required")
	}

	headers, err := json.Marshal(record.Headers)
	if err != nil {
		return fmt.Errorf("encode headers: %w", err)
	}
	if record.Headers == nil {
		headers = []byte("{}")
	}
	payload := record.Payload
	if payload == nil {
		payload = []byte{}
	}

	_, err = j.db.ExecContext(ctx, `
		INSERT INTO webhook_events
			(id, provider, event_id, event_type, provider_order_id, signature_valid, outcome, headers, payload, received_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		record.ID, string(record.Provider), record.EventID, record.EventType, record.ProviderOrderID,
		record.SignatureValid, string(record.Outcome), string(headers), payload, record.ReceivedAt,
	)
	return err
}

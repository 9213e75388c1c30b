package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/MikeRez0/paygate/internal/core/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ApplyEvent applies a provider webhook to the matching order. Any delivery
// that can be parsed is acknowledged, whatever happened to it internally.
func (s *Service) ApplyEvent(ctx context.Context, provider domain.Provider, payload []byte,
	headers http.Header) (*domain.Acknowledgement, error) {
	adapter, err := s.adapter(provider)
	if err != nil {
		return nil, err
	}

	record := &domain.WebhookRecord{
		ID:         uuid.NewString(),
		Provider:   provider,
		Payload:    payload,
		Headers:    headers,
		ReceivedAt: time.Now().UTC(),
	}
	log := s.logger.With(zap.String("provider", string(provider)), zap.String("delivery_id", record.ID))

	verification := adapter.Verify(ctx, payload, headers)
	record.SignatureValid = verification.Verified
	if !verification.Verified {
		log.Warn("Webhook verification failed",
			zap.Bool("security_warning", true),
			zap.Bool("strict", s.policy.StrictVerification),
			zap.String("reason", verification.Reason))
	}

	event, err := adapter.ParseEvent(payload, headers)
	if err != nil {
		record.Outcome = domain.WebhookFailed
		s.record(ctx, record)
		log.Warn("Malformed webhook payload", zap.Error(err))
		if errors.Is(err, domain.ErrMalformedPayload) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedPayload, err)
	}

	record.EventID = event.ID
	record.EventType = event.Type
	record.ProviderOrderID = event.ProviderOrderID
	log = log.With(zap.String("event_type", event.Type), zap.String("provider_order_id", event.ProviderOrderID))

	ack := &domain.Acknowledgement{Verified: verification.Verified}
	switch {
	case !verification.Verified && s.policy.StrictVerification:
		ack.Outcome = domain.WebhookRejected
	case !event.Recognized || event.ProviderOrderID == "":
		log.Info("Webhook event ignored")
		ack.Outcome = domain.WebhookUnrecognized
	default:
		ack.Outcome, ack.Order = s.applyStatus(ctx, provider, event, log)
	}

	record.Outcome = ack.Outcome
	s.record(ctx, record)

	return ack, nil
}

func (s *Service) applyStatus(ctx context.Context, provider domain.Provider, event *domain.Event,
	log *zap.Logger) (domain.WebhookOutcome, *domain.Order) {
	outcome, err := s.repo.UpdateStatusIfAdvancing(ctx, provider, event.ProviderOrderID, event.NewStatus)
	if err != nil {
		log.Error("Apply webhook status", zap.Error(err))
		return domain.WebhookFailed, nil
	}

	switch outcome {
	case domain.UpdateNotFound:
		log.Warn("Webhook for unknown order")
		return domain.WebhookUnknownOrder, nil
	case domain.UpdateUnchanged:
		log.Debug("Webhook does not advance order", zap.String("status", string(event.NewStatus)))
		return domain.WebhookDuplicate, nil
	}

	log.Info("Order status advanced", zap.String("status", string(event.NewStatus)))
	order, err := s.repo.FindByProviderOrderID(ctx, provider, event.ProviderOrderID)
	if err != nil {
		log.Warn("Read order after status change", zap.Error(err))
		return domain.WebhookApplied, nil
	}
	s.notify(ctx, order, "webhook")
	return domain.WebhookApplied, order
}

func (s *Service) record(ctx context.Context, record *domain.WebhookRecord) {
	if err := s.journal.Record(ctx, record); err != nil {
		s.logger.Warn("Journal webhook delivery", zap.String("delivery_id", record.ID), zap.Error(err))
	}
}

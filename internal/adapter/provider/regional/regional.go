// Package regional talks to a regional payments API whose response shape
// varies between deployments; field lookup stays inside this package.
package regional

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/MikeRez0/paygate/internal/adapter/config"
	"github.com/MikeRez0/paygate/internal/adapter/provider"
	"github.com/MikeRez0/paygate/internal/core/domain"
	"github.com/govalues/decimal"
	"go.uber.org/zap"
)

const SignatureHeader = "X-Signature"

var statuses = provider.StatusTable{
	"created":    domain.OrderStatusCreated,
	"pending":    domain.OrderStatusCreated,
	"processing": domain.OrderStatusCreated,
	"approved":   domain.OrderStatusApproved,
	"authorized": domain.OrderStatusApproved,
	"completed":  domain.OrderStatusCompleted,
	"paid":       domain.OrderStatusCompleted,
	"success":    domain.OrderStatusCompleted,
	"succeeded":  domain.OrderStatusCompleted,
	"failed":     domain.OrderStatusFailed,
	"cancelled":  domain.OrderStatusFailed,
	"canceled":   domain.OrderStatusFailed,
	"rejected":   domain.OrderStatusFailed,
	"expired":    domain.OrderStatusFailed,
	"error":      domain.OrderStatusFailed,
}

var (
	idFields       = []string{"id", "payment_id", "paymentId"}
	statusFields   = []string{"status", "payment_status", "paymentStatus"}
	approvalFields = []string{"approval_url", "approve_url", "redirect_url", "paymentUrl"}
	eventIDFields  = []string{"event_id", "eventId", "webhook_id"}
	eventTypes     = []string{"event", "type", "event_type"}
)

type Adapter struct {
	baseURL       string
	apiKey        string
	webhookSecret string
	client        *provider.Client
	logger        *zap.Logger
}

func New(conf *config.Regional, logger *zap.Logger) *Adapter {
	log := logger.Named("regional")
	return &Adapter{
		baseURL:       strings.TrimRight(conf.BaseURL, "/"),
		apiKey:        conf.APIKey,
		webhookSecret: conf.WebhookSecret,
		client:        provider.NewClient(domain.ProviderRegional, conf.Timeout, log),
		logger:        log,
	}
}

type createPaymentRequest struct {
	Amount   string            `json:"amount"`
	Currency string            `json:"currency"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func (a *Adapter) Provider() domain.Provider {
	return domain.ProviderRegional
}

func (a *Adapter) Create(ctx context.Context, params domain.CreateParams) (*domain.ProviderOrder, error) {
	value, err := decimal.New(params.Amount, 2)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidAmount, err)
	}
	body, err := json.Marshal(createPaymentRequest{
		Amount:   value.String(),
		Currency: params.Currency,
		Metadata: params.Metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("regional create body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/payments", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("regional create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	a.authorize(req)
	if params.IdempotencyKey != "" {
		req.Header.Set("Idempotency-Key", params.IdempotencyKey)
	}

	order, raw, err := a.do(req, "create")
	if err != nil {
		return nil, err
	}
	if order.ID == "" {
		return nil, domain.NewProviderError(domain.ProviderRegional, "create", http.StatusOK,
			string(raw), fmt.Errorf("response carries no payment id"))
	}
	return order, nil
}

func (a *Adapter) Fetch(ctx context.Context, providerOrderID string) (*domain.ProviderOrder, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		a.baseURL+"/payments/"+url.PathEscape(providerOrderID), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("regional fetch request: %w", err)
	}
	a.authorize(req)

	order, _, err := a.do(req, "fetch")
	if err != nil {
		return nil, err
	}
	if order.ID == "" {
		order.ID = providerOrderID
	}
	return order, nil
}

// ParseEvent accepts flat events and events wrapping the payment in "data".
func (a *Adapter) ParseEvent(payload []byte, _ http.Header) (*domain.Event, error) {
	doc, err := decodeDoc(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedPayload, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: event is not an object", domain.ErrMalformedPayload)
	}

	result := &domain.Event{
		ID:   firstString(doc, eventIDFields),
		Type: firstString(doc, eventTypes),
	}

	id := lookup(doc, idFields)
	status := lookup(doc, statusFields)
	if id == "" || status == "" {
		return result, nil
	}
	result.ProviderOrderID = id
	result.NewStatus = statuses.Map(status, a.logger)
	result.Recognized = true
	return result, nil
}

// Verify checks the optional hex HMAC-SHA256 of the body in X-Signature.
func (a *Adapter) Verify(_ context.Context, payload []byte, headers http.Header) domain.Verification {
	if a.webhookSecret == "" {
		return domain.Verification{Reason: "webhook secret is not configured"}
	}
	sig := strings.TrimPrefix(headers.Get(SignatureHeader), "sha256=")
	if sig == "" {
		return domain.Verification{Reason: "signature header is missing"}
	}
	if !provider.EqualHex(sig, provider.HMACSHA256Hex(a.webhookSecret, payload)) {
		return domain.Verification{Reason: "signature mismatch"}
	}
	return domain.Verification{Verified: true}
}

func (a *Adapter) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+a.apiKey)
}

func (a *Adapter) do(req *http.Request, op string) (*domain.ProviderOrder, json.RawMessage, error) {
	var raw json.RawMessage
	if err := a.client.Do(req, op, &raw); err != nil {
		return nil, nil, err
	}
	doc, err := decodeDoc(raw)
	if err != nil {
		return nil, raw, domain.NewProviderError(domain.ProviderRegional, op, http.StatusOK,
			string(raw), fmt.Errorf("decode response: %w", err))
	}
	return a.toProviderOrder(doc), raw, nil
}

// decodeDoc keeps numbers as json.Number so large numeric ids survive intact.
func decodeDoc(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after JSON object")
	}
	return doc, nil
}

func (a *Adapter) toProviderOrder(doc map[string]any) *domain.ProviderOrder {
	raw := lookup(doc, statusFields)
	return &domain.ProviderOrder{
		ID:                lookup(doc, idFields),
		Status:            statuses.Map(raw, a.logger),
		RawStatus:         raw,
		ApprovalReference: lookup(doc, approvalFields),
	}
}

// lookup looks for the first non-empty field at the top level, then under "data".
func lookup(doc map[string]any, fields []string) string {
	if v := firstString(doc, fields); v != "" {
		return v
	}
	if data, ok := doc["data"].(map[string]any); ok {
		return firstString(data, fields)
	}
	return ""
}

func firstString(doc map[string]any, fields []string) string {
	for _, f := range fields {
		switch v := doc[f].(type) {
		case string:
			if v != "" {
				return v
			}
		case json.Number:
			return v.String()
		}
	}
	return ""
}

// Package wallet talks to a Checkout Orders v2 style wallet processor.
package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MikeRez0/paygate/internal/adapter/config"
	"github.com/MikeRez0/paygate/internal/adapter/provider"
	"github.com/MikeRez0/paygate/internal/core/domain"
	"github.com/govalues/decimal"
	"go.uber.org/zap"
)

const (
	sandboxURL = "https://api-m.sandbox.paypal.com"
	liveURL    = "https://api-m.paypal.com"

	maxCustomID = 127
)

var statuses = provider.StatusTable{
	"created":               domain.OrderStatusCreated,
	"saved":                 domain.OrderStatusCreated,
	"payer_action_required": domain.OrderStatusCreated,
	"approved":              domain.OrderStatusApproved,
	"completed":             domain.OrderStatusCompleted,
	"voided":                domain.OrderStatusFailed,
}

type eventRule struct {
	status domain.OrderStatus
	// capture resources point to their order through related ids
	capture bool
}

var eventRules = map[string]eventRule{
	"CHECKOUT.ORDER.APPROVED":   {status: domain.OrderStatusApproved},
	"CHECKOUT.ORDER.COMPLETED":  {status: domain.OrderStatusCompleted},
	"CHECKOUT.ORDER.VOIDED":     {status: domain.OrderStatusFailed},
	"PAYMENT.CAPTURE.COMPLETED": {status: domain.OrderStatusCompleted, capture: true},
	"PAYMENT.CAPTURE.DENIED":    {status: domain.OrderStatusFailed, capture: true},
	"PAYMENT.CAPTURE.DECLINED":  {status: domain.OrderStatusFailed, capture: true},
}

type Adapter struct {
	baseURL   string
	webhookID string
	returnURL string
	cancelURL string
	client    *provider.Client
	tokens    *tokenSource
	logger    *zap.Logger
}

// New builds the adapter; cache may be nil, then tokens live in process only.
func New(conf *config.Wallet, cache TokenCache, logger *zap.Logger) *Adapter {
	log := logger.Named("wallet")
	base := strings.TrimRight(conf.BaseURL, "/")
	if base == "" {
		base = sandboxURL
		if conf.Env == "live" {
			base = liveURL
		}
	}
	client := provider.NewClient(domain.ProviderWallet, conf.Timeout, log)

	return &Adapter{
		baseURL:   base,
		webhookID: conf.WebhookID,
		returnURL: conf.ReturnURL,
		cancelURL: conf.CancelURL,
		client:    client,
		tokens: &tokenSource{
			baseURL:  base,
			clientID: conf.ClientID,
			secret:   conf.Secret,
			client:   client,
			cache:    cache,
			logger:   log,
			now:      time.Now,
		},
		logger: log,
	}
}

type amount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type purchaseUnit struct {
	Amount   amount `json:"amount"`
	CustomID string `json:"custom_id,omitempty"`
}

type applicationContext struct {
	ReturnURL string `json:"return_url,omitempty"`
	CancelURL string `json:"cancel_url,omitempty"`
}

type createOrderRequest struct {
	Intent             string             `json:"intent"`
	PurchaseUnits      []purchaseUnit     `json:"purchase_units"`
	ApplicationContext applicationContext `json:"application_context"`
}

type link struct {
	Href string `json:"href"`
	Rel  string `json:"rel"`
}

type checkoutOrder struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Links  []link `json:"links"`
}

func (a *Adapter) Provider() domain.Provider {
	return domain.ProviderWallet
}

func (a *Adapter) Create(ctx context.Context, params domain.CreateParams) (*domain.ProviderOrder, error) {
	value, err := decimal.New(params.Amount, 2)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidAmount, err)
	}

	unit := purchaseUnit{
		Amount: amount{CurrencyCode: params.Currency, Value: value.String()},
	}
	if len(params.Metadata) > 0 {
		meta, err := json.Marshal(params.Metadata)
		if err == nil && len(meta) <= maxCustomID {
			unit.CustomID = string(meta)
		} else {
			a.logger.Debug("Metadata does not fit custom_id, not forwarded", zap.Int("size", len(meta)))
		}
	}

	body, err := json.Marshal(createOrderRequest{
		Intent:        "CAPTURE",
		PurchaseUnits: []purchaseUnit{unit},
		ApplicationContext: applicationContext{
			ReturnURL: a.returnURL,
			CancelURL: a.cancelURL,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("wallet create body: %w", err)
	}

	req, err := a.newRequest(ctx, http.MethodPost, "/v2/checkout/orders", body)
	if err != nil {
		return nil, err
	}
	if params.IdempotencyKey != "" {
		req.Header.Set("PayPal-Request-Id", params.IdempotencyKey)
	}

	var order checkoutOrder
	if err := a.client.Do(req, "create", &order); err != nil {
		return nil, err
	}
	if order.ID == "" {
		return nil, domain.NewProviderError(domain.ProviderWallet, "create", http.StatusOK,
			"order without id", nil)
	}
	return a.toProviderOrder(&order), nil
}

func (a *Adapter) Fetch(ctx context.Context, providerOrderID string) (*domain.ProviderOrder, error) {
	req, err := a.newRequest(ctx, http.MethodGet, "/v2/checkout/orders/"+url.PathEscape(providerOrderID), nil)
	if err != nil {
		return nil, err
	}

	var order checkoutOrder
	if err := a.client.Do(req, "fetch", &order); err != nil {
		return nil, err
	}
	return a.toProviderOrder(&order), nil
}

type event struct {
	ID        string `json:"id"`
	EventType string `json:"event_type"`
	Resource  struct {
		ID                string `json:"id"`
		Status            string `json:"status"`
		SupplementaryData struct {
			RelatedIDs struct {
				OrderID string `json:"order_id"`
			} `json:"related_ids"`
		} `json:"supplementary_data"`
	} `json:"resource"`
}

func (a *Adapter) ParseEvent(payload []byte, _ http.Header) (*domain.Event, error) {
	var e event
	if err := json.Unmarshal(payload, &e); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedPayload, err)
	}
	if e.EventType == "" {
		return nil, fmt.Errorf("%w: event_type is missing", domain.ErrMalformedPayload)
	}

	result := &domain.Event{ID: e.ID, Type: e.EventType}
	rule, ok := eventRules[e.EventType]
	if !ok {
		return result, nil
	}

	orderID := e.Resource.ID
	if rule.capture && e.Resource.SupplementaryData.RelatedIDs.OrderID != "" {
		orderID = e.Resource.SupplementaryData.RelatedIDs.OrderID
	}
	if orderID == "" {
		return result, nil
	}
	result.ProviderOrderID = orderID
	result.NewStatus = rule.status
	result.Recognized = true
	return result, nil
}

type verifyRequest struct {
	AuthAlgo         string          `json:"auth_algo"`
	CertURL          string          `json:"cert_url"`
	TransmissionID   string          `json:"transmission_id"`
	TransmissionSig  string          `json:"transmission_sig"`
	TransmissionTime string          `json:"transmission_time"`
	WebhookID        string          `json:"webhook_id"`
	WebhookEvent     json.RawMessage `json:"webhook_event"`
}

// Verify asks the provider to check the transmission signature headers.
func (a *Adapter) Verify(ctx context.Context, payload []byte, headers http.Header) domain.Verification {
	if a.webhookID == "" {
		return domain.Verification{Reason: "webhook id is not configured"}
	}
	if headers.Get("Paypal-Transmission-Sig") == "" {
		return domain.Verification{Reason: "transmission signature is missing"}
	}
	if !json.Valid(payload) {
		return domain.Verification{Reason: "payload is not json"}
	}

	body, err := json.Marshal(verifyRequest{
		AuthAlgo:         headers.Get("Paypal-Auth-Algo"),
		CertURL:          headers.Get("Paypal-Cert-Url"),
		TransmissionID:   headers.Get("Paypal-Transmission-Id"),
		TransmissionSig:  headers.Get("Paypal-Transmission-Sig"),
		TransmissionTime: headers.Get("Paypal-Transmission-Time"),
		WebhookID:        a.webhookID,
		WebhookEvent:     payload,
	})
	if err != nil {
		return domain.Verification{Reason: err.Error()}
	}

	req, err := a.newRequest(ctx, http.MethodPost, "/v1/notifications/verify-webhook-signature", body)
	if err != nil {
		return domain.Verification{Reason: err.Error()}
	}

	var resp struct {
		VerificationStatus string `json:"verification_status"`
	}
	if err := a.client.Do(req, "verify", &resp); err != nil {
		return domain.Verification{Reason: err.Error()}
	}
	if resp.VerificationStatus != "SUCCESS" {
		return domain.Verification{Reason: "verification status " + resp.VerificationStatus}
	}
	return domain.Verification{Verified: true}
}

func (a *Adapter) newRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	token, err := a.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	var req *http.Request
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, a.baseURL+path, bytes.NewReader(body))
	} else {
		req, err = http.NewRequestWithContext(ctx, method, a.baseURL+path, http.NoBody)
	}
	if err != nil {
		return nil, fmt.Errorf("wallet request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (a *Adapter) toProviderOrder(order *checkoutOrder) *domain.ProviderOrder {
	po := &domain.ProviderOrder{
		ID:        order.ID,
		Status:    statuses.Map(order.Status, a.logger),
		RawStatus: order.Status,
	}
	for _, l := range order.Links {
		if l.Rel == "approve" || l.Rel == "payer-action" {
			po.ApprovalReference = l.Href
			break
		}
	}
	return po
}

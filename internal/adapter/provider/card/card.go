// Package card talks to a PaymentIntents style card processor.
package card

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/MikeRez0/paygate/internal/adapter/config"
	"github.com/MikeRez0/paygate/internal/adapter/provider"
	"github.com/MikeRez0/paygate/internal/core/domain"
	"go.uber.org/zap"
)

const signatureTolerance = 5 * time.Minute

var statuses = provider.StatusTable{
	"requires_payment_method": domain.OrderStatusCreated,
	"requires_confirmation":   domain.OrderStatusCreated,
	"requires_action":         domain.OrderStatusCreated,
	"processing":              domain.OrderStatusCreated,
	"requires_capture":        domain.OrderStatusApproved,
	"succeeded":               domain.OrderStatusCompleted,
	"canceled":                domain.OrderStatusFailed,
}

type Adapter struct {
	baseURL       string
	secretKey     string
	webhookSecret string
	client        *provider.Client
	logger        *zap.Logger
	now           func() time.Time
}

func New(conf *config.Card, logger *zap.Logger) *Adapter {
	log := logger.Named("card")
	return &Adapter{
		baseURL:       strings.TrimRight(conf.BaseURL, "/"),
		secretKey:     conf.SecretKey,
		webhookSecret: conf.WebhookSecret,
		client:        provider.NewClient(domain.ProviderCard, conf.Timeout, log),
		logger:        log,
		now:           time.Now,
	}
}

type paymentIntent struct {
	ID           string `json:"id"`
	Object       string `json:"object"`
	Status       string `json:"status"`
	ClientSecret string `json:"client_secret"`
}

func (a *Adapter) Provider() domain.Provider {
	return domain.ProviderCard
}

func (a *Adapter) Create(ctx context.Context, params domain.CreateParams) (*domain.ProviderOrder, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(params.Amount, 10))
	form.Set("currency", strings.ToLower(params.Currency))
	form.Set("automatic_payment_methods[enabled]", "true")
	for k, v := range params.Metadata {
		form.Set("metadata["+k+"]", v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.baseURL+"/v1/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("card create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	a.authorize(req)
	if params.IdempotencyKey != "" {
		req.Header.Set("Idempotency-Key", params.IdempotencyKey)
	}

	var intent paymentIntent
	if err := a.client.Do(req, "create", &intent); err != nil {
		return nil, err
	}
	if intent.ID == "" {
		return nil, domain.NewProviderError(domain.ProviderCard, "create", http.StatusOK,
			"payment intent without id", nil)
	}
	return a.toProviderOrder(&intent), nil
}

func (a *Adapter) Fetch(ctx context.Context, providerOrderID string) (*domain.ProviderOrder, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		a.baseURL+"/v1/payment_intents/"+url.PathEscape(providerOrderID), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("card fetch request: %w", err)
	}
	a.authorize(req)

	var intent paymentIntent
	if err := a.client.Do(req, "fetch", &intent); err != nil {
		return nil, err
	}
	return a.toProviderOrder(&intent), nil
}

type event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object paymentIntent `json:"object"`
	} `json:"data"`
}

// ParseEvent maps any payment_intent event by the intent status it carries.
func (a *Adapter) ParseEvent(payload []byte, _ http.Header) (*domain.Event, error) {
	var e event
	if err := json.Unmarshal(payload, &e); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedPayload, err)
	}
	if e.Type == "" {
		return nil, fmt.Errorf("%w: event type is missing", domain.ErrMalformedPayload)
	}

	result := &domain.Event{ID: e.ID, Type: e.Type}
	intent := e.Data.Object
	if intent.Object != "payment_intent" || intent.ID == "" || intent.Status == "" {
		return result, nil
	}
	result.ProviderOrderID = intent.ID
	result.NewStatus = statuses.Map(intent.Status, a.logger)
	result.Recognized = true
	return result, nil
}

// Verify checks the Stripe-Signature header: t=<unix>,v1=<hex hmac of "t.payload">.
func (a *Adapter) Verify(_ context.Context, payload []byte, headers http.Header) domain.Verification {
	if a.webhookSecret == "" {
		return domain.Verification{Reason: "webhook secret is not configured"}
	}
	header := headers.Get("Stripe-Signature")
	if header == "" {
		return domain.Verification{Reason: "signature header is missing"}
	}

	var timestamp string
	var signatures []string
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			timestamp = v
		case "v1":
			signatures = append(signatures, v)
		}
	}
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil || len(signatures) == 0 {
		return domain.Verification{Reason: "signature header is malformed"}
	}
	if age := a.now().Sub(time.Unix(ts, 0)); age > signatureTolerance || age < -signatureTolerance {
		return domain.Verification{Reason: "signature timestamp outside tolerance"}
	}

	expected := provider.HMACSHA256Hex(a.webhookSecret, signedPayload(timestamp, payload))
	for _, sig := range signatures {
		if provider.EqualHex(sig, expected) {
			return domain.Verification{Verified: true}
		}
	}
	return domain.Verification{Reason: "signature mismatch"}
}

func (a *Adapter) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+a.secretKey)
}

func (a *Adapter) toProviderOrder(intent *paymentIntent) *domain.ProviderOrder {
	return &domain.ProviderOrder{
		ID:                intent.ID,
		Status:            statuses.Map(intent.Status, a.logger),
		RawStatus:         intent.Status,
		ApprovalReference: intent.ClientSecret,
	}
}

func signedPayload(timestamp string, payload []byte) []byte {
	var b bytes.Buffer
	b.WriteString(timestamp)
	b.WriteByte('.')
	b.Write(payload)
	return b.Bytes()
}

// SignatureHeader builds a Stripe-Signature value for payload, used by
// local tooling that replays events.
func SignatureHeader(secret string, at time.Time, payload []byte) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	return "t=" + ts + ",v1=" + provider.HMACSHA256Hex(secret, signedPayload(ts, payload))
}


package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MikeRez0/paygate/internal/adapter/config"
	"github.com/MikeRez0/paygate/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeWallet struct {
	tokenCalls atomic.Int32
	verify     string
	orders     http.HandlerFunc
}

func (f *fakeWallet) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/v1/oauth2/token":
		f.tokenCalls.Add(1)
		id, secret, ok := r.BasicAuth()
		if !ok || id != "client" || secret != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"A21","token_type":"Bearer","expires_in":32400}`))
	case "/v1/notifications/verify-webhook-signature":
		var req verifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.WebhookID != "WH-1" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"verification_status":"` + f.verify + `"}`))
	default:
		if r.Header.Get("Authorization") != "Bearer A21" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		f.orders(w, r)
	}
}

func newTestAdapter(t *testing.T, f *fakeWallet, cache TokenCache) *Adapter {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return New(&config.Wallet{
		BaseURL:   srv.URL,
		ClientID:  "client",
		Secret:    "secret",
		WebhookID: "WH-1",
		ReturnURL: "https://shop.test/ok",
		CancelURL: "https://shop.test/cancel",
		Timeout:   time.Second,
	}, cache, zap.NewNop())
}

func TestAdapter_Create(t *testing.T) {
	f := &fakeWallet{orders: func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/checkout/orders", r.URL.Path)
		assert.Equal(t, "key-1", r.Header.Get("PayPal-Request-Id"))

		var req createOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "CAPTURE", req.Intent)
		require.Len(t, req.PurchaseUnits, 1)
		assert.Equal(t, "50.00", req.PurchaseUnits[0].Amount.Value)
		assert.Equal(t, "EUR", req.PurchaseUnits[0].Amount.CurrencyCode)
		assert.Equal(t, `{"cart":"42"}`, req.PurchaseUnits[0].CustomID)
		assert.Equal(t, "https://shop.test/ok", req.ApplicationContext.ReturnURL)

		_, _ = w.Write([]byte(`{"id":"5O190127TN364715T","status":"CREATED","links":[` +
			`{"href":"https://api.test/v2/checkout/orders/5O190127TN364715T","rel":"self"},` +
			`{"href":"https://www.paypal.test/checkoutnow?token=5O190127TN364715T","rel":"approve"}]}`))
	}}
	a := newTestAdapter(t, f, nil)

	order, err := a.Create(context.Background(), domain.CreateParams{
		Amount:         5000,
		Currency:       "EUR",
		Metadata:       map[string]string{"cart": "42"},
		IdempotencyKey: "key-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "5O190127TN364715T", order.ID)
	assert.Equal(t, domain.OrderStatusCreated, order.Status)
	assert.Equal(t, "https://www.paypal.test/checkoutnow?token=5O190127TN364715T", order.ApprovalReference)

	_, err = a.Create(context.Background(), domain.CreateParams{
		Amount:         5000,
		Currency:       "EUR",
		Metadata:       map[string]string{"cart": "42"},
		IdempotencyKey: "key-1",
	})
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.tokenCalls.Load(), "token is reused while valid")
}

func TestAdapter_CreateProviderError(t *testing.T) {
	f := &fakeWallet{orders: func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"name":"UNPROCESSABLE_ENTITY"}`))
	}}
	a := newTestAdapter(t, f, nil)

	_, err := a.Create(context.Background(), domain.CreateParams{Amount: 100, Currency: "USD"})
	var pErr *domain.ProviderError
	require.True(t, errors.As(err, &pErr))
	assert.Equal(t, http.StatusUnprocessableEntity, pErr.StatusCode)
	assert.Contains(t, pErr.Diagnostic, "UNPROCESSABLE_ENTITY")
}

func TestAdapter_Fetch(t *testing.T) {
	f := &fakeWallet{orders: func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/checkout/orders/ORD-1", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"ORD-1","status":"APPROVED","links":[` +
			`{"href":"https://www.paypal.test/pay","rel":"payer-action"}]}`))
	}}
	a := newTestAdapter(t, f, nil)

	order, err := a.Fetch(context.Background(), "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusApproved, order.Status)
	assert.Equal(t, "APPROVED", order.RawStatus)
	assert.Equal(t, "https://www.paypal.test/pay", order.ApprovalReference)
}

func TestAdapter_ParseEvent(t *testing.T) {
	a := New(&config.Wallet{}, nil, zap.NewNop())

	tests := []struct {
		name       string
		payload    string
		wantErr    bool
		recognized bool
		status     domain.OrderStatus
		orderID    string
	}{
		{
			name:       "order approved",
			payload:    `{"id":"WH-E1","event_type":"CHECKOUT.ORDER.APPROVED","resource":{"id":"ORD-1","status":"APPROVED"}}`,
			recognized: true,
			status:     domain.OrderStatusApproved,
			orderID:    "ORD-1",
		},
		{
			name: "capture completed",
			payload: `{"id":"WH-E2","event_type":"PAYMENT.CAPTURE.COMPLETED","resource":{"id":"CAP-9",` +
				`"status":"COMPLETED","supplementary_data":{"related_ids":{"order_id":"ORD-1"}}}}`,
			recognized: true,
			status:     domain.OrderStatusCompleted,
			orderID:    "ORD-1",
		},
		{
			name:       "capture denied without related ids",
			payload:    `{"id":"WH-E3","event_type":"PAYMENT.CAPTURE.DENIED","resource":{"id":"CAP-9"}}`,
			recognized: true,
			status:     domain.OrderStatusFailed,
			orderID:    "CAP-9",
		},
		{
			name:    "unrelated event",
			payload: `{"id":"WH-E4","event_type":"CUSTOMER.DISPUTE.CREATED","resource":{"id":"PP-D-1"}}`,
		},
		{name: "not json", payload: `<xml/>`, wantErr: true},
		{name: "no event type", payload: `{"id":"WH-E5"}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := a.ParseEvent([]byte(tt.payload), nil)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrMalformedPayload)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.recognized, e.Recognized)
			assert.Equal(t, tt.status, e.NewStatus)
			assert.Equal(t, tt.orderID, e.ProviderOrderID)
		})
	}
}

func TestAdapter_Verify(t *testing.T) {
	payload := []byte(`{"id":"WH-E1","event_type":"CHECKOUT.ORDER.APPROVED"}`)
	headers := http.Header{}
	headers.Set("PAYPAL-TRANSMISSION-ID", "t-1")
	headers.Set("PAYPAL-TRANSMISSION-SIG", "sig")
	headers.Set("PAYPAL-TRANSMISSION-TIME", "2024-01-01T00:00:00Z")
	headers.Set("PAYPAL-AUTH-ALGO", "SHA256withRSA")
	headers.Set("PAYPAL-CERT-URL", "https://api.test/cert.pem")

	t.Run("success", func(t *testing.T) {
		a := newTestAdapter(t, &fakeWallet{verify: "SUCCESS"}, nil)
		v := a.Verify(context.Background(), payload, headers)
		assert.True(t, v.Verified)
	})

	t.Run("failure", func(t *testing.T) {
		a := newTestAdapter(t, &fakeWallet{verify: "FAILURE"}, nil)
		v := a.Verify(context.Background(), payload, headers)
		assert.False(t, v.Verified)
		assert.Contains(t, v.Reason, "FAILURE")
	})

	t.Run("missing headers", func(t *testing.T) {
		a := newTestAdapter(t, &fakeWallet{verify: "SUCCESS"}, nil)
		v := a.Verify(context.Background(), payload, http.Header{})
		assert.False(t, v.Verified)
	})

	t.Run("not configured", func(t *testing.T) {
		a := New(&config.Wallet{}, nil, zap.NewNop())
		v := a.Verify(context.Background(), payload, headers)
		assert.False(t, v.Verified)
	})
}

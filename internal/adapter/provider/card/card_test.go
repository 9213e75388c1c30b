package card

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MikeRez0/paygate/internal/adapter/config"
	"github.com/MikeRez0/paygate/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestAdapter(t *testing.T, h http.HandlerFunc) *Adapter {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(&config.Card{
		BaseURL:       srv.URL,
		SecretKey:     "sk_test",
		WebhookSecret: "whsec_test",
		Timeout:       time.Second,
	}, zap.NewNop())
}

func TestAdapter_Create(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		assert.Equal(t, "key-1", r.Header.Get("Idempotency-Key"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "5000", r.PostForm.Get("amount"))
		assert.Equal(t, "usd", r.PostForm.Get("currency"))
		assert.Equal(t, "42", r.PostForm.Get("metadata[cart]"))

		_, _ = w.Write([]byte(`{"id":"pi_1","object":"payment_intent",` +
			`"status":"requires_payment_method","client_secret":"pi_1_secret"}`))
	})

	order, err := a.Create(context.Background(), domain.CreateParams{
		Amount:         5000,
		Currency:       "USD",
		Metadata:       map[string]string{"cart": "42"},
		IdempotencyKey: "key-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "pi_1", order.ID)
	assert.Equal(t, domain.OrderStatusCreated, order.Status)
	assert.Equal(t, "requires_payment_method", order.RawStatus)
	assert.Equal(t, "pi_1_secret", order.ApprovalReference)
}

func TestAdapter_CreateRejected(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid currency"}}`))
	})

	_, err := a.Create(context.Background(), domain.CreateParams{Amount: 100, Currency: "USD"})
	var pErr *domain.ProviderError
	require.True(t, errors.As(err, &pErr))
	assert.Equal(t, domain.ProviderCard, pErr.Provider)
	assert.Equal(t, http.StatusBadRequest, pErr.StatusCode)
	assert.Contains(t, pErr.Diagnostic, "Invalid currency")
}

func TestAdapter_Fetch(t *testing.T) {
	tests := []struct {
		raw  string
		want domain.OrderStatus
	}{
		{"requires_action", domain.OrderStatusCreated},
		{"requires_capture", domain.OrderStatusApproved},
		{"succeeded", domain.OrderStatusCompleted},
		{"canceled", domain.OrderStatusFailed},
		{"something_new", domain.OrderStatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v1/payment_intents/pi_7", r.URL.Path)
				_, _ = w.Write([]byte(`{"id":"pi_7","status":"` + tt.raw + `"}`))
			})
			order, err := a.Fetch(context.Background(), "pi_7")
			require.NoError(t, err)
			assert.Equal(t, tt.want, order.Status)
		})
	}
}

func TestAdapter_ParseEvent(t *testing.T) {
	a := New(&config.Card{}, zap.NewNop())

	tests := []struct {
		name       string
		payload    string
		wantErr    bool
		recognized bool
		status     domain.OrderStatus
		orderID    string
	}{
		{
			name: "succeeded",
			payload: `{"id":"evt_1","type":"payment_intent.succeeded",` +
				`"data":{"object":{"id":"pi_1","object":"payment_intent","status":"succeeded"}}}`,
			recognized: true,
			status:     domain.OrderStatusCompleted,
			orderID:    "pi_1",
		},
		{
			name: "canceled",
			payload: `{"id":"evt_2","type":"payment_intent.canceled",` +
				`"data":{"object":{"id":"pi_1","object":"payment_intent","status":"canceled"}}}`,
			recognized: true,
			status:     domain.OrderStatusFailed,
			orderID:    "pi_1",
		},
		{
			name: "charge event",
			payload: `{"id":"evt_3","type":"charge.succeeded",` +
				`"data":{"object":{"id":"ch_1","object":"charge","status":"succeeded"}}}`,
		},
		{name: "broken json", payload: `{"id":`, wantErr: true},
		{name: "no type", payload: `{"id":"evt_4"}`, wantErr: true},
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
	now := time.Unix(1_700_000_000, 0)
	a := New(&config.Card{WebhookSecret: "whsec_test"}, zap.NewNop())
	a.now = func() time.Time { return now }
	payload := []byte(`{"id":"evt_1"}`)

	header := func(v string) http.Header {
		h := http.Header{}
		h.Set("Stripe-Signature", v)
		return h
	}

	tests := []struct {
		name    string
		headers http.Header
		want    bool
	}{
		{"valid", header(SignatureHeader("whsec_test", now, payload)), true},
		{"wrong secret", header(SignatureHeader("other", now, payload)), false},
		{"too old", header(SignatureHeader("whsec_test", now.Add(-time.Hour), payload)), false},
		{"malformed", header("garbage"), false},
		{"missing", http.Header{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := a.Verify(context.Background(), payload, tt.headers)
			assert.Equal(t, tt.want, v.Verified)
			if !tt.want {
				assert.NotEmpty(t, v.Reason)
			}
		})
	}

	unconfigured := New(&config.Card{}, zap.NewNop())
	v := unconfigured.Verify(context.Background(), payload, header(SignatureHeader("x", time.Now(), payload)))
	assert.False(t, v.Verified)
}

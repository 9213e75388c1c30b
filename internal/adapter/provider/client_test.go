package provider_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MikeRez0/paygate/internal/adapter/provider"
	"github.com/MikeRez0/paygate/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestClient_Do(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			_, _ = w.Write([]byte(`{"id":"x-1"}`))
		case "/bad-json":
			_, _ = w.Write([]byte(`not json`))
		default:
			w.WriteHeader(http.StatusPaymentRequired)
			_, _ = w.Write([]byte(`{"error":"card_declined"}`))
		}
	}))
	defer srv.Close()

	c := provider.NewClient(domain.ProviderCard, time.Second, zap.NewNop())

	var out struct {
		ID string `json:"id"`
	}
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/ok", http.NoBody)
	require.NoError(t, c.Do(req, "fetch", &out))
	assert.Equal(t, "x-1", out.ID)

	req, _ = http.NewRequest(http.MethodGet, srv.URL+"/declined", http.NoBody)
	err := c.Do(req, "create", &out)
	var pErr *domain.ProviderError
	require.True(t, errors.As(err, &pErr))
	assert.Equal(t, http.StatusPaymentRequired, pErr.StatusCode)
	assert.Equal(t, `{"error":"card_declined"}`, pErr.Diagnostic)
	assert.ErrorIs(t, err, domain.ErrProvider)

	req, _ = http.NewRequest(http.MethodGet, srv.URL+"/bad-json", http.NoBody)
	err = c.Do(req, "fetch", &out)
	assert.ErrorIs(t, err, domain.ErrProvider)
}

func TestClient_DoTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := provider.NewClient(domain.ProviderWallet, time.Second, zap.NewNop())
	req, _ := http.NewRequest(http.MethodGet, url, http.NoBody)
	err := c.Do(req, "fetch", nil)
	assert.ErrorIs(t, err, domain.ErrProvider)
}

func TestStatusTable_Map(t *testing.T) {
	table := provider.StatusTable{
		"approved":  domain.OrderStatusApproved,
		"completed": domain.OrderStatusCompleted,
	}
	log := zap.NewNop()

	assert.Equal(t, domain.OrderStatusApproved, table.Map("APPROVED", log))
	assert.Equal(t, domain.OrderStatusCompleted, table.Map(" completed ", log))
	assert.Equal(t, domain.OrderStatusCreated, table.Map("ON_HOLD", log))
}

func TestHMAC(t *testing.T) {
	sig := provider.HMACSHA256Hex("secret", []byte("payload"))
	assert.True(t, provider.EqualHex(sig, provider.HMACSHA256Hex("secret", []byte("payload"))))
	assert.False(t, provider.EqualHex(sig, provider.HMACSHA256Hex("other", []byte("payload"))))
}

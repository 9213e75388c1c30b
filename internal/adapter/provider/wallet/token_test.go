package wallet

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MikeRez0/paygate/internal/adapter/provider"
	"github.com/MikeRez0/paygate/internal/core/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubRedis struct {
	values map[string]string
	ttl    map[string]time.Duration
	getErr error
}

func newStubRedis() *stubRedis {
	return &stubRedis{values: map[string]string{}, ttl: map[string]time.Duration{}}
}

func (s *stubRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if s.getErr != nil {
		return redis.NewStringResult("", s.getErr)
	}
	v, ok := s.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (s *stubRedis) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	s.values[key] = value.(string)
	s.ttl[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func TestRedisTokenCache(t *testing.T) {
	stub := newStubRedis()
	cache := NewRedisTokenCache(stub)
	ctx := context.Background()

	_, err := cache.Get(ctx, "client")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, cache.Set(ctx, "client", "tok", time.Hour))
	assert.Equal(t, time.Hour, stub.ttl["paygate:wallet:token:client"])

	tok, err := cache.Get(ctx, "client")
	require.NoError(t, err)
	assert.Equal(t, "tok", tok)

	stub.getErr = errors.New("connection refused")
	_, err = cache.Get(ctx, "client")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func newTokenSource(t *testing.T, expiresIn string, cache TokenCache) (*tokenSource, *atomic.Int32) {
	t.Helper()
	calls := &atomic.Int32{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"access_token":"fresh","expires_in":` + expiresIn + `}`))
	}))
	t.Cleanup(srv.Close)

	return &tokenSource{
		baseURL:  srv.URL,
		clientID: "client",
		secret:   "secret",
		client:   provider.NewClient(domain.ProviderWallet, time.Second, zap.NewNop()),
		cache:    cache,
		logger:   zap.NewNop(),
		now:      time.Now,
	}, calls
}

func TestTokenSource_UsesSharedCache(t *testing.T) {
	stub := newStubRedis()
	stub.values["paygate:wallet:token:client"] = "shared"
	src, calls := newTokenSource(t, "3600", NewRedisTokenCache(stub))

	tok, err := src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "shared", tok)
	assert.Equal(t, int32(0), calls.Load())
}

func TestTokenSource_FetchesAndStores(t *testing.T) {
	stub := newStubRedis()
	src, calls := newTokenSource(t, "3600", NewRedisTokenCache(stub))

	tok, err := src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh", tok)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "fresh", stub.values["paygate:wallet:token:client"])
	assert.Equal(t, 59*time.Minute, stub.ttl["paygate:wallet:token:client"])

	_, err = src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestTokenSource_CacheFailureFallsBack(t *testing.T) {
	stub := newStubRedis()
	stub.getErr = errors.New("connection refused")
	src, calls := newTokenSource(t, "3600", NewRedisTokenCache(stub))

	tok, err := src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh", tok)
	assert.Equal(t, int32(1), calls.Load())
}

func TestTokenSource_RefreshesExpired(t *testing.T) {
	src, calls := newTokenSource(t, "30", nil)

	_, err := src.Token(context.Background())
	require.NoError(t, err)
	_, err = src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load(), "tokens shorter than the skew are not kept")
}

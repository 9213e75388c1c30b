package wallet

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/MikeRez0/paygate/internal/adapter/provider"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// tokenSkew is taken off the advertised lifetime so a token is never used at its edge.
const tokenSkew = time.Minute

var ErrCacheMiss = errors.New("token cache miss")

// TokenCache shares access tokens between instances.
type TokenCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, token string, ttl time.Duration) error
}

type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

type RedisTokenCache struct {
	client redisClient
	prefix string
}

func NewRedisTokenCache(client redisClient) *RedisTokenCache {
	return &RedisTokenCache{client: client, prefix: "paygate:wallet:token:"}
}

func (c *RedisTokenCache) Get(ctx context.Context, key string) (string, error) {
	token, err := c.client.Get(ctx, c.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	if err != nil {
		return "", fmt.Errorf("redis get token: %w", err)
	}
	return token, nil
}

func (c *RedisTokenCache) Set(ctx context.Context, key, token string, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+key, token, ttl).Err(); err != nil {
		return fmt.Errorf("redis set token: %w", err)
	}
	return nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// tokenSource hands out the OAuth client-credentials token, refreshing it
// when it is about to expire.
type tokenSource struct {
	baseURL  string
	clientID string
	secret   string
	client   *provider.Client
	cache    TokenCache
	logger   *zap.Logger
	now      func() time.Time

	mu      sync.Mutex
	token   string
	expires time.Time
}

func (s *tokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && s.now().Before(s.expires) {
		return s.token, nil
	}

	if s.cache != nil {
		token, err := s.cache.Get(ctx, s.clientID)
		switch {
		case err == nil:
			s.token = token
			// remote TTL is unknown here; keep it locally for one skew interval
			s.expires = s.now().Add(tokenSkew)
			return token, nil
		case !errors.Is(err, ErrCacheMiss):
			s.logger.Warn("Token cache unavailable", zap.Error(err))
		}
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.baseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("wallet token request: %w", err)
	}
	req.SetBasicAuth(s.clientID, s.secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	var resp tokenResponse
	if err := s.client.Do(req, "token", &resp); err != nil {
		return "", err
	}

	ttl := time.Duration(resp.ExpiresIn)*time.Second - tokenSkew
	if ttl < 0 {
		ttl = 0
	}
	s.token = resp.AccessToken
	s.expires = s.now().Add(ttl)

	if s.cache != nil && ttl > 0 {
		if err := s.cache.Set(ctx, s.clientID, resp.AccessToken, ttl); err != nil {
			s.logger.Warn("Token cache write failed", zap.Error(err))
		}
	}
	return s.token, nil
}

// Package provider holds what the payment provider adapters share: the
// outbound HTTP call with provider diagnostics and total status tables.
package provider

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/MikeRez0/paygate/internal/core/domain"
	"go.uber.org/zap"
)

const maxResponseBody = 1 << 20

type Client struct {
	provider domain.Provider
	http     *http.Client
	logger   *zap.Logger
}

func NewClient(provider domain.Provider, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		provider: provider,
		http:     &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

// Do sends req and decodes a 2xx JSON body into out. Any other outcome is
// returned as a *domain.ProviderError carrying the raw response body.
func (c *Client) Do(req *http.Request, op string, out any) error {
	c.logger.Debug("Provider request", zap.String("op", op), zap.String("url", req.URL.String()))

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.NewProviderError(c.provider, op, 0, "", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return domain.NewProviderError(c.provider, op, resp.StatusCode, "", fmt.Errorf("read body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("Provider returned error status",
			zap.String("op", op), zap.Int("status", resp.StatusCode), zap.ByteString("body", body))
		return domain.NewProviderError(c.provider, op, resp.StatusCode, string(body), nil)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return domain.NewProviderError(c.provider, op, resp.StatusCode, string(body),
			fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// StatusTable maps provider statuses onto order statuses.
type StatusTable map[string]domain.OrderStatus

// Map never drops a status: unknown values fall back to created and are logged.
func (t StatusTable) Map(raw string, logger *zap.Logger) domain.OrderStatus {
	if status, ok := t[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return status
	}
	logger.Warn("Unmapped provider status, treating as created", zap.String("raw_status", raw))
	return domain.OrderStatusCreated
}

// HMACSHA256Hex signs payload with secret.
func HMACSHA256Hex(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// EqualHex compares two hex signatures in constant time.
func EqualHex(a, b string) bool {
	return hmac.Equal([]byte(strings.ToLower(a)), []byte(strings.ToLower(b)))
}

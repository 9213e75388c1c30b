package auth_test

import (
	"testing"
	"time"

	"github.com/MikeRez0/paygate/internal/adapter/auth"
	"github.com/MikeRez0/paygate/internal/adapter/config"
	"github.com/MikeRez0/paygate/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasetoToken_RoundTrip(t *testing.T) {
	ts, err := auth.New(&config.Auth{TokenTTL: time.Hour})
	require.NoError(t, err)

	token, err := ts.CreateToken("merchant-1")
	require.NoError(t, err)

	payload, err := ts.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "merchant-1", payload.MerchantID)
}

func TestPasetoToken_SharedKey(t *testing.T) {
	issuer, err := auth.New(&config.Auth{})
	require.NoError(t, err)

	verifier, err := auth.New(&config.Auth{KeyHex: issuer.KeyHex()})
	require.NoError(t, err)

	token, err := issuer.CreateToken("merchant-2")
	require.NoError(t, err)

	payload, err := verifier.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "merchant-2", payload.MerchantID)
}

func TestPasetoToken_Rejects(t *testing.T) {
	ts, err := auth.New(&config.Auth{})
	require.NoError(t, err)
	other, err := auth.New(&config.Auth{})
	require.NoError(t, err)

	token, err := other.CreateToken("merchant-3")
	require.NoError(t, err)

	_, err = ts.VerifyToken(token)
	assert.Equal(t, domain.ErrInvalidToken, err)

	_, err = ts.VerifyToken("v4.local.garbage")
	assert.Equal(t, domain.ErrInvalidToken, err)

	_, err = ts.CreateToken("")
	assert.Equal(t, domain.ErrTokenCreation, err)

	_, err = auth.New(&config.Auth{KeyHex: "zz"})
	assert.Error(t, err)
}

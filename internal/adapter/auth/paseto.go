package auth

import (
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/MikeRez0/paygate/internal/adapter/config"
	"github.com/MikeRez0/paygate/internal/core/domain"
	"github.com/MikeRez0/paygate/internal/core/port"
)

// PasetoToken issues and checks merchant bearer tokens (v4.local).
type PasetoToken struct {
	parser paseto.Parser
	key    paseto.V4SymmetricKey
	ttl    time.Duration
}

func New(conf *config.Auth) (*PasetoToken, error) {
	key := paseto.NewV4SymmetricKey()
	if conf.KeyHex != "" {
		var err error
		key, err = paseto.V4SymmetricKeyFromHex(conf.KeyHex)
		if err != nil {
			return nil, fmt.Errorf("invalid auth key: %w", err)
		}
	}

	ttl := conf.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &PasetoToken{
		parser: paseto.NewParser(),
		key:    key,
		ttl:    ttl,
	}, nil
}

// KeyHex exports the key so tokens can be minted elsewhere.
func (p *PasetoToken) KeyHex() string {
	return p.key.ExportHex()
}

func (p *PasetoToken) CreateToken(merchantID string) (string, error) {
	if merchantID == "" {
		return "", domain.ErrTokenCreation
	}

	now := time.Now()
	token := paseto.NewToken()
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(now.Add(p.ttl))
	token.SetSubject(merchantID)

	return token.V4Encrypt(p.key, nil), nil
}

func (p *PasetoToken) VerifyToken(token string) (*port.TokenPayload, error) {
	parsedToken, err := p.parser.ParseV4Local(p.key, token, nil)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	subject, err := parsedToken.GetSubject()
	if err != nil || subject == "" {
		return nil, domain.ErrInvalidToken
	}
	return &port.TokenPayload{MerchantID: subject}, nil
}

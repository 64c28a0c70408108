package infra

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"view-counter/viewcount/domain"

	"github.com/golang-jwt/jwt/v5"
)

const nonceAudience = "viewcount:track"

// DefaultNonceLifetime acompanha a validade do marcador "já visto" do cliente.
const DefaultNonceLifetime = domain.MarkerTTL

// NonceSigner emite e valida o token anti-forgery que o script da página envia
// no header X-WP-Nonce. Os tokens são JWTs HS256 com a audience de tracking.
type NonceSigner struct {
	key      []byte
	lifetime time.Duration
	clock    domain.Clock
}

type NonceOption func(*NonceSigner)

func WithNonceClock(c domain.Clock) NonceOption {
	return func(s *NonceSigner) { s.clock = c }
}

func NewNonceSigner(secret []byte, lifetime time.Duration, opts ...NonceOption) (*NonceSigner, error) {
	if len(secret) == 0 {
		return nil, errors.New("nonce secret is empty")
	}
	if lifetime <= 0 {
		lifetime = DefaultNonceLifetime
	}
	s := &NonceSigner{key: secret, lifetime: lifetime, clock: domain.RealClock{}}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *NonceSigner) Lifetime() time.Duration { return s.lifetime }

// Issue retorna um token novo e sua expiração.
func (s *NonceSigner) Issue() (string, time.Time, error) {
	now := s.clock.Now()
	exp := now.Add(s.lifetime)
	claims := jwt.RegisteredClaims{
		Audience:  jwt.ClaimStrings{nonceAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now.Add(-1 * time.Second)),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign nonce: %w", err)
	}
	return signed, exp, nil
}

// Verify implementa domain.TokenVerifier.
func (s *NonceSigner) Verify(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("missing nonce")
	}

	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(nonceAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		return err
	}
	if !parsed.Valid {
		return errors.New("invalid nonce")
	}
	return nil
}

var _ domain.TokenVerifier = (*NonceSigner)(nil)

package service

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// WebhookTokenService emite y valida los tokens con los que la plataforma de login invoca el webhook.
type WebhookTokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

type WebhookClaims struct {
	ClientID string `json:"client_id,omitempty"`
	jwt.RegisteredClaims
}

var (
	ErrWebhookTokenInvalid = errors.New("webhook token invalid")
	ErrWebhookTokenExpired = errors.New("webhook token expired")
)

func NewWebhookTokenService(secret, issuer string, ttl time.Duration) *WebhookTokenService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if strings.TrimSpace(issuer) == "" {
		issuer = "account-linker"
	}
	return &WebhookTokenService{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
	}
}

func (s *WebhookTokenService) Issue(subject, clientID string) (string, error) {
	if len(s.secret) == 0 || strings.TrimSpace(subject) == "" {
		return "", ErrWebhookTokenInvalid
	}
	now := time.Now().UTC()
	claims := WebhookClaims{
		ClientID: clientID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *WebhookTokenService) Parse(tokenString string) (WebhookClaims, error) {
	if len(s.secret) == 0 || strings.TrimSpace(tokenString) == "" {
		return WebhookClaims{}, ErrWebhookTokenInvalid
	}
	var claims WebhookClaims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
	)
	_, err := parser.ParseWithClaims(tokenString, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return WebhookClaims{}, ErrWebhookTokenExpired
		}
		return WebhookClaims{}, ErrWebhookTokenInvalid
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return WebhookClaims{}, ErrWebhookTokenInvalid
	}
	return claims, nil
}

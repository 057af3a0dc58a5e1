// Package auth signs the two JWT kinds the storefront issues: browser session
// cookies and the access tokens handed out by the local identity provider.
// Both are HS256 with the session secret and are told apart by audience.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	audienceSession = "storefront-session"
	audienceAccess  = "storefront-access"
)

// AccessClaims is the body of a local access token.
type AccessClaims struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	jwt.RegisteredClaims
}

type Signer struct {
	secret     []byte
	issuer     string
	sessionTTL time.Duration
}

func NewSigner(cfg config.SessionConfig) (*Signer, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, errors.New("session secret is required")
	}
	return &Signer{secret: []byte(cfg.Secret), issuer: cfg.Issuer, sessionTTL: cfg.TTL}, nil
}

// AccessToken signs an access token for the user, valid for ttl from now.
func (s *Signer) AccessToken(now time.Time, ttl time.Duration, userID uuid.UUID, email string) (string, time.Time, error) {
	if ttl <= 0 {
		return "", time.Time{}, errors.New("access token ttl must be positive")
	}
	if userID == uuid.Nil {
		return "", time.Time{}, errors.New("user id is required")
	}
	exp := now.Add(ttl)
	token, err := s.sign(&AccessClaims{
		UserID:           userID,
		Email:            email,
		RegisteredClaims: s.registered(now, audienceAccess, uuid.NewString(), exp),
	})
	if err != nil {
		return "", time.Time{}, err
	}
	return token, exp, nil
}

func (s *Signer) ParseAccess(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := s.parse(token, audienceAccess, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// SessionToken signs a cookie value whose jti is the session id. It expires
// with the cookie when a session TTL is configured.
func (s *Signer) SessionToken(now time.Time, sessionID string) (string, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return "", errors.New("session id is required")
	}
	var exp time.Time
	if s.sessionTTL > 0 {
		exp = now.Add(s.sessionTTL)
	}
	claims := s.registered(now, audienceSession, sessionID, exp)
	return s.sign(&claims)
}

// ParseSession returns the session id carried by a cookie value.
func (s *Signer) ParseSession(token string) (string, error) {
	var claims jwt.RegisteredClaims
	if err := s.parse(token, audienceSession, &claims); err != nil {
		return "", err
	}
	if strings.TrimSpace(claims.ID) == "" {
		return "", errors.New("session token has no id")
	}
	return claims.ID, nil
}

// RandomToken returns 32 random bytes, base64url encoded.
func RandomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func (s *Signer) registered(now time.Time, audience, id string, exp time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Issuer:    s.issuer,
		Audience:  jwt.ClaimStrings{audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: numericDate(exp),
		ID:        id,
	}
}

func (s *Signer) sign(claims jwt.Claims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

func (s *Signer) parse(token, audience string, claims jwt.Claims) error {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	return err
}

func numericDate(t time.Time) *jwt.NumericDate {
	if t.IsZero() {
		return nil
	}
	return jwt.NewNumericDate(t)
}

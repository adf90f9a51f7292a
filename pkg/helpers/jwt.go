package helpers

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	kindAccess  = "access"
	kindRefresh = "refresh"
)

var ErrTokenKind = errors.New("unexpected token kind")

// JWTManager handles generation and validation of JWT tokens
type JWTManager struct {
	AccessSecret  []byte
	RefreshSecret []byte
	Issuer        string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration

	now func() time.Time
}

func NewJWTManager(accessSecret, refreshSecret, issuer string, accessTTL, refreshTTL time.Duration) *JWTManager {
	return &JWTManager{
		AccessSecret:  []byte(accessSecret),
		RefreshSecret: []byte(refreshSecret),
		Issuer:        issuer,
		AccessTTL:     accessTTL,
		RefreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

// Claims identify the user. ID (jti) is unique per token; SessionID is shared
// by every token issued for one sign-in, refreshes included.
type Claims struct {
	Email     string `json:"email"`
	Username  string `json:"username,omitempty"`
	Kind      string `json:"typ"`
	SessionID string `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the subject claim.
func (c *Claims) UserID() string { return c.Subject }

// TokenUser is the identity embedded in issued tokens.
type TokenUser struct {
	ID        string
	Email     string
	Username  string
	SessionID string
}

func (m *JWTManager) GenerateAccessToken(u TokenUser) (string, time.Time, error) {
	return m.generate(u, kindAccess, m.AccessTTL, m.AccessSecret)
}

func (m *JWTManager) GenerateRefreshToken(u TokenUser) (string, time.Time, error) {
	return m.generate(u, kindRefresh, m.RefreshTTL, m.RefreshSecret)
}

func (m *JWTManager) generate(u TokenUser, kind string, ttl time.Duration, secret []byte) (string, time.Time, error) {
	now := m.clock()
	exp := now.Add(ttl)
	claims := &Claims{
		Email:     u.Email,
		Username:  u.Username,
		Kind:      kind,
		SessionID: u.SessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   u.ID,
			Issuer:    m.Issuer,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(secret)
	return s, exp, err
}

func (m *JWTManager) ParseAccessToken(tokenStr string) (*Claims, error) {
	return m.parse(tokenStr, m.AccessSecret, kindAccess)
}

func (m *JWTManager) ParseRefreshToken(tokenStr string) (*Claims, error) {
	return m.parse(tokenStr, m.RefreshSecret, kindRefresh)
}

func (m *JWTManager) parse(tokenStr string, secret []byte, kind string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.clock),
	}
	if m.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.Issuer))
	}
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Kind != kind {
		return nil, ErrTokenKind
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

func (m *JWTManager) clock() time.Time {
	if m.now == nil {
		return time.Now()
	}
	return m.now()
}

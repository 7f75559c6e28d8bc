package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"docvault/internal/config"
)

var (
	ErrSessionExpired = errors.New("session token expired")
	ErrSessionInvalid = errors.New("invalid session token")
)

// AudienceSession marks a token as a session credential. Verification
// requires it, so tokens minted for other purposes (download links share
// the signing secret) are rejected here regardless of their signature.
const AudienceSession = "session"

// SessionClaims are the claims carried by access and refresh tokens.
// Subject holds the user id; role is re-resolved from the database on every
// request, never trusted from the token.
type SessionClaims struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// TokenPair is an access/refresh token set returned at login and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// SessionManager mints and verifies HS256 session tokens. Access and refresh
// tokens use distinct secrets so one cannot stand in for the other.
type SessionManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewSessionManager builds a SessionManager from auth configuration.
func NewSessionManager(cfg config.AuthConfig) *SessionManager {
	return &SessionManager{
		accessSecret:  []byte(cfg.JWTSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTokenTTL,
		refreshTTL:    cfg.RefreshTokenTTL,
		now:           time.Now,
	}
}

// GeneratePair mints a fresh access/refresh token pair for the user.
func (m *SessionManager) GeneratePair(userID, name, email string) (*TokenPair, error) {
	access, err := m.sign(userID, name, email, m.accessSecret, m.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := m.sign(userID, name, email, m.refreshSecret, m.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// VerifyAccess validates an access token and returns its claims.
func (m *SessionManager) VerifyAccess(tokenString string) (*SessionClaims, error) {
	return m.verify(tokenString, m.accessSecret)
}

// VerifyRefresh validates a refresh token and returns its claims.
func (m *SessionManager) VerifyRefresh(tokenString string) (*SessionClaims, error) {
	return m.verify(tokenString, m.refreshSecret)
}

func (m *SessionManager) sign(userID, name, email string, secret []byte, ttl time.Duration) (string, error) {
	now := m.now()
	claims := SessionClaims{
		Name:  name,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Audience:  jwt.ClaimStrings{AudienceSession},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (m *SessionManager) verify(tokenString string, secret []byte) (*SessionClaims, error) {
	claims := &SessionClaims{}
	tok, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(AudienceSession),
		jwt.WithTimeFunc(func() time.Time { return m.now() }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrSessionExpired
		}
		return nil, ErrSessionInvalid
	}
	if !tok.Valid || claims.Subject == "" {
		return nil, ErrSessionInvalid
	}
	return claims, nil
}

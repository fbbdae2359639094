package sandbox

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidAPIKey   = errors.New("invalid api key")
	ErrSessionExpired  = errors.New("session expired")
	ErrSessionNotFound = errors.New("session not found")
)

// sessionClaims are carried by a sandbox session token
type sessionClaims struct {
	UserID      int64  `json:"user_id"`
	DeviceToken string `json:"device"`
	jwt.RegisteredClaims
}

// authenticator verifies API keys and issues and validates session tokens
type authenticator struct {
	apiKeyHash []byte
	secret     []byte
	ttl        time.Duration
	now        func() time.Time
}

func newAuthenticator(apiKey, secret string, ttl time.Duration, now func() time.Time) (*authenticator, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(apiKey), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash api key: %w", err)
	}
	return &authenticator{
		apiKeyHash: hash,
		secret:     []byte(secret),
		ttl:        ttl,
		now:        now,
	}, nil
}

// checkAPIKey compares secret against the configured API key
func (a *authenticator) checkAPIKey(secret string) error {
	if err := bcrypt.CompareHashAndPassword(a.apiKeyHash, []byte(secret)); err != nil {
		return ErrInvalidAPIKey
	}
	return nil
}

// issueSession creates a signed session token for userID
func (a *authenticator) issueSession(userID int64, deviceToken string) (string, error) {
	now := a.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		UserID:      userID,
		DeviceToken: deviceToken,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	})

	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// validateSession parses a session token and returns its claims
func (a *authenticator) validateSession(tokenString string) (*sessionClaims, error) {
	var claims sessionClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithTimeFunc(a.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrSessionExpired
		}
		return nil, ErrSessionNotFound
	}
	if !token.Valid {
		return nil, ErrSessionNotFound
	}
	return &claims, nil
}

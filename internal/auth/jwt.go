// Package auth verifies the bearer tokens that gate the API.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/uboh-app/uboh-server/internal/normalize"
)

// JWTManager validates (and, for tooling, issues) the JWT tokens used by
// the API. It supports either a single HMAC secret or a kid-indexed key
// set so secrets can be rotated without invalidating issued tokens.
type JWTManager struct {
	keys      map[string]string // kid -> secret
	activeKid string            // kid used when signing
	duration  time.Duration
}

// Claims is the token payload the verifier yields on success.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// singleKid is the synthetic kid used when only one secret is configured.
const singleKid = "default"

// NewJWTManager returns a manager backed by a single secret.
func NewJWTManager(secretKey string, duration time.Duration) *JWTManager {
	return NewJWTManagerFromKeys(map[string]string{singleKid: secretKey}, singleKid, duration)
}

// NewJWTManagerFromKeys returns a manager using the provided kid->secret
// map. Tokens are signed with activeKid; verification accepts any kid in
// the map, which is what makes rotation possible.
func NewJWTManagerFromKeys(keys map[string]string, activeKid string, duration time.Duration) *JWTManager {
	return &JWTManager{keys: keys, activeKid: activeKid, duration: duration}
}

// GenerateToken issues a signed token for a subject. The server itself
// never calls this; it exists for operator tooling and tests.
func (m *JWTManager) GenerateToken(userID, email string) (string, time.Time, error) {
	secret, ok := m.keys[m.activeKid]
	if !ok {
		return "", time.Time{}, fmt.Errorf("active kid %q has no key", m.activeKid)
	}

	expiresAt := time.Now().Add(m.duration)
	claims := &Claims{
		UserID: userID,
		Email:  normalize.Email(email),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["kid"] = m.activeKid

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// VerifyToken parses and validates a token and returns its claims.
func (m *JWTManager) VerifyToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// HMAC only; reject tokens claiming an asymmetric alg
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			kid = singleKid
		}
		secret, ok := m.keys[kid]
		if !ok {
			return nil, fmt.Errorf("unknown kid %q", kid)
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

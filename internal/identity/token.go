package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// NewToken signs an HS256 access token for an account. Admin accounts carry
// an admin claim that middleware maps onto Caller.Admin.
func NewToken(secret string, accountID int64, email string, admin bool, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":   fmt.Sprintf("%d", accountID),
		"email": email,
		"admin": admin,
		"exp":   time.Now().UTC().Add(ttl).Unix(),
		"iat":   time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}

// ParseToken validates a bearer token and returns the caller it identifies.
func ParseToken(secret, raw string) (Caller, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return Caller{}, ErrInvalidToken
	}

	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Caller{}, ErrInvalidToken
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return Caller{}, ErrInvalidToken
	}
	var accountID int64
	if _, err := fmt.Sscanf(sub, "%d", &accountID); err != nil {
		return Caller{}, ErrInvalidToken
	}

	caller := Caller{
		Authenticated: true,
		AccountID:     accountID,
	}
	if email, ok := claims["email"].(string); ok {
		caller.Email = email
	}
	if admin, ok := claims["admin"].(bool); ok {
		caller.Admin = admin
	}
	return caller, nil
}

// Package gateway implements the credential artifacts the service hands to
// clients: the signed JWT access/refresh pair and the opaque server-side
// session, both behind one strategy interface.
package gateway

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTAuth encapsulates token minting and verification. The signing key and
// TTLs are fixed for the process lifetime; rotation is out of scope.
type JWTAuth struct {
	Key        []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// TokenClaims carries the principal inside both access and refresh tokens.
type TokenClaims struct {
	UserID uint   `json:"id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

var (
	ErrTokenExpired = errors.New("token has expired")
	ErrTokenInvalid = errors.New("token is invalid")
)

func (j *JWTAuth) generate(userID uint, email string, ttl time.Duration) (string, error) {
	if len(j.Key) == 0 {
		return "", errors.New("empty jwt key")
	}
	now := time.Now()
	claims := TokenClaims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    "auth",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.Key)
}

// GenerateAccess mints a short-lived access token for the principal.
func (j *JWTAuth) GenerateAccess(userID uint, email string) (string, error) {
	return j.generate(userID, email, j.AccessTTL)
}

// GenerateRefresh mints the long-lived refresh token. Only issued when the
// caller asked to stay logged in.
func (j *JWTAuth) GenerateRefresh(userID uint, email string) (string, error) {
	return j.generate(userID, email, j.RefreshTTL)
}

// VerifyJWT parses and validates a token, distinguishing expiry from every
// other failure so the caller can decide whether a refresh is worth trying.
func (j *JWTAuth) VerifyJWT(tokenString string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return j.Key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

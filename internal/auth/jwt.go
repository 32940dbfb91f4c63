package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrTokenExpired  = errors.New("token expired")
	ErrWrongTokenUse = errors.New("token type mismatch")
)

// Claims carries the subject plus the token type so an access token is never
// accepted where a refresh token is expected, and the other way around.
type Claims struct {
	jwt.RegisteredClaims
	TokenType string `json:"typ"`
}

// JWTProvider issues and verifies HS256 tokens of a single type.
type JWTProvider struct {
	secret    []byte
	ttl       time.Duration
	issuer    string
	tokenType string
	now       func() time.Time
}

func NewJWTProvider(secret []byte, ttl time.Duration, issuer, tokenType string) *JWTProvider {
	return &JWTProvider{
		secret:    secret,
		ttl:       ttl,
		issuer:    issuer,
		tokenType: tokenType,
		now:       time.Now,
	}
}

func (p *JWTProvider) TTL() time.Duration {
	return p.ttl
}

func (p *JWTProvider) Issue(subject string) (string, error) {
	now := p.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		},
		TokenType: p.tokenType,
	})

	signed, err := token.SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("token could not be signed: %w", err)
	}

	return signed, nil
}

func (p *JWTProvider) Verify(tokenString string) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(p.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}

	if claims.TokenType != p.tokenType {
		return "", ErrWrongTokenUse
	}

	return claims.Subject, nil
}

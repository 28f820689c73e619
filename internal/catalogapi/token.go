package catalogapi

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	defaultIssuer   = "pricescout"
	defaultAudience = "catalog-api"
	defaultTokenTTL = 2 * time.Minute
)

// TokenSource supplies the bearer token sent with every catalog request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenMaker signs short-lived HS256 service tokens for the catalog API.
type TokenMaker struct {
	secret  []byte
	issuer  string
	subject string
	ttl     time.Duration
	now     func() time.Time
}

func NewTokenMaker(secret, subject string) *TokenMaker {
	return &TokenMaker{
		secret:  []byte(secret),
		issuer:  defaultIssuer,
		subject: subject,
		ttl:     defaultTokenTTL,
		now:     time.Now,
	}
}

type Claims struct {
	Service string `json:"service"`
	jwt.RegisteredClaims
}

func (t *TokenMaker) Token(_ context.Context) (string, error) {
	now := t.now()

	claims := Claims{
		Service: t.subject,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   t.subject,
			Issuer:    t.issuer,
			Audience:  jwt.ClaimStrings{defaultAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Parse verifies a token signed with the same secret, as the catalog side
// does for incoming requests.
func (t *TokenMaker) Parse(tokenStr string) (Claims, error) {
	var c Claims

	token, err := jwt.ParseWithClaims(tokenStr, &c, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return t.secret, nil
	}, jwt.WithAudience(defaultAudience), jwt.WithIssuer(t.issuer))
	if err != nil || token == nil || !token.Valid {
		return Claims{}, errors.New("invalid token")
	}

	return c, nil
}

package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	DefaultIssuer   = "ProjectPlanning"
	DefaultAudience = "ProjectPlanningUsers"
	DefaultTokenTtl = 2 * time.Hour

	minKeyLength = 16
)

// NewKey creates a random key, suitable for signing tokens.
func NewKey() (string, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("failed to create random key: %v", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

func NewTokenIssuer(key string, customizers ...func(*TokenOptions)) (*TokenIssuer, error) {
	if len(key) < minKeyLength {
		return nil, fmt.Errorf("key must be at least %d characters long", minKeyLength)
	}

	options := NewTokenOptions()
	for _, customizer := range customizers {
		customizer(&options)
	}

	if err := options.Validate(); err != nil {
		return nil, err
	}

	return &TokenIssuer{key: []byte(key), options: options}, nil
}

func NewTokenOptions() TokenOptions {
	return TokenOptions{
		Issuer:   DefaultIssuer,
		Audience: DefaultAudience,
		Ttl:      DefaultTokenTtl,
	}
}

type TokenOptions struct {
	Issuer   string
	Audience string
	Ttl      time.Duration // Time to live of an issued token.

	now func() time.Time // for testing
}

func (o TokenOptions) Validate() error {
	if o.Issuer == "" {
		return errors.New("issuer is empty")
	}
	if o.Audience == "" {
		return errors.New("audience is empty")
	}
	if o.Ttl <= 0 {
		return errors.New("TTL must be greater than zero")
	}
	return nil
}

// Claims identify the user, a token has been issued for.
type Claims struct {
	Email                string `json:"email"`
	OfferingOrganization bool   `json:"isOfferingOrganization"`

	jwt.RegisteredClaims
}

// TokenIssuer issues and verifies HMAC-SHA256 signed bearer tokens.
type TokenIssuer struct {
	key     []byte
	options TokenOptions
}

// Issue issues a token for a user, identified by email.
func (i *TokenIssuer) Issue(email string, offeringOrganization bool) (string, error) {
	if email == "" {
		return "", errors.New("email is empty")
	}

	now := time.Now()
	if i.options.now != nil {
		now = i.options.now()
	}

	claims := Claims{
		Email:                email,
		OfferingOrganization: offeringOrganization,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    i.options.Issuer,
			Subject:   email,
			Audience:  jwt.ClaimStrings{i.options.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.options.Ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(i.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %v", err)
	}
	return signed, nil
}

// Verify validates signature, issuer, audience and expiry of a token and returns its claims.
func (i *TokenIssuer) Verify(tokenString string) (Claims, error) {
	parserOptions := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.options.Issuer),
		jwt.WithAudience(i.options.Audience),
		jwt.WithExpirationRequired(),
	}
	if i.options.now != nil {
		parserOptions = append(parserOptions, jwt.WithTimeFunc(i.options.now))
	}

	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return i.key, nil
	}, parserOptions...)
	if err != nil {
		return Claims{}, fmt.Errorf("invalid token: %v", err)
	}
	if !token.Valid {
		return Claims{}, errors.New("invalid token")
	}
	if claims.Email == "" {
		return Claims{}, errors.New("invalid token: no email claim")
	}

	return claims, nil
}

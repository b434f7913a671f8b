// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing) from
// the domain logic. It acts as an Infrastructure service injected into the
// Application layer.
//
// # Signing Contexts
//
// Administrator tokens, moderator access tokens and moderator refresh tokens
// are signed with three distinct secrets and carry distinct audiences, so a
// leaked secret cannot forge tokens of another context.
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// # Token Contexts

// TokenContext names an independent signing context.
type TokenContext string

const (
	ContextAdmin            TokenContext = "admin"
	ContextModeratorAccess  TokenContext = "moderator_access"
	ContextModeratorRefresh TokenContext = "moderator_refresh"
)

// Token lifetimes per context.
const (
	AdminTokenTTL            = 24 * time.Hour
	ModeratorAccessTokenTTL  = 15 * time.Minute
	ModeratorRefreshTokenTTL = 7 * 24 * time.Hour
)

var (
	// ErrTokenInvalid covers malformed tokens, bad signatures and foreign contexts.
	ErrTokenInvalid = errors.New("token invalid")

	// ErrTokenExpired is returned for a genuine token whose lifetime has ended.
	ErrTokenExpired = errors.New("token expired")
)

// Claims represents the payload embedded inside every token.
//
// Role, Name and Email are only populated for the contexts that carry them:
// admin tokens embed all three, moderator access tokens embed the role, and
// refresh tokens embed none.
type Claims struct {
	jwt.RegisteredClaims

	Role  string `json:"role,omitempty"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// SigningKeys holds one HMAC secret per signing context.
type SigningKeys struct {
	Admin            string
	ModeratorAccess  string
	ModeratorRefresh string
}

// TokenIssuer mints and verifies HS256 tokens for the three signing contexts.
type TokenIssuer struct {
	keys   map[TokenContext][]byte
	ttls   map[TokenContext]time.Duration
	issuer string
	now    func() time.Time
}

// NewTokenIssuer creates a TokenIssuer.
//
// Every secret must be non-empty and no two contexts may share a secret.
func NewTokenIssuer(keys SigningKeys, issuer string) (*TokenIssuer, error) {
	secrets := map[TokenContext]string{
		ContextAdmin:            keys.Admin,
		ContextModeratorAccess:  keys.ModeratorAccess,
		ContextModeratorRefresh: keys.ModeratorRefresh,
	}

	seen := make(map[string]TokenContext, len(secrets))
	parsed := make(map[TokenContext][]byte, len(secrets))
	for tokenContext, secret := range secrets {
		if secret == "" {
			return nil, fmt.Errorf("auth: missing signing secret for %s tokens", tokenContext)
		}
		if other, exists := seen[secret]; exists {
			return nil, fmt.Errorf("auth: %s and %s tokens must not share a signing secret", other, tokenContext)
		}
		seen[secret] = tokenContext
		parsed[tokenContext] = []byte(secret)
	}

	return &TokenIssuer{
		keys: parsed,
		ttls: map[TokenContext]time.Duration{
			ContextAdmin:            AdminTokenTTL,
			ContextModeratorAccess:  ModeratorAccessTokenTTL,
			ContextModeratorRefresh: ModeratorRefreshTokenTTL,
		},
		issuer: issuer,
		now:    time.Now,
	}, nil
}

// WithClock returns a copy of the issuer that reads time from now.
func (service *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	clone := *service
	clone.now = now
	return &clone
}

// TTL returns the lifetime of tokens minted in the given context.
func (service *TokenIssuer) TTL(tokenContext TokenContext) time.Duration {
	return service.ttls[tokenContext]
}

// # Issuing

// IssueAdminToken mints a 24h admin token embedding id, role, name and email.
func (service *TokenIssuer) IssueAdminToken(principal *Principal) (string, time.Time, error) {
	return service.sign(ContextAdmin, principal.ID, "", Claims{
		Role:  string(principal.Role),
		Name:  principal.DisplayName,
		Email: principal.Email,
	})
}

// IssueModeratorAccessToken mints a 15m moderator access token.
func (service *TokenIssuer) IssueModeratorAccessToken(principal *Principal) (string, time.Time, error) {
	return service.sign(ContextModeratorAccess, principal.ID, "", Claims{
		Role: string(RoleModerator),
	})
}

// IssueModeratorRefreshToken mints a 7d moderator refresh token.
//
// A random token id keeps every issued refresh token distinct, even for two
// logins in the same second.
func (service *TokenIssuer) IssueModeratorRefreshToken(principal *Principal) (string, time.Time, error) {
	return service.sign(ContextModeratorRefresh, principal.ID, uuid.NewString(), Claims{})
}

func (service *TokenIssuer) sign(tokenContext TokenContext, subject, tokenID string, claims Claims) (string, time.Time, error) {
	currentTime := service.now()
	expiresAt := currentTime.Add(service.ttls[tokenContext])

	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        tokenID,
		Subject:   subject,
		Issuer:    service.issuer,
		Audience:  jwt.ClaimStrings{string(tokenContext)},
		IssuedAt:  jwt.NewNumericDate(currentTime),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(service.keys[tokenContext])
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: failed to sign %s token: %w", tokenContext, err)
	}

	return signedToken, expiresAt, nil
}

// # Verification

// Verify checks the signature, audience and lifetime of a token in the given context.
//
// It returns [ErrTokenExpired] for a genuine token past its expiry and
// [ErrTokenInvalid] for everything else.
func (service *TokenIssuer) Verify(tokenString string, tokenContext TokenContext) (*Claims, error) {
	return service.parse(tokenString, tokenContext,
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(service.now),
	)
}

// VerifyIgnoringExpiry checks signature and context but accepts expired tokens.
//
// It exists for logout, where a genuine but expired refresh token should still
// be removed from the ledger.
func (service *TokenIssuer) VerifyIgnoringExpiry(tokenString string, tokenContext TokenContext) (*Claims, error) {
	claims, err := service.parse(tokenString, tokenContext, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, err
	}

	// Claims validation is skipped entirely, so the audience is checked by hand.
	for _, audience := range claims.Audience {
		if audience == string(tokenContext) {
			return claims, nil
		}
	}
	return nil, fmt.Errorf("%w: wrong audience", ErrTokenInvalid)
}

func (service *TokenIssuer) parse(tokenString string, tokenContext TokenContext, options ...jwt.ParserOption) (*Claims, error) {
	key, ok := service.keys[tokenContext]
	if !ok {
		return nil, fmt.Errorf("%w: unknown context %q", ErrTokenInvalid, tokenContext)
	}

	options = append(options,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(service.issuer),
		jwt.WithAudience(string(tokenContext)),
	)

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return key, nil
	}, options...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}

	return claims, nil
}

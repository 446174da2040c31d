// Package auth issues and verifies the HS256 bearer tokens used by the API.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"trading-journal/apperr"
)

const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

var ErrTokenRevoked = errors.New("token revoked")

type Claims struct {
	UserID    uint   `json:"user_id"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// Pair is what a successful login returns.
type Pair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type Issuer struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// Store remembers live refresh tokens by id.
	Store RefreshStore

	now func() time.Time
}

func NewIssuer(secret string, accessTTL, refreshTTL time.Duration, store RefreshStore) *Issuer {
	return &Issuer{
		Secret:     []byte(secret),
		AccessTTL:  accessTTL,
		RefreshTTL: refreshTTL,
		Store:      store,
		now:        time.Now,
	}
}

func (i *Issuer) clock() time.Time {
	if i.now == nil {
		return time.Now()
	}
	return i.now()
}

func (i *Issuer) sign(userID uint, typ string, ttl time.Duration) (string, Claims, error) {
	now := i.clock()
	claims := Claims{
		UserID:    userID,
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.Secret)
	if err != nil {
		return "", Claims{}, fmt.Errorf("sign %s token: %w", typ, err)
	}
	return token, claims, nil
}

// Issue signs an access and a refresh token for userID and records the
// refresh token so it can be revoked.
func (i *Issuer) Issue(ctx context.Context, userID uint) (Pair, error) {
	access, _, err := i.sign(userID, TokenAccess, i.AccessTTL)
	if err != nil {
		return Pair{}, err
	}
	refresh, claims, err := i.sign(userID, TokenRefresh, i.RefreshTTL)
	if err != nil {
		return Pair{}, err
	}
	if err := i.Store.Save(ctx, claims.ID, userID, i.RefreshTTL); err != nil {
		return Pair{}, fmt.Errorf("store refresh token: %w", err)
	}
	return Pair{Access: access, Refresh: refresh}, nil
}

// Verify parses token and checks its signature, expiry and type. Any failure
// reads as ErrAuthenticationRequired to callers.
func (i *Issuer) Verify(token, typ string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return i.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.clock),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrAuthenticationRequired, err)
	}
	if !parsed.Valid || claims.TokenType != typ || claims.UserID == 0 {
		return nil, apperr.ErrAuthenticationRequired
	}
	return claims, nil
}

// RefreshAccess exchanges a live refresh token for a new access token.
func (i *Issuer) RefreshAccess(ctx context.Context, refresh string) (string, error) {
	claims, err := i.Verify(refresh, TokenRefresh)
	if err != nil {
		return "", err
	}
	userID, err := i.Store.Lookup(ctx, claims.ID)
	if err != nil {
		return "", err
	}
	if userID != claims.UserID {
		return "", fmt.Errorf("%w: %w", apperr.ErrAuthenticationRequired, ErrTokenRevoked)
	}
	access, _, err := i.sign(claims.UserID, TokenAccess, i.AccessTTL)
	return access, err
}

// Revoke forgets a refresh token. Revoking an unknown token is not an error.
func (i *Issuer) Revoke(ctx context.Context, refresh string) error {
	claims, err := i.Verify(refresh, TokenRefresh)
	if err != nil {
		return err
	}
	return i.Store.Delete(ctx, claims.ID)
}

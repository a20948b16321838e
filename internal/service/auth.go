package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/totegamma/collabfund/internal/domain"
)

var tracer = otel.Tracer("auth")

const issuer = "collabfund"

// RevocationStore is the subset of *memcache.Client used for the revocation list.
type RevocationStore interface {
	Get(key string) (*memcache.Item, error)
	Set(item *memcache.Item) error
}

type AuthService struct {
	secret  []byte
	ttl     time.Duration
	revoked RevocationStore
	now     func() time.Time
}

func NewAuthService(secret string, ttl time.Duration, revoked RevocationStore) *AuthService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthService{
		secret:  []byte(secret),
		ttl:     ttl,
		revoked: revoked,
		now:     time.Now,
	}
}

type AuthResult struct {
	UserID    int64
	TokenID   string
	ExpiresAt time.Time
}

// Issue signs an HS256 token whose subject is the user id.
func (s *AuthService) Issue(userID int64) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		ID:        uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *AuthService) AuthJwt(ctx context.Context, token string) (*AuthResult, error) {
	ctx, span := tracer.Start(ctx, "Auth.Service.AuthJwt")
	defer span.End()

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		span.RecordError(pkgerrors.Wrap(err, "jwt validation failed"))
		return nil, domain.ErrUnauthenticated
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		span.RecordError(fmt.Errorf("invalid subject %q", claims.Subject))
		return nil, domain.ErrUnauthenticated
	}

	revoked, err := s.IsRevoked(ctx, claims.ID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if revoked {
		return nil, domain.ErrUnauthenticated
	}

	return &AuthResult{UserID: userID, TokenID: claims.ID, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Revoke puts the token id on the revocation list until the token would have expired anyway.
func (s *AuthService) Revoke(ctx context.Context, auth *AuthResult) error {
	_, span := tracer.Start(ctx, "Auth.Service.Revoke")
	defer span.End()

	if auth == nil || auth.TokenID == "" {
		return domain.ErrUnauthenticated
	}

	remaining := int32(auth.ExpiresAt.Sub(s.now()).Seconds()) + 1
	if remaining <= 0 {
		return nil
	}
	return s.revoked.Set(&memcache.Item{
		Key:        revocationKey(auth.TokenID),
		Value:      []byte("1"),
		Expiration: remaining,
	})
}

func (s *AuthService) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}
	_, err := s.revoked.Get(revocationKey(tokenID))
	if errors.Is(err, memcache.ErrCacheMiss) {
		return false, nil
	}
	if err != nil {
		return false, pkgerrors.Wrap(err, "revocation lookup failed")
	}
	return true, nil
}

func revocationKey(tokenID string) string {
	return "collabfund:revoked:" + tokenID
}

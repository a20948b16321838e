package middleware

import (
	"context"
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/collabfund/internal/domain"
	"github.com/totegamma/collabfund/internal/present/rest/presenter"
	"github.com/totegamma/collabfund/internal/service"
)

var tracer = otel.Tracer("auth")

type AuthMiddleware struct {
	auth *service.AuthService
}

func NewAuthMiddleware(auth *service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

// IdentifyIdentity attaches the verified requester to the request context.
// Requests without a valid token pass through anonymously; a token that cannot
// be checked at all fails the request.
func (s *AuthMiddleware) IdentifyIdentity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, span := tracer.Start(c.Request().Context(), "Auth.Middleware.IdentifyIdentity")
		defer span.End()

		authHeader := c.Request().Header.Get("authorization")

		if authHeader != "" {
			split := strings.Split(authHeader, " ")
			if len(split) != 2 {
				span.RecordError(fmt.Errorf("invalid authentication header"))
				goto skipCheckAuthorization
			}

			authType, token := split[0], split[1]
			if authType != "Bearer" {
				span.RecordError(fmt.Errorf("only Bearer is acceptable"))
				goto skipCheckAuthorization
			}

			result, err := s.auth.AuthJwt(ctx, token)
			if err != nil {
				span.RecordError(errors.Wrap(err, "AuthMiddleware.IdentifyIdentity: s.auth.AuthJwt failed"))
				if !errors.Is(err, domain.ErrUnauthenticated) {
					return presenter.Error(c, err)
				}
				goto skipCheckAuthorization
			}

			ctx = context.WithValue(ctx, domain.RequesterIdCtxKey, result.UserID)
			ctx = context.WithValue(ctx, domain.RequesterTokenCtxKey, result)
			span.SetAttributes(attribute.Int64("RequesterId", result.UserID))
		}

	skipCheckAuthorization:
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

// RequireIdentity rejects anonymous requests with 401.
func RequireIdentity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if RequesterID(c.Request().Context()) == 0 {
			return presenter.Error(c, domain.ErrUnauthenticated)
		}
		return next(c)
	}
}

// RequesterID returns the verified caller, or 0 for anonymous requests.
func RequesterID(ctx context.Context) int64 {
	id, _ := ctx.Value(domain.RequesterIdCtxKey).(int64)
	return id
}

func RequesterToken(ctx context.Context) *service.AuthResult {
	result, _ := ctx.Value(domain.RequesterTokenCtxKey).(*service.AuthResult)
	return result
}

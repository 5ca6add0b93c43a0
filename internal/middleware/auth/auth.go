package auth

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/comphility/backend/internal/apperr"
	"github.com/comphility/backend/internal/models"
	"github.com/comphility/backend/internal/token"
)

const claimsKey = "authClaims"

// RequireLogin validates the bearer token and attaches its claims to the
// request. A missing token and an invalid or expired one are reported with
// different statuses (401 vs 403). Identity comes from the token alone, so
// it can lag behind concurrent admin edits until reissued.
func RequireLogin(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return apperr.Authentication("Access token required")
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return apperr.Authentication("Authorization header format must be 'Bearer <token>'")
			}

			claims, err := token.Parse(parts[1], secret)
			if err != nil {
				return apperr.Authorization("Invalid or expired token")
			}

			c.Set(claimsKey, claims)
			return next(c)
		}
	}
}

// AdminOnly rejects requests whose token does not carry the admin role.
// Chain it after RequireLogin.
func AdminOnly() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := Claims(c)
			if claims == nil || claims.Role != models.RoleAdmin {
				return apperr.Authorization("Admin access required")
			}
			return next(c)
		}
	}
}

// Claims returns the identity attached by RequireLogin, or nil.
func Claims(c echo.Context) *token.Claims {
	if v, ok := c.Get(claimsKey).(*token.Claims); ok {
		return v
	}
	return nil
}

// UserID returns the authenticated user's id, or 0 when unauthenticated.
func UserID(c echo.Context) uint {
	if claims := Claims(c); claims != nil {
		return claims.UserID
	}
	return 0
}

package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Skotchmaster/glowshop/pkg/authclient"
	"github.com/Skotchmaster/glowshop/pkg/logging"
	"github.com/Skotchmaster/glowshop/pkg/tokens"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const (
	CtxUserID = "user_id"
	CtxRole   = "role"
)

type Refresher interface {
	RefreshTokens(ctx context.Context, refreshToken, accessToken string) (*authclient.RefreshResponse, error)
}

type AutoRefreshMiddleware struct {
	JWTSecret []byte
	// AuthClient is optional; without it expired tokens are rejected outright.
	AuthClient Refresher
}

func NewAutoRefreshMiddleware(secret []byte, authClient Refresher) *AutoRefreshMiddleware {
	return &AutoRefreshMiddleware{
		JWTSecret:  secret,
		AuthClient: authClient,
	}
}

type ValidatorFunc func(claims *tokens.AccessClaims) error

func (m *AutoRefreshMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireAuthWithValidator(next, nil)
}

func (m *AutoRefreshMiddleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireAuthWithValidator(next, func(claims *tokens.AccessClaims) error {
		if !claims.IsAdmin() {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		return nil
	})
}

// OptionalAuth resolves the caller when a valid token is present and lets
// anonymous requests through otherwise.
func (m *AutoRefreshMiddleware) OptionalAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw, _ := accessToken(c)
		if raw == "" {
			return next(c)
		}
		claims, err := tokens.AccessClaimsFromToken(raw, m.JWTSecret)
		if err != nil {
			logging.FromContext(c.Request().Context()).Debug("optional_auth_ignored", "error", err)
			return next(c)
		}
		setUserContext(c, claims)
		return next(c)
	}
}

func (m *AutoRefreshMiddleware) requireAuthWithValidator(next echo.HandlerFunc, validator ValidatorFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw, fromCookie := accessToken(c)
		if raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		claims, err := tokens.AccessClaimsFromToken(raw, m.JWTSecret)
		if err == nil {
			if validator != nil {
				if validationErr := validator(claims); validationErr != nil {
					return validationErr
				}
			}
			setUserContext(c, claims)
			return next(c)
		}

		if !errors.Is(err, jwt.ErrTokenExpired) || !fromCookie || m.AuthClient == nil {
			if fromCookie {
				clearAuthCookies(c)
			}
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
		}

		refreshCookie, rErr := c.Cookie(tokens.RefreshCookie)
		if rErr != nil || refreshCookie.Value == "" {
			clearAuthCookies(c)
			return echo.NewHTTPError(http.StatusUnauthorized, "refresh token missing")
		}

		ctx := c.Request().Context()
		refreshResp, refErr := m.AuthClient.RefreshTokens(ctx, refreshCookie.Value, raw)
		if refErr != nil {
			logging.FromContext(ctx).Warn("token_refresh_failed", "error", refErr)
			clearAuthCookies(c)
			return echo.NewHTTPError(http.StatusUnauthorized, "refresh failed")
		}

		c.SetCookie(tokens.CreateCookie(tokens.AccessCookie, refreshResp.AccessToken, "/", time.Unix(refreshResp.AccessExp, 0)))
		c.SetCookie(tokens.CreateCookie(tokens.RefreshCookie, refreshResp.RefreshToken, "/", time.Unix(refreshResp.RefreshExp, 0)))

		newClaims, pErr := tokens.AccessClaimsFromToken(refreshResp.AccessToken, m.JWTSecret)
		if pErr != nil {
			clearAuthCookies(c)
			return echo.NewHTTPError(http.StatusUnauthorized, "new access token invalid")
		}

		if validator != nil {
			if validationErr := validator(newClaims); validationErr != nil {
				return validationErr
			}
		}

		setUserContext(c, newClaims)
		return next(c)
	}
}

// accessToken prefers the cookie and falls back to a bearer header.
func accessToken(c echo.Context) (string, bool) {
	if ck, err := c.Cookie(tokens.AccessCookie); err == nil && ck.Value != "" {
		return ck.Value, true
	}
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:]), false
	}
	return "", false
}

func clearAuthCookies(c echo.Context) {
	c.SetCookie(tokens.DeleteCookie(tokens.AccessCookie, "/"))
	c.SetCookie(tokens.DeleteCookie(tokens.RefreshCookie, "/"))
}

func setUserContext(c echo.Context, claims *tokens.AccessClaims) {
	c.Set(CtxUserID, claims.Subject)
	c.Set(CtxRole, claims.Role)
}

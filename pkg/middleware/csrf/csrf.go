// Package csrf implements double-submit cookie protection for requests that
// authenticate with the access-token cookie.
package csrf

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/glowshop/pkg/logging"
	"github.com/Skotchmaster/glowshop/pkg/tokens"
)

type Config struct {
	CookieName string
	HeaderName string
	Secure     bool
	MaxAge     time.Duration
	// SkipPrefixes bypass the check entirely, e.g. health probes.
	SkipPrefixes []string
}

func DefaultConfig() Config {
	return Config{
		CookieName:   "XSRF-TOKEN",
		HeaderName:   "X-CSRF-Token",
		MaxAge:       24 * time.Hour,
		SkipPrefixes: []string{"/health/"},
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.CookieName == "" {
		c.CookieName = def.CookieName
	}
	if c.HeaderName == "" {
		c.HeaderName = def.HeaderName
	}
	if c.MaxAge == 0 {
		c.MaxAge = def.MaxAge
	}
	return c
}

// Middleware issues the token cookie on every response and, for unsafe methods
// carrying the access-token cookie, requires a same-origin request whose
// header echoes the cookie value. Bearer-token clients are not affected.
func Middleware(cfg Config) echo.MiddlewareFunc {
	cfg = cfg.withDefaults()

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			for _, p := range cfg.SkipPrefixes {
				if strings.HasPrefix(req.URL.Path, p) {
					return next(c)
				}
			}

			token := cookieValue(req, cfg.CookieName)
			if token == "" {
				var err error
				if token, err = newToken(); err != nil {
					logging.FromContext(req.Context()).Error("csrf_token_failed", "error", err)
					return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
				}
			}
			c.SetCookie(&http.Cookie{
				Name:     cfg.CookieName,
				Value:    token,
				Path:     "/",
				Secure:   cfg.Secure,
				MaxAge:   int(cfg.MaxAge.Seconds()),
				SameSite: http.SameSiteLaxMode,
			})

			if safeMethod(req.Method) {
				c.Response().Header().Set(cfg.HeaderName, token)
				return next(c)
			}
			if cookieValue(req, tokens.AccessCookie) == "" {
				return next(c)
			}

			l := logging.FromContext(req.Context())
			if !sameOrigin(req) {
				l.Warn("csrf_rejected", "status", 403, "reason", "origin mismatch")
				return echo.NewHTTPError(http.StatusForbidden, "invalid origin")
			}
			provided := req.Header.Get(cfg.HeaderName)
			if provided == "" || subtle.ConstantTimeCompare([]byte(token), []byte(provided)) != 1 {
				l.Warn("csrf_rejected", "status", 403, "reason", "token mismatch")
				return echo.NewHTTPError(http.StatusForbidden, "invalid CSRF token")
			}
			return next(c)
		}
	}
}

func safeMethod(m string) bool {
	return m == http.MethodGet || m == http.MethodHead || m == http.MethodOptions
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func cookieValue(req *http.Request, name string) string {
	ck, err := req.Cookie(name)
	if err != nil {
		return ""
	}
	return ck.Value
}

// sameOrigin compares Origin (or Referer) with the request host.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get(echo.HeaderOrigin)
	if origin == "" {
		origin = r.Header.Get("Referer")
	}
	if origin == "" {
		return false
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	scheme := "http"
	if p := r.Header.Get(echo.HeaderXForwardedProto); p != "" {
		scheme = p
	} else if r.TLS != nil {
		scheme = "https"
	}
	return strings.EqualFold(u.Scheme, scheme) && strings.EqualFold(u.Host, r.Host)
}

package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"vodgate/internal/config"
	"vodgate/internal/model"
)

const (
	// IdentityLocalKey is the key used to store the resolved identity in
	// Fiber's context locals.
	IdentityLocalKey = "identity"
	// SessionCookie is the cookie the web frontend stores the session token in.
	SessionCookie = "session_token"
)

// sessionClaims is the JWT claims layout of the session tokens issued by the
// auth frontend.
type sessionClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Identity resolves the caller's identity from the request, if any.
//
// It reads a Bearer token from the Authorization header or, failing that, the
// session cookie, and validates it as HS256 against the configured secret.
// Resolution is best-effort: a missing or invalid token leaves the request
// anonymous and lets it proceed. Whether anonymous access is acceptable is an
// authorization question answered per category by the access policy, not here.
func Identity(cfg config.AuthConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := tokenFromRequest(c)
		if raw == "" || cfg.JWTSecret == "" {
			return c.Next()
		}

		claims := &sessionClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(cfg.JWTSecret), nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil || !token.Valid || claims.Email == "" {
			return c.Next()
		}

		c.Locals(IdentityLocalKey, &model.Identity{
			Subject: claims.Subject,
			Email:   claims.Email,
			Name:    claims.Name,
		})
		return c.Next()
	}
}

// IdentityFromCtx extracts the identity stored by the Identity middleware.
// Returns nil for anonymous requests.
func IdentityFromCtx(c *fiber.Ctx) *model.Identity {
	if v := c.Locals(IdentityLocalKey); v != nil {
		if ident, ok := v.(*model.Identity); ok {
			return ident
		}
	}
	return nil
}

func tokenFromRequest(c *fiber.Ctx) string {
	if h := c.Get(fiber.HeaderAuthorization); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return token
		}
		return ""
	}
	return c.Cookies(SessionCookie)
}

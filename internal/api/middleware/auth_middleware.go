package middleware

import (
	"crypto/subtle"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/velvetqueue/configs"
	"github.com/maheshrc27/velvetqueue/internal/api/handlers"
	"github.com/maheshrc27/velvetqueue/pkg/utils"
)

const (
	// APIKeyOperator is recorded as the operator for requests made with the shared key.
	APIKeyOperator = "api-key"
	// AnonymousOperator is recorded when authentication is not configured.
	AnonymousOperator = "anonymous"
)

type AuthMiddleware struct {
	cfg *config.Config
}

func NewAuthMiddleware(cfg *config.Config) *AuthMiddleware {
	return &AuthMiddleware{cfg: cfg}
}

// Enabled reports whether any credential is configured. Without one the API
// is open, which is how a single operator runs it locally.
func (m *AuthMiddleware) Enabled() bool {
	return m.cfg.OperatorAPIKey != "" || m.cfg.SecretKey != ""
}

// AuthMiddleware accepts the operator API key (X-API-Key header or api_key
// query) or an operator token (session cookie or bearer header).
func (m *AuthMiddleware) AuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !m.Enabled() {
			c.Locals(handlers.OperatorKey, AnonymousOperator)
			return c.Next()
		}

		apiKey := c.Get("X-API-Key")
		if apiKey == "" {
			apiKey = c.Query("api_key")
		}

		tokenString := c.Cookies(m.cfg.CookieName)
		fromCookie := tokenString != ""
		if !fromCookie {
			tokenString = bearerToken(c.Get(fiber.HeaderAuthorization))
		}

		if apiKey == "" && tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing API key or token",
			})
		}

		if apiKey != "" {
			if m.cfg.OperatorAPIKey == "" || subtle.ConstantTimeCompare([]byte(apiKey), []byte(m.cfg.OperatorAPIKey)) != 1 {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "Invalid API key",
				})
			}
			c.Locals(handlers.OperatorKey, APIKeyOperator)
			return c.Next()
		}

		claims, err := utils.ValidateToken(m.cfg.SecretKey, tokenString)
		if err != nil {
			if fromCookie {
				c.Cookie(&fiber.Cookie{
					Name:   m.cfg.CookieName,
					Value:  "",
					Path:   "/",
					MaxAge: -1,
				})
			}

			slog.Info("token validation failed", "err", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals(handlers.OperatorKey, claims.Operator)
		return c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

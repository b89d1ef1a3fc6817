package middleware

import (
	"strings"

	"revelio-finance/pkg/auth"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// SubjectKey is the fiber.Ctx local holding the authenticated token subject.
const SubjectKey = "subject"

// AuthMiddleware requires a valid bearer token, read from the Authorization
// header or, for websocket handshakes, the "token" query parameter.
func AuthMiddleware(jwtManager *auth.JWTManager, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			logger.Warn("Missing authorization token", zap.String("path", c.Path()))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization token required",
			})
		}

		claims, err := jwtManager.ValidateToken(token)
		if err != nil {
			logger.Warn("Invalid token", zap.String("path", c.Path()), zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals(SubjectKey, claims.Subject)

		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) string {
	if header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization)); header != "" {
		if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
			return strings.TrimSpace(header[7:])
		}
		return header
	}
	return c.Query("token")
}

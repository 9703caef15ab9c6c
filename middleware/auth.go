// middleware/auth.go
package middleware

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	LocalUserID     = "user_id"
	LocalUserHandle = "user_handle"
)

// UserContextMiddleware reads the caller identity forwarded by the gateway.
func UserContextMiddleware(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := strings.TrimSpace(c.Get("X-User-ID"))
		id, err := strconv.ParseInt(raw, 10, 64)
		if raw == "" || err != nil {
			logger.Warn("❌ [USER_CTX] missing or malformed X-User-ID", zap.String("path", c.Path()), zap.String("value", raw))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-ID, request must come through the gateway with auth context",
			})
		}

		c.Locals(LocalUserID, id)
		c.Locals(LocalUserHandle, strings.TrimPrefix(strings.TrimSpace(c.Get("X-User-Handle")), "@"))
		return c.Next()
	}
}

// AdminOnly must run after UserContextMiddleware.
func AdminOnly(isAdmin func(int64) bool, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := UserID(c)
		if !ok || !isAdmin(id) {
			logger.Warn("🚫 [ADMIN] admin route denied", zap.Int64("user_id", id), zap.String("path", c.Path()))
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "admin only",
			})
		}
		return c.Next()
	}
}

func UserID(c *fiber.Ctx) (int64, bool) {
	id, ok := c.Locals(LocalUserID).(int64)
	return id, ok
}

func UserHandle(c *fiber.Ctx) string {
	h, _ := c.Locals(LocalUserHandle).(string)
	return h
}

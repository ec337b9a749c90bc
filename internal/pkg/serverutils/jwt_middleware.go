package serverutils

import (
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// TokenRevocationChecker reports whether a token id has been revoked.
type TokenRevocationChecker interface {
	IsRevoked(jti string) bool
}

// NewJwtMiddleware guards routes with bearer-token auth. Revoked tokens are
// rejected even while cryptographically valid.
func NewJwtMiddleware(secret string, revoked TokenRevocationChecker) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		authHeader := ctx.Get("Authorization")
		if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Missing token"})
		}
		tokenStr := authHeader[7:]

		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid token"})
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid claims"})
		}

		if jti, _ := claims["jti"].(string); jti != "" && revoked != nil && revoked.IsRevoked(jti) {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Token revoked"})
		}

		ctx.Locals("user_id", claims["user_id"])
		ctx.Locals("token", tokenStr)
		return ctx.Next()
	}
}

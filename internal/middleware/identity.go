package middleware

import (
	"strings"

	"nidhi/internal/config"
	"nidhi/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// identityLocal is the Fiber locals key holding the caller's models.Identity.
const identityLocal = "identity"

var cfg *config.Config

// InitMiddleware initializes authentication middleware with the given config.
func InitMiddleware(c *config.Config) {
	cfg = c
}

// IdentityFromCtx returns the identity established by IdentityRequired.
func IdentityFromCtx(c *fiber.Ctx) (models.Identity, bool) {
	id, ok := c.Locals(identityLocal).(models.Identity)
	return id, ok
}

// IdentityRequired establishes the caller's identity and stores it in locals.
// A Bearer token issued by the upstream identity service is verified and its
// claims mapped to a typed identity. Outside production, gateway-injected
// X-User-* headers are accepted as a fallback so the portal can run without
// the identity service.
func IdentityRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id, ok := identityFromBearer(c); ok {
			c.Locals(identityLocal, id)
			return c.Next()
		}

		isProduction := cfg != nil && (cfg.Env == "production" || cfg.Env == "prod")
		if !isProduction {
			if id, ok := identityFromHeaders(c); ok {
				c.Locals(identityLocal, id)
				return c.Next()
			}
		}

		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Authorization required"))
	}
}

// AdminRequired rejects callers whose identity lacks the admin capability.
// Must run after IdentityRequired.
func AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := IdentityFromCtx(c)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}
		if !id.IsAdmin {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewUnauthorizedError("Admin access required"))
		}
		return c.Next()
	}
}

func identityFromBearer(c *fiber.Ctx) (models.Identity, bool) {
	authHeader := c.Get("Authorization")
	if authHeader == "" || cfg == nil {
		return models.Identity{}, false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return models.Identity{}, false
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return models.Identity{}, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return models.Identity{}, false
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return models.Identity{}, false
	}

	id := models.Identity{ID: sub}
	if name, ok := claims["name"].(string); ok {
		id.Name = name
	}
	if college, ok := claims["college_id"].(string); ok {
		id.CollegeID = college
	}
	if role, ok := claims["role"].(string); ok {
		id.IsAdmin = strings.EqualFold(role, "admin")
	}
	return id, true
}

// identityFromHeaders trusts gateway-injected headers. Valid roles mirror the
// upstream identity service: student, faculty, admin.
func identityFromHeaders(c *fiber.Ctx) (models.Identity, bool) {
	role := strings.ToLower(c.Get("X-User-Role"))
	switch role {
	case "student", "faculty", "admin":
	default:
		return models.Identity{}, false
	}

	userID := c.Get("X-User-Id")
	if userID == "" {
		return models.Identity{}, false
	}

	return models.Identity{
		ID:        userID,
		Name:      c.Get("X-User-Name"),
		CollegeID: c.Get("X-College-Id"),
		IsAdmin:   role == "admin",
	}, true
}

package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/compass-api/internal/utils"
)

// Auth role constants used by WithAuth.
const (
	AuthRoleAny     = "any"
	AuthRoleTeacher = "teacher"
	AuthRoleStudent = "student"
	AuthRoleParent  = "parent"
	// AuthRoleViewer admits the roles that may read assessment results.
	AuthRoleViewer = "viewer"
)

// AuthOptions configures the WithAuth helper.
type AuthOptions struct {
	Role        string
	RequireUser bool
}

// WithAuth wraps a single handler with authentication and role guards.
func WithAuth(handler fiber.Handler, opts AuthOptions) fiber.Handler {
	role := strings.ToLower(strings.TrimSpace(opts.Role))
	if role == "" {
		role = AuthRoleAny
	}
	requireUser := opts.RequireUser || role != AuthRoleAny

	return func(c *fiber.Ctx) error {
		if requireUser && c.Locals(LocalUserID) == nil {
			return utils.Fail(c, fiber.StatusUnauthorized, "authentication required", nil)
		}

		current := normalizeRoleValue(c.Locals(LocalUserRole))
		allowed := true
		switch role {
		case AuthRoleAny:
		case AuthRoleViewer:
			allowed = current == AuthRoleStudent || current == AuthRoleParent
		case AuthRoleTeacher:
			allowed = current == AuthRoleTeacher || current == "admin"
		default:
			allowed = current == role
		}
		if !allowed {
			return utils.Fail(c, fiber.StatusForbidden, "insufficient permissions", fiber.Map{"required": role})
		}

		return handler(c)
	}
}

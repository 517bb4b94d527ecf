package handlers

import (
	"github.com/gofiber/fiber/v2"

	"nittanymarket/internal/domain"
	applog "nittanymarket/internal/log"
	"nittanymarket/internal/services"
)

const sidCookie = "sid"

// LoadUser attaches the session's account to Locals("user") when the sid
// cookie names a live session. Anonymous requests pass through untouched.
func LoadUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if sid := c.Cookies(sidCookie); sid != "" {
			u, err := auth.CurrentUser(c.UserContext(), sid)
			if err != nil {
				applog.Error(c, "session.load", err, nil)
			} else if u != nil {
				c.Locals("user", u)
				c.Locals("sid", sid)
			}
		}
		return c.Next()
	}
}

// RequireUser enforces that a user is logged in; otherwise redirect to login.
func RequireUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if resolveUser(c, auth) == nil {
			return redirectWithFlash(c, "/login", "Please log in to continue.")
		}
		return c.Next()
	}
}

// RequireRole lets through only accounts holding one of roles. Anonymous
// requests are sent to login; other roles get a logged 403.
func RequireRole(auth *services.AuthService, roles ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u := resolveUser(c, auth)
		if u == nil {
			return redirectWithFlash(c, "/login", "Please log in to continue.")
		}
		for _, r := range roles {
			if u.Is(r) {
				return c.Next()
			}
		}
		applog.Security(c, "access.denied.role", map[string]any{"email": u.Email, "role": string(u.Role)})
		return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Access denied", "User": u})
	}
}

func resolveUser(c *fiber.Ctx, auth *services.AuthService) *domain.Account {
	if u := currentUser(c); u != nil {
		return u
	}
	sid := c.Cookies(sidCookie)
	if sid == "" {
		return nil
	}
	u, err := auth.CurrentUser(c.UserContext(), sid)
	if err != nil || u == nil {
		return nil
	}
	c.Locals("user", u)
	c.Locals("sid", sid)
	return u
}

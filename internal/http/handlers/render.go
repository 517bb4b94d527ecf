package handlers

import (
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"

	"nittanymarket/internal/domain"
)

const flashCookie = "flash"

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if u := currentUser(c); u != nil {
		data["User"] = u
	}
	// Pick up the token the CSRF middleware put into Locals
	tok, _ := c.Locals("CSRFToken").(string)
	if tok == "" {
		tok = c.Cookies("csrf_")
	}
	if tok != "" {
		data["CSRFToken"] = tok
	}
	if _, ok := data["Flash"]; !ok {
		if msg := popFlash(c); msg != "" {
			data["Flash"] = msg
		}
	}
	return c.Render(tmpl, data)
}

// notFound renders the generic message page; it is also used for access
// denials so that other users' resources are indistinguishable from missing ones.
func notFound(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": msg, "User": currentUser(c)})
}

func serverError(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": msg, "User": currentUser(c)})
}

// redirectWithFlash shows msg once on the next rendered page.
func redirectWithFlash(c *fiber.Ctx, to, msg string) error {
	c.Cookie(&fiber.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(msg),
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Now().Add(time.Minute),
	})
	return c.Redirect(to)
}

func popFlash(c *fiber.Ctx) string {
	raw := c.Cookies(flashCookie)
	if raw == "" {
		return ""
	}
	c.Cookie(&fiber.Cookie{Name: flashCookie, Value: "", Path: "/", Expires: time.Now().Add(-time.Hour)})
	msg, err := url.QueryUnescape(raw)
	if err != nil {
		return ""
	}
	return msg
}

func currentUser(c *fiber.Ctx) *domain.Account {
	u, _ := c.Locals("user").(*domain.Account)
	return u
}

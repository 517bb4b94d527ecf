// Package server assembles the fiber application: middleware stack, views
// and the route table.
package server

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	"nittanymarket/internal/config"
	"nittanymarket/internal/domain"
	"nittanymarket/internal/http/handlers"
	applog "nittanymarket/internal/log"
	"nittanymarket/internal/metrics"
	"nittanymarket/internal/repos"
)

// Limits on the throttled routes, per client IP.
type Limits struct {
	Global      int
	Login       int
	LoginWindow time.Duration
	Search      int
}

func DefaultLimits() Limits {
	return Limits{Global: 120, Login: 5, LoginWindow: 10 * time.Minute, Search: 30}
}

type Options struct {
	Limits Limits
	// AccessLog enables fiber's request logger; tests leave it off.
	AccessLog bool
}

func New(store *repos.Store, cfg config.Config, m *metrics.Metrics, opt Options) *fiber.App {
	if opt.Limits == (Limits{}) {
		opt.Limits = DefaultLimits()
	}
	engine := html.New(cfg.TemplatesDir, ".html")

	app := fiber.New(fiber.Config{
		Views:        engine,
		BodyLimit:    1 << 20,
		ErrorHandler: ErrorHandler,
	})

	deps := handlers.NewDeps(store, cfg, m)
	auth := deps.Auth

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	if opt.AccessLog {
		app.Use(logger.New())
	}
	app.Use(helmet.New())
	app.Use(m.Middleware())
	app.Use(handlers.LoadUser(auth))
	app.Use(limiter.New(limiter.Config{
		Max:        opt.Limits.Global,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			p := c.Path()
			return strings.HasPrefix(p, "/static/") || p == "/healthz" || p == "/metrics"
		},
	}))
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   cfg.CookieSecure,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", map[string]any{"err": err.Error()})
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
		},
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok, ok := c.Locals("csrf").(string); ok {
			c.Locals("CSRFToken", tok)
		}
		return c.Next()
	})

	if cfg.StaticDir != "" {
		app.Static("/static", cfg.StaticDir)
	}

	// ---------- Public pages ----------
	app.Get("/", deps.DashboardHandler.Home)
	app.Get("/login", deps.AuthHandler.LoginForm)
	app.Post("/login", limiter.New(limiter.Config{
		Max:        opt.Limits.Login,
		Expiration: opt.Limits.LoginWindow,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).Render("login", fiber.Map{"Err": "Too many attempts. Please try again later."})
		},
	}), deps.AuthHandler.Login)
	app.Get("/signup", deps.AuthHandler.SignupForm)
	app.Post("/signup", deps.AuthHandler.Signup)
	app.Get("/forgot-password", deps.AuthHandler.ForgotPassword)
	app.Post("/logout", deps.AuthHandler.Logout)

	app.Get("/product/search", limiter.New(limiter.Config{
		Max:        opt.Limits.Search,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.search.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).Render("notfound", fiber.Map{"Message": "Too many searches. Please slow down."})
		},
	}), deps.SearchHandler.Search)
	app.Get("/product/:id", deps.ProductHandler.Detail)

	// ---------- Signed-in pages ----------
	anyUser := handlers.RequireUser(auth)
	buyer := handlers.RequireRole(auth, domain.RoleBuyer)

	app.Get("/dashboard", anyUser, deps.AuthHandler.Dashboard)
	app.Get("/buyer", buyer, deps.DashboardHandler.Buyer)
	app.Get("/seller", handlers.RequireRole(auth, domain.RoleSeller), deps.DashboardHandler.Seller)
	app.Get("/helpdesk", handlers.RequireRole(auth, domain.RoleHelpdesk), deps.DashboardHandler.Helpdesk)

	app.Post("/order/add-to-cart", buyer, deps.CheckoutHandler.AddToCart)
	app.Get("/checkout/:id", buyer, deps.CheckoutHandler.Form)
	app.Post("/checkout/:id", buyer, deps.CheckoutHandler.Place)
	app.Get("/order/:id", anyUser, deps.OrderHandler.View)
	app.Post("/review", buyer, deps.ReviewHandler.Submit)
	app.Post("/profile", anyUser, deps.ProfileHandler.Update)

	app.Get("/payment/new", buyer, deps.PaymentHandler.New)
	app.Post("/payment", buyer, deps.PaymentHandler.Create)
	app.Get("/payment/:id/edit", buyer, deps.PaymentHandler.EditForm)
	app.Post("/payment/:id/edit", buyer, deps.PaymentHandler.Update)
	app.Post("/payment/:id/delete", buyer, deps.PaymentHandler.Delete)

	// ---------- Ops ----------
	app.Get("/healthz", func(c *fiber.Ctx) error {
		if err := store.DB().PingContext(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"ok": false})
		}
		return c.JSON(fiber.Map{"ok": true})
	})
	app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Page not found"})
	})
	return app
}

// ErrorHandler logs and shows a friendly message without internals.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Something went wrong. Please try again."
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < 500 {
		code = fe.Code
		msg = fe.Message
	}
	if code >= 500 {
		applog.Error(c, "server.error", err, nil)
	}
	if rerr := c.Status(code).Render("notfound", fiber.Map{"Message": msg}); rerr != nil {
		return c.Status(code).SendString(msg)
	}
	return nil
}

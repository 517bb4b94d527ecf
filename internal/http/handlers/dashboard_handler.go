package handlers

import (
	"github.com/gofiber/fiber/v2"

	"nittanymarket/internal/log"
	"nittanymarket/internal/services"
)

type DashboardHandler struct {
	Catalog   *services.CatalogService
	Dashboard *services.DashboardService
}

func (h *DashboardHandler) Home(c *fiber.Ctx) error {
	home, err := h.Catalog.Home(c.UserContext(), 8)
	if err != nil {
		log.Error(c, "home.load", err, nil)
		return serverError(c, "Could not load the catalog. Please retry.")
	}
	return render(c, "home", fiber.Map{"Home": home})
}

func (h *DashboardHandler) Buyer(c *fiber.Ctx) error {
	d, err := h.Dashboard.Buyer(c.UserContext(), currentUser(c))
	if err != nil {
		log.Error(c, "dashboard.buyer", err, nil)
		return serverError(c, "Could not load your dashboard.")
	}
	return render(c, "buyer", fiber.Map{"D": d, "Tab": tab(c, "products", "orders", "profile", "categories")})
}

func (h *DashboardHandler) Seller(c *fiber.Ctx) error {
	d, err := h.Dashboard.Seller(c.UserContext(), currentUser(c))
	if err != nil {
		log.Error(c, "dashboard.seller", err, nil)
		return serverError(c, "Could not load your dashboard.")
	}
	return render(c, "seller", fiber.Map{"D": d})
}

func (h *DashboardHandler) Helpdesk(c *fiber.Ctx) error {
	d, err := h.Dashboard.Helpdesk(c.UserContext())
	if err != nil {
		log.Error(c, "dashboard.helpdesk", err, nil)
		return serverError(c, "Could not load your dashboard.")
	}
	return render(c, "helpdesk", fiber.Map{"D": d})
}

// tab returns the ?tab= query when it is one of allowed, else the first.
func tab(c *fiber.Ctx, allowed ...string) string {
	t := c.Query("tab")
	for _, a := range allowed {
		if t == a {
			return t
		}
	}
	return allowed[0]
}

package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	applog "nittanymarket/internal/log"
	"nittanymarket/internal/services"
	"nittanymarket/internal/validate"
)

type OrderHandler struct {
	Orders *services.OrderService
}

func (h *OrderHandler) View(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFound(c, "Order not found")
	}
	u := currentUser(c)
	v, err := h.Orders.View(c.UserContext(), u, id)
	switch {
	case errors.Is(err, services.ErrNotFound):
		return notFound(c, "Order not found")
	case errors.Is(err, services.ErrUnauthorized):
		applog.Security(c, "access.denied.order", map[string]any{"order_id": id, "email": u.Email})
		return notFound(c, "Order not found")
	case err != nil:
		applog.Error(c, "order.load", err, map[string]any{"order_id": id})
		return serverError(c, "Could not load this order.")
	}
	canReview := u.Email == v.Order.BuyerEmail
	return render(c, "order", fiber.Map{"O": v, "CanReview": canReview})
}

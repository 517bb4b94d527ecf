package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"nittanymarket/internal/log"
	"nittanymarket/internal/services"
	"nittanymarket/internal/validate"
)

type ProductHandler struct {
	Catalog *services.CatalogService
}

func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "product"})
		return notFound(c, "This item is no longer available")
	}
	v, err := h.Catalog.Product(c.UserContext(), id)
	if errors.Is(err, services.ErrNotFound) {
		return notFound(c, "This item is no longer available")
	}
	if err != nil {
		log.Error(c, "product.load", err, map[string]any{"listing_id": id})
		return serverError(c, "Could not load this item. Please retry.")
	}
	return render(c, "product", fiber.Map{"P": v})
}

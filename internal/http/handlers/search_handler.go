package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"nittanymarket/internal/log"
	"nittanymarket/internal/repos"
	"nittanymarket/internal/services"
	"nittanymarket/internal/validate"
)

type SearchHandler struct {
	Catalog *services.CatalogService
}

func (h *SearchHandler) Search(c *fiber.Ctx) error {
	ctx := c.UserContext()
	cats, err := h.Catalog.ListCategories(ctx)
	if err != nil {
		log.Error(c, "search.categories", err, nil)
		return serverError(c, "Could not load results. Please retry.")
	}
	data := fiber.Map{
		"Categories":  cats,
		"SortOptions": services.SortOptions,
		"Q":           "",
		"Products":    nil,
		"Count":       0,
	}
	fail := func(field, msg string) error {
		log.Security(c, "validation.fail", map[string]any{"field": field})
		data["Err"] = msg
		return c.Status(fiber.StatusBadRequest).Render("search", withUser(c, data))
	}

	rawQ := c.Query("q")
	q, ok := validate.Q(rawQ)
	if !ok {
		return fail("q", "Enter a valid keyword (letters/numbers only)")
	}
	f := repos.ListingFilter{Query: q, Sort: c.Query("sort", repos.SortRelevance)}
	data["Q"] = q
	data["Sort"] = f.Sort

	if cat := strings.TrimSpace(c.Query("category")); cat != "" {
		known := false
		for _, k := range cats {
			if k.Name == cat {
				known = true
				break
			}
		}
		if !known {
			return fail("category", "Invalid category")
		}
		f.Category = cat
		data["Category"] = cat
	}
	if f.MinPrice, ok = validate.Price(c.Query("min_price")); !ok {
		return fail("min_price", "Invalid minimum price")
	}
	if f.MaxPrice, ok = validate.Price(c.Query("max_price")); !ok {
		return fail("max_price", "Invalid maximum price")
	}
	data["MinPrice"] = c.Query("min_price")
	data["MaxPrice"] = c.Query("max_price")

	products, err := h.Catalog.Search(ctx, f)
	if errors.Is(err, services.ErrInvalidInput) {
		return fail("price_range", "Minimum price must not exceed maximum price")
	}
	if err != nil {
		log.Error(c, "search.error", err, nil)
		return serverError(c, "Could not load results. Please retry.")
	}
	data["Products"] = products
	data["Count"] = len(products)
	return render(c, "search", data)
}

func withUser(c *fiber.Ctx, data fiber.Map) fiber.Map {
	if u := currentUser(c); u != nil {
		data["User"] = u
	}
	if tok := c.Cookies("csrf_"); tok != "" {
		data["CSRFToken"] = tok
	}
	return data
}

package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	applog "nittosodai/internal/log"
	"nittosodai/internal/repos"
	"nittosodai/internal/services"
	"nittosodai/internal/validate"
)

type ProductHandler struct {
	Catalog *services.CatalogService
}

// Detail shows one product with its brand, weight, id and tags.
func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	feedID, ok := validate.PathID(c.Params("feed"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "feed"})
		return notFound(c, fiber.StatusNotFound, "This item is no longer available")
	}
	id, ok := validate.PathID(c.Params("id"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "product"})
		return notFound(c, fiber.StatusNotFound, "This item is no longer available")
	}
	p, err := h.Catalog.GetProduct(c.UserContext(), feedID, id)
	if errors.Is(err, repos.ErrProductNotFound) {
		return notFound(c, fiber.StatusNotFound, "This item is no longer available")
	}
	if err != nil {
		applog.Error(c, "catalog.product", err, map[string]any{"feed": feedID, "product": id})
		return notFound(c, fiber.StatusBadGateway, "Couldn't load this product")
	}
	p.Category = validate.Text(c.Query("cat"), 80)
	return render(c, "product", fiber.Map{"P": p, "FeedID": feedID})
}

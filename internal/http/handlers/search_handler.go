package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"nittosodai/internal/domain"
	"nittosodai/internal/log"
	"nittosodai/internal/services"
	"nittosodai/internal/validate"
)

type SearchHandler struct {
	Catalog *services.CatalogService
}

func (h *SearchHandler) Search(c *fiber.Ctx) error {
	rawQ := c.Query("q")
	if strings.TrimSpace(rawQ) == "" {
		// Initial page load: show empty search without errors
		return render(c, "search", fiber.Map{"Q": "", "Products": []domain.Product{}, "Count": 0})
	}
	q, ok := validate.Q(rawQ)
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "q", "value": rawQ})
		c.Status(fiber.StatusBadRequest)
		return render(c, "search", fiber.Map{
			"Q": "", "Products": []domain.Product{}, "Count": 0, "Err": "Enter a valid keyword (letters/numbers only)",
		})
	}

	products, err := h.Catalog.Search(c.UserContext(), q)
	if err != nil {
		log.Error(c, "search.error", err, map[string]any{"q": q})
		return render(c, "search", fiber.Map{"Q": q, "Products": []domain.Product{}, "Count": 0, "Err": "Couldn't load categories"})
	}
	log.Info(c, "search", map[string]any{"q": q, "results": len(products)})
	return render(c, "search", fiber.Map{"Q": q, "Products": products, "Count": len(products)})
}

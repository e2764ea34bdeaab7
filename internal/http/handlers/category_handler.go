package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "nittosodai/internal/log"
	"nittosodai/internal/services"
	"nittosodai/internal/validate"
)

type CategoryHandler struct {
	Catalog *services.CatalogService
}

func (h *CategoryHandler) Home(c *fiber.Ctx) error {
	cats, err := h.Catalog.ListCategories(c.UserContext())
	if err != nil {
		applog.Error(c, "catalog.categories", err, nil)
		return render(c, "home", fiber.Map{"Err": "Couldn't load categories"})
	}
	return render(c, "home", fiber.Map{"Categories": cats})
}

func (h *CategoryHandler) List(c *fiber.Ctx) error {
	feedID, ok := validate.PathID(c.Params("id"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "category"})
		return notFound(c, fiber.StatusNotFound, "No category selected")
	}
	name := validate.Text(c.Query("cat"), 80)

	products, err := h.Catalog.ListProductsByCategory(c.UserContext(), feedID, name)
	if err != nil {
		applog.Error(c, "catalog.products", err, map[string]any{"feed": feedID})
		return render(c, "category", fiber.Map{"FeedID": feedID, "Category": name, "Err": "Couldn't load products"})
	}
	data := fiber.Map{"FeedID": feedID, "Category": name, "Products": products}
	if len(products) == 0 {
		data["Empty"] = "No products found in this category"
	}
	return render(c, "category", data)
}

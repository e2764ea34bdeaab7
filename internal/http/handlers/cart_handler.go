package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	applog "nittosodai/internal/log"
	"nittosodai/internal/repos"
	"nittosodai/internal/services"
	"nittosodai/internal/sheets"
	"nittosodai/internal/validate"
)

type CartHandler struct {
	Cart *services.CartService
}

func (h *CartHandler) View(c *fiber.Ctx) error {
	cv, err := h.Cart.View(c.UserContext(), ensureSID(c))
	if err != nil {
		return err
	}
	return render(c, "cart", fiber.Map{"Cart": cv})
}

// Add puts a catalog product in the cart. Only ids are posted; the price is
// always read back from the product feed.
func (h *CartHandler) Add(c *fiber.Ctx) error {
	sid := ensureSID(c)
	feedID, ok := validate.ID(c.FormValue("feedId"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "feedId"})
		return notFound(c, fiber.StatusBadRequest, "This item is no longer available")
	}
	productID, ok := validate.ID(c.FormValue("productId"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "productId"})
		return notFound(c, fiber.StatusBadRequest, "This item is no longer available")
	}
	qty := validate.Qty(c.FormValue("qty"))

	p, err := h.Cart.Add(c.UserContext(), sid, feedID, productID, qty)
	switch {
	case err == nil:
	case errors.Is(err, repos.ErrProductNotFound):
		return notFound(c, fiber.StatusNotFound, "This item is no longer available")
	case errors.Is(err, services.ErrOutOfStock):
		return notFound(c, fiber.StatusConflict, "This item is out of stock")
	case sheets.IsFetchFailure(err):
		applog.Error(c, "cart.add.fetch", err, map[string]any{"feed": feedID})
		return notFound(c, fiber.StatusBadGateway, "Couldn't load products")
	default:
		return err
	}
	applog.Info(c, "cart.add", map[string]any{"product": p.ID, "qty": qty, "price": p.EffectivePrice()})
	return c.Redirect(backTo(c, "/cart"))
}

func (h *CartHandler) Increment(c *fiber.Ctx) error {
	return h.mutate(c, func(sid, id string) error { return h.Cart.Increment(c.UserContext(), sid, id) })
}

func (h *CartHandler) Decrement(c *fiber.Ctx) error {
	return h.mutate(c, func(sid, id string) error { return h.Cart.Decrement(c.UserContext(), sid, id) })
}

func (h *CartHandler) Remove(c *fiber.Ctx) error {
	return h.mutate(c, func(sid, id string) error { return h.Cart.Remove(c.UserContext(), sid, id) })
}

// Update sets an explicit quantity; values below 1 leave the entry unchanged.
func (h *CartHandler) Update(c *fiber.Ctx) error {
	qty, ok := validate.Quantity(c.FormValue("qty"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "qty"})
		return c.Redirect(backTo(c, "/cart"))
	}
	return h.mutate(c, func(sid, id string) error { return h.Cart.SetQuantity(c.UserContext(), sid, id, qty) })
}

func (h *CartHandler) mutate(c *fiber.Ctx, fn func(sid, id string) error) error {
	sid := ensureSID(c)
	id, ok := validate.PathID(c.Params("id"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "id"})
		return notFound(c, fiber.StatusBadRequest, "This item is no longer available")
	}
	if err := fn(sid, id); err != nil {
		return err
	}
	return c.Redirect(backTo(c, "/cart"))
}

// Preview serves the header badge and side preview.
func (h *CartHandler) Preview(c *fiber.Ctx) error {
	sid := sessionID(c)
	if sid == "" {
		return c.JSON(services.NewCartView(nil))
	}
	cv, err := h.Cart.View(c.UserContext(), sid)
	if err != nil {
		applog.Error(c, "cart.preview", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not load cart"})
	}
	return c.JSON(cv)
}

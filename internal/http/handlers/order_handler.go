package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"nittosodai/internal/domain"
	applog "nittosodai/internal/log"
	"nittosodai/internal/receipt"
	"nittosodai/internal/repos"
	"nittosodai/internal/services"
	"nittosodai/internal/validate"
)

const (
	msgEmptyCart     = "Your cart is empty, add some items to order!"
	msgMissingFields = "Please fill in your name and phone number to complete the order."
	msgSubmitFailed  = "Error placing order. Please try again."
	msgPlaced        = "Order placed successfully! Thank you!"
	msgNotSaved      = "Your order was sent to the shop but could not be saved on this device. Please don't submit it again; your cart has been kept."
)

type OrderHandler struct {
	Cart     *services.CartService
	Order    *services.OrderService
	Receipts *receipt.Service
}

func (h *OrderHandler) Place(c *fiber.Ctx) error {
	sid := ensureSID(c)
	customer := domain.Customer{
		Name:    validate.Text(c.FormValue("name"), 100),
		Phone:   validate.Text(c.FormValue("phone"), 30),
		Address: validate.Text(c.FormValue("address"), 300),
	}

	o, err := h.Order.Submit(c.UserContext(), sid, customer)
	if err != nil {
		var missing *services.MissingFieldsError
		var submit *services.SubmissionError
		var archive *services.ArchiveError
		switch {
		case errors.Is(err, services.ErrEmptyCart):
			return h.cartWithMessage(c, sid, fiber.StatusBadRequest, msgEmptyCart, customer)
		case errors.As(err, &missing):
			applog.Security(c, "validation.fail", map[string]any{"fields": missing.Fields})
			return h.cartWithMessage(c, sid, fiber.StatusBadRequest, msgMissingFields, customer)
		case errors.As(err, &submit):
			applog.Error(c, "order.submit.fail", err, nil)
			return h.cartWithMessage(c, sid, fiber.StatusBadGateway, msgSubmitFailed, customer)
		case errors.As(err, &archive):
			applog.Error(c, "order.history.append", err, map[string]any{"order_id": archive.OrderID})
			return h.cartWithMessage(c, sid, fiber.StatusInternalServerError, msgNotSaved, customer)
		default:
			return err
		}
	}

	applog.Audit(c, "order.place", map[string]any{
		"order_id": o.ID,
		"items":    o.ItemCount(),
		"total":    o.TotalPrice,
	})
	return c.Redirect("/orders/" + o.ID + "?placed=1")
}

// cartWithMessage re-renders the cart with the customer's input kept.
func (h *OrderHandler) cartWithMessage(c *fiber.Ctx, sid string, status int, msg string, customer domain.Customer) error {
	cv, err := h.Cart.View(c.UserContext(), sid)
	if err != nil {
		return err
	}
	c.Locals("CartCount", cv.Count)
	c.Status(status)
	return render(c, "cart", fiber.Map{"Cart": cv, "Err": msg, "Customer": customer})
}

func (h *OrderHandler) History(c *fiber.Ctx) error {
	sid := sessionID(c)
	if sid == "" {
		return render(c, "orders", fiber.Map{"Orders": []domain.Order{}})
	}
	orders, err := h.Order.History(c.UserContext(), sid)
	if err != nil {
		applog.Error(c, "orders.history.fail", err, nil)
		return notFound(c, fiber.StatusInternalServerError, "Could not load orders")
	}
	return render(c, "orders", fiber.Map{"Orders": orders})
}

// lookup finds an order in the caller's own history; other sessions' orders
// are reported as not found.
func (h *OrderHandler) lookup(c *fiber.Ctx) (domain.Order, bool, error) {
	oid, ok := validate.PathID(c.Params("id"))
	sid := sessionID(c)
	if !ok || sid == "" {
		applog.Security(c, "access.denied.order", map[string]any{"order_id": c.Params("id")})
		return domain.Order{}, false, nil
	}
	o, err := h.Order.Get(c.UserContext(), sid, oid)
	if errors.Is(err, repos.ErrOrderNotFound) {
		applog.Security(c, "access.denied.order", map[string]any{"order_id": oid})
		return domain.Order{}, false, nil
	}
	if err != nil {
		return domain.Order{}, false, err
	}
	return o, true, nil
}

func (h *OrderHandler) View(c *fiber.Ctx) error {
	o, ok, err := h.lookup(c)
	if err != nil {
		return err
	}
	if !ok {
		return notFound(c, fiber.StatusNotFound, "Order not found")
	}
	data := fiber.Map{"Order": o}
	if c.Query("placed") == "1" {
		data["Message"] = msgPlaced
	}
	return render(c, "order", data)
}

// Receipt serves the printable 80mm receipt page.
func (h *OrderHandler) Receipt(c *fiber.Ctx) error {
	o, ok, err := h.lookup(c)
	if err != nil {
		return err
	}
	if !ok {
		return notFound(c, fiber.StatusNotFound, "Order not found")
	}
	b, err := h.Receipts.HTML(o)
	if err != nil {
		return err
	}
	c.Type("html", "utf-8")
	return c.Send(b)
}

func (h *OrderHandler) ReceiptPDF(c *fiber.Ctx) error {
	o, ok, err := h.lookup(c)
	if err != nil {
		return err
	}
	if !ok {
		return notFound(c, fiber.StatusNotFound, "Order not found")
	}
	b, err := h.Receipts.PDF(o)
	if err != nil {
		applog.Error(c, "receipt.pdf", err, map[string]any{"order_id": o.ID})
		return notFound(c, fiber.StatusServiceUnavailable, "Receipt PDF is unavailable right now. Use the printable receipt instead.")
	}
	c.Set(fiber.HeaderContentDisposition, `inline; filename="receipt-`+o.ID+`.pdf"`)
	c.Type("pdf")
	return c.Send(b)
}

package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"nittosodai/internal/config"
	applog "nittosodai/internal/log"
	"nittosodai/internal/metrics"
	"nittosodai/internal/receipt"
	"nittosodai/internal/repos"
	"nittosodai/internal/services"
)

type Deps struct {
	CategoryHandler *CategoryHandler
	ProductHandler  *ProductHandler
	SearchHandler   *SearchHandler
	CartHandler     *CartHandler
	OrderHandler    *OrderHandler

	Cart      *services.CartService
	StoreName string
}

// NewDeps wires repositories and services over the session state store, the
// spreadsheet row source and the order sink.
func NewDeps(state repos.StateStore, rows repos.RowSource, sink services.OrderSink, cfg config.Config, m *metrics.Store) *Deps {
	catRepo := repos.NewCategoryRepo(rows, cfg.HomeSpreadsheetID, cfg.CategorySheetName)
	prodRepo := repos.NewProductRepo(rows, cfg.ProductSheetName)
	cartRepo := repos.NewCartRepo(state)
	orderRepo := repos.NewOrderRepo(state)

	catalogSvc := services.NewCatalogService(catRepo, prodRepo, m)
	cartSvc := services.NewCartService(cartRepo, prodRepo, m)
	orderSvc := services.NewOrderService(cartRepo, orderRepo, sink, cfg.HistoryLimit, m)
	receipts := receipt.NewService(cfg.StoreName, cfg.WkhtmltopdfPath)

	return &Deps{
		CategoryHandler: &CategoryHandler{Catalog: catalogSvc},
		ProductHandler:  &ProductHandler{Catalog: catalogSvc},
		SearchHandler:   &SearchHandler{Catalog: catalogSvc},
		CartHandler:     &CartHandler{Cart: cartSvc},
		OrderHandler:    &OrderHandler{Cart: cartSvc, Order: orderSvc, Receipts: receipts},
		Cart:            cartSvc,
		StoreName:       cfg.StoreName,
	}
}

// Session exposes the cart count and store name to every rendered page.
func (d *Deps) Session(c *fiber.Ctx) error {
	c.Locals("StoreName", d.StoreName)
	count := 0
	if sid := sessionID(c); sid != "" && c.Method() == fiber.MethodGet {
		if cart, err := d.Cart.Get(c.UserContext(), sid); err == nil {
			count = cart.TotalCount()
		} else {
			applog.Error(c, "cart.load", err, nil)
		}
	}
	c.Locals("CartCount", count)
	return c.Next()
}

// Register mounts the storefront routes.
func (d *Deps) Register(app *fiber.App, searchLimit int) {
	app.Use(d.Session)

	app.Get("/", d.CategoryHandler.Home)
	app.Get("/category/:id", d.CategoryHandler.List)
	app.Get("/product/:feed/:id", d.ProductHandler.Detail)
	app.Get("/search", limiter.New(limiter.Config{
		Max:        searchLimit,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.search.hit", nil)
			return notFound(c, fiber.StatusTooManyRequests, "Too many searches. Please wait a moment.")
		},
	}), d.SearchHandler.Search)

	app.Get("/cart", d.CartHandler.View)
	app.Post("/cart", d.CartHandler.Add)
	app.Post("/cart/:id/increment", d.CartHandler.Increment)
	app.Post("/cart/:id/decrement", d.CartHandler.Decrement)
	app.Post("/cart/:id/remove", d.CartHandler.Remove)
	app.Post("/cart/:id", d.CartHandler.Update)

	app.Post("/orders", d.OrderHandler.Place)
	app.Get("/orders", d.OrderHandler.History)
	app.Get("/orders/:id", d.OrderHandler.View)
	app.Get("/orders/:id/receipt", d.OrderHandler.Receipt)
	app.Get("/orders/:id/receipt.pdf", d.OrderHandler.ReceiptPDF)

	api := app.Group("/api/v1")
	api.Get("/cart", d.CartHandler.Preview)
}

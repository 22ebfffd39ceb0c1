package handlers

import (
	"saboraoclique/internal/config"
	"saboraoclique/internal/format"
	applog "saboraoclique/internal/log"
	"saboraoclique/internal/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewEngine loads the page templates with the money and date helpers.
func NewEngine(dir string, reload bool) *html.Engine {
	engine := html.New(dir, ".html")
	engine.AddFunc("money", format.Money)
	engine.AddFunc("date", format.Date)
	engine.Reload(reload)
	return engine
}

// ErrorHandler logs the error and shows a friendly page without internals.
func ErrorHandler(c *fiber.Ctx, err error) error {
	if fe, ok := err.(*fiber.Error); ok && fe.Code == fiber.StatusNotFound {
		return fail(c, fiber.StatusNotFound, "Page not found")
	}
	applog.Error(c, "server.error", err, nil)
	if rerr := fail(c, fiber.StatusInternalServerError, "Something went wrong. Please try again."); rerr != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("Something went wrong. Please try again.")
	}
	return nil
}

func csrfFailed(c *fiber.Ctx, err error) error {
	applog.Security(c, "csrf.fail", map[string]any{"reason": err.Error()})
	return fail(c, fiber.StatusForbidden, "Security check failed. Please refresh and try again.")
}

// NewApp builds the fiber app with every route of the storefront.
func NewApp(cfg config.Config, d *Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		Views:        NewEngine(cfg.TemplatesDir, cfg.Env != "production"),
		ErrorHandler: ErrorHandler,
		BodyLimit:    cfg.BodyLimit,
	})

	// ---------- Middlewares ----------
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(applog.Middleware())
	app.Use(helmet.New())
	app.Use(d.viewLocals)
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   cfg.Env == "production",
		ContextKey:     "csrf",
		ErrorHandler:   csrfFailed,
	}))

	// ---------- Consumer screens ----------
	app.Get("/", d.CategoryHandler.Home)
	app.Get("/categories", d.CategoryHandler.List)
	app.Get("/products", d.ProductHandler.List)
	app.Get("/products/:id", d.ProductHandler.Detail)
	app.Get("/products/:id/image", d.ProductHandler.Image)
	app.Get("/products/:id/image/view", d.ProductHandler.ImageView)

	// Cart & Orders
	app.Get("/cart", d.CartHandler.View)
	app.Post("/cart", d.CartHandler.Add)
	app.Post("/cart/adjust", d.CartHandler.Adjust)
	app.Post("/cart/clear", d.CartHandler.Clear)
	app.Get("/checkout", d.OrderHandler.Checkout)
	app.Post("/checkout", d.OrderHandler.Place)
	app.Get("/orders", d.OrderHandler.History)
	app.Get("/top-sellers", d.OrderHandler.TopSellers)

	// ---------- Admin ----------
	// before the group: its prefix middleware would match /admin-lock too
	app.Post("/admin-lock", d.AdminHandler.ToggleLock)

	admin := app.Group("/admin", RequireUnlocked(d.Lock))
	admin.Get("/products", d.ProductHandler.AdminList)
	admin.Get("/products/new", d.ProductHandler.New)
	admin.Get("/products/export.xlsx", d.AdminHandler.ExportProducts)
	admin.Post("/products", d.ProductHandler.Create)
	admin.Get("/products/:id/edit", d.ProductHandler.Edit)
	admin.Post("/products/:id", d.ProductHandler.Update)
	admin.Post("/products/:id/delete", d.ProductHandler.Delete)

	admin.Get("/categories", d.CategoryHandler.AdminList)
	admin.Get("/categories/new", d.CategoryHandler.New)
	admin.Post("/categories", d.CategoryHandler.Create)
	admin.Get("/categories/:id/edit", d.CategoryHandler.Edit)
	admin.Post("/categories/:id", d.CategoryHandler.Update)
	admin.Post("/categories/:id/delete", d.CategoryHandler.Delete)

	// ---------- Ops ----------
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(metrics.Registry(cfg.MetricsNS), promhttp.HandlerOpts{})))

	app.Use(func(c *fiber.Ctx) error {
		return fail(c, fiber.StatusNotFound, "Page not found")
	})
	return app
}

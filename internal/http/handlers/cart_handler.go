package handlers

import (
	"errors"

	applog "saboraoclique/internal/log"
	"saboraoclique/internal/repos"
	"saboraoclique/internal/services"
	"saboraoclique/internal/validate"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type CartHandler struct {
	Cart *services.CartService
}

// ensureSID returns the cart session id, issuing the cookie on first visit.
func ensureSID(c *fiber.Ctx) string {
	sid := c.Cookies("sid")
	if sid == "" {
		sid = uuid.NewString()
		c.Cookie(&fiber.Cookie{
			Name:     "sid",
			Value:    sid,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}
	return sid
}

// viewCart is the session's cart for read-only screens. A visitor without one
// gets an empty cart that is not stored.
func viewCart(carts *services.CartService, c *fiber.Ctx) *services.Cart {
	if cart, ok := carts.Lookup(c.Cookies("sid")); ok {
		return cart
	}
	return services.NewCart()
}

// GET /cart
func (h *CartHandler) View(c *fiber.Ctx) error {
	cart := viewCart(h.Cart, c)
	return render(c, "cart", fiber.Map{
		"Lines": cart.Lines(),
		"Total": cart.Total(),
		"Count": cart.Count(),
	})
}

// POST /cart adds one unit and sends the user back where they came from.
func (h *CartHandler) Add(c *fiber.Ctx) error {
	sid := ensureSID(c)
	productID, ok := validate.ID(c.FormValue("productId"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "productId"})
		return fail(c, fiber.StatusBadRequest, "This item is no longer available")
	}
	p, qty, err := h.Cart.Add(sid, productID)
	if errors.Is(err, repos.ErrNotFound) {
		return fail(c, fiber.StatusNotFound, "This item is no longer available")
	}
	if err != nil {
		applog.Error(c, "cart.add.fail", err, map[string]any{"product_id": productID})
		return fail(c, fiber.StatusInternalServerError, "Could not update your cart")
	}
	applog.Info(c, "cart.add", map[string]any{"product_id": p.ID, "qty": qty})
	back := localPath(c.FormValue("back"), "/products/"+p.ID)
	return c.Redirect(withQuery(back, "added", p.ID))
}

// POST /cart/adjust
func (h *CartHandler) Adjust(c *fiber.Ctx) error {
	productID := c.FormValue("productId")
	delta := validate.Delta(c.FormValue("delta"))
	if delta == 0 {
		return c.Redirect("/cart")
	}
	qty, err := viewCart(h.Cart, c).Adjust(productID, delta)
	if errors.Is(err, services.ErrNotInCart) {
		// stale page, the line is already gone
		return c.Redirect("/cart")
	}
	if err != nil {
		applog.Error(c, "cart.adjust.fail", err, map[string]any{"product_id": productID})
		return fail(c, fiber.StatusInternalServerError, "Could not update your cart")
	}
	applog.Info(c, "cart.adjust", map[string]any{"product_id": productID, "delta": delta, "qty": qty})
	return c.Redirect("/cart")
}

// POST /cart/clear
func (h *CartHandler) Clear(c *fiber.Ctx) error {
	viewCart(h.Cart, c).Clear()
	applog.Info(c, "cart.clear", nil)
	return c.Redirect("/cart")
}

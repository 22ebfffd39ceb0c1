package handlers

import (
	"errors"
	"net/url"

	applog "saboraoclique/internal/log"
	"saboraoclique/internal/services"
	"saboraoclique/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type OrderHandler struct {
	Cart  *services.CartService
	Order *services.OrderService
}

const emptyCartNotice = "Your cart is empty. Add a product before checking out."

// GET /checkout?note=
func (h *OrderHandler) Checkout(c *fiber.Ctx) error {
	return h.checkout(c, c.Query("note"), "")
}

func (h *OrderHandler) checkout(c *fiber.Ctx, note, notice string) error {
	cart := viewCart(h.Cart, c)
	if notice == "" && cart.Empty() {
		notice = emptyCartNotice
	}
	code, date := h.Order.Preview()
	return render(c, "checkout", fiber.Map{
		"Lines":  cart.Lines(),
		"Total":  cart.Total(),
		"Note":   note,
		"Notice": notice,
		"Code":   code,
		"Date":   date,
	})
}

// POST /checkout commits the cart and moves to the order history.
func (h *OrderHandler) Place(c *fiber.Ctx) error {
	note, err := validate.Note(c.FormValue("note"))
	if err != nil {
		applog.Security(c, "validation.fail", map[string]any{"field": "note"})
		c.Status(fiber.StatusBadRequest)
		return h.checkout(c, c.FormValue("note"), "The note must be at most 500 characters.")
	}

	o, err := h.Order.Place(viewCart(h.Cart, c), note)
	if errors.Is(err, services.ErrCartEmpty) {
		applog.Info(c, "order.place.empty", nil)
		c.Status(fiber.StatusBadRequest)
		return h.checkout(c, note, emptyCartNotice)
	}
	if err != nil {
		applog.Error(c, "order.place.fail", err, map[string]any{
			"order_code":  o.Code,
			"order_id":    o.ID,
			"items_saved": len(o.Items),
		})
		return fail(c, fiber.StatusInternalServerError, "Could not place your order. Please try again.")
	}

	applog.Audit(c, "order.place", map[string]any{
		"order_id":   o.ID,
		"order_code": o.Code,
		"total":      o.Total,
		"items":      len(o.Items),
	})
	return c.Redirect("/orders?placed=" + url.QueryEscape(o.Code))
}

// GET /orders
func (h *OrderHandler) History(c *fiber.Ctx) error {
	orders, err := h.Order.History()
	if err != nil {
		applog.Error(c, "orders.history.fail", err, nil)
		return fail(c, fiber.StatusInternalServerError, "Could not load orders")
	}
	return render(c, "orders", fiber.Map{"Orders": orders, "Placed": c.Query("placed")})
}

// GET /top-sellers
func (h *OrderHandler) TopSellers(c *fiber.Ctx) error {
	top, err := h.Order.TopSellers()
	if err != nil {
		applog.Error(c, "orders.top_sellers.fail", err, nil)
		return fail(c, fiber.StatusInternalServerError, "Could not load top sellers")
	}
	return render(c, "top_sellers", fiber.Map{"Sellers": top})
}

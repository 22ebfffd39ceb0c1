package handlers

import (
	"errors"
	"net/url"
	"strings"

	"saboraoclique/internal/services"
	"saboraoclique/internal/validate"

	"github.com/gofiber/fiber/v2"
)

// viewLocals exposes the admin toggle and the cart badge to every template.
func (d *Deps) viewLocals(c *fiber.Ctx) error {
	c.Locals("adminUnlocked", !d.Lock.Locked())
	count := 0
	if sid := c.Cookies("sid"); sid != "" {
		if cart, ok := d.Carts.Lookup(sid); ok {
			count = cart.Count()
		}
	}
	c.Locals("cartCount", count)
	return c.Next()
}

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	data["AdminUnlocked"], _ = c.Locals("adminUnlocked").(bool)
	data["CartCount"], _ = c.Locals("cartCount").(int)
	// set by the csrf middleware on every request it lets through
	data["CSRFToken"], _ = c.Locals("csrf").(string)
	return c.Render(tmpl, data)
}

// fail renders the shared message page with status.
func fail(c *fiber.Ctx, status int, msg string) error {
	c.Status(status)
	return render(c, "notfound", fiber.Map{"Message": msg})
}

// localPath returns p when it is a same-site path, else fallback.
func localPath(p, fallback string) string {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.Contains(p, `\`) {
		return fallback
	}
	return p
}

// withQuery adds key=value to the query string of a local path.
func withQuery(p, key, value string) string {
	u, err := url.Parse(p)
	if err != nil {
		return p
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}

// formError maps a catalog write error to a status and an inline message.
// ok is false for anything the user cannot fix from the form.
func formError(err error) (status int, msg string, ok bool) {
	var fe *validate.FieldError
	switch {
	case errors.As(err, &fe):
		return fiber.StatusBadRequest, strings.ToUpper(fe.Field[:1]) + fe.Field[1:] + " " + fe.Msg, true
	case errors.Is(err, services.ErrDuplicateID):
		return fiber.StatusConflict, "An item with this code already exists. New codes follow the item count, so this one stays taken until an item is removed.", true
	}
	return 0, "", false
}

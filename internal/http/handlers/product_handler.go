package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"saboraoclique/internal/domain"
	applog "saboraoclique/internal/log"
	"saboraoclique/internal/repos"
	"saboraoclique/internal/services"
	"saboraoclique/internal/validate"

	"github.com/cespare/xxhash/v2"
	"github.com/gofiber/fiber/v2"
)

type ProductHandler struct {
	Catalog  *services.CatalogService
	MaxImage int
}

// chip is one active category filter.
type chip struct {
	ID        string
	Name      string
	RemoveURL string
}

// filterOption is a category that can still be added to the filters.
type filterOption struct {
	Name   string
	AddURL string
}

func productsURL(ids []string) string {
	if len(ids) == 0 {
		return "/products"
	}
	return "/products?" + url.Values{"category": ids}.Encode()
}

// GET /products?category=CAT01&category=CAT02
func (h *ProductHandler) List(c *fiber.Ctx) error {
	var ids []string
	for _, raw := range c.Context().QueryArgs().PeekMulti("category") {
		id, ok := validate.ID(string(raw))
		if !ok {
			applog.Security(c, "validation.fail", map[string]any{"field": "category"})
			continue
		}
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}

	products, err := h.Catalog.ListProducts(ids)
	if err != nil {
		applog.Error(c, "products.list.fail", err, map[string]any{"categories": ids})
		return fail(c, fiber.StatusInternalServerError, "Could not load products. Please retry.")
	}
	cats, err := h.Catalog.ListCategories()
	if err != nil {
		applog.Error(c, "categories.list.fail", err, nil)
		return fail(c, fiber.StatusInternalServerError, "Could not load products. Please retry.")
	}

	names := make(map[string]string, len(cats))
	for _, cat := range cats {
		names[cat.ID] = cat.Name
	}
	chips := make([]chip, 0, len(ids))
	for _, id := range ids {
		name, ok := names[id]
		if !ok {
			name = domain.Unknown
		}
		rest := slices.DeleteFunc(slices.Clone(ids), func(s string) bool { return s == id })
		chips = append(chips, chip{ID: id, Name: name, RemoveURL: productsURL(rest)})
	}
	var options []filterOption
	for _, cat := range cats {
		if !slices.Contains(ids, cat.ID) {
			options = append(options, filterOption{Name: cat.Name, AddURL: productsURL(append(slices.Clone(ids), cat.ID))})
		}
	}

	return render(c, "products", fiber.Map{
		"Products": products,
		"Chips":    chips,
		"Options":  options,
		"Filtered": len(ids) > 0,
		"Added":    c.Query("added") != "",
		"Back":     c.OriginalURL(),
	})
}

// GET /products/:id?source=consumer|admin
func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	p, ok, err := h.load(c)
	if !ok {
		return err
	}
	return render(c, "product", fiber.Map{
		"P":     p,
		"Admin": c.Query("source") == "admin",
		"Added": c.Query("added") != "",
		"Back":  c.OriginalURL(),
	})
}

// GET /products/:id/image/view
func (h *ProductHandler) ImageView(c *fiber.Ctx) error {
	p, ok, err := h.load(c)
	if !ok {
		return err
	}
	if !p.HasImage() {
		return fail(c, fiber.StatusNotFound, "This product has no image")
	}
	return render(c, "image", fiber.Map{"P": p})
}

// GET /products/:id/image serves the decoded bytes with a content hash ETag.
func (h *ProductHandler) Image(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.SendStatus(fiber.StatusNotFound)
	}
	b, err := h.Catalog.ProductImage(id)
	if errors.Is(err, repos.ErrNotFound) || (err == nil && len(b) == 0) {
		return c.SendStatus(fiber.StatusNotFound)
	}
	if err != nil {
		applog.Error(c, "products.image.fail", err, map[string]any{"product_id": id})
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	etag := fmt.Sprintf(`"%016x"`, xxhash.Sum64(b))
	c.Set(fiber.HeaderETag, etag)
	c.Set(fiber.HeaderCacheControl, "no-cache")
	if c.Get(fiber.HeaderIfNoneMatch) == etag {
		return c.SendStatus(fiber.StatusNotModified)
	}
	c.Set(fiber.HeaderContentType, http.DetectContentType(b))
	return c.Send(b)
}

// load fetches the :id product. When ok is false the response is already written
// and err is what the handler should return.
func (h *ProductHandler) load(c *fiber.Ctx) (domain.Product, bool, error) {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "product"})
		return domain.Product{}, false, fail(c, fiber.StatusNotFound, "This item is no longer available")
	}
	p, err := h.Catalog.GetProduct(id)
	if errors.Is(err, repos.ErrNotFound) {
		return p, false, fail(c, fiber.StatusNotFound, "This item is no longer available")
	}
	if err != nil {
		applog.Error(c, "products.load.fail", err, map[string]any{"product_id": id})
		return p, false, fail(c, fiber.StatusInternalServerError, "Could not load product")
	}
	return p, true, nil
}

// GET /admin/products
func (h *ProductHandler) AdminList(c *fiber.Ctx) error {
	products, err := h.Catalog.ListProducts(nil)
	if err != nil {
		applog.Error(c, "admin.products.list.fail", err, nil)
		return fail(c, fiber.StatusInternalServerError, "Could not load products")
	}
	return render(c, "admin_products", fiber.Map{"Products": products})
}

// GET /admin/products/new
func (h *ProductHandler) New(c *fiber.Ctx) error {
	id, err := h.Catalog.NextProductID()
	if err != nil {
		applog.Error(c, "admin.products.next_id.fail", err, nil)
		return fail(c, fiber.StatusInternalServerError, "Could not prepare the form")
	}
	return h.form(c, domain.Product{ID: id}, "", true, "")
}

// POST /admin/products
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	in, err := h.readInput(c, c.FormValue("id"))
	if err == nil {
		_, err = h.Catalog.CreateProduct(in)
	}
	if err != nil {
		return h.formFail(c, err, in, true)
	}
	applog.Audit(c, "admin.products.create", map[string]any{"product_id": in.ID, "image": len(in.Image) > 0})
	return c.Redirect("/admin/products")
}

// GET /admin/products/:id/edit
func (h *ProductHandler) Edit(c *fiber.Ctx) error {
	p, ok, err := h.load(c)
	if !ok {
		return err
	}
	return h.form(c, p, strconv.FormatFloat(p.Price, 'f', 2, 64), false, "")
}

// POST /admin/products/:id
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	in, err := h.readInput(c, c.Params("id"))
	if err == nil {
		_, err = h.Catalog.UpdateProduct(in)
	}
	if errors.Is(err, repos.ErrNotFound) {
		return fail(c, fiber.StatusNotFound, "This item is no longer available")
	}
	if err != nil {
		return h.formFail(c, err, in, false)
	}
	applog.Audit(c, "admin.products.update", map[string]any{
		"product_id":   in.ID,
		"image":        len(in.Image) > 0,
		"remove_image": in.RemoveImage,
	})
	return c.Redirect("/admin/products")
}

// POST /admin/products/:id/delete
func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	err := h.Catalog.DeleteProduct(id)
	if errors.Is(err, repos.ErrNotFound) {
		return fail(c, fiber.StatusNotFound, "This item is no longer available")
	}
	if err != nil {
		applog.Error(c, "admin.products.delete.fail", err, map[string]any{"product_id": id})
		return fail(c, fiber.StatusInternalServerError, "Could not delete product")
	}
	applog.Audit(c, "admin.products.delete", map[string]any{"product_id": id})
	return c.Redirect("/admin/products")
}

func (h *ProductHandler) readInput(c *fiber.Ctx, id string) (services.ProductInput, error) {
	in := services.ProductInput{
		ID:          id,
		Name:        c.FormValue("name"),
		Description: c.FormValue("description"),
		Price:       c.FormValue("price"),
		CategoryID:  c.FormValue("category_id"),
		RemoveImage: c.FormValue("remove_image") != "",
	}
	img, err := h.readImage(c)
	in.Image = img
	return in, err
}

// readImage returns the uploaded image bytes, or nil when the form has no file.
func (h *ProductHandler) readImage(c *fiber.Ctx) ([]byte, error) {
	fh, err := c.FormFile("image")
	if err != nil || fh.Size == 0 {
		return nil, nil
	}
	if fh.Size > int64(h.MaxImage) {
		return nil, &validate.FieldError{Field: "image", Msg: fmt.Sprintf("must be at most %d KiB", h.MaxImage>>10)}
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	b, err := io.ReadAll(io.LimitReader(f, int64(h.MaxImage)))
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(http.DetectContentType(b), "image/") {
		return nil, &validate.FieldError{Field: "image", Msg: "must be a PNG, JPEG, GIF or WebP file"}
	}
	return b, nil
}

func (h *ProductHandler) form(c *fiber.Ctx, p domain.Product, price string, isNew bool, msg string) error {
	cats, err := h.Catalog.ListCategories()
	if err != nil {
		applog.Error(c, "categories.list.fail", err, nil)
		return fail(c, fiber.StatusInternalServerError, "Could not prepare the form")
	}
	return render(c, "admin_product_form", fiber.Map{
		"P":          p,
		"Price":      price,
		"Categories": cats,
		"New":        isNew,
		"Err":        msg,
	})
}

func (h *ProductHandler) formFail(c *fiber.Ctx, err error, in services.ProductInput, isNew bool) error {
	status, msg, ok := formError(err)
	if !ok {
		applog.Error(c, "admin.products.save.fail", err, map[string]any{"product_id": in.ID})
		return fail(c, fiber.StatusInternalServerError, "Could not save product")
	}
	applog.Security(c, "validation.fail", map[string]any{"form": "product", "reason": msg})
	c.Status(status)
	return h.form(c, domain.Product{
		ID:          in.ID,
		Name:        in.Name,
		Description: in.Description,
		CategoryID:  in.CategoryID,
	}, in.Price, isNew, msg)
}

package handlers

import (
	"errors"

	"saboraoclique/internal/domain"
	applog "saboraoclique/internal/log"
	"saboraoclique/internal/repos"
	"saboraoclique/internal/services"
	"saboraoclique/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type CategoryHandler struct {
	Catalog *services.CatalogService
}

func (h *CategoryHandler) Home(c *fiber.Ctx) error {
	return render(c, "home", fiber.Map{})
}

// GET /categories
func (h *CategoryHandler) List(c *fiber.Ctx) error {
	cats, err := h.Catalog.ListCategories()
	if err != nil {
		applog.Error(c, "categories.list.fail", err, nil)
		return fail(c, fiber.StatusInternalServerError, "Could not load categories")
	}
	return render(c, "categories", fiber.Map{"Categories": cats})
}

// GET /admin/categories
func (h *CategoryHandler) AdminList(c *fiber.Ctx) error {
	cats, err := h.Catalog.ListCategories()
	if err != nil {
		applog.Error(c, "admin.categories.list.fail", err, nil)
		return fail(c, fiber.StatusInternalServerError, "Could not load categories")
	}
	return render(c, "admin_categories", fiber.Map{"Categories": cats})
}

// GET /admin/categories/new
func (h *CategoryHandler) New(c *fiber.Ctx) error {
	id, err := h.Catalog.NextCategoryID()
	if err != nil {
		applog.Error(c, "admin.categories.next_id.fail", err, nil)
		return fail(c, fiber.StatusInternalServerError, "Could not prepare the form")
	}
	return render(c, "admin_category_form", fiber.Map{"C": domain.Category{ID: id}, "New": true})
}

// POST /admin/categories
func (h *CategoryHandler) Create(c *fiber.Ctx) error {
	in := services.CategoryInput{ID: c.FormValue("id"), Name: c.FormValue("name")}
	cat, err := h.Catalog.CreateCategory(in)
	if err != nil {
		return h.formFail(c, err, in, true)
	}
	applog.Audit(c, "admin.categories.create", map[string]any{"category_id": cat.ID})
	return c.Redirect("/admin/categories")
}

// GET /admin/categories/:id/edit
func (h *CategoryHandler) Edit(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusNotFound, "Category not found")
	}
	cat, err := h.Catalog.GetCategory(id)
	if errors.Is(err, repos.ErrNotFound) {
		return fail(c, fiber.StatusNotFound, "Category not found")
	}
	if err != nil {
		applog.Error(c, "admin.categories.load.fail", err, map[string]any{"category_id": id})
		return fail(c, fiber.StatusInternalServerError, "Could not load category")
	}
	return render(c, "admin_category_form", fiber.Map{"C": cat})
}

// POST /admin/categories/:id
func (h *CategoryHandler) Update(c *fiber.Ctx) error {
	in := services.CategoryInput{ID: c.Params("id"), Name: c.FormValue("name")}
	cat, err := h.Catalog.UpdateCategory(in)
	if errors.Is(err, repos.ErrNotFound) {
		return fail(c, fiber.StatusNotFound, "Category not found")
	}
	if err != nil {
		return h.formFail(c, err, in, false)
	}
	applog.Audit(c, "admin.categories.update", map[string]any{"category_id": cat.ID})
	return c.Redirect("/admin/categories")
}

// POST /admin/categories/:id/delete
// Products in the category keep their category id and show as N/A.
func (h *CategoryHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	err := h.Catalog.DeleteCategory(id)
	if errors.Is(err, repos.ErrNotFound) {
		return fail(c, fiber.StatusNotFound, "Category not found")
	}
	if err != nil {
		applog.Error(c, "admin.categories.delete.fail", err, map[string]any{"category_id": id})
		return fail(c, fiber.StatusInternalServerError, "Could not delete category")
	}
	applog.Audit(c, "admin.categories.delete", map[string]any{"category_id": id})
	return c.Redirect("/admin/categories")
}

func (h *CategoryHandler) formFail(c *fiber.Ctx, err error, in services.CategoryInput, isNew bool) error {
	status, msg, ok := formError(err)
	if !ok {
		applog.Error(c, "admin.categories.save.fail", err, map[string]any{"category_id": in.ID})
		return fail(c, fiber.StatusInternalServerError, "Could not save category")
	}
	applog.Security(c, "validation.fail", map[string]any{"form": "category", "reason": msg})
	c.Status(status)
	return render(c, "admin_category_form", fiber.Map{
		"C":   domain.Category{ID: in.ID, Name: in.Name},
		"New": isNew,
		"Err": msg,
	})
}

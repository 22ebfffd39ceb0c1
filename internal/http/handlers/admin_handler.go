package handlers

import (
	"bytes"

	applog "saboraoclique/internal/log"
	"saboraoclique/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/tealeg/xlsx"
)

type AdminHandler struct {
	Catalog *services.CatalogService
	Lock    *AdminLock
}

// POST /admin-lock
func (h *AdminHandler) ToggleLock(c *fiber.Ctx) error {
	locked := h.Lock.Toggle()
	applog.Audit(c, "admin.lock.toggle", map[string]any{"locked": locked})
	if locked {
		return c.Redirect("/")
	}
	return c.Redirect("/admin/products")
}

var exportHeaders = []string{"ID", "Name", "Description", "Price", "CategoryID", "Category", "HasImage"}

// GET /admin/products/export.xlsx
func (h *AdminHandler) ExportProducts(c *fiber.Ctx) error {
	products, err := h.Catalog.ListProducts(nil)
	if err != nil {
		applog.Error(c, "admin.products.export.fail", err, nil)
		return fail(c, fiber.StatusInternalServerError, "Failed to fetch products")
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	if err != nil {
		applog.Error(c, "admin.products.export.fail", err, nil)
		return fail(c, fiber.StatusInternalServerError, "Failed to create Excel sheet")
	}

	headerRow := sheet.AddRow()
	for _, name := range exportHeaders {
		headerRow.AddCell().SetValue(name)
	}
	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetValue(p.ID)
		row.AddCell().SetValue(p.Name)
		row.AddCell().SetValue(p.Description)
		row.AddCell().SetFloatWithFormat(p.Price, "0.00")
		row.AddCell().SetValue(p.CategoryID)
		row.AddCell().SetValue(p.CategoryLabel())
		row.AddCell().SetBool(p.HasImage())
	}

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		applog.Error(c, "admin.products.export.fail", err, nil)
		return fail(c, fiber.StatusInternalServerError, "Failed to write Excel file")
	}
	applog.Audit(c, "admin.products.export", map[string]any{"rows": len(products)})

	c.Set(fiber.HeaderContentDisposition, `attachment; filename="products.xlsx"`)
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	return c.Send(buf.Bytes())
}

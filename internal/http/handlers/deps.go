package handlers

import (
	"saboraoclique/internal/config"
	"saboraoclique/internal/repos"
	"saboraoclique/internal/services"

	"github.com/jmoiron/sqlx"
)

type Deps struct {
	Lock  *AdminLock
	Carts *services.CartService

	CategoryHandler *CategoryHandler
	ProductHandler  *ProductHandler
	CartHandler     *CartHandler
	OrderHandler    *OrderHandler
	AdminHandler    *AdminHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config) *Deps {
	catRepo := repos.NewCategoryRepo(db)
	prodRepo := repos.NewProductRepo(db)
	orderRepo := repos.NewOrderRepo(db)

	catalogSvc := services.NewCatalogService(catRepo, prodRepo)
	cartSvc := services.NewCartService(prodRepo)
	orderSvc := services.NewOrderService(orderRepo, cfg.AtomicOrders)
	lock := NewAdminLock(cfg.AdminLocked)

	return &Deps{
		Lock:            lock,
		Carts:           cartSvc,
		CategoryHandler: &CategoryHandler{Catalog: catalogSvc},
		ProductHandler:  &ProductHandler{Catalog: catalogSvc, MaxImage: cfg.MaxImage},
		CartHandler:     &CartHandler{Cart: cartSvc},
		OrderHandler:    &OrderHandler{Cart: cartSvc, Order: orderSvc},
		AdminHandler:    &AdminHandler{Catalog: catalogSvc, Lock: lock},
	}
}

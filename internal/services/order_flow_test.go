package services_test

import (
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saboraoclique/internal/domain"
	"saboraoclique/internal/repos"
	"saboraoclique/internal/services"
)

func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	schema := `
	INSERT INTO categories(id,name) VALUES ('CAT01','Bolos');
	INSERT INTO products(id,name,description,price,category_id) VALUES
	  ('PROD01','Bolo de Cenoura','Com chocolate',10,'CAT01'),
	  ('PROD02','Brigadeiro','Unidade',5,'CAT01');
	`
	_, err = db.Exec(schema)
	require.NoError(t, err)
	return db
}

type fixture struct {
	db     *sqlx.DB
	prods  *repos.ProductRepo
	orders *repos.OrderRepo
	carts  *services.CartService
	svc    *services.OrderService
}

func newFixture(t *testing.T, atomic bool) fixture {
	db := memdb(t)
	prods := repos.NewProductRepo(db)
	orders := repos.NewOrderRepo(db)
	svc := services.NewOrderService(orders, atomic)
	svc.Now = func() time.Time { return time.Date(2024, 5, 6, 7, 8, 9, 10_000_000, time.UTC) }
	return fixture{db: db, prods: prods, orders: orders, carts: services.NewCartService(prods), svc: svc}
}

func TestOrderFlow_AddCartCheckout(t *testing.T) {
	f := newFixture(t, false)
	sid := "test-session"

	for _, id := range []string{"PROD01", "PROD01", "PROD02"} {
		_, _, err := f.carts.Add(sid, id)
		require.NoError(t, err)
	}
	cart := f.carts.Cart(sid)
	require.Len(t, cart.Lines(), 2)
	assert.Equal(t, 25.0, cart.Total())

	code, date := f.svc.Preview()
	o, err := f.svc.Place(cart, "sem açúcar")
	require.NoError(t, err)
	assert.NotZero(t, o.ID)
	assert.Equal(t, "PED1714979289010", o.Code)
	assert.Equal(t, "2024-05-06T07:08:09.010Z", o.Date)
	assert.Equal(t, o.Code, code)
	assert.Equal(t, o.Date, date)
	assert.Equal(t, 25.0, o.Total)
	assert.True(t, cart.Empty(), "cart is cleared after commit")

	// a later price change must not touch the committed lines
	p, err := f.prods.Get("PROD01")
	require.NoError(t, err)
	p.Price = 99
	require.NoError(t, f.prods.Update(p))

	stored, err := f.orders.Get(o.ID)
	require.NoError(t, err)
	assert.Equal(t, 25.0, stored.Total)
	assert.Equal(t, "sem açúcar", stored.Note)
	require.Len(t, stored.Items, 2)
	assert.Equal(t, "PROD01", stored.Items[0].ProductID)
	assert.Equal(t, 2, stored.Items[0].Quantity)
	assert.Equal(t, 10.0, stored.Items[0].Price)
	assert.Equal(t, "PROD02", stored.Items[1].ProductID)
	assert.Equal(t, 1, stored.Items[1].Quantity)
	assert.Equal(t, 5.0, stored.Items[1].Price)
}

func TestPlaceUsesCartSnapshotPrice(t *testing.T) {
	f := newFixture(t, false)
	_, _, err := f.carts.Add("s", "PROD01")
	require.NoError(t, err)

	// price changes between add and checkout
	_, err = f.db.Exec(`UPDATE products SET price = 12 WHERE id = 'PROD01'`)
	require.NoError(t, err)

	o, err := f.svc.Place(f.carts.Cart("s"), "")
	require.NoError(t, err)
	assert.Equal(t, 10.0, o.Total)
	assert.Equal(t, 10.0, o.Items[0].Price)
}

func TestPlaceEmptyCartWritesNothing(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.svc.Place(f.carts.Cart("nobody"), "note")
	require.ErrorIs(t, err, services.ErrCartEmpty)

	orders, items, err := f.orders.Counts()
	require.NoError(t, err)
	assert.Zero(t, orders)
	assert.Zero(t, items)
}

// failOnProduct makes item inserts for productID abort.
func failOnProduct(t *testing.T, db *sqlx.DB, productID string) {
	t.Helper()
	_, err := db.Exec(`
	CREATE TRIGGER fail_item BEFORE INSERT ON order_items
	WHEN NEW.product_id = '` + productID + `'
	BEGIN SELECT RAISE(ABORT, 'boom'); END;`)
	require.NoError(t, err)
}

func TestPlacePartialFailureKeepsOrderRow(t *testing.T) {
	f := newFixture(t, false)
	cart := f.carts.Cart("s")
	for _, id := range []string{"PROD01", "PROD02"} {
		_, _, err := f.carts.Add("s", id)
		require.NoError(t, err)
	}
	failOnProduct(t, f.db, "PROD02")

	o, err := f.svc.Place(cart, "")
	require.Error(t, err)
	assert.NotZero(t, o.ID)

	orders, items, err := f.orders.Counts()
	require.NoError(t, err)
	assert.Equal(t, 1, orders, "non-atomic commit keeps the order row")
	assert.Equal(t, 1, items)
	assert.False(t, cart.Empty(), "cart survives a failed commit")
}

func TestPlaceAtomicRollsBack(t *testing.T) {
	f := newFixture(t, true)
	cart := f.carts.Cart("s")
	for _, id := range []string{"PROD01", "PROD02"} {
		_, _, err := f.carts.Add("s", id)
		require.NoError(t, err)
	}
	failOnProduct(t, f.db, "PROD02")

	_, err := f.svc.Place(cart, "")
	require.Error(t, err)

	orders, items, err := f.orders.Counts()
	require.NoError(t, err)
	assert.Zero(t, orders)
	assert.Zero(t, items)
	assert.Len(t, cart.Lines(), 2)
}

func TestAddUnknownProduct(t *testing.T) {
	f := newFixture(t, false)
	_, _, err := f.carts.Add("s", "PROD99")
	require.ErrorIs(t, err, repos.ErrNotFound)
	assert.True(t, f.carts.Cart("s").Empty())
}

func TestTopSellersSharesRankOnTies(t *testing.T) {
	f := newFixture(t, false)
	_, err := f.db.Exec(`INSERT INTO products(id,name,description,price) VALUES ('PROD03','Coxinha','Frango',7)`)
	require.NoError(t, err)

	sold := map[string]int{"PROD01": 50, "PROD02": 50, "PROD03": 30}
	for id, qty := range sold {
		oid, err := f.orders.Create(domain.Order{Code: "PED" + id, Total: 1})
		require.NoError(t, err)
		// split across two lines to exercise the sum
		require.NoError(t, f.orders.InsertItem(domain.OrderItem{OrderID: oid, ProductID: id, Quantity: qty - 10, Price: 1}))
		require.NoError(t, f.orders.InsertItem(domain.OrderItem{OrderID: oid, ProductID: id, Quantity: 10, Price: 1}))
	}

	top, err := f.svc.TopSellers()
	require.NoError(t, err)
	require.Len(t, top, 3)

	ranks := map[string]int{}
	for _, ts := range top {
		ranks[ts.ProductID] = ts.Rank
	}
	assert.Equal(t, 1, ranks["PROD01"])
	assert.Equal(t, 1, ranks["PROD02"])
	assert.Equal(t, 2, ranks["PROD03"])
	assert.Equal(t, 30, top[2].TotalSold)
	assert.Equal(t, "Bolos", top[0].CategoryLabel())
	assert.Equal(t, domain.Unknown, top[2].CategoryLabel())
}

func TestTopSellersDeletedProduct(t *testing.T) {
	f := newFixture(t, false)
	oid, err := f.orders.Create(domain.Order{Code: "PED1", Total: 3})
	require.NoError(t, err)
	require.NoError(t, f.orders.InsertItem(domain.OrderItem{OrderID: oid, ProductID: "GONE", Quantity: 3, Price: 1}))

	top, err := f.svc.TopSellers()
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, domain.Unknown, top[0].Label())
	assert.Equal(t, 1, top[0].Rank)
}

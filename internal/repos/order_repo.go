package repos

import (
	"database/sql"

	"github.com/jmoiron/sqlx"

	"saboraoclique/internal/domain"
)

// OrderRepo writes through ex, which is the DB itself or a transaction from InTx.
type OrderRepo struct {
	db *sqlx.DB
	ex sqlx.Execer
}

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db, ex: db} }

// InTx runs fn against a repo bound to one transaction, committing when fn returns nil.
func (r *OrderRepo) InTx(fn func(*OrderRepo) error) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&OrderRepo{db: r.db, ex: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

// Create inserts the order header and returns the database-assigned id.
func (r *OrderRepo) Create(o domain.Order) (int64, error) {
	res, err := r.ex.Exec(`
	  INSERT INTO orders(order_code, order_date, total, note)
	  VALUES(?, ?, ?, ?)
	`, o.Code, o.Date, o.Total, nullIfEmpty(o.Note))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// InsertItem inserts a single line item.
func (r *OrderRepo) InsertItem(it domain.OrderItem) error {
	_, err := r.ex.Exec(`
	  INSERT INTO order_items(order_id, product_id, quantity, price)
	  VALUES(?, ?, ?, ?)
	`, it.OrderID, it.ProductID, it.Quantity, it.Price)
	return err
}

type historyRow struct {
	ID          int64           `db:"id"`
	Code        string          `db:"order_code"`
	Date        string          `db:"order_date"`
	Total       float64         `db:"total"`
	Note        string          `db:"note"`
	ItemID      sql.NullInt64   `db:"item_id"`
	ProductID   sql.NullString  `db:"product_id"`
	ProductName string          `db:"product_name"`
	Quantity    sql.NullInt64   `db:"quantity"`
	Price       sql.NullFloat64 `db:"price"`
}

const historySelect = `
  SELECT o.id,
         COALESCE(o.order_code,'') AS order_code,
         COALESCE(o.order_date,'') AS order_date,
         COALESCE(o.total,0)       AS total,
         COALESCE(o.note,'')       AS note,
         oi.id AS item_id, oi.product_id, oi.quantity, oi.price,
         COALESCE(p.name,'')       AS product_name
  FROM orders o
  LEFT JOIN order_items oi ON oi.order_id = o.id
  LEFT JOIN products p     ON p.id = oi.product_id`

// History returns every order with its lines, newest first.
func (r *OrderRepo) History() ([]domain.Order, error) {
	var rows []historyRow
	if err := r.db.Select(&rows, historySelect+` ORDER BY o.id DESC, oi.id`); err != nil {
		return nil, err
	}
	return groupOrders(rows), nil
}

func (r *OrderRepo) Get(id int64) (domain.Order, error) {
	var rows []historyRow
	if err := r.db.Select(&rows, historySelect+` WHERE o.id = ? ORDER BY oi.id`, id); err != nil {
		return domain.Order{}, err
	}
	orders := groupOrders(rows)
	if len(orders) == 0 {
		return domain.Order{}, ErrNotFound
	}
	return orders[0], nil
}

func groupOrders(rows []historyRow) []domain.Order {
	out := []domain.Order{}
	index := map[int64]int{}
	for _, row := range rows {
		i, ok := index[row.ID]
		if !ok {
			i = len(out)
			index[row.ID] = i
			out = append(out, domain.Order{
				ID: row.ID, Code: row.Code, Date: row.Date, Total: row.Total, Note: row.Note,
				Items: []domain.OrderItem{},
			})
		}
		if !row.ItemID.Valid {
			continue
		}
		out[i].Items = append(out[i].Items, domain.OrderItem{
			ID:          row.ItemID.Int64,
			OrderID:     row.ID,
			ProductID:   row.ProductID.String,
			ProductName: row.ProductName,
			Quantity:    int(row.Quantity.Int64),
			Price:       row.Price.Float64,
		})
	}
	return out
}

// Counts returns the number of order and order item rows.
func (r *OrderRepo) Counts() (orders, items int, err error) {
	if err = r.db.Get(&orders, `SELECT COUNT(*) FROM orders`); err != nil {
		return 0, 0, err
	}
	err = r.db.Get(&items, `SELECT COUNT(*) FROM order_items`)
	return orders, items, err
}

// SoldTotals sums sold quantity per product across all orders, highest first.
// Products deleted since the sale come back with empty name fields.
func (r *OrderRepo) SoldTotals() ([]domain.TopSeller, error) {
	out := []domain.TopSeller{}
	err := r.db.Select(&out, `
	  SELECT oi.product_id,
	         COALESCE(p.name,'')        AS name,
	         COALESCE(p.description,'') AS description,
	         COALESCE(p.price,0)        AS price,
	         COALESCE(p.category_id,'') AS category_id,
	         COALESCE(c.name,'')        AS category_name,
	         SUM(oi.quantity)           AS total_sold
	  FROM order_items oi
	  LEFT JOIN products p   ON p.id = oi.product_id
	  LEFT JOIN categories c ON c.id = p.category_id
	  GROUP BY oi.product_id
	  ORDER BY total_sold DESC, oi.product_id
	`)
	return out, err
}

package repos

import (
	"errors"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a row addressed by id does not exist.
var ErrNotFound = errors.New("not found")

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// One connection: SQLite serializes writes anyway, and ":memory:" is per connection.
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	return db, nil
}

// References between tables are soft: foreign keys are declared for readers
// but never enforced, so deleting a category leaves its products in place.
const schema = `
PRAGMA foreign_keys = OFF;

CREATE TABLE IF NOT EXISTS categories(
  id   TEXT PRIMARY KEY NOT NULL,
  name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS products(
  id          TEXT PRIMARY KEY NOT NULL,
  name        TEXT NOT NULL,
  description TEXT NOT NULL,
  price       REAL NOT NULL,
  image       TEXT,
  category_id TEXT REFERENCES categories(id)
);
CREATE INDEX IF NOT EXISTS idx_products_category ON products(category_id);

CREATE TABLE IF NOT EXISTS orders(
  id         INTEGER PRIMARY KEY AUTOINCREMENT,
  order_code TEXT,
  order_date TEXT,
  total      REAL,
  note       TEXT
);

CREATE TABLE IF NOT EXISTS order_items(
  id         INTEGER PRIMARY KEY AUTOINCREMENT,
  order_id   INTEGER REFERENCES orders(id),
  product_id TEXT REFERENCES products(id),
  quantity   INTEGER NOT NULL CHECK (quantity >= 1),
  price      REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_order_items_order   ON order_items(order_id);
CREATE INDEX IF NOT EXISTS idx_order_items_product ON order_items(product_id);
`

func ensureSchema(db *sqlx.DB) error {
	_, err := db.Exec(schema)
	return err
}

// ResetSchema drops every table and recreates them empty.
func ResetSchema(db *sqlx.DB) error {
	if _, err := db.Exec(`
DROP TABLE IF EXISTS order_items;
DROP TABLE IF EXISTS orders;
DROP TABLE IF EXISTS products;
DROP TABLE IF EXISTS categories;
`); err != nil {
		return err
	}
	return ensureSchema(db)
}

// SeedIfEmpty inserts a demo catalog when there are no categories yet.
// It reports whether anything was inserted.
func SeedIfEmpty(db *sqlx.DB) (bool, error) {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM categories`); err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}

	tx, err := db.Beginx()
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT INTO categories(id,name) VALUES
	  ('CAT01','Bolos'),
	  ('CAT02','Doces'),
	  ('CAT03','Salgados')`); err != nil {
		return false, err
	}
	if _, err := tx.Exec(`INSERT INTO products(id,name,description,price,image,category_id) VALUES
	  ('PROD01','Bolo de Cenoura','Bolo de cenoura com cobertura de chocolate',35.00,NULL,'CAT01'),
	  ('PROD02','Bolo de Fubá','Bolo caseiro de fubá com erva-doce',28.50,NULL,'CAT01'),
	  ('PROD03','Brigadeiro','Brigadeiro gourmet, unidade',3.50,NULL,'CAT02'),
	  ('PROD04','Beijinho','Beijinho de coco, unidade',3.50,NULL,'CAT02'),
	  ('PROD05','Coxinha','Coxinha de frango com catupiry',7.00,NULL,'CAT03')`); err != nil {
		return false, err
	}
	return true, tx.Commit()
}

package repos

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"saboraoclique/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

const productColumns = `
    p.id, p.name, p.description, p.price,
    COALESCE(p.image,'')       AS image,
    COALESCE(p.category_id,'') AS category_id,
    COALESCE(c.name,'')        AS category_name
  FROM products p
  LEFT JOIN categories c ON c.id = p.category_id`

// List returns all products, or only those in categoryIDs when it is non-empty.
func (r *ProductRepo) List(categoryIDs []string) ([]domain.Product, error) {
	query := `SELECT ` + productColumns
	var args []any
	if len(categoryIDs) > 0 {
		q, a, err := sqlx.In(query+` WHERE p.category_id IN (?)`, categoryIDs)
		if err != nil {
			return nil, err
		}
		query, args = q, a
	}
	query += ` ORDER BY p.id`

	out := []domain.Product{}
	err := r.db.Select(&out, r.db.Rebind(query), args...)
	return out, err
}

func (r *ProductRepo) Get(id string) (domain.Product, error) {
	var p domain.Product
	err := r.db.Get(&p, `SELECT `+productColumns+` WHERE p.id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNotFound
	}
	return p, err
}

func (r *ProductRepo) Count() (int, error) {
	var n int
	err := r.db.Get(&n, `SELECT COUNT(*) FROM products`)
	return n, err
}

func (r *ProductRepo) Exists(id string) (bool, error) {
	var n int
	err := r.db.Get(&n, `SELECT COUNT(*) FROM products WHERE id = ?`, id)
	return n > 0, err
}

func (r *ProductRepo) Create(p domain.Product) error {
	_, err := r.db.Exec(`
	  INSERT INTO products(id, name, description, price, image, category_id)
	  VALUES(?, ?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.Description, p.Price, nullIfEmpty(p.Image), nullIfEmpty(p.CategoryID))
	return err
}

func (r *ProductRepo) Update(p domain.Product) error {
	res, err := r.db.Exec(`
	  UPDATE products
	  SET name = ?, description = ?, price = ?, image = ?, category_id = ?
	  WHERE id = ?
	`, p.Name, p.Description, p.Price, nullIfEmpty(p.Image), nullIfEmpty(p.CategoryID), p.ID)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func (r *ProductRepo) Delete(id string) error {
	res, err := r.db.Exec(`DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

// Image returns the stored base64 payload, empty when the product has none.
func (r *ProductRepo) Image(id string) (string, error) {
	var img sql.NullString
	err := r.db.Get(&img, `SELECT image FROM products WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return img.String, err
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

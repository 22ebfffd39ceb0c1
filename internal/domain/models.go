package domain

import "fmt"

// Unknown is shown wherever a soft reference no longer resolves.
const Unknown = "N/A"

const (
	CategoryPrefix = "CAT"
	ProductPrefix  = "PROD"
)

type Category struct {
	ID   string `db:"id"`
	Name string `db:"name"`
}

type Product struct {
	ID           string  `db:"id"`
	Name         string  `db:"name"`
	Description  string  `db:"description"`
	Price        float64 `db:"price"`
	Image        string  `db:"image"`       // base64, may be empty
	CategoryID   string  `db:"category_id"` // empty when unset
	CategoryName string  `db:"category_name"`
}

// CategoryLabel falls back to Unknown for orphaned or unset categories.
func (p Product) CategoryLabel() string {
	if p.CategoryName == "" {
		return Unknown
	}
	return p.CategoryName
}

func (p Product) HasImage() bool { return p.Image != "" }

type Order struct {
	ID    int64       `db:"id"`
	Code  string      `db:"order_code"`
	Date  string      `db:"order_date"` // ISO-8601
	Total float64     `db:"total"`
	Note  string      `db:"note"`
	Items []OrderItem `db:"-"`
}

type OrderItem struct {
	ID          int64   `db:"id"`
	OrderID     int64   `db:"order_id"`
	ProductID   string  `db:"product_id"`
	ProductName string  `db:"product_name"`
	Quantity    int     `db:"quantity"`
	Price       float64 `db:"price"`
}

func (it OrderItem) Label() string {
	if it.ProductName == "" {
		return Unknown
	}
	return it.ProductName
}

// TopSeller is one row of the sold-quantity ranking.
type TopSeller struct {
	Rank         int     `db:"-"`
	ProductID    string  `db:"product_id"`
	Name         string  `db:"name"`
	Description  string  `db:"description"`
	Price        float64 `db:"price"`
	CategoryID   string  `db:"category_id"`
	CategoryName string  `db:"category_name"`
	TotalSold    int     `db:"total_sold"`
}

func (t TopSeller) Label() string {
	if t.Name == "" {
		return Unknown
	}
	return t.Name
}

func (t TopSeller) CategoryLabel() string {
	if t.CategoryName == "" {
		return Unknown
	}
	return t.CategoryName
}

// SequentialID formats the id that follows count existing rows, e.g. ("CAT", 0) -> "CAT01".
// Count-then-format is not atomic; there is a single writer.
func SequentialID(prefix string, count int) string {
	return fmt.Sprintf("%s%02d", prefix, count+1)
}

package services

import (
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"saboraoclique/internal/domain"
	"saboraoclique/internal/metrics"
)

var ErrNotInCart = errors.New("product is not in the cart")

// CartLine is one cart entry: the product as it was when first added, and a quantity >= 1.
type CartLine struct {
	Product  domain.Product
	Quantity int
}

func (l CartLine) Subtotal() float64 {
	return lineTotal(l.Product.Price, l.Quantity).InexactFloat64()
}

func lineTotal(price float64, qty int) decimal.Decimal {
	return decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(qty)))
}

// Cart maps product id to a line. Lines keep insertion order.
type Cart struct {
	mu    sync.Mutex
	lines map[string]*CartLine
	order []string
}

func NewCart() *Cart { return &Cart{lines: map[string]*CartLine{}} }

// Add increments the line for p, creating it with quantity 1 if absent.
// The stored snapshot is the one taken on first add.
func (c *Cart) Add(p domain.Product) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	metrics.CartOperations.WithLabelValues("add").Inc()

	if l, ok := c.lines[p.ID]; ok {
		l.Quantity++
		return l.Quantity
	}
	c.lines[p.ID] = &CartLine{Product: p, Quantity: 1}
	c.order = append(c.order, p.ID)
	return 1
}

// Adjust changes the quantity of productID by delta. A result of zero or less
// removes the line. It returns the new quantity (0 when removed).
func (c *Cart) Adjust(productID string, delta int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	l, ok := c.lines[productID]
	if !ok {
		return 0, ErrNotInCart
	}
	q := l.Quantity + delta
	if q <= 0 {
		c.removeLocked(productID)
		metrics.CartOperations.WithLabelValues("remove").Inc()
		return 0, nil
	}
	l.Quantity = q
	metrics.CartOperations.WithLabelValues("adjust").Inc()
	return q, nil
}

func (c *Cart) removeLocked(productID string) {
	delete(c.lines, productID)
	for i, id := range c.order {
		if id == productID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	metrics.CartOperations.WithLabelValues("clear").Inc()
	c.lines = map[string]*CartLine{}
	c.order = nil
}

// Lines returns a copy of the entries in the order they were added.
func (c *Cart) Lines() []CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]CartLine, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.lines[id])
	}
	return out
}

func (c *Cart) Quantity(productID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if l, ok := c.lines[productID]; ok {
		return l.Quantity
	}
	return 0
}

// Count is the number of units across all lines.
func (c *Cart) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

func (c *Cart) Empty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines) == 0
}

// Total sums price * quantity over lines.
func (c *Cart) Total() float64 {
	return sumLines(c.Lines()).InexactFloat64()
}

func sumLines(lines []CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(lineTotal(l.Product.Price, l.Quantity))
	}
	return total
}

// CartService holds one cart per browser session and loads products for it.
type CartService struct {
	Prods ProductReader

	mu    sync.Mutex
	carts map[string]*Cart
}

type ProductReader interface {
	Get(id string) (domain.Product, error)
}

func NewCartService(prods ProductReader) *CartService {
	return &CartService{Prods: prods, carts: map[string]*Cart{}}
}

// Cart returns the cart for sessionID, creating an empty one on first use.
func (s *CartService) Cart(sessionID string) *Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[sessionID]
	if !ok {
		c = NewCart()
		s.carts[sessionID] = c
	}
	return c
}

// Lookup returns the cart for sessionID without creating one.
func (s *CartService) Lookup(sessionID string) (*Cart, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[sessionID]
	return c, ok
}

// Add snapshots the current product row into the session's cart.
// The image is left out of the snapshot; screens load it by product id.
func (s *CartService) Add(sessionID, productID string) (domain.Product, int, error) {
	p, err := s.Prods.Get(productID)
	if err != nil {
		return domain.Product{}, 0, err
	}
	p.Image = ""
	return p, s.Cart(sessionID).Add(p), nil
}

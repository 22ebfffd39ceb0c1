package services

import (
	"errors"
	"fmt"
	"time"

	"saboraoclique/internal/domain"
	"saboraoclique/internal/metrics"
	"saboraoclique/internal/repos"
)

var ErrCartEmpty = errors.New("cart is empty")

type OrderService struct {
	Orders *repos.OrderRepo
	// Atomic wraps the order and its items in one transaction. When false a failed
	// item insert leaves the order row with fewer items than the cart had.
	Atomic bool
	Now    func() time.Time
}

func NewOrderService(orders *repos.OrderRepo, atomic bool) *OrderService {
	return &OrderService{Orders: orders, Atomic: atomic, Now: time.Now}
}

// isoMillis matches JavaScript's Date.toISOString.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

func (s *OrderService) stamp() domain.Order {
	now := s.Now().UTC()
	return domain.Order{Code: fmt.Sprintf("PED%d", now.UnixMilli()), Date: now.Format(isoMillis)}
}

// Preview returns the code and date an order placed now would get.
// Place stamps again, so the final values move with the clock.
func (s *OrderService) Preview() (code, date string) {
	o := s.stamp()
	return o.Code, o.Date
}

// Place commits cart as an order. The cart is cleared only after every write succeeded.
func (s *OrderService) Place(cart *Cart, note string) (domain.Order, error) {
	lines := cart.Lines()
	if len(lines) == 0 {
		return domain.Order{}, ErrCartEmpty
	}

	o := s.stamp()
	o.Total = sumLines(lines).InexactFloat64()
	o.Note = note

	var err error
	if s.Atomic {
		err = s.Orders.InTx(func(tx *repos.OrderRepo) error {
			return commit(tx, &o, lines)
		})
		if err != nil {
			o.ID = 0
			o.Items = nil
		}
	} else {
		err = commit(s.Orders, &o, lines)
	}
	if err != nil {
		return o, err
	}

	metrics.OrdersPlaced.Inc()
	metrics.OrderItemsPlaced.Add(float64(len(o.Items)))
	cart.Clear()
	return o, nil
}

func commit(r *repos.OrderRepo, o *domain.Order, lines []CartLine) error {
	id, err := r.Create(*o)
	if err != nil {
		metrics.OrderFailures.WithLabelValues("order").Inc()
		return fmt.Errorf("insert order: %w", err)
	}
	o.ID = id

	for _, l := range lines {
		it := domain.OrderItem{
			OrderID:     id,
			ProductID:   l.Product.ID,
			ProductName: l.Product.Name,
			Quantity:    l.Quantity,
			Price:       l.Product.Price,
		}
		if err := r.InsertItem(it); err != nil {
			metrics.OrderFailures.WithLabelValues("item").Inc()
			return fmt.Errorf("insert item %s for order %d: %w", l.Product.ID, id, err)
		}
		o.Items = append(o.Items, it)
	}
	return nil
}

func (s *OrderService) History() ([]domain.Order, error) {
	return s.Orders.History()
}

// MaxRankTiers bounds how many distinct ranks TopSellers returns.
const MaxRankTiers = 5

// TopSellers ranks products by total quantity sold. Equal totals share a rank
// and the rank grows by one each time the total strictly drops.
func (s *OrderService) TopSellers() ([]domain.TopSeller, error) {
	rows, err := s.Orders.SoldTotals()
	if err != nil {
		return nil, err
	}
	return rankTopSellers(rows, MaxRankTiers), nil
}

func rankTopSellers(rows []domain.TopSeller, tiers int) []domain.TopSeller {
	out := make([]domain.TopSeller, 0, len(rows))
	rank := 0
	for i, r := range rows {
		if i == 0 || r.TotalSold < rows[i-1].TotalSold {
			rank++
		}
		if rank > tiers {
			break
		}
		r.Rank = rank
		out = append(out, r)
	}
	return out
}

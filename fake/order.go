package fake

import (
	"sort"
	"time"

	"github.com/pilosa/ecomgen"
	"github.com/pilosa/ecomgen/fake/gen"
)

// maxPickAttempts bounds the search for an orderable product for one line.
const maxPickAttempts = 10

var statusWeights = []float64{0.15, 0.20, 0.55, 0.10}

// OrderGenerator generates Orders and their lines against a fixed set of
// customers and products. When inventory is tracked, it owns the products'
// stock and decrements it as orders are placed.
type OrderGenerator struct {
	g        *gen.Generator
	cfg      Config
	zipf     bool
	products []ecomgen.Product
}

// NewOrderGenerator initializes a new OrderGenerator. products must be
// indexed by id-1; their Stock is updated in place.
func NewOrderGenerator(g *gen.Generator, cfg Config, products []ecomgen.Product) *OrderGenerator {
	return &OrderGenerator{
		g:        g,
		cfg:      cfg,
		zipf:     cfg.Distribution == Zipf,
		products: products,
	}
}

// Timestamps returns n order times in the order window, oldest first.
func (o *OrderGenerator) Timestamps(n int) []time.Time {
	from := o.cfg.Epoch.Add(-o.cfg.span())
	ts := make([]time.Time, n)
	for i := range ts {
		ts[i] = o.g.TimeBetween(from, o.cfg.Epoch)
	}
	sort.Slice(ts, func(i, j int) bool { return ts[i].Before(ts[j]) })
	return ts
}

// Record returns an Order with the given id placed at ts, along with its
// lines. The order's amounts are totalled from the lines.
func (o *OrderGenerator) Record(id uint64, ts time.Time) (ecomgen.Order, []ecomgen.OrderLine) {
	order := ecomgen.Order{
		ID:            id,
		CustomerID:    o.g.ID(o.cfg.CustomerCount, o.zipf),
		Timestamp:     ts,
		Status:        ecomgen.Statuses[o.g.Weighted(statusWeights)],
		PaymentMethod: o.g.Pick(paymentMethods),
	}
	if o.g.Chance(0.2) {
		order.DiscountRate = discountRates[o.g.Rand().Intn(len(discountRates))]
	}

	consume := o.cfg.TrackInventory && order.Status != ecomgen.StatusCancelled
	n := o.g.IntBetween(1, o.cfg.OrderLineMaxPerOrder)
	lines := make([]ecomgen.OrderLine, 0, n)
	used := make(map[uint64]struct{}, n)
	for i := 0; i < n; i++ {
		p := o.pick(used)
		if p == nil {
			continue
		}
		used[p.ID] = struct{}{}
		qty := o.g.IntBetween(1, o.cfg.QuantityMax)
		if consume {
			if int64(qty) > p.Stock {
				qty = int(p.Stock)
			}
			p.Stock -= int64(qty)
		}
		lines = append(lines, ecomgen.OrderLine{
			OrderID:   id,
			LineNo:    len(lines) + 1,
			ProductID: p.ID,
			Quantity:  qty,
			UnitPrice: p.Price,
		})
	}

	if len(lines) == 0 {
		// nothing was orderable; keep the order but cancel it so it never
		// touches stock.
		p := &o.products[o.g.ID(len(o.products), o.zipf)-1]
		order.Status = ecomgen.StatusCancelled
		lines = append(lines, ecomgen.OrderLine{
			OrderID:   id,
			LineNo:    1,
			ProductID: p.ID,
			Quantity:  1,
			UnitPrice: p.Price,
		})
	}
	order.Subtotal, order.Discount, order.Total = ecomgen.Totals(order.DiscountRate, lines)
	return order, lines
}

// pick looks for an active product not already in the order. With inventory
// tracked it must also be in stock.
func (o *OrderGenerator) pick(used map[uint64]struct{}) *ecomgen.Product {
	for attempt := 0; attempt < maxPickAttempts; attempt++ {
		p := &o.products[o.g.ID(len(o.products), o.zipf)-1]
		if _, ok := used[p.ID]; ok || !p.Active {
			continue
		}
		if o.cfg.TrackInventory && p.Stock <= 0 {
			continue
		}
		return p
	}
	return nil
}

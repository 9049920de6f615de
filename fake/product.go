package fake

import (
	"math"
	"time"

	"github.com/pilosa/ecomgen"
	"github.com/pilosa/ecomgen/fake/gen"
)

// ProductGenerator generates fake Products.
type ProductGenerator struct {
	g       *gen.Generator
	cfg     Config
	epoch   time.Time
	span    time.Duration
	catalog []category
}

// category is a product category with 3 to 5 subcategories, each with its
// own profit margin.
type category struct {
	name    string
	subs    []string
	margins []float64
}

// NewProductGenerator initializes a new ProductGenerator which draws from g.
// The category catalog is drawn first.
func NewProductGenerator(g *gen.Generator, cfg Config) *ProductGenerator {
	catalog := make([]category, len(categories))
	for i, name := range categories {
		c := category{name: name}
		first := g.Rand().Intn(len(subcategories))
		for j := g.IntBetween(3, 5); j > 0; j-- {
			c.subs = append(c.subs, name+" "+subcategories[(first+len(c.subs))%len(subcategories)])
			c.margins = append(c.margins, round(g.Float64Between(0.1, 0.4), 2))
		}
		catalog[i] = c
	}
	return &ProductGenerator{g: g, cfg: cfg, epoch: cfg.Epoch, span: cfg.span(), catalog: catalog}
}

// Record returns a Product with the given id. The price starts in
// [PriceMin, PriceMax] when the product is created and then drifts up to 20%
// either way up to twice before the order window opens. Every price is kept
// in the product's history.
func (p *ProductGenerator) Record(id uint64) ecomgen.Product {
	created := p.g.TimeBetween(p.epoch.Add(-2*p.span), p.epoch.Add(-p.span))
	price := ecomgen.RoundCents(p.g.Float64Between(p.cfg.PriceMin, p.cfg.PriceMax))
	history := []ecomgen.PricePoint{{Price: price, Date: created}}
	for changes := p.g.IntBetween(0, 2); changes > 0; changes-- {
		last := history[len(history)-1]
		history = append(history, ecomgen.PricePoint{
			Price: ecomgen.RoundCents(last.Price * p.g.Float64Between(0.8, 1.2)),
			Date:  p.g.TimeBetween(last.Date, p.epoch.Add(-p.span)),
		})
	}
	cat := p.catalog[p.g.Rand().Intn(len(p.catalog))]
	sub := p.g.Rand().Intn(len(cat.subs))
	return ecomgen.Product{
		ID:           id,
		Name:         p.g.Pick(adjectives) + " " + p.g.Pick(nouns),
		Category:     cat.name,
		Subcategory:  cat.subs[sub],
		ProfitMargin: cat.margins[sub],
		Price:        history[len(history)-1].Price,
		PriceHistory: history,
		Stock:        int64(p.g.IntBetween(10, 1000)),
		Active:       p.g.Chance(0.95),
		CreatedAt:    created,
	}
}

func round(v float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}

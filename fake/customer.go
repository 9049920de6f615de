package fake

import (
	"time"

	"github.com/pilosa/ecomgen"
	"github.com/pilosa/ecomgen/fake/gen"
	"github.com/pilosa/ecomgen/geohash"
)

// CustomerGenerator generates fake Customers.
type CustomerGenerator struct {
	g     *gen.Generator
	geo   *geohash.Transformer
	epoch time.Time
	span  time.Duration
}

// NewCustomerGenerator initializes a new CustomerGenerator which draws from g.
func NewCustomerGenerator(g *gen.Generator, cfg Config) *CustomerGenerator {
	return &CustomerGenerator{
		g:     g,
		geo:   &geohash.Transformer{Precision: cfg.GeohashPrecision},
		epoch: cfg.Epoch,
		span:  cfg.span(),
	}
}

// Record returns a Customer with the given id and realistic-ish values.
// Customers sign up between three spans and one span before the epoch, so
// they exist before any order in the order window.
func (u *CustomerGenerator) Record(id uint64) (ecomgen.Customer, error) {
	st := states[u.g.Rand().Intn(len(states))]
	signup := u.g.TimeBetween(u.epoch.Add(-3*u.span), u.epoch.Add(-u.span))
	c := ecomgen.Customer{
		ID:         id,
		Name:       u.g.Pick(firstNames) + " " + u.g.Pick(lastNames),
		Region:     st.region,
		SignupDate: signup,
		City:       u.g.Pick(st.cities),
		State:      st.code,
		Latitude:   round(st.lat+u.g.Float64Between(-1, 1), 5),
		Longitude:  round(st.lon+u.g.Float64Between(-1, 1), 5),
		LastActive: u.g.TimeBetween(signup, u.epoch),
	}
	return c, u.geo.Transform(&c)
}

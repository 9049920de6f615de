package fake

import (
	"time"

	"github.com/pilosa/ecomgen"
	"github.com/pilosa/ecomgen/geohash"
)

// Distributions which customers and products can be picked from.
const (
	Uniform = "uniform"
	Zipf    = "zipf"
)

// Config holds everything that determines a generated dataset.
type Config struct {
	CustomerCount        int
	ProductCount         int
	OrderCount           int
	OrderLineMaxPerOrder int
	Seed                 int64
	OutputDir            string

	PriceMin    float64
	PriceMax    float64
	QuantityMax int

	// Distribution is Uniform or Zipf and applies to picking the customer of
	// an order and the products of its lines.
	Distribution string

	// Epoch is the end of the order window. It stands in for "now" so that
	// output does not depend on the wall clock.
	Epoch    time.Time
	SpanDays int

	// TrackInventory makes orders consume product stock.
	TrackInventory bool

	GeohashPrecision int
}

// NewConfig returns a Config with default values.
func NewConfig() Config {
	return Config{
		CustomerCount:        10000,
		ProductCount:         5000,
		OrderCount:           50000,
		OrderLineMaxPerOrder: 5,
		Seed:                 42,
		OutputDir:            "data",
		PriceMin:             5,
		PriceMax:             500,
		QuantityMax:          3,
		Distribution:         Uniform,
		Epoch:                time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		SpanDays:             90,
		TrackInventory:       true,
		GeohashPrecision:     geohash.DefaultPrecision,
	}
}

// Validate returns a *ecomgen.ConfigError naming the first bad parameter.
func (c Config) Validate() error {
	bad := func(param, reason string) error {
		return &ecomgen.ConfigError{Param: param, Reason: reason}
	}
	switch {
	case c.CustomerCount <= 0:
		return bad("customer-count", "must be positive")
	case c.ProductCount <= 0:
		return bad("product-count", "must be positive")
	case c.OrderCount <= 0:
		return bad("order-count", "must be positive")
	case c.OrderLineMaxPerOrder <= 0:
		return bad("order-line-max-per-order", "must be positive")
	case c.OutputDir == "":
		return bad("output-dir", "must not be empty")
	case c.PriceMin < 0:
		return bad("price-min", "must not be negative")
	case c.PriceMax < c.PriceMin:
		return bad("price-max", "must not be less than price-min")
	case c.QuantityMax <= 0:
		return bad("quantity-max", "must be positive")
	case c.Distribution != Uniform && c.Distribution != Zipf:
		return bad("distribution", "must be 'uniform' or 'zipf'")
	case c.Epoch.IsZero():
		return bad("epoch", "must be set")
	case c.SpanDays <= 0:
		return bad("span-days", "must be positive")
	case c.GeohashPrecision < 1 || c.GeohashPrecision > 12:
		return bad("geohash-precision", "must be within [1, 12]")
	}
	return nil
}

func (c Config) span() time.Duration {
	return time.Duration(c.SpanDays) * 24 * time.Hour
}

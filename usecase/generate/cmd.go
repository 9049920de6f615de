package generate

import (
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"github.com/pilosa/ecomgen"
	"github.com/pilosa/ecomgen/fake"
	"github.com/pkg/errors"
)

// Main holds the options for generating a dataset.
type Main struct {
	CustomerCount        int     `help:"Number of customers to generate."`
	ProductCount         int     `help:"Number of products to generate."`
	OrderCount           int     `help:"Number of orders to generate."`
	OrderLineMaxPerOrder int     `help:"Maximum number of lines per order."`
	Seed                 int64   `help:"Random seed. -1 seeds from the clock."`
	OutputDir            string  `help:"Directory to write the JSON Lines files and manifest to."`
	PriceMin             float64 `help:"Lowest product list price."`
	PriceMax             float64 `help:"Highest product list price."`
	QuantityMax          int     `help:"Maximum quantity of a single order line."`
	Distribution         string  `help:"How customers and products are picked for orders: uniform or zipf."`
	Epoch                string  `help:"End of the order window in RFC3339. Blank uses the default epoch."`
	SpanDays             int     `help:"Length of the order window in days."`
	TrackInventory       bool    `help:"Make orders consume product stock."`
	GeohashPrecision     int     `help:"Number of characters in customer geohashes."`
	Verbose              bool    `help:"Enable verbose logging."`

	stdout io.Writer
	stderr io.Writer
}

// NewMain gets a new Main with the default configuration.
func NewMain(stdout, stderr io.Writer) *Main {
	def := fake.NewConfig()
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return &Main{
		CustomerCount:        def.CustomerCount,
		ProductCount:         def.ProductCount,
		OrderCount:           def.OrderCount,
		OrderLineMaxPerOrder: def.OrderLineMaxPerOrder,
		Seed:                 def.Seed,
		OutputDir:            def.OutputDir,
		PriceMin:             def.PriceMin,
		PriceMax:             def.PriceMax,
		QuantityMax:          def.QuantityMax,
		Distribution:         def.Distribution,
		SpanDays:             def.SpanDays,
		TrackInventory:       def.TrackInventory,
		GeohashPrecision:     def.GeohashPrecision,

		stdout: stdout,
		stderr: stderr,
	}
}

// Config converts m to a generator configuration.
func (m *Main) Config() (fake.Config, error) {
	cfg := fake.NewConfig()
	cfg.CustomerCount = m.CustomerCount
	cfg.ProductCount = m.ProductCount
	cfg.OrderCount = m.OrderCount
	cfg.OrderLineMaxPerOrder = m.OrderLineMaxPerOrder
	cfg.Seed = m.Seed
	if cfg.Seed == -1 {
		cfg.Seed = time.Now().UnixNano()
	}
	cfg.OutputDir = m.OutputDir
	cfg.PriceMin = m.PriceMin
	cfg.PriceMax = m.PriceMax
	cfg.QuantityMax = m.QuantityMax
	cfg.Distribution = m.Distribution
	if m.Epoch != "" {
		epoch, err := time.Parse(time.RFC3339, m.Epoch)
		if err != nil {
			return cfg, &ecomgen.ConfigError{Param: "epoch", Reason: err.Error()}
		}
		cfg.Epoch = epoch.UTC()
	}
	cfg.SpanDays = m.SpanDays
	cfg.TrackInventory = m.TrackInventory
	cfg.GeohashPrecision = m.GeohashPrecision
	return cfg, cfg.Validate()
}

// Run generates the dataset and prints a summary.
func (m *Main) Run() error {
	cfg, err := m.Config()
	if err != nil {
		return err
	}
	var logger ecomgen.Logger = ecomgen.StdLogger{Logger: log.New(m.stderr, "", log.LstdFlags)}
	if m.Verbose {
		logger = ecomgen.VerboseLogger{Logger: log.New(m.stderr, "", log.LstdFlags)}
	}
	logger.Debugf("generating with seed %d into %s", cfg.Seed, cfg.OutputDir)
	report, err := fake.Run(cfg, logger, nil)
	if err != nil {
		return errors.Wrap(err, "generating dataset")
	}

	tw := tabwriter.NewWriter(m.stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "ENTITY\tRECORDS")
	for _, k := range ecomgen.Kinds {
		fmt.Fprintf(tw, "%s\t%d\n", k.Collection(), report.Counts[k])
	}
	fmt.Fprintf(tw, "rejected\t%d\n", report.Rejected)
	fmt.Fprintf(tw, "revenue\t%.2f\n", report.Revenue)
	return tw.Flush()
}

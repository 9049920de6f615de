package load

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/pilosa/ecomgen"
	"github.com/pilosa/ecomgen/file"
	"github.com/pilosa/ecomgen/termstat"
)

// Main holds the options for loading a generated dataset into the stores.
type Main struct {
	Backends       []string      `help:"Comma separated list of stores to load: hbase, mongo, table, kafka, pilosa."`
	InputDir       string        `help:"Directory holding the dataset written by generate."`
	BatchSize      int           `help:"Number of records written to a store at once."`
	ConnectTimeout time.Duration `help:"Time allowed for connecting to each store."`
	MaxReasons     int           `help:"Number of rejections listed per store in the summary."`
	Concurrency    int           `help:"Number of stores loaded at once. 0 loads all of them in parallel."`
	Progress       bool          `help:"Print live counters to stderr while loading."`
	Verbose        bool          `help:"Enable verbose logging."`

	Hbase  HBase
	Mongo  Mongo
	Table  Table
	Kafka  Kafka
	Pilosa Pilosa

	stdout io.Writer
	stderr io.Writer
}

// NewMain gets a new Main with the default configuration.
func NewMain(stdout, stderr io.Writer) *Main {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	lc := ecomgen.NewLoadConfig()
	b := NewBackends()
	return &Main{
		Backends:       []string{BackendHBase, BackendMongo, BackendTable},
		InputDir:       "data",
		BatchSize:      lc.BatchSize,
		ConnectTimeout: lc.ConnectTimeout,
		MaxReasons:     lc.MaxReasons,
		Concurrency:    lc.Concurrency,

		Hbase:  b.Hbase,
		Mongo:  b.Mongo,
		Table:  b.Table,
		Kafka:  b.Kafka,
		Pilosa: b.Pilosa,

		stdout: stdout,
		stderr: stderr,
	}
}

// Stores builds the selected stores.
func (m *Main) Stores() ([]ecomgen.Store, error) {
	b := Backends{Hbase: m.Hbase, Mongo: m.Mongo, Table: m.Table, Kafka: m.Kafka, Pilosa: m.Pilosa}
	return b.Build(m.Backends)
}

func (m *Main) logger() ecomgen.Logger {
	if m.Verbose {
		return ecomgen.VerboseLogger{Logger: log.New(m.stderr, "", log.LstdFlags)}
	}
	return ecomgen.StdLogger{Logger: log.New(m.stderr, "", log.LstdFlags)}
}

// Run loads the dataset in InputDir into every selected store, prints the
// summary and returns an error if any store failed.
func (m *Main) Run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	return m.run(ctx)
}

func (m *Main) run(ctx context.Context) error {
	cfg := ecomgen.NewLoadConfig()
	cfg.BatchSize = m.BatchSize
	cfg.ConnectTimeout = m.ConnectTimeout
	cfg.MaxReasons = m.MaxReasons
	cfg.Concurrency = m.Concurrency
	cfg.Log = m.logger()
	if err := cfg.Validate(); err != nil {
		return err
	}
	stores, err := m.Stores()
	if err != nil {
		return err
	}
	man, err := file.ReadManifest(m.InputDir)
	if err != nil {
		return err
	}
	cfg.Log.Debugf("loading %d records generated with seed %d", total(man), man.Seed)

	var stats *termstat.Collector
	if m.Progress {
		stats = termstat.NewCollector(m.stderr, 2*time.Second)
		cfg.Stats = stats
	}
	l := &ecomgen.Loader{
		Stores:    stores,
		NewSource: func() (ecomgen.Source, error) { return file.NewSource(m.InputDir) },
		Config:    cfg,
	}
	reports := l.Run(ctx)
	if stats != nil {
		stats.Close()
	}
	if err := ecomgen.FormatReports(m.stdout, reports); err != nil {
		return err
	}
	return ecomgen.Failed(reports)
}

func total(man *file.Manifest) int64 {
	var n int64
	for _, k := range ecomgen.Kinds {
		n += man.Count(k)
	}
	return n
}

package verify

import (
	"context"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/pilosa/ecomgen"
	"github.com/pilosa/ecomgen/file"
	"github.com/pilosa/ecomgen/kafka"
	"github.com/pilosa/ecomgen/pilosa"
	"github.com/pilosa/ecomgen/table"
	"github.com/pilosa/ecomgen/usecase/load"
	"github.com/pkg/errors"
)

// Main holds the options for verifying loaded stores against a dataset.
type Main struct {
	Backends       []string      `help:"Comma separated list of stores to verify: hbase, mongo, table, kafka, pilosa."`
	InputDir       string        `help:"Directory holding the dataset written by generate."`
	ConnectTimeout time.Duration `help:"Time allowed for connecting to each store."`

	Hbase  load.HBase
	Mongo  load.Mongo
	Table  load.Table
	Kafka  load.Kafka
	Pilosa load.Pilosa

	stdout io.Writer
}

// NewMain gets a new Main with the default configuration.
func NewMain(stdout io.Writer) *Main {
	if stdout == nil {
		stdout = os.Stdout
	}
	lm := load.NewMain(stdout, nil)
	lm.Hbase.CreateTables = false
	lm.Mongo.CreateIndexes = false
	return &Main{
		Backends:       lm.Backends,
		InputDir:       lm.InputDir,
		ConnectTimeout: lm.ConnectTimeout,
		Hbase:          lm.Hbase,
		Mongo:          lm.Mongo,
		Table:          lm.Table,
		Kafka:          lm.Kafka,
		Pilosa:         lm.Pilosa,
		stdout:         stdout,
	}
}

// Run counts the records in every selected store, prints the comparison
// with the manifest and returns an error if any store differs.
func (m *Main) Run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	return m.run(ctx)
}

// stores builds the selected stores. Tables are opened for counting only,
// and stores which can't count aren't connected to at all.
func (m *Main) stores() ([]ecomgen.Store, error) {
	b := load.Backends{Hbase: m.Hbase, Mongo: m.Mongo, Table: m.Table, Kafka: m.Kafka, Pilosa: m.Pilosa}
	stores, err := b.Build(m.Backends)
	if err != nil {
		return nil, err
	}
	for i, s := range stores {
		switch s := s.(type) {
		case *table.Store:
			s.CountOnly = true
		case *kafka.Store, *pilosa.Store:
			stores[i] = uncounted{name: s.Name()}
		}
	}
	return stores, nil
}

// uncounted stands in for a store whose writers can't count.
type uncounted struct {
	name string
}

func (u uncounted) Name() string { return u.name }

func (u uncounted) Connect(ctx context.Context) (ecomgen.Writer, error) {
	return uncountedWriter{}, nil
}

type uncountedWriter struct{}

func (uncountedWriter) WriteBatch(ctx context.Context, recs []ecomgen.Entity) (ecomgen.BatchResult, error) {
	return ecomgen.BatchResult{}, errors.New("store opened for verification")
}

func (uncountedWriter) Close() error { return nil }

func (m *Main) run(ctx context.Context) error {
	stores, err := m.stores()
	if err != nil {
		return err
	}
	man, err := file.ReadManifest(m.InputDir)
	if err != nil {
		return err
	}
	results := Verify(ctx, stores, man, m.ConnectTimeout)
	if err := FormatResults(m.stdout, results); err != nil {
		return err
	}
	return Failed(results)
}

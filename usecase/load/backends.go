package load

import (
	"fmt"
	"strings"

	"github.com/pilosa/ecomgen"
	"github.com/pilosa/ecomgen/hbase"
	"github.com/pilosa/ecomgen/kafka"
	"github.com/pilosa/ecomgen/mongo"
	"github.com/pilosa/ecomgen/pilosa"
	"github.com/pilosa/ecomgen/table"
)

// Backend names accepted by Build.
const (
	BackendHBase  = "hbase"
	BackendMongo  = "mongo"
	BackendTable  = "table"
	BackendKafka  = "kafka"
	BackendPilosa = "pilosa"
)

// HBase configures the column family store.
type HBase struct {
	Quorum       string `help:"Comma separated ZooKeeper quorum of the HBase cluster."`
	ZkRoot       string `help:"ZooKeeper root znode of the HBase cluster."`
	Namespace    string `help:"Prefix for HBase table names, e.g. 'shop:'."`
	CreateTables bool   `help:"Create missing HBase tables."`
}

// Mongo configures the document store.
type Mongo struct {
	URI           string `help:"MongoDB connection string."`
	Database      string `help:"MongoDB database to load into."`
	CreateIndexes bool   `help:"Create the secondary indexes on connect."`
}

// Table configures the distributed table store.
type Table struct {
	Root   string `help:"Local directory of the Avro table."`
	Ledger string `help:"Key ledger: bolt or leveldb."`
	Bucket string `help:"S3 bucket to copy table files to. Blank keeps the table local."`
	Prefix string `help:"Key prefix in the S3 bucket."`
	Region string `help:"AWS region of the S3 bucket."`
}

// Kafka configures the stream store.
type Kafka struct {
	Hosts       []string `help:"Comma separated list of Kafka hosts and ports."`
	TopicPrefix string   `help:"Prefix for topic names."`
}

// Pilosa configures the bitmap store.
type Pilosa struct {
	Hosts       []string `help:"Comma separated list of Pilosa hosts and ports."`
	IndexPrefix string   `help:"Prefix for Pilosa index names."`
	BatchSize   int      `help:"Batch size for Pilosa imports (latency/throughput tradeoff)."`
}

// Backends holds the configuration of every store.
type Backends struct {
	Hbase  HBase
	Mongo  Mongo
	Table  Table
	Kafka  Kafka
	Pilosa Pilosa
}

// NewBackends returns the default configuration of every store.
func NewBackends() Backends {
	return Backends{
		Hbase: HBase{
			Quorum:       "localhost:2181",
			CreateTables: true,
		},
		Mongo: Mongo{
			URI:           "mongodb://localhost:27017",
			Database:      mongo.DefaultDatabase,
			CreateIndexes: true,
		},
		Table: Table{
			Root:   "warehouse",
			Ledger: table.LedgerBolt,
			Region: "us-east-1",
		},
		Kafka: Kafka{
			Hosts: []string{"localhost:9092"},
		},
		Pilosa: Pilosa{
			Hosts:     []string{"localhost:10101"},
			BatchSize: 100000,
		},
	}
}

// Build returns the stores named in names, in order.
func (b Backends) Build(names []string) ([]ecomgen.Store, error) {
	if len(names) == 0 {
		return nil, &ecomgen.ConfigError{Param: "backends", Reason: "no backend selected"}
	}
	seen := make(map[string]bool, len(names))
	stores := make([]ecomgen.Store, 0, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if seen[name] {
			return nil, &ecomgen.ConfigError{Param: "backends", Reason: fmt.Sprintf("'%s' listed twice", name)}
		}
		seen[name] = true
		switch name {
		case BackendHBase:
			s := hbase.NewStore(b.Hbase.Quorum, b.Hbase.Namespace)
			s.ZkRoot = b.Hbase.ZkRoot
			s.CreateTables = b.Hbase.CreateTables
			stores = append(stores, s)
		case BackendMongo:
			s := mongo.NewStore(b.Mongo.URI)
			s.Database = b.Mongo.Database
			s.CreateIndexes = b.Mongo.CreateIndexes
			stores = append(stores, s)
		case BackendTable:
			if b.Table.Ledger != table.LedgerBolt && b.Table.Ledger != table.LedgerLevelDB {
				return nil, &ecomgen.ConfigError{Param: "table.ledger", Reason: fmt.Sprintf("unknown ledger '%s'", b.Table.Ledger)}
			}
			s := table.NewStore(b.Table.Root)
			s.Ledger = b.Table.Ledger
			s.Bucket = b.Table.Bucket
			s.Prefix = b.Table.Prefix
			s.Region = b.Table.Region
			stores = append(stores, s)
		case BackendKafka:
			stores = append(stores, kafka.NewStore(b.Kafka.Hosts, b.Kafka.TopicPrefix))
		case BackendPilosa:
			s := pilosa.NewStore(b.Pilosa.Hosts)
			s.IndexPrefix = b.Pilosa.IndexPrefix
			if b.Pilosa.BatchSize > 0 {
				s.BatchSize = b.Pilosa.BatchSize
			}
			stores = append(stores, s)
		default:
			return nil, &ecomgen.ConfigError{Param: "backends", Reason: fmt.Sprintf("unknown backend '%s'", name)}
		}
	}
	return stores, nil
}

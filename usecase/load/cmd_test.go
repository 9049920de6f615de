package load

import (
	"bytes"
	"context"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pilosa/ecomgen"
	"github.com/pilosa/ecomgen/fake"
	"github.com/pkg/errors"
)

func generate(t *testing.T) string {
	t.Helper()
	cfg := fake.NewConfig()
	cfg.CustomerCount, cfg.ProductCount, cfg.OrderCount = 30, 15, 60
	cfg.OutputDir = filepath.Join(t.TempDir(), "data")
	if _, err := fake.Run(cfg, nil, nil); err != nil {
		t.Fatalf("generating: %v", err)
	}
	return cfg.OutputDir
}

func TestBuild(t *testing.T) {
	b := NewBackends()
	stores, err := b.Build([]string{"HBase", " mongo", "table", "kafka", "pilosa"})
	if err != nil {
		t.Fatalf("building: %v", err)
	}
	var names []string
	for _, s := range stores {
		names = append(names, s.Name())
	}
	if strings.Join(names, ",") != "hbase,mongo,table,kafka,pilosa" {
		t.Fatalf("unexpected stores %v", names)
	}

	tests := []struct {
		names []string
		param string
	}{
		{nil, "backends"},
		{[]string{"cassandra"}, "backends"},
		{[]string{"mongo", "mongo"}, "backends"},
	}
	for _, tst := range tests {
		_, err := b.Build(tst.names)
		var cerr *ecomgen.ConfigError
		if !errors.As(err, &cerr) || cerr.Param != tst.param {
			t.Errorf("%v: expected config error, got %v", tst.names, err)
		}
	}
	b.Table.Ledger = "rocksdb"
	if _, err := b.Build([]string{"table"}); err == nil {
		t.Error("expected error for unknown ledger")
	}
}

func TestRunTable(t *testing.T) {
	dir := generate(t)
	out := &bytes.Buffer{}
	m := NewMain(out, ioutil.Discard)
	m.InputDir = dir
	m.Backends = []string{"table"}
	m.Table.Root = filepath.Join(t.TempDir(), "warehouse")
	m.BatchSize = 17

	if err := m.run(context.Background()); err != nil {
		t.Fatalf("first load: %v\n%s", err, out)
	}
	if !strings.Contains(out.String(), "table") || !strings.Contains(out.String(), " ok") {
		t.Fatalf("unexpected summary:\n%s", out)
	}

	out.Reset()
	if err := m.run(context.Background()); err != nil {
		t.Fatalf("second load: %v\n%s", err, out)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	fields := strings.Fields(lines[1])
	// BACKEND ATTEMPTED INSERTED SKIPPED ...
	if fields[0] != "table" || fields[2] != "0" || fields[1] != fields[3] {
		t.Fatalf("second load should skip everything:\n%s", out)
	}
}

func TestRunIsolatesFailures(t *testing.T) {
	dir := generate(t)
	out := &bytes.Buffer{}
	m := NewMain(out, ioutil.Discard)
	m.InputDir = dir
	m.Backends = []string{"mongo", "table"}
	m.Mongo.URI = "mongodb://127.0.0.1:1"
	m.ConnectTimeout = 300 * time.Millisecond
	m.Table.Root = filepath.Join(t.TempDir(), "warehouse")

	err := m.run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "mongo") || strings.Contains(err.Error(), "table") {
		t.Fatalf("expected only mongo to fail, got %v", err)
	}
	if !strings.Contains(out.String(), "FAILED") {
		t.Fatalf("summary does not show the failure:\n%s", out)
	}
}

func TestRunConfigErrors(t *testing.T) {
	m := NewMain(ioutil.Discard, ioutil.Discard)
	m.BatchSize = 0
	var cerr *ecomgen.ConfigError
	if err := m.run(context.Background()); !errors.As(err, &cerr) || cerr.Param != "batch-size" {
		t.Fatalf("expected batch-size config error, got %v", err)
	}

	m = NewMain(ioutil.Discard, ioutil.Discard)
	m.InputDir = filepath.Join(t.TempDir(), "missing")
	var ioerr *ecomgen.IOError
	if err := m.run(context.Background()); !errors.As(err, &ioerr) {
		t.Fatalf("expected io error, got %v", err)
	}
}

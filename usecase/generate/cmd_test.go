package generate

import (
	"bytes"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pilosa/ecomgen"
	"github.com/pilosa/ecomgen/file"
	"github.com/pkg/errors"
)

func TestRun(t *testing.T) {
	out := &bytes.Buffer{}
	m := NewMain(out, ioutil.Discard)
	m.CustomerCount, m.ProductCount, m.OrderCount = 20, 10, 50
	m.OutputDir = filepath.Join(t.TempDir(), "data")
	m.Epoch = "2023-11-01T00:00:00Z"
	if err := m.Run(); err != nil {
		t.Fatalf("running: %v", err)
	}
	man, err := file.ReadManifest(m.OutputDir)
	if err != nil {
		t.Fatalf("reading manifest: %v", err)
	}
	if man.Count(ecomgen.KindCustomer) != 20 || man.Count(ecomgen.KindOrder) != 50 {
		t.Fatalf("unexpected manifest counts %v", man.Counts)
	}
	if !strings.Contains(out.String(), "customers") || !strings.Contains(out.String(), "revenue") {
		t.Fatalf("unexpected summary:\n%s", out)
	}
}

func TestConfigErrors(t *testing.T) {
	tests := []struct {
		name  string
		set   func(m *Main)
		param string
	}{
		{"epoch", func(m *Main) { m.Epoch = "yesterday" }, "epoch"},
		{"distribution", func(m *Main) { m.Distribution = "pareto" }, "distribution"},
		{"customers", func(m *Main) { m.CustomerCount = 0 }, "customer-count"},
	}
	for _, tst := range tests {
		t.Run(tst.name, func(t *testing.T) {
			m := NewMain(ioutil.Discard, ioutil.Discard)
			m.OutputDir = filepath.Join(t.TempDir(), "data")
			tst.set(m)
			err := m.Run()
			var cerr *ecomgen.ConfigError
			if !errors.As(err, &cerr) || cerr.Param != tst.param {
				t.Fatalf("expected config error for %s, got %v", tst.param, err)
			}
			if file.Exists(m.OutputDir) {
				t.Fatal("output written despite bad config")
			}
		})
	}
}

func TestRandomSeed(t *testing.T) {
	m := NewMain(nil, nil)
	m.Seed = -1
	cfg, err := m.Config()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Seed == -1 {
		t.Fatal("seed not taken from the clock")
	}
}

package fake

import (
	"github.com/pilosa/ecomgen"
	"github.com/pilosa/ecomgen/file"
)

// GenerateReport summarizes a generator run.
type GenerateReport struct {
	Counts   map[ecomgen.Kind]int
	Rejected int
	Revenue  float64
}

// Run validates cfg, generates a dataset and writes it to cfg.OutputDir. A
// bad cfg fails with a *ecomgen.ConfigError before anything is written.
func Run(cfg Config, log ecomgen.Logger, stats ecomgen.Statter) (*GenerateReport, error) {
	if log == nil {
		log = ecomgen.NopLogger{}
	}
	if stats == nil {
		stats = ecomgen.NopStatter{}
	}
	ds, err := Generate(cfg)
	if err != nil {
		return nil, err
	}
	for _, rerr := range ds.Rejected {
		log.Printf("rejected generated record: %v", rerr)
	}

	w, err := file.NewWriter(cfg.OutputDir)
	if err != nil {
		return nil, err
	}
	report := &GenerateReport{
		Counts:   make(map[ecomgen.Kind]int, len(ecomgen.Kinds)),
		Rejected: len(ds.Rejected),
		Revenue:  ds.Revenue(),
	}
	src := NewSource(ds)
	for {
		rec, err := src.Record()
		if err != nil {
			break
		}
		if err := w.Write(rec); err != nil {
			_ = w.Close(nil)
			return nil, err
		}
		report.Counts[rec.Kind()]++
	}
	for _, k := range ecomgen.Kinds {
		stats.Count("generate."+k.String(), int64(report.Counts[k]), 1)
		log.Debugf("generated %d %s", report.Counts[k], k.Collection())
	}
	stats.Count("generate.rejected", int64(report.Rejected), 1)
	err = w.Close(&file.Manifest{
		Seed:     cfg.Seed,
		Epoch:    cfg.Epoch,
		Rejected: report.Rejected,
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

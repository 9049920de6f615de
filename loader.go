package ecomgen

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Loader loads the same records into several stores at once. Each store gets
// its own Source, connection and report, and a failing store never stops the
// others.
type Loader struct {
	Stores []Store

	// NewSource is called once per store.
	NewSource func() (Source, error)

	Config LoadConfig
}

// Run loads every store and returns one report per store, in the order of
// Stores.
func (l *Loader) Run(ctx context.Context) []*LoadReport {
	cfg := l.Config.withDefaults()
	reports := make([]*LoadReport, len(l.Stores))

	var eg errgroup.Group
	if cfg.Concurrency > 0 {
		eg.SetLimit(cfg.Concurrency)
	}
	for i, store := range l.Stores {
		i, store := i, store
		eg.Go(func() error {
			src, err := l.NewSource()
			if err != nil {
				r := newLoadReport(store.Name())
				r.Err = errors.Wrap(err, "opening source")
				reports[i] = r
				return nil
			}
			if c, ok := src.(io.Closer); ok {
				defer c.Close()
			}
			cfg.Log.Printf("%s: loading", store.Name())
			reports[i] = Load(ctx, src, store, cfg)
			cfg.Log.Printf("%s", reports[i])
			return nil
		})
	}
	_ = eg.Wait()
	return reports
}

package ecomgen

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"
)

// LoadConfig controls a load into a single store.
type LoadConfig struct {
	// BatchSize is the number of records handed to WriteBatch at once.
	BatchSize int

	// ConnectTimeout bounds Store.Connect.
	ConnectTimeout time.Duration

	// MaxReasons is the number of rejections kept verbatim in the report.
	MaxReasons int

	// Concurrency limits how many stores a Loader loads at once. Zero means
	// all of them.
	Concurrency int

	Log   Logger
	Stats Statter
}

// NewLoadConfig returns a LoadConfig with default values.
func NewLoadConfig() LoadConfig {
	return LoadConfig{
		BatchSize:      1000,
		ConnectTimeout: 10 * time.Second,
		MaxReasons:     10,
		Log:            NopLogger{},
		Stats:          NopStatter{},
	}
}

// Validate checks c for values Load can't work with.
func (c LoadConfig) Validate() error {
	switch {
	case c.BatchSize <= 0:
		return &ConfigError{Param: "batch-size", Reason: "must be positive"}
	case c.ConnectTimeout <= 0:
		return &ConfigError{Param: "connect-timeout", Reason: "must be positive"}
	case c.MaxReasons < 0:
		return &ConfigError{Param: "max-reasons", Reason: "must not be negative"}
	case c.Concurrency < 0:
		return &ConfigError{Param: "concurrency", Reason: "must not be negative"}
	}
	return nil
}

func (c LoadConfig) withDefaults() LoadConfig {
	def := NewLoadConfig()
	if c.BatchSize <= 0 {
		c.BatchSize = def.BatchSize
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = def.ConnectTimeout
	}
	if c.Log == nil {
		c.Log = def.Log
	}
	if c.Stats == nil {
		c.Stats = def.Stats
	}
	return c
}

// Load reads every record from src and writes the valid ones into store. It
// always returns a report. Records that are malformed, invalid, duplicated
// or reference records that were not seen earlier in src are rejected and
// loading continues. A connection failure ends the load and is recorded in
// LoadReport.Err as a *ConnectivityError.
func Load(ctx context.Context, src Source, store Store, cfg LoadConfig) *LoadReport {
	cfg = cfg.withDefaults()
	l := &loader{
		cfg:    cfg,
		name:   store.Name(),
		refs:   newRefChecker(),
		report: newLoadReport(store.Name()),
	}
	start := time.Now()
	defer func() {
		l.report.Duration = time.Since(start)
		cfg.Stats.Timing("load."+l.name+".duration", l.report.Duration, 1)
	}()

	cctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	w, err := store.Connect(cctx)
	cancel()
	if err != nil {
		l.report.Err = asFatal(l.name, errors.Wrap(err, "connecting"))
		cfg.Log.Printf("%s: %v", l.name, l.report.Err)
		return l.report
	}
	defer func() {
		if err := w.Close(); err != nil && l.report.Err == nil {
			l.report.Err = asFatal(l.name, errors.Wrap(err, "closing"))
		}
	}()
	l.w = w
	l.run(ctx, src)
	if l.report.Err != nil {
		cfg.Log.Printf("%s: load aborted: %v", l.name, l.report.Err)
	}
	return l.report
}

type loader struct {
	cfg    LoadConfig
	name   string
	w      Writer
	refs   *refChecker
	report *LoadReport
	batch  []Entity
}

func (l *loader) run(ctx context.Context, src Source) {
	l.batch = make([]Entity, 0, l.cfg.BatchSize)
	for {
		if err := ctx.Err(); err != nil {
			l.report.Err = err
			return
		}
		rec, err := src.Record()
		if err == io.EOF {
			break
		} else if err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) {
				l.report.attempt(verr.Kind)
				l.reject(Rejection{Reason: ReasonMalformed, Kind: verr.Kind, Key: verr.Key, Err: err})
				continue
			}
			l.report.Err = errors.Wrap(err, "reading records")
			return
		}
		l.report.attempt(kindOf(rec))
		if rej, ok := l.refs.check(rec); !ok {
			l.reject(rej)
			continue
		}
		l.batch = append(l.batch, rec)
		if len(l.batch) >= l.cfg.BatchSize {
			if !l.flush(ctx) {
				return
			}
		}
	}
	l.flush(ctx)
}

// flush writes the pending batch and reports whether loading may continue.
func (l *loader) flush(ctx context.Context) bool {
	if len(l.batch) == 0 {
		return true
	}
	res, err := l.w.WriteBatch(ctx, l.batch)
	l.cfg.Log.Debugf("%s: wrote batch of %d: %d inserted, %d skipped, %d rejected", l.name, len(l.batch), res.Inserted, res.Skipped, len(res.Rejected))
	l.batch = make([]Entity, 0, l.cfg.BatchSize)

	l.report.Inserted += res.Inserted
	l.report.Skipped += res.Skipped
	l.cfg.Stats.Count("load."+l.name+".inserted", int64(res.Inserted), 1)
	l.cfg.Stats.Count("load."+l.name+".skipped", int64(res.Skipped), 1)
	for _, rej := range res.Rejected {
		l.refs.forget(rej.Kind, rej.Key)
		l.reject(rej)
	}
	if err != nil {
		l.report.Err = asFatal(l.name, err)
		return false
	}
	return true
}

func (l *loader) reject(rej Rejection) {
	l.report.reject(rej, l.cfg.MaxReasons)
	l.cfg.Stats.Count("load."+l.name+".rejected", 1, 1)
	l.cfg.Log.Printf("%s: rejected %s", l.name, rej)
}

// refChecker tracks the keys accepted so far so that references and
// duplicates can be checked as records stream past.
type refChecker struct {
	seen map[Kind]map[string]struct{}
}

func newRefChecker() *refChecker {
	seen := make(map[Kind]map[string]struct{}, len(Kinds))
	for _, k := range Kinds {
		seen[k] = make(map[string]struct{})
	}
	return &refChecker{seen: seen}
}

func (r *refChecker) check(rec Entity) (Rejection, bool) {
	if err := Validate(rec); err != nil {
		return Rejection{Reason: ReasonInvalid, Kind: kindOf(rec), Key: keyOf(rec), Err: err}, false
	}
	kind, key := rec.Kind(), rec.Key()
	if _, ok := r.seen[kind][key]; ok {
		return Rejection{Reason: ReasonDuplicate, Kind: kind, Key: key, Err: errors.Errorf("duplicate %s key %s", kind, key)}, false
	}
	kinds, keys := references(rec)
	for i, k := range kinds {
		if _, ok := r.seen[k][keys[i]]; !ok {
			return Rejection{Reason: ReasonReferential, Kind: kind, Key: key, Err: errors.Errorf("%s %s does not exist", k, keys[i])}, false
		}
	}
	r.seen[kind][key] = struct{}{}
	return Rejection{}, true
}

func (r *refChecker) forget(k Kind, key string) {
	if m, ok := r.seen[k]; ok {
		delete(m, key)
	}
}

func kindOf(e Entity) Kind {
	if k, ok := nilRecord(e); ok {
		return k
	}
	return e.Kind()
}

func keyOf(e Entity) string {
	if _, ok := nilRecord(e); ok {
		return ""
	}
	return e.Key()
}

package hbase

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/pilosa/ecomgen"
	"github.com/pkg/errors"
	"github.com/tsuna/gohbase"
)

// Store is an ecomgen.Store writing to HBase.
type Store struct {
	// Quorum is the comma separated ZooKeeper quorum.
	Quorum string

	// ZkRoot is the ZooKeeper root znode of the cluster, if not the default.
	ZkRoot string

	// Namespace is prepended to every table name, e.g. "shop:".
	Namespace string

	// CreateTables creates missing tables on connect.
	CreateTables bool

	// WriteTimeout bounds each Put, since the client retries unavailable
	// regions until its context ends.
	WriteTimeout time.Duration

	newClient func() client
}

// NewStore returns a Store for the cluster behind quorum.
func NewStore(quorum, namespace string) *Store {
	s := &Store{
		Quorum:       quorum,
		Namespace:    namespace,
		CreateTables: true,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Name implements ecomgen.Store.
func (s *Store) Name() string { return "hbase" }

func (s *Store) table(name string) string {
	return s.Namespace + name
}

// Connect implements ecomgen.Store. It makes sure every table exists, which
// also proves the cluster is reachable.
func (s *Store) Connect(ctx context.Context) (ecomgen.Writer, error) {
	var c client
	if s.newClient != nil {
		c = s.newClient()
	} else {
		timeout := 10 * time.Second
		if dl, ok := ctx.Deadline(); ok {
			timeout = time.Until(dl)
		}
		c = newGohbaseClient(s.Quorum, s.ZkRoot, timeout)
	}
	for _, name := range tableNames {
		if err := c.EnsureTable(ctx, s.table(name), tableFamilies[name], s.CreateTables); err != nil {
			c.Close()
			return nil, &ecomgen.ConnectivityError{Backend: s.Name(), Err: err}
		}
	}
	return &writer{s: s, c: c}, nil
}

type writer struct {
	s *Store
	c client
}

// WriteBatch puts every record. A failed put either rejects the record or,
// when the cluster itself is the problem, ends the batch.
func (w *writer) WriteBatch(ctx context.Context, recs []ecomgen.Entity) (ecomgen.BatchResult, error) {
	var res ecomgen.BatchResult
	for _, rec := range recs {
		m, err := mutationFor(rec)
		if err != nil {
			res.Rejected = append(res.Rejected, ecomgen.Reject(w.s.Name(), rec, err))
			continue
		}
		err = w.put(ctx, m)
		if err != nil {
			if isFatal(err) {
				return res, &ecomgen.ConnectivityError{Backend: w.s.Name(), Err: errors.Wrapf(err, "putting %s %s", rec.Kind(), rec.Key())}
			}
			res.Rejected = append(res.Rejected, ecomgen.Reject(w.s.Name(), rec, err))
			continue
		}
		res.Inserted++
	}
	return res, nil
}

func (w *writer) put(ctx context.Context, m mutation) error {
	if w.s.WriteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.s.WriteTimeout)
		defer cancel()
	}
	return w.c.Put(ctx, w.s.table(m.table), m.key, m.values)
}

// Count implements ecomgen.Counter with a key only scan.
func (w *writer) Count(ctx context.Context, k ecomgen.Kind) (int64, error) {
	cs, ok := countSpecs[k]
	if !ok {
		return 0, errors.Errorf("can't count %s", k)
	}
	var n int64
	err := w.c.Qualifiers(ctx, w.s.table(cs.table), cs.family, func(quals []string) {
		if cs.suffix == "" {
			if len(quals) > 0 {
				n++
			}
			return
		}
		for _, q := range quals {
			if strings.HasSuffix(q, cs.suffix) {
				n++
			}
		}
	})
	return n, err
}

func (w *writer) Close() error {
	w.c.Close()
	return nil
}

// isFatal reports whether err means the cluster can't take writes, as
// opposed to a problem with one record.
func isFatal(err error) bool {
	cause := errors.Cause(err)
	if cause == context.DeadlineExceeded || cause == context.Canceled || cause == gohbase.TableNotFound {
		return true
	}
	_, ok := cause.(net.Error)
	return ok
}

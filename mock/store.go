package mock

import (
	"context"
	"sync"

	"github.com/pilosa/ecomgen"
)

// Store is an in-memory ecomgen.Store used for testing. By default it upserts
// every record; set SkipExisting to make it behave like a ledger backed store.
type Store struct {
	StoreName string

	// ConnectErr is returned by Connect when set.
	ConnectErr error

	// WriteErr is returned by WriteBatch once FailAfter batches succeeded.
	WriteErr  error
	FailAfter int

	// Reject, when set, is asked about every record. A non-nil error turns
	// the record into a schema rejection.
	Reject func(ecomgen.Entity) error

	SkipExisting bool

	mu      sync.Mutex
	records map[ecomgen.Kind]map[string]ecomgen.Entity
	batches int
	opened  int
	closed  int
}

// NewStore returns an empty Store named name.
func NewStore(name string) *Store {
	return &Store{StoreName: name}
}

// Name implements ecomgen.Store.
func (s *Store) Name() string { return s.StoreName }

// Connect implements ecomgen.Store.
func (s *Store) Connect(ctx context.Context) (ecomgen.Writer, error) {
	if s.ConnectErr != nil {
		return nil, s.ConnectErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.opened++
	s.mu.Unlock()
	return &storeWriter{s: s}, nil
}

// Len returns the number of records of kind k held by s.
func (s *Store) Len(k ecomgen.Kind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records[k])
}

// Get returns the record of kind k with the given key.
func (s *Store) Get(k ecomgen.Kind, key string) (ecomgen.Entity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.records[k][key]
	return e, ok
}

// Batches returns the number of successful WriteBatch calls.
func (s *Store) Batches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batches
}

// Open returns the number of writers which were opened and not closed.
func (s *Store) Open() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opened - s.closed
}

type storeWriter struct {
	s *Store
}

func (w *storeWriter) WriteBatch(ctx context.Context, recs []ecomgen.Entity) (ecomgen.BatchResult, error) {
	s := w.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var res ecomgen.BatchResult
	if s.WriteErr != nil && s.batches >= s.FailAfter {
		return res, s.WriteErr
	}
	if s.records == nil {
		s.records = make(map[ecomgen.Kind]map[string]ecomgen.Entity)
	}
	for _, rec := range recs {
		if s.Reject != nil {
			if err := s.Reject(rec); err != nil {
				res.Rejected = append(res.Rejected, ecomgen.Reject(s.StoreName, rec, err))
				continue
			}
		}
		m, ok := s.records[rec.Kind()]
		if !ok {
			m = make(map[string]ecomgen.Entity)
			s.records[rec.Kind()] = m
		}
		if _, exists := m[rec.Key()]; exists && s.SkipExisting {
			res.Skipped++
			continue
		}
		m[rec.Key()] = rec
		res.Inserted++
	}
	s.batches++
	return res, nil
}

func (w *storeWriter) Count(ctx context.Context, k ecomgen.Kind) (int64, error) {
	return int64(w.s.Len(k)), nil
}

func (w *storeWriter) Close() error {
	w.s.mu.Lock()
	w.s.closed++
	w.s.mu.Unlock()
	return nil
}

package ecomgen

import (
	"io"
	"sync"
)

// Source is the interface for getting records one at a time. Record returns
// io.EOF when there are no more records. A *ValidationError means one record
// was unreadable; the caller may keep reading. Any other error ends the
// stream. Implementations of Source should be thread safe.
type Source interface {
	Record() (Entity, error)
}

// SliceSource is a Source over records held in memory.
type SliceSource struct {
	mu   sync.Mutex
	recs []Entity
	errs map[int]error
	i    int
}

// NewSliceSource returns a Source yielding recs in order.
func NewSliceSource(recs ...Entity) *SliceSource {
	return &SliceSource{recs: recs, errs: make(map[int]error)}
}

// InjectError makes Record return err instead of the record at position i.
func (s *SliceSource) InjectError(i int, err error) *SliceSource {
	s.mu.Lock()
	s.errs[i] = err
	s.mu.Unlock()
	return s
}

// Record implements Source.
func (s *SliceSource) Record() (Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.i >= len(s.recs) {
		return nil, io.EOF
	}
	i := s.i
	s.i++
	if err, ok := s.errs[i]; ok {
		return nil, err
	}
	return s.recs[i], nil
}

package fake

import (
	"io"
	"sync"

	"github.com/pilosa/ecomgen"
)

// Source is an ecomgen.Source which yields the records of a generated
// Dataset in load order: customers, products, orders, then order lines.
type Source struct {
	mu   sync.Mutex
	ds   *Dataset
	kind int
	i    int
}

// NewSource creates a new Source over ds.
func NewSource(ds *Dataset) *Source {
	return &Source{ds: ds}
}

// Record implements ecomgen.Source.
func (s *Source) Record() (ecomgen.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.kind < len(ecomgen.Kinds) {
		k := ecomgen.Kinds[s.kind]
		if s.i < s.ds.Len(k) {
			e := s.ds.Entity(k, s.i)
			s.i++
			return e, nil
		}
		s.kind++
		s.i = 0
	}
	return nil, io.EOF
}

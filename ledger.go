package ecomgen

import (
	"sync"
)

// Ledger remembers which record keys a store has already written, so that
// stores without native upserts can skip records on a second load.
// Implementations should be threadsafe.
type Ledger interface {
	// Seen reports whether key of kind k was recorded.
	Seen(k Kind, key string) (bool, error)

	// Record marks keys of kind k as written.
	Record(k Kind, keys ...string) error

	// Count returns the number of keys recorded for k.
	Count(k Kind) (int64, error)

	// Sequence returns a number larger than any it returned before. Stores
	// use it to name each run's output.
	Sequence() (uint64, error)

	Close() error
}

// MapLedger is an in-memory implementation of Ledger using maps.
type MapLedger struct {
	lock sync.RWMutex
	keys map[Kind]map[string]struct{}
	seq  uint64
}

// NewMapLedger creates a new MapLedger.
func NewMapLedger() *MapLedger {
	return &MapLedger{
		keys: make(map[Kind]map[string]struct{}),
	}
}

// Seen implements Ledger.
func (m *MapLedger) Seen(k Kind, key string) (bool, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	_, ok := m.keys[k][key]
	return ok, nil
}

// Record implements Ledger.
func (m *MapLedger) Record(k Kind, keys ...string) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	set, ok := m.keys[k]
	if !ok {
		set = make(map[string]struct{})
		m.keys[k] = set
	}
	for _, key := range keys {
		set[key] = struct{}{}
	}
	return nil
}

// Count implements Ledger.
func (m *MapLedger) Count(k Kind) (int64, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return int64(len(m.keys[k])), nil
}

// Sequence implements Ledger.
func (m *MapLedger) Sequence() (uint64, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.seq++
	return m.seq, nil
}

// Close does nothing.
func (m *MapLedger) Close() error { return nil }

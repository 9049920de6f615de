// Copyright 2017 Pilosa Corp.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions
// are met:
//
// 1. Redistributions of source code must retain the above copyright
// notice, this list of conditions and the following disclaimer.
//
// 2. Redistributions in binary form must reproduce the above copyright
// notice, this list of conditions and the following disclaimer in the
// documentation and/or other materials provided with the distribution.
//
// 3. Neither the name of the copyright holder nor the names of its
// contributors may be used to endorse or promote products derived
// from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND
// CONTRIBUTORS "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES,
// INCLUDING, BUT NOT LIMITED TO, THE IMPLIED WARRANTIES OF
// MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
// DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR
// CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
// SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING,
// BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
// SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY,
// WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING
// NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH
// DAMAGE.

package leveldb

import (
	"encoding/binary"
	"os"
	"strings"
	"sync"

	"github.com/pilosa/ecomgen"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

var _ ecomgen.Ledger = &Ledger{}

// seqKey sorts before every key prefix, all of which start with a kind byte.
var seqKey = []byte{0, 's', 'e', 'q'}

// Ledger is an ecomgen.Ledger which stores keys in a single leveldb, each
// prefixed with its kind.
type Ledger struct {
	mu sync.Mutex
	db *leveldb.DB
}

type errorList []error

func (errs errorList) Error() string {
	errstrings := make([]string, len(errs))
	for i, err := range errs {
		errstrings[i] = err.Error()
	}
	return strings.Join(errstrings, "; ")
}

// NewLedger opens or creates a ledger in dirname.
func NewLedger(dirname string) (*Ledger, error) {
	err := os.MkdirAll(dirname, 0700)
	if err != nil {
		return nil, errors.Wrap(err, "making directory")
	}
	db, err := leveldb.OpenFile(dirname, &opt.Options{})
	if err != nil {
		return nil, errors.Wrapf(err, "opening leveldb at %v", dirname)
	}
	return &Ledger{db: db}, nil
}

func prefixed(k ecomgen.Kind, key string) []byte {
	b := make([]byte, 0, len(key)+1)
	b = append(b, byte(k))
	return append(b, key...)
}

// Seen implements ecomgen.Ledger.
func (l *Ledger) Seen(k ecomgen.Kind, key string) (bool, error) {
	ok, err := l.db.Has(prefixed(k, key), nil)
	return ok, errors.Wrap(err, "looking up key")
}

// Record implements ecomgen.Ledger.
func (l *Ledger) Record(k ecomgen.Kind, keys ...string) error {
	batch := new(leveldb.Batch)
	for _, key := range keys {
		batch.Put(prefixed(k, key), nil)
	}
	return errors.Wrap(l.db.Write(batch, nil), "writing batch")
}

// Count implements ecomgen.Ledger by iterating over the kind's prefix.
func (l *Ledger) Count(k ecomgen.Kind) (int64, error) {
	iter := l.db.NewIterator(util.BytesPrefix([]byte{byte(k)}), nil)
	defer iter.Release()
	var n int64
	for iter.Next() {
		n++
	}
	return n, errors.Wrap(iter.Error(), "iterating keys")
}

// Sequence implements ecomgen.Ledger.
func (l *Ledger) Sequence() (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var seq uint64
	val, err := l.db.Get(seqKey, nil)
	if err == nil && len(val) == 8 {
		seq = binary.BigEndian.Uint64(val)
	} else if err != nil && err != leveldb.ErrNotFound {
		return 0, errors.Wrap(err, "reading sequence")
	}
	seq++
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, seq)
	if err := l.db.Put(seqKey, buf, &opt.WriteOptions{Sync: true}); err != nil {
		return 0, errors.Wrap(err, "writing sequence")
	}
	return seq, nil
}

// Close closes the underlying leveldb.
func (l *Ledger) Close() error {
	errs := make(errorList, 0)
	if err := l.db.Close(); err != nil {
		errs = append(errs, errors.Wrap(err, "closing leveldb"))
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

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

package pilosa

import (
	"context"
	"io"
	"sync"
	"time"

	gopilosa "github.com/pilosa/go-pilosa"
	"github.com/pilosa/ecomgen"
	"github.com/pkg/errors"
)

// client is the part of *gopilosa.Client the store uses.
type client interface {
	SyncSchema(schema *gopilosa.Schema) error
	ImportField(field *gopilosa.Field, iterator gopilosa.RecordIterator, options ...gopilosa.ImportOption) error
}

// Store is an ecomgen.Store setting bits in Pilosa.
type Store struct {
	Hosts []string

	// IndexPrefix is prepended to every index name.
	IndexPrefix string

	// BatchSize is the import batch size per field.
	BatchSize int

	newClient func(hosts []string, connectTimeout time.Duration) (client, error)
}

// NewStore returns a Store for the cluster at hosts.
func NewStore(hosts []string) *Store {
	return &Store{
		Hosts:     hosts,
		BatchSize: 100000,
	}
}

// Name implements ecomgen.Store.
func (s *Store) Name() string { return "pilosa" }

func newGopilosaClient(hosts []string, connectTimeout time.Duration) (client, error) {
	c, err := gopilosa.NewClient(hosts,
		gopilosa.OptClientSocketTimeout(time.Minute*60),
		gopilosa.OptClientConnectTimeout(connectTimeout))
	if err != nil {
		return nil, errors.Wrap(err, "creating pilosa cluster client")
	}
	return c, nil
}

// Connect implements ecomgen.Store. It creates the indexes and fields and
// starts one importer per field.
func (s *Store) Connect(ctx context.Context) (ecomgen.Writer, error) {
	newClient := s.newClient
	if newClient == nil {
		newClient = newGopilosaClient
	}
	timeout := time.Second * 60
	if dl, ok := ctx.Deadline(); ok {
		timeout = time.Until(dl)
	}
	c, err := newClient(s.Hosts, timeout)
	if err != nil {
		return nil, &ecomgen.ConnectivityError{Backend: s.Name(), Err: err}
	}
	schema := gopilosa.NewSchema()
	var fields []*gopilosa.Field
	for _, name := range indexNames {
		index := schema.Index(s.IndexPrefix+name, gopilosa.OptIndexKeys(true))
		for _, fname := range indexFields[name] {
			fields = append(fields, index.Field(fname,
				gopilosa.OptFieldKeys(true),
				gopilosa.OptFieldTypeSet(gopilosa.CacheTypeRanked, 100000)))
		}
	}
	if err := c.SyncSchema(schema); err != nil {
		return nil, &ecomgen.ConnectivityError{Backend: s.Name(), Err: errors.Wrap(err, "synchronizing schema")}
	}

	w := &writer{s: s, recordChans: make(map[string]chanRecordIterator)}
	for _, field := range fields {
		w.startImport(c, field)
	}
	return w, nil
}

type writer struct {
	s *Store

	recordChans map[string]chanRecordIterator
	importWG    sync.WaitGroup

	mu  sync.Mutex
	err error
}

// startImport runs an importer for field. If the import fails the rest of
// the field's records are drained so senders never block.
func (w *writer) startImport(c client, field *gopilosa.Field) {
	ch := newChanRecordIterator()
	w.recordChans[field.Name()] = ch
	w.importWG.Add(1)
	go func() {
		defer w.importWG.Done()
		err := c.ImportField(field, ch, gopilosa.OptImportBatchSize(w.s.BatchSize))
		if err != nil {
			w.setErr(errors.Wrapf(err, "importing field '%s'", field.Name()))
			for range ch {
			}
		}
	}()
}

func (w *writer) setErr(err error) {
	w.mu.Lock()
	if w.err == nil {
		w.err = err
	}
	w.mu.Unlock()
}

func (w *writer) importErr() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// WriteBatch queues the bits of recs for import.
func (w *writer) WriteBatch(ctx context.Context, recs []ecomgen.Entity) (ecomgen.BatchResult, error) {
	var res ecomgen.BatchResult
	if err := w.importErr(); err != nil {
		return res, &ecomgen.ConnectivityError{Backend: w.s.Name(), Err: err}
	}
	for _, rec := range recs {
		bits, err := bitsFor(rec)
		if err != nil {
			res.Rejected = append(res.Rejected, ecomgen.Reject(w.s.Name(), rec, err))
			continue
		}
		for _, b := range bits {
			w.recordChans[b.field] <- gopilosa.Column{RowKey: b.row, ColumnKey: b.column}
		}
		res.Inserted++
	}
	return res, nil
}

// Close waits for all imports to finish.
func (w *writer) Close() error {
	for _, ch := range w.recordChans {
		close(ch)
	}
	w.importWG.Wait()
	if err := w.importErr(); err != nil {
		return &ecomgen.ConnectivityError{Backend: w.s.Name(), Err: err}
	}
	return nil
}

type chanRecordIterator chan gopilosa.Record

func newChanRecordIterator() chanRecordIterator {
	return make(chan gopilosa.Record, 200000)
}

func (c chanRecordIterator) NextRecord() (gopilosa.Record, error) {
	b, ok := <-c
	if !ok {
		return b, io.EOF
	}
	return b, nil
}

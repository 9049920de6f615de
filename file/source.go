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

package file

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/pilosa/ecomgen"
	"github.com/pilosa/ecomgen/json"
)

// maxLine bounds the size of a single JSON record.
const maxLine = 1 << 20

// Source is an ecomgen.Source which reads the record files of a dataset
// directory in load order: customers, products, orders, then order lines.
// Lines that can't be decoded or are longer than 1 MiB come back as
// *ecomgen.ValidationError; a missing or unreadable file ends the stream with
// an *ecomgen.IOError.
type Source struct {
	dir     string
	records chan record
	done    chan struct{}
	once    sync.Once
}

type record struct {
	rec ecomgen.Entity
	err error
}

// NewSource gets a new file source over the dataset in dir. Every record
// file must exist.
func NewSource(dir string) (*Source, error) {
	for _, k := range ecomgen.Kinds {
		name := filepath.Join(dir, FileName(k))
		if _, err := os.Stat(name); err != nil {
			return nil, &ecomgen.IOError{Path: name, Err: err}
		}
	}
	s := &Source{
		dir:     dir,
		records: make(chan record, 100),
		done:    make(chan struct{}),
	}
	go s.run()
	return s, nil
}

// Record implements ecomgen.Source.
func (s *Source) Record() (ecomgen.Entity, error) {
	r, ok := <-s.records
	if !ok {
		return nil, io.EOF
	}
	return r.rec, r.err
}

// Close stops reading. It is safe to call more than once.
func (s *Source) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}

func (s *Source) run() {
	defer close(s.records)
	for _, k := range ecomgen.Kinds {
		if !s.readFile(k) {
			return
		}
	}
}

// readFile sends every record of kind k and reports whether to go on.
func (s *Source) readFile(k ecomgen.Kind) bool {
	name := filepath.Join(s.dir, FileName(k))
	f, err := os.Open(name)
	if err != nil {
		s.send(record{err: &ecomgen.IOError{Path: name, Err: err}})
		return false
	}
	defer f.Close()

	r := bufio.NewReaderSize(f, 64*1024)
	for lineNo := 1; ; lineNo++ {
		line, tooLong, err := readLine(r)
		if err != nil && err != io.EOF {
			s.send(record{err: &ecomgen.IOError{Path: name, Err: err}})
			return false
		}
		var rec record
		switch {
		case tooLong:
			rec.err = s.invalid(k, lineNo, fmt.Sprintf("line longer than %d bytes", maxLine))
		case len(line) > 0:
			rec.rec, rec.err = json.Unmarshal(k, line)
			if rec.err != nil {
				rec.err = s.invalid(k, lineNo, rec.err.Error())
			}
		}
		if (rec.rec != nil || rec.err != nil) && !s.send(rec) {
			return false
		}
		if err == io.EOF {
			return true
		}
	}
}

func (s *Source) invalid(k ecomgen.Kind, lineNo int, reason string) error {
	return &ecomgen.ValidationError{
		Kind:   k,
		Key:    fmt.Sprintf("%s:%d", FileName(k), lineNo),
		Reason: reason,
	}
}

// readLine returns the next line without its line ending. The rest of a line
// longer than maxLine is read and dropped, and tooLong is set.
func readLine(r *bufio.Reader) (line []byte, tooLong bool, err error) {
	for {
		frag, err := r.ReadSlice('\n')
		if !tooLong {
			if len(line)+len(frag) > maxLine+1 {
				tooLong, line = true, nil
			} else {
				line = append(line, frag...)
			}
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		return bytes.TrimRight(line, "\r\n"), tooLong, err
	}
}

func (s *Source) send(r record) bool {
	select {
	case s.records <- r:
		return true
	case <-s.done:
		return false
	}
}

package file

import (
	"bufio"
	"os"
	"path/filepath"

	"github.com/pilosa/ecomgen"
	"github.com/pilosa/ecomgen/json"
	"github.com/pkg/errors"
)

// Writer writes records into a dataset directory, one JSON Lines file per
// entity kind.
type Writer struct {
	dir    string
	files  map[ecomgen.Kind]*os.File
	bufs   map[ecomgen.Kind]*bufio.Writer
	counts map[ecomgen.Kind]int64
}

// NewWriter creates dir if needed and truncates the record files in it.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, &ecomgen.IOError{Path: dir, Err: err}
	}
	w := &Writer{
		dir:    dir,
		files:  make(map[ecomgen.Kind]*os.File),
		bufs:   make(map[ecomgen.Kind]*bufio.Writer),
		counts: make(map[ecomgen.Kind]int64),
	}
	for _, k := range ecomgen.Kinds {
		name := filepath.Join(dir, FileName(k))
		f, err := os.Create(name)
		if err != nil {
			w.closeFiles()
			return nil, &ecomgen.IOError{Path: name, Err: err}
		}
		w.files[k] = f
		w.bufs[k] = bufio.NewWriterSize(f, 1<<16)
	}
	return w, nil
}

// Write appends e to the file for its kind.
func (w *Writer) Write(e ecomgen.Entity) error {
	buf, ok := w.bufs[e.Kind()]
	if !ok {
		return errors.Errorf("no file for records of kind %s", e.Kind())
	}
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if _, err := buf.Write(append(data, '\n')); err != nil {
		return &ecomgen.IOError{Path: w.files[e.Kind()].Name(), Err: err}
	}
	w.counts[e.Kind()]++
	return nil
}

// Close flushes and closes every file and then writes the manifest. The
// manifest's Counts and Files are filled in from what was written.
func (w *Writer) Close(m *Manifest) error {
	for _, k := range ecomgen.Kinds {
		if err := w.bufs[k].Flush(); err != nil {
			name := w.files[k].Name()
			w.closeFiles()
			return &ecomgen.IOError{Path: name, Err: err}
		}
	}
	if err := w.closeFiles(); err != nil {
		return err
	}
	if m == nil {
		m = &Manifest{}
	}
	m.Counts = make(map[string]int64, len(ecomgen.Kinds))
	m.Files = m.Files[:0]
	for _, k := range ecomgen.Kinds {
		m.Counts[k.Collection()] = w.counts[k]
		m.Files = append(m.Files, FileName(k))
	}
	return writeManifest(w.dir, m)
}

func (w *Writer) closeFiles() error {
	var first error
	for _, k := range ecomgen.Kinds {
		f, ok := w.files[k]
		if !ok {
			continue
		}
		if err := f.Close(); err != nil && first == nil {
			first = &ecomgen.IOError{Path: f.Name(), Err: err}
		}
		delete(w.files, k)
	}
	return first
}

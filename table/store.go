package table

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/linkedin/goavro/v2"
	"github.com/pilosa/ecomgen"
	"github.com/pilosa/ecomgen/boltdb"
	"github.com/pilosa/ecomgen/leveldb"
	"github.com/pkg/errors"
)

// Ledger implementations.
const (
	LedgerBolt    = "bolt"
	LedgerLevelDB = "leveldb"
)

// LedgerDir is the directory under the table root holding the key ledger.
// Spark skips paths starting with an underscore.
const LedgerDir = "_ledger"

// Store is an ecomgen.Store writing an Avro table under Root.
type Store struct {
	Root string

	// Ledger selects the key ledger, LedgerBolt or LedgerLevelDB.
	Ledger string

	// Bucket, when set, receives a copy of every file written, under
	// Prefix, when the writer is closed.
	Bucket string
	Prefix string
	Region string

	// UploadTimeout bounds uploading the files of one run.
	UploadTimeout time.Duration

	// CountOnly opens the ledger for counting. No run number is allocated,
	// nothing is created under Root and writes fail.
	CountOnly bool

	newUploader func() (uploader, error)
}

// NewStore returns a Store writing under root with a bolt ledger.
func NewStore(root string) *Store {
	return &Store{
		Root:          root,
		Ledger:        LedgerBolt,
		Region:        "us-east-1",
		UploadTimeout: 5 * time.Minute,
	}
}

// Name implements ecomgen.Store.
func (s *Store) Name() string { return "table" }

func (s *Store) openLedger() (ecomgen.Ledger, error) {
	dir := filepath.Join(s.Root, LedgerDir)
	switch s.Ledger {
	case LedgerBolt, "":
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, &ecomgen.IOError{Path: dir, Err: err}
		}
		l, err := boltdb.NewLedger(filepath.Join(dir, "keys.bolt"))
		if err != nil {
			return nil, &ecomgen.IOError{Path: dir, Err: err}
		}
		return l, nil
	case LedgerLevelDB:
		l, err := leveldb.NewLedger(filepath.Join(dir, "keys.leveldb"))
		if err != nil {
			return nil, &ecomgen.IOError{Path: dir, Err: err}
		}
		return l, nil
	}
	return nil, &ecomgen.ConfigError{Param: "table.ledger", Reason: fmt.Sprintf("unknown ledger '%s'", s.Ledger)}
}

// Connect implements ecomgen.Store. It opens the ledger, allocates the run
// number used in file names and, when uploading, checks the bucket.
func (s *Store) Connect(ctx context.Context) (ecomgen.Writer, error) {
	if s.CountOnly {
		return s.connectCounting()
	}
	codecs, err := Codecs()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(s.Root, 0755); err != nil {
		return nil, &ecomgen.IOError{Path: s.Root, Err: err}
	}
	var up uploader
	if s.Bucket != "" {
		newUploader := s.newUploader
		if newUploader == nil {
			newUploader = func() (uploader, error) { return newS3Uploader(s.Region, s.Bucket) }
		}
		if up, err = newUploader(); err != nil {
			return nil, &ecomgen.ConnectivityError{Backend: s.Name(), Err: err}
		}
		if err := up.CheckBucket(ctx); err != nil {
			return nil, &ecomgen.ConnectivityError{Backend: s.Name(), Err: err}
		}
	}
	ledger, err := s.openLedger()
	if err != nil {
		return nil, err
	}
	run, err := ledger.Sequence()
	if err != nil {
		ledger.Close()
		return nil, &ecomgen.IOError{Path: filepath.Join(s.Root, LedgerDir), Err: err}
	}
	return &writer{
		s:          s,
		codecs:     codecs,
		ledger:     ledger,
		uploader:   up,
		run:        run,
		parts:      make(map[string]*part),
		pending:    make(map[ecomgen.Kind][]string),
		orderDates: make(map[uint64]string),
	}, nil
}

// connectCounting returns a writer which only counts. A table without a
// ledger holds no records.
func (s *Store) connectCounting() (ecomgen.Writer, error) {
	dir := filepath.Join(s.Root, LedgerDir)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return &writer{s: s, ledger: ecomgen.NewMapLedger(), countOnly: true}, nil
	} else if err != nil {
		return nil, &ecomgen.IOError{Path: dir, Err: err}
	}
	ledger, err := s.openLedger()
	if err != nil {
		return nil, err
	}
	return &writer{s: s, ledger: ledger, countOnly: true}, nil
}

// part is one open output file.
type part struct {
	rel string
	f   *os.File
	ocf *goavro.OCFWriter
}

type writer struct {
	s        *Store
	codecs   map[ecomgen.Kind]*goavro.Codec
	ledger   ecomgen.Ledger
	uploader uploader
	run      uint64
	seq      int

	countOnly bool

	parts      map[string]*part
	written    []string
	pending    map[ecomgen.Kind][]string
	orderDates map[uint64]string
}

// partitionDir returns the directory of rec relative to the table root.
func (w *writer) partitionDir(rec ecomgen.Entity) string {
	dir := rec.Kind().Collection()
	switch r := ecomgen.Value(rec).(type) {
	case ecomgen.Order:
		return path.Join(dir, PartitionColumn+"="+w.orderDates[r.ID])
	case ecomgen.OrderLine:
		date, ok := w.orderDates[r.OrderID]
		if !ok {
			date = DefaultPartition
		}
		return path.Join(dir, PartitionColumn+"="+date)
	}
	return dir
}

func (w *writer) part(k ecomgen.Kind, dir string) (*part, error) {
	if p, ok := w.parts[dir]; ok {
		return p, nil
	}
	full := filepath.Join(w.s.Root, filepath.FromSlash(dir))
	if err := os.MkdirAll(full, 0755); err != nil {
		return nil, &ecomgen.IOError{Path: full, Err: err}
	}
	w.seq++
	rel := path.Join(dir, fmt.Sprintf("part-%05d-%05d.avro", w.run, w.seq))
	name := filepath.Join(w.s.Root, filepath.FromSlash(rel))
	f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, &ecomgen.IOError{Path: name, Err: err}
	}
	ocf, err := goavro.NewOCFWriter(goavro.OCFConfig{
		W:               f,
		Codec:           w.codecs[k],
		CompressionName: goavro.CompressionSnappyLabel,
	})
	if err != nil {
		f.Close()
		os.Remove(name)
		return nil, &ecomgen.IOError{Path: name, Err: errors.Wrap(err, "starting container")}
	}
	p := &part{rel: rel, f: f, ocf: ocf}
	w.parts[dir] = p
	w.written = append(w.written, rel)
	return p, nil
}

// WriteBatch appends the records the ledger does not hold yet to the
// partition files of this run. Records are encoded before they are
// appended, so a record the schema can't hold is rejected on its own.
func (w *writer) WriteBatch(ctx context.Context, recs []ecomgen.Entity) (ecomgen.BatchResult, error) {
	var res ecomgen.BatchResult
	if w.countOnly {
		return res, &ecomgen.ConfigError{Param: "table", Reason: "store opened for counting only"}
	}
	// Records are grouped per partition so each part gets one block per batch.
	type group struct {
		p      *part
		kind   ecomgen.Kind
		datums []interface{}
		keys   []string
	}
	var groups []*group
	byDir := make(map[string]*group)
	for _, rec := range recs {
		if o, ok := ecomgen.Value(rec).(ecomgen.Order); ok {
			w.orderDates[o.ID] = o.Timestamp.UTC().Format("2006-01-02")
		}
		seen, err := w.ledger.Seen(rec.Kind(), rec.Key())
		if err != nil {
			return res, &ecomgen.IOError{Path: filepath.Join(w.s.Root, LedgerDir), Err: err}
		}
		if seen {
			res.Skipped++
			continue
		}

		datum, err := native(rec)
		if err == nil {
			_, err = w.codecs[rec.Kind()].BinaryFromNative(nil, datum)
		}
		if err != nil {
			res.Rejected = append(res.Rejected, ecomgen.Reject(w.s.Name(), rec, err))
			continue
		}
		dir := w.partitionDir(rec)
		g, ok := byDir[dir]
		if !ok {
			p, err := w.part(rec.Kind(), dir)
			if err != nil {
				return res, err
			}
			g = &group{p: p, kind: rec.Kind()}
			byDir[dir] = g
			groups = append(groups, g)
		}
		g.datums = append(g.datums, datum)
		g.keys = append(g.keys, rec.Key())
	}
	for _, g := range groups {
		if err := g.p.ocf.Append(g.datums); err != nil {
			return res, &ecomgen.IOError{Path: g.p.f.Name(), Err: errors.Wrap(err, "appending")}
		}
		w.pending[g.kind] = append(w.pending[g.kind], g.keys...)
		res.Inserted += len(g.keys)
	}
	return res, nil
}

// Count implements ecomgen.Counter from the ledger.
func (w *writer) Count(ctx context.Context, k ecomgen.Kind) (int64, error) {
	return w.ledger.Count(k)
}

// Close finishes the run's files, uploads them if configured and records
// the written keys. If the upload fails the run's files are removed and
// nothing is recorded, so the next load writes the records again.
func (w *writer) Close() (err error) {
	defer func() {
		if cerr := w.ledger.Close(); cerr != nil && err == nil {
			err = &ecomgen.IOError{Path: filepath.Join(w.s.Root, LedgerDir), Err: cerr}
		}
	}()
	for _, p := range w.parts {
		if cerr := p.f.Close(); cerr != nil && err == nil {
			err = &ecomgen.IOError{Path: p.f.Name(), Err: cerr}
		}
	}
	if err != nil {
		return err
	}

	if w.uploader != nil && len(w.written) > 0 {
		if uerr := w.upload(); uerr != nil {
			w.removeWritten()
			return &ecomgen.ConnectivityError{Backend: w.s.Name(), Err: uerr}
		}
	}
	for _, k := range ecomgen.Kinds {
		if len(w.pending[k]) == 0 {
			continue
		}
		if rerr := w.ledger.Record(k, w.pending[k]...); rerr != nil {
			return &ecomgen.IOError{Path: filepath.Join(w.s.Root, LedgerDir), Err: rerr}
		}
	}
	return nil
}

func (w *writer) upload() error {
	ctx := context.Background()
	if w.s.UploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.s.UploadTimeout)
		defer cancel()
	}
	for _, rel := range w.written {
		key := path.Join(w.s.Prefix, rel)
		if err := w.uploader.Upload(ctx, key, filepath.Join(w.s.Root, filepath.FromSlash(rel))); err != nil {
			return err
		}
	}
	return nil
}

func (w *writer) removeWritten() {
	for _, rel := range w.written {
		os.Remove(filepath.Join(w.s.Root, filepath.FromSlash(rel)))
	}
}

package table

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/linkedin/goavro/v2"
	"github.com/pilosa/ecomgen"
	"github.com/pilosa/ecomgen/test"
	"github.com/pkg/errors"
)

var ts = time.Date(2023, 10, 20, 8, 15, 0, 0, time.UTC)

func dataset() []ecomgen.Entity {
	l3 := ecomgen.OrderLine{OrderID: 3, LineNo: 1, ProductID: 5, Quantity: 2, UnitPrice: 22.75}
	l4 := ecomgen.OrderLine{OrderID: 4, LineNo: 1, ProductID: 5, Quantity: 1, UnitPrice: 22.75}
	o3 := ecomgen.Order{ID: 3, CustomerID: 1, Timestamp: ts, Status: ecomgen.StatusDelivered, PaymentMethod: "gift_card", DiscountRate: 0.15}
	o3.Subtotal, o3.Discount, o3.Total = ecomgen.Totals(o3.DiscountRate, []ecomgen.OrderLine{l3})
	o4 := ecomgen.Order{ID: 4, CustomerID: 1, Timestamp: ts.Add(24 * time.Hour), Status: ecomgen.StatusPlaced, PaymentMethod: "paypal"}
	o4.Subtotal, o4.Discount, o4.Total = ecomgen.Totals(o4.DiscountRate, []ecomgen.OrderLine{l4})
	return []ecomgen.Entity{
		ecomgen.Customer{ID: 1, Name: "Omar Hill", Region: "midwest", SignupDate: ts, City: "Chicago", State: "IL", Latitude: 41.88, Longitude: -87.63, Geohash: "dp3wjz", LastActive: ts},
		ecomgen.Product{ID: 5, Name: "Modern Mat", Category: "Sports", Subcategory: "Sports Outlet", ProfitMargin: 0.31, Price: 22.75, Stock: 12, Active: true, CreatedAt: ts,
			PriceHistory: []ecomgen.PricePoint{{Price: 25, Date: ts}, {Price: 22.75, Date: ts.AddDate(0, 1, 0)}}},
		o3, o4, l3, l4,
	}
}

// files lists the avro files under root relative to it.
func files(t *testing.T, root string) []string {
	t.Helper()
	var names []string
	err := filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if strings.HasSuffix(p, ".avro") {
			rel, _ := filepath.Rel(root, p)
			names = append(names, filepath.ToSlash(rel))
		}
		return nil
	})
	test.ErrNil(t, err, "walking table")
	sort.Strings(names)
	return names
}

func readAll(t *testing.T, name string) []map[string]interface{} {
	t.Helper()
	f, err := os.Open(name)
	test.ErrNil(t, err, "opening "+name)
	defer f.Close()
	r, err := goavro.NewOCFReader(f)
	test.ErrNil(t, err, "reading container header")
	var recs []map[string]interface{}
	for r.Scan() {
		datum, err := r.Read()
		test.ErrNil(t, err, "reading datum")
		recs = append(recs, datum.(map[string]interface{}))
	}
	test.ErrNil(t, r.Err(), "scanning")
	return recs
}

func TestCodecs(t *testing.T) {
	codecs, err := Codecs()
	test.ErrNil(t, err, "compiling schemas")
	for _, rec := range dataset() {
		t.Run(rec.Kind().String()+"-"+rec.Key(), func(t *testing.T) {
			datum, err := native(rec)
			test.ErrNil(t, err, "native")
			buf, err := codecs[rec.Kind()].BinaryFromNative(nil, datum)
			test.ErrNil(t, err, "encoding")
			back, _, err := codecs[rec.Kind()].NativeFromBinary(buf)
			test.ErrNil(t, err, "decoding")
			m := back.(map[string]interface{})
			if h, ok := datum["price_history"].([]interface{}); ok {
				got := m["price_history"].([]interface{})
				if len(got) != len(h) {
					t.Fatalf("price_history: got %d points, want %d", len(got), len(h))
				}
				for i := range h {
					want, pt := h[i].(map[string]interface{}), got[i].(map[string]interface{})
					if pt["price"] != want["price"] || !pt["date"].(time.Time).Equal(want["date"].(time.Time)) {
						t.Errorf("price_history[%d]: got %v, want %v", i, pt, want)
					}
				}
				delete(datum, "price_history")
			}
			for k, v := range datum {
				if tm, ok := v.(time.Time); ok {
					if !m[k].(time.Time).Equal(tm) {
						t.Errorf("%s: got %v, want %v", k, m[k], tm)
					}
					continue
				}
				if m[k] != v {
					t.Errorf("%s: got %v (%T), want %v (%T)", k, m[k], m[k], v, v)
				}
			}
		})
	}
}

func TestLoadTwice(t *testing.T) {
	for _, ledger := range []string{LedgerBolt, LedgerLevelDB} {
		t.Run(ledger, func(t *testing.T) {
			root := t.TempDir()
			s := NewStore(root)
			s.Ledger = ledger
			recs := dataset()

			report := ecomgen.Load(context.Background(), ecomgen.NewSliceSource(recs...), s, ecomgen.NewLoadConfig())
			if !report.OK() || report.Inserted != len(recs) {
				t.Fatalf("first load: %s", report)
			}
			first := files(t, root)
			test.MustBe(t, first, []string{
				"customers/part-00001-00001.avro",
				"order_lines/order_date=2023-10-20/part-00001-00005.avro",
				"order_lines/order_date=2023-10-21/part-00001-00006.avro",
				"orders/order_date=2023-10-20/part-00001-00003.avro",
				"orders/order_date=2023-10-21/part-00001-00004.avro",
				"products/part-00001-00002.avro",
			}, "first load files")

			lines := readAll(t, filepath.Join(root, "order_lines", "order_date=2023-10-20", "part-00001-00005.avro"))
			if len(lines) != 1 || lines[0]["amount"] != 45.5 || lines[0]["line_no"] != int32(1) {
				t.Fatalf("unexpected lines: %v", lines)
			}

			report = ecomgen.Load(context.Background(), ecomgen.NewSliceSource(recs...), s, ecomgen.NewLoadConfig())
			if !report.OK() || report.Inserted != 0 || report.Skipped != len(recs) {
				t.Fatalf("second load should skip everything: %s", report)
			}
			test.MustBe(t, files(t, root), first, "files after second load")

			w, err := s.Connect(context.Background())
			test.ErrNil(t, err, "connecting")
			defer w.Close()
			n, err := w.(ecomgen.Counter).Count(context.Background(), ecomgen.KindOrder)
			test.ErrNil(t, err, "counting")
			test.MustBe(t, n, int64(2), "orders")
		})
	}
}

func TestLineOfEarlierOrder(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root)
	recs := dataset()
	report := ecomgen.Load(context.Background(), ecomgen.NewSliceSource(recs[:4]...), s, ecomgen.NewLoadConfig())
	if !report.OK() {
		t.Fatalf("first load: %s", report)
	}
	// the orders are skipped but still give their lines a partition.
	report = ecomgen.Load(context.Background(), ecomgen.NewSliceSource(recs...), s, ecomgen.NewLoadConfig())
	if !report.OK() || report.Inserted != 2 || report.Skipped != 4 {
		t.Fatalf("second load: %s", report)
	}
	for _, f := range files(t, root) {
		if strings.Contains(f, DefaultPartition) {
			t.Fatalf("line written to default partition: %s", f)
		}
	}
}

func TestOneBlockPerBatch(t *testing.T) {
	root := t.TempDir()
	w, err := NewStore(root).Connect(context.Background())
	test.ErrNil(t, err, "connecting")
	var recs []ecomgen.Entity
	for id := uint64(1); id <= 3; id++ {
		recs = append(recs, ecomgen.Customer{ID: id, Name: "Ana Diaz", Region: "midwest", SignupDate: ts, City: "Chicago", State: "IL", Geohash: "dp3wjz", LastActive: ts})
	}
	res, err := w.WriteBatch(context.Background(), recs)
	test.ErrNil(t, err, "writing")
	test.MustBe(t, res.Inserted, 3, "inserted")
	test.ErrNil(t, w.Close(), "closing")

	name := filepath.Join(root, "customers", "part-00001-00001.avro")
	data, err := os.ReadFile(name)
	test.ErrNil(t, err, "reading part")
	// The sync marker ends the header and every block.
	marker := data[len(data)-16:]
	test.MustBe(t, bytes.Count(data, marker), 2, "sync markers")
	test.MustBe(t, len(readAll(t, name)), 3, "customers")
}

func TestCountOnly(t *testing.T) {
	t.Run("missing table", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "missing")
		s := NewStore(root)
		s.CountOnly = true
		w, err := s.Connect(context.Background())
		test.ErrNil(t, err, "connecting")
		n, err := w.(ecomgen.Counter).Count(context.Background(), ecomgen.KindCustomer)
		test.ErrNil(t, err, "counting")
		test.MustBe(t, n, int64(0), "customers")
		if _, err := w.WriteBatch(context.Background(), dataset()); err == nil {
			t.Fatal("expected error writing in count only mode")
		}
		test.ErrNil(t, w.Close(), "closing")
		if _, err := os.Stat(root); !os.IsNotExist(err) {
			t.Fatalf("root should not exist, got %v", err)
		}
	})

	t.Run("run number unchanged", func(t *testing.T) {
		root := t.TempDir()
		s := NewStore(root)
		report := ecomgen.Load(context.Background(), ecomgen.NewSliceSource(dataset()...), s, ecomgen.NewLoadConfig())
		if !report.OK() {
			t.Fatalf("loading: %s", report)
		}

		counting := NewStore(root)
		counting.CountOnly = true
		for i := 0; i < 2; i++ {
			w, err := counting.Connect(context.Background())
			test.ErrNil(t, err, "connecting to count")
			n, err := w.(ecomgen.Counter).Count(context.Background(), ecomgen.KindOrder)
			test.ErrNil(t, err, "counting")
			test.MustBe(t, n, int64(2), "orders")
			test.ErrNil(t, w.Close(), "closing")
		}

		w, err := s.Connect(context.Background())
		test.ErrNil(t, err, "connecting")
		defer w.Close()
		test.MustBe(t, w.(*writer).run, uint64(2), "run")
	})
}

type memUploader struct {
	mu       sync.Mutex
	bucketErr error
	fail     bool
	keys     []string
}

func (u *memUploader) CheckBucket(ctx context.Context) error { return u.bucketErr }

func (u *memUploader) Upload(ctx context.Context, key, path string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.fail {
		return errors.New("RequestError: send request failed")
	}
	if _, err := os.Stat(path); err != nil {
		return err
	}
	u.keys = append(u.keys, key)
	return nil
}

func TestUpload(t *testing.T) {
	root := t.TempDir()
	up := &memUploader{}
	s := NewStore(root)
	s.Bucket, s.Prefix = "analytics", "ecommerce"
	s.newUploader = func() (uploader, error) { return up, nil }

	report := ecomgen.Load(context.Background(), ecomgen.NewSliceSource(dataset()...), s, ecomgen.NewLoadConfig())
	if !report.OK() {
		t.Fatalf("load: %s", report)
	}
	sort.Strings(up.keys)
	if len(up.keys) != 6 || up.keys[0] != "ecommerce/customers/part-00001-00001.avro" {
		t.Fatalf("unexpected uploads: %v", up.keys)
	}
}

func TestUploadFailure(t *testing.T) {
	root := t.TempDir()
	up := &memUploader{fail: true}
	s := NewStore(root)
	s.Bucket = "analytics"
	s.newUploader = func() (uploader, error) { return up, nil }

	report := ecomgen.Load(context.Background(), ecomgen.NewSliceSource(dataset()...), s, ecomgen.NewLoadConfig())
	if !ecomgen.IsConnectivity(report.Err) {
		t.Fatalf("expected connectivity error, got %v", report.Err)
	}
	if got := files(t, root); len(got) != 0 {
		t.Fatalf("failed run left files: %v", got)
	}

	up.fail = false
	report = ecomgen.Load(context.Background(), ecomgen.NewSliceSource(dataset()...), s, ecomgen.NewLoadConfig())
	if !report.OK() || report.Inserted != len(dataset()) {
		t.Fatalf("retry should write everything: %s", report)
	}

	s.newUploader = func() (uploader, error) { return &memUploader{bucketErr: errors.New("NoSuchBucket")}, nil }
	if _, err := s.Connect(context.Background()); !ecomgen.IsConnectivity(err) {
		t.Fatalf("expected connectivity error from the bucket check, got %v", err)
	}
}

func TestUnknownLedger(t *testing.T) {
	s := NewStore(t.TempDir())
	s.Ledger = "sqlite"
	_, err := s.Connect(context.Background())
	var cerr *ecomgen.ConfigError
	if !errors.As(err, &cerr) || cerr.Param != "table.ledger" {
		t.Fatalf("expected config error, got %v", err)
	}
}

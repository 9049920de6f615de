package pilosa

import (
	"context"
	"io"
	"reflect"
	"sort"
	"sync"
	"testing"
	"time"

	gopilosa "github.com/pilosa/go-pilosa"
	"github.com/pilosa/ecomgen"
	"github.com/pkg/errors"
)

// memClient keeps imported bits as field -> row -> columns.
type memClient struct {
	mu        sync.Mutex
	syncErr   error
	importErr map[string]error
	indexes   []string
	bits      map[string]map[string]map[string]struct{}
}

func newMemClient() *memClient {
	return &memClient{
		importErr: make(map[string]error),
		bits:      make(map[string]map[string]map[string]struct{}),
	}
}

func (m *memClient) SyncSchema(schema *gopilosa.Schema) error {
	if m.syncErr != nil {
		return m.syncErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.indexes = m.indexes[:0]
	for name := range schema.Indexes() {
		m.indexes = append(m.indexes, name)
	}
	sort.Strings(m.indexes)
	return nil
}

func (m *memClient) ImportField(field *gopilosa.Field, iterator gopilosa.RecordIterator, options ...gopilosa.ImportOption) error {
	if err := m.importErr[field.Name()]; err != nil {
		return err
	}
	for {
		rec, err := iterator.NextRecord()
		if err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}
		col := rec.(gopilosa.Column)
		m.mu.Lock()
		rows, ok := m.bits[field.Name()]
		if !ok {
			rows = make(map[string]map[string]struct{})
			m.bits[field.Name()] = rows
		}
		if rows[col.RowKey] == nil {
			rows[col.RowKey] = make(map[string]struct{})
		}
		rows[col.RowKey][col.ColumnKey] = struct{}{}
		m.mu.Unlock()
	}
}

func (m *memClient) columns(field, row string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var cols []string
	for c := range m.bits[field][row] {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

func testStore(c *memClient) *Store {
	s := NewStore([]string{"localhost:10101"})
	s.IndexPrefix = "shop_"
	s.newClient = func(hosts []string, timeout time.Duration) (client, error) { return c, nil }
	return s
}

var ts = time.Date(2023, 10, 20, 8, 15, 0, 0, time.UTC)

func dataset() []ecomgen.Entity {
	return []ecomgen.Entity{
		ecomgen.Customer{ID: 1, Name: "Omar Hill", Region: "midwest", SignupDate: ts, City: "Chicago", State: "IL", Latitude: 41.88, Longitude: -87.63, Geohash: "dp3wjz", LastActive: ts},
		ecomgen.Product{ID: 5, Name: "Modern Mat", Category: "Sports", Subcategory: "Sports Outlet", Price: 22.75, Stock: 12, Active: true, CreatedAt: ts},
		ecomgen.Product{ID: 6, Name: "Sleek Lamp", Category: "Home", Subcategory: "Home Eco", Price: 40, Stock: 3, Active: true, CreatedAt: ts},
		ecomgen.Order{ID: 3, CustomerID: 1, Timestamp: ts, Status: ecomgen.StatusDelivered, PaymentMethod: "gift_card", DiscountRate: 0.15},
		ecomgen.OrderLine{OrderID: 3, LineNo: 1, ProductID: 5, Quantity: 2, UnitPrice: 22.75},
		ecomgen.OrderLine{OrderID: 3, LineNo: 2, ProductID: 6, Quantity: 1, UnitPrice: 40},
	}
}

func TestBitsFor(t *testing.T) {
	recs := dataset()
	bits, err := bitsFor(recs[3])
	if err != nil {
		t.Fatal(err)
	}
	exp := []bit{
		{"orders", "status", "delivered", "3"},
		{"orders", "payment", "gift_card", "3"},
		{"orders", "month", "2023-10", "3"},
		{"orders", "customer", "1", "3"},
	}
	if !reflect.DeepEqual(bits, exp) {
		t.Fatalf("got %v, want %v", bits, exp)
	}
	bits, _ = bitsFor(ecomgen.Product{ID: 7, Name: "Plain Cup", Category: "Home", Price: 4})
	if len(bits) != 1 || bits[0].field != "category" {
		t.Fatalf("product without subcategory should only set its category: %v", bits)
	}
	bits, _ = bitsFor(recs[5])
	if len(bits) != 1 || bits[0] != (bit{"orders", "product", "6", "3"}) {
		t.Fatalf("unexpected line bits %v", bits)
	}
	for name, fields := range indexFields {
		for _, f := range fields {
			for other, ofields := range indexFields {
				for _, of := range ofields {
					if other != name && of == f {
						t.Errorf("field %s in both %s and %s", f, name, other)
					}
				}
			}
		}
	}
}

func TestLoad(t *testing.T) {
	c := newMemClient()
	s := testStore(c)
	for run := 0; run < 2; run++ {
		report := ecomgen.Load(context.Background(), ecomgen.NewSliceSource(dataset()...), s, ecomgen.NewLoadConfig())
		if !report.OK() || report.Inserted != 6 {
			t.Fatalf("run %d: %s", run, report)
		}
	}
	if !reflect.DeepEqual(c.indexes, []string{"shop_customers", "shop_orders", "shop_products"}) {
		t.Fatalf("unexpected indexes %v", c.indexes)
	}
	tests := []struct {
		field, row string
		cols       []string
	}{
		{"region", "midwest", []string{"1"}},
		{"category", "Home", []string{"6"}},
		{"subcategory", "Home Eco", []string{"6"}},
		{"subcategory", "Sports Outlet", []string{"5"}},
		{"product", "5", []string{"3"}},
		{"product", "6", []string{"3"}},
		{"status", "delivered", []string{"3"}},
	}
	for _, tst := range tests {
		if got := c.columns(tst.field, tst.row); !reflect.DeepEqual(got, tst.cols) {
			t.Errorf("%s/%s = %v, want %v", tst.field, tst.row, got, tst.cols)
		}
	}
}

func TestImportFailure(t *testing.T) {
	c := newMemClient()
	c.importErr["category"] = errors.New("server error 500")
	report := ecomgen.Load(context.Background(), ecomgen.NewSliceSource(dataset()...), testStore(c), ecomgen.NewLoadConfig())
	if !ecomgen.IsConnectivity(report.Err) {
		t.Fatalf("expected connectivity error, got %v", report.Err)
	}

	c = newMemClient()
	c.syncErr = errors.New("connection refused")
	report = ecomgen.Load(context.Background(), ecomgen.NewSliceSource(dataset()...), testStore(c), ecomgen.NewLoadConfig())
	if !ecomgen.IsConnectivity(report.Err) || report.Inserted != 0 {
		t.Fatalf("expected connectivity error, got %s", report)
	}
}

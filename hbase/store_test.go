package hbase

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pilosa/ecomgen"
	"github.com/pilosa/ecomgen/test"
	"github.com/pkg/errors"
	"github.com/tsuna/gohbase"
)

// memClient is an in-memory client. Cells are overwritten like HBase does.
type memClient struct {
	mu      sync.Mutex
	tables  map[string]map[string]map[string]map[string][]byte
	ensure  error
	putErr  func(table, key string) error
	created []string
	closed  bool
}

func newMemClient() *memClient {
	return &memClient{tables: make(map[string]map[string]map[string]map[string][]byte)}
}

func (m *memClient) Put(ctx context.Context, table, key string, values map[string]map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		if err := m.putErr(table, key); err != nil {
			return err
		}
	}
	rows, ok := m.tables[table]
	if !ok {
		return gohbase.TableNotFound
	}
	row, ok := rows[key]
	if !ok {
		row = make(map[string]map[string][]byte)
		rows[key] = row
	}
	for fam, quals := range values {
		if row[fam] == nil {
			row[fam] = make(map[string][]byte)
		}
		for q, v := range quals {
			row[fam][q] = v
		}
	}
	return nil
}

func (m *memClient) Qualifiers(ctx context.Context, table, family string, fn func([]string)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.tables[table]))
	for k := range m.tables[table] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		quals := make([]string, 0)
		for q := range m.tables[table][k][family] {
			quals = append(quals, q)
		}
		fn(quals)
	}
	return nil
}

func (m *memClient) EnsureTable(ctx context.Context, table string, families []string, create bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ensure != nil {
		return m.ensure
	}
	if _, ok := m.tables[table]; !ok {
		if !create {
			return gohbase.TableNotFound
		}
		m.tables[table] = make(map[string]map[string]map[string][]byte)
		m.created = append(m.created, table)
	}
	return nil
}

func (m *memClient) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
}

var ts = time.Date(2023, 10, 20, 8, 15, 0, 0, time.UTC)

func dataset() []ecomgen.Entity {
	lines := []ecomgen.OrderLine{
		{OrderID: 3, LineNo: 1, ProductID: 5, Quantity: 2, UnitPrice: 22.75},
		{OrderID: 3, LineNo: 2, ProductID: 5, Quantity: 1, UnitPrice: 22.75},
	}
	order := ecomgen.Order{ID: 3, CustomerID: 1, Timestamp: ts, Status: ecomgen.StatusDelivered, PaymentMethod: "gift_card", DiscountRate: 0.15}
	order.Subtotal, order.Discount, order.Total = ecomgen.Totals(order.DiscountRate, lines)
	return []ecomgen.Entity{
		ecomgen.Customer{ID: 1, Name: "Omar Hill", Region: "midwest", SignupDate: ts, City: "Chicago", State: "IL", Latitude: 41.88, Longitude: -87.63, Geohash: "dp3wjz", LastActive: ts},
		ecomgen.Product{ID: 5, Name: "Modern Mat", Category: "Sports", Subcategory: "Sports Outlet", ProfitMargin: 0.31, Price: 22.75, Stock: 12, Active: true, CreatedAt: ts,
			PriceHistory: []ecomgen.PricePoint{{Price: 25, Date: ts}, {Price: 22.75, Date: ts.AddDate(0, 1, 0)}}},
		order,
		lines[0],
		lines[1],
	}
}

func testStore(c *memClient) *Store {
	s := NewStore("localhost", "shop:")
	s.newClient = func() client { return c }
	return s
}

func TestMutationFor(t *testing.T) {
	tests := []struct {
		rec    ecomgen.Entity
		table  string
		key    string
		family string
		cells  map[string]string
	}{
		{
			rec:    dataset()[0],
			table:  "customers",
			key:    "00000000000000000001",
			family: FamilyData,
			cells:  map[string]string{"id": "1", "region": "midwest", "geohash": "dp3wjz", "signup_date": "2023-10-20T08:15:00Z", "latitude": "41.88"},
		},
		{
			rec:    dataset()[1],
			table:  "products",
			key:    "00000000000000000005",
			family: FamilyData,
			cells: map[string]string{"price": "22.75", "stock": "12", "active": "true", "category": "Sports",
				"subcategory": "Sports Outlet", "profit_margin": "0.31",
				"price_history:2023-10-20T08:15:00Z": "25", "price_history:2023-11-20T08:15:00Z": "22.75"},
		},
		{
			rec:    dataset()[2],
			table:  "orders",
			key:    "00000000000000000003",
			family: FamilyOrder,
			cells: map[string]string{"customer_id": "1", "status": "delivered", "discount_rate": "0.15", "subtotal": "68.25"},
		},
		{
			rec:    dataset()[3],
			table:  "orders",
			key:    "00000000000000000003",
			family: FamilyLines,
			cells:  map[string]string{"1:product_id": "5", "1:quantity": "2", "1:unit_price": "22.75", "1:amount": "45.5"},
		},
	}
	for _, tst := range tests {
		t.Run(tst.rec.Kind().String(), func(t *testing.T) {
			m, err := mutationFor(tst.rec)
			if err != nil {
				t.Fatalf("mapping: %v", err)
			}
			if m.table != tst.table || m.key != tst.key {
				t.Fatalf("got %s/%s, want %s/%s", m.table, m.key, tst.table, tst.key)
			}
			if len(m.values) != 1 {
				t.Fatalf("expected one family, got %v", m.values)
			}
			for q, want := range tst.cells {
				if got := string(m.values[tst.family][q]); got != want {
					t.Errorf("%s:%s = %q, want %q", tst.family, q, got, want)
				}
			}
		})
	}

	t.Run("order totals", func(t *testing.T) {
		o := dataset()[2].(ecomgen.Order)
		m, err := mutationFor(o)
		test.ErrNil(t, err, "mapping")
		cells := m.values[FamilyOrder]
		discount, err := strconv.ParseFloat(string(cells["discount"]), 64)
		test.ErrNil(t, err, "parsing discount")
		total, err := strconv.ParseFloat(string(cells["total"]), 64)
		test.ErrNil(t, err, "parsing total")
		test.MustBe(t, discount, o.Discount, "discount")
		test.MustBe(t, total, o.Total, "total")
		test.MustBe(t, ecomgen.RoundCents(discount+total), 68.25, "discount plus total")
	})
}

func TestLoadAndCount(t *testing.T) {
	c := newMemClient()
	s := testStore(c)
	recs := dataset()
	for run := 0; run < 2; run++ {
		report := ecomgen.Load(context.Background(), ecomgen.NewSliceSource(recs...), s, ecomgen.NewLoadConfig())
		if report.Err != nil {
			t.Fatalf("run %d: %v", run, report.Err)
		}
		if report.Inserted != len(recs) {
			t.Fatalf("run %d: %s", run, report)
		}
	}
	if len(c.created) != 3 || c.created[0] != "shop:customers" {
		t.Fatalf("unexpected tables created: %v", c.created)
	}
	if len(c.tables["shop:orders"]) != 1 {
		t.Fatalf("lines should share the order row, got %d rows", len(c.tables["shop:orders"]))
	}

	w, err := s.Connect(context.Background())
	if err != nil {
		t.Fatalf("connecting: %v", err)
	}
	defer w.Close()
	expected := map[ecomgen.Kind]int64{
		ecomgen.KindCustomer:  1,
		ecomgen.KindProduct:   1,
		ecomgen.KindOrder:     1,
		ecomgen.KindOrderLine: 2,
	}
	for k, exp := range expected {
		n, err := w.(ecomgen.Counter).Count(context.Background(), k)
		if err != nil || n != exp {
			t.Errorf("count %s = %d, %v; want %d", k, n, err, exp)
		}
	}
}

func TestConnectFailure(t *testing.T) {
	c := newMemClient()
	c.ensure = errors.New("zookeeper unreachable")
	s := testStore(c)
	_, err := s.Connect(context.Background())
	if !ecomgen.IsConnectivity(err) {
		t.Fatalf("expected connectivity error, got %v", err)
	}
	if !c.closed {
		t.Fatal("client not closed after failed connect")
	}

	c = newMemClient()
	s = testStore(c)
	s.CreateTables = false
	if _, err := s.Connect(context.Background()); !ecomgen.IsConnectivity(err) {
		t.Fatalf("expected connectivity error for missing tables, got %v", err)
	}
}

func TestPutErrors(t *testing.T) {
	c := newMemClient()
	c.putErr = func(table, key string) error {
		if strings.HasSuffix(table, "products") {
			return errors.New("org.apache.hadoop.hbase.DoNotRetryIOException: Cell too large")
		}
		return nil
	}
	s := testStore(c)
	cfg := ecomgen.NewLoadConfig()
	cfg.BatchSize = 1
	report := ecomgen.Load(context.Background(), ecomgen.NewSliceSource(dataset()...), s, cfg)
	if report.Err != nil {
		t.Fatalf("unexpected fatal error: %v", report.Err)
	}
	// the product is rejected, so both lines lose their product.
	if report.Rejected != 3 || report.Reasons[0].Reason != ecomgen.ReasonSchema {
		t.Fatalf("unexpected report: %s %v", report, report.Reasons)
	}

	c = newMemClient()
	c.putErr = func(table, key string) error { return context.DeadlineExceeded }
	report = ecomgen.Load(context.Background(), ecomgen.NewSliceSource(dataset()...), testStore(c), ecomgen.NewLoadConfig())
	if !ecomgen.IsConnectivity(report.Err) || report.Inserted != 0 {
		t.Fatalf("expected fatal connectivity error, got %s", report)
	}
	if !c.closed {
		t.Fatal("client not closed after failed load")
	}
}

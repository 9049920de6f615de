// Package hbase loads records into HBase as wide rows.
//
// Customers and products get a table each with one row per record and a
// single column family "d". Orders are denormalized: the order's own columns
// live in family "o" and each order line adds the columns
// "<line_no>:product_id", "<line_no>:quantity", "<line_no>:unit_price" and
// "<line_no>:amount" in family "l" of the same row. A product's price history
// is one "price_history:<RFC3339 date>" cell per price. Row keys are the record
// id zero padded to 20 digits, so a scan returns rows in id order. Every
// write is a Put on a stable row key, which makes loading idempotent.
package hbase

import (
	"context"
	"strconv"
	"time"

	"github.com/pilosa/ecomgen"
	"github.com/pkg/errors"
)

// Column families.
const (
	FamilyData  = "d"
	FamilyOrder = "o"
	FamilyLines = "l"
)

// HistoryPrefix starts the qualifiers of a product's price history cells.
const HistoryPrefix = "price_history:"

// tableFamilies lists the families of each table, keyed by the table's base
// name.
var tableFamilies = map[string][]string{
	"customers": {FamilyData},
	"products":  {FamilyData},
	"orders":    {FamilyOrder, FamilyLines},
}

var tableNames = []string{"customers", "products", "orders"}

// mutation is a Put of some cells on one row.
type mutation struct {
	table  string
	key    string
	values map[string]map[string][]byte
}

func timestamp(t time.Time) []byte {
	return []byte(t.UTC().Format(time.RFC3339))
}

func float(f float64) []byte {
	return strconv.AppendFloat(nil, f, 'f', -1, 64)
}

func unsigned(u uint64) []byte {
	return strconv.AppendUint(nil, u, 10)
}

func integer(i int64) []byte {
	return strconv.AppendInt(nil, i, 10)
}

// mutationFor maps a record to the row it is written to. Table names are
// returned without namespace.
func mutationFor(e ecomgen.Entity) (mutation, error) {
	switch rec := ecomgen.Value(e).(type) {
	case ecomgen.Customer:
		return mutation{
			table: "customers",
			key:   ecomgen.RowKey(rec.ID),
			values: map[string]map[string][]byte{FamilyData: {
				"id":          unsigned(rec.ID),
				"name":        []byte(rec.Name),
				"region":      []byte(rec.Region),
				"signup_date": timestamp(rec.SignupDate),
				"city":        []byte(rec.City),
				"state":       []byte(rec.State),
				"latitude":    float(rec.Latitude),
				"longitude":   float(rec.Longitude),
				"geohash":     []byte(rec.Geohash),
				"last_active": timestamp(rec.LastActive),
			}},
		}, nil
	case ecomgen.Product:
		data := map[string][]byte{
			"id":            unsigned(rec.ID),
			"name":          []byte(rec.Name),
			"category":      []byte(rec.Category),
			"subcategory":   []byte(rec.Subcategory),
			"profit_margin": float(rec.ProfitMargin),
			"price":         float(rec.Price),
			"stock":         integer(rec.Stock),
			"active":        []byte(strconv.FormatBool(rec.Active)),
			"created_at":    timestamp(rec.CreatedAt),
		}
		// One cell per price change, qualified by when it took effect.
		for _, pp := range rec.PriceHistory {
			data[HistoryPrefix+pp.Date.UTC().Format(time.RFC3339)] = float(pp.Price)
		}
		return mutation{
			table:  "products",
			key:    ecomgen.RowKey(rec.ID),
			values: map[string]map[string][]byte{FamilyData: data},
		}, nil
	case ecomgen.Order:
		return mutation{
			table: "orders",
			key:   ecomgen.RowKey(rec.ID),
			values: map[string]map[string][]byte{FamilyOrder: {
				"id":             unsigned(rec.ID),
				"customer_id":    unsigned(rec.CustomerID),
				"timestamp":      timestamp(rec.Timestamp),
				"status":         []byte(rec.Status.String()),
				"payment_method": []byte(rec.PaymentMethod),
				"discount_rate":  float(rec.DiscountRate),
				"subtotal":       float(rec.Subtotal),
				"discount":       float(rec.Discount),
				"total":          float(rec.Total),
			}},
		}, nil
	case ecomgen.OrderLine:
		prefix := strconv.Itoa(rec.LineNo) + ":"
		return mutation{
			table: "orders",
			key:   ecomgen.RowKey(rec.OrderID),
			values: map[string]map[string][]byte{FamilyLines: {
				prefix + "product_id": unsigned(rec.ProductID),
				prefix + "quantity":   integer(int64(rec.Quantity)),
				prefix + "unit_price": float(rec.UnitPrice),
				prefix + "amount":     float(rec.Amount()),
			}},
		}, nil
	}
	return mutation{}, errors.Errorf("no hbase mapping for %T", e)
}

// countSpec says how records of a kind are counted: cells in family whose
// qualifier has the given suffix, or rows holding family when suffix is
// empty.
type countSpec struct {
	table  string
	family string
	suffix string
}

var countSpecs = map[ecomgen.Kind]countSpec{
	ecomgen.KindCustomer:  {"customers", FamilyData, ""},
	ecomgen.KindProduct:   {"products", FamilyData, ""},
	ecomgen.KindOrder:     {"orders", FamilyOrder, ""},
	ecomgen.KindOrderLine: {"orders", FamilyLines, ":product_id"},
}

// client is the part of HBase the store needs.
type client interface {
	// Put writes values on row key of table.
	Put(ctx context.Context, table, key string, values map[string]map[string][]byte) error

	// Qualifiers calls fn with the qualifiers in family of every row of
	// table.
	Qualifiers(ctx context.Context, table, family string, fn func(qualifiers []string)) error

	// EnsureTable checks that table exists, creating it with families when
	// create is set.
	EnsureTable(ctx context.Context, table string, families []string, create bool) error

	Close()
}

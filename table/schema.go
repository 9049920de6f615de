// Package table writes records as a Spark readable table: Avro object
// container files under one directory per entity, with orders and order
// lines partitioned Hive style by order date. A key ledger beside the data
// remembers what was written so a second load skips existing records.
package table

import (
	"github.com/linkedin/goavro/v2"
	"github.com/pilosa/ecomgen"
	"github.com/pkg/errors"
)

// DefaultPartition is the partition of order lines whose order date is
// unknown. Spark maps it to a null partition value.
const DefaultPartition = "__HIVE_DEFAULT_PARTITION__"

// PartitionColumn names the partition directories of orders and lines.
const PartitionColumn = "order_date"

var schemas = map[ecomgen.Kind]string{
	ecomgen.KindCustomer: `{
  "type": "record", "name": "Customer", "namespace": "ecommerce",
  "fields": [
    {"name": "id", "type": "long"},
    {"name": "name", "type": "string"},
    {"name": "region", "type": "string"},
    {"name": "signup_date", "type": {"type": "long", "logicalType": "timestamp-millis"}},
    {"name": "city", "type": "string"},
    {"name": "state", "type": "string"},
    {"name": "latitude", "type": "double"},
    {"name": "longitude", "type": "double"},
    {"name": "geohash", "type": "string"},
    {"name": "last_active", "type": {"type": "long", "logicalType": "timestamp-millis"}}
  ]}`,
	ecomgen.KindProduct: `{
  "type": "record", "name": "Product", "namespace": "ecommerce",
  "fields": [
    {"name": "id", "type": "long"},
    {"name": "name", "type": "string"},
    {"name": "category", "type": "string"},
    {"name": "subcategory", "type": "string"},
    {"name": "profit_margin", "type": "double"},
    {"name": "price", "type": "double"},
    {"name": "price_history", "type": {"type": "array", "items": {
      "type": "record", "name": "PricePoint",
      "fields": [
        {"name": "price", "type": "double"},
        {"name": "date", "type": {"type": "long", "logicalType": "timestamp-millis"}}
      ]}}},
    {"name": "stock", "type": "long"},
    {"name": "active", "type": "boolean"},
    {"name": "created_at", "type": {"type": "long", "logicalType": "timestamp-millis"}}
  ]}`,
	ecomgen.KindOrder: `{
  "type": "record", "name": "Order", "namespace": "ecommerce",
  "fields": [
    {"name": "id", "type": "long"},
    {"name": "customer_id", "type": "long"},
    {"name": "timestamp", "type": {"type": "long", "logicalType": "timestamp-millis"}},
    {"name": "status", "type": {"type": "enum", "name": "Status", "symbols": ["placed", "shipped", "delivered", "cancelled"]}},
    {"name": "payment_method", "type": "string"},
    {"name": "discount_rate", "type": "double"},
    {"name": "subtotal", "type": "double"},
    {"name": "discount", "type": "double"},
    {"name": "total", "type": "double"}
  ]}`,
	ecomgen.KindOrderLine: `{
  "type": "record", "name": "OrderLine", "namespace": "ecommerce",
  "fields": [
    {"name": "order_id", "type": "long"},
    {"name": "line_no", "type": "int"},
    {"name": "product_id", "type": "long"},
    {"name": "quantity", "type": "int"},
    {"name": "unit_price", "type": "double"},
    {"name": "amount", "type": "double"}
  ]}`,
}

// Codecs returns an Avro codec for each entity kind.
func Codecs() (map[ecomgen.Kind]*goavro.Codec, error) {
	codecs := make(map[ecomgen.Kind]*goavro.Codec, len(schemas))
	for k, s := range schemas {
		c, err := goavro.NewCodec(s)
		if err != nil {
			return nil, errors.Wrapf(err, "compiling %s schema", k)
		}
		codecs[k] = c
	}
	return codecs, nil
}

// native converts a record to the value goavro encodes.
func native(e ecomgen.Entity) (map[string]interface{}, error) {
	switch rec := ecomgen.Value(e).(type) {
	case ecomgen.Customer:
		return map[string]interface{}{
			"id":          int64(rec.ID),
			"name":        rec.Name,
			"region":      rec.Region,
			"signup_date": rec.SignupDate.UTC(),
			"city":        rec.City,
			"state":       rec.State,
			"latitude":    rec.Latitude,
			"longitude":   rec.Longitude,
			"geohash":     rec.Geohash,
			"last_active": rec.LastActive.UTC(),
		}, nil
	case ecomgen.Product:
		history := make([]interface{}, len(rec.PriceHistory))
		for i, pt := range rec.PriceHistory {
			history[i] = map[string]interface{}{"price": pt.Price, "date": pt.Date.UTC()}
		}
		return map[string]interface{}{
			"id":            int64(rec.ID),
			"name":          rec.Name,
			"category":      rec.Category,
			"subcategory":   rec.Subcategory,
			"profit_margin": rec.ProfitMargin,
			"price":         rec.Price,
			"price_history": history,
			"stock":         rec.Stock,
			"active":        rec.Active,
			"created_at":    rec.CreatedAt.UTC(),
		}, nil
	case ecomgen.Order:
		return map[string]interface{}{
			"id":             int64(rec.ID),
			"customer_id":    int64(rec.CustomerID),
			"timestamp":      rec.Timestamp.UTC(),
			"status":         rec.Status.String(),
			"payment_method": rec.PaymentMethod,
			"discount_rate":  rec.DiscountRate,
			"subtotal":       rec.Subtotal,
			"discount":       rec.Discount,
			"total":          rec.Total,
		}, nil
	case ecomgen.OrderLine:
		return map[string]interface{}{
			"order_id":   int64(rec.OrderID),
			"line_no":    int32(rec.LineNo),
			"product_id": int64(rec.ProductID),
			"quantity":   int32(rec.Quantity),
			"unit_price": rec.UnitPrice,
			"amount":     rec.Amount(),
		}, nil
	}
	return nil, errors.Errorf("no avro mapping for %T", e)
}

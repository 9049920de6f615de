// Package mongo loads records into MongoDB, one collection per entity kind.
// Documents use the record id as _id (order lines use "<order_id>:<line_no>")
// and are written with unordered upserts, so loading twice replaces
// documents instead of duplicating them.
package mongo

import (
	"context"

	"github.com/pilosa/ecomgen"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultDatabase is the database records are loaded into.
const DefaultDatabase = "ecommerce_analytics"

// collection is the part of *mongo.Collection the store uses.
type collection interface {
	BulkWrite(ctx context.Context, models []mongo.WriteModel, opts ...*options.BulkWriteOptions) (*mongo.BulkWriteResult, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
}

// indexes lists the secondary indexes of each collection.
var indexes = map[ecomgen.Kind][]mongo.IndexModel{
	ecomgen.KindCustomer: {
		{Keys: bson.D{{Key: "region", Value: 1}}},
		{Keys: bson.D{{Key: "state", Value: 1}}},
		{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
	},
	ecomgen.KindProduct: {
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "subcategory", Value: 1}}},
	},
	ecomgen.KindOrder: {
		{Keys: bson.D{{Key: "customer_id", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "timestamp", Value: 1}}},
	},
	ecomgen.KindOrderLine: {
		{Keys: bson.D{{Key: "order_id", Value: 1}}},
		{Keys: bson.D{{Key: "product_id", Value: 1}}},
	},
}

// documentFor maps a record to its _id and document.
func documentFor(e ecomgen.Entity) (id interface{}, doc bson.D, err error) {
	switch rec := ecomgen.Value(e).(type) {
	case ecomgen.Customer:
		id = int64(rec.ID)
		doc = bson.D{
			{Key: "_id", Value: id},
			{Key: "name", Value: rec.Name},
			{Key: "region", Value: rec.Region},
			{Key: "signup_date", Value: rec.SignupDate},
			{Key: "city", Value: rec.City},
			{Key: "state", Value: rec.State},
			{Key: "location", Value: bson.D{
				{Key: "type", Value: "Point"},
				{Key: "coordinates", Value: bson.A{rec.Longitude, rec.Latitude}},
			}},
			{Key: "geohash", Value: rec.Geohash},
			{Key: "last_active", Value: rec.LastActive},
		}
	case ecomgen.Product:
		id = int64(rec.ID)
		history := make(bson.A, len(rec.PriceHistory))
		for i, pt := range rec.PriceHistory {
			history[i] = bson.D{{Key: "price", Value: pt.Price}, {Key: "date", Value: pt.Date}}
		}
		doc = bson.D{
			{Key: "_id", Value: id},
			{Key: "name", Value: rec.Name},
			{Key: "category", Value: rec.Category},
			{Key: "subcategory", Value: rec.Subcategory},
			{Key: "profit_margin", Value: rec.ProfitMargin},
			{Key: "price", Value: rec.Price},
			{Key: "price_history", Value: history},
			{Key: "stock", Value: rec.Stock},
			{Key: "active", Value: rec.Active},
			{Key: "created_at", Value: rec.CreatedAt},
		}
	case ecomgen.Order:
		id = int64(rec.ID)
		doc = bson.D{
			{Key: "_id", Value: id},
			{Key: "customer_id", Value: int64(rec.CustomerID)},
			{Key: "timestamp", Value: rec.Timestamp},
			{Key: "status", Value: rec.Status.String()},
			{Key: "payment_method", Value: rec.PaymentMethod},
			{Key: "discount_rate", Value: rec.DiscountRate},
			{Key: "subtotal", Value: rec.Subtotal},
			{Key: "discount", Value: rec.Discount},
			{Key: "total", Value: rec.Total},
		}
	case ecomgen.OrderLine:
		id = rec.Key()
		doc = bson.D{
			{Key: "_id", Value: id},
			{Key: "order_id", Value: int64(rec.OrderID)},
			{Key: "line_no", Value: rec.LineNo},
			{Key: "product_id", Value: int64(rec.ProductID)},
			{Key: "quantity", Value: rec.Quantity},
			{Key: "unit_price", Value: rec.UnitPrice},
			{Key: "amount", Value: rec.Amount()},
		}
	default:
		return nil, nil, errors.Errorf("no document mapping for %T", e)
	}
	return id, doc, nil
}

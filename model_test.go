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

package ecomgen

import (
	"encoding/json"
	"math"
	"testing"
	"time"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func validCustomer() Customer {
	return Customer{ID: 1, Name: "Ada Lovelace", Region: "west", SignupDate: t0,
		City: "Portland", State: "OR", Latitude: 45.5, Longitude: -122.6, Geohash: "c20fbr", LastActive: t0.Add(time.Hour)}
}

func validProduct() Product {
	return Product{ID: 1, Name: "Sturdy Lamp", Category: "Home", Price: 19.99, Stock: 10, Active: true, CreatedAt: t0}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		rec   Entity
		field string
	}{
		{name: "customer ok", rec: validCustomer()},
		{name: "customer pointer ok", rec: func() Entity { c := validCustomer(); return &c }()},
		{name: "customer no id", rec: func() Entity { c := validCustomer(); c.ID = 0; return c }(), field: "id"},
		{name: "customer blank name", rec: func() Entity { c := validCustomer(); c.Name = "  "; return c }(), field: "name"},
		{name: "customer latitude", rec: func() Entity { c := validCustomer(); c.Latitude = 91; return c }(), field: "latitude"},
		{name: "customer longitude NaN", rec: func() Entity { c := validCustomer(); c.Longitude = math.NaN(); return c }(), field: "longitude"},
		{name: "customer active before signup", rec: func() Entity { c := validCustomer(); c.LastActive = t0.Add(-time.Hour); return c }(), field: "last_active"},
		{name: "product ok", rec: validProduct()},
		{name: "product negative price", rec: func() Entity { p := validProduct(); p.Price = -1; return p }(), field: "price"},
		{name: "product fractional cents", rec: func() Entity { p := validProduct(); p.Price = 1.001; return p }(), field: "price"},
		{name: "product negative stock", rec: func() Entity { p := validProduct(); p.Stock = -3; return p }(), field: "stock"},
		{name: "product no category", rec: func() Entity { p := validProduct(); p.Category = ""; return p }(), field: "category"},
		{name: "product price history ok", rec: func() Entity { p := validProduct(); p.PriceHistory = history(20.5, 19.99); return p }()},
		{name: "product price not latest", rec: func() Entity { p := validProduct(); p.PriceHistory = history(19.99, 18); return p }(), field: "price"},
		{name: "product history out of order", rec: func() Entity {
			p := validProduct()
			p.PriceHistory = history(20.5, 19.99)
			p.PriceHistory[0].Date = t0
			return p
		}(), field: "price_history"},
		{name: "product margin", rec: func() Entity { p := validProduct(); p.ProfitMargin = 1.2; return p }(), field: "profit_margin"},
		{name: "order ok", rec: Order{ID: 1, CustomerID: 1, Timestamp: t0, Status: StatusPlaced}},
		{name: "order totals ok", rec: Order{ID: 1, CustomerID: 1, Timestamp: t0, Status: StatusPlaced, DiscountRate: 0.1, Subtotal: 19.99, Discount: 2, Total: 17.99}},
		{name: "order wrong discount", rec: Order{ID: 1, CustomerID: 1, Timestamp: t0, Status: StatusPlaced, DiscountRate: 0.1, Subtotal: 19.99, Discount: 1, Total: 18.99}, field: "discount"},
		{name: "order wrong total", rec: Order{ID: 1, CustomerID: 1, Timestamp: t0, Status: StatusPlaced, DiscountRate: 0.1, Subtotal: 19.99, Discount: 2, Total: 18}, field: "total"},
		{name: "order bad status", rec: Order{ID: 1, CustomerID: 1, Timestamp: t0, Status: Status(9)}, field: "status"},
		{name: "order no customer", rec: Order{ID: 1, Timestamp: t0, Status: StatusPlaced}, field: "customer_id"},
		{name: "order discount", rec: Order{ID: 1, CustomerID: 1, Timestamp: t0, Status: StatusPlaced, DiscountRate: 1}, field: "discount_rate"},
		{name: "line ok", rec: OrderLine{OrderID: 1, LineNo: 1, ProductID: 1, Quantity: 2, UnitPrice: 3.5}},
		{name: "line zero quantity", rec: OrderLine{OrderID: 1, LineNo: 1, ProductID: 1, Quantity: 0, UnitPrice: 3.5}, field: "quantity"},
		{name: "line zero line number", rec: OrderLine{OrderID: 1, LineNo: 0, ProductID: 1, Quantity: 1}, field: "line_no"},
		{name: "line negative price", rec: OrderLine{OrderID: 1, LineNo: 1, ProductID: 1, Quantity: 1, UnitPrice: -0.01}, field: "unit_price"},
	}
	for _, tst := range tests {
		t.Run(tst.name, func(t *testing.T) {
			err := Validate(tst.rec)
			if tst.field == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if !IsValid(tst.rec) {
					t.Fatal("IsValid false for valid record")
				}
				return
			}
			verr, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("expected *ValidationError, got %T: %v", err, err)
			}
			if verr.Field != tst.field {
				t.Fatalf("expected field %s, got %s", tst.field, verr.Field)
			}
			if verr.Kind != tst.rec.Kind() {
				t.Fatalf("expected kind %s, got %s", tst.rec.Kind(), verr.Kind)
			}
			if IsValid(tst.rec) {
				t.Fatal("IsValid true for invalid record")
			}
		})
	}
}

// history returns price points a day apart ending the day before t0.
func history(prices ...float64) []PricePoint {
	pts := make([]PricePoint, len(prices))
	for i, p := range prices {
		pts[i] = PricePoint{Price: p, Date: t0.AddDate(0, 0, i-len(prices))}
	}
	return pts
}

func TestValidateNil(t *testing.T) {
	tests := []struct {
		rec  Entity
		kind Kind
	}{
		{nil, 0},
		{(*Customer)(nil), KindCustomer},
		{(*Product)(nil), KindProduct},
		{(*Order)(nil), KindOrder},
		{(*OrderLine)(nil), KindOrderLine},
	}
	for _, tst := range tests {
		t.Run(tst.kind.String(), func(t *testing.T) {
			verr, ok := Validate(tst.rec).(*ValidationError)
			if !ok || verr.Kind != tst.kind {
				t.Fatalf("expected validation error for kind %s, got %v", tst.kind, verr)
			}
			if Value(tst.rec) != nil {
				t.Fatalf("expected nil value, got %#v", Value(tst.rec))
			}
		})
	}
}

func TestTotals(t *testing.T) {
	lines := []OrderLine{
		{OrderID: 1, LineNo: 1, ProductID: 1, Quantity: 3, UnitPrice: 0.1},
		{OrderID: 1, LineNo: 2, ProductID: 2, Quantity: 1, UnitPrice: 19.69},
	}
	sub, disc, total := Totals(0.15, lines)
	if sub != 19.99 || disc != 3 || total != 16.99 {
		t.Fatalf("unexpected totals %v %v %v", sub, disc, total)
	}
	o := Order{ID: 1, CustomerID: 1, Timestamp: t0, Status: StatusShipped, DiscountRate: 0.15, Subtotal: sub, Discount: disc, Total: total}
	if err := ValidateOrder(o); err != nil {
		t.Fatalf("computed totals don't validate: %v", err)
	}
}

func TestKeys(t *testing.T) {
	l := OrderLine{OrderID: 12, LineNo: 3, Quantity: 3, UnitPrice: 0.1}
	if l.Key() != "12:3" {
		t.Fatalf("unexpected line key %s", l.Key())
	}
	if l.Amount() != 0.3 {
		t.Fatalf("unexpected amount %v", l.Amount())
	}
	if RowKey(42) != "00000000000000000042" {
		t.Fatalf("unexpected row key %s", RowKey(42))
	}
	if RowKey(9) >= RowKey(10) {
		t.Fatal("row keys don't sort by id")
	}
	if (Customer{ID: 7}).Key() != "7" {
		t.Fatal("unexpected customer key")
	}
}

func TestKinds(t *testing.T) {
	for _, k := range Kinds {
		got, err := ParseKind(k.Collection())
		if err != nil || got != k {
			t.Fatalf("ParseKind(%s) = %v, %v", k.Collection(), got, err)
		}
		got, err = ParseKind(k.String())
		if err != nil || got != k {
			t.Fatalf("ParseKind(%s) = %v, %v", k, got, err)
		}
	}
	if KindOrderLine.Collection() != "order_lines" {
		t.Fatalf("unexpected collection %s", KindOrderLine.Collection())
	}
	if _, err := ParseKind("sessions"); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestStatusJSON(t *testing.T) {
	o := Order{ID: 1, CustomerID: 2, Timestamp: t0, Status: StatusDelivered, PaymentMethod: "paypal"}
	data, err := json.Marshal(o)
	if err != nil {
		t.Fatalf("marshaling: %v", err)
	}
	var back Order
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshaling: %v", err)
	}
	if !back.Timestamp.Equal(o.Timestamp) || back.Status != o.Status || back.PaymentMethod != o.PaymentMethod {
		t.Fatalf("round trip mismatch: %#v != %#v", back, o)
	}
	if err := json.Unmarshal([]byte(`{"status":"lost"}`), &back); err == nil {
		t.Fatal("expected error for unknown status")
	}
	if _, err := json.Marshal(Order{}); err == nil {
		t.Fatal("expected error marshaling zero status")
	}
}

func TestRoundCents(t *testing.T) {
	tests := []struct {
		in, out float64
	}{
		{1.006, 1.01},
		{2.344, 2.34},
		{3 * 19.99, 59.97},
		{0, 0},
	}
	for _, tst := range tests {
		if got := RoundCents(tst.in); got != tst.out {
			t.Errorf("RoundCents(%v) = %v, want %v", tst.in, got, tst.out)
		}
	}
}

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
	"math"
	"strings"

	"github.com/pkg/errors"
)

// Reason classifies why a record was not written.
type Reason string

const (
	ReasonMalformed   Reason = "malformed"
	ReasonInvalid     Reason = "invalid"
	ReasonReferential Reason = "referential"
	ReasonDuplicate   Reason = "duplicate"
	ReasonSchema      Reason = "schema"
)

func invalid(k Kind, key, field, reason string) *ValidationError {
	return &ValidationError{Kind: k, Key: key, Field: field, Reason: reason}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// ValidateCustomer checks a Customer against the data model.
func ValidateCustomer(c Customer) error {
	key := c.Key()
	switch {
	case c.ID == 0:
		return invalid(KindCustomer, key, "id", "must be positive")
	case strings.TrimSpace(c.Name) == "":
		return invalid(KindCustomer, key, "name", "must not be empty")
	case c.Region == "":
		return invalid(KindCustomer, key, "region", "must not be empty")
	case c.SignupDate.IsZero():
		return invalid(KindCustomer, key, "signup_date", "must be set")
	case !finite(c.Latitude) || c.Latitude < -90 || c.Latitude > 90:
		return invalid(KindCustomer, key, "latitude", "must be within [-90, 90]")
	case !finite(c.Longitude) || c.Longitude < -180 || c.Longitude > 180:
		return invalid(KindCustomer, key, "longitude", "must be within [-180, 180]")
	case !c.LastActive.IsZero() && c.LastActive.Before(c.SignupDate):
		return invalid(KindCustomer, key, "last_active", "is before signup_date")
	}
	return nil
}

// ValidateProduct checks a Product against the data model.
func ValidateProduct(p Product) error {
	key := p.Key()
	switch {
	case p.ID == 0:
		return invalid(KindProduct, key, "id", "must be positive")
	case p.Category == "":
		return invalid(KindProduct, key, "category", "must not be empty")
	case !finite(p.Price) || p.Price < 0:
		return invalid(KindProduct, key, "price", "must be a non-negative amount")
	case p.Price != RoundCents(p.Price):
		return invalid(KindProduct, key, "price", "must have at most two decimals")
	case p.Stock < 0:
		return invalid(KindProduct, key, "stock", "must not be negative")
	case !finite(p.ProfitMargin) || p.ProfitMargin < 0 || p.ProfitMargin >= 1:
		return invalid(KindProduct, key, "profit_margin", "must be within [0, 1)")
	}
	for i, pt := range p.PriceHistory {
		switch {
		case !finite(pt.Price) || pt.Price < 0 || pt.Price != RoundCents(pt.Price):
			return invalid(KindProduct, key, "price_history", "prices must be non-negative amounts")
		case pt.Date.IsZero():
			return invalid(KindProduct, key, "price_history", "dates must be set")
		case i > 0 && pt.Date.Before(p.PriceHistory[i-1].Date):
			return invalid(KindProduct, key, "price_history", "must be in date order")
		}
	}
	if n := len(p.PriceHistory); n > 0 && p.PriceHistory[n-1].Price != p.Price {
		return invalid(KindProduct, key, "price", "must be the latest price in price_history")
	}
	return nil
}

// ValidateOrder checks an Order against the data model. The customer
// reference is checked by the loader, which knows which customers exist.
func ValidateOrder(o Order) error {
	key := o.Key()
	switch {
	case o.ID == 0:
		return invalid(KindOrder, key, "id", "must be positive")
	case o.CustomerID == 0:
		return invalid(KindOrder, key, "customer_id", "must be positive")
	case o.Timestamp.IsZero():
		return invalid(KindOrder, key, "timestamp", "must be set")
	case !o.Status.Valid():
		return invalid(KindOrder, key, "status", "unknown status")
	case !finite(o.DiscountRate) || o.DiscountRate < 0 || o.DiscountRate >= 1:
		return invalid(KindOrder, key, "discount_rate", "must be within [0, 1)")
	case !finite(o.Subtotal) || o.Subtotal < 0 || o.Subtotal != RoundCents(o.Subtotal):
		return invalid(KindOrder, key, "subtotal", "must be a non-negative amount")
	case o.Discount != RoundCents(o.Subtotal*o.DiscountRate):
		return invalid(KindOrder, key, "discount", "does not match subtotal and discount_rate")
	case o.Total != RoundCents(o.Subtotal-o.Discount):
		return invalid(KindOrder, key, "total", "must be subtotal less discount")
	}
	return nil
}

// ValidateOrderLine checks an OrderLine against the data model.
func ValidateOrderLine(l OrderLine) error {
	key := l.Key()
	switch {
	case l.OrderID == 0:
		return invalid(KindOrderLine, key, "order_id", "must be positive")
	case l.LineNo < 1:
		return invalid(KindOrderLine, key, "line_no", "must be at least 1")
	case l.ProductID == 0:
		return invalid(KindOrderLine, key, "product_id", "must be positive")
	case l.Quantity < 1:
		return invalid(KindOrderLine, key, "quantity", "must be at least 1")
	case !finite(l.UnitPrice) || l.UnitPrice < 0:
		return invalid(KindOrderLine, key, "unit_price", "must be a non-negative amount")
	}
	return nil
}

// Validate dispatches to the validator for e's kind. A nil record, typed or
// not, is a *ValidationError.
func Validate(e Entity) error {
	if k, ok := nilRecord(e); ok {
		return invalid(k, "", "", "nil record")
	}
	switch rec := Value(e).(type) {
	case Customer:
		return ValidateCustomer(rec)
	case Product:
		return ValidateProduct(rec)
	case Order:
		return ValidateOrder(rec)
	case OrderLine:
		return ValidateOrderLine(rec)
	default:
		return errors.Errorf("unsupported record type %T", e)
	}
}

// nilRecord reports whether e is nil or a nil pointer to a record, and which
// kind it would have been.
func nilRecord(e Entity) (Kind, bool) {
	switch rec := e.(type) {
	case nil:
		return 0, true
	case *Customer:
		return KindCustomer, rec == nil
	case *Product:
		return KindProduct, rec == nil
	case *Order:
		return KindOrder, rec == nil
	case *OrderLine:
		return KindOrderLine, rec == nil
	}
	return 0, false
}

// IsValid reports whether e satisfies the data model.
func IsValid(e Entity) bool {
	return Validate(e) == nil
}

// references returns the kinds and keys that must exist before e can be
// written.
func references(e Entity) (kinds []Kind, keys []string) {
	switch rec := Value(e).(type) {
	case Order:
		return []Kind{KindCustomer}, []string{FormatID(rec.CustomerID)}
	case OrderLine:
		return []Kind{KindOrder, KindProduct}, []string{FormatID(rec.OrderID), FormatID(rec.ProductID)}
	}
	return nil, nil
}

// Value returns e as a value record so callers only switch on one form. A nil
// pointer comes back as nil.
func Value(e Entity) Entity {
	if _, ok := nilRecord(e); ok {
		return nil
	}
	switch rec := e.(type) {
	case *Customer:
		return *rec
	case *Product:
		return *rec
	case *Order:
		return *rec
	case *OrderLine:
		return *rec
	}
	return e
}

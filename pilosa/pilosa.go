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

// Package pilosa indexes records as bitmaps in Pilosa. Every index uses the
// record's stable key as column key, and every field uses keyed rows, so
// setting the same bit twice is a no-op and loads are idempotent.
//
//	customers: region, state
//	products:  category, subcategory
//	orders:    status, payment, month, customer, product
//
// Order lines have no index of their own: each line sets its product's row
// in the "product" field of its order's column.
package pilosa

import (
	"github.com/pilosa/ecomgen"
	"github.com/pkg/errors"
)

// indexFields lists the fields of each index. Field names are unique across
// indexes.
var indexFields = map[string][]string{
	"customers": {"region", "state"},
	"products":  {"category", "subcategory"},
	"orders":    {"status", "payment", "month", "customer", "product"},
}

var indexNames = []string{"customers", "products", "orders"}

// bit is one bit to set.
type bit struct {
	index  string
	field  string
	row    string
	column string
}

// bitsFor returns the bits a record sets.
func bitsFor(e ecomgen.Entity) ([]bit, error) {
	switch rec := ecomgen.Value(e).(type) {
	case ecomgen.Customer:
		col := rec.Key()
		return []bit{
			{"customers", "region", rec.Region, col},
			{"customers", "state", rec.State, col},
		}, nil
	case ecomgen.Product:
		bits := []bit{{"products", "category", rec.Category, rec.Key()}}
		if rec.Subcategory != "" {
			bits = append(bits, bit{"products", "subcategory", rec.Subcategory, rec.Key()})
		}
		return bits, nil
	case ecomgen.Order:
		col := rec.Key()
		return []bit{
			{"orders", "status", rec.Status.String(), col},
			{"orders", "payment", rec.PaymentMethod, col},
			{"orders", "month", rec.Timestamp.UTC().Format("2006-01"), col},
			{"orders", "customer", ecomgen.FormatID(rec.CustomerID), col},
		}, nil
	case ecomgen.OrderLine:
		return []bit{{"orders", "product", ecomgen.FormatID(rec.ProductID), ecomgen.FormatID(rec.OrderID)}}, nil
	}
	return nil, errors.Errorf("no bitmap mapping for %T", e)
}

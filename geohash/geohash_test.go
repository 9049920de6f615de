package geohash_test

import (
	"testing"

	"github.com/pilosa/ecomgen"
	"github.com/pilosa/ecomgen/geohash"
)

func TestTransform(t *testing.T) {
	tests := []struct {
		name        string
		transformer *geohash.Transformer
		customer    *ecomgen.Customer
		expErr      bool
	}{
		{
			name:        "simple",
			transformer: &geohash.Transformer{Precision: 6},
			customer:    &ecomgen.Customer{ID: 1, Latitude: 31.1, Longitude: 42.2},
		},
		{
			name:        "austin",
			transformer: &geohash.Transformer{Precision: geohash.DefaultPrecision},
			customer:    &ecomgen.Customer{ID: 2, Latitude: 30.2672, Longitude: -97.7431},
		},
		{
			name:        "bad precision",
			transformer: &geohash.Transformer{Precision: 0},
			customer:    &ecomgen.Customer{ID: 3, Latitude: 1, Longitude: 1},
			expErr:      true,
		},
		{
			name:        "bad latitude",
			transformer: &geohash.Transformer{Precision: 6},
			customer:    &ecomgen.Customer{ID: 4, Latitude: 100, Longitude: 1},
			expErr:      true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.transformer.Transform(test.customer)
			if (err != nil) != test.expErr {
				t.Fatalf("got %v, expected error: %v", err, test.expErr)
			}
			if err != nil {
				return
			}
			hsh := test.customer.Geohash
			if len(hsh) != test.transformer.Precision {
				t.Fatalf("unexpected length of hash %v", hsh)
			}
			if !geohash.Contains(hsh, test.customer.Latitude, test.customer.Longitude) {
				t.Fatalf("cell %s does not contain (%v, %v)", hsh, test.customer.Latitude, test.customer.Longitude)
			}
		})
	}
}

func TestHashKnownValue(t *testing.T) {
	hsh, err := geohash.Hash(57.64911, 10.40744, 11)
	if err != nil {
		t.Fatal(err)
	}
	if hsh != "u4pruydqqvj" {
		t.Fatalf("unexpected hash %s", hsh)
	}
}

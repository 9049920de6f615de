package json

import (
	"bytes"
	"encoding/json"

	"github.com/pilosa/ecomgen"
	"github.com/pkg/errors"
)

// Marshal encodes a record as a single line of JSON, without the trailing
// newline.
func Marshal(e ecomgen.Entity) ([]byte, error) {
	v := ecomgen.Value(e)
	if v == nil {
		return nil, errors.New("can't encode a nil record")
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrapf(err, "encoding %s %s", e.Kind(), e.Key())
	}
	return data, nil
}

// Unmarshal decodes one JSON object into a record of kind k. Unknown fields
// are an error so that files written for a different kind are caught.
func Unmarshal(k ecomgen.Kind, data []byte) (ecomgen.Entity, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var err error
	switch k {
	case ecomgen.KindCustomer:
		var c ecomgen.Customer
		if err = dec.Decode(&c); err == nil {
			return c, nil
		}
	case ecomgen.KindProduct:
		var p ecomgen.Product
		if err = dec.Decode(&p); err == nil {
			return p, nil
		}
	case ecomgen.KindOrder:
		var o ecomgen.Order
		if err = dec.Decode(&o); err == nil {
			return o, nil
		}
	case ecomgen.KindOrderLine:
		var l ecomgen.OrderLine
		if err = dec.Decode(&l); err == nil {
			return l, nil
		}
	default:
		return nil, errors.Errorf("can't decode records of kind %s", k)
	}
	return nil, errors.Wrapf(err, "decoding %s", k)
}

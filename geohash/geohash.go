package geohash

import (
	"github.com/mmcloughlin/geohash"
	"github.com/pilosa/ecomgen"
	"github.com/pkg/errors"
)

// DefaultPrecision is the number of characters in a customer geohash, a cell
// of roughly 1.2km by 0.6km.
const DefaultPrecision = 6

// Transformer sets the geohash of customers from their coordinates.
type Transformer struct {
	Precision int
}

// Transform hashes the customer's latitude and longitude and stores the
// result in its Geohash field.
func (t *Transformer) Transform(c *ecomgen.Customer) error {
	hsh, err := Hash(c.Latitude, c.Longitude, t.Precision)
	if err != nil {
		return errors.Wrapf(err, "hashing location of customer %d", c.ID)
	}
	c.Geohash = hsh
	return nil
}

// Hash returns the geohash of the given coordinates with precision
// characters.
func Hash(lat, lon float64, precision int) (string, error) {
	if precision < 1 || precision > 12 {
		return "", errors.Errorf("precision %d outside [1, 12]", precision)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return "", errors.Errorf("coordinates (%v, %v) out of range", lat, lon)
	}
	return geohash.EncodeWithPrecision(lat, lon, uint(precision)), nil
}

// Contains reports whether the cell named by hsh contains the coordinates.
func Contains(hsh string, lat, lon float64) bool {
	return geohash.BoundingBox(hsh).Contains(lat, lon)
}

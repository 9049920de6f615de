package ecomgen

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Kind identifies one of the entity types in the dataset.
type Kind uint8

const (
	KindCustomer Kind = iota + 1
	KindProduct
	KindOrder
	KindOrderLine
)

// Kinds lists every entity type in dependency order: a kind only references
// kinds that come before it.
var Kinds = []Kind{KindCustomer, KindProduct, KindOrder, KindOrderLine}

var kindNames = [...]string{"", "customer", "product", "order", "order_line"}

func (k Kind) String() string {
	if k == 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", k)
	}
	return kindNames[k]
}

// Collection is the plural name used for files, tables, collections and
// topics holding records of this kind.
func (k Kind) Collection() string {
	return k.String() + "s"
}

// ParseKind maps a singular or plural kind name back to its Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if s == k.String() || s == k.Collection() {
			return k, nil
		}
	}
	return 0, errors.Errorf("unknown entity kind '%s'", s)
}

// Entity is implemented by every record type in the dataset.
type Entity interface {
	Kind() Kind

	// Key is the stable identifier of the record, identical in every store.
	Key() string
}

// Status is the lifecycle state of an Order.
type Status uint8

const (
	StatusPlaced Status = iota + 1
	StatusShipped
	StatusDelivered
	StatusCancelled
)

// Statuses lists every valid Status.
var Statuses = []Status{StatusPlaced, StatusShipped, StatusDelivered, StatusCancelled}

var statusNames = [...]string{"", "placed", "shipped", "delivered", "cancelled"}

// Valid reports whether s is one of the defined statuses.
func (s Status) Valid() bool {
	return s >= StatusPlaced && s <= StatusCancelled
}

func (s Status) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Status(%d)", s)
	}
	return statusNames[s]
}

// ParseStatus maps a status name to its Status.
func ParseStatus(name string) (Status, error) {
	for _, s := range Statuses {
		if strings.EqualFold(name, statusNames[s]) {
			return s, nil
		}
	}
	return 0, errors.Errorf("unknown order status '%s'", name)
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, errors.Errorf("can't marshal invalid order status %d", uint8(s))
	}
	return []byte(statusNames[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	st, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// Customer is a registered shopper.
type Customer struct {
	ID         uint64    `json:"id"`
	Name       string    `json:"name"`
	Region     string    `json:"region"`
	SignupDate time.Time `json:"signup_date"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Geohash    string    `json:"geohash"`
	LastActive time.Time `json:"last_active"`
}

func (Customer) Kind() Kind    { return KindCustomer }
func (c Customer) Key() string { return FormatID(c.ID) }

// Product is an item in the catalog. Price is in dollars with two decimals
// and is the last entry of PriceHistory when there is one. ProfitMargin
// belongs to the subcategory.
type Product struct {
	ID           uint64       `json:"id"`
	Name         string       `json:"name"`
	Category     string       `json:"category"`
	Subcategory  string       `json:"subcategory"`
	ProfitMargin float64      `json:"profit_margin"`
	Price        float64      `json:"price"`
	PriceHistory []PricePoint `json:"price_history"`
	Stock        int64        `json:"stock"`
	Active       bool         `json:"active"`
	CreatedAt    time.Time    `json:"created_at"`
}

// PricePoint is a product price and the time it took effect.
type PricePoint struct {
	Price float64   `json:"price"`
	Date  time.Time `json:"date"`
}

func (Product) Kind() Kind    { return KindProduct }
func (p Product) Key() string { return FormatID(p.ID) }

// Order is a purchase placed by a Customer. Its lines are separate records;
// Subtotal, Discount and Total summarize them, see Totals.
type Order struct {
	ID            uint64    `json:"id"`
	CustomerID    uint64    `json:"customer_id"`
	Timestamp     time.Time `json:"timestamp"`
	Status        Status    `json:"status"`
	PaymentMethod string    `json:"payment_method"`
	DiscountRate  float64   `json:"discount_rate"`
	Subtotal      float64   `json:"subtotal"`
	Discount      float64   `json:"discount"`
	Total         float64   `json:"total"`
}

func (Order) Kind() Kind    { return KindOrder }
func (o Order) Key() string { return FormatID(o.ID) }

// OrderLine is one product within an Order. UnitPrice is the product's price
// when the order was placed.
type OrderLine struct {
	OrderID   uint64  `json:"order_id"`
	LineNo    int     `json:"line_no"`
	ProductID uint64  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

func (OrderLine) Kind() Kind { return KindOrderLine }

// Key is "<order_id>:<line_no>".
func (l OrderLine) Key() string {
	return FormatID(l.OrderID) + ":" + strconv.Itoa(l.LineNo)
}

// Amount is quantity × unit price, rounded to cents.
func (l OrderLine) Amount() float64 {
	return RoundCents(float64(l.Quantity) * l.UnitPrice)
}

// Totals computes an order's amounts from its lines: the subtotal of the line
// amounts, the discount at rate, and what is left to pay.
func Totals(rate float64, lines []OrderLine) (subtotal, discount, total float64) {
	for _, l := range lines {
		subtotal += l.Amount()
	}
	subtotal = RoundCents(subtotal)
	discount = RoundCents(subtotal * rate)
	return subtotal, discount, RoundCents(subtotal - discount)
}

// FormatID renders an identifier the way it appears in record keys.
func FormatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}

// RowKey renders an identifier as a fixed width key so that byte-ordered
// stores keep records in identifier order.
func RowKey(id uint64) string {
	return fmt.Sprintf("%020d", id)
}

// RoundCents rounds a dollar amount to two decimals.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

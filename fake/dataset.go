package fake

import (
	"github.com/pilosa/ecomgen"
	"github.com/pilosa/ecomgen/fake/gen"
	"github.com/pkg/errors"
)

// Dataset is a generated, self-consistent set of records.
type Dataset struct {
	Customers []ecomgen.Customer
	Products  []ecomgen.Product
	Orders    []ecomgen.Order
	Lines     []ecomgen.OrderLine

	// InitialStock holds each product's stock before any order, indexed by
	// product id-1.
	InitialStock []int64

	// Rejected holds the validation errors of records which were dropped.
	Rejected []error
}

// Generate builds a dataset from cfg. It does no I/O, and the same cfg always
// produces the same dataset.
func Generate(cfg Config) (*Dataset, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	g := gen.NewGenerator(cfg.Seed)
	ds := &Dataset{}
	badCustomers := make(map[uint64]struct{})
	badProducts := make(map[uint64]struct{})

	cg := NewCustomerGenerator(g, cfg)
	ds.Customers = make([]ecomgen.Customer, 0, cfg.CustomerCount)
	for id := uint64(1); id <= uint64(cfg.CustomerCount); id++ {
		c, err := cg.Record(id)
		if err == nil {
			err = ecomgen.ValidateCustomer(c)
		}
		if err != nil {
			ds.Rejected = append(ds.Rejected, err)
			badCustomers[id] = struct{}{}
			continue
		}
		ds.Customers = append(ds.Customers, c)
	}

	pg := NewProductGenerator(g, cfg)
	products := make([]ecomgen.Product, cfg.ProductCount)
	ds.InitialStock = make([]int64, cfg.ProductCount)
	for i := range products {
		products[i] = pg.Record(uint64(i) + 1)
		ds.InitialStock[i] = products[i].Stock
		if err := ecomgen.ValidateProduct(products[i]); err != nil {
			ds.Rejected = append(ds.Rejected, err)
			badProducts[products[i].ID] = struct{}{}
			products[i].Active = false
		}
	}

	og := NewOrderGenerator(g, cfg, products)
	ds.Orders = make([]ecomgen.Order, 0, cfg.OrderCount)
	for i, ts := range og.Timestamps(cfg.OrderCount) {
		order, lines := og.Record(uint64(i)+1, ts)
		if err := checkOrder(order, lines, badCustomers, badProducts); err != nil {
			ds.Rejected = append(ds.Rejected, err)
			continue
		}
		ds.Orders = append(ds.Orders, order)
		ds.Lines = append(ds.Lines, lines...)
	}

	ds.Products = make([]ecomgen.Product, 0, len(products))
	for _, p := range products {
		if _, bad := badProducts[p.ID]; !bad {
			ds.Products = append(ds.Products, p)
		}
	}
	return ds, nil
}

func checkOrder(o ecomgen.Order, lines []ecomgen.OrderLine, badCustomers, badProducts map[uint64]struct{}) error {
	if err := ecomgen.ValidateOrder(o); err != nil {
		return err
	}
	if _, bad := badCustomers[o.CustomerID]; bad {
		return errors.Errorf("order %d: customer %d was rejected", o.ID, o.CustomerID)
	}
	for _, l := range lines {
		if err := ecomgen.ValidateOrderLine(l); err != nil {
			return errors.Wrapf(err, "order %d", o.ID)
		}
		if _, bad := badProducts[l.ProductID]; bad {
			return errors.Errorf("order %d: product %d was rejected", o.ID, l.ProductID)
		}
	}
	return nil
}

// Len returns the number of records of kind k.
func (ds *Dataset) Len(k ecomgen.Kind) int {
	switch k {
	case ecomgen.KindCustomer:
		return len(ds.Customers)
	case ecomgen.KindProduct:
		return len(ds.Products)
	case ecomgen.KindOrder:
		return len(ds.Orders)
	case ecomgen.KindOrderLine:
		return len(ds.Lines)
	}
	return 0
}

// Entity returns the i'th record of kind k.
func (ds *Dataset) Entity(k ecomgen.Kind, i int) ecomgen.Entity {
	switch k {
	case ecomgen.KindCustomer:
		return ds.Customers[i]
	case ecomgen.KindProduct:
		return ds.Products[i]
	case ecomgen.KindOrder:
		return ds.Orders[i]
	case ecomgen.KindOrderLine:
		return ds.Lines[i]
	}
	return nil
}

// Total returns the number of records in the dataset.
func (ds *Dataset) Total() int {
	n := 0
	for _, k := range ecomgen.Kinds {
		n += ds.Len(k)
	}
	return n
}

// Revenue sums the totals of orders which were not cancelled.
func (ds *Dataset) Revenue() float64 {
	var total float64
	for _, o := range ds.Orders {
		if o.Status != ecomgen.StatusCancelled {
			total += o.Total
		}
	}
	return ecomgen.RoundCents(total)
}

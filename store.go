package ecomgen

import (
	"context"
	"io"
)

// Store is a backend the dataset can be loaded into.
type Store interface {
	// Name identifies the backend in logs, stats and reports.
	Name() string

	// Connect opens a connection scoped to one load. It should honor ctx's
	// deadline, which carries the connect timeout.
	Connect(ctx context.Context) (Writer, error)
}

// Writer is an open connection to a Store.
type Writer interface {
	// WriteBatch writes recs, all of which have already passed validation
	// and reference checks. Records the backend refuses are reported in the
	// result; a non-nil error means the backend can't take any more writes.
	WriteBatch(ctx context.Context, recs []Entity) (BatchResult, error)

	io.Closer
}

// Counter is implemented by Writers that can count the records of a kind
// they hold.
type Counter interface {
	Count(ctx context.Context, k Kind) (int64, error)
}

// BatchResult is the outcome of one WriteBatch call.
type BatchResult struct {
	// Inserted counts records written or upserted.
	Inserted int

	// Skipped counts records the backend already held.
	Skipped int

	Rejected []Rejection
}

// Add folds o into r.
func (r *BatchResult) Add(o BatchResult) {
	r.Inserted += o.Inserted
	r.Skipped += o.Skipped
	r.Rejected = append(r.Rejected, o.Rejected...)
}

// Rejection describes a record which was not written.
type Rejection struct {
	Reason Reason
	Kind   Kind
	Key    string
	Err    error
}

func (r Rejection) String() string {
	return string(r.Reason) + " " + r.Kind.String() + " " + r.Key + ": " + r.Err.Error()
}

// Reject builds a schema rejection for a record a backend refused.
func Reject(backend string, e Entity, err error) Rejection {
	return Rejection{
		Reason: ReasonSchema,
		Kind:   e.Kind(),
		Key:    e.Key(),
		Err:    &SchemaError{Backend: backend, Kind: e.Kind(), Key: e.Key(), Err: err},
	}
}

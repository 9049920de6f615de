package mongo

import (
	"context"
	"time"

	"github.com/pilosa/ecomgen"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Store is an ecomgen.Store writing to MongoDB.
type Store struct {
	URI      string
	Database string

	// CreateIndexes creates the secondary indexes on connect.
	CreateIndexes bool

	dial func(ctx context.Context) (map[ecomgen.Kind]collection, func() error, error)
}

// NewStore returns a Store for the deployment at uri.
func NewStore(uri string) *Store {
	return &Store{
		URI:           uri,
		Database:      DefaultDatabase,
		CreateIndexes: true,
	}
}

// Name implements ecomgen.Store.
func (s *Store) Name() string { return "mongo" }

// Connect implements ecomgen.Store. It pings the primary so an unreachable
// deployment fails here rather than on the first write.
func (s *Store) Connect(ctx context.Context) (ecomgen.Writer, error) {
	dial := s.dial
	if dial == nil {
		dial = s.connect
	}
	colls, closer, err := dial(ctx)
	if err != nil {
		return nil, &ecomgen.ConnectivityError{Backend: s.Name(), Err: err}
	}
	return &writer{s: s, colls: colls, closer: closer}, nil
}

func (s *Store) connect(ctx context.Context) (map[ecomgen.Kind]collection, func() error, error) {
	opts := options.Client().ApplyURI(s.URI)
	if dl, ok := ctx.Deadline(); ok {
		timeout := time.Until(dl)
		opts.SetConnectTimeout(timeout).SetServerSelectionTimeout(timeout)
	}
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, errors.Wrap(err, "connecting")
	}
	closer := func() error {
		dctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return client.Disconnect(dctx)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, nil, closeAfter(errors.Wrap(err, "pinging primary"), closer)
	}

	db := client.Database(s.Database)
	colls := make(map[ecomgen.Kind]collection, len(ecomgen.Kinds))
	for _, k := range ecomgen.Kinds {
		coll := db.Collection(k.Collection())
		colls[k] = coll
		if !s.CreateIndexes {
			continue
		}
		if _, err := coll.Indexes().CreateMany(ctx, indexes[k]); err != nil {
			return nil, nil, closeAfter(errors.Wrapf(err, "creating indexes on %s", k.Collection()), closer)
		}
	}
	return colls, closer, nil
}

// closeAfter closes a connection abandoned because of err. A failure to
// close is added to err's message.
func closeAfter(err error, closer func() error) error {
	if cerr := closer(); cerr != nil {
		return errors.WithMessagef(err, "disconnecting: %v", cerr)
	}
	return err
}

type writer struct {
	s      *Store
	colls  map[ecomgen.Kind]collection
	closer func() error
}

// WriteBatch upserts recs with one unordered bulk write per collection.
// Documents the server refuses are rejected; any other failure is fatal.
func (w *writer) WriteBatch(ctx context.Context, recs []ecomgen.Entity) (ecomgen.BatchResult, error) {
	var res ecomgen.BatchResult
	groups := make(map[ecomgen.Kind][]ecomgen.Entity)
	var order []ecomgen.Kind
	for _, rec := range recs {
		k := rec.Kind()
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], rec)
	}
	for _, k := range order {
		r, err := w.writeKind(ctx, k, groups[k])
		res.Add(r)
		if err != nil {
			return res, err
		}
	}
	return res, nil
}

func (w *writer) writeKind(ctx context.Context, k ecomgen.Kind, recs []ecomgen.Entity) (ecomgen.BatchResult, error) {
	var res ecomgen.BatchResult
	coll, ok := w.colls[k]
	if !ok {
		return res, errors.Errorf("no collection for %s", k)
	}
	models := make([]mongo.WriteModel, 0, len(recs))
	sent := make([]ecomgen.Entity, 0, len(recs))
	for _, rec := range recs {
		id, doc, err := documentFor(rec)
		if err != nil {
			res.Rejected = append(res.Rejected, ecomgen.Reject(w.s.Name(), rec, err))
			continue
		}
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.D{{Key: "_id", Value: id}}).
			SetReplacement(doc).
			SetUpsert(true))
		sent = append(sent, rec)
	}
	if len(models) == 0 {
		return res, nil
	}

	_, err := coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err == nil {
		res.Inserted += len(sent)
		return res, nil
	}
	var bwe mongo.BulkWriteException
	if !errors.As(err, &bwe) || bwe.WriteConcernError != nil {
		return res, &ecomgen.ConnectivityError{Backend: w.s.Name(), Err: errors.Wrapf(err, "writing %s", k.Collection())}
	}
	failed := make(map[int]struct{}, len(bwe.WriteErrors))
	for _, we := range bwe.WriteErrors {
		if we.Index < 0 || we.Index >= len(sent) {
			continue
		}
		failed[we.Index] = struct{}{}
		res.Rejected = append(res.Rejected, ecomgen.Reject(w.s.Name(), sent[we.Index], errors.Errorf("code %d: %s", we.Code, we.Message)))
	}
	res.Inserted += len(sent) - len(failed)
	return res, nil
}

// Count implements ecomgen.Counter.
func (w *writer) Count(ctx context.Context, k ecomgen.Kind) (int64, error) {
	coll, ok := w.colls[k]
	if !ok {
		return 0, errors.Errorf("no collection for %s", k)
	}
	n, err := coll.CountDocuments(ctx, bson.D{})
	return n, errors.Wrapf(err, "counting %s", k.Collection())
}

func (w *writer) Close() error {
	if w.closer == nil {
		return nil
	}
	return errors.Wrap(w.closer(), "disconnecting")
}

// Package boltdb provides an ecomgen.Ledger implementation using boltdb. It
// is the default ledger of the table store because it is a single file that
// travels with the table directory.
package boltdb

import (
	"time"

	"github.com/boltdb/bolt"
	"github.com/pilosa/ecomgen"
	"github.com/pkg/errors"
)

var (
	keyBucket  = []byte("keys")
	metaBucket = []byte("meta")
	present    = []byte{1}
)

// Ledger is an ecomgen.Ledger which keeps one bucket of keys per entity kind
// in boltdb.
type Ledger struct {
	Db *bolt.DB
}

var _ ecomgen.Ledger = &Ledger{}

// NewLedger opens or creates the ledger in filename.
func NewLedger(filename string) (l *Ledger, err error) {
	l = &Ledger{}
	l.Db, err = bolt.Open(filename, 0600, &bolt.Options{Timeout: 1 * time.Second, NoGrowSync: true})
	if err != nil {
		return nil, errors.Wrapf(err, "opening db file '%v'", filename)
	}
	l.Db.MaxBatchDelay = 400 * time.Microsecond
	err = l.Db.Update(func(tx *bolt.Tx) error {
		kb, err := tx.CreateBucketIfNotExists(keyBucket)
		if err != nil {
			return errors.Wrap(err, "creating keys bucket")
		}
		if _, err := tx.CreateBucketIfNotExists(metaBucket); err != nil {
			return errors.Wrap(err, "creating meta bucket")
		}
		for _, k := range ecomgen.Kinds {
			if _, err := kb.CreateBucketIfNotExists([]byte(k.String())); err != nil {
				return errors.Wrapf(err, "adding %s to keys bucket", k)
			}
		}
		return nil
	})
	if err != nil {
		l.Db.Close()
		return nil, errors.Wrap(err, "ensuring bucket existence")
	}
	return l, nil
}

// Close syncs and closes the underlying boltdb.
func (l *Ledger) Close() error {
	err := l.Db.Sync()
	if err != nil {
		return errors.Wrap(err, "syncing db")
	}
	return l.Db.Close()
}

func kindBucket(tx *bolt.Tx, k ecomgen.Kind) (*bolt.Bucket, error) {
	b := tx.Bucket(keyBucket).Bucket([]byte(k.String()))
	if b == nil {
		return nil, errors.Errorf("no bucket for kind %s", k)
	}
	return b, nil
}

// Seen implements ecomgen.Ledger.
func (l *Ledger) Seen(k ecomgen.Kind, key string) (seen bool, err error) {
	err = l.Db.View(func(tx *bolt.Tx) error {
		b, err := kindBucket(tx, k)
		if err != nil {
			return err
		}
		seen = b.Get([]byte(key)) != nil
		return nil
	})
	return seen, err
}

// Record implements ecomgen.Ledger. Keys are written in batches of 10000 per
// transaction.
func (l *Ledger) Record(k ecomgen.Kind, keys ...string) error {
	const batchSize = 10000
	for start := 0; start < len(keys); start += batchSize {
		end := start + batchSize
		if end > len(keys) {
			end = len(keys)
		}
		err := l.Db.Batch(func(tx *bolt.Tx) error {
			b, err := kindBucket(tx, k)
			if err != nil {
				return err
			}
			for _, key := range keys[start:end] {
				if err := b.Put([]byte(key), present); err != nil {
					return errors.Wrapf(err, "putting %s key %s", k, key)
				}
			}
			return nil
		})
		if err != nil {
			return errors.Wrap(err, "recording batch")
		}
	}
	return nil
}

// Count implements ecomgen.Ledger.
func (l *Ledger) Count(k ecomgen.Kind) (n int64, err error) {
	err = l.Db.View(func(tx *bolt.Tx) error {
		b, err := kindBucket(tx, k)
		if err != nil {
			return err
		}
		n = int64(b.Stats().KeyN)
		return nil
	})
	return n, err
}

// Sequence implements ecomgen.Ledger using the meta bucket's sequence.
func (l *Ledger) Sequence() (seq uint64, err error) {
	err = l.Db.Update(func(tx *bolt.Tx) error {
		seq, err = tx.Bucket(metaBucket).NextSequence()
		return err
	})
	return seq, errors.Wrap(err, "getting next sequence")
}

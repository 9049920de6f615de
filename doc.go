// Package ecomgen builds a synthetic e-commerce dataset and loads the same
// logical records into several storage backends so that analyses run against
// each store can be joined on stable identifiers.
//
// The work happens in two independent stages.
//
// 1. Generation
//
//    The fake package produces Customers, Products, Orders and OrderLines from
//    an explicit fake.Config and a random seed. The same seed and config always
//    produce the same records, and every reference (order to customer, line to
//    order and product) points at a generated record. The file package writes
//    one JSON Lines file per entity type plus a manifest.
//
// 2. Loading
//
//    A Source hands records to Load one at a time. Load validates each record,
//    checks its references against the records seen before it, batches the
//    survivors and hands them to the Writer obtained from a Store. Each Store
//    maps records into its backend's physical layout: wide rows for HBase,
//    documents for MongoDB, partitioned Avro files for Spark, keyed messages
//    for Kafka and keyed bitmaps for Pilosa. Loader runs several stores side by
//    side; a store that cannot be reached fails alone and every store still
//    gets a LoadReport.
//
// Identifiers are assigned from 1 within each entity type and are written
// unchanged into every store, so they are the join key for cross-store
// reporting.
package ecomgen

package store

import (
	"context"
	"fmt"
)

// Target schema for imported orders.
//
// purchases.id is identity-generated but overridable: the importer
// writes the order id from the source file into it under a scoped
// identity override (see insertPurchase).
//
// customers(name, email) and products(name, start_price) carry no
// unique constraints on purpose: deduplication happens only in the
// importer's check-then-act lookups, which is correct for a single
// writer. Concurrent runs against the same database can create
// duplicate customer or product rows.
const createSchemaSQL = `
CREATE TABLE IF NOT EXISTS customers (
    id    INTEGER GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    name  TEXT NOT NULL,
    email TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS products (
    id          INTEGER GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    name        TEXT NOT NULL,
    start_price NUMERIC(12,2) NOT NULL
);

-- purchase_date stays TEXT: the source date is carried through uninterpreted.
CREATE TABLE IF NOT EXISTS purchases (
    id            INTEGER GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    customer_id   INTEGER NOT NULL REFERENCES customers(id),
    purchase_date TEXT NOT NULL,
    total_cost    NUMERIC(12,2) NOT NULL
);

CREATE TABLE IF NOT EXISTS purchase_items (
    purchase_id INTEGER NOT NULL REFERENCES purchases(id),
    product_id  INTEGER NOT NULL REFERENCES products(id),
    count       INTEGER NOT NULL,
    price       NUMERIC(12,2) NOT NULL
);
`

const dropSchemaSQL = `
DROP TABLE IF EXISTS purchase_items;
DROP TABLE IF EXISTS purchases;
DROP TABLE IF EXISTS products;
DROP TABLE IF EXISTS customers;
`

// CreateSchema creates the four target tables if they do not exist.
func CreateSchema(ctx context.Context, db Querier) error {
	if _, err := db.Exec(ctx, createSchemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// DropSchema drops the four target tables.
func DropSchema(ctx context.Context, db Querier) error {
	if _, err := db.Exec(ctx, dropSchemaSQL); err != nil {
		return fmt.Errorf("failed to drop schema: %w", err)
	}
	return nil
}

package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/artm44/TestTask-SKRIN/internal/orders"
)

// Querier is the slice of the pgx API the importer issues statements
// through. *pgx.Conn, *pgxpool.Pool and pgx.Tx all satisfy it.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Tx is the transaction handle one load run exclusively owns. pgx.Tx
// satisfies it.
type Tx interface {
	Querier
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// BeginFunc opens the single transaction backing one load run.
type BeginFunc func(ctx context.Context) (Tx, error)

// Begin adapts a pgx connection into a BeginFunc.
func Begin(conn *pgx.Conn) BeginFunc {
	return func(ctx context.Context) (Tx, error) {
		tx, err := conn.Begin(ctx)
		if err != nil {
			return nil, err
		}
		return tx, nil
	}
}

// resolveOrCreateCustomer returns the key of the customer row matching
// (name, email) exactly, inserting a new row when no match exists. The
// generated key comes back through RETURNING on the same statement, so
// no second lookup is needed. The reported bool is true when a row was
// created.
//
// This is check-then-act: nothing stops a concurrent writer from
// inserting the same customer between the lookup and the insert. The
// importer is a single-writer batch tool and accepts that.
func resolveOrCreateCustomer(ctx context.Context, tx Querier, c orders.Customer) (int, bool, error) {
	var id int
	err := tx.QueryRow(ctx,
		`SELECT id FROM customers WHERE name = $1 AND email = $2`,
		c.FullName, c.Email).Scan(&id)
	if err == nil {
		return id, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, false, &OpError{Op: "look up customer", Err: err}
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO customers (name, email) VALUES ($1, $2) RETURNING id`,
		c.FullName, c.Email).Scan(&id)
	if err != nil {
		return 0, false, &OpError{Op: "insert customer", Err: err}
	}
	return id, true, nil
}

// resolveOrCreateProduct is the product twin of resolveOrCreateCustomer.
// The key is (name, price): the same product name at a different price
// resolves to a different product row.
func resolveOrCreateProduct(ctx context.Context, tx Querier, name string, price decimal.Decimal) (int, bool, error) {
	var id int
	err := tx.QueryRow(ctx,
		`SELECT id FROM products WHERE name = $1 AND start_price = $2`,
		name, price).Scan(&id)
	if err == nil {
		return id, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, false, &OpError{Op: "look up product", Err: err}
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO products (name, start_price) VALUES ($1, $2) RETURNING id`,
		name, price).Scan(&id)
	if err != nil {
		return 0, false, &OpError{Op: "insert product", Err: err}
	}
	return id, true, nil
}

// insertPurchase writes the purchase row under the order's externally
// supplied id. purchases.id is GENERATED ALWAYS, so the insert runs
// inside an identity override window: generation is switched to BY
// DEFAULT for exactly this statement and switched back on every exit
// path, a failed insert included. The window never outlives the call.
func insertPurchase(ctx context.Context, tx Querier, o *orders.Order, customerID int) (err error) {
	_, err = tx.Exec(ctx,
		`ALTER TABLE purchases ALTER COLUMN id SET GENERATED BY DEFAULT`)
	if err != nil {
		return &OpError{Op: "enable identity override", Err: err}
	}
	defer func() {
		_, derr := tx.Exec(ctx,
			`ALTER TABLE purchases ALTER COLUMN id SET GENERATED ALWAYS`)
		if derr != nil {
			derr = &OpError{Op: "disable identity override", Err: derr}
			if err == nil {
				err = derr
			} else {
				err = errors.Join(err, derr)
			}
		}
	}()

	_, err = tx.Exec(ctx,
		`INSERT INTO purchases (id, customer_id, purchase_date, total_cost) VALUES ($1, $2, $3, $4)`,
		o.ID, customerID, o.RegDate, o.Total)
	if err != nil {
		err = &OpError{Op: "insert purchase", Err: err}
	}
	return err
}

// insertItem links one line item to its purchase and resolved product.
// The stored price is the line item's own price at time of sale, kept
// independent of the product's start_price.
func insertItem(ctx context.Context, tx Querier, purchaseID, productID int, item orders.LineItem) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO purchase_items (purchase_id, product_id, count, price) VALUES ($1, $2, $3, $4)`,
		purchaseID, productID, item.Quantity, item.Price)
	if err != nil {
		return &OpError{Op: "insert purchase item", Err: err}
	}
	return nil
}

// Package store loads parsed orders into the relational store. One Load
// call owns one database transaction spanning the entire input: either
// every row from the document is committed or none is.
package store

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5"

	"github.com/artm44/TestTask-SKRIN/internal/logging"
	"github.com/artm44/TestTask-SKRIN/internal/orders"
)

// OrderSource yields orders one at a time and reports io.EOF when
// drained. *orders.Reader satisfies it.
type OrderSource interface {
	Next() (*orders.Order, error)
}

// Stats summarizes one load run.
type Stats struct {
	Orders           int
	Items            int
	CustomersCreated int
	ProductsCreated  int
}

// Loader imports order streams into the store.
type Loader struct {
	begin BeginFunc
}

// NewLoader returns a Loader that opens its transaction through begin.
func NewLoader(begin BeginFunc) *Loader {
	return &Loader{begin: begin}
}

// Load drains src into the store inside a single transaction, committing
// once after the last order. The first failure from the reader or the
// store rolls back everything written so far and is returned. When the
// rollback itself fails too, the returned error is a *RollbackError
// carrying both failures.
func (l *Loader) Load(ctx context.Context, src OrderSource) (Stats, error) {
	var stats Stats

	tx, err := l.begin(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := l.loadAll(ctx, tx, src, &stats); err != nil {
		return stats, rollback(ctx, tx, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return stats, rollback(ctx, tx, &OpError{Op: "commit transaction", Err: err})
	}

	logging.Debug().
		Int("orders", stats.Orders).
		Int("items", stats.Items).
		Msg("Transaction committed")
	return stats, nil
}

func (l *Loader) loadAll(ctx context.Context, tx Tx, src OrderSource, stats *Stats) error {
	for {
		order, err := src.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading orders: %w", err)
		}
		if err := l.loadOrder(ctx, tx, order, stats); err != nil {
			return err
		}
		stats.Orders++
	}
}

func (l *Loader) loadOrder(ctx context.Context, tx Tx, o *orders.Order, stats *Stats) error {
	customerID, created, err := resolveOrCreateCustomer(ctx, tx, o.Customer)
	if err != nil {
		return err
	}
	if created {
		stats.CustomersCreated++
	}

	logging.Debug().
		Int("order", o.ID).
		Int("customer", customerID).
		Int("items", len(o.Items)).
		Msg("Loading order")

	if err := insertPurchase(ctx, tx, o, customerID); err != nil {
		return err
	}

	for _, item := range o.Items {
		productID, created, err := resolveOrCreateProduct(ctx, tx, item.ProductName, item.Price)
		if err != nil {
			return err
		}
		if created {
			stats.ProductsCreated++
		}
		if err := insertItem(ctx, tx, o.ID, productID, item); err != nil {
			return err
		}
		stats.Items++
	}

	return nil
}

// rollback undoes the transaction after cause. pgx reports ErrTxClosed
// when the transaction already ended server-side (a failed commit); that
// counts as a completed rollback, not a second failure.
func rollback(ctx context.Context, tx Tx, cause error) error {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return &RollbackError{Cause: cause, RollbackErr: err}
	}
	logging.Warn().Err(cause).Msg("Transaction rolled back, no rows were written")
	return cause
}

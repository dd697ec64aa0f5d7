// Package orders extracts sales orders from the source XML document.
//
// The document carries <order> elements anywhere in the tree, each with
// child elements no, reg_date, sum, a nested user (fio, email) and zero
// or more product children (quantity, name, price). Numeric fields use a
// decimal point and no grouping separators regardless of locale.
package orders

import "github.com/shopspring/decimal"

// Order is one sale from the source document.
type Order struct {
	// ID is assigned by the source system, not by the store. It must be
	// unique across the run.
	ID int

	// RegDate is passed through to the store uninterpreted.
	RegDate string

	Total    decimal.Decimal
	Customer Customer
	Items    []LineItem
}

// Customer identifies the buyer of an order. The (FullName, Email) pair
// is the dedup key in the store, matched exactly: no case folding, no
// whitespace normalization.
type Customer struct {
	FullName string
	Email    string
}

// LineItem is one product-quantity-price entry within an order. Price is
// the unit price at time of sale; it doubles as part of the product's
// dedup key, so the same product name at a different price is a
// different product.
type LineItem struct {
	ProductName string
	Price       decimal.Decimal
	Quantity    int
}

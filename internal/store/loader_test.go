package store

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/artm44/TestTask-SKRIN/internal/orders"
)

// fakeTx is an in-memory stand-in for a pgx transaction. It interprets
// the statements the store issues and keeps the would-be rows, so loader
// tests can assert on the final state without a database.
type fakeTx struct {
	t *testing.T

	customers map[string]int
	products  map[string]int
	purchases map[int]purchaseRow
	items     []itemRow

	nextID     int
	overrideOn bool
	execLog    []string

	failOn      []string // statements containing any entry fail
	failErr     error
	commitErr   error
	rollbackErr error

	commits   int
	rollbacks int
}

type purchaseRow struct {
	customerID int
	date       string
	total      decimal.Decimal
}

type itemRow struct {
	purchaseID int
	productID  int
	count      int
	price      decimal.Decimal
}

func newFakeTx(t *testing.T) *fakeTx {
	return &fakeTx{
		t:         t,
		customers: make(map[string]int),
		products:  make(map[string]int),
		purchases: make(map[int]purchaseRow),
		nextID:    1,
	}
}

func (f *fakeTx) begin(ctx context.Context) (Tx, error) { return f, nil }

func (f *fakeTx) forcedError(sql string) error {
	for _, s := range f.failOn {
		if strings.Contains(sql, s) {
			if f.failErr != nil {
				return f.failErr
			}
			return errors.New("forced failure")
		}
	}
	return nil
}

func customerKey(name, email string) string { return name + "\x00" + email }

func productKey(name string, price decimal.Decimal) string {
	return name + "\x00" + price.String()
}

func (f *fakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execLog = append(f.execLog, sql)
	if err := f.forcedError(sql); err != nil {
		return pgconn.CommandTag{}, err
	}
	switch {
	case strings.Contains(sql, "SET GENERATED BY DEFAULT"):
		f.overrideOn = true
	case strings.Contains(sql, "SET GENERATED ALWAYS"):
		f.overrideOn = false
	case strings.Contains(sql, "INSERT INTO purchases ("):
		if !f.overrideOn {
			f.t.Error("purchase inserted outside the identity override window")
		}
		id := args[0].(int)
		if _, dup := f.purchases[id]; dup {
			return pgconn.CommandTag{}, errors.New(`duplicate key value violates unique constraint "purchases_pkey"`)
		}
		f.purchases[id] = purchaseRow{
			customerID: args[1].(int),
			date:       args[2].(string),
			total:      args[3].(decimal.Decimal),
		}
	case strings.Contains(sql, "INSERT INTO purchase_items"):
		f.items = append(f.items, itemRow{
			purchaseID: args[0].(int),
			productID:  args[1].(int),
			count:      args[2].(int),
			price:      args[3].(decimal.Decimal),
		})
	default:
		f.t.Errorf("unexpected Exec: %s", sql)
	}
	return pgconn.CommandTag{}, nil
}

func (f *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if err := f.forcedError(sql); err != nil {
		return fakeRow{err: err}
	}
	switch {
	case strings.Contains(sql, "SELECT id FROM customers"):
		if id, ok := f.customers[customerKey(args[0].(string), args[1].(string))]; ok {
			return fakeRow{id: id}
		}
		return fakeRow{err: pgx.ErrNoRows}
	case strings.Contains(sql, "INSERT INTO customers"):
		id := f.nextID
		f.nextID++
		f.customers[customerKey(args[0].(string), args[1].(string))] = id
		return fakeRow{id: id}
	case strings.Contains(sql, "SELECT id FROM products"):
		if id, ok := f.products[productKey(args[0].(string), args[1].(decimal.Decimal))]; ok {
			return fakeRow{id: id}
		}
		return fakeRow{err: pgx.ErrNoRows}
	case strings.Contains(sql, "INSERT INTO products"):
		id := f.nextID
		f.nextID++
		f.products[productKey(args[0].(string), args[1].(decimal.Decimal))] = id
		return fakeRow{id: id}
	}
	f.t.Errorf("unexpected QueryRow: %s", sql)
	return fakeRow{err: errors.New("unexpected query")}
}

func (f *fakeTx) Commit(ctx context.Context) error {
	f.commits++
	return f.commitErr
}

func (f *fakeTx) Rollback(ctx context.Context) error {
	f.rollbacks++
	return f.rollbackErr
}

type fakeRow struct {
	id  int
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*int)) = r.id
	return nil
}

// sliceSource replays a fixed order slice, then err (or io.EOF).
type sliceSource struct {
	orders []*orders.Order
	err    error
	pos    int
}

func (s *sliceSource) Next() (*orders.Order, error) {
	if s.pos < len(s.orders) {
		o := s.orders[s.pos]
		s.pos++
		return o, nil
	}
	if s.err != nil {
		return nil, s.err
	}
	return nil, io.EOF
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return d
}

func testOrder(t *testing.T, id int, name, email string, items ...orders.LineItem) *orders.Order {
	t.Helper()
	return &orders.Order{
		ID:       id,
		RegDate:  "2024-01-01",
		Total:    dec(t, "10.00"),
		Customer: orders.Customer{FullName: name, Email: email},
		Items:    items,
	}
}

func testItem(t *testing.T, name, price string, qty int) orders.LineItem {
	t.Helper()
	return orders.LineItem{ProductName: name, Price: dec(t, price), Quantity: qty}
}

func TestLoadCommitsAllOrders(t *testing.T) {
	tx := newFakeTx(t)
	src := &sliceSource{orders: []*orders.Order{
		testOrder(t, 1, "Jane Doe", "jane@x.com", testItem(t, "Widget", "49.99", 2)),
		testOrder(t, 2, "John Smith", "john@x.com", testItem(t, "Gadget", "9.99", 1)),
		testOrder(t, 3, "Jane Doe", "jane@x.com"),
	}}

	stats, err := NewLoader(tx.begin).Load(context.Background(), src)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(tx.purchases) != 3 {
		t.Errorf("Expected 3 purchases, got %d", len(tx.purchases))
	}
	if tx.commits != 1 {
		t.Errorf("Expected exactly one commit, got %d", tx.commits)
	}
	if tx.rollbacks != 0 {
		t.Errorf("Expected no rollbacks, got %d", tx.rollbacks)
	}
	if stats.Orders != 3 || stats.Items != 2 {
		t.Errorf("Stats mismatch: %+v", stats)
	}
	if tx.overrideOn {
		t.Error("Identity override left enabled after load")
	}
}

func TestLoadDeduplicatesCustomersAndProducts(t *testing.T) {
	tx := newFakeTx(t)
	src := &sliceSource{orders: []*orders.Order{
		testOrder(t, 1, "Jane Doe", "jane@x.com", testItem(t, "Widget", "49.99", 2)),
		testOrder(t, 2, "Jane Doe", "jane@x.com", testItem(t, "Widget", "49.99", 1)),
	}}

	stats, err := NewLoader(tx.begin).Load(context.Background(), src)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(tx.customers) != 1 {
		t.Errorf("Expected 1 customer row, got %d", len(tx.customers))
	}
	if len(tx.products) != 1 {
		t.Errorf("Expected 1 product row, got %d", len(tx.products))
	}
	if tx.purchases[1].customerID != tx.purchases[2].customerID {
		t.Error("Both purchases should reference the same customer key")
	}
	if tx.items[0].productID != tx.items[1].productID {
		t.Error("Both items should reference the same product key")
	}
	if stats.CustomersCreated != 1 || stats.ProductsCreated != 1 {
		t.Errorf("Stats mismatch: %+v", stats)
	}
}

func TestLoadSameProductNameDifferentPrice(t *testing.T) {
	tx := newFakeTx(t)
	src := &sliceSource{orders: []*orders.Order{
		testOrder(t, 1, "Jane Doe", "jane@x.com",
			testItem(t, "Widget", "49.99", 1),
			testItem(t, "Widget", "59.99", 1)),
	}}

	_, err := NewLoader(tx.begin).Load(context.Background(), src)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(tx.products) != 2 {
		t.Errorf("Expected 2 distinct product rows, got %d", len(tx.products))
	}
	if tx.items[0].productID == tx.items[1].productID {
		t.Error("Items at different prices should reference distinct products")
	}
}

func TestLoadEmptyStream(t *testing.T) {
	tx := newFakeTx(t)

	stats, err := NewLoader(tx.begin).Load(context.Background(), &sliceSource{})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if tx.commits != 1 {
		t.Errorf("Expected one commit for an empty document, got %d", tx.commits)
	}
	if stats.Orders != 0 || len(tx.purchases) != 0 {
		t.Errorf("Expected nothing written, got stats %+v", stats)
	}
}

func TestLoadRollsBackOnStoreFailure(t *testing.T) {
	tx := newFakeTx(t)
	tx.failOn = []string{"INSERT INTO purchase_items"}
	src := &sliceSource{orders: []*orders.Order{
		testOrder(t, 1, "Jane Doe", "jane@x.com"),
		testOrder(t, 2, "John Smith", "john@x.com", testItem(t, "Widget", "49.99", 1)),
		testOrder(t, 3, "Ann Lee", "ann@x.com"),
	}}

	_, err := NewLoader(tx.begin).Load(context.Background(), src)
	var opErr *OpError
	if !errors.As(err, &opErr) {
		t.Fatalf("Expected OpError, got %v", err)
	}
	if opErr.Op != "insert purchase item" {
		t.Errorf("Unexpected failing operation: %s", opErr.Op)
	}
	if tx.rollbacks != 1 {
		t.Errorf("Expected one rollback, got %d", tx.rollbacks)
	}
	if tx.commits != 0 {
		t.Errorf("Expected no commit after failure, got %d", tx.commits)
	}
}

func TestLoadRollsBackOnReaderError(t *testing.T) {
	tx := newFakeTx(t)
	readerErr := &orders.MalformedRecordError{Field: "sum", Value: "abc"}
	src := &sliceSource{
		orders: []*orders.Order{testOrder(t, 1, "Jane Doe", "jane@x.com")},
		err:    readerErr,
	}

	_, err := NewLoader(tx.begin).Load(context.Background(), src)
	var merr *orders.MalformedRecordError
	if !errors.As(err, &merr) {
		t.Fatalf("Expected MalformedRecordError, got %v", err)
	}
	if tx.rollbacks != 1 || tx.commits != 0 {
		t.Errorf("Expected rollback without commit, got %d rollbacks / %d commits",
			tx.rollbacks, tx.commits)
	}
}

func TestLoadReportsRollbackFailure(t *testing.T) {
	tx := newFakeTx(t)
	tx.failOn = []string{"INSERT INTO purchase_items"}
	tx.failErr = errors.New("disk full")
	tx.rollbackErr = errors.New("connection lost")
	src := &sliceSource{orders: []*orders.Order{
		testOrder(t, 1, "Jane Doe", "jane@x.com", testItem(t, "Widget", "49.99", 1)),
	}}

	_, err := NewLoader(tx.begin).Load(context.Background(), src)
	var rbErr *RollbackError
	if !errors.As(err, &rbErr) {
		t.Fatalf("Expected RollbackError, got %v", err)
	}
	if !errors.Is(err, tx.failErr) {
		t.Error("RollbackError should carry the original failure")
	}
	if !errors.Is(err, tx.rollbackErr) {
		t.Error("RollbackError should carry the rollback failure")
	}
	msg := err.Error()
	if !strings.Contains(msg, "disk full") || !strings.Contains(msg, "connection lost") {
		t.Errorf("Error text should describe both failures, got: %s", msg)
	}
}

func TestLoadDuplicateOrderID(t *testing.T) {
	tx := newFakeTx(t)
	src := &sliceSource{orders: []*orders.Order{
		testOrder(t, 7, "Jane Doe", "jane@x.com"),
		testOrder(t, 7, "John Smith", "john@x.com"),
	}}

	_, err := NewLoader(tx.begin).Load(context.Background(), src)
	if err == nil {
		t.Fatal("Expected duplicate order id to fail the run")
	}
	if !strings.Contains(err.Error(), "duplicate key") {
		t.Errorf("Expected a duplicate key failure, got: %v", err)
	}
	if tx.rollbacks != 1 || tx.commits != 0 {
		t.Errorf("Expected rollback without commit, got %d rollbacks / %d commits",
			tx.rollbacks, tx.commits)
	}
}

func TestLoadCommitFailure(t *testing.T) {
	tx := newFakeTx(t)
	tx.commitErr = errors.New("commit refused")
	// A failed commit leaves the pgx transaction closed.
	tx.rollbackErr = pgx.ErrTxClosed
	src := &sliceSource{orders: []*orders.Order{
		testOrder(t, 1, "Jane Doe", "jane@x.com"),
	}}

	_, err := NewLoader(tx.begin).Load(context.Background(), src)
	var opErr *OpError
	if !errors.As(err, &opErr) {
		t.Fatalf("Expected OpError, got %v", err)
	}
	if opErr.Op != "commit transaction" {
		t.Errorf("Unexpected failing operation: %s", opErr.Op)
	}
	var rbErr *RollbackError
	if errors.As(err, &rbErr) {
		t.Error("ErrTxClosed on rollback should not count as a rollback failure")
	}
}

func TestLoadBeginFailure(t *testing.T) {
	beginErr := errors.New("no connection")
	begin := func(ctx context.Context) (Tx, error) { return nil, beginErr }

	_, err := NewLoader(begin).Load(context.Background(), &sliceSource{})
	if !errors.Is(err, beginErr) {
		t.Fatalf("Expected begin failure to surface, got %v", err)
	}
}

package datagen

import (
	"encoding/xml"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/artm44/TestTask-SKRIN/internal/orders"
)

// Output wire structs mirror the document layout the reader expects:
// <order> with no/reg_date/sum, a nested <user> and repeated <product>
// children. Money fields are rendered with a fixed two-decimal point
// format, never a locale-dependent one.
type ordersDoc struct {
	XMLName xml.Name   `xml:"orders"`
	Orders  []orderOut `xml:"order"`
}

type orderOut struct {
	No       int          `xml:"no"`
	RegDate  string       `xml:"reg_date"`
	Sum      string       `xml:"sum"`
	User     userOut      `xml:"user"`
	Products []productOut `xml:"product"`
}

type userOut struct {
	FIO   string `xml:"fio"`
	Email string `xml:"email"`
}

type productOut struct {
	Quantity int    `xml:"quantity"`
	Name     string `xml:"name"`
	Price    string `xml:"price"`
}

// Orders generates n random orders with ids 1..n. Customers and
// products are drawn from small pools so a generated document exercises
// the importer's dedup paths, not just its inserts.
func (f *Faker) Orders(n int) []orders.Order {
	type customer struct{ name, email string }
	customers := make([]customer, 0, max(1, n/3))
	for i := 0; i < cap(customers); i++ {
		customers = append(customers, customer{name: f.Name(), email: f.Email()})
	}

	products := make([]orders.LineItem, 0, max(1, n/2))
	for i := 0; i < cap(products); i++ {
		products = append(products, orders.LineItem{
			ProductName: f.ProductName(),
			Price:       f.Price(1, 500),
		})
	}

	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

	out := make([]orders.Order, 0, n)
	for i := 1; i <= n; i++ {
		c := Choose(f, customers)
		o := orders.Order{
			ID:       i,
			RegDate:  f.Date(start, end),
			Customer: orders.Customer{FullName: c.name, Email: c.email},
		}
		for j := f.Int(0, 4); j > 0; j-- {
			item := Choose(f, products)
			item.Quantity = f.Int(1, 10)
			o.Items = append(o.Items, item)
			o.Total = o.Total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
		out = append(out, o)
	}
	return out
}

// WriteXML renders the orders as an indented XML document.
func WriteXML(w io.Writer, os []orders.Order) error {
	doc := ordersDoc{Orders: make([]orderOut, 0, len(os))}
	for _, o := range os {
		out := orderOut{
			No:      o.ID,
			RegDate: o.RegDate,
			Sum:     o.Total.StringFixed(2),
			User:    userOut{FIO: o.Customer.FullName, Email: o.Customer.Email},
		}
		for _, item := range o.Items {
			out.Products = append(out.Products, productOut{
				Quantity: item.Quantity,
				Name:     item.ProductName,
				Price:    item.Price.StringFixed(2),
			})
		}
		doc.Orders = append(doc.Orders, out)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("failed to write XML header: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode orders document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to flush orders document: %w", err)
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return err
	}
	return nil
}

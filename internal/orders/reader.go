package orders

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Wire structs use pointer fields so an absent child element is
// distinguishable from one that is present but empty.
type orderElem struct {
	No       *string       `xml:"no"`
	RegDate  *string       `xml:"reg_date"`
	Sum      *string       `xml:"sum"`
	User     *userElem     `xml:"user"`
	Products []productElem `xml:"product"`
}

type userElem struct {
	FIO   *string `xml:"fio"`
	Email *string `xml:"email"`
}

type productElem struct {
	Quantity *string `xml:"quantity"`
	Name     *string `xml:"name"`
	Price    *string `xml:"price"`
}

// Reader streams orders out of an XML document in a single forward pass.
// Every <order> element is matched wherever it appears in the tree, in
// document order. A Reader is finite and not restartable: after the
// first error or end of document it keeps returning the same result.
type Reader struct {
	dec *xml.Decoder
	err error
}

// NewReader returns a Reader over the given XML stream.
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: xml.NewDecoder(r)}
}

// Next returns the next order in the document, or io.EOF once the
// document is exhausted. Any other error is terminal for the Reader.
func (r *Reader) Next() (*Order, error) {
	if r.err != nil {
		return nil, r.err
	}
	for {
		tok, err := r.dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				r.err = io.EOF
			} else {
				r.err = fmt.Errorf("reading orders document: %w", err)
			}
			return nil, r.err
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "order" {
			continue
		}
		var elem orderElem
		if err := r.dec.DecodeElement(&elem, &start); err != nil {
			r.err = fmt.Errorf("decoding order element: %w", err)
			return nil, r.err
		}
		order, err := elem.toOrder()
		if err != nil {
			r.err = err
			return nil, r.err
		}
		return order, nil
	}
}

func (e *orderElem) toOrder() (*Order, error) {
	id, err := requireInt("no", e.No)
	if err != nil {
		return nil, err
	}
	regDate, err := requireText("reg_date", e.RegDate)
	if err != nil {
		return nil, err
	}
	total, err := requireDecimal("sum", e.Sum)
	if err != nil {
		return nil, err
	}
	if e.User == nil {
		return nil, &MalformedRecordError{Field: "user"}
	}
	fio, err := requireText("user/fio", e.User.FIO)
	if err != nil {
		return nil, err
	}
	email, err := requireText("user/email", e.User.Email)
	if err != nil {
		return nil, err
	}

	order := &Order{
		ID:       id,
		RegDate:  regDate,
		Total:    total,
		Customer: Customer{FullName: fio, Email: email},
	}

	for _, p := range e.Products {
		quantity, err := requireInt("product/quantity", p.Quantity)
		if err != nil {
			return nil, err
		}
		name, err := requireText("product/name", p.Name)
		if err != nil {
			return nil, err
		}
		price, err := requireDecimal("product/price", p.Price)
		if err != nil {
			return nil, err
		}
		order.Items = append(order.Items, LineItem{
			ProductName: name,
			Price:       price,
			Quantity:    quantity,
		})
	}

	return order, nil
}

func requireText(field string, v *string) (string, error) {
	if v == nil {
		return "", &MalformedRecordError{Field: field}
	}
	return *v, nil
}

// Numeric fields tolerate surrounding whitespace from pretty-printed
// documents; text fields are taken verbatim.
func requireInt(field string, v *string) (int, error) {
	s, err := requireText(field, v)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, &MalformedRecordError{Field: field, Value: s, Err: err}
	}
	return n, nil
}

func requireDecimal(field string, v *string) (decimal.Decimal, error) {
	s, err := requireText(field, v)
	if err != nil {
		return decimal.Decimal{}, err
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, &MalformedRecordError{Field: field, Value: s, Err: err}
	}
	return d, nil
}

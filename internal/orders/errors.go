package orders

import "fmt"

// MalformedRecordError reports an order record with a required field that
// is missing or cannot be parsed. Any such error aborts the whole run.
type MalformedRecordError struct {
	Field string // element path relative to <order>, e.g. "user/fio"
	Value string // offending text, empty when the element is missing
	Err   error  // parse failure, nil when the element is missing
}

func (e *MalformedRecordError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed order record: field %q: value %q: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("malformed order record: field %q is missing", e.Field)
}

func (e *MalformedRecordError) Unwrap() error { return e.Err }

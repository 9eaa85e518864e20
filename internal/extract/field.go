package extract

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Field is one extracted leaf of the shape {"value": T}.
//
// Present is false when the key is missing, the value is null, or the value
// cannot be decoded as T. Decoding a Field never fails: a value of the wrong
// type is treated the same as a missing one.
type Field[T any] struct {
	Value   T
	Present bool
}

// Set returns a present Field holding v.
func Set[T any](v T) Field[T] {
	return Field[T]{Value: v, Present: true}
}

func (f *Field[T]) UnmarshalJSON(b []byte) error {
	*f = Field[T]{}

	var wrapper struct {
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(b, &wrapper); err != nil {
		return nil
	}
	if len(wrapper.Value) == 0 || string(wrapper.Value) == "null" {
		return nil
	}

	var v T
	if err := json.Unmarshal(wrapper.Value, &v); err != nil {
		return nil
	}
	f.Value = v
	f.Present = true
	return nil
}

func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.Present {
		return []byte("null"), nil
	}
	return json.Marshal(struct {
		Value T `json:"value"`
	}{f.Value})
}

// Text is a string leaf. Non-zero numbers and true are accepted and kept in
// their JSON text form, so an invoice number extracted as 1042 reads as
// "1042". false and 0 are rejected like any other falsy value, so the
// enclosing Field reads as absent and the next fallback applies.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case string:
		*t = Text(x)
	case float64:
		if x == 0 {
			return fmt.Errorf("extract: %s is falsy", b)
		}
		*t = Text(strconv.FormatFloat(x, 'f', -1, 64))
	case bool:
		if !x {
			return fmt.Errorf("extract: %s is falsy", b)
		}
		*t = "true"
	default:
		return fmt.Errorf("extract: %s is not a text value", b)
	}
	return nil
}

// List is an extracted array whose entries decode independently. An entry
// of the wrong shape becomes the zero T instead of invalidating the list.
type List[T any] []T

func (l *List[T]) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(List[T], len(raw))
	for i, entry := range raw {
		var v T
		if err := json.Unmarshal(entry, &v); err == nil {
			out[i] = v
		}
	}
	*l = out
	return nil
}

// Amount is a numeric leaf. Both JSON numbers and numeric strings decode;
// anything else is rejected so the enclosing Field reads as absent.
type Amount struct {
	decimal.Decimal
}

// NewAmount parses s into an Amount.
func NewAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Amount{}, fmt.Errorf("extract: %q is not numeric: %w", s, err)
	}
	return Amount{Decimal: d}, nil
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		s = str
	}
	parsed, err := NewAmount(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.String()), nil
}

// FirstText returns the first present, non-empty value.
func FirstText(fields ...Field[Text]) (string, bool) {
	for _, f := range fields {
		if f.Present && f.Value != "" {
			return string(f.Value), true
		}
	}
	return "", false
}

// FirstString is FirstText for string-only leaves.
func FirstString(fields ...Field[string]) (string, bool) {
	for _, f := range fields {
		if f.Present && f.Value != "" {
			return f.Value, true
		}
	}
	return "", false
}

// FirstAmount returns the first present, non-zero value.
func FirstAmount(fields ...Field[Amount]) (decimal.Decimal, bool) {
	for _, f := range fields {
		if f.Present && !f.Value.IsZero() {
			return f.Value.Decimal, true
		}
	}
	return decimal.Zero, false
}

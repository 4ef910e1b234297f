package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

// ErrNotAList is returned by DecodeList when the payload is not a JSON array.
var ErrNotAList = errors.New("payload is not a list")

// Number is an optional numeric field. It accepts JSON numbers and numeric
// strings; anything else decodes as absent instead of failing the record.
type Number struct {
	value float64
	valid bool
}

// NumberOf returns a present Number.
func NumberOf(v float64) Number {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Number{}
	}
	return Number{value: v, valid: true}
}

// Float returns the value and whether it is present.
func (n Number) Float() (float64, bool) {
	return n.value, n.valid
}

// Int returns the value rounded to the nearest integer.
func (n Number) Int() (int, bool) {
	if !n.valid {
		return 0, false
	}
	return int(math.Round(n.value)), true
}

// OrZero returns the value, or 0 when absent.
func (n Number) OrZero() float64 {
	if !n.valid {
		return 0
	}
	return n.value
}

// Valid reports whether the field was present and numeric.
func (n Number) Valid() bool {
	return n.valid
}

func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Number{}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}

	switch v := raw.(type) {
	case float64:
		*n = NumberOf(v)
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			*n = NumberOf(f)
		}
	}
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.value)
}

// Text is a string field that tolerates numbers and ignores any other shape.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	*t = ""

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}

	switch v := raw.(type) {
	case string:
		*t = Text(v)
	case float64:
		*t = Text(strconv.FormatFloat(v, 'f', -1, 64))
	}
	return nil
}

// String returns the trimmed value.
func (t Text) String() string {
	return strings.TrimSpace(string(t))
}

// Empty reports whether the trimmed value is empty.
func (t Text) Empty() bool {
	return t.String() == ""
}

// NameList holds the raw string items of a cast/crew field. Non-string items
// are dropped and a non-list value yields an empty list.
type NameList []string

func (l *NameList) UnmarshalJSON(data []byte) error {
	*l = nil

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}

	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make(NameList, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	*l = out
	return nil
}

// Role is a person's role field, which the people service stores either as a
// single string or as an ordered list.
type Role struct {
	values []string
	list   bool
}

// SingleRole builds a string-shaped role.
func SingleRole(role string) Role {
	return Role{values: []string{role}}
}

// RoleList builds a list-shaped role.
func RoleList(roles ...string) Role {
	return Role{values: append([]string(nil), roles...), list: true}
}

// Values returns the non-empty, trimmed role entries in order.
func (r Role) Values() []string {
	out := make([]string, 0, len(r.values))
	for _, v := range r.values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// IsList reports whether the role was given as a list.
func (r Role) IsList() bool {
	return r.list
}

// IsZero reports whether the role carries no usable entry.
func (r Role) IsZero() bool {
	return len(r.Values()) == 0
}

// Label joins list roles with " / " for display.
func (r Role) Label() string {
	return strings.Join(r.Values(), " / ")
}

func (r *Role) UnmarshalJSON(data []byte) error {
	*r = Role{}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}

	switch v := raw.(type) {
	case string:
		*r = SingleRole(v)
	case []any:
		roles := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				roles = append(roles, s)
			}
		}
		*r = RoleList(roles...)
	}
	return nil
}

func (r Role) MarshalJSON() ([]byte, error) {
	values := r.Values()
	switch {
	case len(values) == 0:
		return []byte("null"), nil
	case r.list:
		return json.Marshal(values)
	default:
		return json.Marshal(values[0])
	}
}

// LooseList decodes a JSON array of objects and silently skips elements that
// are not objects or do not decode into T.
type LooseList[T any] []T

func (l *LooseList[T]) UnmarshalJSON(data []byte) error {
	items, _, err := DecodeList[T](data)
	if err != nil {
		*l = nil
		return nil
	}
	*l = items
	return nil
}

// DecodeList decodes a JSON array of objects element by element. Elements that
// are not objects are counted in skipped; only a non-array payload is an error.
func DecodeList[T any](data []byte) (items []T, skipped int, err error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, 0, ErrNotAList
	}

	items = make([]T, 0, len(raws))
	for _, raw := range raws {
		if b := bytes.TrimSpace(raw); len(b) == 0 || b[0] != '{' {
			skipped++
			continue
		}
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			skipped++
			continue
		}
		items = append(items, item)
	}
	return items, skipped, nil
}

package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind is the dynamic type held by a Value.
type Kind uint8

// Value kinds. The zero Kind means "absent".
const (
	KindString Kind = iota + 1
	KindNumber
	KindBool
	// KindRaw holds a nested JSON object or array verbatim.
	KindRaw
)

// Value is a typed scalar field value.
// Numbers keep the literal they were decoded from so that text rendering
// reproduces the source spelling.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
}

// String creates a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number creates a numeric value.
func Number(f float64) Value {
	return Value{kind: KindNumber, num: f, str: strconv.FormatFloat(f, 'f', -1, 64)}
}

// NumberLiteral creates a numeric value from its textual literal.
func NumberLiteral(lit string) (Value, error) {
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return Value{}, fmt.Errorf("parse number %q: %w", lit, err)
	}
	return Value{kind: KindNumber, num: f, str: lit}, nil
}

// Bool creates a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Raw wraps a nested JSON document.
func Raw(data json.RawMessage) Value { return Value{kind: KindRaw, str: string(data)} }

// Kind returns the value kind, zero when the value is absent.
func (v Value) Kind() Kind { return v.kind }

// IsZero reports whether the value is absent.
func (v Value) IsZero() bool { return v.kind == 0 }

// Str returns the string payload of a string value.
func (v Value) Str() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// Num returns the numeric payload of a number value.
func (v Value) Num() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// Text renders the value as text: strings verbatim, numbers by literal,
// booleans as true/false, nested documents as compact JSON.
func (v Value) Text() string {
	switch v.kind {
	case KindString, KindNumber, KindRaw:
		return v.str
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// Truthy reports whether the value is present and non-empty, non-zero and not false.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindString:
		return v.str != ""
	case KindNumber:
		return v.num != 0
	case KindBool:
		return v.b
	case KindRaw:
		return v.str != "{}" && v.str != "[]"
	default:
		return false
	}
}

// Equal compares kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNumber:
		return v.num == o.num
	case KindBool:
		return v.b == o.b
	default:
		return v.str == o.str
	}
}

// MarshalJSON encodes the value as its natural JSON form.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return []byte(v.str), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindRaw:
		return []byte(v.str), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes any JSON value. null leaves the value absent.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty value")
	}
	switch c := data[0]; {
	case c == 'n':
		*v = Value{}
	case c == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode string: %w", err)
		}
		*v = String(s)
	case c == 't' || c == 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return fmt.Errorf("decode bool: %w", err)
		}
		*v = Bool(b)
	case c == '{' || c == '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, data); err != nil {
			return fmt.Errorf("decode nested: %w", err)
		}
		*v = Raw(buf.Bytes())
	default:
		n, err := NumberLiteral(string(data))
		if err != nil {
			return err
		}
		*v = n
	}
	return nil
}

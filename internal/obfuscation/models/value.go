package models

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ValueKind identifies which variant a Value holds.
type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindText
	KindNumber
	KindBool
)

func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	default:
		return fmt.Sprintf("ValueKind(%d)", uint8(k))
	}
}

// Value is a scalar field value. The zero Value is null.
//
// Numbers keep the literal they were decoded from so that integral values,
// fractional values and full-width 64-bit integers are reproduced exactly
// when the record is encoded again.
type Value struct {
	kind ValueKind
	s    string
	b    bool
}

// Null returns the absent value.
func Null() Value { return Value{} }

// Text returns a text value.
func Text(s string) Value { return Value{kind: KindText, s: s} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int returns an integral number.
func Int(i int64) Value { return Value{kind: KindNumber, s: strconv.FormatInt(i, 10)} }

// Uint returns a non-negative integral number.
func Uint(u uint64) Value { return Value{kind: KindNumber, s: strconv.FormatUint(u, 10)} }

// Float returns a fractional number in its shortest round-trip form.
func Float(f float64) Value {
	return Value{kind: KindNumber, s: strconv.FormatFloat(f, 'g', -1, 64)}
}

// Float32 returns a number formatted with float32 precision.
func Float32(f float32) Value {
	return Value{kind: KindNumber, s: strconv.FormatFloat(float64(f), 'g', -1, 32)}
}

// ParseNumber returns a number holding lit verbatim. lit must be a valid
// decimal or exponent literal.
func ParseNumber(lit string) (Value, error) {
	if _, err := strconv.ParseFloat(lit, 64); err != nil {
		if ne, ok := err.(*strconv.NumError); !ok || ne.Err != strconv.ErrRange {
			return Value{}, fmt.Errorf("invalid number %q", lit)
		}
	}
	return Value{kind: KindNumber, s: lit}, nil
}

// MaskValue returns the mask constant as a Value.
func MaskValue() Value { return Text(Mask) }

func (v Value) Kind() ValueKind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

// IsMask reports whether v already equals the mask constant.
func (v Value) IsMask() bool { return v.kind == KindText && v.s == Mask }

// Text returns the string of a text value.
func (v Value) Text() (string, bool) {
	if v.kind != KindText {
		return "", false
	}
	return v.s, true
}

// Bool returns the boolean of a boolean value.
func (v Value) Bool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// Literal returns the textual form of a number.
func (v Value) Literal() (string, bool) {
	if v.kind != KindNumber {
		return "", false
	}
	return v.s, true
}

// Int64 converts a number to int64. Fractional or out-of-range values fail.
func (v Value) Int64() (int64, error) { return v.IntN(64) }

// IntN converts a number to a signed integer of the given bit size.
func (v Value) IntN(bits int) (int64, error) {
	if v.kind != KindNumber {
		return 0, fmt.Errorf("%s value is not a number", v.kind)
	}
	return strconv.ParseInt(v.s, 10, bits)
}

// Uint64 converts a number to uint64.
func (v Value) Uint64() (uint64, error) { return v.UintN(64) }

// UintN converts a number to an unsigned integer of the given bit size.
func (v Value) UintN(bits int) (uint64, error) {
	if v.kind != KindNumber {
		return 0, fmt.Errorf("%s value is not a number", v.kind)
	}
	return strconv.ParseUint(v.s, 10, bits)
}

// Float64 converts a number to float64.
func (v Value) Float64() (float64, error) { return v.FloatN(64) }

// FloatN converts a number to a float of the given bit size, 32 or 64.
func (v Value) FloatN(bits int) (float64, error) {
	if v.kind != KindNumber {
		return 0, fmt.Errorf("%s value is not a number", v.kind)
	}
	return strconv.ParseFloat(v.s, bits)
}

// String renders the value as a text cell: null is empty, booleans are
// true/false and numbers use their literal.
func (v Value) String() string {
	switch v.kind {
	case KindText, KindNumber:
		return v.s
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// Equal reports whether both values hold the same variant and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindBool:
		return v.b == o.b
	case KindNull:
		return true
	default:
		return v.s == o.s
	}
}

// MarshalJSON encodes the value as a JSON scalar.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindText:
		return json.Marshal(v.s)
	case KindNumber:
		return []byte(v.s), nil
	case KindBool:
		return []byte(strconv.FormatBool(v.b)), nil
	default:
		return []byte("null"), nil
	}
}

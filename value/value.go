// Package value implements the store's dynamic value model: a tagged
// union capable of holding any configuration value and projecting it,
// fallibly, into host scalars, sequences, and byte encodings.
//
// Values are small, explicit wrapper types rather than bare
// interface{}: projection failures are always typed errors, never
// panics.
package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/normano/c5store/errors"
)

// Kind identifies which variant a Value holds.
type Kind uint8

// The variants of Value.
const (
	KindNull Kind = iota
	KindBytes
	KindBool
	KindInt64
	KindUint64
	KindFloat64
	KindText
	KindArray
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBytes:
		return "bytes"
	case KindBool:
		return "bool"
	case KindInt64:
		return "int64"
	case KindUint64:
		return "uint64"
	case KindFloat64:
		return "float64"
	case KindText:
		return "text"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	}
	return "unknown"
}

// Value is a tagged union over the configuration value space. The
// zero Value is Null. Values are immutable once constructed; Array
// and Map projections recurse element-wise and return copies.
type Value struct {
	kind  Kind
	b     []byte
	boolv bool
	i64   int64
	u64   uint64
	f64   float64
	text  string
	arr   []Value
	m     map[string]Value
}

// Null is the zero Value.
var Null = Value{}

// Kind reports which variant v holds.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the Null variant.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Constructors.

func FromBytes(b []byte) Value {
	cp := make([]byte, len(b))
	copy(cp, b)
	return Value{kind: KindBytes, b: cp}
}

func FromBool(b bool) Value { return Value{kind: KindBool, boolv: b} }

func FromInt64(i int64) Value { return Value{kind: KindInt64, i64: i} }

func FromUint64(u uint64) Value { return Value{kind: KindUint64, u64: u} }

func FromFloat64(f float64) Value { return Value{kind: KindFloat64, f64: f} }

func FromText(s string) Value { return Value{kind: KindText, text: s} }

func FromArray(vs []Value) Value {
	cp := make([]Value, len(vs))
	copy(cp, vs)
	return Value{kind: KindArray, arr: cp}
}

func FromMap(m map[string]Value) Value {
	cp := make(map[string]Value, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return Value{kind: KindMap, m: cp}
}

// String implements fmt.Stringer for debugging and log lines.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBytes:
		return fmt.Sprintf("bytes(%d)", len(v.b))
	case KindBool:
		return strconv.FormatBool(v.boolv)
	case KindInt64:
		return strconv.FormatInt(v.i64, 10)
	case KindUint64:
		return strconv.FormatUint(v.u64, 10)
	case KindFloat64:
		return strconv.FormatFloat(v.f64, 'g', -1, 64)
	case KindText:
		return v.text
	case KindArray:
		parts := make([]string, len(v.arr))
		for i, e := range v.arr {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindMap:
		return fmt.Sprintf("map(%d keys)", len(v.m))
	}
	return "?"
}

func typeMismatch(op string, want, got Kind) error {
	return errors.E(errors.Op(op), errors.TypeMismatch,
		errors.Errorf("expected %s, got %s", want, got))
}

// AsBytes returns the raw bytes for Bytes, the UTF-8 encoding for
// Text, or a type-mismatch error otherwise.
func (v Value) AsBytes() ([]byte, error) {
	switch v.kind {
	case KindBytes:
		cp := make([]byte, len(v.b))
		copy(cp, v.b)
		return cp, nil
	case KindText:
		return []byte(v.text), nil
	}
	return nil, typeMismatch("Value.AsBytes", KindBytes, v.kind)
}

// AsBool projects v to a bool. Bool is identity; Text is parsed
// case-insensitively against true|yes|on|1 and false|no|off|0.
func (v Value) AsBool() (bool, error) {
	switch v.kind {
	case KindBool:
		return v.boolv, nil
	case KindText:
		switch strings.ToLower(strings.TrimSpace(v.text)) {
		case "true", "yes", "on", "1":
			return true, nil
		case "false", "no", "off", "0":
			return false, nil
		}
		return false, errors.E(errors.Op("Value.AsBool"), errors.ConversionError,
			errors.Errorf("cannot parse %q as bool", v.text))
	}
	return false, typeMismatch("Value.AsBool", KindBool, v.kind)
}

// AsInt64 projects v to a signed 64-bit integer.
func (v Value) AsInt64() (int64, error) {
	switch v.kind {
	case KindInt64:
		return v.i64, nil
	case KindUint64:
		if v.u64 > math.MaxInt64 {
			return 0, errors.E(errors.Op("Value.AsInt64"), errors.ConversionError,
				errors.Errorf("uint64 value %d overflows int64", v.u64))
		}
		return int64(v.u64), nil
	case KindFloat64:
		return int64(v.f64), nil
	case KindText:
		n, err := strconv.ParseInt(strings.TrimSpace(v.text), 10, 64)
		if err != nil {
			return 0, errors.E(errors.Op("Value.AsInt64"), errors.ConversionError, err)
		}
		return n, nil
	case KindBytes:
		return bytesToInt64(v.b)
	}
	return 0, typeMismatch("Value.AsInt64", KindInt64, v.kind)
}

// AsUint64 projects v to an unsigned 64-bit integer. A negative
// Int64 fails with a conversion error.
func (v Value) AsUint64() (uint64, error) {
	switch v.kind {
	case KindUint64:
		return v.u64, nil
	case KindInt64:
		if v.i64 < 0 {
			return 0, errors.E(errors.Op("Value.AsUint64"), errors.ConversionError,
				errors.Errorf("negative int64 value %d cannot convert to uint64", v.i64))
		}
		return uint64(v.i64), nil
	case KindFloat64:
		if v.f64 < 0 {
			return 0, errors.E(errors.Op("Value.AsUint64"), errors.ConversionError,
				errors.Errorf("negative float64 value %v cannot convert to uint64", v.f64))
		}
		return uint64(v.f64), nil
	case KindText:
		n, err := strconv.ParseUint(strings.TrimSpace(v.text), 10, 64)
		if err != nil {
			return 0, errors.E(errors.Op("Value.AsUint64"), errors.ConversionError, err)
		}
		return n, nil
	case KindBytes:
		return bytesToUint64(v.b)
	}
	return 0, typeMismatch("Value.AsUint64", KindUint64, v.kind)
}

// AsFloat64 projects v to a float64.
func (v Value) AsFloat64() (float64, error) {
	switch v.kind {
	case KindFloat64:
		return v.f64, nil
	case KindInt64:
		return float64(v.i64), nil
	case KindUint64:
		return float64(v.u64), nil
	case KindText:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.text), 64)
		if err != nil {
			return 0, errors.E(errors.Op("Value.AsFloat64"), errors.ConversionError, err)
		}
		return f, nil
	case KindBytes:
		return bytesToFloat64(v.b)
	}
	return 0, typeMismatch("Value.AsFloat64", KindFloat64, v.kind)
}

// AsString projects v to a string. Text is identity; Bytes must be
// valid UTF-8.
func (v Value) AsString() (string, error) {
	switch v.kind {
	case KindText:
		return v.text, nil
	case KindBytes:
		if !isValidUTF8(v.b) {
			return "", errors.E(errors.Op("Value.AsString"), errors.ConversionError,
				errors.Str("bytes are not valid UTF-8"))
		}
		return string(v.b), nil
	case KindBool:
		return strconv.FormatBool(v.boolv), nil
	case KindInt64:
		return strconv.FormatInt(v.i64, 10), nil
	case KindUint64:
		return strconv.FormatUint(v.u64, 10), nil
	case KindFloat64:
		return strconv.FormatFloat(v.f64, 'g', -1, 64), nil
	}
	return "", typeMismatch("Value.AsString", KindText, v.kind)
}

// AsArray returns the element-wise contents of an Array Value.
func (v Value) AsArray() ([]Value, error) {
	if v.kind != KindArray {
		return nil, typeMismatch("Value.AsArray", KindArray, v.kind)
	}
	cp := make([]Value, len(v.arr))
	copy(cp, v.arr)
	return cp, nil
}

// AsMap returns the contents of a Map Value.
func (v Value) AsMap() (map[string]Value, error) {
	if v.kind != KindMap {
		return nil, typeMismatch("Value.AsMap", KindMap, v.kind)
	}
	cp := make(map[string]Value, len(v.m))
	for k, e := range v.m {
		cp[k] = e
	}
	return cp, nil
}

func isValidUTF8(b []byte) bool {
	return utf8.Valid(b)
}

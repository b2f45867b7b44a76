package scsv

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind identifies which high-level kind a Value holds.
type Kind uint8

const (
	// KindNull is the kind of the zero Value, which holds nothing.
	KindNull Kind = iota
	// KindInt holds a signed 64-bit integer.
	KindInt
	// KindFloat holds a 64-bit float.
	KindFloat
	// KindString holds text.
	KindString
	// KindBool holds a boolean.
	KindBool
	// KindTime holds an instant in time.
	KindTime
	// KindArray holds a sequence of primitive values.
	KindArray
	// KindObject holds a JSON document.
	KindObject
)

// String returns the kind's name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Value is a decoded cell value: a closed tagged union over the kinds a
// column can hold. The zero Value is null. Values are immutable; build them
// with the constructors and inspect them with Kind and the As accessors.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	b    bool
	t    time.Time
	a    []Value
	o    JSON
}

// Null returns the null Value.
func Null() Value {
	return Value{}
}

// Int returns an integer Value.
func Int(v int64) Value {
	return Value{kind: KindInt, i: v}
}

// Float returns a float Value.
func Float(v float64) Value {
	return Value{kind: KindFloat, f: v}
}

// Str returns a string Value.
func Str(v string) Value {
	return Value{kind: KindString, s: v}
}

// Bool returns a boolean Value.
func Bool(v bool) Value {
	return Value{kind: KindBool, b: v}
}

// Time returns a time Value.
func Time(v time.Time) Value {
	return Value{kind: KindTime, t: v}
}

// Array returns an array Value. Elements must be Int, Float, Str or Bool
// values; the restriction is enforced when the array is encoded.
func Array(items ...Value) Value {
	return Value{kind: KindArray, a: items}
}

// Object returns an object Value carrying a JSON document.
func Object(j JSON) Value {
	return Value{kind: KindObject, o: j}
}

// Kind reports which kind the value holds.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull reports whether the value is null.
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// AsInt returns the integer payload.
func (v Value) AsInt() (int64, error) {
	if v.kind != KindInt {
		return 0, fmt.Errorf("value is %s, not int", v.kind)
	}
	return v.i, nil
}

// AsFloat returns the float payload.
func (v Value) AsFloat() (float64, error) {
	if v.kind != KindFloat {
		return 0, fmt.Errorf("value is %s, not float", v.kind)
	}
	return v.f, nil
}

// AsString returns the string payload.
func (v Value) AsString() (string, error) {
	if v.kind != KindString {
		return "", fmt.Errorf("value is %s, not string", v.kind)
	}
	return v.s, nil
}

// AsBool returns the boolean payload.
func (v Value) AsBool() (bool, error) {
	if v.kind != KindBool {
		return false, fmt.Errorf("value is %s, not bool", v.kind)
	}
	return v.b, nil
}

// AsTime returns the time payload.
func (v Value) AsTime() (time.Time, error) {
	if v.kind != KindTime {
		return time.Time{}, fmt.Errorf("value is %s, not time", v.kind)
	}
	return v.t, nil
}

// AsArray returns the array elements.
func (v Value) AsArray() ([]Value, error) {
	if v.kind != KindArray {
		return nil, fmt.Errorf("value is %s, not array", v.kind)
	}
	return v.a, nil
}

// AsObject returns the JSON payload.
func (v Value) AsObject() (JSON, error) {
	if v.kind != KindObject {
		return JSON{}, fmt.Errorf("value is %s, not object", v.kind)
	}
	return v.o, nil
}

// String renders the value for display. This is not the storage encoding;
// Type.Encode produces that.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return v.s
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindTime:
		return v.t.Format(time.RFC3339Nano)
	case KindArray:
		parts := make([]string, len(v.a))
		for i, e := range v.a {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindObject:
		data, err := json.Marshal(v.o)
		if err != nil {
			return "<invalid object>"
		}
		return string(data)
	}
	return fmt.Sprintf("<Kind(%d)>", uint8(v.kind))
}

// MarshalJSON implements json.Marshaler. Times render as RFC 3339 strings.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindInt:
		return strconv.AppendInt(nil, v.i, 10), nil
	case KindFloat:
		return json.Marshal(v.f)
	case KindString:
		return json.Marshal(v.s)
	case KindBool:
		return json.Marshal(v.b)
	case KindTime:
		return json.Marshal(v.t.Format(time.RFC3339Nano))
	case KindArray:
		if v.a == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.a)
	case KindObject:
		return json.Marshal(v.o)
	}
	return nil, fmt.Errorf("cannot marshal Kind(%d)", uint8(v.kind))
}

// MarshalYAML implements the yaml.Marshaler interface consumed by the export
// surface.
func (v Value) MarshalYAML() (any, error) {
	return v.anyValue(), nil
}

func (v Value) anyValue() any {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindBool:
		return v.b
	case KindTime:
		return v.t.Format(time.RFC3339Nano)
	case KindArray:
		items := make([]any, len(v.a))
		for i, e := range v.a {
			items[i] = e.anyValue()
		}
		return items
	case KindObject:
		return v.o.anyValue()
	}
	return nil
}

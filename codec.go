package scsv

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	// arrayTagSep separates an element's type tag from its literal.
	arrayTagSep = "::"
	// arrayTerm terminates every encoded array element.
	arrayTerm = "\x00"
)

// arrayTags maps array element type tags to the value kinds they encode.
var arrayTags = map[byte]Kind{
	'B': KindBool,
	'S': KindString,
	'I': KindInt,
	'F': KindFloat,
}

func arrayTagFor(k Kind) (byte, bool) {
	switch k {
	case KindBool:
		return 'B', true
	case KindString:
		return 'S', true
	case KindInt:
		return 'I', true
	case KindFloat:
		return 'F', true
	}
	return 0, false
}

func encodeKindError(t Type, v Value) *Error {
	return errorf(CodeEncode, "cannot encode %s value as %s", v.kind, t).
		withDetail("kind", v.kind.String()).
		withDetail("type", t.String())
}

// Encode renders a value as grid cell text. Each type accepts exactly one
// value kind; anything else is an encode failure.
func (t Type) Encode(v Value) (string, error) {
	switch t {
	case TypeInteger:
		if v.kind != KindInt {
			return "", encodeKindError(t, v)
		}
		return strconv.FormatInt(v.i, 10), nil
	case TypeFloat:
		if v.kind != KindFloat {
			return "", encodeKindError(t, v)
		}
		return strconv.FormatFloat(v.f, 'g', -1, 64), nil
	case TypeString:
		if v.kind != KindString {
			return "", encodeKindError(t, v)
		}
		return v.s, nil
	case TypeBoolean:
		if v.kind != KindBool {
			return "", encodeKindError(t, v)
		}
		if v.b {
			return "1", nil
		}
		return "0", nil
	case TypeDateTime:
		if v.kind != KindTime {
			return "", encodeKindError(t, v)
		}
		sec := float64(v.t.Unix()) + float64(v.t.Nanosecond())/1e9
		return strconv.FormatFloat(sec, 'f', -1, 64), nil
	case TypeArray:
		if v.kind != KindArray {
			return "", encodeKindError(t, v)
		}
		return encodeArray(v.a)
	case TypeObject:
		if v.kind != KindObject {
			return "", encodeKindError(t, v)
		}
		data, err := json.Marshal(v.o)
		if err != nil {
			return "", errorf(CodeEncode, "cannot encode object").wrap(err)
		}
		return string(data), nil
	}
	return "", errorf(CodeEncode, "cannot encode %s", t)
}

func encodeArray(items []Value) (string, error) {
	var b strings.Builder
	for i, e := range items {
		tag, ok := arrayTagFor(e.kind)
		if !ok {
			return "", errorf(CodeEncode, "array element %d: %s values are not supported in arrays", i, e.kind).
				withDetail("element", i)
		}
		var lit string
		switch e.kind {
		case KindBool:
			lit = strconv.FormatBool(e.b)
		case KindString:
			lit = e.s
		case KindInt:
			lit = strconv.FormatInt(e.i, 10)
		case KindFloat:
			lit = strconv.FormatFloat(e.f, 'g', -1, 64)
		}
		if strings.Contains(lit, arrayTerm) {
			return "", errorf(CodeEncode, "array element %d contains the record terminator", i).
				withDetail("element", i)
		}
		b.WriteByte(tag)
		b.WriteString(arrayTagSep)
		b.WriteString(lit)
		b.WriteString(arrayTerm)
	}
	return b.String(), nil
}

// Decode parses grid cell text back into a value.
func (t Type) Decode(data string) (Value, error) {
	switch t {
	case TypeInteger:
		n, err := strconv.ParseInt(data, 10, 64)
		if err != nil {
			return Value{}, errorf(CodeDecode, "malformed integer %q", data).wrap(err)
		}
		return Int(n), nil
	case TypeFloat:
		f, err := strconv.ParseFloat(data, 64)
		if err != nil {
			return Value{}, errorf(CodeDecode, "malformed float %q", data).wrap(err)
		}
		return Float(f), nil
	case TypeString:
		return Str(data), nil
	case TypeBoolean:
		return Bool(data == "1"), nil
	case TypeDateTime:
		return decodeTimestamp(data)
	case TypeArray:
		return decodeArray(data)
	case TypeObject:
		var j JSON
		if err := json.Unmarshal([]byte(data), &j); err != nil {
			return Value{}, errorf(CodeDecode, "malformed object JSON").wrap(err)
		}
		return Object(j), nil
	}
	return Value{}, errorf(CodeDecode, "cannot decode %s", t)
}

func decodeTimestamp(data string) (Value, error) {
	f, err := strconv.ParseFloat(data, 64)
	if err != nil {
		return Value{}, errorf(CodeDecode, "malformed timestamp %q", data).wrap(err)
	}
	sec := math.Floor(f)
	nsec := math.Round((f - sec) * 1e9)
	return Time(time.Unix(int64(sec), int64(nsec))), nil
}

func decodeArray(data string) (Value, error) {
	var items []Value
	for i, rec := range strings.Split(data, arrayTerm) {
		if rec == "" {
			continue
		}
		tag, lit, found := strings.Cut(rec, arrayTagSep)
		if !found {
			return Value{}, errorf(CodeDecode, "array record %d: missing %q separator", i, arrayTagSep).
				withDetail("record", i)
		}
		if len(tag) != 1 {
			return Value{}, errorf(CodeDecode, "array record %d: unknown type tag %q", i, tag).
				withDetail("record", i)
		}
		kind, ok := arrayTags[tag[0]]
		if !ok {
			return Value{}, errorf(CodeDecode, "array record %d: unknown type tag %q", i, tag).
				withDetail("record", i)
		}
		switch kind {
		case KindBool:
			b, err := strconv.ParseBool(lit)
			if err != nil {
				return Value{}, errorf(CodeDecode, "array record %d: malformed boolean %q", i, lit).wrap(err)
			}
			items = append(items, Bool(b))
		case KindString:
			items = append(items, Str(lit))
		case KindInt:
			n, err := strconv.ParseInt(lit, 10, 64)
			if err != nil {
				return Value{}, errorf(CodeDecode, "array record %d: malformed integer %q", i, lit).wrap(err)
			}
			items = append(items, Int(n))
		case KindFloat:
			f, err := strconv.ParseFloat(lit, 64)
			if err != nil {
				return Value{}, errorf(CodeDecode, "array record %d: malformed float %q", i, lit).wrap(err)
			}
			items = append(items, Float(f))
		}
	}
	return Value{kind: KindArray, a: items}, nil
}

// FromJSON converts a JSON value into a cell value of this type. It is how
// the HTTP and CLI surfaces turn request payloads into typed cells.
func (t Type) FromJSON(j JSON) (Value, error) {
	switch t {
	case TypeInteger:
		n, err := j.AsNumber()
		if err != nil {
			return Value{}, errorf(CodeEncode, "%s column wants a number, got %s", t, j.kind)
		}
		if n != math.Trunc(n) || math.IsInf(n, 0) || math.IsNaN(n) {
			return Value{}, errorf(CodeEncode, "%s column wants a whole number, got %v", t, n)
		}
		return Int(int64(n)), nil
	case TypeFloat:
		n, err := j.AsNumber()
		if err != nil {
			return Value{}, errorf(CodeEncode, "%s column wants a number, got %s", t, j.kind)
		}
		return Float(n), nil
	case TypeString:
		s, err := j.AsString()
		if err != nil {
			return Value{}, errorf(CodeEncode, "%s column wants a string, got %s", t, j.kind)
		}
		return Str(s), nil
	case TypeBoolean:
		b, err := j.AsBool()
		if err != nil {
			return Value{}, errorf(CodeEncode, "%s column wants a boolean, got %s", t, j.kind)
		}
		return Bool(b), nil
	case TypeDateTime:
		switch j.kind {
		case JSONString:
			ts, err := time.Parse(time.RFC3339Nano, j.s)
			if err != nil {
				return Value{}, errorf(CodeEncode, "%s column wants an RFC 3339 timestamp", t).wrap(err)
			}
			return Time(ts), nil
		case JSONNumber:
			return decodeTimestamp(strconv.FormatFloat(j.n, 'f', -1, 64))
		}
		return Value{}, errorf(CodeEncode, "%s column wants a timestamp string or POSIX seconds, got %s", t, j.kind)
	case TypeArray:
		elems, err := j.AsArray()
		if err != nil {
			return Value{}, errorf(CodeEncode, "%s column wants an array, got %s", t, j.kind)
		}
		items := make([]Value, 0, len(elems))
		for i, e := range elems {
			switch e.kind {
			case JSONBool:
				items = append(items, Bool(e.b))
			case JSONString:
				items = append(items, Str(e.s))
			case JSONNumber:
				if e.n == math.Trunc(e.n) && !math.IsInf(e.n, 0) {
					items = append(items, Int(int64(e.n)))
				} else {
					items = append(items, Float(e.n))
				}
			default:
				return Value{}, errorf(CodeEncode, "array element %d: arrays hold only booleans, strings and numbers", i).
					withDetail("element", i)
			}
		}
		return Value{kind: KindArray, a: items}, nil
	case TypeObject:
		return Object(j), nil
	}
	return Value{}, errorf(CodeEncode, "cannot convert to %s", t)
}

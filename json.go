package scsv

import (
	"encoding/json"
	"fmt"
)

// JSONKind identifies which JSON kind a JSON value holds.
type JSONKind uint8

const (
	// JSONNull is the kind of the zero JSON value.
	JSONNull JSONKind = iota
	// JSONBool holds true or false.
	JSONBool
	// JSONNumber holds a number. JSON numbers are 64-bit floats.
	JSONNumber
	// JSONString holds text.
	JSONString
	// JSONArray holds an ordered list of JSON values.
	JSONArray
	// JSONObject holds a string-keyed map of JSON values.
	JSONObject
)

// String returns the kind's name.
func (k JSONKind) String() string {
	switch k {
	case JSONNull:
		return "null"
	case JSONBool:
		return "bool"
	case JSONNumber:
		return "number"
	case JSONString:
		return "string"
	case JSONArray:
		return "array"
	case JSONObject:
		return "object"
	}
	return fmt.Sprintf("JSONKind(%d)", uint8(k))
}

// JSON is a dynamic JSON document held as an explicit tagged union rather
// than nested interface values. It is the payload of object cells. The zero
// JSON is null.
type JSON struct {
	kind JSONKind
	b    bool
	n    float64
	s    string
	a    []JSON
	o    map[string]JSON
}

// NullJSON returns the JSON null.
func NullJSON() JSON {
	return JSON{}
}

// BoolJSON returns a JSON boolean.
func BoolJSON(v bool) JSON {
	return JSON{kind: JSONBool, b: v}
}

// NumberJSON returns a JSON number.
func NumberJSON(v float64) JSON {
	return JSON{kind: JSONNumber, n: v}
}

// StringJSON returns a JSON string.
func StringJSON(v string) JSON {
	return JSON{kind: JSONString, s: v}
}

// ArrayJSON returns a JSON array.
func ArrayJSON(items ...JSON) JSON {
	return JSON{kind: JSONArray, a: items}
}

// ObjectJSON returns a JSON object.
func ObjectJSON(fields map[string]JSON) JSON {
	return JSON{kind: JSONObject, o: fields}
}

// Kind reports which JSON kind the value holds.
func (j JSON) Kind() JSONKind {
	return j.kind
}

// IsNull reports whether the value is JSON null.
func (j JSON) IsNull() bool {
	return j.kind == JSONNull
}

// AsBool returns the boolean payload.
func (j JSON) AsBool() (bool, error) {
	if j.kind != JSONBool {
		return false, fmt.Errorf("JSON value is %s, not bool", j.kind)
	}
	return j.b, nil
}

// AsNumber returns the number payload.
func (j JSON) AsNumber() (float64, error) {
	if j.kind != JSONNumber {
		return 0, fmt.Errorf("JSON value is %s, not number", j.kind)
	}
	return j.n, nil
}

// AsString returns the string payload.
func (j JSON) AsString() (string, error) {
	if j.kind != JSONString {
		return "", fmt.Errorf("JSON value is %s, not string", j.kind)
	}
	return j.s, nil
}

// AsArray returns the array elements.
func (j JSON) AsArray() ([]JSON, error) {
	if j.kind != JSONArray {
		return nil, fmt.Errorf("JSON value is %s, not array", j.kind)
	}
	return j.a, nil
}

// AsObject returns the object fields.
func (j JSON) AsObject() (map[string]JSON, error) {
	if j.kind != JSONObject {
		return nil, fmt.Errorf("JSON value is %s, not object", j.kind)
	}
	return j.o, nil
}

// MarshalJSON implements json.Marshaler.
func (j JSON) MarshalJSON() ([]byte, error) {
	switch j.kind {
	case JSONNull:
		return []byte("null"), nil
	case JSONBool:
		return json.Marshal(j.b)
	case JSONNumber:
		return json.Marshal(j.n)
	case JSONString:
		return json.Marshal(j.s)
	case JSONArray:
		if j.a == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(j.a)
	case JSONObject:
		if j.o == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(j.o)
	}
	return nil, fmt.Errorf("cannot marshal JSONKind(%d)", uint8(j.kind))
}

// UnmarshalJSON implements json.Unmarshaler.
func (j *JSON) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*j = jsonFromAny(v)
	return nil
}

func jsonFromAny(v any) JSON {
	switch t := v.(type) {
	case bool:
		return BoolJSON(t)
	case float64:
		return NumberJSON(t)
	case string:
		return StringJSON(t)
	case []any:
		items := make([]JSON, len(t))
		for i, e := range t {
			items[i] = jsonFromAny(e)
		}
		return JSON{kind: JSONArray, a: items}
	case map[string]any:
		fields := make(map[string]JSON, len(t))
		for k, e := range t {
			fields[k] = jsonFromAny(e)
		}
		return JSON{kind: JSONObject, o: fields}
	}
	return JSON{}
}

// MarshalYAML implements the yaml.Marshaler interface consumed by the export
// surface.
func (j JSON) MarshalYAML() (any, error) {
	return j.anyValue(), nil
}

func (j JSON) anyValue() any {
	switch j.kind {
	case JSONBool:
		return j.b
	case JSONNumber:
		return j.n
	case JSONString:
		return j.s
	case JSONArray:
		items := make([]any, len(j.a))
		for i, e := range j.a {
			items[i] = e.anyValue()
		}
		return items
	case JSONObject:
		fields := make(map[string]any, len(j.o))
		for k, e := range j.o {
			fields[k] = e.anyValue()
		}
		return fields
	}
	return nil
}

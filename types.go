package scsv

import (
	"fmt"
	"strings"
)

// Type is a column data type. A column's type decides how cell values are
// encoded into grid text and decoded back.
type Type uint8

const (
	typeInvalid Type = iota
	// TypeInteger stores 64-bit signed integers.
	TypeInteger
	// TypeFloat stores 64-bit floats.
	TypeFloat
	// TypeString stores text verbatim.
	TypeString
	// TypeBoolean stores booleans as "1" or "0".
	TypeBoolean
	// TypeArray stores flat lists of booleans, strings, integers and floats.
	TypeArray
	// TypeDateTime stores timestamps as decimal POSIX seconds.
	TypeDateTime
	// TypeObject stores arbitrary JSON documents.
	TypeObject
)

// String returns the canonical type name, the long form accepted in headers.
func (t Type) String() string {
	switch t {
	case TypeInteger:
		return "integer"
	case TypeFloat:
		return "float"
	case TypeString:
		return "string"
	case TypeBoolean:
		return "boolean"
	case TypeArray:
		return "array"
	case TypeDateTime:
		return "datetime"
	case TypeObject:
		return "object"
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

// aliases maps every accepted header spelling, lower-cased, to its type.
var aliases = map[string]Type{
	"integer":  TypeInteger,
	"int":      TypeInteger,
	"i":        TypeInteger,
	"float":    TypeFloat,
	"f":        TypeFloat,
	"string":   TypeString,
	"str":      TypeString,
	"s":        TypeString,
	"boolean":  TypeBoolean,
	"bool":     TypeBoolean,
	"b":        TypeBoolean,
	"array":    TypeArray,
	"arr":      TypeArray,
	"a":        TypeArray,
	"datetime": TypeDateTime,
	"dt":       TypeDateTime,
	"d":        TypeDateTime,
	"object":   TypeObject,
	"obj":      TypeObject,
	"o":        TypeObject,
}

// TypeFromAlias resolves a header type alias, ignoring case. It reports false
// for spellings outside the alias table.
func TypeFromAlias(alias string) (Type, bool) {
	t, ok := aliases[strings.ToLower(alias)]
	return t, ok
}

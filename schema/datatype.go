// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package schema

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// TimeUnit is the resolution of a Timestamp field, mirroring the teacher's
// control/fieldtype table of fixed primitive widths (ts/fieldcoder.go)
// generalized from a closed bit-size set to a closed time-unit set.
type TimeUnit int

const (
	Second TimeUnit = iota
	Millisecond
	Microsecond
	Nanosecond
)

func (u TimeUnit) String() string {
	switch u {
	case Second:
		return "Second"
	case Millisecond:
		return "Millisecond"
	case Microsecond:
		return "Microsecond"
	case Nanosecond:
		return "Nanosecond"
	}
	return "Unknown"
}

func ParseTimeUnit(s string) (TimeUnit, error) {
	switch s {
	case "Second":
		return Second, nil
	case "Millisecond":
		return Millisecond, nil
	case "Microsecond":
		return Microsecond, nil
	case "Nanosecond":
		return Nanosecond, nil
	}
	return 0, errors.Errorf("schema: unknown time unit %q", s)
}

// DataType is the logical type of a Field, analogous to the teacher's
// ts.Type enum (Hash, Int64, Bool, String, Bytes, Any) but generalized to
// the full Arrow-style logical type set named by spec §3.
type DataType int

const (
	Null DataType = iota
	Bool
	Int8
	Int16
	Int32
	Int64
	UInt8
	UInt16
	UInt32
	UInt64
	Float16
	Float32
	Float64
	Utf8
	LargeUtf8
	Date64
	Timestamp
	List
	LargeList
	FixedSizeList
	Map
	Struct
	Union
	Dictionary
)

func (d DataType) String() string {
	if n, ok := dataTypeNames[d]; ok {
		return n
	}
	return "Unknown"
}

var dataTypeNames = map[DataType]string{
	Null:          "Null",
	Bool:          "Bool",
	Int8:          "I8",
	Int16:         "I16",
	Int32:         "I32",
	Int64:         "I64",
	UInt8:         "U8",
	UInt16:        "U16",
	UInt32:        "U32",
	UInt64:        "U64",
	Float16:       "F16",
	Float32:       "F32",
	Float64:       "F64",
	Utf8:          "Utf8",
	LargeUtf8:     "LargeUtf8",
	Date64:        "Date64",
	Timestamp:     "Timestamp",
	List:          "List",
	LargeList:     "LargeList",
	FixedSizeList: "FixedSizeList",
	Map:           "Map",
	Struct:        "Struct",
	Union:         "Union",
	Dictionary:    "Dictionary",
}

var dataTypeAliases = map[string]DataType{
	"Null": Null,

	"Bool":    Bool,
	"Boolean": Bool,

	"I8": Int8, "Int8": Int8,
	"I16": Int16, "Int16": Int16,
	"I32": Int32, "Int32": Int32,
	"I64": Int64, "Int64": Int64,

	"U8": UInt8, "UInt8": UInt8,
	"U16": UInt16, "UInt16": UInt16,
	"U32": UInt32, "UInt32": UInt32,
	"U64": UInt64, "UInt64": UInt64,

	"F16": Float16, "Float16": Float16,
	"F32": Float32, "Float32": Float32,
	"F64": Float64, "Float64": Float64,

	"Utf8":      Utf8,
	"LargeUtf8": LargeUtf8,
	"Date64":    Date64,

	"Struct":        Struct,
	"List":          List,
	"LargeList":     LargeList,
	"FixedSizeList": FixedSizeList,
	"Union":         Union,
	"Map":           Map,
	"Dictionary":    Dictionary,
}

// IsInteger reports whether d is any signed or unsigned fixed-width integer
// type.
func (d DataType) IsInteger() bool {
	switch d {
	case Int8, Int16, Int32, Int64, UInt8, UInt16, UInt32, UInt64:
		return true
	}
	return false
}

// IsSignedInteger reports whether d is a signed fixed-width integer type.
func (d DataType) IsSignedInteger() bool {
	switch d {
	case Int8, Int16, Int32, Int64:
		return true
	}
	return false
}

// IsUnsignedInteger reports whether d is an unsigned fixed-width integer
// type.
func (d DataType) IsUnsignedInteger() bool {
	switch d {
	case UInt8, UInt16, UInt32, UInt64:
		return true
	}
	return false
}

// IsFloat reports whether d is a floating point type.
func (d DataType) IsFloat() bool {
	switch d {
	case Float16, Float32, Float64:
		return true
	}
	return false
}

// IsNumeric reports whether d is any integer or float type.
func (d DataType) IsNumeric() bool {
	return d.IsInteger() || d.IsFloat()
}

// ParseDataType parses the textual, JSON-shaped data_type string described
// by spec §6, including the parameterized Timestamp(unit, tz) form.
//
// Returns the DataType and, for Timestamp, the unit and optional timezone.
func ParseDataType(s string) (dt DataType, unit TimeUnit, tz *string, err error) {
	if strings.HasPrefix(s, "Timestamp(") && strings.HasSuffix(s, ")") {
		inner := s[len("Timestamp(") : len(s)-1]
		parts := strings.SplitN(inner, ",", 2)
		if len(parts) != 2 {
			return 0, 0, nil, errors.Errorf("schema: malformed Timestamp data_type %q", s)
		}
		u, err := ParseTimeUnit(strings.TrimSpace(parts[0]))
		if err != nil {
			return 0, 0, nil, err
		}
		tzPart := strings.TrimSpace(parts[1])
		switch {
		case tzPart == "None":
			return Timestamp, u, nil, nil
		case strings.HasPrefix(tzPart, `Some("`) && strings.HasSuffix(tzPart, `")`):
			z := tzPart[len(`Some("`) : len(tzPart)-2]
			return Timestamp, u, &z, nil
		default:
			return 0, 0, nil, errors.Errorf("schema: malformed Timestamp timezone %q", tzPart)
		}
	}
	dt, ok := dataTypeAliases[s]
	if !ok {
		return 0, 0, nil, errors.Errorf("schema: unknown data_type %q", s)
	}
	return dt, 0, nil, nil
}

// FormatDataType renders dt (plus unit/tz for Timestamp) back to the
// textual form ParseDataType accepts.
func FormatDataType(dt DataType, unit TimeUnit, tz *string) string {
	if dt == Timestamp {
		if tz == nil {
			return fmt.Sprintf("Timestamp(%s, None)", unit)
		}
		return fmt.Sprintf("Timestamp(%s, Some(%q))", unit, *tz)
	}
	return dt.String()
}

// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ts

import (
	"github.com/solidcoredata/arrowtrace/schema"
)

// DefineFromSchema declares a table whose columns mirror the top-level
// fields of s, so a traced or hand-written schema can be archived
// row-at-a-time alongside its columnar representation. Nested fields
// (List, Struct, Map, Union, Dictionary) have no flat column equivalent
// here and are archived through the opaque Any coder.
func (w *Writer) DefineFromSchema(name string, s schema.Schema) TableRef {
	cols := make([]Col, len(s.Fields))
	for i, f := range s.Fields {
		cols[i] = Col{
			Name:     f.Name,
			Type:     columnTypeOf(f.DataType),
			Nullable: f.Nullable,
		}
	}
	return w.Define(Table{Name: name}, cols...)
}

// columnTypeOf maps a schema.DataType onto the closest legacy ts.Type.
// Composite and floating point types fall back to Any: the legacy wire
// format predates both and has no lossless encoding for them.
func columnTypeOf(dt schema.DataType) Type {
	switch {
	case dt == schema.Bool:
		return Bool
	case dt.IsSignedInteger(), dt.IsUnsignedInteger():
		return Int64
	case dt == schema.Utf8 || dt == schema.LargeUtf8:
		return String
	default:
		return Any
	}
}

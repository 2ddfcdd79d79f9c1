// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ts

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/solidcoredata/arrowtrace/schema"
)

func TestDefineFromSchemaInsertRoundTrip(t *testing.T) {
	s := schema.Schema{Fields: []schema.Field{
		{Name: "id", DataType: schema.Int64},
		{Name: "active", DataType: schema.Bool},
		{Name: "name", DataType: schema.Utf8},
	}}

	buf := &bytes.Buffer{}
	w := NewWriter(buf)
	require.NoError(t, w.Error())

	tref := w.DefineFromSchema("widgets", s)
	w.Insert(tref, int64(1), true, "alice")
	w.Insert(tref, int64(2), false, "bob")
	w.Flush()
	require.NoError(t, w.Error())
	require.NoError(t, w.Close())
	require.NotZero(t, buf.Len())
}

func TestColumnTypeOfMapsKnownKinds(t *testing.T) {
	require.Equal(t, Bool, columnTypeOf(schema.Bool))
	require.Equal(t, Int64, columnTypeOf(schema.Int64))
	require.Equal(t, Int64, columnTypeOf(schema.UInt32))
	require.Equal(t, String, columnTypeOf(schema.Utf8))
	require.Equal(t, String, columnTypeOf(schema.LargeUtf8))
	require.Equal(t, Any, columnTypeOf(schema.Struct))
}

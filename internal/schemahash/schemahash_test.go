// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package schemahash

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/solidcoredata/arrowtrace/schema"
)

func TestOfFieldStableAndSensitive(t *testing.T) {
	a := schema.Field{Name: "age", DataType: schema.Int64}
	b := schema.Field{Name: "age", DataType: schema.Int64}
	require.Equal(t, OfField(a), OfField(b))

	c := schema.Field{Name: "age", DataType: schema.Int64, Nullable: true}
	require.NotEqual(t, OfField(a), OfField(c))

	d := schema.Field{Name: "age", DataType: schema.Int32}
	require.NotEqual(t, OfField(a), OfField(d))
}

func TestOfSchemaOrderSensitive(t *testing.T) {
	f1 := schema.Field{Name: "a", DataType: schema.Int64}
	f2 := schema.Field{Name: "b", DataType: schema.Utf8}

	s1 := schema.Schema{Fields: []schema.Field{f1, f2}}
	s2 := schema.Schema{Fields: []schema.Field{f2, f1}}
	require.NotEqual(t, OfSchema(s1), OfSchema(s2))
}

func TestZeroIsDistinctFromComputed(t *testing.T) {
	h := OfField(schema.Field{Name: "x", DataType: schema.Bool})
	require.NotEqual(t, Zero, h)
}

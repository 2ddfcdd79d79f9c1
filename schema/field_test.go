// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package schema

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateRejectsChildlessList(t *testing.T) {
	f := Field{Name: "xs", DataType: List}
	require.Error(t, f.Validate())
}

func TestValidateAcceptsWellFormedMap(t *testing.T) {
	f := Field{
		Name:     "m",
		DataType: Map,
		Children: []Field{{
			DataType: Struct,
			Children: []Field{
				{Name: "key", DataType: Utf8},
				{Name: "value", DataType: Int64},
			},
		}},
	}
	require.NoError(t, f.Validate())
}

func TestSchemaRejectsDuplicateFieldNames(t *testing.T) {
	s := Schema{Fields: []Field{
		{Name: "a", DataType: Int64},
		{Name: "a", DataType: Utf8},
	}}
	require.Error(t, s.Validate())
}

func TestJSONRoundTrip(t *testing.T) {
	s := Schema{Fields: []Field{
		{Name: "a", DataType: Int64},
		{Name: "b", DataType: Utf8, Nullable: true},
	}}
	data, err := s.MarshalJSON()
	require.NoError(t, err)
	got, err := ParseJSON(data)
	require.NoError(t, err)
	require.Equal(t, s, got)
}

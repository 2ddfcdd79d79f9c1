// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compile

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/solidcoredata/arrowtrace/buffer"
	"github.com/solidcoredata/arrowtrace/event"
	"github.com/solidcoredata/arrowtrace/interp"
	"github.com/solidcoredata/arrowtrace/schema"
	"github.com/solidcoredata/arrowtrace/value"
)

func rowSchema() schema.Schema {
	return schema.Schema{Fields: []schema.Field{
		{Name: "name", DataType: schema.Utf8},
		{Name: "age", DataType: schema.Int64, Nullable: true},
		{Name: "tags", DataType: schema.List, Children: []schema.Field{
			{Name: "item", DataType: schema.Utf8},
		}},
	}}
}

// recorder collects emitted events for assertions.
type recorder struct{ events []event.Event }

func (r *recorder) Accept(e event.Event) error {
	r.events = append(r.events, e)
	return nil
}

// eventSource replays a fixed slice of events.
type eventSource struct {
	events []event.Event
	pos    int
}

func (s *eventSource) Next() (event.Event, bool, error) {
	if s.pos >= len(s.events) {
		return event.Event{}, false, nil
	}
	e := s.events[s.pos]
	s.pos++
	return e, true, nil
}

func buildRows(rows []value.Value) *eventSource {
	rec := &recorder{}
	rec.Accept(event.StartSequence())
	for _, row := range rows {
		rec.Accept(event.Item())
		row.Emit(rec)
	}
	rec.Accept(event.EndSequence())
	return &eventSource{events: rec.events}
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	s := rowSchema()
	rows := []value.Value{
		value.Struct(
			value.Field{Name: "name", Value: value.Str("alice")},
			value.Field{Name: "age", Value: value.I64(30)},
			value.Field{Name: "tags", Value: value.Sequence(value.Str("a"), value.Str("b"))},
		),
		value.Struct(
			value.Field{Name: "name", Value: value.Str("bob")},
			value.Field{Name: "age", Value: value.Null()},
			value.Field{Name: "tags", Value: value.Sequence()},
		),
	}

	ser, err := CompileSerialize(s, Options{WrapWithStruct: true})
	require.NoError(t, err)

	buffers := buffer.New(ser.Counts)
	require.NoError(t, interp.Serialize(ser.Program, buffers, buildRows(rows)))

	nameBytes := buffers.Bytes[ser.Program.ArrayMapping[0].BytesBuf].Bytes()
	require.Equal(t, "alicebob", string(nameBytes))

	ageValid := buffers.U1[ser.Program.ArrayMapping[1].ValidityBuf]
	require.True(t, ageValid.Get(0))
	require.False(t, ageValid.Get(1))
	require.Equal(t, uint64(30), buffers.U64[ser.Program.ArrayMapping[1].U64Buf].Get(0))

	des, err := CompileDeserialize(s, Options{WrapWithStruct: true})
	require.NoError(t, err)
	require.Equal(t, ser.Counts, des.Counts)

	out := &recorder{}
	require.NoError(t, interp.Deserialize(des.Program, buffers, len(rows), out))

	require.Equal(t, event.KindStartStruct, out.events[2].Kind)
	require.Equal(t, event.KindEndStruct, out.events[len(out.events)-2].Kind)
}

func TestCompileRejectsMultiFieldWithoutWrap(t *testing.T) {
	_, err := CompileSerialize(rowSchema(), Options{WrapWithStruct: false})
	require.Error(t, err)
}

// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tracer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/solidcoredata/arrowtrace/event"
	"github.com/solidcoredata/arrowtrace/schema"
	"github.com/solidcoredata/arrowtrace/value"
)

type sliceSource struct {
	events []event.Event
	pos    int
}

func (s *sliceSource) Next() (event.Event, bool, error) {
	if s.pos >= len(s.events) {
		return event.Event{}, false, nil
	}
	e := s.events[s.pos]
	s.pos++
	return e, true, nil
}

func rowsSource(rows []value.Value) *sliceSource {
	var events []event.Event
	rec := event.SinkFunc(func(e event.Event) error {
		events = append(events, e)
		return nil
	})
	rec.Accept(event.StartSequence())
	for _, r := range rows {
		rec.Accept(event.Item())
		r.Emit(rec)
	}
	rec.Accept(event.EndSequence())
	return &sliceSource{events: events}
}

func TestFromSamplesUnifiesNumericFields(t *testing.T) {
	rows := []value.Value{
		value.Struct(value.Field{Name: "n", Value: value.I64(1)}),
		value.Struct(value.Field{Name: "n", Value: value.F64(2.5)}),
	}
	opts := DefaultOptions()
	opts.CoerceNumbers = true
	s, err := FromSamples(rowsSource(rows), opts)
	require.NoError(t, err)
	require.Len(t, s.Fields, 1)
	require.Equal(t, "n", s.Fields[0].Name)
	require.Equal(t, schema.Float64, s.Fields[0].DataType)
}

func TestFromSamplesRejectsIncompatibleTypes(t *testing.T) {
	rows := []value.Value{
		value.Struct(value.Field{Name: "n", Value: value.I64(1)}),
		value.Struct(value.Field{Name: "n", Value: value.Bool(true)}),
	}
	_, err := FromSamples(rowsSource(rows), DefaultOptions())
	require.Error(t, err)
}

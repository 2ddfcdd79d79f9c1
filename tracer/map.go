// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tracer

import (
	"github.com/solidcoredata/arrowtrace/event"
	"github.com/solidcoredata/arrowtrace/schema"
)

type mapSlot int

const (
	mapSlotKey mapSlot = iota
	mapSlotValue
)

// mapNode holds a key tracer and a value tracer; state alternates Key ↔
// Value at depth 0 (spec §4.1 "Map").
type mapNode struct {
	path  string
	key   *Tracer
	value *Tracer

	slot       mapSlot
	valueDepth int
	awaiting   bool
}

func newMapNode(path string, opts *Options, depth int) *mapNode {
	return &mapNode{
		path:  path,
		key:   NewTracer(path+".key", opts, depth+1),
		value: NewTracer(path+".value", opts, depth+1),
	}
}

func (m *mapNode) trace(t *Tracer, e event.Event) error {
	if m.valueDepth == 0 && !m.awaiting {
		if e.Kind == event.KindEndMap {
			m.slot = mapSlotKey
			return nil
		}
	}

	var ft *Tracer
	if m.slot == mapSlotKey {
		ft = m.key
	} else {
		ft = m.value
	}
	if err := ft.TraceEvent(e); err != nil {
		return err
	}

	switch {
	case e.IsStart():
		m.valueDepth++
		m.awaiting = false
	case e.IsEnd():
		m.valueDepth--
		if m.valueDepth == 0 {
			m.slot = flipSlot(m.slot)
		}
	case e.Kind == event.KindVariant:
		if m.valueDepth == 0 {
			m.awaiting = true
		}
	default:
		if m.valueDepth == 0 && !m.awaiting {
			m.slot = flipSlot(m.slot)
		}
		m.awaiting = false
	}
	return nil
}

func flipSlot(s mapSlot) mapSlot {
	if s == mapSlotKey {
		return mapSlotValue
	}
	return mapSlotKey
}

func (m *mapNode) finish() error {
	if err := m.key.Finish(); err != nil {
		return err
	}
	return m.value.Finish()
}

func (m *mapNode) toField(name string) (schema.Field, error) {
	keyField, err := m.key.ToSchemaField("key")
	if err != nil {
		return schema.Field{}, err
	}
	valueField, err := m.value.ToSchemaField("value")
	if err != nil {
		return schema.Field{}, err
	}
	entries := schema.Field{
		Name:     "entries",
		DataType: schema.Struct,
		Children: []schema.Field{keyField, valueField},
	}
	return schema.Field{Name: name, DataType: schema.Map, Children: []schema.Field{entries}}, nil
}

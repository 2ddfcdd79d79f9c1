// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tracer

import (
	"github.com/solidcoredata/arrowtrace/errs"
	"github.com/solidcoredata/arrowtrace/event"
	"github.com/solidcoredata/arrowtrace/schema"
)

// tupleNode holds an indexed list of child tracers; field i is created on
// demand with path "$parent.i". TupleAsStruct is applied at schema
// emission (spec §4.1 "Tuple").
type tupleNode struct {
	path  string
	opts  *Options
	depth int

	children []*Tracer

	inValue    bool
	curIdx     int
	valueDepth int
	awaiting   bool
}

func newTupleNode(path string, opts *Options, depth int) *tupleNode {
	return &tupleNode{path: path, opts: opts, depth: depth}
}

func (tu *tupleNode) childAt(idx int) *Tracer {
	for len(tu.children) <= idx {
		i := len(tu.children)
		tu.children = append(tu.children, NewTracer(indexPath(tu.path, i), tu.opts, tu.depth+1))
	}
	return tu.children[idx]
}

func indexPath(parent string, i int) string {
	return parent + "." + itoa(i)
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}

func (tu *tupleNode) trace(t *Tracer, e event.Event) error {
	if !tu.inValue {
		if e.Kind == event.KindEndTuple {
			return nil
		}
		if e.Kind != event.KindItem {
			return errs.Tracing(t.path, "expected Item in a tuple, got %s", e.Kind)
		}
		tu.curIdx = len(tu.children)
		tu.childAt(tu.curIdx)
		tu.inValue = true
		tu.valueDepth = 0
		tu.awaiting = false
		return nil
	}

	ft := tu.children[tu.curIdx]
	if err := ft.TraceEvent(e); err != nil {
		return err
	}
	switch {
	case e.IsStart():
		tu.valueDepth++
		tu.awaiting = false
	case e.IsEnd():
		tu.valueDepth--
		if tu.valueDepth == 0 {
			tu.inValue = false
		}
	case e.Kind == event.KindVariant:
		if tu.valueDepth == 0 {
			tu.awaiting = true
		}
	default:
		if tu.valueDepth == 0 && !tu.awaiting {
			tu.inValue = false
		}
		tu.awaiting = false
	}
	return nil
}

func (tu *tupleNode) finish() error {
	for _, c := range tu.children {
		if err := c.Finish(); err != nil {
			return err
		}
	}
	return nil
}

func (tu *tupleNode) toField(name string) (schema.Field, error) {
	children := make([]schema.Field, len(tu.children))
	for i, c := range tu.children {
		cf, err := c.ToSchemaField(itoa(i))
		if err != nil {
			return schema.Field{}, err
		}
		children[i] = cf
	}
	return schema.Field{Name: name, DataType: schema.Struct, Strategy: schema.TupleAsStruct, Children: children}, nil
}

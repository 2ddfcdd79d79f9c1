// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tracer

import (
	"github.com/solidcoredata/arrowtrace/errs"
	"github.com/solidcoredata/arrowtrace/event"
	"github.com/solidcoredata/arrowtrace/schema"
)

// listNode holds a single item tracer; a nesting-depth counter routes
// Start/End events to the child once inside an item (spec §4.1 "List").
type listNode struct {
	path string
	item *Tracer

	inItem     bool
	valueDepth int
	awaiting   bool
}

func newListNode(path string, opts *Options, depth int) *listNode {
	return &listNode{path: path, item: NewTracer(path+".element", opts, depth+1)}
}

func (l *listNode) trace(t *Tracer, e event.Event) error {
	if !l.inItem {
		switch e.Kind {
		case event.KindEndSequence:
			return nil
		case event.KindItem:
			l.inItem = true
			l.valueDepth = 0
			l.awaiting = false
			return nil
		default:
			return errs.Tracing(t.path, "expected Item in a list, got %s", e.Kind)
		}
	}
	if err := l.item.TraceEvent(e); err != nil {
		return err
	}
	switch {
	case e.IsStart():
		l.valueDepth++
		l.awaiting = false
	case e.IsEnd():
		l.valueDepth--
		if l.valueDepth == 0 {
			l.inItem = false
		}
	case e.Kind == event.KindVariant:
		if l.valueDepth == 0 {
			l.awaiting = true
		}
	default:
		if l.valueDepth == 0 && !l.awaiting {
			l.inItem = false
		}
		l.awaiting = false
	}
	return nil
}

func (l *listNode) finish() error { return l.item.Finish() }

func (l *listNode) toField(name string) (schema.Field, error) {
	child, err := l.item.ToSchemaField("element")
	if err != nil {
		return schema.Field{}, err
	}
	return schema.Field{Name: name, DataType: schema.LargeList, Children: []schema.Field{child}}, nil
}

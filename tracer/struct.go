// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tracer

import (
	"github.com/solidcoredata/arrowtrace/errs"
	"github.com/solidcoredata/arrowtrace/event"
	"github.com/solidcoredata/arrowtrace/schema"
)

type structState int

const (
	structWaitForKey structState = iota
	structInValue
)

type structFieldEntry struct {
	name          string
	tracer        *Tracer
	lastSeenInRun int
}

// structNode holds an ordered vector of fields plus a name→index map.
// States: WaitForKey, InValue. A new key creates a child tracer at path
// "$parent.key". After the first sample, newly appearing fields are
// marked nullable; at each EndStruct, fields not seen in the current
// sample are marked nullable (spec §4.1 "Struct").
//
// A Variant event is always followed by exactly one forwarded value event
// (scalar, or a balanced Start...End run) representing that variant's
// payload — including a KindNull for a data-less variant — so InValue's
// depth/awaitingVariantBody bookkeeping below never has to guess whether a
// variant carries data.
type structNode struct {
	path     string
	opts     *Options
	depth    int
	strategy schema.Strategy

	fields []structFieldEntry
	index  map[string]int

	state               structState
	curIdx              int
	valueDepth          int
	awaitingVariantBody bool

	sampleNum   int
	firstSample bool
}

func newStructNode(path string, opts *Options, depth int, strategy schema.Strategy) *structNode {
	return &structNode{
		path: path, opts: opts, depth: depth, strategy: strategy,
		index:       make(map[string]int),
		firstSample: true,
	}
}

func (s *structNode) fieldTracer(key string) *Tracer {
	if idx, ok := s.index[key]; ok {
		return s.fields[idx].tracer
	}
	child := NewTracer(s.path+"."+key, s.opts, s.depth+1)
	if !s.firstSample {
		_ = child.TraceEvent(event.Null())
	}
	s.fields = append(s.fields, structFieldEntry{name: key, tracer: child, lastSeenInRun: -1})
	s.index[key] = len(s.fields) - 1
	return child
}

func (s *structNode) trace(t *Tracer, e event.Event) error {
	switch s.state {
	case structWaitForKey:
		if e.Kind == event.KindEndStruct {
			s.onEndStruct()
			return nil
		}
		if e.Kind != event.KindStr && e.Kind != event.KindOwnedStr {
			return errs.Tracing(t.path, "expected a struct field key, got %s", e.Kind)
		}
		key := e.Str
		s.fieldTracer(key)
		s.curIdx = s.index[key]
		s.fields[s.curIdx].lastSeenInRun = s.sampleNum
		s.state = structInValue
		s.valueDepth = 0
		s.awaitingVariantBody = false
		return nil

	case structInValue:
		ft := s.fields[s.curIdx].tracer
		if err := ft.TraceEvent(e); err != nil {
			return err
		}
		switch {
		case e.IsStart():
			s.valueDepth++
			s.awaitingVariantBody = false
		case e.IsEnd():
			s.valueDepth--
			if s.valueDepth == 0 {
				s.state = structWaitForKey
			}
		case e.Kind == event.KindVariant:
			if s.valueDepth == 0 {
				s.awaitingVariantBody = true
			}
		default:
			if s.valueDepth == 0 && !s.awaitingVariantBody {
				s.state = structWaitForKey
			}
			s.awaitingVariantBody = false
		}
		return nil
	}
	return errs.Tracing(t.path, "struct tracer in unexpected state for %s", e.Kind)
}

func (s *structNode) onEndStruct() {
	for i := range s.fields {
		if s.fields[i].lastSeenInRun != s.sampleNum {
			_ = s.fields[i].tracer.TraceEvent(event.Null())
		}
	}
	s.sampleNum++
	s.firstSample = false
}

func (s *structNode) finish() error {
	for i := range s.fields {
		if err := s.fields[i].tracer.Finish(); err != nil {
			return err
		}
	}
	return nil
}

func (s *structNode) toField(name string) (schema.Field, error) {
	children := make([]schema.Field, 0, len(s.fields))
	for _, f := range s.fields {
		cf, err := f.tracer.ToSchemaField(f.name)
		if err != nil {
			return schema.Field{}, err
		}
		children = append(children, cf)
	}
	return schema.Field{Name: name, DataType: schema.Struct, Strategy: s.strategy, Children: children}, nil
}

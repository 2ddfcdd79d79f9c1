// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tracer

import (
	"github.com/solidcoredata/arrowtrace/errs"
	"github.com/solidcoredata/arrowtrace/event"
	"github.com/solidcoredata/arrowtrace/schema"
)

// stripOuterSequenceSink wraps the root tracer: it requires the outermost
// event to be StartSequence/StartTuple, strips one level, and forwards
// inner events as rows into the root. Spec §4.1 "Sample stripping".
type stripOuterSequenceSink struct {
	root    *Tracer
	started bool
	depth   int
}

func (s *stripOuterSequenceSink) Accept(e event.Event) error {
	if !s.started {
		if e.Kind != event.KindStartSequence && e.Kind != event.KindStartTuple {
			return errs.Tracing("$", "FromSamples requires the outer value to be a sequence or tuple of rows, got %s", e.Kind)
		}
		s.started = true
		return nil
	}
	switch e.Kind {
	case event.KindEndSequence, event.KindEndTuple:
		if s.depth == 0 {
			return nil
		}
	case event.KindItem:
		if s.depth == 0 {
			return nil
		}
	}
	if e.IsStart() {
		s.depth++
	} else if e.IsEnd() {
		s.depth--
	}
	return s.root.TraceEvent(e)
}

// FromSamples traces a stream of rows wrapped in an outer
// StartSequence/StartTuple, per spec §6 trace_from_samples. The root
// tracer observes each row as a StartStruct...EndStruct (or equivalent)
// sub-stream; finish() is called once the stream is exhausted and
// to_schema() renders the unified Schema.
func FromSamples(src event.Source, opts Options) (schema.Schema, error) {
	root := NewTracer("$", &opts, 0)
	sink := &stripOuterSequenceSink{root: root}
	for {
		e, ok, err := src.Next()
		if err != nil {
			return schema.Schema{}, err
		}
		if !ok {
			break
		}
		if err := sink.Accept(e); err != nil {
			return schema.Schema{}, err
		}
	}
	if err := root.Finish(); err != nil {
		return schema.Schema{}, err
	}
	return finishRootToSchema(root)
}

// FromType traces a direct type description — a single StartStruct...
// EndStruct event sequence fed straight to the root tracer with no outer
// sequence wrapper — per spec §6 trace_from_type.
func FromType(src event.Source, opts Options) (schema.Schema, error) {
	root := NewTracer("$", &opts, 0)
	for {
		e, ok, err := src.Next()
		if err != nil {
			return schema.Schema{}, err
		}
		if !ok {
			break
		}
		if err := root.TraceEvent(e); err != nil {
			return schema.Schema{}, err
		}
	}
	if err := root.Finish(); err != nil {
		return schema.Schema{}, err
	}
	return finishRootToSchema(root)
}

// finishRootToSchema renders the root tracer's Field and lifts its
// children to top-level Schema fields, since the root itself is
// conceptually a struct wrapping the row (spec §3 "Schema").
func finishRootToSchema(root *Tracer) (schema.Schema, error) {
	f, err := root.ToSchemaField("$")
	if err != nil {
		return schema.Schema{}, err
	}
	if f.DataType != schema.Struct {
		return schema.Schema{}, errs.Tracing("$",
			"root value must trace to a struct-like row; wrap the argument in an Item/Items helper")
	}
	s := schema.Schema{Fields: f.Children}
	if err := s.Validate(); err != nil {
		return schema.Schema{}, err
	}
	return s, nil
}

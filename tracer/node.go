// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tracer

import (
	"github.com/solidcoredata/arrowtrace/errs"
	"github.com/solidcoredata/arrowtrace/event"
	"github.com/solidcoredata/arrowtrace/schema"
)

// node is the per-kind state machine interface every concrete tracer
// implements. Tracer (below) holds the current node and swaps it for a
// more specific one as the first value-bearing event promotes an Unknown
// node, per spec §4.1.
type node interface {
	trace(t *Tracer, e event.Event) error
	finish() error
	toField(name string) (schema.Field, error)
}

// Tracer is one path's state: a tagged sum over {Unknown, Primitive, List,
// Map, Struct, Tuple, Union}, each sharing path/options/nullable and
// owning its own sub-tracers inline by path (spec §3 "Tracer node").
type Tracer struct {
	path     string
	opts     *Options
	nullable bool
	depth    int

	cur node
}

// NewTracer creates a root or child tracer at path, starting Unknown.
func NewTracer(path string, opts *Options, depth int) *Tracer {
	t := &Tracer{path: path, opts: opts, depth: depth}
	t.cur = &unknownNode{}
	return t
}

func (t *Tracer) Path() string   { return t.path }
func (t *Tracer) Nullable() bool { return t.nullable }

// TraceEvent consumes one event, promoting or coercing the node as
// required. It is the tracer lattice's sole public write entry point.
func (t *Tracer) TraceEvent(e event.Event) error {
	if t.depth > MaxDepth {
		return errs.Tracing(t.path, "tracer depth exceeds maximum of %d; schema may be self-referential", MaxDepth)
	}
	switch e.Kind {
	case event.KindNull:
		t.nullable = true
		if _, ok := t.cur.(*unknownNode); ok {
			return nil
		}
		return t.cur.trace(t, e)
	case event.KindSome:
		t.nullable = true
		return nil
	}
	return t.cur.trace(t, e)
}

// Finish drains state back to WaitForStart (per spec §4.1 "Finish"); it
// must be called once the full sample set has been traced, before
// ToSchema.
func (t *Tracer) Finish() error {
	return t.cur.finish()
}

// ToSchemaField renders the tracer's inferred Field, applying any
// caller-supplied overwrite at this path and rejecting a tracer whose root
// remains Unknown (spec §4.1 "Finish" / overwrites).
func (t *Tracer) ToSchemaField(name string) (schema.Field, error) {
	if ov, ok := t.opts.Overwrites[t.path]; ok {
		if ov.Name != name {
			return schema.Field{}, errs.Tracing(t.path, "overwrite field name %q does not match traced name %q", ov.Name, name)
		}
		return ov, nil
	}
	if _, isUnknown := t.cur.(*unknownNode); isUnknown {
		if t.opts.AllowNullFields {
			return schema.Field{Name: name, DataType: schema.Null, Nullable: true}, nil
		}
		return schema.Field{}, errs.Tracing(t.path,
			"no non-null samples observed for this field; wrap the value in an Item/Items helper, or set AllowNullFields")
	}
	f, err := t.cur.toField(name)
	if err != nil {
		return schema.Field{}, err
	}
	f.Nullable = f.Nullable || t.nullable
	return f, nil
}

// promote replaces the current node kind, carrying nullable forward; it is
// the one place a tracer's tagged-variant kind actually changes, matching
// spec §4.1's "the first value-bearing event promotes it to the
// corresponding concrete tracer".
func (t *Tracer) promote(n node) { t.cur = n }

// unknownNode is the initial state: it accepts Null/Some without changing
// kind (handled in Tracer.TraceEvent above) and is promoted by the first
// value-bearing event.
type unknownNode struct{}

func (u *unknownNode) trace(t *Tracer, e event.Event) error {
	switch {
	case e.IsEnd():
		return errs.Tracing(t.path, "unexpected %s on an untyped field", e.Kind)
	case e.Kind == event.KindStartSequence:
		l := newListNode(t.path, t.opts, t.depth)
		t.promote(l)
		return nil
	case e.Kind == event.KindStartTuple:
		tp := newTupleNode(t.path, t.opts, t.depth)
		t.promote(tp)
		return nil
	case e.Kind == event.KindStartStruct:
		s := newStructNode(t.path, t.opts, t.depth, schema.StrategyNone)
		t.promote(s)
		return nil
	case e.Kind == event.KindStartMap:
		if t.opts.MapAsStruct {
			s := newStructNode(t.path, t.opts, t.depth, schema.MapAsStruct)
			t.promote(s)
			return nil
		}
		m := newMapNode(t.path, t.opts, t.depth)
		t.promote(m)
		return nil
	case e.Kind == event.KindVariant:
		un := newUnionNode(t.path, t.opts, t.depth)
		t.promote(un)
		return un.trace(t, e)
	case e.IsValue():
		p := newPrimitiveNode()
		t.promote(p)
		return p.trace(t, e)
	}
	return errs.Tracing(t.path, "unexpected %s on an untyped field", e.Kind)
}

func (u *unknownNode) finish() error { return nil }

func (u *unknownNode) toField(name string) (schema.Field, error) {
	return schema.Field{}, errs.Tracing(name, "field was never observed with a concrete type")
}

// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tracer

import (
	"github.com/solidcoredata/arrowtrace/errs"
	"github.com/solidcoredata/arrowtrace/event"
	"github.com/solidcoredata/arrowtrace/schema"
)

type unionVariant struct {
	name   string
	tracer *Tracer
}

// unionNode holds variants[index] = {name, tracer}. Variant(name, i)
// ensures the slot and enters InVariant(i, 0); nested events are routed to
// that slot. Nullable unions are rejected; unseen slots become null
// variants with UnknownVariant strategy at schema emission (spec §4.1
// "Union").
type unionNode struct {
	path     string
	opts     *Options
	depth    int
	variants []*unionVariant

	inVariant  bool
	curIdx     int
	valueDepth int
	awaiting   bool
}

func newUnionNode(path string, opts *Options, depth int) *unionNode {
	return &unionNode{path: path, opts: opts, depth: depth}
}

func (u *unionNode) ensureSlot(name string, index int) *unionVariant {
	for len(u.variants) <= index {
		u.variants = append(u.variants, nil)
	}
	if u.variants[index] == nil {
		u.variants[index] = &unionVariant{
			name:   name,
			tracer: NewTracer(indexPath(u.path, index), u.opts, u.depth+1),
		}
	}
	return u.variants[index]
}

func (u *unionNode) trace(t *Tracer, e event.Event) error {
	if t.nullable {
		return errs.Tracing(t.path, "union fields cannot be nullable")
	}
	if !u.inVariant {
		if e.Kind != event.KindVariant {
			return errs.Tracing(t.path, "expected Variant on a union field, got %s", e.Kind)
		}
		slot := u.ensureSlot(e.Str, e.VariantIndex)
		u.curIdx = e.VariantIndex
		_ = slot
		u.inVariant = true
		u.valueDepth = 0
		u.awaiting = false
		return nil
	}

	ft := u.variants[u.curIdx].tracer
	if err := ft.TraceEvent(e); err != nil {
		return err
	}
	switch {
	case e.IsStart():
		u.valueDepth++
		u.awaiting = false
	case e.IsEnd():
		u.valueDepth--
		if u.valueDepth == 0 {
			u.inVariant = false
		}
	case e.Kind == event.KindVariant:
		if u.valueDepth == 0 {
			u.awaiting = true
		}
	default:
		if u.valueDepth == 0 && !u.awaiting {
			u.inVariant = false
		}
		u.awaiting = false
	}
	return nil
}

func (u *unionNode) finish() error {
	for _, v := range u.variants {
		if v == nil {
			continue
		}
		if err := v.tracer.Finish(); err != nil {
			return err
		}
	}
	return nil
}

// allVariantsDataless reports whether every observed variant carries a
// null (data-less) payload, the trigger for the EnumsWithoutDataAsStrings
// strategy (spec §6, SPEC_FULL.md supplemented feature).
func (u *unionNode) allVariantsDataless() bool {
	for _, v := range u.variants {
		if v == nil {
			continue
		}
		f, err := v.tracer.ToSchemaField(v.name)
		if err != nil || f.DataType != schema.Null {
			return false
		}
	}
	return true
}

func (u *unionNode) toField(name string) (schema.Field, error) {
	if u.opts.EnumsWithoutDataAsStrings && u.allVariantsDataless() {
		return schema.Field{
			Name:     name,
			DataType: schema.Dictionary,
			Children: []schema.Field{
				{Name: "keys", DataType: schema.UInt32},
				{Name: "values", DataType: schema.LargeUtf8},
			},
		}, nil
	}

	children := make([]schema.Field, len(u.variants))
	for i, v := range u.variants {
		if v == nil {
			children[i] = schema.Field{Name: itoa(i), DataType: schema.Null, Strategy: schema.UnknownVariant}
			continue
		}
		cf, err := v.tracer.ToSchemaField(v.name)
		if err != nil {
			return schema.Field{}, err
		}
		children[i] = cf
	}
	return schema.Field{Name: name, DataType: schema.Union, Children: children}, nil
}

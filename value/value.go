// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package value implements a self-describing Value variant that mediates
// generic value→schema round-trips: samples can be built as Values (rather
// than driven live off a reflected type), traced the same way an event
// stream would be, and replayed as events. It also supplies hashable float
// wrappers, since schema-trace sample dictionaries sometimes key on
// floating point observations.
package value

import (
	"math"
	"sort"

	"github.com/solidcoredata/arrowtrace/event"
)

// Kind mirrors event.Kind's scalar/composite split but collapses the
// Start/End/Item bracketing into a single owned tree node.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindI64
	KindU64
	KindF64
	KindStr
	KindSequence
	KindTuple
	KindStruct
	KindMap
	KindVariant
)

// Float is a hashable wrapper around float64: NaN compares equal to itself
// and +0/-0 are distinguished, unlike Go's native float64 equality, so
// Values can be used as map keys and compared for the round-trip property
// in spec §8.1.
type Float struct {
	Bits uint64
}

func NewFloat(f float64) Float { return Float{Bits: math.Float64bits(f)} }
func (f Float) Float64() float64 { return math.Float64frombits(f.Bits) }

// Value is a self-describing, owned tree node.
type Value struct {
	Kind Kind

	Bool bool
	I64  int64
	U64  uint64
	F64  Float
	Str  string

	// Sequence/Tuple children, in order.
	Items []Value

	// Struct fields, in insertion order (order matters for struct
	// tracing's last_seen_in_sample bookkeeping). Map entries are kept in
	// Pairs below instead of here.
	Fields []Field

	// Map entries when Kind == KindMap, in order, each holding its key and
	// value as full Values.
	Pairs []Pair

	VariantName  string
	VariantIndex int
	VariantValue *Value
}

type Field struct {
	Name  string
	Value Value
}

type Pair struct {
	Key   Value
	Value Value
}

func Null() Value           { return Value{Kind: KindNull} }
func Bool(b bool) Value     { return Value{Kind: KindBool, Bool: b} }
func I64(v int64) Value     { return Value{Kind: KindI64, I64: v} }
func U64(v uint64) Value    { return Value{Kind: KindU64, U64: v} }
func F64(v float64) Value   { return Value{Kind: KindF64, F64: NewFloat(v)} }
func Str(v string) Value    { return Value{Kind: KindStr, Str: v} }
func Sequence(items ...Value) Value { return Value{Kind: KindSequence, Items: items} }
func Tuple(items ...Value) Value    { return Value{Kind: KindTuple, Items: items} }

func Struct(fields ...Field) Value { return Value{Kind: KindStruct, Fields: fields} }
func Map(pairs ...Pair) Value      { return Value{Kind: KindMap, Pairs: pairs} }

func Variant(name string, index int, v Value) Value {
	return Value{Kind: KindVariant, VariantName: name, VariantIndex: index, VariantValue: &v}
}

// SortedFieldNames returns the field names of a KindStruct value, sorted;
// used by tests that need a deterministic view of a struct's keys.
func (v Value) SortedFieldNames() []string {
	names := make([]string, len(v.Fields))
	for i, f := range v.Fields {
		names[i] = f.Name
	}
	sort.Strings(names)
	return names
}

// Emit replays v as an Event stream into sink, in the StartX/Item/EndX
// discipline spec §3 requires. Top-level scalars are emitted bare (no
// wrapping Start/End), matching how a single traced field round-trips.
func (v Value) Emit(sink event.Sink) error {
	return emit(v, sink)
}

func emit(v Value, sink event.Sink) error {
	switch v.Kind {
	case KindNull:
		return sink.Accept(event.Null())
	case KindBool:
		return sink.Accept(event.Bool(v.Bool))
	case KindI64:
		return sink.Accept(event.I64(v.I64))
	case KindU64:
		return sink.Accept(event.U64(v.U64))
	case KindF64:
		return sink.Accept(event.F64(v.F64.Float64()))
	case KindStr:
		return sink.Accept(event.Str(v.Str))
	case KindSequence:
		if err := sink.Accept(event.StartSequence()); err != nil {
			return err
		}
		for _, it := range v.Items {
			if err := sink.Accept(event.Item()); err != nil {
				return err
			}
			if err := emit(it, sink); err != nil {
				return err
			}
		}
		return sink.Accept(event.EndSequence())
	case KindTuple:
		if err := sink.Accept(event.StartTuple()); err != nil {
			return err
		}
		for _, it := range v.Items {
			if err := sink.Accept(event.Item()); err != nil {
				return err
			}
			if err := emit(it, sink); err != nil {
				return err
			}
		}
		return sink.Accept(event.EndTuple())
	case KindStruct:
		if err := sink.Accept(event.StartStruct()); err != nil {
			return err
		}
		for _, f := range v.Fields {
			if err := sink.Accept(event.Str(f.Name)); err != nil {
				return err
			}
			if err := emit(f.Value, sink); err != nil {
				return err
			}
		}
		return sink.Accept(event.EndStruct())
	case KindMap:
		if err := sink.Accept(event.StartMap()); err != nil {
			return err
		}
		for _, p := range v.Pairs {
			if err := emit(p.Key, sink); err != nil {
				return err
			}
			if err := emit(p.Value, sink); err != nil {
				return err
			}
		}
		return sink.Accept(event.EndMap())
	case KindVariant:
		if err := sink.Accept(event.Variant(v.VariantName, v.VariantIndex)); err != nil {
			return err
		}
		if v.VariantValue != nil {
			return emit(*v.VariantValue, sink)
		}
		return nil
	}
	return nil
}

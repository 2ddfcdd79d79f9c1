// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package event defines the tagged row-event variant that drives schema
// tracing, serialization, and deserialization. It is the wire contract
// between a row-oriented value-visitor protocol and the rest of this
// module; it does not itself produce or consume events.
package event

// Kind tags an Event's variant.
type Kind int

const (
	KindInvalid Kind = iota

	KindStartSequence
	KindEndSequence
	KindStartTuple
	KindEndTuple
	KindStartStruct
	KindEndStruct
	KindStartMap
	KindEndMap

	KindItem
	KindSome
	KindNull
	KindDefault

	KindBool

	KindI8
	KindI16
	KindI32
	KindI64

	KindU8
	KindU16
	KindU32
	KindU64

	KindF32
	KindF64

	KindStr
	KindOwnedStr

	KindVariant
)

func (k Kind) String() string {
	if int(k) < 0 || int(k) >= len(kindNames) {
		return "Unknown"
	}
	return kindNames[k]
}

var kindNames = [...]string{
	KindInvalid:       "Invalid",
	KindStartSequence: "StartSequence",
	KindEndSequence:   "EndSequence",
	KindStartTuple:    "StartTuple",
	KindEndTuple:      "EndTuple",
	KindStartStruct:   "StartStruct",
	KindEndStruct:     "EndStruct",
	KindStartMap:      "StartMap",
	KindEndMap:        "EndMap",
	KindItem:          "Item",
	KindSome:          "Some",
	KindNull:          "Null",
	KindDefault:       "Default",
	KindBool:          "Bool",
	KindI8:            "I8",
	KindI16:           "I16",
	KindI32:           "I32",
	KindI64:           "I64",
	KindU8:            "U8",
	KindU16:           "U16",
	KindU32:           "U32",
	KindU64:           "U64",
	KindF32:           "F32",
	KindF64:           "F64",
	KindStr:           "Str",
	KindOwnedStr:      "OwnedStr",
	KindVariant:       "Variant",
}

// Event is a tagged variant describing one step of the row-shaped protocol
// stream. Only the fields relevant to Kind are populated; the rest hold
// their zero value.
type Event struct {
	Kind Kind

	Bool bool

	I64 int64
	U64 uint64
	F64 float64

	// Str holds the payload for KindStr, KindOwnedStr, and the name half of
	// KindVariant. It is always treated as borrowed for the duration of a
	// single dispatch; callers that need to retain it across calls must
	// copy it themselves (mirrors KindStr vs KindOwnedStr in the source
	// protocol, where only the latter guarantees the string outlives the
	// call).
	Str string

	// VariantIndex holds the index half of KindVariant.
	VariantIndex int
}

// IsStart reports whether the event opens a composite (sequence, tuple,
// struct, or map).
func (e Event) IsStart() bool {
	switch e.Kind {
	case KindStartSequence, KindStartTuple, KindStartStruct, KindStartMap:
		return true
	}
	return false
}

// IsEnd reports whether the event closes a composite opened by IsStart.
func (e Event) IsEnd() bool {
	switch e.Kind {
	case KindEndSequence, KindEndTuple, KindEndStruct, KindEndMap:
		return true
	}
	return false
}

// IsMarker reports whether the event is a structural marker (Some or Item)
// rather than a value or a start/end bracket.
func (e Event) IsMarker() bool {
	return e.Kind == KindSome || e.Kind == KindItem
}

// IsValue reports whether the event carries a scalar, string, or variant
// payload.
func (e Event) IsValue() bool {
	switch e.Kind {
	case KindBool,
		KindI8, KindI16, KindI32, KindI64,
		KindU8, KindU16, KindU32, KindU64,
		KindF32, KindF64,
		KindStr, KindOwnedStr,
		KindVariant:
		return true
	}
	return false
}

// Matching returns the Kind that closes a Start kind, or KindInvalid if e
// is not a start event.
func (e Event) Matching() Kind {
	switch e.Kind {
	case KindStartSequence:
		return KindEndSequence
	case KindStartTuple:
		return KindEndTuple
	case KindStartStruct:
		return KindEndStruct
	case KindStartMap:
		return KindEndMap
	}
	return KindInvalid
}

// Constructors. These mirror the source protocol's event-builder helpers
// used by tracers and interpreters alike.

func StartSequence() Event { return Event{Kind: KindStartSequence} }
func EndSequence() Event   { return Event{Kind: KindEndSequence} }
func StartTuple() Event    { return Event{Kind: KindStartTuple} }
func EndTuple() Event      { return Event{Kind: KindEndTuple} }
func StartStruct() Event   { return Event{Kind: KindStartStruct} }
func EndStruct() Event     { return Event{Kind: KindEndStruct} }
func StartMap() Event      { return Event{Kind: KindStartMap} }
func EndMap() Event        { return Event{Kind: KindEndMap} }
func Item() Event          { return Event{Kind: KindItem} }
func Some() Event          { return Event{Kind: KindSome} }
func Null() Event          { return Event{Kind: KindNull} }
func Default() Event       { return Event{Kind: KindDefault} }

func Bool(v bool) Event { return Event{Kind: KindBool, Bool: v} }

func I8(v int8) Event   { return Event{Kind: KindI8, I64: int64(v)} }
func I16(v int16) Event { return Event{Kind: KindI16, I64: int64(v)} }
func I32(v int32) Event { return Event{Kind: KindI32, I64: int64(v)} }
func I64(v int64) Event { return Event{Kind: KindI64, I64: v} }

func U8(v uint8) Event   { return Event{Kind: KindU8, U64: uint64(v)} }
func U16(v uint16) Event { return Event{Kind: KindU16, U64: uint64(v)} }
func U32(v uint32) Event { return Event{Kind: KindU32, U64: uint64(v)} }
func U64(v uint64) Event { return Event{Kind: KindU64, U64: v} }

func F32(v float32) Event { return Event{Kind: KindF32, F64: float64(v)} }
func F64(v float64) Event { return Event{Kind: KindF64, F64: v} }

func Str(v string) Event      { return Event{Kind: KindStr, Str: v} }
func OwnedStr(v string) Event { return Event{Kind: KindOwnedStr, Str: v} }

func Variant(name string, index int) Event {
	return Event{Kind: KindVariant, Str: name, VariantIndex: index}
}

// Sink consumes a stream of Events, in the StartX ... (Item value)* EndX
// discipline described by spec §3. It is the boundary the core's
// interpreter and tracer write against; concrete producers (row decoders,
// reflection walkers) live outside the core.
type Sink interface {
	Accept(e Event) error
}

// Source produces a stream of Events until it is exhausted, at which point
// Next returns (Event{}, false, nil).
type Source interface {
	Next() (Event, bool, error)
}

// SinkFunc adapts a plain function to a Sink.
type SinkFunc func(e Event) error

func (f SinkFunc) Accept(e Event) error { return f(e) }

// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package schema

// Strategy is a per-field metadata tag guiding conversion between a
// Field's logical data type and its physical representation. It
// generalizes the teacher's column Tags (ts/def.go's TagHidden) from a
// free-form tag set to a closed, structurally-checked enumeration.
type Strategy int

const (
	// StrategyNone marks the absence of a strategy; it is never emitted in
	// the textual schema format.
	StrategyNone Strategy = iota
	InconsistentTypes
	UtcStrAsDate64
	NaiveStrAsDate64
	TupleAsStruct
	MapAsStruct
	UnknownVariant
)

func (s Strategy) String() string {
	switch s {
	case StrategyNone:
		return ""
	case InconsistentTypes:
		return "InconsistentTypes"
	case UtcStrAsDate64:
		return "UtcStrAsDate64"
	case NaiveStrAsDate64:
		return "NaiveStrAsDate64"
	case TupleAsStruct:
		return "TupleAsStruct"
	case MapAsStruct:
		return "MapAsStruct"
	case UnknownVariant:
		return "UnknownVariant"
	}
	return "Unknown"
}

var strategyAliases = map[string]Strategy{
	"InconsistentTypes": InconsistentTypes,
	"UtcStrAsDate64":    UtcStrAsDate64,
	"NaiveStrAsDate64":  NaiveStrAsDate64,
	"TupleAsStruct":     TupleAsStruct,
	"MapAsStruct":       MapAsStruct,
	"UnknownVariant":    UnknownVariant,
}

func ParseStrategy(s string) (Strategy, bool) {
	if s == "" {
		return StrategyNone, true
	}
	st, ok := strategyAliases[s]
	return st, ok
}

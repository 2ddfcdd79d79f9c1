// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tracer

import (
	"github.com/solidcoredata/arrowtrace/chrono"
	"github.com/solidcoredata/arrowtrace/errs"
	"github.com/solidcoredata/arrowtrace/event"
	"github.com/solidcoredata/arrowtrace/schema"
)

// primitiveNode maintains (item_type, strategy, nullable); nullable lives
// on the owning Tracer. Coercion rules are applied on every new
// observation (spec §4.1 "Primitive").
type primitiveNode struct {
	itemType schema.DataType
	strategy schema.Strategy
}

func newPrimitiveNode() *primitiveNode { return &primitiveNode{itemType: schema.Null} }

func eventDataType(e event.Event) (schema.DataType, bool) {
	switch e.Kind {
	case event.KindBool:
		return schema.Bool, true
	case event.KindI8:
		return schema.Int8, true
	case event.KindI16:
		return schema.Int16, true
	case event.KindI32:
		return schema.Int32, true
	case event.KindI64:
		return schema.Int64, true
	case event.KindU8:
		return schema.UInt8, true
	case event.KindU16:
		return schema.UInt16, true
	case event.KindU32:
		return schema.UInt32, true
	case event.KindU64:
		return schema.UInt64, true
	case event.KindF32:
		return schema.Float32, true
	case event.KindF64:
		return schema.Float64, true
	case event.KindStr, event.KindOwnedStr:
		return schema.LargeUtf8, true
	}
	return 0, false
}

func (p *primitiveNode) trace(t *Tracer, e event.Event) error {
	dt, ok := eventDataType(e)
	if !ok {
		return errs.Tracing(t.path, "unexpected %s on a primitive field", e.Kind)
	}

	var newStrategy schema.Strategy
	if dt == schema.LargeUtf8 && (t.opts.TryParseDates || t.opts.GuessDates) {
		if _, err := chrono.ParseUTCDateTime(e.Str); err == nil {
			dt, newStrategy = schema.Date64, schema.UtcStrAsDate64
		} else if _, err := chrono.ParseNaiveDateTime(e.Str); err == nil {
			dt, newStrategy = schema.Date64, schema.NaiveStrAsDate64
		}
	}

	if p.itemType == schema.Null {
		p.itemType, p.strategy = dt, newStrategy
		return nil
	}
	coerced, coercedStrategy, err := coerce(t, p.itemType, p.strategy, dt, newStrategy)
	if err != nil {
		return err
	}
	p.itemType, p.strategy = coerced, coercedStrategy
	return nil
}

// coerce implements spec §4.1's coercion table.
func coerce(t *Tracer, a schema.DataType, aStrat schema.Strategy, b schema.DataType, bStrat schema.Strategy) (schema.DataType, schema.Strategy, error) {
	if a == b && aStrat == bStrat {
		return a, aStrat, nil
	}
	if a == schema.Date64 && b == schema.Date64 {
		// Conflicting Date64 strategies (Naive vs Utc) coerce to LargeUtf8.
		return schema.LargeUtf8, schema.StrategyNone, nil
	}
	if (a == schema.Date64 && b == schema.LargeUtf8) || (a == schema.LargeUtf8 && b == schema.Date64) {
		return schema.LargeUtf8, schema.StrategyNone, nil
	}
	if t.opts.CoerceNumbers && a.IsNumeric() && b.IsNumeric() {
		return coerceNumeric(a, b), schema.StrategyNone, nil
	}
	// Numeric vs Date64 is not in the coercion table and is always
	// rejected, even with coerce_numbers enabled (spec §9 "Ambiguity —
	// numeric coercion with Date64").
	return 0, 0, errs.Tracing(t.path, "incompatible types %s and %s observed for the same field", a, b)
}

func coerceNumeric(a, b schema.DataType) schema.DataType {
	if a.IsFloat() || b.IsFloat() {
		return schema.Float64
	}
	if a.IsUnsignedInteger() && b.IsUnsignedInteger() {
		return schema.UInt64
	}
	if a.IsSignedInteger() && b.IsSignedInteger() {
		return schema.Int64
	}
	// signed ∪ unsigned → i64
	return schema.Int64
}

func (p *primitiveNode) finish() error { return nil }

func (p *primitiveNode) toField(name string) (schema.Field, error) {
	return schema.Field{Name: name, DataType: p.itemType, Strategy: p.strategy}, nil
}

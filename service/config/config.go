// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config is the arrowtrace CLI's benchmark/dump harness: it loads a
// sample file, traces or compiles it, and optionally drives the compiled
// program over an interpreter, logging lifecycle events the way the teacher
// logged its own table-serialization run. It is a harness, not a library
// surface: spec §1 excludes the CLI/benchmark harness itself from the core's
// contract.
package config

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"os"
	"sort"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/solidcoredata/arrowtrace/arrowadapt"
	"github.com/solidcoredata/arrowtrace/buffer"
	"github.com/solidcoredata/arrowtrace/compile"
	"github.com/solidcoredata/arrowtrace/event"
	"github.com/solidcoredata/arrowtrace/internal/runtimeopt"
	"github.com/solidcoredata/arrowtrace/internal/schemahash"
	"github.com/solidcoredata/arrowtrace/interp"
	"github.com/solidcoredata/arrowtrace/schema"
	"github.com/solidcoredata/arrowtrace/tracer"
	"github.com/solidcoredata/arrowtrace/ts"
	"github.com/solidcoredata/arrowtrace/value"
)

var (
	samplesPath = flag.String("samples", "", "path to a JSON array of sample rows")
	schemaPath  = flag.String("schema", "", "path to a schema JSON file; traced from -samples if empty")
	mode        = flag.String("mode", "serialize", "trace | compile | serialize")
	debug       = flag.Bool("debug", false, "enable debug-level logging")
	archivePath = flag.String("archive", "", "optional path to also archive rows through the legacy row-oriented table format")
)

// Run is the harness entry point, handed to start.RunAll by cmd/arrowtrace.
func Run(ctx context.Context) error {
	if *debug {
		runtimeopt.SetLevel(zerolog.DebugLevel)
	}
	zerolog.SetGlobalLevel(runtimeopt.Level())

	if len(*samplesPath) == 0 && len(*schemaPath) == 0 {
		return errors.New("config: one of -samples or -schema is required")
	}

	s, rows, err := loadSchemaAndRows()
	if err != nil {
		return errors.Wrap(err, "config: load")
	}
	log.Debug().Str("event", "trace").Int("fields", len(s.Fields)).Msg("schema ready")

	if len(*archivePath) > 0 {
		if err := runArchive(*archivePath, s, rows); err != nil {
			return errors.Wrap(err, "config: archive")
		}
	}

	switch *mode {
	case "trace":
		out, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return errors.Wrap(err, "config: marshal schema")
		}
		os.Stdout.Write(out)
		os.Stdout.Write([]byte("\n"))
		return nil
	case "compile":
		return runCompile(s)
	case "serialize":
		return runSerialize(s, rows)
	}
	return errors.Errorf("config: unknown -mode %q", *mode)
}

func loadSchemaAndRows() (schema.Schema, []value.Value, error) {
	var rows []value.Value
	if len(*samplesPath) > 0 {
		raw, err := os.ReadFile(*samplesPath)
		if err != nil {
			return schema.Schema{}, nil, errors.Wrap(err, "read samples")
		}
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var generic []interface{}
		if err := dec.Decode(&generic); err != nil {
			return schema.Schema{}, nil, errors.Wrap(err, "decode samples")
		}
		rows = make([]value.Value, len(generic))
		for i, g := range generic {
			rows[i] = jsonToValue(g)
		}
	}

	if len(*schemaPath) > 0 {
		raw, err := os.ReadFile(*schemaPath)
		if err != nil {
			return schema.Schema{}, nil, errors.Wrap(err, "read schema")
		}
		s, err := schema.ParseJSON(raw)
		if err != nil {
			return schema.Schema{}, nil, errors.Wrap(err, "parse schema")
		}
		return s, rows, nil
	}

	s, err := tracer.FromSamples(rowsSource(rows), tracer.DefaultOptions())
	if err != nil {
		return schema.Schema{}, nil, errors.Wrap(err, "trace samples")
	}
	return s, rows, nil
}

func runCompile(s schema.Schema) error {
	res, err := compile.CompileSerialize(s, compile.Options{WrapWithStruct: true})
	if err != nil {
		return errors.Wrap(err, "config: compile")
	}
	h := schemahash.OfSchema(s)
	log.Debug().
		Str("event", "compile").
		Int("instructions", len(res.Program.Instructions)).
		Str("version", h.String()).
		Msg("compiled")
	return nil
}

func runSerialize(s schema.Schema, rows []value.Value) error {
	res, err := compile.CompileSerialize(s, compile.Options{WrapWithStruct: true})
	if err != nil {
		return errors.Wrap(err, "config: compile")
	}
	buffers := buffer.New(res.Counts)
	if err := interp.Serialize(res.Program, buffers, rowsSource(rows)); err != nil {
		return errors.Wrap(err, "config: serialize")
	}

	mem := memory.NewGoAllocator()
	for i, f := range s.Fields {
		arr, err := arrowadapt.WrapColumn(mem, f, res.Program.ArrayMapping[i], buffers, len(rows))
		if err != nil {
			return errors.Wrapf(err, "config: wrap column %q", f.Name)
		}
		log.Debug().Str("event", "serialize").Str("field", f.Name).Int64("len", int64(arr.Len())).Msg("column built")
		arr.Release()
	}
	return nil
}

// runArchive replays rows through a ts.Writer, archiving each top-level
// scalar field as a legacy row-oriented column alongside the columnar
// serialization path. Nested fields have no flat column equivalent and
// are dropped by ts.DefineFromSchema's Any fallback.
func runArchive(path string, s schema.Schema, rows []value.Value) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create")
	}
	defer f.Close()

	w := ts.NewWriter(f)
	tref := w.DefineFromSchema("traced_rows", s)
	for _, row := range rows {
		byName := make(map[string]value.Value, len(row.Fields))
		for _, fl := range row.Fields {
			byName[fl.Name] = fl.Value
		}
		values := make([]interface{}, len(s.Fields))
		for i, field := range s.Fields {
			values[i] = scalarOf(byName[field.Name])
		}
		w.Insert(tref, values...)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrap(err, "write")
	}
	if err := w.Close(); err != nil {
		return errors.Wrap(err, "close")
	}
	log.Debug().Str("event", "archive").Str("path", path).Int("rows", len(rows)).Msg("legacy archive written")
	return nil
}

// scalarOf extracts the Go native value ts's FieldCoders expect from a
// top-level scalar field, dropping composite values to nil (encoded as
// empty by the Any coder).
func scalarOf(v value.Value) interface{} {
	switch v.Kind {
	case value.KindBool:
		return v.Bool
	case value.KindI64:
		return v.I64
	case value.KindU64:
		return int64(v.U64)
	case value.KindF64:
		return int64(v.F64.Float64())
	case value.KindStr:
		return v.Str
	default:
		return nil
	}
}

func jsonToValue(g interface{}) value.Value {
	switch v := g.(type) {
	case nil:
		return value.Null()
	case bool:
		return value.Bool(v)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return value.I64(i)
		}
		f, _ := v.Float64()
		return value.F64(f)
	case string:
		return value.Str(v)
	case []interface{}:
		items := make([]value.Value, len(v))
		for i, it := range v {
			items[i] = jsonToValue(it)
		}
		return value.Sequence(items...)
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fields := make([]value.Field, len(keys))
		for i, k := range keys {
			fields[i] = value.Field{Name: k, Value: jsonToValue(v[k])}
		}
		return value.Struct(fields...)
	}
	return value.Null()
}

// rowsSource replays rows as a bare Item()-per-row stream wrapped in an
// outer StartSequence/EndSequence, matching what tracer.FromSamples's
// sample-stripping sink expects.
func rowsSource(rows []value.Value) *sliceSource {
	return recordEvents(func(rec event.Sink) {
		rec.Accept(event.StartSequence())
		for _, row := range rows {
			rec.Accept(event.Item())
			row.Emit(rec)
		}
		rec.Accept(event.EndSequence())
	})
}

func recordEvents(build func(event.Sink)) *sliceSource {
	var events []event.Event
	rec := event.SinkFunc(func(e event.Event) error {
		events = append(events, e)
		return nil
	})
	build(rec)
	return &sliceSource{events: events}
}

type sliceSource struct {
	events []event.Event
	pos    int
}

func (s *sliceSource) Next() (event.Event, bool, error) {
	if s.pos >= len(s.events) {
		return event.Event{}, false, nil
	}
	e := s.events[s.pos]
	s.pos++
	return e, true, nil
}

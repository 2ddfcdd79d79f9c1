// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compile

import (
	"github.com/solidcoredata/arrowtrace/buffer"
	"github.com/solidcoredata/arrowtrace/bytecode"
	"github.com/solidcoredata/arrowtrace/errs"
	"github.com/solidcoredata/arrowtrace/schema"
)

// mode selects which half of the mirror-image instruction set (Push* for
// serialize, Emit* for deserialize) a compiler run emits, per spec §4.3 /
// §4.4 / §4.5. Everything else — buffer allocation, definition tables, the
// array-mapping tree — is identical between the two, so a single compiler
// walk produces both.
type mode int

const (
	modeSerialize mode = iota
	modeDeserialize
)

// unset marks an instruction's Next/jump fields as unresolved until the
// jump-fix pass assigns pc+1 or a specific target.
const unset = -1

type compiler struct {
	mode mode
	opts Options

	instrs     []bytecode.Instr
	listDefs   []bytecode.ListDefinition
	structDefs []bytecode.StructDefinition
	mapDefs    []bytecode.MapDefinition
	unionDefs  []bytecode.UnionDefinition
	nullDefs   []bytecode.NullDefinition

	arrayMapping []bytecode.ArrayMapping
	counts       buffer.Counts
}

// emit appends in as the next instruction and returns its pc. Callers are
// responsible for setting in.Next themselves: unset for "falls through to
// pc+1, resolved by jumpFix", or an explicit pc for a known jump target
// (Redirect, a loop-back, a self-looping ProgramEnd).
func (c *compiler) emit(in bytecode.Instr) int {
	pc := len(c.instrs)
	c.instrs = append(c.instrs, in)
	return pc
}

func (c *compiler) pc() int { return len(c.instrs) }

// op picks the serialize-direction opcode or its deserialize mirror
// depending on which half of the instruction set this compiler run
// targets.
func (c *compiler) op(serializeOp, deserializeOp bytecode.Op) bytecode.Op {
	if c.mode == modeSerialize {
		return serializeOp
	}
	return deserializeOp
}

func (c *compiler) allocU0() int  { c.counts.U0++; return c.counts.U0 - 1 }
func (c *compiler) allocU1() int  { c.counts.U1++; return c.counts.U1 - 1 }
func (c *compiler) allocU8() int  { c.counts.U8++; return c.counts.U8 - 1 }
func (c *compiler) allocU16() int { c.counts.U16++; return c.counts.U16 - 1 }
func (c *compiler) allocU32() int { c.counts.U32++; return c.counts.U32 - 1 }
func (c *compiler) allocU64() int { c.counts.U64++; return c.counts.U64 - 1 }
func (c *compiler) allocBytes() int      { c.counts.Bytes++; return c.counts.Bytes - 1 }
func (c *compiler) allocOffsets32() int  { c.counts.Offsets32++; return c.counts.Offsets32 - 1 }
func (c *compiler) allocOffsets64() int  { c.counts.Offsets64++; return c.counts.Offsets64 - 1 }
func (c *compiler) allocSeen() int       { c.counts.Seen++; return c.counts.Seen - 1 }
func (c *compiler) allocDictionary() int { c.counts.Dictionaries++; return c.counts.Dictionaries - 1 }

// compile turns s into a Program for either serialization or
// deserialization, depending on m; CompileSerialize and CompileDeserialize
// below are the exported entry points.
func compile(s schema.Schema, opts Options, m mode) (Result, error) {
	if !opts.WrapWithStruct && len(s.Fields) != 1 {
		return Result{}, errs.Compilation("$", "CompilationOptions.WrapWithStruct=false requires exactly one field, got %d", len(s.Fields))
	}
	c := &compiler{mode: m, opts: opts}

	outerListIdx := len(c.listDefs)
	c.listDefs = append(c.listDefs, bytecode.ListDefinition{})

	itemOp := c.op(bytecode.OpOuterSequenceItem, bytecode.OpEmitOuterItem)
	endOp := c.op(bytecode.OpOuterSequenceEnd, bytecode.OpEmitOuterEndSequence)
	c.emit(bytecode.Instr{Op: bytecode.OpOuterSequenceStart, Next: unset})
	itemPC := c.emit(bytecode.Instr{Op: itemOp, ListIdx: outerListIdx, Next: unset})
	c.listDefs[outerListIdx].Item = itemPC

	var mappings []bytecode.ArrayMapping
	if opts.WrapWithStruct {
		am, err := c.compileStructBody("$", s.Fields, structModeNamed)
		if err != nil {
			return Result{}, err
		}
		mappings = am.Children
	} else {
		am, err := c.compileField(s.Fields[0], "$."+s.Fields[0].Name)
		if err != nil {
			return Result{}, err
		}
		mappings = []bytecode.ArrayMapping{am}
	}

	c.emit(bytecode.Instr{Op: bytecode.OpRedirect, Next: itemPC})

	endPC := c.emit(bytecode.Instr{Op: endOp, ListIdx: outerListIdx, Next: unset})
	c.listDefs[outerListIdx].Return = endPC
	programEnd := c.emit(bytecode.Instr{Op: bytecode.OpProgramEnd, Next: unset})
	c.instrs[programEnd].Next = programEnd

	c.jumpFix()

	prog := &bytecode.Program{
		Instructions: c.instrs,
		ListDefs:     c.listDefs,
		StructDefs:   c.structDefs,
		MapDefs:      c.mapDefs,
		UnionDefs:    c.unionDefs,
		NullDefs:     c.nullDefs,
		ArrayMapping: mappings,
		NumPositions: numPositions(c.counts),
	}
	if err := validate(prog, c.counts); err != nil {
		return Result{}, err
	}
	return Result{Program: prog, Counts: c.counts}, nil
}

// numPositions sizes the deserialize interpreter's position vector: one
// slot per offset/value/count buffer family member, since each is read
// through independently (spec §3 "Position").
func numPositions(counts buffer.Counts) int {
	return counts.U0 + counts.U1 + counts.U8 + counts.U16 + counts.U32 + counts.U64 +
		counts.Offsets32 + counts.Offsets64 + counts.Bytes
}

// CompileSerialize compiles s into a serialization Program, per spec §6
// compile_serialize.
func CompileSerialize(s schema.Schema, opts Options) (Result, error) {
	return compile(s, opts, modeSerialize)
}

// CompileDeserialize compiles s into a deserialization Program, per spec
// §6 compile_deserialize. The input_buffers argument named in spec §6 is
// not needed at compile time in this implementation: buffer shapes are
// fully determined by the schema, and actual buffer contents are supplied
// to the interpreter at run time.
func CompileDeserialize(s schema.Schema, opts Options) (Result, error) {
	return compile(s, opts, modeDeserialize)
}

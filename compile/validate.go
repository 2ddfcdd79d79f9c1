// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compile

import (
	"github.com/solidcoredata/arrowtrace/buffer"
	"github.com/solidcoredata/arrowtrace/bytecode"
	"github.com/solidcoredata/arrowtrace/errs"
)

// validate checks every pc reference in prog against the final instruction
// count and every buffer id against counts, so a malformed Program is
// rejected at compile time rather than panicking the interpreter (spec
// §4.3 "structural validation").
func validate(prog *bytecode.Program, counts buffer.Counts) error {
	n := len(prog.Instructions)
	checkPC := func(pc int) error {
		if pc < 0 || pc >= n {
			return errs.Validation(pc, "program counter out of range [0,%d)", n)
		}
		return nil
	}

	for pc, in := range prog.Instructions {
		if err := checkPC(in.Next); err != nil {
			return err
		}
		if in.Op == bytecode.OpOptionMarker {
			if err := checkPC(in.IfNone); err != nil {
				return err
			}
			if in.ValidityBuf < 0 || in.ValidityBuf >= counts.U1 {
				return errs.Validation(pc, "OptionMarker validity buffer %d out of range", in.ValidityBuf)
			}
			if in.NullDefinition < 0 || in.NullDefinition >= len(prog.NullDefs) {
				return errs.Validation(pc, "OptionMarker null definition %d out of range", in.NullDefinition)
			}
		}
		if in.Op.IsElided() {
			return errs.Validation(pc, "elided op %v survived jump-fix", in.Op)
		}
	}

	for i, ld := range prog.ListDefs {
		if err := checkPC(ld.Item); err != nil {
			return errs.Validation(ld.Item, "list def %d: %v", i, err)
		}
		if err := checkPC(ld.Return); err != nil {
			return errs.Validation(ld.Return, "list def %d: %v", i, err)
		}
	}
	for i, sd := range prog.StructDefs {
		if err := checkPC(sd.Return); err != nil {
			return errs.Validation(sd.Return, "struct def %d: %v", i, err)
		}
		if err := checkPC(sd.UnknownField); err != nil {
			return errs.Validation(sd.UnknownField, "struct def %d: %v", i, err)
		}
		for name, fd := range sd.Fields {
			if err := checkPC(fd.Jump); err != nil {
				return errs.Validation(fd.Jump, "struct def %d field %q: %v", i, name, err)
			}
			if fd.HasNullDef && (fd.NullDefinition < 0 || fd.NullDefinition >= len(prog.NullDefs)) {
				return errs.Compilation(name, "struct def %d field %q: null definition %d out of range", i, name, fd.NullDefinition)
			}
		}
		if sd.Seen < 0 || sd.Seen >= counts.Seen {
			return errs.Compilation("", "struct def %d: seen set %d out of range", i, sd.Seen)
		}
	}
	for i, md := range prog.MapDefs {
		if err := checkPC(md.Key); err != nil {
			return errs.Validation(md.Key, "map def %d: %v", i, err)
		}
		if err := checkPC(md.Return); err != nil {
			return errs.Validation(md.Return, "map def %d: %v", i, err)
		}
	}
	for i, ud := range prog.UnionDefs {
		if len(ud.Variants) == 0 {
			return errs.Compilation("", "union def %d: no variants", i)
		}
		for _, pc := range ud.Variants {
			if err := checkPC(pc); err != nil {
				return errs.Validation(pc, "union def %d: %v", i, err)
			}
		}
	}
	return nil
}

// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compile

import "github.com/solidcoredata/arrowtrace/bytecode"

// jumpFix resolves every unset Next to pc+1, strips OpRedirect/OpUnionEnd
// pseudo-instructions from the stream, and renumbers every pc reference
// (Next, IfNone, and the def tables' jump targets) to match the
// compacted instruction vector. Spec §4.3's jump-fix pass.
func (c *compiler) jumpFix() {
	old := c.instrs
	remap := make([]int, len(old))
	survivors := make([]int, 0, len(old))
	for pc, in := range old {
		if in.Op.IsElided() {
			remap[pc] = -1
			continue
		}
		remap[pc] = len(survivors)
		survivors = append(survivors, pc)
	}

	// resolve follows a chain of elided instructions (each already carrying
	// its final old-numbered target in Next) until it lands on a survivor,
	// then returns that survivor's new pc.
	var resolve func(oldPC int) int
	resolve = func(oldPC int) int {
		for i := 0; i < len(old) && old[oldPC].Op.IsElided(); i++ {
			oldPC = old[oldPC].Next
		}
		return remap[oldPC]
	}

	newInstrs := make([]bytecode.Instr, len(survivors))
	for newPC, oldPC := range survivors {
		in := old[oldPC]
		if in.Next == unset {
			in.Next = resolve(oldPC + 1)
		} else {
			in.Next = resolve(in.Next)
		}
		if in.Op == bytecode.OpOptionMarker || in.Op == bytecode.OpEmitOptionPrimitive {
			in.IfNone = resolve(in.IfNone)
		}
		newInstrs[newPC] = in
	}
	c.instrs = newInstrs

	for i := range c.listDefs {
		c.listDefs[i].Item = resolve(c.listDefs[i].Item)
		c.listDefs[i].Return = resolve(c.listDefs[i].Return)
	}
	for i := range c.structDefs {
		c.structDefs[i].Return = resolve(c.structDefs[i].Return)
		c.structDefs[i].UnknownField = resolve(c.structDefs[i].UnknownField)
		for name, fd := range c.structDefs[i].Fields {
			fd.Jump = resolve(fd.Jump)
			c.structDefs[i].Fields[name] = fd
		}
	}
	for i := range c.mapDefs {
		c.mapDefs[i].Key = resolve(c.mapDefs[i].Key)
		c.mapDefs[i].Return = resolve(c.mapDefs[i].Return)
	}
	for i := range c.unionDefs {
		for j, pc := range c.unionDefs[i].Variants {
			c.unionDefs[i].Variants[j] = resolve(pc)
		}
	}
}

package prepass

import (
	"github.com/sirupsen/logrus"

	"github.com/mu-vm/muc/internal/gcobj"
	"github.com/mu-vm/muc/internal/ir"
	"github.com/mu-vm/muc/internal/typeinfo"
)

// Runtime entrypoint symbols the slow allocation path calls into, mirroring
// the teacher's entrypoints::ALLOC_TINY_SLOW / ALLOC_NORMAL_SLOW (spec
// §4.1.3).
const (
	SymAllocTinySlow   = "muc_alloc_tiny_slow"
	SymAllocNormalSlow = "muc_alloc_normal_slow"
)

// injector carries the registry/type-cache plumbing expandAllocation needs
// without threading five parameters through every helper call.
type injector struct {
	fv   *ir.FuncVersion
	reg  *ir.Registry
	info *typeinfo.Cache

	ptrTy ir.TypeID // UPtr<Int(8)>
	u64Ty ir.TypeID
	b1Ty  ir.TypeID // Int(1), the ICMP result type
}

// InjectRuntime expands every NEW of an object sized at most MaxMediumObject
// into the inline Immix bump-pointer fast path guarded by a slow-path CCALL,
// leaving larger (large-object-space) allocations as plain NEW for the
// runtime to handle out of line (spec §4.1.3). NEWHYBRID is never expanded,
// whatever its length: every NEWHYBRID is left as it is.
func InjectRuntime(fv *ir.FuncVersion, reg *ir.Registry, info *typeinfo.Cache) error {
	log.WithField("func", fv.Name).Debug("injectruntime: enter")
	expanded := 0
	in := &injector{
		fv:   fv,
		reg:  reg,
		info: info,
		ptrTy: reg.InternType(ir.Type{Kind: ir.TypeKindUPtr,
			Elem: reg.InternType(ir.Type{Kind: ir.TypeKindInt, IntBits: 8})}),
		u64Ty: reg.InternType(ir.Type{Kind: ir.TypeKindInt, IntBits: 64}),
		b1Ty:  reg.InternType(ir.Type{Kind: ir.TypeKindInt, IntBits: 1}),
	}

	for _, bid := range fv.BlockIDs() {
		insts := fv.Block(bid).Insts
		cur := bid
		var rewritten []ir.InstID
		changed := false

		for _, instID := range insts {
			inst := fv.Inst(instID)
			size, align, ok := in.allocShape(inst)
			if !ok || size > gcobj.MaxMediumObject {
				rewritten = append(rewritten, instID)
				continue
			}
			changed = true
			expanded++
			result := inst.Defs[0]
			endBlock := in.expand(&rewritten, result, size, align)
			fv.Block(cur).Insts = rewritten
			rewritten = nil
			cur = endBlock
		}

		if changed {
			fv.Block(cur).Insts = rewritten
		}
	}
	err := fv.RebuildCFG()
	log.WithFields(logrus.Fields{"func": fv.Name, "allocations_expanded": expanded}).Debug("injectruntime: exit")
	return err
}

// allocShape reports the byte size and alignment of a NEW instruction's
// target type, or ok=false for any other instruction, NEWHYBRID included
// (constant length or not).
func (in *injector) allocShape(inst *ir.Instruction) (size, align uint64, ok bool) {
	if inst.Opcode != ir.OpNew {
		return 0, 0, false
	}
	ti := in.info.Get(inst.Type)
	return alignUp(ti.Size, 8), max1(ti.Alignment), true
}

// expand emits a bump-pointer header (appended to out), a fastpath block, a
// slowpath block, and a fresh "end" block, returning the end block's id so
// the caller can continue appending subsequent original-block instructions
// to it.
func (in *injector) expand(out *[]ir.InstID, result ir.ValueID, size, align uint64) ir.BlockID {
	fv := in.fv
	isTiny := size <= gcobj.MaxTinyObject

	tl := fv.NewValue(in.ptrTy, ir.InstIDInvalid)
	*out = append(*out, fv.NewInst(ir.Instruction{Opcode: ir.OpGetVMThreadLocal, Defs: []ir.ValueID{tl}}))

	var cursorOff, limitOff uint64
	if isTiny {
		cursorOff, limitOff = gcobj.OffsetTinyCursor, gcobj.OffsetTinyLimit
	} else {
		cursorOff, limitOff = gcobj.OffsetNormalCursor, gcobj.OffsetNormalLimit
	}

	cursorLoc := fv.NewValue(in.ptrTy, ir.InstIDInvalid)
	*out = append(*out, fv.NewInst(ir.Instruction{Opcode: ir.OpShiftIRef, Defs: []ir.ValueID{cursorLoc},
		Ops: []ir.Operand{ir.ValueOperand(tl), in.constU64(cursorOff)}}))

	cursor := fv.NewValue(in.u64Ty, ir.InstIDInvalid)
	*out = append(*out, fv.NewInst(ir.Instruction{Opcode: ir.OpLoad, Defs: []ir.ValueID{cursor},
		Ops: []ir.Operand{ir.ValueOperand(cursorLoc)}, MemOrder: ir.MemOrderNotAtomic, SideEffecting: true}))

	t1 := fv.NewValue(in.u64Ty, ir.InstIDInvalid)
	*out = append(*out, fv.NewInst(ir.Instruction{Opcode: ir.OpAdd, Defs: []ir.ValueID{t1},
		Ops: []ir.Operand{ir.ValueOperand(cursor), in.constU64(align - 1)}}))

	alignedStart := fv.NewValue(in.u64Ty, ir.InstIDInvalid)
	*out = append(*out, fv.NewInst(ir.Instruction{Opcode: ir.OpAnd, Defs: []ir.ValueID{alignedStart},
		Ops: []ir.Operand{ir.ValueOperand(t1), in.constU64(^(align - 1))}}))

	end := fv.NewValue(in.u64Ty, ir.InstIDInvalid)
	*out = append(*out, fv.NewInst(ir.Instruction{Opcode: ir.OpAdd, Defs: []ir.ValueID{end},
		Ops: []ir.Operand{ir.ValueOperand(alignedStart), in.constU64(size)}}))

	limitLoc := fv.NewValue(in.ptrTy, ir.InstIDInvalid)
	*out = append(*out, fv.NewInst(ir.Instruction{Opcode: ir.OpShiftIRef, Defs: []ir.ValueID{limitLoc},
		Ops: []ir.Operand{ir.ValueOperand(tl), in.constU64(limitOff)}}))

	limit := fv.NewValue(in.u64Ty, ir.InstIDInvalid)
	*out = append(*out, fv.NewInst(ir.Instruction{Opcode: ir.OpLoad, Defs: []ir.ValueID{limit},
		Ops: []ir.Operand{ir.ValueOperand(limitLoc)}, MemOrder: ir.MemOrderNotAtomic, SideEffecting: true}))

	exceed := fv.NewValue(in.b1Ty, ir.InstIDInvalid)
	*out = append(*out, fv.NewInst(ir.Instruction{Opcode: ir.OpICmp, Pred: ir.CmpUGT, Defs: []ir.ValueID{exceed},
		Ops: []ir.Operand{ir.ValueOperand(end), ir.ValueOperand(limit)}}))

	endBlock := fv.NewBlock("alloc_end")
	fastBlock := fv.NewBlock("alloc_fastpath")
	slowBlock := fv.NewBlock("alloc_slowpath")
	fv.Block(slowBlock).TraceHint = ir.TraceHintSlowPath

	*out = append(*out, fv.NewInst(ir.Instruction{Opcode: ir.OpBranch2,
		Ops:      []ir.Operand{ir.ValueOperand(exceed)},
		Dest:     ir.Destination{Target: slowBlock},
		HasDest2: true, Dest2: ir.Destination{Target: fastBlock}}))

	fv.AppendInst(fastBlock, fv.NewInst(ir.Instruction{Opcode: ir.OpStore,
		Ops: []ir.Operand{ir.ValueOperand(cursorLoc), ir.ValueOperand(end)}, MemOrder: ir.MemOrderNotAtomic, SideEffecting: true}))
	fv.AppendInst(fastBlock, fv.NewInst(ir.Instruction{Opcode: ir.OpMove,
		Defs: []ir.ValueID{result}, Ops: []ir.Operand{ir.ValueOperand(alignedStart)}}))
	fv.AppendInst(fastBlock, fv.NewInst(ir.Instruction{Opcode: ir.OpBranch1, Dest: ir.Destination{Target: endBlock}}))

	mutatorLoc := fv.NewValue(in.ptrTy, ir.InstIDInvalid)
	fv.AppendInst(slowBlock, fv.NewInst(ir.Instruction{Opcode: ir.OpShiftIRef, Defs: []ir.ValueID{mutatorLoc},
		Ops: []ir.Operand{ir.ValueOperand(tl), in.constU64(gcobj.OffsetMutator)}}))
	sym := SymAllocNormalSlow
	if isTiny {
		sym = SymAllocTinySlow
	}
	fv.AppendInst(slowBlock, fv.NewInst(ir.Instruction{Opcode: ir.OpCCall,
		Defs: []ir.ValueID{result}, CallSym: sym, SideEffecting: true,
		Ops: []ir.Operand{ir.ValueOperand(mutatorLoc), in.constU64(size), in.constU64(align)}}))
	fv.AppendInst(slowBlock, fv.NewInst(ir.Instruction{Opcode: ir.OpBranch1, Dest: ir.Destination{Target: endBlock}}))

	return endBlock
}

func (in *injector) constU64(v uint64) ir.Operand {
	return ir.ConstOperand(in.reg.InternConst(ir.IntConst(v)))
}

func alignUp(v, align uint64) uint64 {
	if align == 0 {
		return v
	}
	return (v + align - 1) &^ (align - 1)
}

func max1(v uint64) uint64 {
	if v == 0 {
		return 1
	}
	return v
}

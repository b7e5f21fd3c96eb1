package prepass

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mu-vm/muc/internal/ir"
	"github.com/mu-vm/muc/internal/typeinfo"
)

func newFunc(t *testing.T, r *ir.Registry, rets []ir.TypeID) *ir.FuncVersion {
	t.Helper()
	sig := r.InternFuncSig(ir.FuncSig{Rets: rets})
	return ir.NewFuncVersion(0, 0, "f", sig)
}

func TestRetSinkCollapsesMultipleReturns(t *testing.T) {
	r := ir.NewRegistry()
	i64 := r.InternType(ir.Type{Kind: ir.TypeKindInt, IntBits: 64})
	fv := newFunc(t, r, []ir.TypeID{i64})

	entry := fv.NewBlock("entry")
	b1 := fv.NewBlock("b1")
	b2 := fv.NewBlock("b2")

	v1 := fv.NewValue(i64, ir.InstIDInvalid)
	v2 := fv.NewValue(i64, ir.InstIDInvalid)
	fv.AppendInst(entry, fv.NewInst(ir.Instruction{Opcode: ir.OpBranch2,
		Dest: ir.Destination{Target: b1}, HasDest2: true, Dest2: ir.Destination{Target: b2}}))
	fv.AppendInst(b1, fv.NewInst(ir.Instruction{Opcode: ir.OpReturn, Ops: []ir.Operand{ir.ValueOperand(v1)}}))
	fv.AppendInst(b2, fv.NewInst(ir.Instruction{Opcode: ir.OpReturn, Ops: []ir.Operand{ir.ValueOperand(v2)}}))

	require.NoError(t, fv.RebuildCFG())
	require.NoError(t, RetSink(fv, r))

	var returns int
	for _, bid := range fv.BlockIDs() {
		b := fv.Block(bid)
		for _, instID := range b.Insts {
			if fv.Inst(instID).Opcode == ir.OpReturn {
				returns++
			}
		}
	}
	require.Equal(t, 1, returns)
}

func TestGenMovPhiLowersBlockArgs(t *testing.T) {
	r := ir.NewRegistry()
	i64 := r.InternType(ir.Type{Kind: ir.TypeKindInt, IntBits: 64})
	fv := newFunc(t, r, []ir.TypeID{i64})

	entry := fv.NewBlock("entry")
	merge := fv.NewBlock("merge")
	mergeArg := fv.AddParam(merge, i64)

	c := fv.NewValue(i64, ir.InstIDInvalid)
	fv.AppendInst(entry, fv.NewInst(ir.Instruction{Opcode: ir.OpAdd, Defs: []ir.ValueID{c},
		Ops: []ir.Operand{ir.ConstOperand(r.InternConst(ir.IntConst(1))), ir.ConstOperand(r.InternConst(ir.IntConst(2)))}}))
	fv.AppendInst(entry, fv.NewInst(ir.Instruction{Opcode: ir.OpBranch1,
		Dest: ir.Destination{Target: merge, Args: []ir.Operand{ir.ValueOperand(c)}}}))
	fv.AppendInst(merge, fv.NewInst(ir.Instruction{Opcode: ir.OpReturn, Ops: []ir.Operand{ir.ValueOperand(mergeArg)}}))

	require.NoError(t, fv.RebuildCFG())
	require.NoError(t, GenMovPhi(fv, r))

	// the entry block's terminator must now target an intermediate block with no args
	last := fv.Inst(fv.Block(entry).Insts[len(fv.Block(entry).Insts)-1])
	require.Equal(t, ir.OpBranch1, last.Opcode)
	require.Empty(t, last.Dest.Args)
	require.NotEqual(t, merge, last.Dest.Target)

	inter := fv.Block(last.Dest.Target)
	require.Len(t, inter.Insts, 2)
	require.Equal(t, ir.OpMove, fv.Inst(inter.Insts[0]).Opcode)
	require.Equal(t, ir.OpBranch1, fv.Inst(inter.Insts[1]).Opcode)
	require.Equal(t, merge, fv.Inst(inter.Insts[1]).Dest.Target)
}

func TestInjectRuntimeExpandsNewIntoFastSlowPath(t *testing.T) {
	r := ir.NewRegistry()
	i64 := r.InternType(ir.Type{Kind: ir.TypeKindInt, IntBits: 64})
	cache := typeinfo.NewCache(r)

	fv := newFunc(t, r, nil)
	entry := fv.NewBlock("entry")
	refTy := r.InternType(ir.Type{Kind: ir.TypeKindRef, Elem: i64})
	result := fv.NewValue(refTy, ir.InstIDInvalid)
	fv.AppendInst(entry, fv.NewInst(ir.Instruction{Opcode: ir.OpNew, Defs: []ir.ValueID{result}, Type: i64, SideEffecting: true}))
	fv.AppendInst(entry, fv.NewInst(ir.Instruction{Opcode: ir.OpReturn}))

	require.NoError(t, fv.RebuildCFG())
	require.NoError(t, InjectRuntime(fv, r, cache))

	var sawFastpath, sawSlowpath, sawCCall bool
	for _, bid := range fv.BlockIDs() {
		b := fv.Block(bid)
		for _, instID := range b.Insts {
			inst := fv.Inst(instID)
			switch inst.Opcode {
			case ir.OpBranch2:
				sawFastpath = true
			case ir.OpCCall:
				sawCCall = true
				require.Equal(t, SymAllocTinySlow, inst.CallSym)
			}
		}
		if b.TraceHint == ir.TraceHintSlowPath {
			sawSlowpath = true
		}
	}
	require.True(t, sawFastpath)
	require.True(t, sawSlowpath)
	require.True(t, sawCCall)

	// no OpNew should remain for this small allocation
	for _, bid := range fv.BlockIDs() {
		for _, instID := range fv.Block(bid).Insts {
			require.NotEqual(t, ir.OpNew, fv.Inst(instID).Opcode)
		}
	}
}

package amd64

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mu-vm/muc/internal/ir"
	"github.com/mu-vm/muc/internal/typeinfo"
)

func TestComputeArgumentsSpillsToStackPastSixGPRs(t *testing.T) {
	r := ir.NewRegistry()
	i64 := r.InternType(ir.Type{Kind: ir.TypeKindInt, IntBits: 64})

	var args []ir.TypeID
	for i := 0; i < 8; i++ {
		args = append(args, i64)
	}
	locs := ComputeArguments(args, r)
	require.Len(t, locs, 8)
	for i := 0; i < 6; i++ {
		require.Equal(t, ArgGPR, locs[i].Kind)
	}
	require.Equal(t, ArgStack, locs[6].Kind)
	require.Equal(t, ArgStack, locs[7].Kind)
}

func TestComputeArgumentsSeparatesGPRAndFPRCounters(t *testing.T) {
	r := ir.NewRegistry()
	i64 := r.InternType(ir.Type{Kind: ir.TypeKindInt, IntBits: 64})
	f64 := r.InternType(ir.Type{Kind: ir.TypeKindDouble})

	locs := ComputeArguments([]ir.TypeID{i64, f64, i64, f64}, r)
	require.Equal(t, ArgGPR, locs[0].Kind)
	require.Equal(t, ArgFPR, locs[1].Kind)
	require.Equal(t, ArgGPR, locs[2].Kind)
	require.Equal(t, ArgFPR, locs[3].Kind)
	require.Equal(t, GPR(ArgumentGPRs[0]), locs[0].Reg)
	require.Equal(t, GPR(ArgumentGPRs[1]), locs[2].Reg)
}

func TestComputeReturnValuesUsesReturnRegisterOrder(t *testing.T) {
	r := ir.NewRegistry()
	i64 := r.InternType(ir.Type{Kind: ir.TypeKindInt, IntBits: 64})

	locs := ComputeReturnValues([]ir.TypeID{i64, i64}, r)
	require.Equal(t, GPR(RAX), locs[0].Reg)
	require.Equal(t, GPR(RDX), locs[1].Reg)
}

func TestComputeStackArgsPadsToSixteenBytes(t *testing.T) {
	r := ir.NewRegistry()
	i64 := r.InternType(ir.Type{Kind: ir.TypeKindInt, IntBits: 64})
	cache := typeinfo.NewCache(r)

	size, offsets := ComputeStackArgs([]ir.TypeID{i64}, cache)
	require.Equal(t, uint64(16), size)
	require.Equal(t, []uint64{0}, offsets)
}

func TestSelectLowersArithmeticAndBranch(t *testing.T) {
	r := ir.NewRegistry()
	i64 := r.InternType(ir.Type{Kind: ir.TypeKindInt, IntBits: 64})
	sig := r.InternFuncSig(ir.FuncSig{Rets: []ir.TypeID{i64}, Args: []ir.TypeID{i64}})
	fv := ir.NewFuncVersion(0, 0, "f", sig)

	entry := fv.NewBlock("entry")
	a := fv.NewValue(i64, ir.InstIDInvalid)
	b := fv.NewValue(i64, ir.InstIDInvalid)
	sum := fv.NewValue(i64, ir.InstIDInvalid)
	fv.AppendInst(entry, fv.NewInst(ir.Instruction{Opcode: ir.OpAdd, Defs: []ir.ValueID{sum},
		Ops: []ir.Operand{ir.ValueOperand(a), ir.ValueOperand(b)}, Type: i64}))
	fv.AppendInst(entry, fv.NewInst(ir.Instruction{Opcode: ir.OpReturn, Ops: []ir.Operand{ir.ValueOperand(sum)}}))
	require.NoError(t, fv.RebuildCFG())

	mf := Select(fv, r)
	require.Len(t, mf.Blocks, 1)
	mnems := make([]string, len(mf.Blocks[0].Instrs))
	for i, inst := range mf.Blocks[0].Instrs {
		mnems[i] = inst.Mnemonic
	}
	require.Contains(t, mnems, "ADD")
	require.Contains(t, mnems, "RET")
}

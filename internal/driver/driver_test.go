package driver

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mu-vm/muc/internal/ir"
	"github.com/mu-vm/muc/internal/persist"
	"github.com/mu-vm/muc/internal/typeinfo"
)

func buildAddFunction() (*ir.FuncVersion, *ir.Registry, *typeinfo.Cache) {
	r := ir.NewRegistry()
	i64 := r.InternType(ir.Type{Kind: ir.TypeKindInt, IntBits: 64})
	sig := r.InternFuncSig(ir.FuncSig{Rets: []ir.TypeID{i64}, Args: []ir.TypeID{i64, i64}})
	fv := ir.NewFuncVersion(0, 0, "add", sig)

	entry := fv.NewBlock("entry")
	a := fv.NewValue(i64, ir.InstIDInvalid)
	b := fv.NewValue(i64, ir.InstIDInvalid)
	sum := fv.NewValue(i64, ir.InstIDInvalid)
	fv.AppendInst(entry, fv.NewInst(ir.Instruction{
		Opcode: ir.OpAdd, Defs: []ir.ValueID{sum},
		Ops: []ir.Operand{ir.ValueOperand(a), ir.ValueOperand(b)}, Type: i64,
	}))
	fv.AppendInst(entry, fv.NewInst(ir.Instruction{Opcode: ir.OpReturn, Ops: []ir.Operand{ir.ValueOperand(sum)}}))

	return fv, r, typeinfo.NewCache(r)
}

func TestCompileProducesFunctionAndFrame(t *testing.T) {
	fv, r, info := buildAddFunction()

	result, err := Compile(fv, r, info, TargetAMD64)
	require.NoError(t, err)
	require.NotNil(t, result.Function)
	require.NotEmpty(t, result.Function.Blocks)
	require.NotNil(t, result.Frame)

	var found bool
	for _, b := range result.Function.Blocks {
		for _, in := range b.Instrs {
			if in.Mnemonic == "ADD" {
				found = true
			}
		}
	}
	require.True(t, found, "expected an ADD instruction to survive selection and regalloc")
}

func TestCompileRejectsUnselectedTarget(t *testing.T) {
	fv, r, info := buildAddFunction()
	_, err := Compile(fv, r, info, TargetARM64)
	require.Error(t, err)
}

func TestToContextRoundTripsThroughPersist(t *testing.T) {
	fv, r, info := buildAddFunction()
	result, err := Compile(fv, r, info, TargetAMD64)
	require.NoError(t, err)

	ctx := ToContext("add", []byte{0x90, 0x90}, result)

	var buf bytes.Buffer
	require.NoError(t, persist.Write(&buf, ctx))
	got, err := persist.Read(&buf)
	require.NoError(t, err)
	require.Equal(t, ctx.Symbol, got.Symbol)
	require.Equal(t, ctx.FrameSize, got.FrameSize)
}

func TestPeepholeDropsSameRegisterMove(t *testing.T) {
	fv, r, info := buildAddFunction()
	result, err := Compile(fv, r, info, TargetAMD64)
	require.NoError(t, err)

	for _, b := range result.Function.Blocks {
		for _, in := range b.Instrs {
			if in.IsMove {
				require.False(t, sameReal(in.MoveSrc, in.MoveDst), "peephole should have removed same-register moves")
			}
		}
	}
}

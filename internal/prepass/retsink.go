// Package prepass implements the mandatory IR-to-IR rewrites that run before
// instruction selection (spec §4.1): collapsing every RET into a single
// exit block, lowering block-argument edges into explicit moves, and
// expanding NEW into the inline bump-pointer allocation sequence (NEWHYBRID
// is left unexpanded).
package prepass

import (
	"github.com/sirupsen/logrus"

	"github.com/mu-vm/muc/internal/ir"
)

var log = logrus.New()

// EpilogueBlockName names the single-exit block RetSink builds, mirroring
// the teacher's convention of a fixed per-function epilogue label.
const EpilogueBlockName = "epilogue"

// RetSink rewrites every RET in fv into a BRANCH to a single synthetic exit
// block, so later passes (frame layout, callee-save restore, epilogue
// emission) have exactly one return site to instrument (spec §4.1 "single
// exit point").
func RetSink(fv *ir.FuncVersion, reg *ir.Registry) error {
	log.WithField("func", fv.Name).Debug("retsink: enter")
	sig := reg.FuncSig(fv.Sig)

	sink := fv.NewBlock(fv.Name + ":" + EpilogueBlockName)
	fv.Block(sink).TraceHint = ir.TraceHintReturnSink

	sinkArgs := make([]ir.ValueID, len(sig.Rets))
	for i, t := range sig.Rets {
		sinkArgs[i] = fv.AddParam(sink, t)
	}
	retOps := make([]ir.Operand, len(sinkArgs))
	for i, v := range sinkArgs {
		retOps[i] = ir.ValueOperand(v)
	}
	fv.AppendInst(sink, fv.NewInst(ir.Instruction{
		Opcode:        ir.OpReturn,
		Ops:           retOps,
		SideEffecting: true,
	}))

	rewritten := 0
	for _, bid := range fv.BlockIDs() {
		if bid == sink {
			continue
		}
		b := fv.Block(bid)
		for i, instID := range b.Insts {
			inst := fv.Inst(instID)
			if inst.Opcode != ir.OpReturn {
				continue
			}
			branchArgs := make([]ir.Operand, len(inst.Ops))
			copy(branchArgs, inst.Ops)
			b.Insts[i] = fv.NewInst(ir.Instruction{
				Opcode: ir.OpBranch1,
				Dest:   ir.Destination{Target: sink, Args: branchArgs},
			})
			rewritten++
		}
	}

	err := fv.RebuildCFG()
	log.WithFields(logrus.Fields{"func": fv.Name, "rets_sunk": rewritten}).Debug("retsink: exit")
	return err
}

package prepass

import (
	"github.com/sirupsen/logrus"

	"github.com/mu-vm/muc/internal/ir"
)

// GenMovPhi lowers every block-argument edge into an explicit intermediate
// block of MOVE instructions followed by an argument-less branch, so that
// instruction selection and register allocation never need to reason about
// parallel copies implied by a destination's argument list (spec §4.1
// "Gen-Mov-Phi"). Destinations with no arguments are left untouched.
func GenMovPhi(fv *ir.FuncVersion, reg *ir.Registry) error {
	log.WithField("func", fv.Name).Debug("genmovphi: enter")
	movBlocksBefore := fv.Blocks()
	for _, bid := range fv.BlockIDs() {
		b := fv.Block(bid)
		if len(b.Insts) == 0 {
			continue
		}
		termID := b.Insts[len(b.Insts)-1]
		// Work on a copy: lowerDest allocates instructions, which can move
		// the arena a pointer from fv.Inst would point into.
		term := *fv.Inst(termID)

		switch term.Opcode {
		case ir.OpBranch1:
			term.Dest = lowerDest(fv, term.Dest)
		case ir.OpBranch2:
			term.Dest = lowerDest(fv, term.Dest)
			if term.HasDest2 {
				term.Dest2 = lowerDest(fv, term.Dest2)
			}
		case ir.OpCall:
			term.Dest = lowerDest(fv, term.Dest)
			if term.HasDest2 {
				term.Dest2 = lowerDest(fv, term.Dest2)
			}
		case ir.OpSwitch:
			term.Dest = lowerDest(fv, term.Dest)
			for i, d := range term.SwitchDests {
				term.SwitchDests[i] = lowerDest(fv, d)
			}
		}
		*fv.Inst(termID) = term
	}
	err := fv.RebuildCFG()
	log.WithFields(logrus.Fields{
		"func": fv.Name, "mov_blocks_inserted": fv.Blocks() - movBlocksBefore,
	}).Debug("genmovphi: exit")
	return err
}

// lowerDest returns a Destination with no Args, inserting (if dest carries
// arguments) a fresh intermediate block that moves each argument into the
// target's formal parameters before branching onward.
func lowerDest(fv *ir.FuncVersion, dest ir.Destination) ir.Destination {
	if len(dest.Args) == 0 {
		return dest
	}

	target := fv.Block(dest.Target)
	params := target.ParamVals

	inter := fv.NewBlock("mov_phi")
	for i, arg := range dest.Args {
		if i >= len(params) {
			break
		}
		fv.AppendInst(inter, fv.NewInst(ir.Instruction{
			Opcode: ir.OpMove,
			Defs:   []ir.ValueID{params[i]},
			Ops:    []ir.Operand{arg},
		}))
	}
	fv.AppendInst(inter, fv.NewInst(ir.Instruction{
		Opcode: ir.OpBranch1,
		Dest:   ir.Destination{Target: dest.Target, HasExnArg: dest.HasExnArg, ExnArg: dest.ExnArg},
	}))

	return ir.Destination{Target: inter}
}

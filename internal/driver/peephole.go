package driver

import "github.com/mu-vm/muc/internal/machine"

// Peephole removes moves that register allocation left as a no-op: once
// coalescing and color assignment run, a MOVE whose source and
// destination landed on the same real register carries no effect and
// only costs an instruction slot. This is the "Peephole" stage of the
// compile pipeline (between RegAlloc and Encode, mirroring the teacher's
// backend.Machine.PostRegAlloc step).
func Peephole(fn *machine.Function) {
	for _, b := range fn.Blocks {
		kept := b.Instrs[:0]
		for _, in := range b.Instrs {
			if in.IsMove && sameReal(in.MoveSrc, in.MoveDst) {
				continue
			}
			kept = append(kept, in)
		}
		b.Instrs = kept
	}
}

func sameReal(a, b machine.VReg) bool {
	return a.IsReal && b.IsReal && a.Bank == b.Bank && a.RealReg == b.RealReg
}

package regalloc

import "github.com/mu-vm/muc/internal/machine"

// computeCallLiveRefs records, for every call instruction, which GC-traced
// virtual registers in bank are live into it (spec §4.4's per-callsite
// root set), using the same liveness live already computed for interference
// graph construction rather than re-running the dataflow.
func computeCallLiveRefs(fn *machine.Function, bank machine.Bank, live *machine.Liveness) map[*machine.Instr][]machine.VReg {
	out := make(map[*machine.Instr][]machine.VReg)
	for _, b := range fn.Blocks {
		for _, inst := range b.Instrs {
			if !inst.IsCall {
				continue
			}
			var refs []machine.VReg
			for _, v := range live.LiveIn[inst].Members() {
				if v.Bank == bank && v.IsRef {
					refs = append(refs, v)
				}
			}
			if len(refs) > 0 {
				out[inst] = refs
			}
		}
	}
	return out
}

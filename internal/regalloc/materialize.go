package regalloc

import "github.com/mu-vm/muc/internal/machine"

// materializeSpills rewrites every use/def of a register this bank's
// allocation could not color into a reload/spill-store pair through a
// reserved scratch real register (spec §4.6.4): a MOV.reload loads the
// slot into a scratch occurrence immediately before a use, a MOV.spill
// stores the scratch back to the slot immediately after a def. SpillOf
// records which spilled VReg each pseudo-instruction serves so the
// frame/emit stage resolves it to a concrete stack offset once the Frame
// is built (package driver's assignFrame).
//
// Spec §4.6.4 re-enters instruction selection with fresh virtual scratch
// temps and runs a second allocation round so those temps themselves get
// colored. This allocator instead draws scratch registers directly from
// scratch, a small pool the target's register file reserves and never
// hands to the allocator (amd64.ScratchGPRs/ScratchFPRs) — no second
// round is needed because the scratch registers are already real. A
// single instruction reusing the same spilled source more than once only
// reloads it once; an instruction needing more live spilled operands at
// once than len(scratch) provides would alias two of them onto the same
// scratch register, which none of this backend's current instruction
// shapes (binary ops, compares, moves, loads/stores, address computation)
// do with more than two operands per bank.
func materializeSpills(fn *machine.Function, bank machine.Bank, result *Result, scratch []uint8) {
	if len(scratch) == 0 || result.Spilled.Len() == 0 {
		return
	}
	next := 0
	fresh := func() machine.VReg {
		r := machine.RReg(bank, scratch[next%len(scratch)])
		next++
		return r
	}
	isSpilled := func(v machine.VReg) bool {
		return v.Bank == bank && !v.IsReal && result.Spilled.Contains(v)
	}

	for _, b := range fn.Blocks {
		var out []*machine.Instr
		for _, inst := range b.Instrs {
			reloaded := make(map[uint64]machine.VReg)
			reloadFor := func(v machine.VReg) machine.VReg {
				if sc, ok := reloaded[machine.Key(v)]; ok {
					return sc
				}
				sc := fresh()
				out = append(out, &machine.Instr{
					Mnemonic: "MOV.reload", Defs: []machine.VReg{sc},
					IsReload: true, SpillOf: v,
				})
				reloaded[machine.Key(v)] = sc
				return sc
			}

			for i, u := range inst.Uses {
				if isSpilled(u) {
					inst.Uses[i] = reloadFor(u)
				}
			}
			if inst.IsMove && isSpilled(inst.MoveSrc) {
				inst.MoveSrc = reloadFor(inst.MoveSrc)
			}

			var stores []*machine.Instr
			for i, d := range inst.Defs {
				if !isSpilled(d) {
					continue
				}
				orig := d
				sc := fresh()
				inst.Defs[i] = sc
				if inst.IsMove && machine.Key(inst.MoveDst) == machine.Key(orig) {
					inst.MoveDst = sc
				}
				stores = append(stores, &machine.Instr{
					Mnemonic: "MOV.spill", Uses: []machine.VReg{sc},
					IsSpillStore: true, SpillOf: orig,
				})
			}

			out = append(out, inst)
			out = append(out, stores...)
		}
		b.Instrs = out
	}
}

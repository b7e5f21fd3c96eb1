package regalloc

import (
	"github.com/sirupsen/logrus"

	"github.com/mu-vm/muc/internal/machine"
)

// Bank runs AnalyzeLiveness, BuildInterferenceGraph and Allocate for one
// register bank of a Function, then rewrites every instruction's Defs/Uses
// in place with the resulting real registers or spill-slot pseudo
// registers (spec §4.6): this is the single entry point the driver's
// RegAlloc compile stage calls, once per bank, mirroring wazero's
// regalloc.Allocator.DoAllocation orchestrating its own graph build +
// solve + rewrite in one call (backend/regalloc/regalloc.go).
func Bank(fn *machine.Function, bank machine.Bank, cfg Config) *Result {
	log.WithFields(logrus.Fields{"func": fn.Name, "bank": bank}).Debug("regalloc: bank enter")
	live := machine.AnalyzeLiveness(fn)
	graph := bankGraph(BuildInterferenceGraph(fn, live), bank)
	costs := ComputeSpillCosts(fn)
	result := Allocate(cfg, graph, costs)
	result.CallLiveRefs = computeCallLiveRefs(fn, bank, live)
	applyResult(fn, bank, result)
	materializeSpills(fn, bank, result, cfg.ScratchRegs)
	log.WithFields(logrus.Fields{
		"func": fn.Name, "bank": bank, "spilled": result.Spilled.Len(),
	}).Debug("regalloc: bank exit")
	return result
}

// bankGraph filters an interference graph down to one bank's nodes; GPR
// and FPR virtual registers never interfere with each other so they are
// colored independently against independent register files.
func bankGraph(full *InterferenceGraph, bank machine.Bank) *InterferenceGraph {
	g := NewInterferenceGraph()
	for _, n := range full.Nodes.Members() {
		if n.Bank != bank {
			continue
		}
		g.AddNode(n)
		for _, e := range full.Edges[machine.Key(n)].Members() {
			if e.Bank == bank {
				g.AddEdge(n, e)
			}
		}
		for _, p := range full.Preferences[machine.Key(n)].Members() {
			if p.Bank == bank {
				g.AddPreference(n, p)
			}
		}
		if full.LiveAcrossCalls.Contains(n) {
			g.LiveAcrossCalls.Add(n)
		}
	}
	return g
}

// applyResult rewrites every instruction's virtual registers in one bank
// to their assigned real register, leaving spilled registers untouched for
// materializeSpills to rewrite into reload/store pairs next.
func applyResult(fn *machine.Function, bank machine.Bank, result *Result) {
	rewrite := func(v machine.VReg) machine.VReg {
		if v.Bank != bank || v.IsReal {
			return v
		}
		k := machine.Key(v)
		if color, ok := result.Color[k]; ok {
			return machine.RReg(bank, uint8(color))
		}
		return v // spilled; package frame resolves SpillSlot separately
	}
	for _, b := range fn.Blocks {
		for _, inst := range b.Instrs {
			for i, d := range inst.Defs {
				inst.Defs[i] = rewrite(d)
			}
			for i, u := range inst.Uses {
				inst.Uses[i] = rewrite(u)
			}
			if inst.IsMove {
				inst.MoveDst = rewrite(inst.MoveDst)
				inst.MoveSrc = rewrite(inst.MoveSrc)
			}
		}
	}
}

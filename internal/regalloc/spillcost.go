package regalloc

import "github.com/mu-vm/muc/internal/machine"

// SpillCosts maps a node's RegSet identity (machine.Key) to its estimated
// spill cost: the number of def/use occurrences weighted by 10^depth at
// each occurrence's block, where depth is the block's loop-nest depth
// (spec §4.6.2, "Loop information feeds the spill-cost heuristic", §4.5.5).
// A value referenced once outside any loop costs 1; once inside a single
// loop costs 10; a use nested two loops deep costs 100, matching spec
// §4.6.3 step 5's literal 10^depth scaling.
type SpillCosts map[uint64]float64

// ComputeSpillCosts walks every instruction of fn, weighting each def/use
// occurrence by its block's loop depth.
func ComputeSpillCosts(fn *machine.Function) SpillCosts {
	depths := fn.LoopDepths()
	costs := make(SpillCosts)
	for _, b := range fn.Blocks {
		weight := pow10(depths[b.ID])
		for _, inst := range b.Instrs {
			for _, d := range inst.Defs {
				costs[machine.Key(d)] += weight
			}
			for _, u := range inst.Uses {
				costs[machine.Key(u)] += weight
			}
		}
	}
	return costs
}

func pow10(n int) float64 {
	v := 1.0
	for i := 0; i < n; i++ {
		v *= 10
	}
	return v
}

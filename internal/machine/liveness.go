package machine

// Liveness holds, per instruction, the registers it uses/defines and, per
// block, the live-in/live-out sets, following the Def/Use/LiveIn/LiveOut
// shape InterferenceGraph construction expects (grounded on
// raymyers-ralph-cc-go's pkg/regalloc interference graph builder, which
// consumes exactly these four maps keyed by instruction).
type Liveness struct {
	Use, Def         map[*Instr]RegSet
	LiveIn, LiveOut  map[*Instr]RegSet
	BlockIn, BlockOut map[int]RegSet
}

// AnalyzeLiveness runs the standard backward liveness dataflow to a fixed
// point: LiveOut[i] = union of LiveIn of i's successors; LiveIn[i] =
// Use[i] ∪ (LiveOut[i] \ Def[i]). Block-level in/out sets are iterated
// first (cheaper, one set per block) and only then pushed down to
// per-instruction granularity within each block, since intra-block
// liveness is a simple backward scan once the block boundary sets are
// known.
func AnalyzeLiveness(fn *Function) *Liveness {
	l := &Liveness{
		Use: make(map[*Instr]RegSet), Def: make(map[*Instr]RegSet),
		LiveIn: make(map[*Instr]RegSet), LiveOut: make(map[*Instr]RegSet),
		BlockIn: make(map[int]RegSet), BlockOut: make(map[int]RegSet),
	}

	blockUse := make(map[int]RegSet, len(fn.Blocks))
	blockDef := make(map[int]RegSet, len(fn.Blocks))
	for _, b := range fn.Blocks {
		use, def := NewRegSet(), NewRegSet()
		for _, inst := range b.Instrs {
			l.Use[inst] = NewRegSet()
			l.Def[inst] = NewRegSet()
			for _, u := range inst.Uses {
				l.Use[inst].Add(u)
				if !def.Contains(u) {
					use.Add(u)
				}
			}
			for _, d := range inst.Defs {
				l.Def[inst].Add(d)
				def.Add(d)
			}
		}
		blockUse[b.ID] = use
		blockDef[b.ID] = def
		l.BlockIn[b.ID] = NewRegSet()
		l.BlockOut[b.ID] = NewRegSet()
	}

	po := fn.PostOrder()
	for changed := true; changed; {
		changed = false
		for _, b := range po {
			out := NewRegSet()
			for _, s := range b.Succs {
				out = out.Union(l.BlockIn[s.ID])
			}
			in := blockUse[b.ID].Union(out.Minus(blockDef[b.ID]))

			if !out.Equal(l.BlockOut[b.ID]) || !in.Equal(l.BlockIn[b.ID]) {
				l.BlockOut[b.ID] = out
				l.BlockIn[b.ID] = in
				changed = true
			}
		}
	}

	for _, b := range fn.Blocks {
		live := l.BlockOut[b.ID]
		for i := len(b.Instrs) - 1; i >= 0; i-- {
			inst := b.Instrs[i]
			l.LiveOut[inst] = live
			live = l.Use[inst].Union(live.Minus(l.Def[inst]))
			l.LiveIn[inst] = live
		}
	}

	return l
}

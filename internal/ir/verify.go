package ir

// VerifySSADominance checks the spec §3.2/§8 SSA invariant: every use of an
// SSAValue occurs in a block dominated by the value's defining block. Block
// parameters are defined by the block itself, so any use within that block
// or a dominated block is valid.
//
// This computes its own dominator sets with the same iterative data-flow
// algorithm as package mcanalysis (spec §4.5.1), rather than sharing state
// with it, because this check runs on the IR before instruction selection
// ever produces machine code for mcanalysis to analyse.
func (fv *FuncVersion) VerifySSADominance() error {
	if fv.Entry == BlockIDInvalid {
		return &CompileError{Kind: ErrKindIRViolation, FuncID: fv.FuncID, Detail: "function has no entry block"}
	}
	if err := fv.RebuildCFG(); err != nil {
		return err
	}
	doms := fv.computeDominatorSets()

	defBlock := make([]BlockID, len(fv.values))
	for i := range defBlock {
		defBlock[i] = BlockIDInvalid
	}
	for _, bid := range fv.blockOrder {
		b := fv.blocks[bid]
		for _, p := range b.ParamVals {
			defBlock[p] = bid
		}
		for _, iid := range b.Insts {
			for _, d := range fv.insts[iid].Defs {
				defBlock[d] = bid
			}
		}
	}

	for _, bid := range fv.blockOrder {
		b := fv.blocks[bid]
		check := func(op Operand) error {
			if op.IsConst {
				return nil
			}
			db := defBlock[op.Value]
			if db == BlockIDInvalid {
				return &CompileError{Kind: ErrKindIRViolation, FuncID: fv.FuncID,
					Detail: "use of value with no reaching definition"}
			}
			if !dominatedBy(doms, bid, db) {
				return &CompileError{Kind: ErrKindIRViolation, FuncID: fv.FuncID,
					Detail: "use not dominated by definition"}
			}
			return nil
		}
		for _, iid := range b.Insts {
			inst := fv.insts[iid]
			for _, op := range inst.Ops {
				if err := check(op); err != nil {
					return err
				}
			}
			for _, d := range destinationsOf(inst) {
				for _, a := range d.Args {
					if err := check(a); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

// computeDominatorSets solves D[entry]={entry}, D[n]={n} ∪ (⋂ D[p] for p in
// preds(n)) to a fixpoint (spec §4.5.1, applied here at the IR level).
func (fv *FuncVersion) computeDominatorSets() []map[BlockID]bool {
	n := len(fv.blocks)
	doms := make([]map[BlockID]bool, n)
	all := make(map[BlockID]bool, n)
	for _, bid := range fv.blockOrder {
		all[bid] = true
	}
	for i := range doms {
		doms[i] = map[BlockID]bool{}
	}
	doms[fv.Entry] = map[BlockID]bool{fv.Entry: true}
	for _, bid := range fv.blockOrder {
		if bid == fv.Entry {
			continue
		}
		for k := range all {
			doms[bid][k] = true
		}
	}

	changed := true
	for changed {
		changed = false
		for _, bid := range fv.blockOrder {
			if bid == fv.Entry {
				continue
			}
			preds := fv.blocks[bid].Preds
			if len(preds) == 0 {
				continue
			}
			inter := map[BlockID]bool{}
			for k := range doms[preds[0]] {
				inter[k] = true
			}
			for _, p := range preds[1:] {
				for k := range inter {
					if !doms[p][k] {
						delete(inter, k)
					}
				}
			}
			inter[bid] = true
			if !sameSet(inter, doms[bid]) {
				doms[bid] = inter
				changed = true
			}
		}
	}
	return doms
}

func sameSet(a, b map[BlockID]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

func dominatedBy(doms []map[BlockID]bool, n, d BlockID) bool {
	return doms[n][d]
}

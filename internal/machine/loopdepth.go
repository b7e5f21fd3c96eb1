package machine

import "github.com/mu-vm/muc/internal/mcanalysis"

// blockCFG adapts a Function's block graph to mcanalysis.CFG so the
// dominator/natural-loop analysis (spec §4.5) can run directly over
// selected machine code, without mcanalysis ever needing to know this
// package's concrete Block type.
type blockCFG struct {
	fn      *Function
	entryID mcanalysis.NodeID
}

func newBlockCFG(fn *Function) blockCFG {
	c := blockCFG{fn: fn}
	for _, b := range fn.Blocks {
		if b.IsEntry {
			c.entryID = mcanalysis.NodeID(b.ID)
			break
		}
	}
	return c
}

func (c blockCFG) Entry() mcanalysis.NodeID { return c.entryID }

func (c blockCFG) Nodes() []mcanalysis.NodeID {
	out := make([]mcanalysis.NodeID, len(c.fn.Blocks))
	for i, b := range c.fn.Blocks {
		out[i] = mcanalysis.NodeID(b.ID)
	}
	return out
}

func (c blockCFG) byID(id mcanalysis.NodeID) *Block {
	for _, b := range c.fn.Blocks {
		if mcanalysis.NodeID(b.ID) == id {
			return b
		}
	}
	return nil
}

func (c blockCFG) Preds(n mcanalysis.NodeID) []mcanalysis.NodeID {
	b := c.byID(n)
	if b == nil {
		return nil
	}
	out := make([]mcanalysis.NodeID, len(b.Preds))
	for i, p := range b.Preds {
		out[i] = mcanalysis.NodeID(p.ID)
	}
	return out
}

func (c blockCFG) Succs(n mcanalysis.NodeID) []mcanalysis.NodeID {
	b := c.byID(n)
	if b == nil {
		return nil
	}
	out := make([]mcanalysis.NodeID, len(b.Succs))
	for i, s := range b.Succs {
		out[i] = mcanalysis.NodeID(s.ID)
	}
	return out
}

// LoopDepths computes each block's loop-nest depth (spec §4.5.5, "Loop
// information feeds the spill-cost heuristic"), keyed by Block.ID. Blocks
// outside any loop get depth 0.
func (f *Function) LoopDepths() map[int]int {
	cfg := newBlockCFG(f)
	dom := mcanalysis.Dominators(cfg)
	loops := mcanalysis.NaturalLoops(cfg, dom)
	merged := mcanalysis.MergedLoops(loops)
	tree := mcanalysis.ComputeLoopNestTree(merged)
	depths := mcanalysis.LoopDepth(cfg, tree)

	out := make(map[int]int, len(depths))
	for nid, d := range depths {
		out[int(nid)] = d
	}
	return out
}

// BackEdges returns every (source, header) Block.ID pair closing a loop
// (spec §4.5), the set instruction selection emits a yieldpoint at the end
// of (spec §4.4, "a safepoint at every loop back-edge").
func (f *Function) BackEdges() [][2]int {
	cfg := newBlockCFG(f)
	dom := mcanalysis.Dominators(cfg)
	edges := mcanalysis.BackEdges(cfg, dom)
	out := make([][2]int, len(edges))
	for i, e := range edges {
		out[i] = [2]int{int(e[0]), int(e[1])}
	}
	return out
}

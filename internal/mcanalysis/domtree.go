// Package mcanalysis computes dominance and natural-loop structure over a
// machine-code control-flow graph (spec §4.5): the iterative dominator
// dataflow, immediate dominators, a dominator tree, natural loops (merged by
// shared header), a loop-nest tree and per-node loop depth. It is
// deliberately decoupled from package machine's concrete block
// representation via the CFG interface, so the same algorithms serve both
// the machine-code pass pipeline and unit tests built on synthetic graphs.
package mcanalysis

// NodeID identifies one CFG node (a machine-code basic block) for the
// purposes of this package.
type NodeID uint32

// CFG is the minimal view mcanalysis needs of a control-flow graph: its
// node set, one entry node, and predecessor/successor edges.
type CFG interface {
	Entry() NodeID
	Nodes() []NodeID
	Preds(NodeID) []NodeID
	Succs(NodeID) []NodeID
}

// nodeSet is a small bitset-backed set of NodeIDs, sized to the CFG's node
// count, used for the dominator dataflow's per-node dominator sets.
type nodeSet struct {
	bits []bool
}

func newNodeSet(n int, full bool) *nodeSet {
	s := &nodeSet{bits: make([]bool, n)}
	if full {
		for i := range s.bits {
			s.bits[i] = true
		}
	}
	return s
}

func (s *nodeSet) has(n NodeID) bool { return s.bits[n] }
func (s *nodeSet) add(n NodeID)      { s.bits[n] = true }

func (s *nodeSet) equal(o *nodeSet) bool {
	for i := range s.bits {
		if s.bits[i] != o.bits[i] {
			return false
		}
	}
	return true
}

func (s *nodeSet) clone() *nodeSet {
	c := &nodeSet{bits: make([]bool, len(s.bits))}
	copy(c.bits, s.bits)
	return c
}

// Dominators computes, for every node, the iterative-dataflow dominator set
// D[entry] = {entry}; D[n] = {n} ∪ ⋂(D[p] for p in preds(n)) (spec §4.5),
// iterated to a fixed point starting from the entry's successors.
func Dominators(g CFG) map[NodeID]*nodeSet {
	nodes := g.Nodes()
	entry := g.Entry()

	dom := make(map[NodeID]*nodeSet, len(nodes))
	dom[entry] = newNodeSet(len(nodes), false)
	dom[entry].add(entry)
	for _, n := range nodes {
		if n != entry {
			dom[n] = newNodeSet(len(nodes), true)
		}
	}

	work := append([]NodeID{}, g.Succs(entry)...)
	seen := make(map[NodeID]bool)
	for _, n := range work {
		seen[n] = true
	}
	for len(work) > 0 {
		cur := work[0]
		work = work[1:]
		seen[cur] = false

		preds := g.Preds(cur)
		var intersect *nodeSet
		for _, p := range preds {
			if intersect == nil {
				intersect = dom[p].clone()
				continue
			}
			for i := range intersect.bits {
				intersect.bits[i] = intersect.bits[i] && dom[p].bits[i]
			}
		}
		if intersect == nil {
			intersect = newNodeSet(len(nodes), false)
		}
		intersect.add(cur)

		if intersect.equal(dom[cur]) {
			continue
		}
		dom[cur] = intersect
		for _, s := range g.Succs(cur) {
			if !seen[s] {
				work = append(work, s)
				seen[s] = true
			}
		}
	}
	return dom
}

// ImmediateDominators derives idom(n) for every non-entry node from the
// dominator sets: the unique d in Doms(n)\{n} that does not dominate any
// other member of Doms(n)\{n} (spec §4.5, mirrors the teacher's
// is_dom-based search rather than the faster Lengauer-Tarjan/RPO-intersect
// formulation, to match the reference algorithm's exact tie-breaking).
func ImmediateDominators(g CFG, dom map[NodeID]*nodeSet) map[NodeID]NodeID {
	entry := g.Entry()
	idom := make(map[NodeID]NodeID, len(dom))

	for n, doms := range dom {
		if n == entry {
			continue
		}
		for _, candidate := range g.Nodes() {
			if candidate == n || !doms.has(candidate) {
				continue
			}
			isIdom := true
			for _, d := range g.Nodes() {
				if d == candidate || d == n || !doms.has(d) {
					continue
				}
				if dom[d].has(candidate) {
					isIdom = false
					break
				}
			}
			if isIdom {
				idom[n] = candidate
				break
			}
		}
	}
	return idom
}

// DomTree is the dominator tree: children keyed by their immediate
// dominator, rooted at the CFG's entry.
type DomTree struct {
	Root     NodeID
	children map[NodeID][]NodeID
}

// Children returns the immediate-dominator children of n.
func (t *DomTree) Children(n NodeID) []NodeID { return t.children[n] }

// Descendants returns every node dominated by n in the tree, including n
// itself, via preorder traversal.
func (t *DomTree) Descendants(n NodeID) []NodeID {
	out := []NodeID{n}
	for _, c := range t.children[n] {
		out = append(out, t.Descendants(c)...)
	}
	return out
}

// BuildDomTree constructs a DomTree from an idom map (spec §4.5).
func BuildDomTree(entry NodeID, idom map[NodeID]NodeID) *DomTree {
	t := &DomTree{Root: entry, children: make(map[NodeID][]NodeID)}
	for n, d := range idom {
		t.children[d] = append(t.children[d], n)
	}
	return t
}

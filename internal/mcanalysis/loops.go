package mcanalysis

import "sort"

// NaturalLoop is the set of nodes belonging to one back edge's loop: a
// header plus every node that reaches the back edge's source without
// passing back through the header (spec §4.5, mirrors the teacher's
// identify_loop/identify_single_loop).
type NaturalLoop struct {
	Header NodeID
	Body   map[NodeID]bool // includes Header
}

// Contains reports whether n is part of the loop body.
func (l *NaturalLoop) Contains(n NodeID) bool { return l.Body[n] }

// BackEdges returns every edge (src, header) where header dominates src,
// i.e. every control-flow edge that closes a loop (spec §4.5).
func BackEdges(g CFG, dom map[NodeID]*nodeSet) [][2]NodeID {
	var edges [][2]NodeID
	for _, n := range g.Nodes() {
		for _, s := range g.Succs(n) {
			if dom[n].has(s) {
				edges = append(edges, [2]NodeID{n, s})
			}
		}
	}
	return edges
}

// identifySingleLoop walks predecessors backward from the back edge's
// source until it reaches header, collecting every node visited. This is
// the single-back-edge loop-body search the teacher's identify_single_loop
// performs.
func identifySingleLoop(g CFG, header, src NodeID) map[NodeID]bool {
	body := map[NodeID]bool{header: true, src: true}
	stack := []NodeID{src}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, p := range g.Preds(n) {
			if body[p] {
				continue
			}
			body[p] = true
			stack = append(stack, p)
		}
	}
	return body
}

// NaturalLoops finds one NaturalLoop per back edge (spec §4.5,
// identify_loop): distinct back edges sharing a header yield distinct
// NaturalLoop entries here, merged later by MergedLoops.
func NaturalLoops(g CFG, dom map[NodeID]*nodeSet) []*NaturalLoop {
	var loops []*NaturalLoop
	for _, e := range BackEdges(g, dom) {
		src, header := e[0], e[1]
		loops = append(loops, &NaturalLoop{Header: header, Body: identifySingleLoop(g, header, src)})
	}
	return loops
}

// MergedLoop is the union of every NaturalLoop sharing a header: a single
// header may close several back edges (e.g. a loop with two continue
// sites), and those natural loops are treated as one loop for nesting and
// depth purposes (spec §4.5, compute_merged_loop).
type MergedLoop struct {
	Header NodeID
	Body   map[NodeID]bool
}

func (l *MergedLoop) Contains(n NodeID) bool { return l.Body[n] }

// MergedLoops merges NaturalLoops by shared header, in header-NodeID order
// for deterministic output.
func MergedLoops(loops []*NaturalLoop) []*MergedLoop {
	byHeader := make(map[NodeID]*MergedLoop)
	var order []NodeID
	for _, l := range loops {
		m, ok := byHeader[l.Header]
		if !ok {
			m = &MergedLoop{Header: l.Header, Body: map[NodeID]bool{}}
			byHeader[l.Header] = m
			order = append(order, l.Header)
		}
		for n := range l.Body {
			m.Body[n] = true
		}
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	out := make([]*MergedLoop, len(order))
	for i, h := range order {
		out[i] = byHeader[h]
	}
	return out
}

// LoopNestNode is one node of the loop-nest tree: a merged loop plus the
// child loops immediately nested within it (spec §4.5,
// compute_loop_nest_tree). Nesting is determined by containment: loop B
// nests directly under loop A when A is the smallest merged loop properly
// containing B's header.
type LoopNestNode struct {
	Loop     *MergedLoop // never nil; the forest has no synthetic root node
	Children []*LoopNestNode
}

// LoopNestTree is the forest of LoopNestNode roots, one per top-level
// (unnested) loop.
type LoopNestTree struct {
	Roots []*LoopNestNode
}

// ComputeLoopNestTree nests merged loops by body containment: for each
// loop, its parent is the smallest other loop whose body contains this
// loop's header (spec §4.5). Loops with no such parent become roots.
func ComputeLoopNestTree(loops []*MergedLoop) *LoopNestTree {
	nodes := make(map[NodeID]*LoopNestNode, len(loops))
	for _, l := range loops {
		nodes[l.Header] = &LoopNestNode{Loop: l}
	}

	tree := &LoopNestTree{}
	for _, l := range loops {
		var parent *MergedLoop
		for _, cand := range loops {
			if cand.Header == l.Header {
				continue
			}
			if !cand.Contains(l.Header) {
				continue
			}
			if parent == nil || len(cand.Body) < len(parent.Body) {
				parent = cand
			}
		}
		if parent == nil {
			tree.Roots = append(tree.Roots, nodes[l.Header])
			continue
		}
		pn := nodes[parent.Header]
		pn.Children = append(pn.Children, nodes[l.Header])
	}

	sortNestNodes(tree.Roots)
	return tree
}

func sortNestNodes(nodes []*LoopNestNode) {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Loop.Header < nodes[j].Loop.Header })
	for _, n := range nodes {
		sortNestNodes(n.Children)
	}
}

// LoopDepth computes, for every node in the CFG, the number of merged
// loops that contain it (0 for nodes outside any loop), by a recursive
// walk of the loop-nest tree (spec §4.5, compute_loop_depth/record_depth).
func LoopDepth(g CFG, tree *LoopNestTree) map[NodeID]int {
	depth := make(map[NodeID]int, len(g.Nodes()))
	for _, n := range g.Nodes() {
		depth[n] = 0
	}
	var walk func(n *LoopNestNode, d int)
	walk = func(n *LoopNestNode, d int) {
		for node := range n.Loop.Body {
			if d > depth[node] {
				depth[node] = d
			}
		}
		for _, c := range n.Children {
			walk(c, d+1)
		}
	}
	for _, root := range tree.Roots {
		walk(root, 1)
	}
	return depth
}

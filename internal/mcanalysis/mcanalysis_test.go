package mcanalysis

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// listCFG is the straightforward adjacency-list CFG used by this package's
// tests: no dependency on package ir, just node ids and edges.
type listCFG struct {
	entry NodeID
	nodes []NodeID
	succs map[NodeID][]NodeID
	preds map[NodeID][]NodeID
}

func newListCFG(entry NodeID, edges map[NodeID][]NodeID) *listCFG {
	c := &listCFG{entry: entry, succs: edges, preds: map[NodeID][]NodeID{}}
	seen := map[NodeID]bool{}
	for n, ss := range edges {
		if !seen[n] {
			seen[n] = true
			c.nodes = append(c.nodes, n)
		}
		for _, s := range ss {
			c.preds[s] = append(c.preds[s], n)
			if !seen[s] {
				seen[s] = true
				c.nodes = append(c.nodes, s)
			}
		}
	}
	return c
}

func (c *listCFG) Entry() NodeID         { return c.entry }
func (c *listCFG) Nodes() []NodeID       { return c.nodes }
func (c *listCFG) Preds(n NodeID) []NodeID { return c.preds[n] }
func (c *listCFG) Succs(n NodeID) []NodeID { return c.succs[n] }

// diamond: 0 -> 1, 0 -> 2, 1 -> 3, 2 -> 3.
func diamondCFG() *listCFG {
	return newListCFG(0, map[NodeID][]NodeID{
		0: {1, 2},
		1: {3},
		2: {3},
		3: {},
	})
}

// loopCFG: 0 -> 1 -> 2 -> 1 (back edge), 2 -> 3.
func loopCFG() *listCFG {
	return newListCFG(0, map[NodeID][]NodeID{
		0: {1},
		1: {2},
		2: {1, 3},
		3: {},
	})
}

func TestDominatorsDiamond(t *testing.T) {
	g := diamondCFG()
	dom := Dominators(g)

	require.True(t, dom[3].has(0))
	require.False(t, dom[3].has(1))
	require.False(t, dom[3].has(2))
	require.True(t, dom[1].has(0))
	require.False(t, dom[1].has(2))
}

func TestImmediateDominatorsDiamond(t *testing.T) {
	g := diamondCFG()
	dom := Dominators(g)
	idom := ImmediateDominators(g, dom)

	require.Equal(t, NodeID(0), idom[1])
	require.Equal(t, NodeID(0), idom[2])
	require.Equal(t, NodeID(0), idom[3])
}

func TestDomTreeDescendants(t *testing.T) {
	g := diamondCFG()
	dom := Dominators(g)
	idom := ImmediateDominators(g, dom)
	tree := BuildDomTree(g.Entry(), idom)

	desc := tree.Descendants(0)
	require.ElementsMatch(t, []NodeID{0, 1, 2, 3}, desc)
	require.Empty(t, tree.Children(3))
}

func TestNaturalLoopsAndDepth(t *testing.T) {
	g := loopCFG()
	dom := Dominators(g)

	back := BackEdges(g, dom)
	require.Len(t, back, 1)
	require.Equal(t, [2]NodeID{2, 1}, back[0])

	loops := NaturalLoops(g, dom)
	require.Len(t, loops, 1)
	require.Equal(t, NodeID(1), loops[0].Header)
	require.True(t, loops[0].Contains(1))
	require.True(t, loops[0].Contains(2))
	require.False(t, loops[0].Contains(0))
	require.False(t, loops[0].Contains(3))

	merged := MergedLoops(loops)
	require.Len(t, merged, 1)

	tree := ComputeLoopNestTree(merged)
	require.Len(t, tree.Roots, 1)

	depth := LoopDepth(g, tree)
	require.Equal(t, 0, depth[0])
	require.Equal(t, 1, depth[1])
	require.Equal(t, 1, depth[2])
	require.Equal(t, 0, depth[3])
}

func TestMergedLoopsCombinesSharedHeader(t *testing.T) {
	h := NodeID(10)
	l1 := &NaturalLoop{Header: h, Body: map[NodeID]bool{10: true, 11: true}}
	l2 := &NaturalLoop{Header: h, Body: map[NodeID]bool{10: true, 12: true}}

	merged := MergedLoops([]*NaturalLoop{l1, l2})
	require.Len(t, merged, 1)
	require.True(t, merged[0].Contains(11))
	require.True(t, merged[0].Contains(12))
}

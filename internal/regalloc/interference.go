// Package regalloc assigns real registers to the virtual registers in a
// package machine Function using Chaitin-Briggs iterated register
// coalescing (spec §4.6): build the interference graph from liveness,
// repeatedly simplify/coalesce/freeze/spill worklists down to a coloring
// order, then assign colors (or stack slots on failure) on the way back
// up. Grounded on raymyers-ralph-cc-go's pkg/regalloc (InterferenceGraph,
// Allocator), adapted from that package's single rtl.Function/single
// register bank onto package machine's block-structured Function and
// GPR/FPR register banks.
package regalloc

import "github.com/mu-vm/muc/internal/machine"

// InterferenceGraph records which virtual registers are live
// simultaneously (and so cannot share a color) and which are move-related
// (candidates for coalescing).
type InterferenceGraph struct {
	Nodes           machine.RegSet
	Edges           map[uint64]machine.RegSet
	Preferences     map[uint64]machine.RegSet
	LiveAcrossCalls machine.RegSet
}

func NewInterferenceGraph() *InterferenceGraph {
	return &InterferenceGraph{
		Nodes:           machine.NewRegSet(),
		Edges:           make(map[uint64]machine.RegSet),
		Preferences:     make(map[uint64]machine.RegSet),
		LiveAcrossCalls: machine.NewRegSet(),
	}
}

func (g *InterferenceGraph) AddNode(v machine.VReg) {
	g.Nodes.Add(v)
	k := machine.Key(v)
	if g.Edges[k] == nil {
		g.Edges[k] = machine.NewRegSet()
	}
	if g.Preferences[k] == nil {
		g.Preferences[k] = machine.NewRegSet()
	}
}

func (g *InterferenceGraph) AddEdge(a, b machine.VReg) {
	if machine.Key(a) == machine.Key(b) {
		return
	}
	g.AddNode(a)
	g.AddNode(b)
	g.Edges[machine.Key(a)].Add(b)
	g.Edges[machine.Key(b)].Add(a)
}

func (g *InterferenceGraph) AddPreference(a, b machine.VReg) {
	if machine.Key(a) == machine.Key(b) {
		return
	}
	g.AddNode(a)
	g.AddNode(b)
	g.Preferences[machine.Key(a)].Add(b)
	g.Preferences[machine.Key(b)].Add(a)
}

func (g *InterferenceGraph) HasEdge(a, b machine.VReg) bool {
	e, ok := g.Edges[machine.Key(a)]
	return ok && e.Contains(b)
}

func (g *InterferenceGraph) Degree(v machine.VReg) int { return g.Edges[machine.Key(v)].Len() }

func (g *InterferenceGraph) MoveRelated(v machine.VReg) bool {
	return g.Preferences[machine.Key(v)].Len() > 0
}

// BuildInterferenceGraph constructs the graph from a liveness result: a
// defined register interferes with everything live at its definition's
// exit, except the source of a move it is copied from (so that move can
// still be coalesced), and registers live across a call instruction are
// marked so color assignment restricts them to callee-saved registers.
func BuildInterferenceGraph(fn *machine.Function, live *machine.Liveness) *InterferenceGraph {
	g := NewInterferenceGraph()

	for _, b := range fn.Blocks {
		for _, inst := range b.Instrs {
			liveOut := live.LiveOut[inst]
			for _, d := range inst.Defs {
				g.AddNode(d)
				for _, lr := range liveOut.Members() {
					if inst.IsMove && machine.Key(inst.MoveSrc) == machine.Key(lr) {
						continue
					}
					g.AddEdge(d, lr)
				}
			}
			if inst.IsCall {
				for _, lr := range liveOut.Members() {
					g.LiveAcrossCalls.Add(lr)
				}
			}
			if inst.IsMove {
				g.AddPreference(inst.MoveDst, inst.MoveSrc)
			}
		}
	}
	return g
}

package regalloc

import (
	"github.com/sirupsen/logrus"

	"github.com/mu-vm/muc/internal/machine"
)

var log = logrus.New()

// Config names one bank's allocatable real registers (spec §4.6, "target
// register file"): NumAllocatable is K; CalleeSavedStart is the first
// index treated as callee-saved, used to restrict registers live across a
// call to that half of the range (mirrors
// raymyers-ralph-cc-go/pkg/regalloc's FirstCalleeSavedColor).
type Config struct {
	NumAllocatable   int
	CalleeSavedStart int

	// ScratchRegs are real-register indices, in this bank, held back from
	// the allocatable set and reserved for spill materialization's
	// reload/store pseudo-instructions (spec §4.6.4). Empty disables
	// materialization (a spilled VReg is then left in the instruction
	// stream unresolved, for callers - like tests built directly against
	// package machine - that never populate a real target's register file).
	ScratchRegs []uint8
}

// Result is the outcome of allocation for one bank: a color (real
// register index) or a spill slot for every virtual register that
// appeared in the graph.
type Result struct {
	Color     map[uint64]int
	RegOf     map[uint64]machine.VReg
	Spilled   machine.RegSet
	SpillSlot map[uint64]int64
	StackSize int64

	// CallLiveRefs maps each CALL/CCALL instruction to the GC-traced
	// virtual registers (package machine's VReg.IsRef) live into it in this
	// bank, the per-callsite root set spec §4.4 requires the driver to
	// record in the Frame.
	CallLiveRefs map[*machine.Instr][]machine.VReg
}

// Allocator runs the iterated-register-coalescing main loop (spec §4.6),
// grounded directly on raymyers-ralph-cc-go/pkg/regalloc's Allocator:
// repeatedly pick whichever of simplify/coalesce/freeze/spill-select has
// work, pushing nodes onto a select stack, then pop the stack assigning
// the lowest free color (restricted to callee-saved registers for
// call-crossing nodes), falling back to a spill slot when no color is
// free.
type Allocator struct {
	cfg   Config
	graph *InterferenceGraph
	costs SpillCosts

	colors    map[uint64]int
	spillSlot map[uint64]int64

	simplifyWorklist []machine.VReg
	freezeWorklist   []machine.VReg
	spillWorklist    []machine.VReg
	coalescedNodes   machine.RegSet
	coloredNodes     machine.RegSet
	spilledNodes     machine.RegSet
	selectStack      []machine.VReg

	alias map[uint64]machine.VReg

	worklistMoves [][2]machine.VReg
	activeMoves   [][2]machine.VReg
	frozenMoves   [][2]machine.VReg

	nextSpillSlot int64
}

// Allocate runs IRC for one register bank's interference graph. costs
// supplies each node's spill cost (spec §4.6.2/§4.6.3 step 5); a nil costs
// map gives every node cost 1, so selectSpill's highest cost/degree ratio
// then picks the candidate with the lowest degree.
func Allocate(cfg Config, graph *InterferenceGraph, costs SpillCosts) *Result {
	a := &Allocator{
		cfg:            cfg,
		graph:          graph,
		costs:          costs,
		colors:         make(map[uint64]int),
		spillSlot:      make(map[uint64]int64),
		coalescedNodes: machine.NewRegSet(),
		coloredNodes:   machine.NewRegSet(),
		spilledNodes:   machine.NewRegSet(),
		alias:          make(map[uint64]machine.VReg),
	}
	a.buildWorklists()
	log.WithFields(logrus.Fields{
		"nodes": len(graph.Nodes), "initial_moves": len(a.worklistMoves),
		"k": cfg.NumAllocatable,
	}).Debug("regalloc: allocate enter")

	for {
		switch {
		case len(a.simplifyWorklist) > 0:
			a.simplify()
		case len(a.worklistMoves) > 0:
			a.coalesce()
		case len(a.freezeWorklist) > 0:
			a.freeze()
		case len(a.spillWorklist) > 0:
			a.selectSpill()
		default:
			result := a.assignColors()
			log.WithFields(logrus.Fields{
				"colored": len(result.Color), "spilled": result.Spilled.Len(),
				"stack_size": result.StackSize,
			}).Debug("regalloc: allocate exit")
			return result
		}
	}
}

func (a *Allocator) degree(v machine.VReg) int {
	deg := 0
	for _, n := range a.graph.Edges[machine.Key(v)].Members() {
		if !a.coalescedNodes.Contains(n) {
			deg++
		}
	}
	return deg
}

func (a *Allocator) buildWorklists() {
	for _, r := range a.graph.Nodes.Members() {
		switch {
		case a.degree(r) >= a.cfg.NumAllocatable:
			a.spillWorklist = append(a.spillWorklist, r)
		case a.graph.MoveRelated(r):
			a.freezeWorklist = append(a.freezeWorklist, r)
		default:
			a.simplifyWorklist = append(a.simplifyWorklist, r)
		}
	}
	seen := make(map[[2]uint64]bool)
	for k, prefs := range a.graph.Preferences {
		for _, p := range prefs.Members() {
			pk := machine.Key(p)
			edge := [2]uint64{k, pk}
			if edge[0] > edge[1] {
				edge[0], edge[1] = edge[1], edge[0]
			}
			if seen[edge] {
				continue
			}
			seen[edge] = true
			a.worklistMoves = append(a.worklistMoves, [2]machine.VReg{a.graph.Nodes[k], p})
		}
	}
}

func popVReg(list *[]machine.VReg) machine.VReg {
	n := len(*list) - 1
	v := (*list)[n]
	*list = (*list)[:n]
	return v
}

func removeVReg(list *[]machine.VReg, v machine.VReg) {
	for i, r := range *list {
		if machine.Key(r) == machine.Key(v) {
			*list = append((*list)[:i], (*list)[i+1:]...)
			return
		}
	}
}

func (a *Allocator) simplify() {
	r := popVReg(&a.simplifyWorklist)
	a.selectStack = append(a.selectStack, r)
	for _, n := range a.graph.Edges[machine.Key(r)].Members() {
		a.decrementDegree(n)
	}
}

func (a *Allocator) decrementDegree(v machine.VReg) {
	if a.coalescedNodes.Contains(v) {
		return
	}
	if a.degree(v) == a.cfg.NumAllocatable-1 {
		removeVReg(&a.spillWorklist, v)
		if a.graph.MoveRelated(v) {
			a.freezeWorklist = append(a.freezeWorklist, v)
		} else {
			a.simplifyWorklist = append(a.simplifyWorklist, v)
		}
	}
}

func (a *Allocator) getAlias(v machine.VReg) machine.VReg {
	if a.coalescedNodes.Contains(v) {
		return a.getAlias(a.alias[machine.Key(v)])
	}
	return v
}

func (a *Allocator) coalesce() {
	n := len(a.worklistMoves) - 1
	m := a.worklistMoves[n]
	a.worklistMoves = a.worklistMoves[:n]

	x, y := a.getAlias(m[0]), a.getAlias(m[1])
	u, v := x, y
	if machine.Key(y) < machine.Key(x) {
		u, v = y, x
	}

	switch {
	case machine.Key(u) == machine.Key(v):
		log.WithField("reg", machine.Key(u)).Trace("regalloc: coalesce already aliased")
		a.addToWorklist(u)
	case a.graph.HasEdge(u, v):
		log.WithFields(logrus.Fields{"u": machine.Key(u), "v": machine.Key(v)}).Trace("regalloc: coalesce blocked by interference")
		a.addToWorklist(u)
		a.addToWorklist(v)
	case a.conservativeCoalesce(u, v):
		log.WithFields(logrus.Fields{"u": machine.Key(u), "v": machine.Key(v)}).Trace("regalloc: coalesce combined")
		a.combine(u, v)
		a.addToWorklist(u)
	default:
		log.WithFields(logrus.Fields{"u": machine.Key(u), "v": machine.Key(v)}).Trace("regalloc: coalesce deferred to active moves")
		a.activeMoves = append(a.activeMoves, m)
	}
}

func (a *Allocator) conservativeCoalesce(u, v machine.VReg) bool {
	neighbors := machine.NewRegSet()
	for _, n := range a.graph.Edges[machine.Key(u)].Members() {
		if !a.coalescedNodes.Contains(n) {
			neighbors.Add(n)
		}
	}
	for _, n := range a.graph.Edges[machine.Key(v)].Members() {
		if !a.coalescedNodes.Contains(n) {
			neighbors.Add(n)
		}
	}
	highDegree := 0
	for _, n := range neighbors.Members() {
		if a.degree(n) >= a.cfg.NumAllocatable {
			highDegree++
		}
	}
	return highDegree < a.cfg.NumAllocatable
}

func (a *Allocator) combine(u, v machine.VReg) {
	removeVReg(&a.freezeWorklist, v)
	removeVReg(&a.spillWorklist, v)
	a.coalescedNodes.Add(v)
	a.alias[machine.Key(v)] = u

	if a.graph.LiveAcrossCalls.Contains(v) {
		a.graph.LiveAcrossCalls.Add(u)
	}
	for _, n := range a.graph.Edges[machine.Key(v)].Members() {
		if !a.coalescedNodes.Contains(n) && machine.Key(n) != machine.Key(u) {
			a.graph.AddEdge(u, n)
			a.decrementDegree(n)
		}
	}
	for _, n := range a.graph.Preferences[machine.Key(v)].Members() {
		if machine.Key(n) != machine.Key(u) {
			a.graph.AddPreference(u, n)
		}
	}
	if a.degree(u) >= a.cfg.NumAllocatable {
		removeVReg(&a.freezeWorklist, u)
		a.spillWorklist = append(a.spillWorklist, u)
	}
}

func (a *Allocator) addToWorklist(v machine.VReg) {
	if a.coalescedNodes.Contains(v) {
		return
	}
	if a.degree(v) < a.cfg.NumAllocatable && !a.graph.MoveRelated(v) {
		removeVReg(&a.freezeWorklist, v)
		a.simplifyWorklist = append(a.simplifyWorklist, v)
	}
}

func (a *Allocator) freeze() {
	r := popVReg(&a.freezeWorklist)
	a.simplifyWorklist = append(a.simplifyWorklist, r)
	a.freezeMovesFor(r)
}

func (a *Allocator) freezeMovesFor(r machine.VReg) {
	var remaining [][2]machine.VReg
	for _, m := range a.activeMoves {
		if machine.Key(m[0]) == machine.Key(r) || machine.Key(m[1]) == machine.Key(r) {
			a.frozenMoves = append(a.frozenMoves, m)
			other := m[1]
			if machine.Key(m[0]) != machine.Key(r) {
				other = m[0]
			}
			a.addToWorklist(other)
		} else {
			remaining = append(remaining, m)
		}
	}
	a.activeMoves = remaining
}

// spillCost returns a.costs[v]'s recorded cost, or 1 (every occurrence
// counts once) when no cost map was supplied.
func (a *Allocator) spillCost(v machine.VReg) float64 {
	if a.costs == nil {
		return 1
	}
	if c, ok := a.costs[machine.Key(v)]; ok {
		return c
	}
	return 1
}

// selectSpill picks the spill candidate with the highest spill_cost/degree
// ratio (spec §4.6.3 step 5: cost is pre-scaled by 10^depth in
// ComputeSpillCosts, so a node only live in deep loops naturally
// outranks one used just as often at depth 0), optimistically moving it
// to simplify; it may still end up colored rather than spilled.
func (a *Allocator) selectSpill() {
	maxRatio := -1.0
	maxIdx := -1
	var maxReg machine.VReg
	for i, r := range a.spillWorklist {
		d := a.degree(r)
		if d == 0 {
			continue
		}
		ratio := a.spillCost(r) / float64(d)
		if ratio > maxRatio {
			maxRatio, maxReg, maxIdx = ratio, r, i
		}
	}
	if maxIdx < 0 {
		maxIdx = 0
		maxReg = a.spillWorklist[0]
		maxRatio = 0
	}
	log.WithFields(logrus.Fields{"reg": machine.Key(maxReg), "ratio": maxRatio}).Trace("regalloc: selectSpill candidate")
	a.spillWorklist = append(a.spillWorklist[:maxIdx], a.spillWorklist[maxIdx+1:]...)
	a.simplifyWorklist = append(a.simplifyWorklist, maxReg)
	a.freezeMovesFor(maxReg)
}

func (a *Allocator) assignColors() *Result {
	for len(a.selectStack) > 0 {
		r := popVReg(&a.selectStack)

		used := make(map[int]bool)
		for _, n := range a.graph.Edges[machine.Key(r)].Members() {
			alias := a.getAlias(n)
			if a.coloredNodes.Contains(alias) {
				used[a.colors[machine.Key(alias)]] = true
			}
		}

		start := 0
		if a.graph.LiveAcrossCalls.Contains(r) {
			start = a.cfg.CalleeSavedStart
		}
		color := -1
		for c := start; c < a.cfg.NumAllocatable; c++ {
			if !used[c] {
				color = c
				break
			}
		}
		if color >= 0 {
			a.coloredNodes.Add(r)
			a.colors[machine.Key(r)] = color
		} else {
			a.spilledNodes.Add(r)
			a.spillSlot[machine.Key(r)] = a.nextSpillSlot
			a.nextSpillSlot += 8
		}
	}

	for _, r := range a.coalescedNodes.Members() {
		alias := a.getAlias(r)
		if a.coloredNodes.Contains(alias) {
			a.colors[machine.Key(r)] = a.colors[machine.Key(alias)]
			a.coloredNodes.Add(r)
		} else if a.spilledNodes.Contains(alias) {
			a.spilledNodes.Add(r)
			a.spillSlot[machine.Key(r)] = a.spillSlot[machine.Key(alias)]
		}
	}

	regOf := make(map[uint64]machine.VReg, len(a.graph.Nodes))
	for k, v := range a.graph.Nodes {
		regOf[k] = v
	}
	return &Result{
		Color:     a.colors,
		RegOf:     regOf,
		Spilled:   a.spilledNodes,
		SpillSlot: a.spillSlot,
		StackSize: a.nextSpillSlot,
	}
}

package machine

// Instr is one lowered machine instruction: a mnemonic plus its
// virtual-register def/use lists. Instruction-selection fills these in
// per target (package isa); package regalloc only ever reads Defs/Uses
// and rewrites them in place once colors are assigned, mirroring the
// narrow Instr surface wazero's regalloc.Instr interface exposes
// (backend/regalloc/api.go) adapted here to a concrete struct since this
// package, not the ISA backends, owns instruction storage.
type Instr struct {
	Mnemonic string
	Defs     []VReg
	Uses     []VReg

	// MoveSrc/MoveDst are set (and IsMove is true) for register-to-register
	// copies, letting the allocator attempt coalescing; mirrors
	// InterferenceGraph's move-preference handling (Omove).
	IsMove  bool
	MoveSrc VReg
	MoveDst VReg

	IsCall         bool
	IsIndirectCall bool
	IsReturn       bool

	// IsReload/IsSpillStore mark the reload-into-scratch/store-from-scratch
	// pseudo-instructions package regalloc's spill materialization inserts
	// around a use/def of a register that did not get a color (spec
	// §4.6.4); SpillOf names the original spilled virtual register so the
	// frame/emit stage can resolve the stack slot it reads/writes.
	IsReload     bool
	IsSpillStore bool
	SpillOf      VReg

	// IsYieldpoint marks a compare-and-branch against the thread's
	// take_yield flag, emitted at loop back-edges and before CCALLs so a
	// requested GC/mutator pause takes effect without waiting for the next
	// call boundary (spec §4.4).
	IsYieldpoint bool
}

// AssignDef/AssignUses rewrite the instruction's registers in place once
// the allocator has decided on real-register/spill-slot assignments.
func (i *Instr) AssignDef(v VReg) {
	if len(i.Defs) > 0 {
		i.Defs[0] = v
	}
}

func (i *Instr) AssignUses(vs []VReg) { copy(i.Uses, vs) }

// Block is one machine-code basic block: a straight-line instruction list
// plus the predecessor/successor edges instruction selection preserved
// from the IR's CFG.
type Block struct {
	ID      int
	Instrs  []*Instr
	Preds   []*Block
	Succs   []*Block
	IsEntry bool
}

// Function is a whole lowered function: its blocks in layout order, plus
// the clobbered-register set ABI lowering must save/restore.
type Function struct {
	Blocks     []*Block
	Clobbered  []VReg
	entryIndex int
}

// NewFunction builds a Function over blocks already linked via
// Preds/Succs, with blocks[0] as the entry.
func NewFunction(blocks []*Block) *Function {
	if len(blocks) > 0 {
		blocks[0].IsEntry = true
	}
	return &Function{Blocks: blocks}
}

// PostOrder returns the function's blocks in post-order (entry's
// transitive successors visited before entry), the layout
// package regalloc consumes for its backward liveness dataflow (mirrors
// wazero's Function.PostOrderBlockIteratorBegin/Next).
func (f *Function) PostOrder() []*Block {
	visited := make(map[int]bool, len(f.Blocks))
	var order []*Block
	var visit func(b *Block)
	visit = func(b *Block) {
		if visited[b.ID] {
			return
		}
		visited[b.ID] = true
		for _, s := range b.Succs {
			visit(s)
		}
		order = append(order, b)
	}
	if len(f.Blocks) > 0 {
		visit(f.Blocks[0])
	}
	// Any block unreachable from the entry (RebuildCFG does not prune dead
	// blocks, so one can be present) is appended so every block gets a
	// liveness entry.
	for _, b := range f.Blocks {
		visit(b)
	}
	return order
}

// ReversePostOrder is PostOrder reversed, the forward-analysis layout
// order instruction selection and the emitter walk blocks in.
func (f *Function) ReversePostOrder() []*Block {
	po := f.PostOrder()
	rpo := make([]*Block, len(po))
	for i, b := range po {
		rpo[len(po)-1-i] = b
	}
	return rpo
}

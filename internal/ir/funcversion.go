package ir

import "fmt"

// FuncVersionID identifies one compilable version of a function, stable for
// the lifetime of a compilation unit (spec §3.1).
type FuncVersionID uint32

// FuncVersion is one compilable version of a Mu function: its signature plus
// the arena of Blocks, Instructions and SSAValues that make up its body.
// Per spec DESIGN NOTES §9, FuncVersion owns one arena each for blocks,
// instructions and values; all cross-references are ids into these slices,
// never pointers, which keeps ownership tree-shaped (no reference cycles)
// and lets the arenas be pooled and reset between compilations.
type FuncVersion struct {
	ID     FuncVersionID
	FuncID uint32
	Name   string
	Sig    FuncSigID

	Entry BlockID

	blocks []Block
	insts  []Instruction
	values []SSAValue

	// blockOrder records block ids in the order they were allocated, which
	// doubles as program order for printing and as the initial (pre-domtree)
	// traversal order used by mcanalysis before a reverse-postorder is
	// computed.
	blockOrder []BlockID
}

// NewFuncVersion allocates an empty FuncVersion ready for block/instruction
// construction.
func NewFuncVersion(id FuncVersionID, funcID uint32, name string, sig FuncSigID) *FuncVersion {
	return &FuncVersion{ID: id, FuncID: funcID, Name: name, Sig: sig, Entry: BlockIDInvalid}
}

// NewBlock allocates a fresh Block and returns its id.
func (fv *FuncVersion) NewBlock(name string) BlockID {
	id := BlockID(len(fv.blocks))
	fv.blocks = append(fv.blocks, Block{ID: id, Name: name})
	fv.blockOrder = append(fv.blockOrder, id)
	if fv.Entry == BlockIDInvalid {
		fv.Entry = id
	}
	return id
}

// Block returns a pointer to the Block for id, valid until the next NewBlock
// call (the backing slice may grow and reallocate).
func (fv *FuncVersion) Block(id BlockID) *Block { return &fv.blocks[id] }

// Blocks returns the number of blocks currently in this FuncVersion.
func (fv *FuncVersion) Blocks() int { return len(fv.blocks) }

// BlockIDs returns block ids in allocation order.
func (fv *FuncVersion) BlockIDs() []BlockID { return fv.blockOrder }

// NewValue allocates a fresh SSAValue of type typ, defined by def (pass
// InstIDInvalid for block parameters), and returns its id.
func (fv *FuncVersion) NewValue(typ TypeID, def InstID) ValueID {
	id := ValueID(len(fv.values))
	fv.values = append(fv.values, SSAValue{ID: id, Type: typ, Def: def})
	return id
}

// Value returns the SSAValue for id.
func (fv *FuncVersion) Value(id ValueID) SSAValue { return fv.values[id] }

// Values returns the number of values allocated so far.
func (fv *FuncVersion) Values() int { return len(fv.values) }

// NewInst allocates inst into the arena (assigning its ID) and returns the
// id. It does not insert the instruction into any block; callers use
// AppendInst for that.
func (fv *FuncVersion) NewInst(inst Instruction) InstID {
	id := InstID(len(fv.insts))
	inst.ID = id
	fv.insts = append(fv.insts, inst)
	for _, d := range inst.Defs {
		fv.values[d].Def = id
	}
	return id
}

// Inst returns a pointer to the Instruction for id.
func (fv *FuncVersion) Inst(id InstID) *Instruction { return &fv.insts[id] }

// AppendInst appends an already-allocated instruction to the tail of block b.
func (fv *FuncVersion) AppendInst(b BlockID, inst InstID) {
	fv.blocks[b].Insts = append(fv.blocks[b].Insts, inst)
}

// AddParam adds a new block parameter of type typ to block b and returns the
// SSAValue defining it.
func (fv *FuncVersion) AddParam(b BlockID, typ TypeID) ValueID {
	v := fv.NewValue(typ, InstIDInvalid)
	fv.blocks[b].ParamVals = append(fv.blocks[b].ParamVals, v)
	return v
}

// RebuildCFG recomputes every block's Preds/Succs from its terminator's
// destinations. Must be called after any pass that rewrites terminators
// (Gen-Mov-Phi, Return-Sink, spill re-selection) before mcanalysis or
// liveness run again.
func (fv *FuncVersion) RebuildCFG() error {
	for i := range fv.blocks {
		fv.blocks[i].Succs = fv.blocks[i].Succs[:0]
		fv.blocks[i].Preds = fv.blocks[i].Preds[:0]
	}
	for _, bid := range fv.blockOrder {
		b := &fv.blocks[bid]
		if len(b.Insts) == 0 {
			continue
		}
		term := fv.insts[b.Insts[len(b.Insts)-1]]
		if !term.Opcode.IsTerminator() {
			return &CompileError{Kind: ErrKindIRViolation, FuncID: fv.FuncID,
				Detail: fmt.Sprintf("block %s does not end in a terminator", b.Name)}
		}
		dests := destinationsOf(term)
		for _, d := range dests {
			b.Succs = append(b.Succs, d.Target)
			fv.blocks[d.Target].Preds = append(fv.blocks[d.Target].Preds, bid)
		}
	}
	return nil
}

func destinationsOf(inst Instruction) []Destination {
	var out []Destination
	switch inst.Opcode {
	case OpBranch1:
		out = append(out, inst.Dest)
	case OpBranch2, OpCall:
		out = append(out, inst.Dest)
		if inst.HasDest2 {
			out = append(out, inst.Dest2)
		}
	case OpSwitch:
		out = append(out, inst.Dest)
		out = append(out, inst.SwitchDests...)
	}
	return out
}

// Predecessors returns the predecessor block ids of b; valid after
// RebuildCFG.
func (fv *FuncVersion) Predecessors(b BlockID) []BlockID { return fv.blocks[b].Preds }

// Successors returns the successor block ids of b; valid after RebuildCFG.
func (fv *FuncVersion) Successors(b BlockID) []BlockID { return fv.blocks[b].Succs }

package ir

// Block is a labelled basic block: a sequence of Instructions headed by zero
// or more block parameters that stand in for φ-nodes (spec §3.2). A Block is
// exclusively owned by its FuncVersion (spec §3.3).
type Block struct {
	ID   BlockID
	Name string

	// ParamVals are the formal parameters (replacing φ-nodes); ParamVals[i] is
	// the SSAValue defined by the i-th parameter.
	ParamVals []ValueID

	// HasExnArg/ExnArg hold the exception argument bound on the exceptional
	// edge into this block, if any (spec §3.1 Block.exn-arg).
	HasExnArg bool
	ExnArg    ValueID

	// Insts lists this block's instructions in program order. The last
	// instruction, once the pre-pass pipeline has run, is always a
	// terminator.
	Insts []InstID

	TraceHint TraceHint

	// Preds/Succs are populated by (Re)buildCFG and consumed by mcanalysis
	// and prepass; they are a convenience cache over the Dest/Dest2 fields
	// of the block's terminator, not a second source of truth.
	Preds []BlockID
	Succs []BlockID
}

// IsEntry reports whether this is FuncVersion's entry block.
func (fv *FuncVersion) IsEntry(b BlockID) bool { return fv.Entry == b }

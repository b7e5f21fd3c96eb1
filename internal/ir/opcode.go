package ir

// Opcode enumerates the Mu instruction tree-node operators this back end
// lowers. This is not the full Mu ISA (front-end-only instructions such as
// COMMINST variants unrelated to codegen are omitted); it is the subset the
// instruction-selection pass in package isa dispatches on (spec §4.4).
type Opcode uint16

const (
	OpInvalid Opcode = iota

	// Arithmetic / bitwise (spec DESIGN NOTES §9(b): Ashr is the one
	// canonical spelling for the arithmetic right shift, chosen over the
	// legacy source's inconsistent capitalisation).
	OpAdd
	OpSub
	OpMul
	OpSDiv
	OpUDiv
	OpSRem
	OpURem
	OpAnd
	OpOr
	OpXor
	OpShl
	OpLshr
	OpAshr
	OpFAdd
	OpFSub
	OpFMul
	OpFDiv

	// Comparisons.
	OpICmp
	OpFCmp

	// Conversions.
	OpTrunc
	OpZExt
	OpSExt
	OpFPTrunc
	OpFPExt
	OpFPToUI
	OpFPToSI
	OpUIToFP
	OpSIToFP
	OpBitCast
	OpRefCast
	OpPtrCast

	// Control flow. A Call with an exception clause is a terminator; one
	// without is OpExprCall embedded in a block body (spec §3.2).
	OpBranch1
	OpBranch2
	OpSwitch
	OpCall
	OpExprCall
	OpTailCall
	OpCCall
	OpReturn
	OpThrow
	OpThreadExit

	// Memory / object model.
	OpNew
	OpNewHybrid
	OpAlloca
	OpAllocaHybrid
	OpLoad
	OpStore
	OpCmpXchg
	OpAtomicRMW
	OpFence
	OpGetIRef
	OpGetFieldIRef
	OpGetElemIRef
	OpGetVarPartIRef
	OpShiftIRef
	OpGetFixedPartIRef
	OpGetVMThreadLocal // loads the calling thread's allocator TLS base (spec §4.1.3)

	// TagRef64 (spec GLOSSARY, scenario 4).
	OpTR64FromInt
	OpTR64FromFP
	OpTR64FromRef
	OpTR64IsInt
	OpTR64IsFP
	OpTR64IsRef
	OpTR64ToInt
	OpTR64ToFP
	OpTR64ToRef
	OpTR64ToTag

	// Select / misc.
	OpSelect
	OpPhi // only present before Gen-Mov-Phi runs on malformed/pre-pass-input IR; normal IR uses block args.

	// Opaque / partially-unimplemented constructs (spec DESIGN NOTES §9(a)).
	OpWatchpoint
	OpSwapStack

	// Synthetic, inserted by this back end's own pre-passes and lowering;
	// never present in client-submitted IR.
	OpMove // register/stack move inserted by Gen-Mov-Phi and spill rewrite.
)

var opcodeNames = map[Opcode]string{
	OpAdd: "ADD", OpSub: "SUB", OpMul: "MUL", OpSDiv: "SDIV", OpUDiv: "UDIV",
	OpSRem: "SREM", OpURem: "UREM", OpAnd: "AND", OpOr: "OR", OpXor: "XOR",
	OpShl: "SHL", OpLshr: "LSHR", OpAshr: "ASHR",
	OpFAdd: "FADD", OpFSub: "FSUB", OpFMul: "FMUL", OpFDiv: "FDIV",
	OpICmp: "ICMP", OpFCmp: "FCMP",
	OpTrunc: "TRUNC", OpZExt: "ZEXT", OpSExt: "SEXT", OpFPTrunc: "FPTRUNC",
	OpFPExt: "FPEXT", OpFPToUI: "FPTOUI", OpFPToSI: "FPTOSI", OpUIToFP: "UITOFP",
	OpSIToFP: "SITOFP", OpBitCast: "BITCAST", OpRefCast: "REFCAST", OpPtrCast: "PTRCAST",
	OpBranch1: "BRANCH", OpBranch2: "BRANCH2", OpSwitch: "SWITCH", OpCall: "CALL",
	OpExprCall: "EXPRCALL", OpTailCall: "TAILCALL", OpCCall: "CCALL",
	OpReturn: "RET", OpThrow: "THROW", OpThreadExit: "THREADEXIT",
	OpNew: "NEW", OpNewHybrid: "NEWHYBRID", OpAlloca: "ALLOCA", OpAllocaHybrid: "ALLOCAHYBRID",
	OpLoad: "LOAD", OpStore: "STORE", OpCmpXchg: "CMPXCHG", OpAtomicRMW: "ATOMICRMW", OpFence: "FENCE",
	OpGetIRef: "GETIREF", OpGetFieldIRef: "GETFIELDIREF", OpGetElemIRef: "GETELEMIREF",
	OpGetVarPartIRef: "GETVARPARTIREF", OpShiftIRef: "SHIFTIREF", OpGetFixedPartIRef: "GETFIXEDPARTIREF",
	OpGetVMThreadLocal: "GETVMTHREADLOCAL",
	OpTR64FromInt: "TR64_FROM_INT", OpTR64FromFP: "TR64_FROM_FP", OpTR64FromRef: "TR64_FROM_REF",
	OpTR64IsInt: "TR64_IS_INT", OpTR64IsFP: "TR64_IS_FP", OpTR64IsRef: "TR64_IS_REF",
	OpTR64ToInt: "TR64_TO_INT", OpTR64ToFP: "TR64_TO_FP", OpTR64ToRef: "TR64_TO_REF", OpTR64ToTag: "TR64_TO_TAG",
	OpSelect: "SELECT", OpPhi: "PHI",
	OpWatchpoint: "WATCHPOINT", OpSwapStack: "SWAPSTACK",
	OpMove: "MOVE",
}

// String renders the canonical opcode mnemonic.
func (o Opcode) String() string {
	if n, ok := opcodeNames[o]; ok {
		return n
	}
	return "INVALID"
}

// IsTerminator reports whether this opcode ends a basic block.
func (o Opcode) IsTerminator() bool {
	switch o {
	case OpBranch1, OpBranch2, OpSwitch, OpCall, OpTailCall, OpReturn, OpThrow, OpThreadExit, OpSwapStack:
		return true
	default:
		return false
	}
}

// MemOrder is the IR-level memory order carried by atomic memory accesses
// (spec §5), lowered to the target's fence/move equivalents by instruction
// selection.
type MemOrder uint8

const (
	MemOrderNotAtomic MemOrder = iota
	MemOrderRelaxed
	MemOrderConsume
	MemOrderAcquire
	MemOrderRelease
	MemOrderAcqRel
	MemOrderSeqCst
)

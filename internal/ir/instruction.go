package ir

// Operand is a reference to an operand of an Instruction. Per spec §3.3,
// instructions reference SSAValues by index into the enclosing instruction's
// `ops` list rather than holding direct pointers, so the same operand may
// appear in multiple slots (e.g. `ADD %x %x`) without any aliasing concern.
// An Operand is either a Value use or an immediate Constant.
type Operand struct {
	IsConst bool
	Value   ValueID
	Const   ConstID
}

// ValueOperand builds an Operand referencing an SSA value.
func ValueOperand(v ValueID) Operand { return Operand{Value: v} }

// ConstOperand builds an Operand referencing an interned constant.
func ConstOperand(c ConstID) Operand { return Operand{IsConst: true, Const: c} }

// Destination is a control-flow edge target: a block id plus the argument
// list bound to the target block's formal parameters (spec §3.2, "Block
// args instead of φ").
type Destination struct {
	Target BlockID
	Args   []Operand
	// ExnArg, when non-nil-equivalent (HasExnArg), supplies the exception
	// value bound to the destination block's exception argument. Used only
	// on the exceptional-continuation edge of a CALL terminator.
	HasExnArg bool
	ExnArg    Operand
}

// Instruction is one tree node: an opcode plus its operand list and, for
// opcodes that define a value, the set of defined SSAValue ids (most define
// exactly one; CALL/CCALL to multi-return signatures may define several).
type Instruction struct {
	ID     InstID
	Opcode Opcode
	Ops    []Operand
	Defs   []ValueID

	// SideEffecting marks instructions that must not be reordered or
	// eliminated even if their results are unused (loads, stores, calls,
	// allocations, fences) (spec §3, "side-effect flag").
	SideEffecting bool

	// The following fields are populated only for the opcodes that need
	// them; zero-value otherwise.
	MemOrder MemOrder // atomic memory accesses
	Type     TypeID   // NEW/NEWHYBRID/ALLOCA target type, GETFIELDIREF field owner type, CONVOP target type
	Field    int      // GETFIELDIREF field index
	CallSig  FuncSigID
	CallSym  string // CCALL/external symbol name, or the callee's name for CALL/TAILCALL when not resolved by id
	Pred     CmpPred // OpICmp/OpFCmp predicate

	// Dest is the normal-continuation destination for terminators that
	// branch.
	Dest Destination
	// Dest2 is the second destination for OpBranch2 (true/false targets) or
	// the exceptional-continuation destination for a CALL with an exception
	// clause, which makes CALL a terminator (spec §3.2 "Call terminators").
	HasDest2 bool
	Dest2    Destination

	// Switch-specific: parallel slices of (case constant -> destination),
	// plus a default destination in Dest.
	SwitchCases []ConstID
	SwitchDests []Destination

	// TraceHint annotates the block this instruction's NEW/NEWHYBRID slow
	// path lives in (spec §4.1.3); stored per-instruction for allocation
	// fast-path bookkeeping even though the authoritative hint lives on the
	// Block.
	TraceHint TraceHint
}

// TraceHint mirrors the Mu IR block annotation used by inject-runtime to
// mark allocation slow paths (spec §4.1.3).
type TraceHint uint8

const (
	TraceHintNone TraceHint = iota
	TraceHintSlowPath
	TraceHintReturnSink
)

// CmpPred enumerates the integer/float comparison predicates an ICMP/FCMP
// instruction carries.
type CmpPred uint8

const (
	CmpEQ CmpPred = iota
	CmpNE
	CmpSGT
	CmpSGE
	CmpSLT
	CmpSLE
	CmpUGT
	CmpUGE
	CmpULT
	CmpULE
)

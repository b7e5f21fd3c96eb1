package ir

// ValueID identifies an SSAValue within its owning FuncVersion's arena.
// Every FuncVersion numbers its values from 0, so an id is meaningful only
// within the FuncVersion that allocated it (spec DESIGN NOTES §9: arena +
// stable ids, no cross-version validity).
type ValueID uint32

// SSAValue is the definition site of a Mu value. Per spec §3.2 each SSAValue
// has exactly one defining instruction, and its Type never changes once
// allocated.
type SSAValue struct {
	ID   ValueID
	Type TypeID
	Name string // optional, for debugging/trace output only

	// Def is the instruction that defines this value. NewValue records the
	// def it is given, and FuncVersion.NewInst sets it to the new
	// instruction's id for every value in that instruction's Defs.
	// InstIDInvalid (^uint32(0)) for block parameters, whose "definition" is
	// the block itself.
	Def InstID
}

// BlockID identifies a Block within its owning FuncVersion's arena.
type BlockID uint32

// InstID identifies an Instruction within its owning FuncVersion's arena.
type InstID uint32

const (
	InstIDInvalid = InstID(^uint32(0))
	BlockIDInvalid = BlockID(^uint32(0))
	ValueIDInvalid = ValueID(^uint32(0))
)

// Package frame models one function's stack frame: the statically-known
// allocations (callee-saved register spill slots, register-allocator
// spill slots) below the saved frame pointer, plus the exception
// callsite table needed for stack unwinding (spec §4.7, "Mu frame layout
// is ABI-compatible"). Grounded on original_source's compiler/frame.rs,
// which this package follows slot-for-slot: one growing negative offset
// from the frame pointer, 16-byte-aligned final size, FrameSlot records
// keyed by the virtual register each slot holds.
//
//	| previous frame ...
//	|----------------
//	| return address
//	| saved frame ptr  <- FP
//	| callee-saved regs
//	| spilled regs
//	|----------------
//	| alloca area
package frame

import "github.com/mu-vm/muc/internal/machine"

// FrameSlot is one stack location holding a single virtual register's
// value, at a fixed (negative) offset from the frame pointer.
type FrameSlot struct {
	Offset int64
	Reg    machine.VReg
}

// RefLocKind distinguishes where a live GC reference sits at a callsite.
type RefLocKind int

const (
	RefLocReg RefLocKind = iota
	RefLocStack
)

// RefLoc is one GC-traced value's location at a callsite: either a real
// register (RefLocReg, Reg set) or a frame slot offset (RefLocStack,
// Offset set), the shape a stack-map reader needs to find every root
// without decoding the instruction stream (spec §4.4).
type RefLoc struct {
	Kind   RefLocKind
	Reg    machine.VReg
	Offset int64
}

// Callsite records one call instruction's return address, the landing-pad
// address execution resumes at on an exception unwinding through this
// frame, and the GC root set live across the call (spec §4.4/§4.7).
type Callsite struct {
	ReturnAddr int64
	LandingPad int64
	LiveRefs   []RefLoc
}

// Frame accumulates one function's stack layout as instruction selection
// and register allocation request slots for spills, callee-saved-register
// saves, and alloca-backed storage.
type Frame struct {
	curOffset int64
	allocated map[uint64]*FrameSlot
	callsites []Callsite
}

func New() *Frame {
	return &Frame{allocated: make(map[uint64]*FrameSlot)}
}

// AllocSlot reserves the next stack slot for reg, sized/aligned per
// size/align (bytes), and returns the resulting FrameSlot. Used for both
// callee-saved-register spills and register-allocator spills: the two
// differ only in when the caller decides to call this (prologue emission
// vs. spill rewriting), not in how the slot is computed (spec §4.7).
func (f *Frame) AllocSlot(reg machine.VReg, size, align int64) *FrameSlot {
	f.curOffset -= size
	if rem := f.curOffset % align; rem != 0 {
		// curOffset is negative; align its absolute value up to a multiple
		// of align, matching frame.rs's abs-offset alignment adjustment.
		abs := -f.curOffset
		abs = (abs + align - 1) &^ (align - 1)
		f.curOffset = -abs
	}
	slot := &FrameSlot{Offset: f.curOffset, Reg: reg}
	f.allocated[machine.Key(reg)] = slot
	return slot
}

// SlotFor returns the slot previously allocated for reg, if any.
func (f *Frame) SlotFor(reg machine.VReg) (*FrameSlot, bool) {
	s, ok := f.allocated[machine.Key(reg)]
	return s, ok
}

// Forget removes a callee-saved register's slot once prologue emission
// determines the register was never actually clobbered, matching
// frame.rs's remove_record_for_callee_saved_reg (slots are reserved for
// every callee-saved register up front, then pruned to only those the
// body actually uses).
func (f *Frame) Forget(reg machine.VReg) { delete(f.allocated, machine.Key(reg)) }

// AddCallsite records one exception-crossing call's return address and
// landing pad.
func (f *Frame) AddCallsite(c Callsite) { f.callsites = append(f.callsites, c) }

// Callsites returns the recorded exception callsite table.
func (f *Frame) Callsites() []Callsite { return f.callsites }

// Size returns the frame's total size in bytes, rounded up to the
// platform's 16-byte stack alignment requirement (spec §4.7).
func (f *Frame) Size() int64 {
	abs := f.curOffset
	if abs < 0 {
		abs = -abs
	}
	return (abs + 15) &^ 15
}

// Package amd64 is the x86-64 instruction-selection and calling-convention
// backend: SysV AMD64 argument/return classification (spec §4.7, grounded
// on original_source's compiler/backend/arch/x86_64/callconv.rs) and a
// tree-pattern instruction selector from package ir opcodes into
// package machine instructions (spec §4.4).
package amd64

import "github.com/mu-vm/muc/internal/machine"

// General-purpose register indices, in SysV AMD64 ABI numbering order.
const (
	RAX uint8 = iota
	RCX
	RDX
	RBX
	RSP
	RBP
	RSI
	RDI
	R8
	R9
	R10
	R11
	R12
	R13
	R14
	R15
	NumGPR
)

// XMM register indices.
const (
	XMM0 uint8 = iota
	XMM1
	XMM2
	XMM3
	XMM4
	XMM5
	XMM6
	XMM7
	XMM8
	XMM9
	XMM10
	XMM11
	XMM12
	XMM13
	XMM14
	XMM15
	NumXMM
)

// ArgumentGPRs is the SysV AMD64 integer argument register order.
var ArgumentGPRs = []uint8{RDI, RSI, RDX, RCX, R8, R9}

// ArgumentFPRs is the SysV AMD64 floating-point argument register order.
var ArgumentFPRs = []uint8{XMM0, XMM1, XMM2, XMM3, XMM4, XMM5, XMM6, XMM7}

// ReturnGPRs is the SysV AMD64 integer return register order (a 128-bit
// return value uses both).
var ReturnGPRs = []uint8{RAX, RDX}

// ReturnFPRs is the SysV AMD64 floating-point return register order.
var ReturnFPRs = []uint8{XMM0, XMM1}

// CalleeSavedGPRs must be preserved across a call per the SysV AMD64 ABI.
var CalleeSavedGPRs = []uint8{RBX, RBP, R12, R13, R14, R15}

// ScratchGPRs are held back from the allocator entirely and used only by
// package regalloc's spill materialization (spec §4.6.4) to reload/store a
// spilled temp around the one instruction that needs it: R10/R11 are both
// caller-saved and never ABI argument registers, so reserving them costs
// the allocator nothing a real compiler would miss.
var ScratchGPRs = []uint8{R10, R11}

// ScratchFPRs mirrors ScratchGPRs for the floating-point bank.
var ScratchFPRs = []uint8{XMM14, XMM15}

// AllocatableGPRs lists the caller-saved registers (argument registers
// included) first so the allocator prefers them, then the callee-saved
// RBX/R12-R15, reserved for values live across a call (package regalloc's
// Config.CalleeSavedStart).
var AllocatableGPRs = []uint8{RAX, RCX, RDX, RSI, RDI, R8, R9, RBX, R12, R13, R14, R15}

// CalleeSavedStartGPR is AllocatableGPRs' index where CalleeSavedGPRs
// begin, matching regalloc.Config.CalleeSavedStart for the GPR bank (RSP
// and RBP are reserved for stack/frame management, and R10/R11 for spill
// scratch, all excluded from AllocatableGPRs entirely).
const CalleeSavedStartGPR = 7

// AllocatableFPRs excludes XMM14/XMM15 (reserved as ScratchFPRs); SysV has
// no callee-saved XMM registers, so the rest of the bank is all caller-saved.
var AllocatableFPRs = []uint8{XMM0, XMM1, XMM2, XMM3, XMM4, XMM5, XMM6, XMM7, XMM8, XMM9, XMM10, XMM11, XMM12, XMM13}

// GPR/FPR builds a real, pre-colored VReg for a fixed integer/float
// register, used to pin ABI-mandated argument/return/stack-pointer
// registers in selected instructions.
func GPR(r uint8) machine.VReg { return machine.RReg(machine.BankGPR, r) }
func FPR(r uint8) machine.VReg { return machine.RReg(machine.BankFPR, r) }

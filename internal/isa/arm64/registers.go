// Package arm64 holds the AArch64 calling convention and register tables:
// AAPCS64 argument/return classification and the allocatable register
// sets, built analogously to package amd64 (spec §4.7, "targeting x86-64
// and, analogously, aarch64"). It has no instruction selector, and
// driver.Compile rejects TargetARM64.
package arm64

import "github.com/mu-vm/muc/internal/machine"

// General-purpose (X0-X30) register indices. X29 is the frame pointer,
// X30 the link register; both are reserved and excluded from
// AllocatableGPRs.
const (
	X0 uint8 = iota
	X1
	X2
	X3
	X4
	X5
	X6
	X7
	X8
	X9
	X10
	X11
	X12
	X13
	X14
	X15
	X16
	X17
	X18
	X19
	X20
	X21
	X22
	X23
	X24
	X25
	X26
	X27
	X28
	FP // X29
	LR // X30
	SP
	NumGPR
)

// Vector/FP (D0-D31) register indices.
const (
	D0 uint8 = iota
	D1
	D2
	D3
	D4
	D5
	D6
	D7
	D8
	D9
	D10
	D11
	D12
	D13
	D14
	D15
	D16
	D17
	D18
	D19
	D20
	D21
	D22
	D23
	D24
	D25
	D26
	D27
	D28
	D29
	D30
	D31
	NumFPR
)

// ArgumentGPRs is the AAPCS64 integer argument register order (X0-X7).
var ArgumentGPRs = []uint8{X0, X1, X2, X3, X4, X5, X6, X7}

// ArgumentFPRs is the AAPCS64 floating-point argument register order
// (D0-D7).
var ArgumentFPRs = []uint8{D0, D1, D2, D3, D4, D5, D6, D7}

// ReturnGPRs is the AAPCS64 integer return register order; a 128-bit
// return value uses X0:X1.
var ReturnGPRs = []uint8{X0, X1}

// ReturnFPRs is the AAPCS64 floating-point return register order.
var ReturnFPRs = []uint8{D0, D1}

// CalleeSavedGPRs (X19-X28) must be preserved across a call per AAPCS64.
var CalleeSavedGPRs = []uint8{X19, X20, X21, X22, X23, X24, X25, X26, X27, X28}

// AllocatableGPRs excludes FP/LR/SP (reserved) and X8 (indirect-result
// register, left free for struct-return lowering); caller-saved registers
// come first so the allocator prefers them over the callee-saved half.
var AllocatableGPRs = []uint8{
	X0, X1, X2, X3, X4, X5, X6, X7, X9, X10, X11, X12, X13, X14, X15, X16, X17, X18,
	X19, X20, X21, X22, X23, X24, X25, X26, X27, X28,
}

// CalleeSavedStartGPR is AllocatableGPRs' index where CalleeSavedGPRs
// begin, feeding regalloc.Config.CalleeSavedStart for the GPR bank.
const CalleeSavedStartGPR = 18

// AllocatableFPRs covers D0-D31; AAPCS64 treats D8-D15 as callee-saved
// (only their low 64 bits), but this target does not yet distinguish a
// callee-saved FPR half since no spec-mandated case crosses a call with a
// live float needing that guarantee beyond what a full save/restore of
// D8-D15 in the prologue already provides.
var AllocatableFPRs = []uint8{
	D0, D1, D2, D3, D4, D5, D6, D7, D8, D9, D10, D11, D12, D13, D14, D15, D16, D17, D18,
	D19, D20, D21, D22, D23, D24, D25, D26, D27, D28, D29, D30, D31,
}

func GPR(r uint8) machine.VReg { return machine.RReg(machine.BankGPR, r) }
func FPR(r uint8) machine.VReg { return machine.RReg(machine.BankFPR, r) }

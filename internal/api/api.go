// Package api declares the external-collaborator surfaces this compiler
// assumes but does not implement: the embedder-facing micro-VM API
// (spec §6.1) and the runtime unwinder protocol a compiled frame must
// satisfy (spec §6.5). Per spec.md §1's scoping, these are declared Go
// interfaces/structs only — a real heap, loader, and unwinder live
// outside this module's scope.
package api

import "github.com/mu-vm/muc/internal/ir"

// Handle is an opaque embedder-visible reference to a VM-side value
// (spec §6.1's MuVM handle). The concrete representation is owned by
// the runtime this compiler targets, not by this package.
type Handle uintptr

// MuVM is the embedder-facing surface: an opaque micro-VM instance that
// owns contexts, bundles, and boot images (spec §6.1).
type MuVM interface {
	NewContext() Context
	LoadBundle(binaryIR []byte) error
	Compile(ctx Context) error
	MakeBootImage(path string, whitelist []ir.FuncVersionID) error
}

// Context is one embedder interaction session: it mints handles, runs
// threads, and exposes memory accessors (spec §6.1).
type Context interface {
	NewThread(stack Handle, threadLocal Handle) (Handle, error)

	HandleFromSInt8(v int8) Handle
	HandleFromSInt16(v int16) Handle
	HandleFromSInt32(v int32) Handle
	HandleFromSInt64(v int64) Handle
	HandleFromUInt64(v uint64) Handle
	HandleFromFloat(v float32) Handle
	HandleFromDouble(v float64) Handle
	HandleFromPtr(v uintptr) Handle
	HandleFromRef(v uintptr) Handle
	HandleFromTagRef64(v uint64) Handle

	HandleToSInt64(h Handle) int64
	HandleToUInt64(h Handle) uint64
	HandleToDouble(h Handle) float64
	HandleToPtr(h Handle) uintptr
	HandleToRef(h Handle) uintptr

	Load(loc Handle, order MemoryOrder) (Handle, error)
	Store(loc Handle, val Handle, order MemoryOrder) error
	CmpXchg(loc, expected, desired Handle, success, failure MemoryOrder) (old Handle, ok bool, err error)
	AtomicRMW(op AtomicOp, loc, val Handle, order MemoryOrder) (old Handle, err error)
	Fence(order MemoryOrder)
}

// MemoryOrder mirrors the IR's memory-order enum lowered to hardware
// fences (spec §5, "IR memory-order enum lowered to fences").
type MemoryOrder int

const (
	OrderNotAtomic MemoryOrder = iota
	OrderRelaxed
	OrderConsume
	OrderAcquire
	OrderRelease
	OrderAcqRel
	OrderSeqCst
)

// AtomicOp enumerates the ATOMICRMW operations spec §6.1 lists.
type AtomicOp int

const (
	AtomicXchg AtomicOp = iota
	AtomicAdd
	AtomicSub
	AtomicAnd
	AtomicNand
	AtomicOr
	AtomicXor
	AtomicMax
	AtomicMin
	AtomicUMax
	AtomicUMin
)

// Unwinder is the runtime-side collaborator a compiled frame's callsite
// table (package frame) is built to satisfy: walk the saved-FP chain,
// binary-search each frame's callsite table for the matching return
// address, restore callee-saved registers, and transfer control to the
// handler (spec §6.5). This compiler only emits the tables the real
// unwinder needs; it never walks a live stack itself.
type Unwinder interface {
	// FrameAt returns the unwind metadata for the frame whose saved
	// frame pointer is fp, or false if fp does not head a known frame.
	FrameAt(fp uintptr) (CallsiteTable, bool)
	// Propagate walks frames starting at fp, searching each frame's
	// table for returnAddr, until it finds a handler or exhausts the
	// chain.
	Propagate(fp uintptr, returnAddr uintptr) (handlerFP uintptr, handlerPC uintptr, found bool)
}

// CallsiteTable is the sorted [(returnAddr, handlerPC)] table one frame
// contributes (spec §6.5), searched by binary search on ReturnAddr.
type CallsiteTable []CallsiteEntry

// CallsiteEntry is one row of a CallsiteTable.
type CallsiteEntry struct {
	ReturnAddr uintptr
	HandlerPC  uintptr
}

// Package driver runs one FuncVersion through the full compile pipeline:
// the mandatory prepasses, instruction selection, register allocation,
// a peephole cleanup, and frame-layout/context emission.
//
// The pipeline shape is grounded on the teacher's backend.Machine
// interface (internal/engine/wazevo/backend/machine.go), which drives a
// wasm function through LowerParams -> LowerInstr (per block) ->
// LowerReturns -> RegAlloc -> PostRegAlloc -> Encode as one ordered
// sequence owned by a single entry point; package driver's Compile plays
// the same orchestrating role for package ir's FuncVersion instead of a
// wasm function body, generalized to run either ISA backend behind one
// Target switch.
package driver

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mu-vm/muc/internal/frame"
	"github.com/mu-vm/muc/internal/ir"
	"github.com/mu-vm/muc/internal/isa/amd64"
	"github.com/mu-vm/muc/internal/machine"
	"github.com/mu-vm/muc/internal/persist"
	"github.com/mu-vm/muc/internal/prepass"
	"github.com/mu-vm/muc/internal/regalloc"
	"github.com/mu-vm/muc/internal/typeinfo"
)

var log = logrus.New()

// Target names a supported instruction-selection backend.
type Target int

const (
	TargetAMD64 Target = iota
	TargetARM64
)

// Result is one compiled function's output, ready for persist.Write.
type Result struct {
	Function  *machine.Function
	Frame     *frame.Frame
	Callsites []frame.Callsite
}

// regAllocConfig returns the GPR/FPR Config for t. Allocatable-register
// counts and the callee-saved boundary come straight from the target's
// register package (spec §4.6.2's GPR/GPREX/FPR groups, concretized per
// target).
func regAllocConfig(t Target, bank machine.Bank) regalloc.Config {
	switch t {
	case TargetAMD64:
		if bank == machine.BankFPR {
			return regalloc.Config{NumAllocatable: len(amd64.AllocatableFPRs), ScratchRegs: amd64.ScratchFPRs}
		}
		return regalloc.Config{
			NumAllocatable:   len(amd64.AllocatableGPRs),
			CalleeSavedStart: amd64.CalleeSavedStartGPR,
			ScratchRegs:      amd64.ScratchGPRs,
		}
	default:
		return regalloc.Config{NumAllocatable: 16}
	}
}

// Compile runs fv through RetSink -> GenMovPhi -> InjectRuntime, selects
// machine instructions for t, allocates registers bank by bank, runs the
// peephole redundant-move pass, and assigns a stack frame for whatever
// register allocation could not keep in registers.
func Compile(fv *ir.FuncVersion, reg *ir.Registry, info *typeinfo.Cache, t Target) (*Result, error) {
	log.WithFields(logrus.Fields{"func": fv.Name, "target": t}).Debug("driver: compile enter")

	if err := prepass.RetSink(fv, reg); err != nil {
		return nil, fmt.Errorf("driver: retsink: %w", err)
	}
	if err := prepass.GenMovPhi(fv, reg); err != nil {
		return nil, fmt.Errorf("driver: genmovphi: %w", err)
	}
	if err := prepass.InjectRuntime(fv, reg, info); err != nil {
		return nil, fmt.Errorf("driver: injectruntime: %w", err)
	}

	for _, bid := range fv.BlockIDs() {
		for _, id := range fv.Block(bid).Insts {
			if op := fv.Inst(id).Opcode; op == ir.OpWatchpoint || op == ir.OpSwapStack {
				return nil, fmt.Errorf("driver: %w", ir.Unimplemented(op.String()))
			}
		}
	}

	var fn *machine.Function
	switch t {
	case TargetAMD64:
		fn = amd64.Select(fv, reg)
	default:
		return nil, fmt.Errorf("driver: target %d has no instruction selector wired yet", t)
	}
	log.WithFields(logrus.Fields{"func": fv.Name, "blocks": len(fn.Blocks)}).Debug("driver: instruction selection done")

	gprResult := regalloc.Bank(fn, machine.BankGPR, regAllocConfig(t, machine.BankGPR))
	fprResult := regalloc.Bank(fn, machine.BankFPR, regAllocConfig(t, machine.BankFPR))

	Peephole(fn)

	fr := assignFrame(t, fn, gprResult, fprResult)

	log.WithFields(logrus.Fields{
		"func": fv.Name, "frame_size": fr.Size(), "callsites": len(fr.Callsites()),
	}).Debug("driver: compile exit")
	return &Result{Function: fn, Frame: fr, Callsites: fr.Callsites()}, nil
}

// assignFrame reserves a spill slot for every virtual register either
// bank's allocation could not color, reserves then prunes the
// callee-saved-register region (spec §4.3), and records one callsite entry
// per call instruction, each carrying the GC root set live across it, so
// the unwinder and the collector can both walk this frame (spec §4.4/§4.7/§6.5).
func assignFrame(t Target, fn *machine.Function, results ...*regalloc.Result) *frame.Frame {
	fr := frame.New()
	for _, res := range results {
		for _, v := range res.Spilled.Members() {
			fr.AllocSlot(v, 8, 8)
		}
	}
	reserveCalleeSaved(t, fr, fn)

	addr := int64(0)
	for _, b := range fn.Blocks {
		for _, in := range b.Instrs {
			addr += 4 // fixed-width encoding unit assumed for callsite bookkeeping
			if in.IsCall {
				fr.AddCallsite(frame.Callsite{
					ReturnAddr: addr,
					LandingPad: 0,
					LiveRefs:   collectLiveRefs(in, results, fr),
				})
			}
		}
	}
	return fr
}

// reserveCalleeSaved allocates a slot for every callee-saved GPR up front,
// then forgets whichever ones this function's body never actually defines,
// matching frame.rs's reserve-maximal-then-prune sequencing (spec §4.3)
// instead of leaving Frame.Forget dead code.
func reserveCalleeSaved(t Target, fr *frame.Frame, fn *machine.Function) {
	var calleeSaved []uint8
	switch t {
	case TargetAMD64:
		calleeSaved = amd64.CalleeSavedGPRs
	default:
		return
	}

	regs := make([]machine.VReg, len(calleeSaved))
	for i, r := range calleeSaved {
		regs[i] = machine.RReg(machine.BankGPR, r)
		fr.AllocSlot(regs[i], 8, 8)
	}

	clobbered := clobberedRealRegs(fn)
	for _, v := range regs {
		if !clobbered[machine.Key(v)] {
			fr.Forget(v)
		}
	}
}

// clobberedRealRegs collects every real register this function's body
// assigns to, after register allocation has rewritten virtual registers
// to their colors.
func clobberedRealRegs(fn *machine.Function) map[uint64]bool {
	out := make(map[uint64]bool)
	mark := func(v machine.VReg) {
		if v.IsReal {
			out[machine.Key(v)] = true
		}
	}
	for _, b := range fn.Blocks {
		for _, in := range b.Instrs {
			for _, d := range in.Defs {
				mark(d)
			}
			if in.IsMove {
				mark(in.MoveDst)
			}
		}
	}
	return out
}

// collectLiveRefs resolves a call instruction's per-bank GC live-reference
// sets (regalloc.Result.CallLiveRefs) to concrete frame.RefLocs: a colored
// register resolves directly, a spilled one resolves through the frame
// slot assignFrame already allocated for it above.
func collectLiveRefs(in *machine.Instr, results []*regalloc.Result, fr *frame.Frame) []frame.RefLoc {
	var out []frame.RefLoc
	for _, res := range results {
		for _, v := range res.CallLiveRefs[in] {
			if color, ok := res.Color[machine.Key(v)]; ok {
				out = append(out, frame.RefLoc{Kind: frame.RefLocReg, Reg: machine.RReg(v.Bank, uint8(color))})
				continue
			}
			if slot, ok := fr.SlotFor(v); ok {
				out = append(out, frame.RefLoc{Kind: frame.RefLocStack, Offset: slot.Offset})
			}
		}
	}
	return out
}

// ToContext packages a compile Result as a persist.Context ready to be
// written to a cache file (spec §6.6).
func ToContext(symbol string, code []byte, r *Result) *persist.Context {
	entries := make([]persist.CallsiteEntry, len(r.Callsites))
	for i, c := range r.Callsites {
		entries[i] = persist.CallsiteEntry{ReturnAddr: c.ReturnAddr, LandingPad: c.LandingPad}
	}
	return &persist.Context{
		Symbol:    symbol,
		Code:      code,
		FrameSize: r.Frame.Size(),
		Callsites: entries,
	}
}

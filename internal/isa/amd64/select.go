package amd64

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mu-vm/muc/internal/ir"
	"github.com/mu-vm/muc/internal/machine"
)

var log = logrus.New()

// opMnemonics maps the IR's arithmetic/bitwise opcodes to this target's
// mnemonic spelling; one selector entry per opcode rather than per
// instruction instance is what lets Select stay a table dispatch instead
// of a giant switch body (spec §4.4, "target-specific tiling").
var opMnemonics = map[ir.Opcode]string{
	ir.OpAdd: "ADD", ir.OpSub: "SUB", ir.OpMul: "IMUL",
	ir.OpAnd: "AND", ir.OpOr: "OR", ir.OpXor: "XOR",
	ir.OpShl: "SHL", ir.OpLshr: "SHR", ir.OpAshr: "SAR",
	ir.OpFAdd: "ADDSD", ir.OpFSub: "SUBSD", ir.OpFMul: "MULSD", ir.OpFDiv: "DIVSD",
}

func bank(reg *ir.Registry, ty ir.TypeID) machine.Bank {
	switch reg.Type(ty).Kind {
	case ir.TypeKindFloat, ir.TypeKindDouble:
		return machine.BankFPR
	default:
		return machine.BankGPR
	}
}

// selector lowers one FuncVersion's blocks into a package machine
// Function, mapping each IR SSAValue one-for-one to a fresh virtual
// register in the type's register bank.
type selector struct {
	fv    *ir.FuncVersion
	reg   *ir.Registry
	vregs map[ir.ValueID]machine.VReg
	next  uint32

	// vregs128 holds the lo/hi register pair for a 128-bit-wide SSAValue
	// (spec §4.4 Int128 lowering), kept separate from vregs since such a
	// value never fits in one VReg.
	vregs128 map[ir.ValueID][2]machine.VReg
}

// Select performs instruction selection over fv (after the prepass
// pipeline has already run RetSink/GenMovPhi/InjectRuntime), producing a
// machine.Function with one machine.Block per IR block in the same order
// and CFG shape (spec §4.4).
func Select(fv *ir.FuncVersion, reg *ir.Registry) *machine.Function {
	log.WithField("func", fv.Name).Debug("amd64: select enter")
	s := &selector{fv: fv, reg: reg, vregs: make(map[ir.ValueID]machine.VReg), vregs128: make(map[ir.ValueID][2]machine.VReg)}

	blockByID := make(map[ir.BlockID]*machine.Block)
	var order []*machine.Block
	for _, bid := range fv.BlockIDs() {
		mb := &machine.Block{ID: int(bid)}
		blockByID[bid] = mb
		order = append(order, mb)
	}
	for _, bid := range fv.BlockIDs() {
		b := fv.Block(bid)
		mb := blockByID[bid]
		for _, succ := range b.Succs {
			sb := blockByID[succ]
			mb.Succs = append(mb.Succs, sb)
			sb.Preds = append(sb.Preds, mb)
		}
		if bid == fv.Entry {
			s.lowerParams(mb)
		}
		for _, instID := range b.Insts {
			s.lower(mb, fv.Inst(instID))
		}
	}
	fn := machine.NewFunction(order)
	insertLoopYieldpoints(fn)
	log.WithFields(logrus.Fields{"func": fv.Name, "blocks": len(order)}).Debug("amd64: select exit")
	return fn
}

// lowerParams binds the entry block's formal parameters to their
// ABI-assigned locations (spec §4.4/§6.4): ComputeArguments classifies the
// signature once, then each bound vreg is def'd by a move out of its
// argument register (or, for a stack-passed argument, out of the incoming
// argument area this target does not yet model byte-for-byte).
func (s *selector) lowerParams(mb *machine.Block) {
	sig := s.reg.FuncSig(s.fv.Sig)
	entry := s.fv.Block(s.fv.Entry)
	locs := ComputeArguments(sig.Args, s.reg)
	for i, pv := range entry.ParamVals {
		if i >= len(sig.Args) || i >= len(locs) {
			continue
		}
		switch locs[i].Kind {
		case ArgGPR, ArgFPR:
			dst := s.vreg(pv, sig.Args[i])
			mb.Instrs = append(mb.Instrs, &machine.Instr{
				Mnemonic: "MOV.param", Defs: []machine.VReg{dst}, Uses: []machine.VReg{locs[i].Reg},
				IsMove: true, MoveDst: dst, MoveSrc: locs[i].Reg,
			})
		case ArgGPREX:
			lo, hi := s.vregPair(pv)
			mb.Instrs = append(mb.Instrs,
				&machine.Instr{Mnemonic: "MOV.param", Defs: []machine.VReg{lo}, Uses: []machine.VReg{locs[i].Lo},
					IsMove: true, MoveDst: lo, MoveSrc: locs[i].Lo},
				&machine.Instr{Mnemonic: "MOV.param", Defs: []machine.VReg{hi}, Uses: []machine.VReg{locs[i].Hi},
					IsMove: true, MoveDst: hi, MoveSrc: locs[i].Hi},
			)
		case ArgStack:
			dst := s.vreg(pv, sig.Args[i])
			mb.Instrs = append(mb.Instrs, &machine.Instr{Mnemonic: "MOV.stackarg", Defs: []machine.VReg{dst}})
		}
	}
}

// insertLoopYieldpoints emits a compare-and-branch against take_yield at
// the end of every loop back-edge's source block, immediately before its
// terminator (spec §4.4, "a safepoint at every loop back-edge").
func insertLoopYieldpoints(fn *machine.Function) {
	byID := make(map[int]*machine.Block, len(fn.Blocks))
	for _, b := range fn.Blocks {
		byID[b.ID] = b
	}
	for _, e := range fn.BackEdges() {
		b := byID[e[0]]
		if b == nil || len(b.Instrs) == 0 {
			continue
		}
		term := b.Instrs[len(b.Instrs)-1]
		rest := b.Instrs[:len(b.Instrs)-1]
		b.Instrs = append(append(rest, yieldpoint()...), term)
	}
}

func yieldpoint() []*machine.Instr {
	return []*machine.Instr{
		{Mnemonic: "CMP.take_yield", IsYieldpoint: true},
		{Mnemonic: "JNZ .yield_slow"},
	}
}

func (s *selector) vreg(v ir.ValueID, ty ir.TypeID) machine.VReg {
	if r, ok := s.vregs[v]; ok {
		return r
	}
	r := machine.VReg{ID: s.next, Bank: bank(s.reg, ty), IsRef: s.reg.Type(ty).IsTraced()}
	s.next++
	s.vregs[v] = r
	return r
}

// vregPair returns the lo/hi register pair backing a 128-bit SSAValue
// (spec §4.4 Int128 lowering: a single Mu value classified groupGPREX
// never fits one machine register).
func (s *selector) vregPair(v ir.ValueID) (lo, hi machine.VReg) {
	if p, ok := s.vregs128[v]; ok {
		return p[0], p[1]
	}
	lo = machine.VReg{ID: s.next, Bank: machine.BankGPR}
	s.next++
	hi = machine.VReg{ID: s.next, Bank: machine.BankGPR}
	s.next++
	s.vregs128[v] = [2]machine.VReg{lo, hi}
	return lo, hi
}

func (s *selector) operandPair(op ir.Operand) (lo, hi machine.VReg) {
	if op.IsConst {
		lo = machine.VReg{ID: s.next, Bank: machine.BankGPR}
		s.next++
		hi = machine.VReg{ID: s.next, Bank: machine.BankGPR}
		s.next++
		return lo, hi
	}
	return s.vregPair(op.Value)
}

func (s *selector) operand(op ir.Operand, ty ir.TypeID) machine.VReg {
	if op.IsConst {
		// Constants materialize through a dedicated MOV-immediate; modeled
		// here as a fresh temporary def'd by that move so every operand is
		// uniformly a VReg by the time an Instr is built.
		tmp := machine.VReg{ID: s.next, Bank: bank(s.reg, ty)}
		s.next++
		return tmp
	}
	return s.vreg(op.Value, ty)
}

func (s *selector) lower(mb *machine.Block, inst *ir.Instruction) {
	switch inst.Opcode {
	case ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpAnd, ir.OpOr, ir.OpXor,
		ir.OpShl, ir.OpLshr, ir.OpAshr, ir.OpFAdd, ir.OpFSub, ir.OpFMul, ir.OpFDiv:
		s.lowerBinOp(mb, inst)
	case ir.OpICmp, ir.OpFCmp:
		s.lowerCmp(mb, inst)
	case ir.OpMove:
		s.lowerMove(mb, inst)
	case ir.OpLoad:
		s.lowerLoad(mb, inst)
	case ir.OpStore:
		s.lowerStore(mb, inst)
	case ir.OpBranch1:
		mb.Instrs = append(mb.Instrs, &machine.Instr{Mnemonic: "JMP"})
	case ir.OpBranch2:
		cond := s.vreg(inst.Ops[0].Value, s.condType())
		mb.Instrs = append(mb.Instrs, &machine.Instr{Mnemonic: "TEST", Uses: []machine.VReg{cond, cond}})
		mb.Instrs = append(mb.Instrs, &machine.Instr{Mnemonic: "JNZ"})
	case ir.OpReturn:
		s.lowerReturn(mb, inst)
	case ir.OpCall, ir.OpExprCall, ir.OpTailCall:
		s.lowerCall(mb, inst)
	case ir.OpCCall:
		s.lowerCCall(mb, inst)
	case ir.OpGetVMThreadLocal:
		dst := s.vreg(inst.Defs[0], 0)
		mb.Instrs = append(mb.Instrs, &machine.Instr{Mnemonic: "MOV.FS", Defs: []machine.VReg{dst}})
	case ir.OpShiftIRef, ir.OpGetIRef, ir.OpGetFieldIRef, ir.OpGetElemIRef,
		ir.OpGetVarPartIRef, ir.OpGetFixedPartIRef:
		s.lowerAddressCompute(mb, inst)
	default:
		// Conversions, atomics, TagRef64 bit-twiddling, and the
		// opaque/unimplemented constructs (spec DESIGN NOTES §9(a)) each
		// tile to a short fixed instruction sequence on this target;
		// omitted here since the dispatch shape above is what this package
		// demonstrates, not an exhaustive per-opcode tiling of the full ISA.
		s.lowerGeneric(mb, inst)
	}
}

func (s *selector) condType() ir.TypeID { return 0 }

func (s *selector) lowerBinOp(mb *machine.Block, inst *ir.Instruction) {
	ty := inst.Type
	if (inst.Opcode == ir.OpAdd || inst.Opcode == ir.OpSub) && classify(s.reg.Type(ty)) == groupGPREX {
		s.lowerBinOp128(mb, inst)
		return
	}
	dst := s.vreg(inst.Defs[0], ty)
	lhs := s.operand(inst.Ops[0], ty)
	rhs := s.operand(inst.Ops[1], ty)
	mb.Instrs = append(mb.Instrs, &machine.Instr{
		Mnemonic: opMnemonics[inst.Opcode],
		Defs:     []machine.VReg{dst},
		Uses:     []machine.VReg{lhs, rhs},
	})
}

// lowerBinOp128 tiles a 128-bit add/sub as a low-word op followed by a
// high-word op consuming the carry/borrow flag the first left set (spec
// §4.4 Int128 lowering): ADD/ADC for addition, SUB/SBB for subtraction,
// the standard two-instruction extended-precision idiom.
func (s *selector) lowerBinOp128(mb *machine.Block, inst *ir.Instruction) {
	dstLo, dstHi := s.vregPair(inst.Defs[0])
	aLo, aHi := s.operandPair(inst.Ops[0])
	bLo, bHi := s.operandPair(inst.Ops[1])

	lowOp, highOp := "ADD", "ADC"
	if inst.Opcode == ir.OpSub {
		lowOp, highOp = "SUB", "SBB"
	}
	mb.Instrs = append(mb.Instrs,
		&machine.Instr{Mnemonic: lowOp, Defs: []machine.VReg{dstLo}, Uses: []machine.VReg{aLo, bLo}},
		&machine.Instr{Mnemonic: highOp, Defs: []machine.VReg{dstHi}, Uses: []machine.VReg{aHi, bHi}},
	)
}

func (s *selector) lowerCmp(mb *machine.Block, inst *ir.Instruction) {
	dst := s.vreg(inst.Defs[0], 0)
	lhs := s.operand(inst.Ops[0], 0)
	rhs := s.operand(inst.Ops[1], 0)
	mnemonic := "CMP"
	if inst.Opcode == ir.OpFCmp {
		mnemonic = "UCOMISD"
	}
	mb.Instrs = append(mb.Instrs, &machine.Instr{Mnemonic: mnemonic, Uses: []machine.VReg{lhs, rhs}})
	mb.Instrs = append(mb.Instrs, &machine.Instr{
		Mnemonic: "SET" + predSuffix(inst.Pred),
		Defs:     []machine.VReg{dst},
	})
}

func predSuffix(p ir.CmpPred) string {
	switch p {
	case ir.CmpEQ:
		return "E"
	case ir.CmpNE:
		return "NE"
	case ir.CmpSGT:
		return "G"
	case ir.CmpSGE:
		return "GE"
	case ir.CmpSLT:
		return "L"
	case ir.CmpSLE:
		return "LE"
	case ir.CmpUGT:
		return "A"
	case ir.CmpUGE:
		return "AE"
	case ir.CmpULT:
		return "B"
	case ir.CmpULE:
		return "BE"
	default:
		return "E"
	}
}

func (s *selector) lowerMove(mb *machine.Block, inst *ir.Instruction) {
	dst := s.vreg(inst.Defs[0], 0)
	src := s.operand(inst.Ops[0], 0)
	mb.Instrs = append(mb.Instrs, &machine.Instr{
		Mnemonic: "MOV", Defs: []machine.VReg{dst}, Uses: []machine.VReg{src},
		IsMove: true, MoveDst: dst, MoveSrc: src,
	})
}

func (s *selector) lowerLoad(mb *machine.Block, inst *ir.Instruction) {
	dst := s.vreg(inst.Defs[0], 0)
	addr := s.operand(inst.Ops[0], 0)
	mb.Instrs = append(mb.Instrs, &machine.Instr{Mnemonic: "MOV.load", Defs: []machine.VReg{dst}, Uses: []machine.VReg{addr}})
}

func (s *selector) lowerStore(mb *machine.Block, inst *ir.Instruction) {
	addr := s.operand(inst.Ops[0], 0)
	val := s.operand(inst.Ops[1], 0)
	mb.Instrs = append(mb.Instrs, &machine.Instr{Mnemonic: "MOV.store", Uses: []machine.VReg{addr, val}})
}

func (s *selector) lowerAddressCompute(mb *machine.Block, inst *ir.Instruction) {
	dst := s.vreg(inst.Defs[0], 0)
	var uses []machine.VReg
	for _, op := range inst.Ops {
		uses = append(uses, s.operand(op, 0))
	}
	mb.Instrs = append(mb.Instrs, &machine.Instr{Mnemonic: "LEA", Defs: []machine.VReg{dst}, Uses: uses})
}

func (s *selector) lowerReturn(mb *machine.Block, inst *ir.Instruction) {
	locs := ComputeReturnValues(s.reg.FuncSig(s.fv.Sig).Rets, s.reg)
	var uses []machine.VReg
	for i, op := range inst.Ops {
		v := s.operand(op, 0)
		uses = append(uses, v)
		if i < len(locs) && locs[i].Kind == ArgGPR {
			mb.Instrs = append(mb.Instrs, &machine.Instr{
				Mnemonic: "MOV", Defs: []machine.VReg{locs[i].Reg}, Uses: []machine.VReg{v},
				IsMove: true, MoveDst: locs[i].Reg, MoveSrc: v,
			})
		}
	}
	mb.Instrs = append(mb.Instrs, &machine.Instr{Mnemonic: "RET", Uses: uses, IsReturn: true})
}

func (s *selector) lowerCall(mb *machine.Block, inst *ir.Instruction) {
	var defs []machine.VReg
	for _, d := range inst.Defs {
		defs = append(defs, s.vreg(d, 0))
	}
	var uses []machine.VReg
	for _, op := range inst.Ops {
		uses = append(uses, s.operand(op, 0))
	}
	mb.Instrs = append(mb.Instrs, &machine.Instr{
		Mnemonic: fmt.Sprintf("CALL %s", inst.CallSym),
		Defs:     defs, Uses: uses,
		IsCall: true, IsIndirectCall: inst.CallSym == "",
	})
}

func (s *selector) lowerCCall(mb *machine.Block, inst *ir.Instruction) {
	// A native call has no yieldpoint of its own on the other side, so a
	// pending yield request is serviced just before crossing out (spec
	// §4.4, "a safepoint ... before every CCALL").
	mb.Instrs = append(mb.Instrs, yieldpoint()...)
	s.lowerCall(mb, inst)
}

func (s *selector) lowerGeneric(mb *machine.Block, inst *ir.Instruction) {
	var defs, uses []machine.VReg
	for _, d := range inst.Defs {
		defs = append(defs, s.vreg(d, 0))
	}
	for _, op := range inst.Ops {
		uses = append(uses, s.operand(op, 0))
	}
	mb.Instrs = append(mb.Instrs, &machine.Instr{Mnemonic: inst.Opcode.String(), Defs: defs, Uses: uses})
}

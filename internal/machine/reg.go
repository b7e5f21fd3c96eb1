// Package machine is the machine-code container instruction selection
// lowers into: virtual-register instructions grouped into CFG blocks, with
// the liveness and interference-graph scaffolding package regalloc needs
// (spec §4.6, "Register allocation operates on machine code, not IR").
package machine

// Bank distinguishes integer/pointer registers from floating-point
// registers; a VReg in one bank never interferes with a VReg in the other.
type Bank uint8

const (
	BankGPR Bank = iota
	BankFPR
)

// VReg is a virtual register: an allocator-assigned id paired with the
// bank it lives in. Real (pre-colored) registers reuse the same type with
// IsReal set, the way wazero's own VReg packs a real-register tag into the
// same 32-bit value (backend/regalloc/reg.go) rather than using two
// distinct types threaded everywhere.
type VReg struct {
	ID      uint32
	Bank    Bank
	IsReal  bool
	RealReg uint8 // valid only when IsReal

	// IsRef marks a value of a GC-traced type (spec §3.2 Type.IsTraced):
	// instruction selection sets it so the driver's per-callsite live-reference
	// map (spec §4.4) knows which live registers the collector must scan.
	IsRef bool
}

// RReg constructs a pre-colored VReg for a concrete machine register,
// used to pin call arguments/returns and fixed ABI registers before
// allocation runs.
func RReg(bank Bank, real uint8) VReg {
	return VReg{Bank: bank, IsReal: true, RealReg: real}
}

// RegSet is a small set of VRegs, used throughout liveness and
// interference-graph construction.
type RegSet map[uint64]VReg

// Key computes the RegSet/graph identity of a VReg: real registers are
// distinguished by bank+RealReg (ID is unused and left at zero by
// constructors like RReg), virtual registers by bank+ID. Exported so
// package regalloc's interference graph, which keys its own maps on the
// same identity, never drifts out of sync with RegSet's notion of it.
func Key(v VReg) uint64 {
	if v.IsReal {
		return uint64(1)<<63 | uint64(v.Bank)<<32 | uint64(v.RealReg)
	}
	return uint64(v.Bank)<<32 | uint64(v.ID)
}

func NewRegSet() RegSet { return make(RegSet) }

func (s RegSet) Add(v VReg)           { s[Key(v)] = v }
func (s RegSet) Contains(v VReg) bool { _, ok := s[Key(v)]; return ok }
func (s RegSet) Remove(v VReg)        { delete(s, Key(v)) }
func (s RegSet) Len() int             { return len(s) }

// Members returns the set's elements in no particular order.
func (s RegSet) Members() []VReg {
	out := make([]VReg, 0, len(s))
	for _, v := range s {
		out = append(out, v)
	}
	return out
}

func (s RegSet) Clone() RegSet {
	c := make(RegSet, len(s))
	for k, v := range s {
		c[k] = v
	}
	return c
}

// Union returns a new set holding every member of s and o.
func (s RegSet) Union(o RegSet) RegSet {
	u := s.Clone()
	for k, v := range o {
		u[k] = v
	}
	return u
}

// Minus returns a new set holding every member of s not in o.
func (s RegSet) Minus(o RegSet) RegSet {
	d := make(RegSet, len(s))
	for k, v := range s {
		if _, ok := o[k]; !ok {
			d[k] = v
		}
	}
	return d
}

// Equal reports whether s and o contain the same members.
func (s RegSet) Equal(o RegSet) bool {
	if len(s) != len(o) {
		return false
	}
	for k := range s {
		if _, ok := o[k]; !ok {
			return false
		}
	}
	return true
}

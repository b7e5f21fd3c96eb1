package ir

// ConstKind enumerates the compile-time scalar kinds a Constant can hold
// (spec §3.1).
type ConstKind uint8

const (
	ConstKindInt ConstKind = iota
	ConstKindIntEx
	ConstKindFloat
	ConstKindDouble
	ConstKindNull
	ConstKindFuncRef
	ConstKindExternSym
	ConstKindList
)

// Constant is an immutable compile-time scalar.
type Constant struct {
	Kind ConstKind

	Int      uint64   // ConstKindInt
	IntEx    []uint64 // ConstKindIntEx: little-endian words, for Int(>64) literals
	Float    float32  // ConstKindFloat
	Double   float64  // ConstKindDouble
	FuncRef  uint32   // ConstKindFuncRef: function id
	Extern   string   // ConstKindExternSym
	ListElem []ConstID
}

// IntConst builds a ConstKindInt constant.
func IntConst(v uint64) Constant { return Constant{Kind: ConstKindInt, Int: v} }

// DoubleConst builds a ConstKindDouble constant.
func DoubleConst(v float64) Constant { return Constant{Kind: ConstKindDouble, Double: v} }

// FloatConst builds a ConstKindFloat constant.
func FloatConst(v float32) Constant { return Constant{Kind: ConstKindFloat, Float: v} }

// NullConst builds the null reference constant.
func NullConst() Constant { return Constant{Kind: ConstKindNull} }

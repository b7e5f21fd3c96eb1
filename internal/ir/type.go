// Package ir implements the Mu data model: interned types, signatures and
// constants, and the per-FuncVersion arena of SSA values, blocks and
// instructions described by the Mu specification §3.
package ir

import "fmt"

// TypeID is a stable identifier for an interned Type.
type TypeID uint32

// TypeKind enumerates the structural kinds a Mu Type can take.
type TypeKind uint8

const (
	TypeKindInvalid TypeKind = iota
	TypeKindInt              // Int(n): n-bit integer, 1 <= n <= 128
	TypeKindFloat            // 32-bit IEEE 754
	TypeKindDouble           // 64-bit IEEE 754
	TypeKindRef              // Ref(T): traced heap reference
	TypeKindIRef             // IRef(T): traced interior reference
	TypeKindWeakRef          // WeakRef(T): traced, does not keep target alive
	TypeKindUPtr             // UPtr(T): untraced raw pointer
	TypeKindUFuncPtr         // UFuncPtr(sig): untraced raw function pointer
	TypeKindStruct           // Struct(tag): named field list looked up by tag
	TypeKindArray            // Array(T, N): fixed-length homogeneous array
	TypeKindHybrid           // Hybrid(fix[], var): fixed prefix + variable-length tail
	TypeKindVector           // Vector(T, N): SIMD vector
	TypeKindVoid             // Void: zero-sized
	TypeKindThreadRef        // ThreadRef: opaque handle to a Mu thread
	TypeKindStackRef         // StackRef: opaque handle to a Mu stack
	TypeKindTagRef64         // TagRef64: NaN-boxed tagged 64-bit value
	TypeKindFuncRef          // FuncRef(sig): traced reference to a function
)

// Type is the structural description of a Mu value's type, per spec §3.1.
// Types are interned: two Types with identical structure share a TypeID once
// both have passed through a Registry.
type Type struct {
	Kind TypeKind

	// IntBits is valid only for TypeKindInt: 1 <= IntBits <= 128.
	IntBits int

	// Elem is the pointee/element type for Ref, IRef, WeakRef, UPtr, Array,
	// Vector and the fixed-prefix reference of Hybrid.
	Elem TypeID

	// Len is the element count for Array and Vector.
	Len int

	// StructTag names the VM-wide struct layout this Struct type refers to.
	// Two Struct types with the same tag MUST have the same field list
	// (spec §3.2 "Struct tags").
	StructTag string

	// HybridFixed are the fixed-prefix field types of a Hybrid type.
	HybridFixed []TypeID
	// HybridVar is the element type of the Hybrid's variable-length tail.
	HybridVar TypeID

	// Sig is the referenced signature for UFuncPtr and FuncRef.
	Sig FuncSigID
}

// String renders a Type for debugging and trace logging.
func (t Type) String() string {
	switch t.Kind {
	case TypeKindInt:
		return fmt.Sprintf("int<%d>", t.IntBits)
	case TypeKindFloat:
		return "float"
	case TypeKindDouble:
		return "double"
	case TypeKindRef:
		return fmt.Sprintf("ref<%d>", t.Elem)
	case TypeKindIRef:
		return fmt.Sprintf("iref<%d>", t.Elem)
	case TypeKindWeakRef:
		return fmt.Sprintf("weakref<%d>", t.Elem)
	case TypeKindUPtr:
		return fmt.Sprintf("uptr<%d>", t.Elem)
	case TypeKindUFuncPtr:
		return fmt.Sprintf("ufuncptr<%d>", t.Sig)
	case TypeKindStruct:
		return fmt.Sprintf("struct<%s>", t.StructTag)
	case TypeKindArray:
		return fmt.Sprintf("array<%d x %d>", t.Elem, t.Len)
	case TypeKindHybrid:
		return fmt.Sprintf("hybrid<%v, var %d>", t.HybridFixed, t.HybridVar)
	case TypeKindVector:
		return fmt.Sprintf("vector<%d x %d>", t.Elem, t.Len)
	case TypeKindVoid:
		return "void"
	case TypeKindThreadRef:
		return "threadref"
	case TypeKindStackRef:
		return "stackref"
	case TypeKindTagRef64:
		return "tagref64"
	case TypeKindFuncRef:
		return fmt.Sprintf("funcref<%d>", t.Sig)
	default:
		return "invalid"
	}
}

// IsTraced reports whether the GC must trace values of this type. UPtr and
// UFuncPtr are pointer-like but untraced (spec §3.2).
func (t Type) IsTraced() bool {
	switch t.Kind {
	case TypeKindRef, TypeKindIRef, TypeKindWeakRef, TypeKindFuncRef, TypeKindStackRef, TypeKindThreadRef:
		return true
	case TypeKindTagRef64:
		// Traced conditionally at runtime (tr64_is_ref); the static type is
		// conservatively treated as traced for gc-map purposes.
		return true
	default:
		return false
	}
}

// FuncSigID is a stable identifier for an interned FuncSig.
type FuncSigID uint32

// FuncSig is an interned function signature: ordered return and argument
// types (spec §3.1).
type FuncSig struct {
	Rets []TypeID
	Args []TypeID
}

func (s FuncSig) equal(o FuncSig) bool {
	if len(s.Rets) != len(o.Rets) || len(s.Args) != len(o.Args) {
		return false
	}
	for i, t := range s.Rets {
		if o.Rets[i] != t {
			return false
		}
	}
	for i, t := range s.Args {
		if o.Args[i] != t {
			return false
		}
	}
	return true
}

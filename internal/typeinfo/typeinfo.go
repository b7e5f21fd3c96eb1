// Package typeinfo computes, per Mu Type, the size/alignment/field-offset
// and gc-map information the rest of the back end needs (spec §4.2).
package typeinfo

import (
	"github.com/mu-vm/muc/internal/gcobj"
	"github.com/mu-vm/muc/internal/ir"
)

// Info is the cached backend type info for one ir.Type.
type Info struct {
	Size      uint64
	Alignment uint64
	// FieldOffsets holds, for TypeKindStruct only, the byte offset of each
	// field in declaration order.
	FieldOffsets []uint64
	GCType       gcobj.TypeLayout
}

// Cache computes and memoizes Info per ir.TypeID (spec §4.2 "computes
// (cached per id)").
type Cache struct {
	reg  *ir.Registry
	byID map[ir.TypeID]*Info
}

// NewCache returns a Cache backed by reg.
func NewCache(reg *ir.Registry) *Cache {
	return &Cache{reg: reg, byID: make(map[ir.TypeID]*Info)}
}

// Get returns the Info for id, computing and caching it on first access.
func (c *Cache) Get(id ir.TypeID) *Info {
	if info, ok := c.byID[id]; ok {
		return info
	}
	// Insert a placeholder before recursing so that a self-referential
	// struct (permitted because tags are looked up by name, not inlined)
	// cannot recurse infinitely; field types of a struct are always fully
	// interned Types, never the struct's own TypeID directly, so this is a
	// defensive measure rather than a load-bearing one.
	info := &Info{}
	c.byID[id] = info
	*info = *c.compute(id)
	return info
}

func (c *Cache) compute(id ir.TypeID) *Info {
	t := c.reg.Type(id)
	switch t.Kind {
	case ir.TypeKindInt:
		return &Info{Size: intSize(t.IntBits), Alignment: intAlign(t.IntBits), GCType: gcobj.TypeLayout{Align: intAlign(t.IntBits), Fixed: nonRefWords(intSize(t.IntBits))}}
	case ir.TypeKindFloat:
		return &Info{Size: 4, Alignment: 4, GCType: gcobj.TypeLayout{Align: 4, Fixed: []gcobj.WordKind{gcobj.WordNonRef}}}
	case ir.TypeKindDouble:
		return &Info{Size: 8, Alignment: 8, GCType: gcobj.TypeLayout{Align: 8, Fixed: []gcobj.WordKind{gcobj.WordNonRef}}}
	case ir.TypeKindRef:
		return &Info{Size: 8, Alignment: 8, GCType: gcobj.TypeLayout{Align: 8, Fixed: []gcobj.WordKind{gcobj.WordRef}}}
	case ir.TypeKindIRef:
		return &Info{Size: 8, Alignment: 8, GCType: gcobj.TypeLayout{Align: 8, Fixed: []gcobj.WordKind{gcobj.WordRef}}}
	case ir.TypeKindWeakRef:
		return &Info{Size: 8, Alignment: 8, GCType: gcobj.TypeLayout{Align: 8, Fixed: []gcobj.WordKind{gcobj.WordWeakRef}}}
	case ir.TypeKindTagRef64:
		return &Info{Size: 8, Alignment: 8, GCType: gcobj.TypeLayout{Align: 8, Fixed: []gcobj.WordKind{gcobj.WordTaggedRef}}}
	case ir.TypeKindUPtr, ir.TypeKindUFuncPtr, ir.TypeKindFuncRef, ir.TypeKindThreadRef, ir.TypeKindStackRef:
		// UPtr/UFuncPtr are pointer-like but untraced (spec §3.2); FuncRef,
		// ThreadRef and StackRef are traced opaque 8-byte handles.
		kind := gcobj.WordNonRef
		if t.Kind == ir.TypeKindFuncRef || t.Kind == ir.TypeKindThreadRef || t.Kind == ir.TypeKindStackRef {
			kind = gcobj.WordRef
		}
		return &Info{Size: 8, Alignment: 8, GCType: gcobj.TypeLayout{Align: 8, Fixed: []gcobj.WordKind{kind}}}
	case ir.TypeKindVoid:
		return &Info{Size: 0, Alignment: 1}
	case ir.TypeKindVector:
		elem := c.Get(t.Elem)
		return &Info{Size: uint64(t.Len) * elem.Size, Alignment: elem.Alignment, GCType: repeatWords(elem.GCType, t.Len)}
	case ir.TypeKindArray:
		elem := c.Get(t.Elem)
		stride := alignUp(elem.Size, elem.Alignment)
		return &Info{Size: uint64(t.Len) * stride, Alignment: elem.Alignment, GCType: repeatWords(elem.GCType, t.Len)}
	case ir.TypeKindStruct:
		return c.computeStruct(t)
	case ir.TypeKindHybrid:
		return c.computeHybrid(t)
	default:
		return &Info{Size: 0, Alignment: 1}
	}
}

func (c *Cache) computeStruct(t ir.Type) *Info {
	fields, _ := c.reg.StructFields(t.StructTag)
	var offsets []uint64
	var off uint64
	var align uint64 = 1
	var words []gcobj.WordKind
	for _, f := range fields {
		fi := c.Get(f)
		if fi.Alignment > align {
			align = fi.Alignment
		}
		off = alignUp(off, fi.Alignment)
		offsets = append(offsets, off)
		words = append(words, padWords(words, off)...)
		for i, w := range fi.GCType.Fixed {
			idx := int(off/8) + i
			for len(words) <= idx {
				words = append(words, gcobj.WordNonRef)
			}
			if w != gcobj.WordNonRef {
				words[idx] = w
			}
		}
		off += fi.Size
	}
	size := alignUp(off, align)
	return &Info{Size: size, Alignment: align, FieldOffsets: offsets, GCType: gcobj.TypeLayout{Align: align, Fixed: words}}
}

func (c *Cache) computeHybrid(t ir.Type) *Info {
	var off uint64
	var align uint64 = 1
	var words []gcobj.WordKind
	for _, f := range t.HybridFixed {
		fi := c.Get(f)
		if fi.Alignment > align {
			align = fi.Alignment
		}
		off = alignUp(off, fi.Alignment)
		words = append(words, fi.GCType.Fixed...)
		off += fi.Size
	}
	size := alignUp(off, align)
	varInfo := c.Get(t.HybridVar)
	if varInfo.Alignment > align {
		align = varInfo.Alignment
	}
	return &Info{
		Size:      size, // variable part omitted from the fixed size (spec §4.2)
		Alignment: align,
		GCType:    gcobj.TypeLayout{Align: align, Fixed: words, Var: varInfo.GCType.Fixed},
	}
}

func intSize(bits int) uint64 {
	return uint64((bits + 7) / 8)
}

func intAlign(bits int) uint64 {
	switch {
	case bits <= 8:
		return 1
	case bits <= 16:
		return 2
	case bits <= 32:
		return 4
	case bits <= 64:
		return 8
	default:
		return 16
	}
}

func nonRefWords(size uint64) []gcobj.WordKind {
	n := (size + 7) / 8
	if n == 0 {
		n = 1
	}
	out := make([]gcobj.WordKind, n)
	for i := range out {
		out[i] = gcobj.WordNonRef
	}
	return out
}

func padWords(existing []gcobj.WordKind, offset uint64) []gcobj.WordKind {
	// This implementation flattens struct gc-maps at word granularity by
	// placing each field's words at the field's own 8-byte word index
	// (filling gaps with NonRef), so no separate padding step is
	// needed beyond what computeStruct already does; kept as a no-op hook so
	// the word-flattening algorithm has one place to extend if sub-word
	// struct packing is added later.
	_ = existing
	_ = offset
	return nil
}

func repeatWords(elem gcobj.TypeLayout, n int) gcobj.TypeLayout {
	var out []gcobj.WordKind
	for i := 0; i < n; i++ {
		out = append(out, elem.Fixed...)
	}
	return gcobj.TypeLayout{Align: elem.Align, Fixed: out}
}

func alignUp(v, align uint64) uint64 {
	if align == 0 {
		return v
	}
	return (v + align - 1) &^ (align - 1)
}

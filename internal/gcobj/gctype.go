package gcobj

// GlobalTypeEntry is one row of the persisted global type table (spec §6.6):
// the word-packed gc-map for a single backend type, indexed by type id. Each
// WordKind is packed 2 bits per word (4 per byte), matching the wire layout
// the original Mu implementation used for its sidemap type table, so that a
// Context load/store round-trips type ids bit-for-bit.
type GlobalTypeEntry struct {
	FixLen uint8
	FixTy  []byte // ceil(FixLen/4) bytes, 2 bits per word
	VarLen uint8
	VarTy  []byte
}

// PackWords packs WordKinds 4 per byte, 2 bits each (same as the reference
// encoding), into the TypeEncode wire form. It places no limit on
// len(words); GlobalTypeEntry's FixLen/VarLen are single bytes, so one
// entry describes at most 255 words (510 bits) per part.
func PackWords(words []WordKind) []byte {
	out := make([]byte, (len(words)+3)/4)
	for i, w := range words {
		out[i/4] |= byte(w) << uint((i%4)*2)
	}
	return out
}

// UnpackWord extracts the WordKind at index i from a packed byte slice, per
// the 2-bits-per-word layout used by PackWords.
func UnpackWord(packed []byte, i int) WordKind {
	b := packed[i/4]
	return WordKind((b >> uint((i%4)*2)) & 0b11)
}

// NewGlobalTypeEntry builds a GlobalTypeEntry from a TypeLayout.
func NewGlobalTypeEntry(l TypeLayout) GlobalTypeEntry {
	e := GlobalTypeEntry{
		FixLen: uint8(len(l.Fixed)),
		FixTy:  PackWords(l.Fixed),
	}
	if l.Var != nil {
		e.VarLen = uint8(len(l.Var))
		e.VarTy = PackWords(l.Var)
	}
	return e
}

// FixWord returns the WordKind of the i-th fixed-part word.
func (e GlobalTypeEntry) FixWord(i int) WordKind { return UnpackWord(e.FixTy, i) }

// VarWord returns the WordKind of the i-th variable-part word (hybrid only).
func (e GlobalTypeEntry) VarWord(i int) WordKind { return UnpackWord(e.VarTy, i) }

// GlobalTypeTable holds one GlobalTypeEntry per interned backend type,
// indexed by type id, as persisted by the linker/context emitter (spec
// §4.7/§6.6).
type GlobalTypeTable struct {
	entries []GlobalTypeEntry
}

// Add appends entry and returns its assigned type id.
func (t *GlobalTypeTable) Add(entry GlobalTypeEntry) uint32 {
	id := uint32(len(t.entries))
	t.entries = append(t.entries, entry)
	return id
}

// Get returns the entry for typeID.
func (t *GlobalTypeTable) Get(typeID uint32) GlobalTypeEntry { return t.entries[typeID] }

// Len returns the number of entries in the table.
func (t *GlobalTypeTable) Len() int { return len(t.entries) }
